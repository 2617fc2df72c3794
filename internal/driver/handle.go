// Package driver defines the boundary the session manager and task
// launcher are built against: a synchronous command surface over the
// master connection, plus the in-memory Fake used by tests and the demo
// CLI. Serializing calls and deserializing callbacks for a real wire-level
// master connection is left to a concrete Handle implementation; this
// package only defines the interface and the fake.
package driver

import (
	"context"

	"github.com/kessler-frost/mesos-scheduler/internal/eventbus"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

// Status is the terminal status of a driver run, returned by Join.
type Status struct {
	IsRunning bool
	Message   string
}

// Handle is the synchronous command surface the session manager drives.
// Implementations are assumed safe for concurrent invocation: the session
// manager may call Decline and LaunchTasks from different goroutines
// without external synchronization. Grounded on the SchedulerDriver
// interface shape (Start/Stop/LaunchTasks/KillTask/DeclineOffer/
// ReviveOffers/ReconcileTasks/Acknowledge).
type Handle interface {
	// Start begins the session. It must be called before any other method.
	Start() Status

	// Stop ends the session. failover controls whether the master should
	// keep the framework's tasks running for a subsequent reconnect.
	Stop(failover bool)

	// Abort ends the session without the possibility of failover.
	Abort()

	// Join blocks until the driver's internal loop exits and returns its
	// final status. Callers must run Join on a goroutine that tolerates
	// blocking.
	Join(ctx context.Context) Status

	// LaunchTasks launches tasks against the given offers. A synchronous
	// error means the master rejected the call outright; per-task outcomes
	// still arrive asynchronously as TaskEvents for the tasks that did ship.
	LaunchTasks(offerIDs []mesos.OfferID, tasks []mesos.TaskInfo) error

	// DeclineOffer releases an offer back to the master, fire-and-forget.
	DeclineOffer(offerID mesos.OfferID, filters mesos.Filters) error

	// KillTask requests termination of a running task, fire-and-forget.
	KillTask(taskID mesos.TaskID) error

	// ReviveOffers removes filters previously installed by LaunchTasks so
	// the framework starts receiving offers from filtered agents again.
	ReviveOffers() error

	// ReconcileTasks asks the master to resend the latest status for the
	// given tasks (or, if empty, for every task the master still knows
	// about).
	ReconcileTasks(taskIDs []mesos.TaskID) error

	// Acknowledge confirms receipt of a terminal status update so the agent
	// stops retrying delivery.
	Acknowledge(taskID mesos.TaskID, state mesos.TaskState) error

	// Events returns the multi-subscriber event bus callers observe; the
	// session manager and task launcher each subscribe to their own
	// filtered view of it.
	Events() *eventbus.Bus
}
