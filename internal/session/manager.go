// Package session implements the framework session manager: the state
// machine that turns connect/disconnect/launch/kill calls and the driver's
// asynchronous event stream into lifecycle-aware Results.
//
// Each per-task watch is a context-scoped goroutine with its own
// cancellation, subscribed to the event bus for the task's status updates.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/kessler-frost/mesos-scheduler/internal/config"
	"github.com/kessler-frost/mesos-scheduler/internal/driver"
	"github.com/kessler-frost/mesos-scheduler/internal/eventbus"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

// ConnectResult is what a successful connect() resolves with.
type ConnectResult struct {
	FrameworkID mesos.FrameworkID
	MasterInfo  mesos.MasterInfo
}

// Manager is the session manager. It owns the lifecycle state machine and
// the set of live per-task terminal-watches.
type Manager struct {
	logger hclog.Logger
	driver driver.Handle
	bus    *eventbus.Bus
	cfg    config.Session

	state atomic.Int32 // mesos.SessionState

	ctxMu      sync.RWMutex
	sessionCtx context.Context
	sessionDone context.CancelFunc

	// subscriptions tracks the live terminal-watches, keyed by task ID.
	// Invariant: at most one entry per TaskID; inserting replaces and
	// cancels whatever was there before.
	subscriptions sync.Map // mesos.TaskID -> context.CancelFunc
}

// New creates a Manager bound to handle, in the initial Disconnected state.
func New(logger hclog.Logger, handle driver.Handle, cfg config.Session) *Manager {
	m := &Manager{
		logger: logger.Named("session"),
		driver: handle,
		bus:    handle.Events(),
		cfg:    cfg,
	}
	m.state.Store(int32(mesos.Disconnected))
	ctx, cancel := context.WithCancel(context.Background())
	// Canceled immediately: no session is active until a successful
	// connect() installs a live one. Keeps sessionCtx() callable at any
	// time without a nil check.
	cancel()
	m.sessionCtx, m.sessionDone = ctx, cancel
	return m
}

// State returns the current lifecycle state. It is a hint: by the time the
// caller observes it, the state may already have moved on.
func (m *Manager) State() mesos.SessionState {
	return mesos.SessionState(m.state.Load())
}

// Events exposes the underlying event bus so collaborators such as the task
// launcher can subscribe to event kinds the session manager itself does not
// consume (EventOffers, most notably).
func (m *Manager) Events() *eventbus.Bus {
	return m.bus
}

func (m *Manager) cas(from, to mesos.SessionState) bool {
	return m.state.CompareAndSwap(int32(from), int32(to))
}

func (m *Manager) armSession() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	m.ctxMu.Lock()
	m.sessionDone() // cancel whatever was armed before, if anything
	m.sessionCtx, m.sessionDone = ctx, cancel
	m.ctxMu.Unlock()
	return ctx
}

func (m *Manager) disarmSession() {
	m.ctxMu.Lock()
	m.sessionDone()
	m.ctxMu.Unlock()
}

func (m *Manager) currentSessionCtx() context.Context {
	m.ctxMu.RLock()
	defer m.ctxMu.RUnlock()
	return m.sessionCtx
}

// Connect transitions Disconnected -> Connecting -> {Connected,
// Disconnected} and resolves with the framework ID and master info on
// success. A precondition failure (already connecting/connected) resolves
// the returned Result immediately.
func (m *Manager) Connect() *Result[ConnectResult] {
	result := NewResult[ConnectResult]()

	if !m.cas(mesos.Disconnected, mesos.Connecting) {
		result.Fail(mesos.PreconditionError("connect", m.State()))
		return result
	}

	subCtx, cancel := context.WithCancel(context.Background())
	events := m.bus.Subscribe(subCtx, eventbus.KindFilter(
		mesos.EventRegistered, mesos.EventDisconnected, mesos.EventMesosError,
	))

	go m.awaitConnect(subCtx, cancel, events, result)

	status := m.driver.Start()
	if !status.IsRunning {
		// Fail the result now, but don't force a state transition here:
		// the watch goroutine above still owns the Connecting->Disconnected
		// transition, and since no driver events will ever arrive, that
		// happens via the connect timeout instead.
		result.Fail(fmt.Errorf("connect: %w: driver is not running", mesos.ErrDriverFailure))
	}

	return result
}

func (m *Manager) awaitConnect(subCtx context.Context, cancel context.CancelFunc, events <-chan mesos.Event, result *Result[ConnectResult]) {
	defer cancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(subCtx, m.cfg.ConnectTimeout)
	defer timeoutCancel()

	select {
	case ev := <-events:
		switch ev.Kind {
		case mesos.EventRegistered:
			m.armSession()
			m.cas(mesos.Connecting, mesos.Connected)
			result.Resolve(ConnectResult{FrameworkID: ev.FrameworkID, MasterInfo: ev.MasterInfo})
		case mesos.EventDisconnected:
			m.cas(mesos.Connecting, mesos.Disconnected)
			result.Fail(fmt.Errorf("connect: disconnected during connect attempt"))
		case mesos.EventMesosError:
			m.cas(mesos.Connecting, mesos.Disconnected)
			result.Fail(fmt.Errorf("connect: %w: %s", mesos.ErrMesos, ev.Message))
		}
	case <-timeoutCtx.Done():
		m.cas(mesos.Connecting, mesos.Disconnected)
		result.Fail(mesos.TimeoutError("connect"))
	}
}

// Launch requires Connected. It arms a per-task launch-watch for every
// task before invoking the driver, and returns one Result per task in
// input order. If the driver's LaunchTasks call itself fails
// synchronously, the returned error is non-nil but the per-task Results
// stay pending: reacting to that failure (e.g. retrying against a later
// offer) is left to the caller driving the offers, not to this method.
func (m *Manager) Launch(offerIDs []mesos.OfferID, tasks []mesos.TaskInfo) ([]*Result[mesos.TaskInfo], error) {
	if m.State() != mesos.Connected {
		results := make([]*Result[mesos.TaskInfo], len(tasks))
		err := mesos.PreconditionError("launch", m.State())
		for i := range tasks {
			results[i] = Failed[mesos.TaskInfo](err)
		}
		return results, err
	}

	sessionCtx := m.currentSessionCtx()
	results := make([]*Result[mesos.TaskInfo], len(tasks))
	for i, task := range tasks {
		results[i] = NewResult[mesos.TaskInfo]()
		m.armLaunchWatch(sessionCtx, task, results[i])
	}

	if err := m.driver.LaunchTasks(offerIDs, tasks); err != nil {
		return results, fmt.Errorf("launch: %w", err)
	}
	return results, nil
}

func (m *Manager) armLaunchWatch(parent context.Context, task mesos.TaskInfo, result *Result[mesos.TaskInfo]) {
	watchCtx, cancel := context.WithCancel(parent)
	events := m.bus.Subscribe(watchCtx, eventbus.TaskFilter(task.TaskID))

	timeoutCtx, timeoutCancel := context.WithTimeout(watchCtx, m.cfg.LaunchTimeout)

	go func() {
		defer timeoutCancel()
		defer cancel()
		for {
			select {
			case ev := <-events:
				switch {
				case ev.State == mesos.TaskRunning:
					m.installTerminalWatch(task.TaskID)
					result.Resolve(task)
					return
				case ev.State == mesos.TaskStaging || ev.State == mesos.TaskStarting:
					continue
				default:
					result.Fail(mesos.TaskFailureError("launch", ev.State, ev.StatusMessage))
					return
				}
			case <-timeoutCtx.Done():
				if watchCtx.Err() == nil {
					result.Fail(mesos.TimeoutError("launch"))
				}
				return
			}
		}
	}()
}

// installTerminalWatch arms the long-lived, timeout-free subscription that
// observes a task after it reaches Running, replacing (and canceling) any
// previous terminal-watch for the same task ID. If the session is no
// longer Connected by the time the watch is installed, it is immediately
// torn back down, closing the race against a teardown that started
// concurrently.
func (m *Manager) installTerminalWatch(taskID mesos.TaskID) {
	parent := m.currentSessionCtx()
	watchCtx, cancel := context.WithCancel(parent)
	events := m.bus.Subscribe(watchCtx, eventbus.TaskFilter(taskID))

	if old, loaded := m.subscriptions.LoadOrStore(taskID, cancel); loaded {
		old.(context.CancelFunc)()
		m.subscriptions.Store(taskID, cancel)
	}

	go func() {
		defer cancel()
		for ev := range events {
			if ev.State.Terminal() {
				m.subscriptions.CompareAndDelete(taskID, cancel)
				return
			}
			// A stray duplicate TASK_RUNNING (or any other non-terminal
			// event) between unsubscribe and delivery is discarded
			// silently: this watch only ever acts on the first terminal
			// event it sees.
		}
	}()

	if m.State() != mesos.Connected {
		m.subscriptions.CompareAndDelete(taskID, cancel)
		cancel()
	}
}

// Kill requires Connected. It arms a single-shot watch for taskID's next
// terminal state and invokes the driver's KillTask.
func (m *Manager) Kill(taskID mesos.TaskID) *Result[mesos.TaskID] {
	if m.State() != mesos.Connected {
		return Failed[mesos.TaskID](mesos.PreconditionError("kill", m.State()))
	}

	result := NewResult[mesos.TaskID]()
	parent := m.currentSessionCtx()
	watchCtx, cancel := context.WithCancel(parent)
	events := m.bus.Subscribe(watchCtx, eventbus.TaskFilter(taskID))
	timeoutCtx, timeoutCancel := context.WithTimeout(watchCtx, m.cfg.KillTimeout)

	go func() {
		defer timeoutCancel()
		defer cancel()
		for {
			select {
			case ev := <-events:
				switch {
				case ev.State == mesos.TaskKilled:
					result.Resolve(taskID)
					return
				case ev.State == mesos.TaskLost:
					result.Fail(fmt.Errorf("kill: %w: task was already gone", mesos.ErrTaskFailure))
					return
				case ev.State.Terminal():
					result.Resolve(taskID)
					return
				default:
					continue
				}
			case <-timeoutCtx.Done():
				if watchCtx.Err() == nil {
					result.Fail(fmt.Errorf("kill: %w: task kill timed out", mesos.ErrTimeout))
				}
				return
			}
		}
	}()

	if err := m.driver.KillTask(taskID); err != nil {
		m.logger.Warn("killTask returned an error", "task_id", taskID.Value, "error", err)
	}
	return result
}

// Decline requires any state other than Disconnected. Connecting is
// deliberately allowed, since an offer can arrive and need declining while
// the connect handshake is still in flight; rejecting it here would just
// turn a benign race into a spurious failure.
func (m *Manager) Decline(offerID mesos.OfferID, filters mesos.Filters) error {
	if m.State() == mesos.Disconnected {
		return mesos.PreconditionError("decline", m.State())
	}
	return m.driver.DeclineOffer(offerID, filters)
}

// ReviveOffers requires Connected; fire-and-forget.
func (m *Manager) ReviveOffers() error {
	if m.State() != mesos.Connected {
		return mesos.PreconditionError("reviveOffers", m.State())
	}
	return m.driver.ReviveOffers()
}

// ReconcileTasks requires Connected; fire-and-forget.
func (m *Manager) ReconcileTasks(taskIDs []mesos.TaskID) error {
	if m.State() != mesos.Connected {
		return mesos.PreconditionError("reconcileTasks", m.State())
	}
	return m.driver.ReconcileTasks(taskIDs)
}

// Acknowledge requires Connected; fire-and-forget.
func (m *Manager) Acknowledge(taskID mesos.TaskID, state mesos.TaskState) error {
	if m.State() != mesos.Connected {
		return mesos.PreconditionError("acknowledge", m.State())
	}
	return m.driver.Acknowledge(taskID, state)
}

// Disconnect asks the master to keep this framework's tasks running for a
// future reconnect (failover=true).
func (m *Manager) Disconnect() *Result[driver.Status] {
	return m.teardown(func() { m.driver.Stop(true) })
}

// Terminate tears the session down without requesting failover.
func (m *Manager) Terminate() *Result[driver.Status] {
	return m.teardown(func() { m.driver.Stop(false) })
}

// Abort tears the session down immediately, without the possibility of a
// subsequent failover.
func (m *Manager) Abort() *Result[driver.Status] {
	return m.teardown(func() { m.driver.Abort() })
}

func (m *Manager) teardown(issue func()) *Result[driver.Status] {
	if !m.cas(mesos.Connected, mesos.Disconnecting) {
		return Failed[driver.Status](mesos.PreconditionError("disconnect", m.State()))
	}

	m.drainSubscriptions()
	issue()

	result := NewResult[driver.Status]()
	go func() {
		status := m.driver.Join(context.Background())
		if !m.cas(mesos.Disconnecting, mesos.Disconnected) {
			result.Fail(fmt.Errorf("teardown: %w: state changed unexpectedly during disconnect", mesos.ErrIllegalState))
			return
		}
		result.Resolve(status)
	}()
	return result
}

func (m *Manager) drainSubscriptions() {
	m.disarmSession()
	m.subscriptions.Range(func(key, value any) bool {
		value.(context.CancelFunc)()
		m.subscriptions.Delete(key)
		return true
	})
}
