package driver

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/kessler-frost/mesos-scheduler/internal/eventbus"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

// Fake is an in-memory, deterministic Handle used by tests and by the
// schedulerctl demo CLI. It never talks to a real master: calls are
// recorded and, where the real driver would eventually push an
// asynchronous callback, a test (or the AutoAdvance option) drives the
// event bus directly.
type Fake struct {
	logger hclog.Logger
	bus    *eventbus.Bus

	mu      sync.RWMutex
	running bool
	tasks   map[mesos.TaskID]mesos.TaskInfo
	decline []DeclineCall
	launch  []LaunchCall
	killed  []mesos.TaskID
	acked   []AckCall

	startStatus Status
	launchErr   error

	autoAdvance time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	joinCh chan struct{}
}

// DeclineCall records a single DeclineOffer invocation.
type DeclineCall struct {
	OfferID mesos.OfferID
	Filters mesos.Filters
}

// LaunchCall records a single LaunchTasks invocation.
type LaunchCall struct {
	OfferIDs []mesos.OfferID
	Tasks    []mesos.TaskInfo
}

// AckCall records a single Acknowledge invocation.
type AckCall struct {
	TaskID mesos.TaskID
	State  mesos.TaskState
}

// FakeOption configures a Fake at construction time.
type FakeOption func(*Fake)

// WithStartStatus makes Start() return status instead of the default
// {IsRunning: true}, for exercising the DriverFailure-on-start path.
func WithStartStatus(status Status) FakeOption {
	return func(f *Fake) { f.startStatus = status }
}

// WithLaunchError makes LaunchTasks fail synchronously with err, for
// exercising the launcher's decline-and-retry path.
func WithLaunchError(err error) FakeOption {
	return func(f *Fake) { f.launchErr = err }
}

// WithAutoAdvance makes launched tasks walk Staging->Starting->Running on
// their own, `delay` apart, the way a real master would push status
// updates over time. Used by the schedulerctl demo; tests normally leave
// this unset and drive transitions explicitly via Simulate*.
func WithAutoAdvance(delay time.Duration) FakeOption {
	return func(f *Fake) { f.autoAdvance = delay }
}

// NewFake creates a Fake driver with its own event bus.
func NewFake(logger hclog.Logger, opts ...FakeOption) *Fake {
	f := &Fake{
		logger:      logger.Named("fake-driver"),
		bus:         eventbus.New(logger),
		tasks:       make(map[mesos.TaskID]mesos.TaskInfo),
		startStatus: Status{IsRunning: true},
		joinCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fake) Events() *eventbus.Bus { return f.bus }

func (f *Fake) Start() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startStatus.IsRunning {
		f.running = true
		f.ctx, f.cancel = context.WithCancel(context.Background())
	}
	return f.startStatus
}

func (f *Fake) stop() {
	f.mu.Lock()
	running := f.running
	f.running = false
	cancel := f.cancel
	f.mu.Unlock()
	if !running {
		return
	}
	if cancel != nil {
		cancel()
	}
	close(f.joinCh)
}

func (f *Fake) Stop(failover bool) { f.stop() }

func (f *Fake) Abort() { f.stop() }

func (f *Fake) Join(ctx context.Context) Status {
	select {
	case <-f.joinCh:
		return Status{IsRunning: false, Message: "stopped"}
	case <-ctx.Done():
		return Status{IsRunning: false, Message: ctx.Err().Error()}
	}
}

func (f *Fake) LaunchTasks(offerIDs []mesos.OfferID, tasks []mesos.TaskInfo) error {
	f.mu.Lock()
	f.launch = append(f.launch, LaunchCall{OfferIDs: offerIDs, Tasks: tasks})
	if f.launchErr != nil {
		err := f.launchErr
		f.mu.Unlock()
		return err
	}
	for _, t := range tasks {
		f.tasks[t.TaskID] = t
	}
	advance := f.autoAdvance
	f.mu.Unlock()

	if advance > 0 {
		for _, t := range tasks {
			go f.runAutoAdvance(t.TaskID, advance)
		}
	}
	return nil
}

func (f *Fake) runAutoAdvance(taskID mesos.TaskID, delay time.Duration) {
	for _, s := range []mesos.TaskState{mesos.TaskStaging, mesos.TaskStarting, mesos.TaskRunning} {
		time.Sleep(delay)
		f.SimulateTaskState(taskID, s, "")
	}
}

func (f *Fake) DeclineOffer(offerID mesos.OfferID, filters mesos.Filters) error {
	f.mu.Lock()
	f.decline = append(f.decline, DeclineCall{OfferID: offerID, Filters: filters})
	f.mu.Unlock()
	return nil
}

func (f *Fake) KillTask(taskID mesos.TaskID) error {
	f.mu.Lock()
	f.killed = append(f.killed, taskID)
	advance := f.autoAdvance
	f.mu.Unlock()
	if advance > 0 {
		go func() {
			time.Sleep(advance)
			f.SimulateTaskState(taskID, mesos.TaskKilled, "")
		}()
	}
	return nil
}

func (f *Fake) ReviveOffers() error { return nil }

func (f *Fake) ReconcileTasks(taskIDs []mesos.TaskID) error { return nil }

func (f *Fake) Acknowledge(taskID mesos.TaskID, state mesos.TaskState) error {
	f.mu.Lock()
	f.acked = append(f.acked, AckCall{TaskID: taskID, State: state})
	f.mu.Unlock()
	return nil
}

// --- test/demo driving surface: simulates callbacks a real master would push ---

func (f *Fake) SimulateRegistered(frameworkID mesos.FrameworkID, masterInfo mesos.MasterInfo) {
	f.bus.Emit(mesos.Registered(frameworkID, masterInfo))
}

func (f *Fake) SimulateDisconnected() {
	f.bus.Emit(mesos.Disconnected())
}

func (f *Fake) SimulateMesosError(message string) {
	f.bus.Emit(mesos.MesosErrorEvent(message))
}

func (f *Fake) SimulateOffers(offers ...mesos.Offer) {
	f.bus.Emit(mesos.OffersEvent(offers...))
}

func (f *Fake) SimulateTaskState(taskID mesos.TaskID, state mesos.TaskState, statusMessage string) {
	f.bus.Emit(mesos.TaskEventOf(taskID, state, statusMessage))
}

// Calls below are read-only accessors for assertions in tests.

func (f *Fake) LaunchCalls() []LaunchCall {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]LaunchCall, len(f.launch))
	copy(out, f.launch)
	return out
}

func (f *Fake) DeclineCalls() []DeclineCall {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]DeclineCall, len(f.decline))
	copy(out, f.decline)
	return out
}

func (f *Fake) KilledTasks() []mesos.TaskID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]mesos.TaskID, len(f.killed))
	copy(out, f.killed)
	return out
}

func (f *Fake) IsRunning() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.running
}

var _ Handle = (*Fake)(nil)
