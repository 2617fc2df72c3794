package mesos

import "fmt"

// Sentinel error kinds callers compare against with errors.Is; each is
// wrapped with operation-specific context via fmt.Errorf's %w.
var (
	// ErrPrecondition is returned when an operation is invoked in the wrong
	// lifecycle state (e.g. launch while Disconnected).
	ErrPrecondition = fmt.Errorf("precondition violation")

	// ErrTimeout is returned when connect/launch/kill exceeds its budget.
	ErrTimeout = fmt.Errorf("timeout")

	// ErrMesos wraps a master-side error surfaced on the event bus.
	ErrMesos = fmt.Errorf("mesos error")

	// ErrTaskFailure is returned when a task enters a non-Running,
	// non-staging/starting state during a launch-watch, or becomes Lost
	// during a kill.
	ErrTaskFailure = fmt.Errorf("task failure")

	// ErrDriverFailure is returned when the driver reports not-running on
	// start, or throws synchronously from LaunchTasks.
	ErrDriverFailure = fmt.Errorf("driver failure")

	// ErrIllegalState is returned when a compare-and-set used for lifecycle
	// teardown fails unexpectedly.
	ErrIllegalState = fmt.Errorf("illegal state")
)

// PreconditionError reports that op was attempted while the session was in
// state "from" rather than an allowed state.
func PreconditionError(op string, from SessionState) error {
	return fmt.Errorf("%s: %w: invalid in state %s", op, ErrPrecondition, from)
}

// TimeoutError reports that op exceeded its time budget.
func TimeoutError(op string) error {
	return fmt.Errorf("%s: %w: attempt timed out", op, ErrTimeout)
}

// TaskFailureError reports that a task entered state with statusMessage
// while op was watching it.
func TaskFailureError(op string, state TaskState, statusMessage string) error {
	if statusMessage == "" {
		return fmt.Errorf("%s: %w: task entered state %s", op, ErrTaskFailure, state)
	}
	return fmt.Errorf("%s: %w: task entered state %s: %s", op, ErrTaskFailure, state, statusMessage)
}
