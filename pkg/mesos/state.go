package mesos

// TaskState is the lifecycle state of a single launched task. Transitions
// flow only from a non-terminal state to a terminal one; once terminal, no
// further transition is meaningful for that task.
type TaskState int

const (
	TaskStaging TaskState = iota
	TaskStarting
	TaskRunning
	TaskFinished
	TaskFailed
	TaskKilled
	TaskLost
	TaskError
)

func (s TaskState) String() string {
	switch s {
	case TaskStaging:
		return "STAGING"
	case TaskStarting:
		return "STARTING"
	case TaskRunning:
		return "RUNNING"
	case TaskFinished:
		return "FINISHED"
	case TaskFailed:
		return "FAILED"
	case TaskKilled:
		return "KILLED"
	case TaskLost:
		return "LOST"
	case TaskError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one of the states from which no further
// transition occurs: Finished, Failed, Killed, Lost, Error.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskFinished, TaskFailed, TaskKilled, TaskLost, TaskError:
		return true
	default:
		return false
	}
}
