package agent

// Status is the life-cycle state of a timed agent.
type Status int

// The life cycle is Uninitialised -> Running -> one of the terminal states.
const (
	StatusUninitialised Status = iota
	StatusRunning
	StatusCompleted
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialised:
		return "uninitialised"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final. No further cycles are
// permitted on an agent in a terminal state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}
