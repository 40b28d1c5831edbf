package command

// Status is the lifecycle state of a remote command. Transitions only
// move forward; there is no path out of a terminal status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusExecuting Status = "EXECUTING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusSent, StatusCancelled},
	StatusSent:      {StatusExecuting, StatusCancelled},
	StatusExecuting: {StatusCompleted, StatusFailed},
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusSent, StatusExecuting, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a command may move from one status to
// another along the forward-only graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	return len(transitions[s]) == 0 && ValidStatus(s)
}
