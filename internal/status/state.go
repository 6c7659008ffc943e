package status

import "slices"

// Status is the synchronization state of a locally stored message.
type Status string

const (
	// Pending means no send attempt has returned definitively yet. Timeouts
	// and dead connections leave a message here so the next cycle retries it.
	Pending Status = "PENDING"
	// Sent means the server accepted the message and assigned a server id.
	Sent Status = "SENT"
	// Failed means the server explicitly rejected the message.
	Failed Status = "FAILED"
)

// validTransitions defines allowed sync-status transitions. Sent is terminal:
// once the server has acknowledged a message, nothing moves it back.
var validTransitions = map[Status][]Status{
	Pending: {Sent, Failed},
	Failed:  {Pending, Sent, Failed},
	Sent:    {},
}

// Valid reports whether s is a known sync status.
func Valid(s Status) bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransition reports whether a message may move from one status to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}
