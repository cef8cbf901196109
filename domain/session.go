package domain

// SessionStatus is the shared state of both halves of a paired session.
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusPaused SessionStatus = "paused"
)

// PairedSession is one participant's half of an established 1:1 relay
// session. The registry keeps the two halves symmetric: as long as A's entry
// points to B, B's entry points to A and both carry the same status.
type PairedSession struct {
	Partner ParticipantID
	Status  SessionStatus
}
