package errors

import "fmt"

var (
	// ErrStateMismatch rejects stale or out-of-order actions (a button press
	// after the flow already advanced or was cancelled). Nothing is mutated.
	ErrStateMismatch = fmt.Errorf("state mismatch")
	// ErrNotFound means the searched identifier matched no foreign records.
	ErrNotFound = fmt.Errorf("no matching owners")
	// ErrAlreadyInSession rejects pairing while either side holds a session.
	ErrAlreadyInSession = fmt.Errorf("already in a session")
	// ErrDeliveryFailure marks an outbound send that did not reach its target.
	ErrDeliveryFailure = fmt.Errorf("delivery failure")
	// ErrMalformedAction rejects inbound payloads that fail decoding or
	// validation at the transport boundary.
	ErrMalformedAction = fmt.Errorf("malformed action")
	// ErrNotPermitted rejects operations the caller's roles do not grant.
	ErrNotPermitted = fmt.Errorf("not permitted")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
