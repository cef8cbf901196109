package domain

// Action is the decoded inbound intent of a participant. The transport
// boundary decodes the wire envelope exactly once into one of the variants
// below; handlers never re-parse strings. The acting participant is not part
// of the variant: the dispatcher derives it from the authenticated envelope.
type Action interface {
	isAction()
}

// StartSearch opens the pairing flow. Identifier may be empty, in which case
// the initiator is prompted to type it as the next message.
type StartSearch struct {
	Identifier string
}

// SelectTarget picks one owner out of an ambiguous match.
type SelectTarget struct {
	Owner ParticipantID
}

// CancelSelection abandons the flow while an owner choice is pending.
type CancelSelection struct{}

// ConfirmInitiator locks the initiator's side of the handshake.
type ConfirmInitiator struct{}

// CancelInitiator abandons the flow at the initiator confirmation step.
// Nothing has been sent to the prospective target yet.
type CancelInitiator struct{}

// ConfirmResponder is the target's consent to a pending pairing request.
type ConfirmResponder struct {
	Initiator ParticipantID
}

// DeclineResponder is the target's refusal of a pending pairing request.
type DeclineResponder struct {
	Initiator ParticipantID
}

// Pause suspends the caller's session for both participants.
type Pause struct{}

// Resume reactivates the caller's paused session for both participants.
type Resume struct{}

// EndSession tears the caller's session down for both participants.
type EndSession struct{}

// ChatText is free text. Depending on the sender's state it is a work-item
// identifier, an in-session message, or out-of-band noise.
type ChatText struct {
	Text string
}

func (StartSearch) isAction()      {}
func (SelectTarget) isAction()     {}
func (CancelSelection) isAction()  {}
func (ConfirmInitiator) isAction() {}
func (CancelInitiator) isAction()  {}
func (ConfirmResponder) isAction() {}
func (DeclineResponder) isAction() {}
func (Pause) isAction()            {}
func (Resume) isAction()           {}
func (EndSession) isAction()       {}
func (ChatText) isAction()         {}
