package domain

// NegotiationStage tracks where a handshake currently stands. Terminal
// outcomes (paired, cancelled, errored, not found) never appear here: a
// negotiation reaching any of them is deleted, not parked.
type NegotiationStage int

const (
	StageAwaitingIdentifier NegotiationStage = iota
	StageAwaitingSelection
	StageAwaitingInitiatorConfirm
	StageAwaitingResponderConfirm
)

func (s NegotiationStage) String() string {
	switch s {
	case StageAwaitingIdentifier:
		return "awaiting_identifier"
	case StageAwaitingSelection:
		return "awaiting_selection"
	case StageAwaitingInitiatorConfirm:
		return "awaiting_initiator_confirm"
	case StageAwaitingResponderConfirm:
		return "awaiting_responder_confirm"
	default:
		return "unknown"
	}
}

// Candidate is one distinct owner of records matching the searched
// identifier, with everything needed to present a selection option.
type Candidate struct {
	Owner       ParticipantID
	DisplayName string
	Records     []WorkItemRecord
}

// Negotiation is the ephemeral per-initiator handshake state. It is created
// when the initiator starts a search and destroyed on every terminal
// transition. An entry surviving a terminal transition is a leak.
type Negotiation struct {
	Initiator  ParticipantID
	Stage      NegotiationStage
	SearchTerm string
	Candidates map[ParticipantID]Candidate
	Selected   ParticipantID
}
