// Package event defines the domain events emitted by the pairing core.
// Events feed observability sinks only; no business decision depends on them.
package event

import (
	"time"

	"floorlink/domain"
)

type DomainEvent interface {
	// Participants returns the ids the event concerns, for sinks that
	// partition by participant.
	Participants() []domain.ParticipantID
}

// SessionEstablished fires once per successful handshake.
type SessionEstablished struct {
	Initiator  domain.ParticipantID
	Responder  domain.ParticipantID
	SearchTerm string
	At         time.Time
}

func (e SessionEstablished) Participants() []domain.ParticipantID {
	return []domain.ParticipantID{e.Initiator, e.Responder}
}

// SessionEnded fires once per teardown, whatever triggered it.
type SessionEnded struct {
	A      domain.ParticipantID
	B      domain.ParticipantID
	Reason string
	At     time.Time
}

func (e SessionEnded) Participants() []domain.ParticipantID {
	return []domain.ParticipantID{e.A, e.B}
}

// SessionStatusChanged fires on pause and resume.
type SessionStatusChanged struct {
	A      domain.ParticipantID
	B      domain.ParticipantID
	Status domain.SessionStatus
	At     time.Time
}

func (e SessionStatusChanged) Participants() []domain.ParticipantID {
	return []domain.ParticipantID{e.A, e.B}
}

// MessageRelayed fires per forwarded chat message. Content is not carried:
// the relay does not persist and sinks must not either.
type MessageRelayed struct {
	From     domain.ParticipantID
	To       domain.ParticipantID
	Language string
	Censored bool
	At       time.Time
}

func (e MessageRelayed) Participants() []domain.ParticipantID {
	return []domain.ParticipantID{e.From, e.To}
}

// NegotiationFailed fires when a handshake reaches a terminal failure.
type NegotiationFailed struct {
	Initiator domain.ParticipantID
	Reason    string
	At        time.Time
}

func (e NegotiationFailed) Participants() []domain.ParticipantID {
	return []domain.ParticipantID{e.Initiator}
}
