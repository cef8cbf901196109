// Package domain contains core concepts of the work-item chat system.
// No runtime, network, or storage logic should be added here.
package domain

// ParticipantID identifies a factory-floor participant across the whole
// system. It is opaque: the transport decides what it maps to.
type ParticipantID string

func (p ParticipantID) IsZero() bool {
	return p == ""
}
