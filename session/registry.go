// Package session holds the authoritative state of established 1:1 sessions
// and the relay forwarding messages through them.
package session

import (
	"fmt"
	"sync"

	"floorlink/domain"
	"floorlink/errors"
)

// Registry is the authoritative map of paired participants. Both halves of a
// pairing are written and removed inside one critical section: no observer
// ever sees exactly one of the two entries.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ParticipantID]domain.PairedSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ParticipantID]domain.PairedSession)}
}

// Create atomically validates that neither participant holds an entry and
// inserts the symmetric pair with status active. Validate-then-write happens
// under one lock, so of two racing creations touching a shared participant
// exactly one wins; the loser gets ErrAlreadyInSession.
func (r *Registry) Create(a, b domain.ParticipantID) error {
	if a == b {
		return fmt.Errorf("pairing %s with itself: %w", a, errors.ErrAlreadyInSession)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[a]; ok {
		return fmt.Errorf("%s: %w", a, errors.ErrAlreadyInSession)
	}
	if _, ok := r.sessions[b]; ok {
		return fmt.Errorf("%s: %w", b, errors.ErrAlreadyInSession)
	}
	r.sessions[a] = domain.PairedSession{Partner: b, Status: domain.StatusActive}
	r.sessions[b] = domain.PairedSession{Partner: a, Status: domain.StatusActive}
	return nil
}

// Get returns the participant's half of its pairing, if any.
func (r *Registry) Get(id domain.ParticipantID) (domain.PairedSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// End removes both entries of the pairing. Idempotent: ending an
// already-ended pairing reports removed=false and changes nothing, so
// concurrent teardown paths (delivery failure and user end) cannot double
// their side effects.
func (r *Registry) End(a, b domain.ParticipantID) (removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sa, okA := r.sessions[a]
	if !okA || sa.Partner != b {
		return false
	}
	delete(r.sessions, a)
	delete(r.sessions, b)
	return true
}

// SetStatus writes the status on both halves symmetrically. A participant
// without a session is a silent no-op.
func (r *Registry) SetStatus(id domain.ParticipantID, status domain.SessionStatus) (partner domain.ParticipantID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[id]
	if !found {
		return "", false
	}
	r.sessions[id] = domain.PairedSession{Partner: s.Partner, Status: status}
	r.sessions[s.Partner] = domain.PairedSession{Partner: id, Status: status}
	return s.Partner, true
}

// Snapshot copies the current pairing table, for inspection tooling.
func (r *Registry) Snapshot() map[domain.ParticipantID]domain.PairedSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.ParticipantID]domain.PairedSession, len(r.sessions))
	for id, s := range r.sessions {
		out[id] = s
	}
	return out
}
