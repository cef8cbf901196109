package transport

import (
	"context"
	"fmt"
	"sync"

	"floorlink/domain"
	"floorlink/errors"
)

// MemoryTransport is an in-process Transport for tests and local runs. It
// records every delivered prompt per participant and can simulate
// unreachable participants.
type MemoryTransport struct {
	mu          sync.Mutex
	inboxes     map[domain.ParticipantID][]domain.Prompt
	unreachable map[domain.ParticipantID]bool
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		inboxes:     make(map[domain.ParticipantID][]domain.Prompt),
		unreachable: make(map[domain.ParticipantID]bool),
	}
}

// Send implements contract.Transport.
func (t *MemoryTransport) Send(_ context.Context, to domain.ParticipantID, prompt domain.Prompt) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unreachable[to] {
		return fmt.Errorf("%s unreachable: %w", to, errors.ErrDeliveryFailure)
	}
	t.inboxes[to] = append(t.inboxes[to], prompt)
	return nil
}

// SetUnreachable toggles delivery failures for one participant.
func (t *MemoryTransport) SetUnreachable(id domain.ParticipantID, down bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unreachable[id] = down
}

// Prompts returns a copy of everything delivered to the participant so far.
func (t *MemoryTransport) Prompts(id domain.ParticipantID) []domain.Prompt {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Prompt, len(t.inboxes[id]))
	copy(out, t.inboxes[id])
	return out
}

// LastPrompt returns the most recent delivery to the participant, if any.
func (t *MemoryTransport) LastPrompt(id domain.ParticipantID) (domain.Prompt, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	box := t.inboxes[id]
	if len(box) == 0 {
		return domain.Prompt{}, false
	}
	return box[len(box)-1], true
}
