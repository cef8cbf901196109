package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"floorlink/contract"
	"floorlink/domain"
	"floorlink/domain/event"
	"floorlink/errors"
	"floorlink/moderation"
)

// Relay forwards turn-based text between paired participants and owns the
// user-facing session controls (pause, resume, end). Messages are never
// persisted: one best-effort hop, nothing else.
type Relay struct {
	log       *slog.Logger
	registry  *Registry
	transport contract.Transport
	directory contract.Directory
	moderator *moderation.Moderator
	events    chan<- event.DomainEvent
}

func NewRelay(log *slog.Logger, registry *Registry, transport contract.Transport,
	directory contract.Directory, moderator *moderation.Moderator,
	events chan<- event.DomainEvent) *Relay {
	return &Relay{
		log:       log,
		registry:  registry,
		transport: transport,
		directory: directory,
		moderator: moderator,
		events:    events,
	}
}

// HandleMessage routes free text from a paired participant. handled=false
// means the sender has no session and the text is out-of-band: this
// subsystem ignores it and the caller may route it elsewhere.
//
// A forwarding failure is the signal that the partner is unreachable: the
// session is torn down for both sides and the sender is told.
func (r *Relay) HandleMessage(ctx context.Context, sender domain.ParticipantID, text string) (handled bool, err error) {
	s, ok := r.registry.Get(sender)
	if !ok {
		return false, nil
	}

	if s.Status == domain.StatusPaused {
		r.notify(ctx, sender, domain.ControlPrompt(
			"The chat is paused. Resume it to send messages.",
			domain.PausedControls()...))
		return true, nil
	}

	censored, changed := r.moderator.Censor(text)
	forward := domain.TextPrompt(fmt.Sprintf("%s: %s", r.displayName(ctx, sender), censored))
	if err := r.transport.Send(ctx, s.Partner, forward); err != nil {
		r.log.Warn("relay forward failed, tearing session down",
			"from", sender, "to", s.Partner, "error", err)
		r.endBoth(ctx, sender, s.Partner, "partner disconnected",
			"Your partner is unreachable. Chat ended.",
			"Chat ended.")
		return true, fmt.Errorf("forward %s -> %s: %w", sender, s.Partner, errors.ErrDeliveryFailure)
	}

	r.emit(event.MessageRelayed{
		From:     sender,
		To:       s.Partner,
		Language: moderation.DetectLanguage(text),
		Censored: changed,
		At:       time.Now().UTC(),
	})
	return true, nil
}

// Pause suspends the caller's session for both participants.
func (r *Relay) Pause(ctx context.Context, id domain.ParticipantID) error {
	partner, ok := r.registry.SetStatus(id, domain.StatusPaused)
	if !ok {
		r.notify(ctx, id, domain.TextPrompt("You are not in a chat."))
		return fmt.Errorf("pause by %s: %w", id, errors.ErrStateMismatch)
	}

	r.emit(event.SessionStatusChanged{A: id, B: partner, Status: domain.StatusPaused, At: time.Now().UTC()})
	r.notify(ctx, id, domain.ControlPrompt("Chat paused.", domain.PausedControls()...))
	r.notify(ctx, partner, domain.ControlPrompt("Your partner paused the chat.", domain.PausedControls()...))
	return nil
}

// Resume reactivates the caller's paused session for both participants.
func (r *Relay) Resume(ctx context.Context, id domain.ParticipantID) error {
	partner, ok := r.registry.SetStatus(id, domain.StatusActive)
	if !ok {
		r.notify(ctx, id, domain.TextPrompt("You are not in a chat."))
		return fmt.Errorf("resume by %s: %w", id, errors.ErrStateMismatch)
	}

	r.emit(event.SessionStatusChanged{A: id, B: partner, Status: domain.StatusActive, At: time.Now().UTC()})
	r.notify(ctx, id, domain.ControlPrompt("Chat resumed.", domain.SessionControls()...))
	r.notify(ctx, partner, domain.ControlPrompt("Your partner resumed the chat.", domain.SessionControls()...))
	return nil
}

// End tears the caller's session down. Ending while not in a session is a
// no-op beyond a notice to the caller.
func (r *Relay) End(ctx context.Context, id domain.ParticipantID) error {
	s, ok := r.registry.Get(id)
	if !ok {
		r.notify(ctx, id, domain.TextPrompt("You are not in a chat."))
		return nil
	}
	r.endBoth(ctx, id, s.Partner, "ended by participant",
		"Chat ended.",
		"Your partner ended the chat.")
	return nil
}

// endBoth removes the pairing and notifies both sides. The registry removal
// is idempotent, so a second teardown triggered concurrently does nothing
// and in particular does not notify anyone again.
func (r *Relay) endBoth(ctx context.Context, a, b domain.ParticipantID, reason, noticeA, noticeB string) {
	if !r.registry.End(a, b) {
		return
	}
	r.emit(event.SessionEnded{A: a, B: b, Reason: reason, At: time.Now().UTC()})
	r.notify(ctx, a, domain.TextPrompt(noticeA))
	r.notify(ctx, b, domain.TextPrompt(noticeB))
}

func (r *Relay) displayName(ctx context.Context, id domain.ParticipantID) string {
	name, err := r.directory.GetDisplayName(ctx, id)
	if err != nil || name == "" {
		return fmt.Sprintf("Participant %s", id)
	}
	return name
}

// notify is best-effort: a lost notice never escalates.
func (r *Relay) notify(ctx context.Context, to domain.ParticipantID, prompt domain.Prompt) {
	if err := r.transport.Send(ctx, to, prompt); err != nil {
		r.log.Debug("best-effort notice lost", "to", to, "error", err)
	}
}

func (r *Relay) emit(evt event.DomainEvent) {
	if r.events == nil {
		return
	}
	select {
	case r.events <- evt:
	default:
		r.log.Warn("event channel full, dropping event")
	}
}
