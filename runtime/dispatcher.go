// Package runtime wires the pairing core to the transport: it decodes and
// authenticates inbound envelopes, serializes handlers per participant, and
// routes each action to the negotiation engine or the relay.
package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"floorlink/auth"
	"floorlink/contract"
	"floorlink/domain"
	"floorlink/errors"
	"floorlink/pairing"
	"floorlink/session"
	"floorlink/transport"
)

type Dispatcher struct {
	log        *slog.Logger
	engine     *pairing.Engine
	relay      *session.Relay
	tokens     *auth.TokenIssuer
	authorizer contract.Authorizer
	transport  contract.Transport
	locks      keyedLocks
}

func NewDispatcher(log *slog.Logger, engine *pairing.Engine, relay *session.Relay,
	tokens *auth.TokenIssuer, authorizer contract.Authorizer, tp contract.Transport) *Dispatcher {
	return &Dispatcher{
		log:        log,
		engine:     engine,
		relay:      relay,
		tokens:     tokens,
		authorizer: authorizer,
		transport:  tp,
	}
}

// HandleEnvelope is the single entry point for raw wire payloads. No error
// escapes as a process-fatal condition: decode and auth failures become
// MalformedAction, panics are recovered and converted likewise.
func (d *Dispatcher) HandleEnvelope(ctx context.Context, raw []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic recovered", "panic", r)
			err = errors.ErrMalformedAction
		}
	}()

	env, err := transport.DecodeEnvelope(raw)
	if err != nil {
		// Sender unknown at this point; nothing to reply to.
		d.log.Warn("dropping malformed envelope", "error", err)
		return err
	}

	claims, err := d.tokens.Validate(env.Token)
	if err != nil {
		d.log.Warn("dropping envelope with invalid token", "envelope_id", env.ID, "error", err)
		return fmt.Errorf("%w: invalid token", errors.ErrMalformedAction)
	}
	sender := domain.ParticipantID(claims.ParticipantID)

	action, err := transport.DecodeAction(env)
	if err != nil {
		d.reply(ctx, sender, "That request could not be understood. Please try again.")
		return err
	}

	return d.HandleAction(ctx, sender, action)
}

// HandleAction routes one decoded action. Handlers for the same participant
// id (and, for responder actions, the named initiator) run strictly one at a
// time: a double-tap cannot pass validation twice before either write lands.
func (d *Dispatcher) HandleAction(ctx context.Context, sender domain.ParticipantID, action domain.Action) error {
	unlock := d.locks.lock(affectedIDs(sender, action)...)
	defer unlock()

	switch a := action.(type) {
	case domain.StartSearch:
		if !d.authorizer.HasPermission(ctx, sender, auth.CapabilityChatSearch) {
			d.reply(ctx, sender, "You are not allowed to search for work-item chats.")
			return fmt.Errorf("start search by %s: %w", sender, errors.ErrNotPermitted)
		}
		return d.engine.StartSearch(ctx, sender, a.Identifier)
	case domain.SelectTarget:
		return d.engine.SelectTarget(ctx, sender, a.Owner)
	case domain.CancelSelection:
		return d.engine.CancelSelection(ctx, sender)
	case domain.ConfirmInitiator:
		return d.engine.ConfirmInitiator(ctx, sender)
	case domain.CancelInitiator:
		return d.engine.CancelInitiator(ctx, sender)
	case domain.ConfirmResponder:
		return d.engine.ConfirmResponder(ctx, sender, a.Initiator)
	case domain.DeclineResponder:
		return d.engine.DeclineResponder(ctx, sender, a.Initiator)
	case domain.Pause:
		return d.relay.Pause(ctx, sender)
	case domain.Resume:
		return d.relay.Resume(ctx, sender)
	case domain.EndSession:
		return d.relay.End(ctx, sender)
	case domain.ChatText:
		return d.handleText(ctx, sender, a.Text)
	default:
		return fmt.Errorf("%w: unhandled action %T", errors.ErrMalformedAction, action)
	}
}

// handleText routes free text by the sender's current state: identifier
// input while a search waits for one, otherwise in-session chat. Text from a
// participant in neither state is out-of-band and silently dropped here.
func (d *Dispatcher) handleText(ctx context.Context, sender domain.ParticipantID, text string) error {
	if d.engine.AwaitingIdentifier(sender) {
		return d.engine.SubmitIdentifier(ctx, sender, text)
	}

	handled, err := d.relay.HandleMessage(ctx, sender, text)
	if err != nil {
		return err
	}
	if !handled {
		d.log.Debug("out-of-band text ignored", "from", sender)
	}
	return nil
}

func (d *Dispatcher) reply(ctx context.Context, to domain.ParticipantID, text string) {
	if err := d.transport.Send(ctx, to, domain.TextPrompt(text)); err != nil {
		d.log.Debug("best-effort reply lost", "to", to, "error", err)
	}
}

// affectedIDs lists every participant id an action may mutate state for.
func affectedIDs(sender domain.ParticipantID, action domain.Action) []domain.ParticipantID {
	switch a := action.(type) {
	case domain.ConfirmResponder:
		return []domain.ParticipantID{sender, a.Initiator}
	case domain.DeclineResponder:
		return []domain.ParticipantID{sender, a.Initiator}
	default:
		return []domain.ParticipantID{sender}
	}
}
