package pairing

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"floorlink/contract"
	"floorlink/domain"
	"floorlink/domain/event"
	"floorlink/errors"
	"floorlink/session"
)

// Engine drives the negotiation handshake. It owns the per-initiator
// negotiation map; every operation is a single locked transition that
// validates the caller's recorded stage, mutates (or refuses to), and only
// then lets prompts go out. A negotiation never survives a terminal
// transition.
type Engine struct {
	mu           sync.Mutex
	log          *slog.Logger
	resolver     *Resolver
	registry     *session.Registry
	transport    contract.Transport
	events       chan<- event.DomainEvent
	negotiations map[domain.ParticipantID]*domain.Negotiation
}

func NewEngine(log *slog.Logger, resolver *Resolver, registry *session.Registry,
	transport contract.Transport, events chan<- event.DomainEvent) *Engine {
	return &Engine{
		log:          log,
		resolver:     resolver,
		registry:     registry,
		transport:    transport,
		events:       events,
		negotiations: make(map[domain.ParticipantID]*domain.Negotiation),
	}
}

// outbound is a prompt scheduled during a locked transition and delivered
// after the lock is released. Sends are fire-and-forget unless a caller
// handles them explicitly.
type outbound struct {
	to     domain.ParticipantID
	prompt domain.Prompt
}

// StartSearch opens the flow for an initiator. A participant holding a
// session (active or paused) is refused before any negotiation state exists.
// A fresh search replaces a stale in-flight negotiation of the same
// initiator: the old one is a terminal cancel.
func (e *Engine) StartSearch(ctx context.Context, initiator domain.ParticipantID, identifier string) error {
	e.mu.Lock()
	if _, busy := e.registry.Get(initiator); busy {
		e.mu.Unlock()
		e.deliver(ctx, outbound{initiator, domain.TextPrompt("You are already in a chat. End it before starting a new search.")})
		return fmt.Errorf("start search by %s: %w", initiator, errors.ErrAlreadyInSession)
	}

	e.negotiations[initiator] = &domain.Negotiation{
		Initiator: initiator,
		Stage:     domain.StageAwaitingIdentifier,
	}
	e.mu.Unlock()

	if domain.NormalizeIdentifier(identifier) == "" {
		e.deliver(ctx, outbound{initiator, domain.TextPrompt("Enter the work-item number to search:")})
		return nil
	}
	return e.SubmitIdentifier(ctx, initiator, identifier)
}

// SubmitIdentifier consumes the identifier text and runs the lookup.
func (e *Engine) SubmitIdentifier(ctx context.Context, initiator domain.ParticipantID, identifier string) error {
	e.mu.Lock()
	n, ok := e.negotiations[initiator]
	if !ok || n.Stage != domain.StageAwaitingIdentifier {
		e.mu.Unlock()
		return e.stateMismatch(ctx, initiator, "identifier input")
	}
	n.SearchTerm = identifier
	e.mu.Unlock()

	candidates, err := e.resolver.Resolve(ctx, initiator, identifier)
	if err != nil {
		e.mu.Lock()
		delete(e.negotiations, initiator)
		e.mu.Unlock()
		e.emit(event.NegotiationFailed{Initiator: initiator, Reason: "not found", At: time.Now().UTC()})
		e.deliver(ctx, outbound{initiator, notFoundPrompt(identifier, err)})
		return err
	}

	e.mu.Lock()
	n, ok = e.negotiations[initiator]
	if !ok || n.Stage != domain.StageAwaitingIdentifier {
		e.mu.Unlock()
		return e.stateMismatch(ctx, initiator, "identifier input")
	}
	n.Candidates = lo.SliceToMap(candidates, func(c domain.Candidate) (domain.ParticipantID, domain.Candidate) {
		return c.Owner, c
	})

	var out outbound
	if len(candidates) == 1 {
		// Direct match: the selection step is skipped entirely.
		n.Selected = candidates[0].Owner
		n.Stage = domain.StageAwaitingInitiatorConfirm
		out = outbound{initiator, confirmPrompt(candidates[0].DisplayName, identifier)}
	} else {
		n.Stage = domain.StageAwaitingSelection
		out = outbound{initiator, selectionPrompt(identifier, candidates)}
	}
	e.mu.Unlock()

	e.deliver(ctx, out)
	return nil
}

// SelectTarget picks one owner out of an ambiguous match. An owner id that
// was never offered is refused without touching the negotiation.
func (e *Engine) SelectTarget(ctx context.Context, initiator, owner domain.ParticipantID) error {
	e.mu.Lock()
	n, ok := e.negotiations[initiator]
	if !ok || n.Stage != domain.StageAwaitingSelection {
		e.mu.Unlock()
		return e.stateMismatch(ctx, initiator, "target selection")
	}
	candidate, offered := n.Candidates[owner]
	if !offered {
		e.mu.Unlock()
		e.deliver(ctx, outbound{initiator, domain.TextPrompt("That option is not available. Pick one of the listed participants.")})
		return fmt.Errorf("select %s: not among candidates: %w", owner, errors.ErrMalformedAction)
	}
	n.Selected = owner
	n.Stage = domain.StageAwaitingInitiatorConfirm
	term := n.SearchTerm
	e.mu.Unlock()

	e.deliver(ctx, outbound{initiator, confirmPrompt(candidate.DisplayName, term)})
	return nil
}

// CancelSelection abandons the flow at the selection step.
func (e *Engine) CancelSelection(ctx context.Context, initiator domain.ParticipantID) error {
	return e.cancelAt(ctx, initiator, domain.StageAwaitingSelection)
}

// CancelInitiator abandons the flow at the confirmation step. The
// prospective target has not been contacted and never will be.
func (e *Engine) CancelInitiator(ctx context.Context, initiator domain.ParticipantID) error {
	return e.cancelAt(ctx, initiator, domain.StageAwaitingInitiatorConfirm)
}

func (e *Engine) cancelAt(ctx context.Context, initiator domain.ParticipantID, stage domain.NegotiationStage) error {
	e.mu.Lock()
	n, ok := e.negotiations[initiator]
	if !ok || n.Stage != stage {
		e.mu.Unlock()
		return e.stateMismatch(ctx, initiator, "cancel")
	}
	delete(e.negotiations, initiator)
	e.mu.Unlock()

	e.deliver(ctx, outbound{initiator, domain.TextPrompt("Search cancelled.")})
	return nil
}

// ConfirmInitiator locks in the initiator's consent. Both sides are
// re-checked against the session registry here, not just at search time: the
// registry may have changed while the confirmation prompt sat unanswered.
func (e *Engine) ConfirmInitiator(ctx context.Context, initiator domain.ParticipantID) error {
	e.mu.Lock()
	n, ok := e.negotiations[initiator]
	if !ok || n.Stage != domain.StageAwaitingInitiatorConfirm {
		e.mu.Unlock()
		return e.stateMismatch(ctx, initiator, "initiator confirmation")
	}

	target := n.Selected
	if _, busy := e.registry.Get(initiator); busy {
		delete(e.negotiations, initiator)
		e.mu.Unlock()
		e.failNegotiation(ctx, initiator, "self already paired",
			"You are already in a chat. End it before starting a new one.")
		return fmt.Errorf("initiator %s: %w", initiator, errors.ErrAlreadyInSession)
	}
	if _, busy := e.registry.Get(target); busy {
		delete(e.negotiations, initiator)
		e.mu.Unlock()
		e.failNegotiation(ctx, initiator, "target already paired",
			"That participant is already in a chat. Try again later.")
		return fmt.Errorf("target %s: %w", target, errors.ErrAlreadyInSession)
	}

	n.Stage = domain.StageAwaitingResponderConfirm
	term := n.SearchTerm
	name := n.Candidates[target].DisplayName
	e.mu.Unlock()

	initiatorName := e.resolver.displayName(ctx, initiator)
	request := domain.ControlPrompt(
		fmt.Sprintf("%s wants to discuss work item %q with you.", initiatorName, term),
		domain.ActionConfirm, domain.ActionCancel,
	)
	// The one handshake send whose failure is not ignorable: an unreachable
	// responder would leave the initiator waiting on a request that was
	// never delivered.
	if err := e.transport.Send(ctx, target, request); err != nil {
		e.mu.Lock()
		if cur, still := e.negotiations[initiator]; still && cur.Stage == domain.StageAwaitingResponderConfirm && cur.Selected == target {
			delete(e.negotiations, initiator)
		}
		e.mu.Unlock()
		e.failNegotiation(ctx, initiator, "responder unreachable",
			"Could not reach that participant. The request was not delivered.")
		return fmt.Errorf("confirmation request to %s: %w", target, errors.ErrDeliveryFailure)
	}

	e.deliver(ctx, outbound{initiator, domain.TextPrompt(
		fmt.Sprintf("Request sent to %s. Waiting for confirmation.", name))})
	return nil
}

// ConfirmResponder closes the handshake. The registry insert is the atomic
// check-and-write: if either side joined another session between request and
// confirmation, the insert refuses and the negotiation dies.
func (e *Engine) ConfirmResponder(ctx context.Context, responder, initiator domain.ParticipantID) error {
	e.mu.Lock()
	n, ok := e.negotiations[initiator]
	if !ok || n.Stage != domain.StageAwaitingResponderConfirm || n.Selected != responder {
		e.mu.Unlock()
		e.deliver(ctx, outbound{responder, domain.TextPrompt("This request is no longer valid.")})
		return fmt.Errorf("responder %s confirming for %s: %w", responder, initiator, errors.ErrStateMismatch)
	}

	term := n.SearchTerm
	responderName := n.Candidates[responder].DisplayName

	if err := e.registry.Create(initiator, responder); err != nil {
		delete(e.negotiations, initiator)
		e.mu.Unlock()
		e.emit(event.NegotiationFailed{Initiator: initiator, Reason: "already in session", At: time.Now().UTC()})
		e.deliver(ctx,
			outbound{responder, domain.TextPrompt("One of you is already in a chat. The request expired.")},
			outbound{initiator, domain.TextPrompt("The chat could not be established: one of you is already in a chat.")},
		)
		return fmt.Errorf("pair %s/%s: %w", initiator, responder, err)
	}

	// The durable record of the relationship now lives in the registry.
	delete(e.negotiations, initiator)
	e.mu.Unlock()

	initiatorName := e.resolver.displayName(ctx, initiator)
	e.emit(event.SessionEstablished{Initiator: initiator, Responder: responder, SearchTerm: term, At: time.Now().UTC()})
	e.deliver(ctx,
		outbound{initiator, domain.Prompt{
			Text:    fmt.Sprintf("Chat with %s about work item %q established. You can start typing.", responderName, term),
			Actions: domain.SessionControls(),
		}},
		outbound{responder, domain.Prompt{
			Text:    fmt.Sprintf("You are now chatting with %s about work item %q.", initiatorName, term),
			Actions: domain.SessionControls(),
		}},
	)
	return nil
}

// DeclineResponder refuses a pending request. The initiator learns about the
// decline; the negotiation dies.
func (e *Engine) DeclineResponder(ctx context.Context, responder, initiator domain.ParticipantID) error {
	e.mu.Lock()
	n, ok := e.negotiations[initiator]
	if !ok || n.Stage != domain.StageAwaitingResponderConfirm || n.Selected != responder {
		e.mu.Unlock()
		e.deliver(ctx, outbound{responder, domain.TextPrompt("This request is no longer valid.")})
		return fmt.Errorf("responder %s declining for %s: %w", responder, initiator, errors.ErrStateMismatch)
	}
	responderName := n.Candidates[responder].DisplayName
	delete(e.negotiations, initiator)
	e.mu.Unlock()

	e.emit(event.NegotiationFailed{Initiator: initiator, Reason: "declined", At: time.Now().UTC()})
	e.deliver(ctx,
		outbound{initiator, domain.TextPrompt(fmt.Sprintf("%s declined the chat request.", responderName))},
		outbound{responder, domain.TextPrompt("Request declined.")},
	)
	return nil
}

// AwaitingIdentifier reports whether free text from this participant should
// be consumed as an identifier. Used by the dispatcher to route ChatText.
func (e *Engine) AwaitingIdentifier(id domain.ParticipantID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.negotiations[id]
	return ok && n.Stage == domain.StageAwaitingIdentifier
}

// Negotiating reports whether the participant currently has an in-flight
// handshake, whatever its stage.
func (e *Engine) Negotiating(id domain.ParticipantID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.negotiations[id]
	return ok
}

func (e *Engine) stateMismatch(ctx context.Context, actor domain.ParticipantID, step string) error {
	e.deliver(ctx, outbound{actor, domain.TextPrompt("That action is no longer valid. Please restart from the beginning.")})
	return fmt.Errorf("%s by %s: %w", step, actor, errors.ErrStateMismatch)
}

func (e *Engine) failNegotiation(ctx context.Context, initiator domain.ParticipantID, reason, notice string) {
	e.emit(event.NegotiationFailed{Initiator: initiator, Reason: reason, At: time.Now().UTC()})
	e.deliver(ctx, outbound{initiator, domain.TextPrompt(notice)})
}

func (e *Engine) deliver(ctx context.Context, outs ...outbound) {
	for _, o := range outs {
		if err := e.transport.Send(ctx, o.to, o.prompt); err != nil {
			e.log.Debug("best-effort prompt lost", "to", o.to, "error", err)
		}
	}
}

func (e *Engine) emit(evt event.DomainEvent) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- evt:
	default:
		e.log.Warn("event channel full, dropping event")
	}
}

func notFoundPrompt(identifier string, err error) domain.Prompt {
	if stderrors.Is(err, ErrOwnRecordsOnly) {
		return domain.TextPrompt(fmt.Sprintf("Only your own records match work item %q.", identifier))
	}
	return domain.TextPrompt(fmt.Sprintf("Nothing found for work item %q.", identifier))
}

func confirmPrompt(displayName, term string) domain.Prompt {
	return domain.ControlPrompt(
		fmt.Sprintf("Start a chat with %s about work item %q?", displayName, term),
		domain.ActionConfirm, domain.ActionCancel,
	)
}

func selectionPrompt(term string, candidates []domain.Candidate) domain.Prompt {
	options := lo.Map(candidates, func(c domain.Candidate, _ int) domain.Option {
		return domain.Option{Owner: c.Owner, Label: fmt.Sprintf("%s (%s)", c.DisplayName, c.Owner)}
	})
	return domain.Prompt{
		Text:    fmt.Sprintf("Found %d participants for work item %q. Pick one to contact:", len(candidates), term),
		Actions: []domain.ActionKind{domain.ActionCancel},
		Options: options,
	}
}
