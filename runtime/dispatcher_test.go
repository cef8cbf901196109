package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"floorlink/auth"
	"floorlink/domain"
	"floorlink/domain/event"
	"floorlink/errors"
	"floorlink/mocks"
	"floorlink/moderation"
	"floorlink/pairing"
	"floorlink/session"
	"floorlink/transport"
)

type dispatcherFixture struct {
	dispatcher *Dispatcher
	lookup     *mocks.MockRecordLookup
	authorizer *mocks.MockAuthorizer
	registry   *session.Registry
	transport  *transport.MemoryTransport
	tokens     *auth.TokenIssuer
}

func newDispatcherFixture(t *testing.T) dispatcherFixture {
	t.Helper()
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := slog.Default()

	lookup := mocks.NewMockRecordLookup(ctrl)
	directory := mocks.NewMockDirectory(ctrl)
	directory.EXPECT().
		GetDisplayName(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id domain.ParticipantID) (string, error) {
			return "Name-" + string(id), nil
		}).
		AnyTimes()
	authorizer := mocks.NewMockAuthorizer(ctrl)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	registry := session.NewRegistry()
	tp := transport.NewMemoryTransport()
	events := make(chan event.DomainEvent, 16)
	engine := pairing.NewEngine(log, pairing.NewResolver(lookup, directory), registry, tp, events)
	relay := session.NewRelay(log, registry, tp, directory, moderator, events)
	tokens := auth.NewTokenIssuer("dispatcher-test-secret-32-bytes!!", time.Hour)

	return dispatcherFixture{
		dispatcher: NewDispatcher(log, engine, relay, tokens, authorizer, tp),
		lookup:     lookup,
		authorizer: authorizer,
		registry:   registry,
		transport:  tp,
		tokens:     tokens,
	}
}

func (f dispatcherFixture) token(t *testing.T, id domain.ParticipantID) string {
	t.Helper()
	token, err := f.tokens.Generate(id, []string{"dispatcher"})
	require.NoError(t, err)
	return token
}

func TestDispatcher_HandleEnvelope_MalformedPayload(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)

	err := f.dispatcher.HandleEnvelope(context.Background(), []byte(`{"type":`))
	req.ErrorIs(err, errors.ErrMalformedAction)
}

func TestDispatcher_HandleEnvelope_InvalidToken(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)

	raw := []byte(`{"token":"not-a-jwt","type":"pause"}`)
	err := f.dispatcher.HandleEnvelope(context.Background(), raw)
	req.ErrorIs(err, errors.ErrMalformedAction)
}

func TestDispatcher_HandleEnvelope_UndecodableActionGetsAReply(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	sender := domain.ParticipantID("alice")

	// Given a valid token but a select_target without its owner field
	raw := []byte(fmt.Sprintf(`{"token":%q,"type":"select_target"}`, f.token(t, sender)))

	err := f.dispatcher.HandleEnvelope(context.Background(), raw)
	req.ErrorIs(err, errors.ErrMalformedAction)

	// The authenticated sender is known, so the rejection is answered
	prompt, ok := f.transport.LastPrompt(sender)
	req.True(ok)
	req.Equal("That request could not be understood. Please try again.", prompt.Text)
}

func TestDispatcher_StartSearch_PermissionDenied(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	sender := domain.ParticipantID("alice")
	f.authorizer.EXPECT().
		HasPermission(gomock.Any(), sender, auth.CapabilityChatSearch).
		Return(false)

	err := f.dispatcher.HandleAction(context.Background(), sender, domain.StartSearch{Identifier: "WI-1"})
	req.ErrorIs(err, errors.ErrNotPermitted)

	prompt, ok := f.transport.LastPrompt(sender)
	req.True(ok)
	req.Equal("You are not allowed to search for work-item chats.", prompt.Text)
}

func TestDispatcher_TextRoutedToIdentifierInput(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	ctx := context.Background()
	sender := domain.ParticipantID("alice")
	f.authorizer.EXPECT().
		HasPermission(gomock.Any(), sender, auth.CapabilityChatSearch).
		Return(true)

	// Given a search opened without an identifier
	req.NoError(f.dispatcher.HandleAction(ctx, sender, domain.StartSearch{}))
	prompt, _ := f.transport.LastPrompt(sender)
	req.Equal("Enter the work-item number to search:", prompt.Text)

	// When the next text arrives it is consumed as the identifier
	f.lookup.EXPECT().
		FindOwnersByIdentifier(gomock.Any(), "wi-1").
		Return([]domain.WorkItemRecord{
			{ID: "r1", Identifier: "WI-1", Owner: "bob"},
		}, nil)
	req.NoError(f.dispatcher.HandleAction(ctx, sender, domain.ChatText{Text: "WI-1"}))

	prompt, _ = f.transport.LastPrompt(sender)
	req.Equal(`Start a chat with Name-bob about work item "WI-1"?`, prompt.Text)
}

func TestDispatcher_TextRoutedToRelay(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	sender := domain.ParticipantID("alice")
	partner := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(sender, partner))

	req.NoError(f.dispatcher.HandleAction(context.Background(), sender, domain.ChatText{Text: "line 3 is down"}))

	prompt, ok := f.transport.LastPrompt(partner)
	req.True(ok)
	req.Equal("Name-alice: line 3 is down", prompt.Text)
}

func TestDispatcher_OutOfBandTextIsDropped(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	sender := domain.ParticipantID("alice")

	// No search open, no session: the text goes nowhere and nothing fails
	req.NoError(f.dispatcher.HandleAction(context.Background(), sender, domain.ChatText{Text: "hello?"}))
	req.Empty(f.transport.Prompts(sender))
}

func TestDispatcher_SessionControlsRouteToRelay(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	ctx := context.Background()
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))

	// Pause, resume and end all reach the relay
	req.NoError(f.dispatcher.HandleAction(ctx, a, domain.Pause{}))
	s, _ := f.registry.Get(a)
	req.Equal(domain.StatusPaused, s.Status)

	req.NoError(f.dispatcher.HandleAction(ctx, b, domain.Resume{}))
	s, _ = f.registry.Get(a)
	req.Equal(domain.StatusActive, s.Status)

	req.NoError(f.dispatcher.HandleAction(ctx, a, domain.EndSession{}))
	req.Empty(f.registry.Snapshot())
}
