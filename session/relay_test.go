package session

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"floorlink/domain"
	"floorlink/domain/event"
	"floorlink/errors"
	"floorlink/mocks"
	"floorlink/moderation"
	"floorlink/transport"
)

type relayFixture struct {
	relay     *Relay
	registry  *Registry
	transport *transport.MemoryTransport
	events    chan event.DomainEvent
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()
	req := require.New(t)
	ctrl := gomock.NewController(t)

	directory := mocks.NewMockDirectory(ctrl)
	directory.EXPECT().
		GetDisplayName(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id domain.ParticipantID) (string, error) {
			return "Name-" + string(id), nil
		}).
		AnyTimes()

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	registry := NewRegistry()
	tp := transport.NewMemoryTransport()
	events := make(chan event.DomainEvent, 16)
	relay := NewRelay(slog.Default(), registry, tp, directory, moderator, events)
	return relayFixture{relay: relay, registry: registry, transport: tp, events: events}
}

func TestRelay_HandleMessage_NoSessionIsOutOfBand(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := domain.ParticipantID(uuid.NewString())

	// When an unpaired participant sends text
	handled, err := f.relay.HandleMessage(context.Background(), sender, "hello")

	// Then the relay declines it without touching anything
	req.NoError(err)
	req.False(handled)
	req.Empty(f.transport.Prompts(sender))
	req.Empty(f.events)
}

func TestRelay_HandleMessage_ForwardsWithSenderName(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))

	// When a paired participant sends text
	handled, err := f.relay.HandleMessage(context.Background(), a, "hello there")
	req.NoError(err)
	req.True(handled)

	// Then the partner receives it prefixed with the sender's display name
	prompt, ok := f.transport.LastPrompt(b)
	req.True(ok)
	req.Equal("Name-alice: hello there", prompt.Text)

	// And a relay event fires
	evt := (<-f.events).(event.MessageRelayed)
	req.Equal(a, evt.From)
	req.Equal(b, evt.To)
	req.False(evt.Censored)
}

func TestRelay_HandleMessage_CensorsForbiddenTerms(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))

	handled, err := f.relay.HandleMessage(context.Background(), a, "the badger again")
	req.NoError(err)
	req.True(handled)

	prompt, ok := f.transport.LastPrompt(b)
	req.True(ok)
	req.Equal("Name-alice: the ****** again", prompt.Text)

	evt := (<-f.events).(event.MessageRelayed)
	req.True(evt.Censored)
}

func TestRelay_HandleMessage_PausedSessionBlocksText(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))
	_, ok := f.registry.SetStatus(a, domain.StatusPaused)
	req.True(ok)

	// When the sender types into a paused session
	handled, err := f.relay.HandleMessage(context.Background(), a, "anyone?")
	req.NoError(err)
	req.True(handled)

	// Then nothing is forwarded and the sender is told how to continue
	req.Empty(f.transport.Prompts(b))
	prompt, found := f.transport.LastPrompt(a)
	req.True(found)
	req.Equal("The chat is paused. Resume it to send messages.", prompt.Text)
	req.Equal(domain.PausedControls(), prompt.Actions)
	req.Empty(f.events)
}

func TestRelay_HandleMessage_UnreachablePartnerTearsSessionDown(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))
	f.transport.SetUnreachable(b, true)

	// When the forward cannot be delivered
	handled, err := f.relay.HandleMessage(context.Background(), a, "hello?")
	req.True(handled)
	req.ErrorIs(err, errors.ErrDeliveryFailure)

	// Then the session is gone for both sides
	_, inA := f.registry.Get(a)
	_, inB := f.registry.Get(b)
	req.False(inA)
	req.False(inB)

	// And the sender learned why
	prompt, found := f.transport.LastPrompt(a)
	req.True(found)
	req.Equal("Your partner is unreachable. Chat ended.", prompt.Text)

	evt := (<-f.events).(event.SessionEnded)
	req.Equal("partner disconnected", evt.Reason)
}

func TestRelay_PauseAndResume(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	ctx := context.Background()
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))

	// When one side pauses
	req.NoError(f.relay.Pause(ctx, a))

	// Then both sides hold a paused session and got paused controls
	sa, _ := f.registry.Get(a)
	req.Equal(domain.StatusPaused, sa.Status)

	prompt, _ := f.transport.LastPrompt(a)
	req.Equal("Chat paused.", prompt.Text)
	req.Equal(domain.PausedControls(), prompt.Actions)
	prompt, _ = f.transport.LastPrompt(b)
	req.Equal("Your partner paused the chat.", prompt.Text)

	evt := (<-f.events).(event.SessionStatusChanged)
	req.Equal(domain.StatusPaused, evt.Status)

	// When the partner resumes
	req.NoError(f.relay.Resume(ctx, b))

	// Then the session is active again and both got session controls
	sa, _ = f.registry.Get(a)
	req.Equal(domain.StatusActive, sa.Status)
	prompt, _ = f.transport.LastPrompt(b)
	req.Equal("Chat resumed.", prompt.Text)
	req.Equal(domain.SessionControls(), prompt.Actions)
}

func TestRelay_PauseWithoutSession(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	id := domain.ParticipantID(uuid.NewString())

	err := f.relay.Pause(context.Background(), id)
	req.ErrorIs(err, errors.ErrStateMismatch)

	prompt, found := f.transport.LastPrompt(id)
	req.True(found)
	req.Equal("You are not in a chat.", prompt.Text)
}

func TestRelay_End_NotifiesBothSides(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))

	// When one side ends the chat
	req.NoError(f.relay.End(context.Background(), a))

	// Then the pairing is gone and each side got its notice
	req.Empty(f.registry.Snapshot())
	prompt, _ := f.transport.LastPrompt(a)
	req.Equal("Chat ended.", prompt.Text)
	prompt, _ = f.transport.LastPrompt(b)
	req.Equal("Your partner ended the chat.", prompt.Text)

	evt := (<-f.events).(event.SessionEnded)
	req.Equal("ended by participant", evt.Reason)
}

func TestRelay_End_WithoutSessionIsANoop(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	id := domain.ParticipantID(uuid.NewString())

	// Ending while not paired only informs the caller
	req.NoError(f.relay.End(context.Background(), id))
	prompt, found := f.transport.LastPrompt(id)
	req.True(found)
	req.Equal("You are not in a chat.", prompt.Text)
	req.Empty(f.events)
}

func TestRelay_End_ConcurrentTeardownNotifiesOnce(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	ctx := context.Background()
	a := domain.ParticipantID("alice")
	b := domain.ParticipantID("bob")
	req.NoError(f.registry.Create(a, b))

	// When both sides end at once, the registry removal gates the second
	// teardown: a already got "Chat ended.", b ends into nothing and only
	// gets the not-in-a-chat notice.
	req.NoError(f.relay.End(ctx, a))
	req.NoError(f.relay.End(ctx, b))

	req.Len(f.transport.Prompts(a), 1)
	prompts := f.transport.Prompts(b)
	req.Len(prompts, 2)
	req.Equal("Your partner ended the chat.", prompts[0].Text)
	req.Equal("You are not in a chat.", prompts[1].Text)
	req.Len(f.events, 1)
}
