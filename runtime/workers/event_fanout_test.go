package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"floorlink/domain/event"
	"floorlink/mocks"
)

func TestEventFanout_BroadcastsToAllSinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := slog.Default()

	evt := event.SessionEstablished{Initiator: "alice", Responder: "bob", SearchTerm: "wi-1"}
	received := make(chan event.DomainEvent, 2)

	consume := func(_ context.Context, e event.DomainEvent) error {
		received <- e
		return nil
	}
	sink1 := mocks.NewMockEventSink(ctrl)
	sink1.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(consume).Times(1)
	sink2 := mocks.NewMockEventSink(ctrl)
	sink2.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(consume).Times(1)

	events := make(chan event.DomainEvent, 1)
	fanout := NewEventFanout(log, events, sink1, sink2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = fanout.Run(ctx)
	}()

	// When one event is published
	events <- evt

	// Then both sinks consumed it
	for i := 0; i < 2; i++ {
		select {
		case got := <-received:
			req.Equal(evt, got)
		case <-time.After(time.Second):
			req.Fail("sink never received the event")
		}
	}
}

func TestEventFanout_SinkFailureDoesNotStopTheOthers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := slog.Default()

	evt := event.SessionEnded{A: "alice", B: "bob", Reason: "ended by participant"}
	received := make(chan event.DomainEvent, 1)

	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().Consume(gomock.Any(), evt).Return(fmt.Errorf("sink down")).Times(1)
	healthy := mocks.NewMockEventSink(ctrl)
	healthy.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
		received <- e
		return nil
	}).Times(1)

	events := make(chan event.DomainEvent, 1)
	fanout := NewEventFanout(log, events, failing, healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = fanout.Run(ctx)
	}()

	events <- evt

	select {
	case got := <-received:
		req.Equal(evt, got)
	case <-time.After(time.Second):
		req.Fail("healthy sink never received the event")
	}
}

func TestEventFanout_StopsOnContextCancel(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	events := make(chan event.DomainEvent)
	fanout := NewEventFanout(log, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = fanout.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("fanout should stop when the context dies")
	}
}
