package workers

import (
	"context"
	"log/slog"

	"floorlink/contract"
	"floorlink/domain/event"
)

// EventFanout broadcasts domain events to the registered sinks.
//
// Best-effort with no ordering, durability, or retry guarantees; sinks serve
// observability and side effects, never core logic.
type EventFanout struct {
	log    *slog.Logger
	events <-chan event.DomainEvent
	sinks  []contract.EventSink
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, events: events, sinks: sinks}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-w.events:
			for _, sink := range w.sinks {
				if err := sink.Consume(ctx, evt); err != nil {
					w.log.Debug("sink rejected event", "error", err)
				}
			}
		}
	}
}
