// Package sink provides EventSink implementations for the fanout worker.
package sink

import (
	"context"
	"log/slog"

	"floorlink/domain/event"
)

// LogSink writes every domain event to the structured log. Message content
// never appears in events, so nothing sensitive lands in logs.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.SessionEstablished:
		s.log.Info("session established",
			"initiator", evt.Initiator, "responder", evt.Responder, "work_item", evt.SearchTerm)
	case event.SessionEnded:
		s.log.Info("session ended", "a", evt.A, "b", evt.B, "reason", evt.Reason)
	case event.SessionStatusChanged:
		s.log.Info("session status changed", "a", evt.A, "b", evt.B, "status", evt.Status)
	case event.MessageRelayed:
		s.log.Debug("message relayed",
			"from", evt.From, "to", evt.To, "language", evt.Language, "censored", evt.Censored)
	case event.NegotiationFailed:
		s.log.Info("negotiation failed", "initiator", evt.Initiator, "reason", evt.Reason)
	default:
		s.log.Debug("unrecognized event", "type", e)
	}
	return nil
}
