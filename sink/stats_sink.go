package sink

import (
	"context"
	"sync/atomic"

	"floorlink/domain/event"
)

// StatsSink keeps running totals of core activity for the heartbeat worker
// and the debug endpoint.
type StatsSink struct {
	established atomic.Uint64
	ended       atomic.Uint64
	relayed     atomic.Uint64
	censored    atomic.Uint64
	failed      atomic.Uint64
}

func NewStatsSink() *StatsSink {
	return &StatsSink{}
}

func (s *StatsSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.SessionEstablished:
		s.established.Add(1)
	case event.SessionEnded:
		s.ended.Add(1)
	case event.MessageRelayed:
		s.relayed.Add(1)
		if evt.Censored {
			s.censored.Add(1)
		}
	case event.NegotiationFailed:
		s.failed.Add(1)
	}
	return nil
}

// Totals returns the counters as loggable gauges.
func (s *StatsSink) Totals() map[string]any {
	return map[string]any{
		"sessions_established": s.established.Load(),
		"sessions_ended":       s.ended.Load(),
		"messages_relayed":     s.relayed.Load(),
		"messages_censored":    s.censored.Load(),
		"negotiations_failed":  s.failed.Load(),
	}
}
