package workers

import (
	"context"
	"log/slog"
)

// EnvelopeHandler is what the inbound worker feeds; satisfied by
// runtime.Dispatcher.
type EnvelopeHandler interface {
	HandleEnvelope(ctx context.Context, raw []byte) error
}

// InboundWorker drains the transport's action stream into the dispatcher.
// Handling errors are already answered to the acting participant by the
// dispatcher; here they are only counted in logs.
type InboundWorker struct {
	log     *slog.Logger
	source  <-chan []byte
	handler EnvelopeHandler
}

func NewInboundWorker(log *slog.Logger, source <-chan []byte, handler EnvelopeHandler) *InboundWorker {
	return &InboundWorker{log: log, source: source, handler: handler}
}

func (w *InboundWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-w.source:
			if !ok {
				return nil
			}
			if err := w.handler.HandleEnvelope(ctx, raw); err != nil {
				w.log.Debug("envelope rejected", "error", err)
			}
		}
	}
}
