package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"floorlink/domain"
	"floorlink/errors"
)

// RedisTransport delivers prompts over Redis pub/sub. Each participant's
// client subscribes to its own delivery channel; a publish that reaches no
// subscriber means the participant is unreachable right now, which is
// exactly the delivery-failure signal the relay needs.
type RedisTransport struct {
	log    *slog.Logger
	client *redis.Client
	prefix string
}

func NewRedisTransport(log *slog.Logger, client *redis.Client, prefix string) *RedisTransport {
	if prefix == "" {
		prefix = "floorlink"
	}
	return &RedisTransport{log: log, client: client, prefix: prefix}
}

// Send implements contract.Transport.
func (t *RedisTransport) Send(ctx context.Context, to domain.ParticipantID, prompt domain.Prompt) error {
	payload, err := json.Marshal(prompt)
	if err != nil {
		return fmt.Errorf("encode prompt for %s: %w", to, err)
	}

	receivers, err := t.client.Publish(ctx, t.deliveryChannel(to), payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %v: %w", to, err, errors.ErrDeliveryFailure)
	}
	if receivers == 0 {
		return fmt.Errorf("%s has no subscriber: %w", to, errors.ErrDeliveryFailure)
	}
	return nil
}

// Inbound subscribes to the shared action channel and streams raw envelope
// payloads until the context is cancelled.
func (t *RedisTransport) Inbound(ctx context.Context) <-chan []byte {
	sub := t.client.Subscribe(ctx, t.actionChannel())
	out := make(chan []byte, 64)

	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				t.log.Warn("closing action subscription", "error", err)
			}
		}()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (t *RedisTransport) deliveryChannel(id domain.ParticipantID) string {
	return fmt.Sprintf("%s:deliver:%s", t.prefix, id)
}

func (t *RedisTransport) actionChannel() string {
	return t.prefix + ":actions"
}
