package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tabshare/tabshare/internal/storage"
)

// Ensure Subscriber implements storage.Feed
var _ storage.Feed = (*Subscriber)(nil)

// Subscriber streams change events for a session. One Subscribe call
// holds a single pub/sub connection covering the session's three
// channels (sessions, participants, claims).
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber creates a Subscriber over an existing Redis client.
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe streams events until ctx is cancelled. The returned channel
// is closed when the subscription ends. Events that fail to decode are
// logged and skipped; a malformed message must not wedge the stream.
func (s *Subscriber) Subscribe(ctx context.Context, sessionID string) (<-chan storage.ChangeEvent, error) {
	pubsub := s.client.Subscribe(ctx,
		channel(storage.TableSessions, sessionID),
		channel(storage.TableParticipants, sessionID),
		channel(storage.TableClaims, sessionID),
	)

	// Confirm the subscription before returning so no event published
	// after Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session feed: %w", err)
	}

	out := make(chan storage.ChangeEvent, 64)

	go func() {
		<-ctx.Done()
		pubsub.Close()
	}()

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev storage.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("feed: dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
