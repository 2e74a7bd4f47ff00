package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/playmatatu/carrom/internal/game"
)

// EventsChannel carries match events between server instances.
const EventsChannel = "match_events"

// Publisher sends match events over Redis pub/sub.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *log.Logger
}

func NewPublisher(client *redis.Client, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Publisher{client: client, channel: EventsChannel, logger: logger.WithPrefix("[REDIS]")}
}

// Publish implements game.Publisher.
func (p *Publisher) Publish(ctx context.Context, ev game.MatchEvent) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s for match %s: %w", ev.Type, ev.MatchID, err)
	}
	return nil
}

// Subscribe delivers every event on the channel to handler until ctx is done.
// Malformed payloads are logged and skipped.
func (p *Publisher) Subscribe(ctx context.Context, handler func(game.MatchEvent)) error {
	pubsub := p.client.Subscribe(ctx, p.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}

	go func() {
		defer pubsub.Close()
		p.logger.Info("Event subscriber started", "channel", p.channel)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					p.logger.Warn("Invalid event payload", "err", err)
					continue
				}
				handler(ev)
			}
		}
	}()
	return nil
}

func encodeEvent(ev game.MatchEvent) ([]byte, error) {
	if ev.MatchID == "" || ev.Type == "" {
		return nil, fmt.Errorf("event needs a match id and type: %+v", ev)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return payload, nil
}

// decodeEvent keeps Data as raw JSON so it can be forwarded without knowing
// its concrete type.
func decodeEvent(payload []byte) (game.MatchEvent, error) {
	var raw struct {
		MatchID string          `json:"match_id"`
		Type    string          `json:"type"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return game.MatchEvent{}, err
	}
	if raw.MatchID == "" || raw.Type == "" {
		return game.MatchEvent{}, fmt.Errorf("event without match id or type")
	}
	return game.MatchEvent{MatchID: raw.MatchID, Type: raw.Type, Data: raw.Data}, nil
}
