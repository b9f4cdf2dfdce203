package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pingball/backend/internal/rendezvous"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// publishClient is the part of *redis.Client the publisher needs.
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher forwards rendezvous topology events to Redis.
type Publisher struct {
	client  publishClient
	channel string
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{client: rdb, channel: EventsChannel}
}

// Publish implements rendezvous.EventSink.
func (p *Publisher) Publish(ev rendezvous.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal %s event: %v", ev.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		log.Printf("[REDIS] Failed to publish %s event for %s: %v", ev.Type, ev.Board, err)
	}
}
