package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	// EventsChannel carries topology events as JSON.
	EventsChannel = "pingball_events"
	// CommandsChannel accepts operator commands such as "h A B".
	CommandsChannel = "pingball_commands"
)

// Connect establishes a connection to Redis. ctx bounds the initial ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
