package redis

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Executor runs one operator command.
type Executor interface {
	Execute(line string) (string, error)
}

// StartCommandSubscriber runs every message published on CommandsChannel
// through exec until ctx is cancelled.
func StartCommandSubscriber(ctx context.Context, rdb *redis.Client, exec Executor) {
	if rdb == nil {
		log.Println("[REDIS] Redis client not set; command subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, CommandsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[REDIS] %s subscriber started", CommandsChannel)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[REDIS] %s subscriber stopped", CommandsChannel)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				runCommand(exec, msg.Payload)
			}
		}
	}()
}

func runCommand(exec Executor, payload string) (string, error) {
	line := strings.TrimSpace(payload)
	if line == "" {
		return "", nil
	}
	reply, err := exec.Execute(line)
	if err != nil {
		log.Printf("[REDIS] Command %q failed: %v", line, err)
		return "", err
	}
	log.Printf("[REDIS] Command %q: %s", line, reply)
	return reply, nil
}
