// Package feed carries row-change notifications between clients over
// Redis pub/sub. It is the notification half of the substrate: the
// Store decorator publishes an event after every successful mutation,
// and each client holds one subscription per session covering the three
// session-scoped tables.
//
// Delivery is at-least-once with no ordering guarantee across tables;
// consumers reconcile their local caches by natural key instead of
// trusting event order.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "tabshare:feed:"

// channel returns the pub/sub channel for one table scoped to one session.
func channel(table, sessionID string) string {
	return channelPrefix + table + ":" + sessionID
}

// NewClient connects to Redis and verifies the connection.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
