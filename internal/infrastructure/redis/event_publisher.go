package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"vehicle-auction/internal/domain"
)

const eventChannel = "auction_events"

type RedisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (r *RedisEventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", event.Type, err)
	}

	return r.client.Publish(ctx, eventChannel, payload).Err()
}
