package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

func (r *RedisEventSubscriber) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	r.log.Info("Subscribed to auction events", "channel", eventChannel)

	for {
		select {
		case msg := <-ch:
			event, err := parseEvent(msg.Payload)
			if err != nil {
				r.log.Error("Failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(event); err != nil {
				r.log.Error("Failed to handle event", "type", event.Type,
					"auction_id", event.AuctionID, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}

func parseEvent(payload string) (*domain.AuctionEvent, error) {
	var event domain.AuctionEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	if event.Type == "" || event.AuctionID == "" {
		return nil, fmt.Errorf("event missing type or auction id: %s", payload)
	}
	return &event, nil
}
