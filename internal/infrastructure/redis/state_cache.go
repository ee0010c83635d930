package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"vehicle-auction/internal/domain"
)

// RedisStateCache keeps the auction status hot so the WebSocket handler
// and the bid path can refuse ended auctions without a database round
// trip. MySQL stays authoritative; a cache miss reads as draft, which
// readers treat as inconclusive and resolve against the auction row.
type RedisStateCache struct {
	client *redis.Client
}

func NewRedisStateCache(client *redis.Client) *RedisStateCache {
	return &RedisStateCache{client: client}
}

func (r *RedisStateCache) SetAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	key := fmt.Sprintf("auction:%s:status", auctionID)
	return r.client.Set(ctx, key, int(status), 0).Err()
}

func (r *RedisStateCache) GetAuctionStatus(ctx context.Context, auctionID string) (domain.AuctionStatus, error) {
	key := fmt.Sprintf("auction:%s:status", auctionID)

	result, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AuctionDraft, nil
		}
		return domain.AuctionDraft, err
	}

	status, err := strconv.Atoi(result)
	if err != nil {
		return domain.AuctionDraft, err
	}

	return domain.AuctionStatus(status), nil
}
