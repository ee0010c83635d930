package leader

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const leaderKey = "bidding_leader"

// RedisLeaderElection elects the single instance that runs scheduled
// work (lifecycle jobs, proxy bid ticks). SETNX takes the lease; a Lua
// heartbeat extends it only while this instance still holds it.
type RedisLeaderElection struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLeaderElection(client *redis.Client, ttl time.Duration) *RedisLeaderElection {
	return &RedisLeaderElection{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	acquired, err := r.client.SetNX(ctx, leaderKey, instanceID, r.ttl).Result()
	if err != nil {
		return false, err
	}

	if acquired {
		go r.maintainLeadership(instanceID)
	}

	return acquired, nil
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	currentLeader, err := r.client.Get(ctx, leaderKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	return currentLeader == instanceID, nil
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	// Atomic compare-and-delete so a newer leader's lease survives.
	luaScript := `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `

	_, err := r.client.Eval(ctx, luaScript, []string{leaderKey}, instanceID).Result()
	return err
}

func (r *RedisLeaderElection) maintainLeadership(instanceID string) {
	ticker := time.NewTicker(r.ttl / 3) // Refresh at 1/3 of TTL
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		luaScript := `
            if redis.call("GET", KEYS[1]) == ARGV[1] then
                return redis.call("EXPIRE", KEYS[1], ARGV[2])
            else
                return 0
            end
        `

		result, err := r.client.Eval(ctx, luaScript, []string{leaderKey},
			instanceID, int(r.ttl.Seconds())).Result()

		cancel()

		if err != nil || result.(int64) == 0 {
			// Lost leadership, stop heartbeat
			break
		}
	}
}
