// Package monitor mirrors each agent's latest snapshot into Redis so a base
// station or dashboard can watch the whole team from one place.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func snapshotKey(agentID string) string {
	return fmt.Sprintf("bobcat:agent:%s:snapshot", agentID)
}

func statusKey(agentID string) string {
	return fmt.Sprintf("bobcat:agent:%s:status", agentID)
}

const allAgentsKey = "bobcat:agents"

// PutSnapshot stores an encoded snapshot that expires after ttl, so a
// silent agent drops out of the team view on its own.
func (r *RedisStore) PutSnapshot(ctx context.Context, agentID, status string, data []byte, ttl time.Duration) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, snapshotKey(agentID), data, ttl)
	pipe.Set(ctx, statusKey(agentID), status, ttl)
	pipe.SAdd(ctx, allAgentsKey, agentID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetSnapshot(ctx context.Context, agentID string) ([]byte, error) {
	data, err := r.client.Get(ctx, snapshotKey(agentID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (r *RedisStore) GetStatus(ctx context.Context, agentID string) (string, error) {
	s, err := r.client.Get(ctx, statusKey(agentID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return s, err
}

func (r *RedisStore) AgentIDs(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, allAgentsKey).Result()
}

func (r *RedisStore) RemoveAgent(ctx context.Context, agentID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, snapshotKey(agentID), statusKey(agentID))
	pipe.SRem(ctx, allAgentsKey, agentID)
	_, err := pipe.Exec(ctx)
	return err
}
