package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"askhuman/internal/model"
)

// AnsweredCache tracks which questions a fingerprint has already answered,
// used to filter the human browse list and answer can_answer cheaply. The
// authoritative duplicate check is the storage-layer unique index; this set
// is advisory only.
type AnsweredCache interface {
	MarkAnswered(ctx context.Context, fingerprint, questionID string) error
	HasAnswered(ctx context.Context, fingerprint, questionID string) (bool, error)
	AnsweredIDs(ctx context.Context, fingerprint string) (map[string]bool, error)
}

type answeredCache struct {
	client *redis.Client
}

func NewAnsweredCache(client *redis.Client) AnsweredCache {
	return &answeredCache{
		client: client,
	}
}

func answeredKey(fingerprint string) string {
	return "answered:" + fingerprint
}

func (c *answeredCache) MarkAnswered(ctx context.Context, fingerprint, questionID string) error {
	key := answeredKey(fingerprint)
	if err := c.client.SAdd(ctx, key, questionID).Err(); err != nil {
		return err
	}
	// Entries only matter while their question can still accept answers
	return c.client.Expire(ctx, key, time.Duration(model.MaxTimeoutSeconds)*time.Second).Err()
}

func (c *answeredCache) HasAnswered(ctx context.Context, fingerprint, questionID string) (bool, error) {
	return c.client.SIsMember(ctx, answeredKey(fingerprint), questionID).Result()
}

func (c *answeredCache) AnsweredIDs(ctx context.Context, fingerprint string) (map[string]bool, error) {
	ids, err := c.client.SMembers(ctx, answeredKey(fingerprint)).Result()
	if err != nil {
		return nil, err
	}

	answered := make(map[string]bool, len(ids))
	for _, id := range ids {
		answered[id] = true
	}
	return answered, nil
}
