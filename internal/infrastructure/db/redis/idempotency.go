package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/service-requests/internal/core/ports"
)

const keyPrefix = "idem:request:"

// IdempotencyStore maps a client's draft key to the request it created.
// Key format: idem:request:<client_id>:<client_key>
type IdempotencyStore struct {
	client *redis.Client
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// NewIdempotencyStore wraps the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Lookup returns the request id remembered under key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: corrupt value %q: %w", v, err)
	}
	return id, true, nil
}

// Remember records id under key for ttl. An existing entry wins: the first
// request created for a key stays the answer.
func (s *IdempotencyStore) Remember(ctx context.Context, key string, id int64, ttl time.Duration) error {
	if err := s.client.SetNX(ctx, keyPrefix+key, strconv.FormatInt(id, 10), ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}
