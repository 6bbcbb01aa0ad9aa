package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquirePublishLock attempts to acquire a short lock for the given
// driver while a ride posting is published. It closes the window where
// two simultaneous identical posts could both pass the duplicate check.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquirePublishLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:publish:%s", driverID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleasePublishLock releases the publish lock for the given driver.
func (s *LockStore) ReleasePublishLock(ctx context.Context, driverID string) error {
	key := fmt.Sprintf("lock:publish:%s", driverID)

	return s.client.Del(ctx, key).Err()
}
