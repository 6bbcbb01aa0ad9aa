package redis

import (
	"context"
	"time"
)

// CacheStoreInterface defines the interface for entity caching.
type CacheStoreInterface interface {
	GetRide(ctx context.Context, rideID string) (*CachedRide, error)
	SetRide(ctx context.Context, ride *CachedRide) error
	InvalidateRide(ctx context.Context, rideID string) error
}

// ProfileCacheInterface defines the interface for profile caching.
type ProfileCacheInterface interface {
	GetProfile(ctx context.Context, profileID string) (*CachedProfile, error)
	SetProfile(ctx context.Context, profile *CachedProfile) error
	InvalidateProfile(ctx context.Context, profileID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquirePublishLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleasePublishLock(ctx context.Context, driverID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ CacheStoreInterface   = (*CacheStore)(nil)
	_ ProfileCacheInterface = (*CacheStore)(nil)
	_ LockStoreInterface    = (*LockStore)(nil)
)
