package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	// RideCacheTTL is short because seat counts change on every booking.
	RideCacheTTL    = 10 * time.Second
	ProfileCacheTTL = 5 * time.Minute
)

// Key prefixes
const (
	rideCachePrefix    = "cache:ride:"
	profileCachePrefix = "cache:profile:"
)

// CachedRide represents a cached ride entity. Seat availability in the
// cache is advisory only: reservations always go through the ledger.
type CachedRide struct {
	ID             string  `json:"id"`
	DriverID       string  `json:"driver_id"`
	FromLocation   string  `json:"from_location"`
	ToLocation     string  `json:"to_location"`
	Status         string  `json:"status"`
	AvailableSeats int     `json:"available_seats"`
	PricePerSeat   float64 `json:"price_per_seat"`
	InstantBooking bool    `json:"instant_booking"`
}

// CachedProfile represents a cached profile entity. It carries every
// field the profile response exposes, so a cache hit and a repository
// read render identically.
type CachedProfile struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio,omitempty"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
}

// GetRide retrieves a ride from cache.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*CachedRide, error) {
	key := rideCachePrefix + rideID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// SetRide stores a ride in cache.
func (s *CacheStore) SetRide(ctx context.Context, ride *CachedRide) error {
	key := rideCachePrefix + ride.ID
	data, err := json.Marshal(ride)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride from cache. Called after every ledger
// mutation so a stale seat count never outlives a booking.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	key := rideCachePrefix + rideID
	return s.client.Del(ctx, key).Err()
}

// GetProfile retrieves a profile from cache.
func (s *CacheStore) GetProfile(ctx context.Context, profileID string) (*CachedProfile, error) {
	key := profileCachePrefix + profileID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var profile CachedProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetProfile stores a profile in cache.
func (s *CacheStore) SetProfile(ctx context.Context, profile *CachedProfile) error {
	key := profileCachePrefix + profile.ID
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ProfileCacheTTL).Err()
}

// InvalidateProfile removes a profile from cache.
func (s *CacheStore) InvalidateProfile(ctx context.Context, profileID string) error {
	key := profileCachePrefix + profileID
	return s.client.Del(ctx, key).Err()
}
