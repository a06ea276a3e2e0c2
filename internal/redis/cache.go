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
	VehicleCacheTTL = 60 * time.Second // Rate cards change rarely; availability flips on booking
)

// Key prefixes
const (
	vehicleCachePrefix = "cache:vehicle:"
)

// CachedVehicle represents a cached vehicle rate card.
type CachedVehicle struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StationID    string `json:"station_id"`
	PricePerHour int64  `json:"price_per_hour"`
	PricePerDay  int64  `json:"price_per_day"`
	Deposit      int64  `json:"deposit"`
	Available    bool   `json:"available"`
}

// GetVehicle retrieves a vehicle from cache. Returns nil on a miss.
func (s *CacheStore) GetVehicle(ctx context.Context, vehicleID string) (*CachedVehicle, error) {
	key := vehicleCachePrefix + vehicleID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var vehicle CachedVehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// SetVehicle stores a vehicle in cache.
func (s *CacheStore) SetVehicle(ctx context.Context, vehicle *CachedVehicle) error {
	key := vehicleCachePrefix + vehicle.ID
	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, VehicleCacheTTL).Err()
}

// InvalidateVehicle removes a vehicle from cache. Called whenever the
// availability flag changes.
func (s *CacheStore) InvalidateVehicle(ctx context.Context, vehicleID string) error {
	key := vehicleCachePrefix + vehicleID
	return s.client.Del(ctx, key).Err()
}
