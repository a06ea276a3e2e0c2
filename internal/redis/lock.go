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

// AcquireVehicleLock attempts to acquire the check-and-reserve lock for
// a vehicle. Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:vehicle:%s", vehicleID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseVehicleLock releases the lock for the given vehicle.
func (s *LockStore) ReleaseVehicleLock(ctx context.Context, vehicleID string) error {
	key := fmt.Sprintf("lock:vehicle:%s", vehicleID)

	return s.client.Del(ctx, key).Err()
}

// AcquireBookingLock attempts to acquire the per-booking mutation lock.
// Concurrent events against the same booking (a hold-expiry sweep racing
// a payment callback) are serialized behind this lock.
func (s *LockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:booking:%s", bookingID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseBookingLock releases the mutation lock for the given booking.
func (s *LockStore) ReleaseBookingLock(ctx context.Context, bookingID string) error {
	key := fmt.Sprintf("lock:booking:%s", bookingID)

	return s.client.Del(ctx, key).Err()
}
