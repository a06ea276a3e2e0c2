package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID string) error
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, bookingID string) error
}

// NumberStoreInterface defines the interface for booking-number sequences.
type NumberStoreInterface interface {
	NextBookingSequence(ctx context.Context, day time.Time) (int64, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface   = (*LockStore)(nil)
	_ NumberStoreInterface = (*NumberStore)(nil)
)
