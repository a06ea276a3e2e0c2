package repository

import (
	"context"
	"time"

	"evrental/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking and records the creation event in
	// the audit trail.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByNumber retrieves a booking by its human-readable number.
	GetByNumber(ctx context.Context, number string) (*domain.Booking, error)

	// GetAll retrieves recent bookings.
	GetAll(ctx context.Context) ([]*domain.Booking, error)

	// FindActiveOverlapping returns bookings for the vehicle whose
	// rental window intersects [start, end) and whose status occupies
	// the vehicle (reserved, pending, confirmed, in progress).
	FindActiveOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]*domain.Booking, error)

	// FindExpiredHolds returns bookings still holding a vehicle whose
	// reservation hold lapsed before now.
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error)

	// Transition persists the booking if and only if the stored row is
	// still in the from status, and appends an audit event atomically.
	// Returns ErrStaleStatus when the guard fails, ErrNotFound when the
	// booking does not exist.
	Transition(ctx context.Context, booking *domain.Booking, from domain.BookingStatus, event, actor string) error

	// ListEvents returns the append-only transition trail for a booking,
	// oldest first.
	ListEvents(ctx context.Context, bookingID string) ([]*domain.BookingEvent, error)
}
