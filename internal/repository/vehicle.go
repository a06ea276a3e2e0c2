package repository

import (
	"context"

	"evrental/internal/domain"
)

// VehicleRepository defines the persistence operations for the vehicle
// rate-card read model. The booking core writes only the availability
// flag.
type VehicleRepository interface {
	// Create persists a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetAll retrieves all vehicles.
	GetAll(ctx context.Context) ([]*domain.Vehicle, error)

	// UpdateAvailability flips the availability flag.
	UpdateAvailability(ctx context.Context, id string, available bool) error
}

// StationRepository defines the persistence operations for the station
// directory read model.
type StationRepository interface {
	// Create persists a new station.
	Create(ctx context.Context, station *domain.Station) error

	// GetByID retrieves a station by ID.
	GetByID(ctx context.Context, id string) (*domain.Station, error)

	// GetAll retrieves all stations.
	GetAll(ctx context.Context) ([]*domain.Station, error)
}
