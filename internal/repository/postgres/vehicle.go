package postgres

import (
	"context"
	"database/sql"
	"errors"

	"evrental/internal/domain"
	"evrental/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, name, plate_number, station_id, price_per_hour, price_per_day, deposit, available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Name,
		vehicle.PlateNumber,
		vehicle.StationID,
		vehicle.PricePerHour,
		vehicle.PricePerDay,
		vehicle.Deposit,
		vehicle.Available,
		vehicle.CreatedAt,
	)

	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `
		SELECT id, name, plate_number, station_id, price_per_hour, price_per_day, deposit, available, created_at
		FROM vehicles WHERE id = $1
	`

	var v domain.Vehicle
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&v.ID,
		&v.Name,
		&v.PlateNumber,
		&v.StationID,
		&v.PricePerHour,
		&v.PricePerDay,
		&v.Deposit,
		&v.Available,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &v, nil
}

// GetAll retrieves all vehicles.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, name, plate_number, station_id, price_per_hour, price_per_day, deposit, available, created_at
		FROM vehicles ORDER BY created_at DESC LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(
			&v.ID,
			&v.Name,
			&v.PlateNumber,
			&v.StationID,
			&v.PricePerHour,
			&v.PricePerDay,
			&v.Deposit,
			&v.Available,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &v)
	}
	return vehicles, rows.Err()
}

// UpdateAvailability flips the availability flag.
func (r *VehicleRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE vehicles SET available = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, available, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Ensure VehicleRepository implements repository.VehicleRepository.
var _ repository.VehicleRepository = (*VehicleRepository)(nil)
