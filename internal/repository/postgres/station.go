package postgres

import (
	"context"
	"database/sql"
	"errors"

	"evrental/internal/domain"
	"evrental/internal/repository"
)

// StationRepository is a PostgreSQL implementation of repository.StationRepository.
type StationRepository struct {
	q Querier
}

// NewStationRepository creates a new PostgreSQL station repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{q: db}
}

// Create persists a new station.
func (r *StationRepository) Create(ctx context.Context, station *domain.Station) error {
	query := `
		INSERT INTO stations (id, name, address, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		station.ID,
		station.Name,
		station.Address,
		station.CreatedAt,
	)

	return err
}

// GetByID retrieves a station by ID.
func (r *StationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	query := `SELECT id, name, address, created_at FROM stations WHERE id = $1`

	var s domain.Station
	err := r.q.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &s, nil
}

// GetAll retrieves all stations.
func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	query := `SELECT id, name, address, created_at FROM stations ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, &s)
	}
	return stations, rows.Err()
}

// Ensure StationRepository implements repository.StationRepository.
var _ repository.StationRepository = (*StationRepository)(nil)
