package service

import (
	"context"

	"evrental/internal/domain"
	"evrental/internal/redis"
	"evrental/internal/repository"
)

// Hourly rentals beyond one day must switch to day mode. Domain policy,
// enforced identically wherever a price is quoted.
const maxHourlyDuration = 24

// Quote is the price breakdown for a prospective rental. Amounts are in
// whole VND.
type Quote struct {
	BasePrice   int64
	Deposit     int64
	TotalAmount int64
}

// PricingService computes rental prices from vehicle rate cards.
// Quoting is side-effect free and callable repeatedly for preview.
type PricingService struct {
	vehicleRepo repository.VehicleRepository
	cacheStore  *redis.CacheStore
}

// NewPricingService creates a new PricingService.
func NewPricingService(vehicleRepo repository.VehicleRepository, cacheStore *redis.CacheStore) *PricingService {
	return &PricingService{
		vehicleRepo: vehicleRepo,
		cacheStore:  cacheStore,
	}
}

// ComputeQuote prices a rental against a rate card.
func ComputeQuote(pricePerHour, pricePerDay, deposit int64, mode domain.RentalMode, duration int) (*Quote, error) {
	if duration < 1 {
		return nil, ErrInvalidDuration
	}

	var basePrice int64
	switch mode {
	case domain.RentalModeHour:
		if duration > maxHourlyDuration {
			return nil, ErrHourlyDurationTooLong
		}
		basePrice = int64(duration) * pricePerHour
	case domain.RentalModeDay:
		basePrice = int64(duration) * pricePerDay
	default:
		return nil, ErrInvalidRentalMode
	}

	return &Quote{
		BasePrice:   basePrice,
		Deposit:     deposit,
		TotalAmount: basePrice + deposit,
	}, nil
}

// QuoteVehicle prices a rental for a vehicle by ID, using the rate-card
// cache when available.
func (s *PricingService) QuoteVehicle(ctx context.Context, vehicleID string, mode domain.RentalMode, duration int) (*Quote, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	// Cache first; fall back to the repository on miss or error.
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetVehicle(ctx, vehicleID)
		if err == nil && cached != nil {
			return ComputeQuote(cached.PricePerHour, cached.PricePerDay, cached.Deposit, mode, duration)
		}
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetVehicle(ctx, &redis.CachedVehicle{
			ID:           vehicle.ID,
			Name:         vehicle.Name,
			StationID:    vehicle.StationID,
			PricePerHour: vehicle.PricePerHour,
			PricePerDay:  vehicle.PricePerDay,
			Deposit:      vehicle.Deposit,
			Available:    vehicle.Available,
		})
	}

	return ComputeQuote(vehicle.PricePerHour, vehicle.PricePerDay, vehicle.Deposit, mode, duration)
}
