package tests

import (
	"context"
	"errors"
	"testing"

	"evrental/internal/domain"
	"evrental/internal/repository"
	"evrental/internal/service"
)

// ──────────────────────────────────────────────
// 1. PRICE QUOTING
// ──────────────────────────────────────────────

func TestPricing_HourlyQuote(t *testing.T) {
	t.Parallel()

	// 3 hours at 50,000 VND/hour with a 2,000,000 VND deposit.
	quote, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalModeHour, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.BasePrice != 150_000 {
		t.Errorf("expected base price 150000, got %d", quote.BasePrice)
	}
	if quote.Deposit != 2_000_000 {
		t.Errorf("expected deposit 2000000, got %d", quote.Deposit)
	}
	if quote.TotalAmount != 2_150_000 {
		t.Errorf("expected total 2150000, got %d", quote.TotalAmount)
	}
}

func TestPricing_DailyQuote(t *testing.T) {
	t.Parallel()

	quote, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalModeDay, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.BasePrice != 2_400_000 {
		t.Errorf("expected base price 2400000, got %d", quote.BasePrice)
	}
	if quote.TotalAmount != 4_400_000 {
		t.Errorf("expected total 4400000, got %d", quote.TotalAmount)
	}
}

func TestPricing_DepositIndependentOfDuration(t *testing.T) {
	t.Parallel()

	short, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalModeHour, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalModeDay, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if short.Deposit != long.Deposit {
		t.Errorf("deposit should not vary with duration: %d vs %d", short.Deposit, long.Deposit)
	}
}

func TestPricing_RejectsZeroDuration(t *testing.T) {
	t.Parallel()

	_, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalModeHour, 0)
	if !errors.Is(err, service.ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestPricing_RejectsHourlyBeyondOneDay(t *testing.T) {
	t.Parallel()

	// 24 hours is the last valid hourly duration.
	if _, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalModeHour, 24); err != nil {
		t.Fatalf("24 hours should be quotable: %v", err)
	}

	_, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalModeHour, 25)
	if !errors.Is(err, service.ErrHourlyDurationTooLong) {
		t.Errorf("expected ErrHourlyDurationTooLong, got %v", err)
	}
}

func TestPricing_RejectsUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := service.ComputeQuote(50_000, 800_000, 2_000_000, domain.RentalMode("WEEK"), 1)
	if !errors.Is(err, service.ErrInvalidRentalMode) {
		t.Errorf("expected ErrInvalidRentalMode, got %v", err)
	}
}

func TestPricing_QuoteVehicleUsesRateCard(t *testing.T) {
	t.Parallel()

	vehicleRepo := NewMockVehicleRepository()
	vehicleRepo.AddVehicle(&domain.Vehicle{
		ID:           "vehicle-1",
		PricePerHour: 50_000,
		PricePerDay:  800_000,
		Deposit:      2_000_000,
		Available:    true,
	})

	pricingService := service.NewPricingService(vehicleRepo, nil)

	quote, err := pricingService.QuoteVehicle(context.Background(), "vehicle-1", domain.RentalModeHour, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.TotalAmount != 2_150_000 {
		t.Errorf("expected total 2150000, got %d", quote.TotalAmount)
	}
}

func TestPricing_QuoteVehicleUnknownVehicle(t *testing.T) {
	t.Parallel()

	pricingService := service.NewPricingService(NewMockVehicleRepository(), nil)

	_, err := pricingService.QuoteVehicle(context.Background(), "missing", domain.RentalModeHour, 3)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
