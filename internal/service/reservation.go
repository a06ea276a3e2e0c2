package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"evrental/internal/domain"
	"evrental/internal/redis"
	"evrental/internal/repository"
)

const (
	// vehicleLockTTL bounds the check-and-reserve critical section.
	vehicleLockTTL = 5 * time.Second

	// expirySweepBatchSize caps how many lapsed holds one sweep handles.
	expirySweepBatchSize = 100

	// CancelReasonHoldExpired is recorded when a reservation hold lapses
	// without payment.
	CancelReasonHoldExpired = "hold_expired"
)

// ReservationService creates time-boxed holds on vehicles and expires
// lapsed holds. The no-overlap check and the booking insert run under a
// per-vehicle lock so two overlapping reservations can never both be
// created.
type ReservationService struct {
	bookingRepo         repository.BookingRepository
	vehicleRepo         repository.VehicleRepository
	stationRepo         repository.StationRepository
	lockStore           redis.LockStoreInterface
	numberStore         redis.NumberStoreInterface
	pricingService      *PricingService
	notificationService *NotificationService

	holdTTL  time.Duration
	leadTime time.Duration

	// Now is the clock used for hold and lead-time checks. Overridable
	// in tests.
	Now func() time.Time
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	stationRepo repository.StationRepository,
	lockStore redis.LockStoreInterface,
	numberStore redis.NumberStoreInterface,
	pricingService *PricingService,
	notificationService *NotificationService,
	holdTTL time.Duration,
	leadTime time.Duration,
) *ReservationService {
	return &ReservationService{
		bookingRepo:         bookingRepo,
		vehicleRepo:         vehicleRepo,
		stationRepo:         stationRepo,
		lockStore:           lockStore,
		numberStore:         numberStore,
		pricingService:      pricingService,
		notificationService: notificationService,
		holdTTL:             holdTTL,
		leadTime:            leadTime,
		Now:                 time.Now,
	}
}

// ReserveRequest contains the parameters for creating a reservation.
type ReserveRequest struct {
	VehicleID       string
	RenterID        string
	PickupStationID string
	ReturnStationID string
	Mode            domain.RentalMode
	StartDate       time.Time
	EndDate         time.Time
	PaymentMethod   domain.PaymentMethod
}

// Reserve places a time-boxed hold on a vehicle for a prospective
// booking. Pricing is frozen at this point and never recomputed.
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (*domain.Booking, error) {
	now := s.Now()

	if err := s.validateReserveRequest(req, now); err != nil {
		return nil, err
	}

	duration := rentalDuration(req.Mode, req.StartDate, req.EndDate)

	quote, err := s.pricingService.QuoteVehicle(ctx, req.VehicleID, req.Mode, duration)
	if err != nil {
		return nil, err
	}

	if _, err := s.stationRepo.GetByID(ctx, req.PickupStationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidStationID
		}
		return nil, err
	}
	if req.ReturnStationID != req.PickupStationID {
		if _, err := s.stationRepo.GetByID(ctx, req.ReturnStationID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidStationID
			}
			return nil, err
		}
	}

	// Check-and-reserve must be atomic: the overlap query and the insert
	// run under the vehicle lock.
	locked, err := s.lockStore.AcquireVehicleLock(ctx, req.VehicleID, vehicleLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrVehicleConflict
	}
	defer func() {
		_ = s.lockStore.ReleaseVehicleLock(ctx, req.VehicleID)
	}()

	overlapping, err := s.bookingRepo.FindActiveOverlapping(ctx, req.VehicleID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	for _, other := range overlapping {
		// A lapsed hold no longer blocks the window even if the sweep
		// has not cancelled it yet.
		if holdLapsed(other, now) {
			continue
		}
		return nil, ErrVehicleConflict
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodGateway
	}

	booking := &domain.Booking{
		ID:              uuid.New().String(),
		Number:          s.nextBookingNumber(ctx, now),
		VehicleID:       req.VehicleID,
		PickupStationID: req.PickupStationID,
		ReturnStationID: req.ReturnStationID,
		RenterID:        req.RenterID,
		RentalMode:      req.Mode,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		ReservedUntil:   now.Add(s.holdTTL),
		BasePrice:       quote.BasePrice,
		Deposit:         quote.Deposit,
		TotalAmount:     quote.TotalAmount,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		DepositRefund:   domain.DepositRefund{Status: domain.RefundStatusNone},
		AdditionalPayment: domain.AdditionalPayment{
			Status: domain.AdditionalPaymentStatusUnpaid,
		},
		Status:    domain.BookingStatusReserved,
		CreatedAt: now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyReservationCreated(ctx, booking)
	}

	return booking, nil
}

func (s *ReservationService) validateReserveRequest(req ReserveRequest, now time.Time) error {
	if req.VehicleID == "" {
		return ErrInvalidVehicleID
	}
	if req.RenterID == "" {
		return ErrInvalidRenterID
	}
	if req.PickupStationID == "" || req.ReturnStationID == "" {
		return ErrInvalidStationID
	}
	if !req.EndDate.After(req.StartDate) {
		return ErrInvalidRentalWindow
	}
	if req.StartDate.Before(now.Add(s.leadTime)) {
		return ErrStartTooSoon
	}
	return nil
}

// rentalDuration derives the billable duration from the rental window,
// rounding partial units up.
func rentalDuration(mode domain.RentalMode, start, end time.Time) int {
	window := end.Sub(start)
	unit := time.Hour
	if mode == domain.RentalModeDay {
		unit = 24 * time.Hour
	}

	duration := int(window / unit)
	if window%unit != 0 {
		duration++
	}
	return duration
}

// nextBookingNumber issues a human-readable booking number. Falls back
// to a time-derived suffix when the sequence store is unavailable.
func (s *ReservationService) nextBookingNumber(ctx context.Context, now time.Time) string {
	day := now.Format("060102")

	if s.numberStore != nil {
		seq, err := s.numberStore.NextBookingSequence(ctx, now)
		if err == nil {
			return fmt.Sprintf("EV-%s-%04d", day, seq)
		}
		log.Printf("booking number sequence unavailable, using time-derived number: %v", err)
	}

	return fmt.Sprintf("EV-%s-%d", day, now.UnixNano()%1_000_000)
}

// holdLapsed reports whether the booking is an unpaid hold whose expiry
// has passed.
func holdLapsed(b *domain.Booking, now time.Time) bool {
	if b.Status != domain.BookingStatusReserved && b.Status != domain.BookingStatusPending {
		return false
	}
	return !b.ReservedUntil.IsZero() && b.ReservedUntil.Before(now)
}

// ExpireHolds cancels every booking whose reservation hold lapsed
// before now. Safe to run repeatedly: the guarded transition fires at
// most once per booking, a second sweep finds nothing to do.
func (s *ReservationService) ExpireHolds(ctx context.Context) (int, error) {
	now := s.Now()

	expired, err := s.bookingRepo.FindExpiredHolds(ctx, now, expirySweepBatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, booking := range expired {
		if err := s.expireHold(ctx, booking, now); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) || errors.Is(err, ErrBookingLocked) {
				// Lost the race to a payment callback or another sweep.
				continue
			}
			log.Printf("failed to expire hold for booking %s: %v", booking.ID, err)
			continue
		}
		count++
	}

	return count, nil
}

func (s *ReservationService) expireHold(ctx context.Context, booking *domain.Booking, now time.Time) error {
	locked, err := s.lockStore.AcquireBookingLock(ctx, booking.ID, bookingLockTTL)
	if err != nil {
		return err
	}
	if !locked {
		return ErrBookingLocked
	}
	defer func() {
		_ = s.lockStore.ReleaseBookingLock(ctx, booking.ID)
	}()

	from := booking.Status
	applyHoldExpiry(booking, now)

	if err := s.bookingRepo.Transition(ctx, booking, from, "hold_expired", "system"); err != nil {
		return err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyHoldExpired(ctx, booking)
	}

	return nil
}

// applyHoldExpiry mutates an unpaid hold into its cancelled form.
// Shared with the lazy time-check-on-read path so expiry is identical
// whether the sweep or a read observes it first.
func applyHoldExpiry(b *domain.Booking, now time.Time) {
	b.Status = domain.BookingStatusCancelled
	b.CancelReason = CancelReasonHoldExpired
	b.CancelledAt = now
	b.ReservedUntil = time.Time{}
}
