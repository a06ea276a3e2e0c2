package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"evrental/internal/domain"
	"evrental/internal/redis"
	"evrental/internal/repository"
)

const (
	// bookingLockTTL bounds a single state transition's critical section.
	bookingLockTTL = 10 * time.Second
)

// CallbackAck is the acknowledgement returned to the payment gateway
// for an IPN/return callback.
type CallbackAck struct {
	Code    string
	Message string
	Booking *domain.Booking
}

// BookingService is the authoritative lifecycle controller for
// bookings. Every mutation serializes on a per-booking Redis lock and
// persists through a status-guarded update, so a hold-expiry sweep
// racing a payment callback can never blind-overwrite state.
type BookingService struct {
	bookingRepo         repository.BookingRepository
	vehicleRepo         repository.VehicleRepository
	lockStore           redis.LockStoreInterface
	cacheStore          *redis.CacheStore
	gatewayService      *GatewayService
	notificationService *NotificationService
	receiptService      *ReceiptService

	// Now is the clock used for transition timestamps and lazy hold
	// expiry. Overridable in tests.
	Now func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	gatewayService *GatewayService,
	notificationService *NotificationService,
	receiptService *ReceiptService,
) *BookingService {
	return &BookingService{
		bookingRepo:         bookingRepo,
		vehicleRepo:         vehicleRepo,
		lockStore:           lockStore,
		cacheStore:          cacheStore,
		gatewayService:      gatewayService,
		notificationService: notificationService,
		receiptService:      receiptService,
		Now:                 time.Now,
	}
}

// withBookingLock serializes a mutation against concurrent events on
// the same booking. Different bookings proceed fully in parallel.
func (s *BookingService) withBookingLock(ctx context.Context, bookingID string, fn func() error) error {
	locked, err := s.lockStore.AcquireBookingLock(ctx, bookingID, bookingLockTTL)
	if err != nil {
		return err
	}
	if !locked {
		return ErrBookingLocked
	}
	defer func() {
		_ = s.lockStore.ReleaseBookingLock(ctx, bookingID)
	}()

	return fn()
}

// GetBooking retrieves a booking, lazily expiring a lapsed hold so
// expiry is deterministic even between sweeps.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return s.expireIfLapsed(ctx, booking), nil
}

// expireIfLapsed applies hold expiry on read. Best effort: losing the
// race to the sweep or a callback just means the stored row already
// moved on.
func (s *BookingService) expireIfLapsed(ctx context.Context, booking *domain.Booking) *domain.Booking {
	now := s.Now()
	if !holdLapsed(booking, now) {
		return booking
	}

	from := booking.Status
	applyHoldExpiry(booking, now)

	if err := s.bookingRepo.Transition(ctx, booking, from, "hold_expired", "system"); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			if current, getErr := s.bookingRepo.GetByID(ctx, booking.ID); getErr == nil {
				return current
			}
		}
		log.Printf("lazy hold expiry failed for booking %s: %v", booking.ID, err)
	}

	return booking
}

// GetAllBookings retrieves recent bookings.
func (s *BookingService) GetAllBookings(ctx context.Context) ([]*domain.Booking, error) {
	return s.bookingRepo.GetAll(ctx)
}

// ListEvents returns the transition audit trail for a booking.
func (s *BookingService) ListEvents(ctx context.Context, bookingID string) ([]*domain.BookingEvent, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.bookingRepo.ListEvents(ctx, bookingID)
}

// BuildPaymentRedirect produces the signed gateway URL for a booking's
// initial payment and moves a fresh reservation to PENDING.
func (s *BookingService) BuildPaymentRedirect(ctx context.Context, bookingID, clientIP string) (string, error) {
	if bookingID == "" {
		return "", ErrInvalidBookingID
	}

	var redirectURL string
	err := s.withBookingLock(ctx, bookingID, func() error {
		booking, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}

		booking = s.expireIfLapsed(ctx, booking)

		switch booking.Status {
		case domain.BookingStatusReserved:
			from := booking.Status
			booking.Status = domain.BookingStatusPending
			if err := s.bookingRepo.Transition(ctx, booking, from, "payment_initiated", booking.RenterID); err != nil {
				return s.mapStale(err)
			}
		case domain.BookingStatusPending:
			// Rebuilding the redirect for a retry is fine; the hold still applies.
		default:
			return fmt.Errorf("%w: cannot pay booking in status %s", ErrInvalidStateTransition, booking.Status)
		}

		redirectURL, err = s.gatewayService.BuildPaymentURL(booking, clientIP)
		return err
	})

	return redirectURL, err
}

// BuildAdditionalPaymentRedirect produces the signed gateway URL for
// the additional amount owed after return reconciliation.
func (s *BookingService) BuildAdditionalPaymentRedirect(ctx context.Context, bookingID, clientIP string) (string, error) {
	if bookingID == "" {
		return "", ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}

	if booking.Status != domain.BookingStatusPendingPayment ||
		booking.AdditionalPayment.Status != domain.AdditionalPaymentStatusUnpaid {
		return "", fmt.Errorf("%w: no additional payment due in status %s", ErrInvalidStateTransition, booking.Status)
	}

	return s.gatewayService.BuildAdditionalPaymentURL(booking, clientIP)
}

// HandleGatewayCallback verifies and applies a payment gateway
// callback. Tolerates replays: a duplicate success callback against an
// already-confirmed booking is acknowledged without mutation, and a
// stale failure can never regress a confirmed booking.
func (s *BookingService) HandleGatewayCallback(ctx context.Context, params map[string]string) (*CallbackAck, error) {
	result, err := s.gatewayService.ParseCallback(params)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByNumber(ctx, result.BookingNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Non-fatal lookup miss; log and acknowledge without mutation.
			log.Printf("gateway callback for unknown reference %q ignored", result.BookingNumber)
			return &CallbackAck{Code: "01", Message: "Order not found"}, nil
		}
		return nil, err
	}

	var ack *CallbackAck
	err = s.withBookingLock(ctx, booking.ID, func() error {
		// Re-read under the lock; the sweep may have raced us.
		booking, err = s.bookingRepo.GetByID(ctx, booking.ID)
		if err != nil {
			return err
		}

		if result.AdditionalPayment {
			ack, err = s.applyAdditionalPaymentCallback(ctx, booking, result)
		} else {
			ack, err = s.applyInitialPaymentCallback(ctx, booking, result)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return ack, nil
}

func (s *BookingService) applyInitialPaymentCallback(ctx context.Context, booking *domain.Booking, result *CallbackResult) (*CallbackAck, error) {
	// Replayed success against a confirmed booking: acknowledge, no
	// further side effect, no duplicate amount recorded.
	if booking.Status == domain.BookingStatusConfirmed ||
		(booking.PaymentStatus == domain.PaymentStatusPaid && booking.TransactionID == result.TransactionNo) {
		if result.Outcome == CallbackOutcomeSuccess && booking.TransactionID == result.TransactionNo {
			return &CallbackAck{Code: "00", Message: "Order already confirmed", Booking: booking}, nil
		}
		if result.Outcome == CallbackOutcomeFailed {
			// Stale failure arriving after confirmation must not regress.
			log.Printf("stale payment failure for confirmed booking %s ignored", booking.ID)
			return &CallbackAck{Code: "00", Message: "Order already confirmed", Booking: booking}, nil
		}
		return nil, fmt.Errorf("%w: conflicting transaction for confirmed booking", ErrInvalidStateTransition)
	}

	if booking.Status != domain.BookingStatusReserved && booking.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("%w: callback for booking in status %s", ErrInvalidStateTransition, booking.Status)
	}

	switch result.Outcome {
	case CallbackOutcomeNotFound:
		log.Printf("gateway reports order not found for booking %s, no mutation", booking.ID)
		return &CallbackAck{Code: "01", Message: "Order not found", Booking: booking}, nil

	case CallbackOutcomeFailed:
		from := booking.Status
		booking.PaymentStatus = domain.PaymentStatusFailed
		if err := s.bookingRepo.Transition(ctx, booking, from, "payment_failed", "gateway"); err != nil {
			return nil, s.mapStale(err)
		}
		if s.notificationService != nil {
			_ = s.notificationService.NotifyPaymentFailed(ctx, booking)
		}
		// Booking stays reserved/pending until the hold expires or the
		// renter retries.
		return &CallbackAck{Code: "00", Message: "Confirm failure recorded", Booking: booking}, nil

	case CallbackOutcomeSuccess:
		if result.Amount != booking.TotalAmount {
			log.Printf("callback amount %d does not match booking %s total %d", result.Amount, booking.ID, booking.TotalAmount)
			return nil, ErrAmountMismatch
		}

		now := s.Now()
		from := booking.Status
		booking.Status = domain.BookingStatusConfirmed
		booking.PaymentStatus = domain.PaymentStatusPaid
		booking.TransactionID = result.TransactionNo
		booking.PaidAmount = result.Amount
		booking.PaidAt = now
		booking.ReservedUntil = time.Time{}

		if err := s.bookingRepo.Transition(ctx, booking, from, "payment_confirmed", "gateway"); err != nil {
			return nil, s.mapStale(err)
		}

		s.setVehicleAvailability(ctx, booking.VehicleID, false)

		if s.notificationService != nil {
			_ = s.notificationService.NotifyBookingConfirmed(ctx, booking)
		}

		return &CallbackAck{Code: "00", Message: "Confirm success", Booking: booking}, nil
	}

	return nil, fmt.Errorf("%w: unhandled callback outcome", ErrInvalidStateTransition)
}

func (s *BookingService) applyAdditionalPaymentCallback(ctx context.Context, booking *domain.Booking, result *CallbackResult) (*CallbackAck, error) {
	if booking.Status != domain.BookingStatusPendingPayment && booking.Status != domain.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: additional payment callback in status %s", ErrInvalidStateTransition, booking.Status)
	}

	// Replay of an already-applied additional payment.
	if booking.AdditionalPayment.Status != domain.AdditionalPaymentStatusUnpaid {
		if result.Outcome == CallbackOutcomeSuccess && booking.AdditionalPayment.TransactionID == result.TransactionNo {
			return &CallbackAck{Code: "00", Message: "Payment already recorded", Booking: booking}, nil
		}
		if result.Outcome == CallbackOutcomeFailed {
			log.Printf("stale additional payment failure for booking %s ignored", booking.ID)
			return &CallbackAck{Code: "00", Message: "Payment already recorded", Booking: booking}, nil
		}
		return nil, fmt.Errorf("%w: conflicting additional payment transaction", ErrInvalidStateTransition)
	}

	switch result.Outcome {
	case CallbackOutcomeNotFound:
		log.Printf("gateway reports order not found for additional payment on booking %s", booking.ID)
		return &CallbackAck{Code: "01", Message: "Order not found", Booking: booking}, nil

	case CallbackOutcomeFailed:
		// Nothing recorded; the renter retries from the same state.
		return &CallbackAck{Code: "00", Message: "Confirm failure recorded", Booking: booking}, nil

	case CallbackOutcomeSuccess:
		if result.Amount != booking.AdditionalPayment.Amount {
			log.Printf("additional payment amount %d does not match booking %s due %d", result.Amount, booking.ID, booking.AdditionalPayment.Amount)
			return nil, ErrAmountMismatch
		}

		booking.AdditionalPayment.Status = domain.AdditionalPaymentStatusPaid
		booking.AdditionalPayment.TransactionID = result.TransactionNo
		booking.AdditionalPayment.PaidAt = s.Now()

		// Status stays PENDING_PAYMENT until staff confirm funds receipt.
		if err := s.bookingRepo.Transition(ctx, booking, booking.Status, "additional_payment_paid", "gateway"); err != nil {
			return nil, s.mapStale(err)
		}

		if s.notificationService != nil {
			_ = s.notificationService.NotifyAdditionalPaymentPaid(ctx, booking)
		}

		return &CallbackAck{Code: "00", Message: "Confirm success", Booking: booking}, nil
	}

	return nil, fmt.Errorf("%w: unhandled callback outcome", ErrInvalidStateTransition)
}

// CancelRequest contains the parameters for cancelling a booking.
type CancelRequest struct {
	BookingID   string
	CancelledBy string
	Reason      string
}

// Cancel cancels a booking that has not yet been handed over. Refund
// policy for paid cancellations is handled by billing outside this core.
func (s *BookingService) Cancel(ctx context.Context, req CancelRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Reason == "" {
		return nil, ErrMissingCancelReason
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, req.BookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}

		switch booking.Status {
		case domain.BookingStatusReserved, domain.BookingStatusPending, domain.BookingStatusConfirmed:
			// cancellable
		default:
			return fmt.Errorf("%w: cannot cancel booking in status %s", ErrInvalidStateTransition, booking.Status)
		}

		wasConfirmed := booking.Status == domain.BookingStatusConfirmed

		from := booking.Status
		booking.Status = domain.BookingStatusCancelled
		booking.CancelReason = req.Reason
		booking.CancelledAt = s.Now()
		booking.ReservedUntil = time.Time{}

		if err := s.bookingRepo.Transition(ctx, booking, from, "booking_cancelled", req.CancelledBy); err != nil {
			return s.mapStale(err)
		}

		if wasConfirmed {
			s.setVehicleAvailability(ctx, booking.VehicleID, true)
		}

		if s.notificationService != nil {
			_ = s.notificationService.NotifyBookingCancelled(ctx, booking, req.CancelledBy)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// SignContract records the signed-contract fact reported by the
// document signing flow. Required before handover.
func (s *BookingService) SignContract(ctx context.Context, bookingID, actor string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, bookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.BookingStatusConfirmed {
			return fmt.Errorf("%w: cannot sign contract in status %s", ErrInvalidStateTransition, booking.Status)
		}
		if booking.ContractSigned {
			return nil // already signed, idempotent
		}

		booking.ContractSigned = true
		booking.ContractSignedAt = s.Now()

		if err := s.bookingRepo.Transition(ctx, booking, booking.Status, "contract_signed", actor); err != nil {
			return s.mapStale(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// HandoverRequest contains the parameters for recording a vehicle handover.
type HandoverRequest struct {
	BookingID  string
	StaffID    string
	Inspection *domain.Inspection
}

// RecordHandover hands the vehicle to the renter. Requires a signed
// contract and a condition snapshot.
func (s *BookingService) RecordHandover(ctx context.Context, req HandoverRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Inspection == nil {
		return nil, ErrMissingInspection
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, req.BookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.BookingStatusConfirmed {
			return fmt.Errorf("%w: cannot hand over booking in status %s", ErrInvalidStateTransition, booking.Status)
		}
		if !booking.ContractSigned {
			return ErrContractNotSigned
		}

		inspection := *req.Inspection
		inspection.Kind = domain.InspectionKindHandover
		inspection.InspectedBy = req.StaffID
		inspection.InspectedAt = s.Now()

		from := booking.Status
		booking.Status = domain.BookingStatusInProgress
		booking.HandoverInspection = &inspection

		if err := s.bookingRepo.Transition(ctx, booking, from, "handover_recorded", req.StaffID); err != nil {
			return s.mapStale(err)
		}

		if s.notificationService != nil {
			_ = s.notificationService.NotifyHandoverRecorded(ctx, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// RequestReturn flags the renter's intent to return the vehicle.
func (s *BookingService) RequestReturn(ctx context.Context, bookingID, actor string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, bookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.BookingStatusInProgress {
			return fmt.Errorf("%w: cannot request return in status %s", ErrInvalidStateTransition, booking.Status)
		}

		from := booking.Status
		booking.Status = domain.BookingStatusPendingReturn

		if err := s.bookingRepo.Transition(ctx, booking, from, "return_requested", actor); err != nil {
			return s.mapStale(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// ReturnRequest contains the parameters for recording a vehicle return.
// Inspection photos and condition arrive atomically with the transition.
type ReturnRequest struct {
	BookingID         string
	StaffID           string
	Inspection        *domain.Inspection
	AdditionalCharges []domain.AdditionalCharge
}

// RecordReturn takes the vehicle back, records the return inspection
// and reconciles the deposit against the additional charges. Routes the
// booking to the refund flow or the additional-payment flow; never both.
func (s *BookingService) RecordReturn(ctx context.Context, req ReturnRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Inspection == nil {
		return nil, ErrMissingInspection
	}
	if len(req.Inspection.PhotoRefs) == 0 {
		return nil, ErrMissingReturnPhotos
	}
	if err := validateCharges(req.AdditionalCharges); err != nil {
		return nil, err
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, req.BookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.BookingStatusInProgress && booking.Status != domain.BookingStatusPendingReturn {
			return fmt.Errorf("%w: cannot record return in status %s", ErrInvalidStateTransition, booking.Status)
		}

		now := s.Now()
		inspection := *req.Inspection
		inspection.Kind = domain.InspectionKindReturn
		inspection.InspectedBy = req.StaffID
		inspection.InspectedAt = now

		from := booking.Status
		booking.Status = domain.BookingStatusReturning
		booking.ReturnInspection = &inspection
		booking.AdditionalCharges = req.AdditionalCharges

		if err := s.bookingRepo.Transition(ctx, booking, from, "return_recorded", req.StaffID); err != nil {
			return s.mapStale(err)
		}

		// Reconcile: deposit against charges decides the money flow.
		settlement := ReconcileDeposit(booking.Deposit, booking.AdditionalCharges)

		from = booking.Status
		if settlement.RefundPath() {
			booking.Status = domain.BookingStatusRefundPending
			booking.DepositRefund.Status = domain.RefundStatusPending
			booking.DepositRefund.Amount = settlement.RefundDue
		} else {
			booking.Status = domain.BookingStatusPendingPayment
			booking.DepositRefund.Status = domain.RefundStatusPendingPayment
			booking.AdditionalPayment.Amount = settlement.AdditionalDue
			booking.AdditionalPayment.Status = domain.AdditionalPaymentStatusUnpaid
		}

		if err := s.bookingRepo.Transition(ctx, booking, from, "inspection_completed", req.StaffID); err != nil {
			return s.mapStale(err)
		}

		// Vehicle is back at the station.
		s.setVehicleAvailability(ctx, booking.VehicleID, true)

		if s.notificationService != nil {
			_ = s.notificationService.NotifyReturnRecorded(ctx, booking, settlement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// RefundTransferRequest contains the parameters for recording the
// out-of-band deposit transfer.
type RefundTransferRequest struct {
	BookingID string
	StaffID   string
	Reference string
	Notes     string
}

// RecordRefundTransfer records that staff sent the deposit refund by
// bank transfer. The refund stays pending until the renter confirms
// receipt; the transfer happens outside the gateway, so the system
// cannot otherwise know the money arrived.
func (s *BookingService) RecordRefundTransfer(ctx context.Context, req RefundTransferRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Reference == "" {
		return nil, ErrMissingTransferReference
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, req.BookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.BookingStatusRefundPending ||
			booking.DepositRefund.Status != domain.RefundStatusPending {
			return fmt.Errorf("%w: cannot record transfer in status %s", ErrInvalidStateTransition, booking.Status)
		}

		booking.DepositRefund.TransferReference = req.Reference
		booking.DepositRefund.TransferNotes = req.Notes
		booking.DepositRefund.TransferRecordedAt = s.Now()

		if err := s.bookingRepo.Transition(ctx, booking, booking.Status, "refund_transfer_recorded", req.StaffID); err != nil {
			return s.mapStale(err)
		}

		if s.notificationService != nil {
			_ = s.notificationService.NotifyRefundTransferRecorded(ctx, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// ConfirmRefundReceived is the renter's half of the refund handshake.
// Completes the booking.
func (s *BookingService) ConfirmRefundReceived(ctx context.Context, bookingID, renterID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, bookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.BookingStatusRefundPending {
			return fmt.Errorf("%w: cannot confirm refund in status %s", ErrInvalidStateTransition, booking.Status)
		}
		if booking.DepositRefund.TransferRecordedAt.IsZero() {
			return fmt.Errorf("%w: transfer not yet recorded", ErrInvalidStateTransition)
		}

		from := booking.Status
		booking.Status = domain.BookingStatusCompleted
		booking.DepositRefund.Status = domain.RefundStatusRefunded
		booking.DepositRefund.RefundedAt = s.Now()
		booking.DepositRefund.RefundedBy = renterID

		if err := s.bookingRepo.Transition(ctx, booking, from, "refund_confirmed", renterID); err != nil {
			return s.mapStale(err)
		}

		s.finalize(ctx, booking)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// ConfirmAdditionalPaymentReceived is the staff half of the
// additional-payment handshake. Requires the gateway payment to be
// recorded first; completes the booking.
func (s *BookingService) ConfirmAdditionalPaymentReceived(ctx context.Context, bookingID, staffID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	err := s.withBookingLock(ctx, bookingID, func() error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.BookingStatusPendingPayment {
			return fmt.Errorf("%w: cannot confirm additional payment in status %s", ErrInvalidStateTransition, booking.Status)
		}
		if booking.AdditionalPayment.Status != domain.AdditionalPaymentStatusPaid {
			return fmt.Errorf("%w: additional payment not yet paid", ErrInvalidStateTransition)
		}

		from := booking.Status
		booking.Status = domain.BookingStatusCompleted
		booking.AdditionalPayment.Status = domain.AdditionalPaymentStatusCompleted
		booking.AdditionalPayment.ConfirmedAt = s.Now()

		if err := s.bookingRepo.Transition(ctx, booking, from, "additional_payment_confirmed", staffID); err != nil {
			return s.mapStale(err)
		}

		s.finalize(ctx, booking)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// finalize runs completion side effects: receipt and notification.
func (s *BookingService) finalize(ctx context.Context, booking *domain.Booking) {
	if s.receiptService != nil {
		if _, err := s.receiptService.GenerateReceipt(ctx, booking); err != nil {
			log.Printf("receipt generation failed for booking %s: %v", booking.ID, err)
		}
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyBookingCompleted(ctx, booking)
	}
}

// setVehicleAvailability flips the availability flag and drops the
// cached rate card. Best effort; the bookings table stays authoritative
// for the no-overlap invariant.
func (s *BookingService) setVehicleAvailability(ctx context.Context, vehicleID string, available bool) {
	if err := s.vehicleRepo.UpdateAvailability(ctx, vehicleID, available); err != nil {
		log.Printf("failed to update availability for vehicle %s: %v", vehicleID, err)
	}
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateVehicle(ctx, vehicleID)
	}
}

// mapStale converts a lost guarded-update race into the state machine's
// error vocabulary.
func (s *BookingService) mapStale(err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return fmt.Errorf("%w: %v", ErrInvalidStateTransition, err)
	}
	return err
}
