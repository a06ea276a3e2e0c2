package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"evrental/internal/domain"
	"evrental/internal/service"
)

// ──────────────────────────────────────────────
// 6. BOOKING LIFECYCLE
// ──────────────────────────────────────────────

type lifecycleFixture struct {
	bookingRepo *MockBookingRepository
	vehicleRepo *MockVehicleRepository
	lockStore   *MockLockStore
	gateway     *service.GatewayService
	service     *service.BookingService
	now         time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	f := &lifecycleFixture{
		bookingRepo: NewMockBookingRepository(),
		vehicleRepo: NewMockVehicleRepository(),
		lockStore:   NewMockLockStore(),
		now:         time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	f.vehicleRepo.AddVehicle(&domain.Vehicle{
		ID:           "vehicle-1",
		PricePerHour: 50_000,
		PricePerDay:  800_000,
		Deposit:      2_000_000,
		Available:    true,
	})

	f.gateway = service.NewGatewayService(service.GatewayConfig{
		MerchantCode: "EVRENTAL01",
		HashSecret:   testHashSecret,
		PayURL:       "https://sandbox.gateway.example/paymentv2/vpcpay.html",
		ReturnURL:    "https://app.example.com/payments/return",
	})

	notificationService := service.NewNotificationService()
	f.service = service.NewBookingService(
		f.bookingRepo, f.vehicleRepo,
		f.lockStore, nil,
		f.gateway, notificationService,
		service.NewReceiptService(notificationService),
	)
	f.service.Now = func() time.Time { return f.now }

	return f
}

// seedReserved stores a freshly reserved booking the way the
// reservation flow would have created it.
func (f *lifecycleFixture) seedReserved(t *testing.T) *domain.Booking {
	t.Helper()

	booking := &domain.Booking{
		ID:              "booking-1",
		Number:          "EV-260314-0001",
		VehicleID:       "vehicle-1",
		PickupStationID: "station-1",
		ReturnStationID: "station-1",
		RenterID:        "renter-1",
		RentalMode:      domain.RentalModeHour,
		StartDate:       f.now.Add(2 * time.Hour),
		EndDate:         f.now.Add(5 * time.Hour),
		ReservedUntil:   f.now.Add(20 * time.Minute),
		BasePrice:       150_000,
		Deposit:         2_000_000,
		TotalAmount:     2_150_000,
		PaymentMethod:   domain.PaymentMethodGateway,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		DepositRefund:   domain.DepositRefund{Status: domain.RefundStatusNone},
		Status:          domain.BookingStatusReserved,
		CreatedAt:       f.now,
	}
	f.bookingRepo.AddBooking(booking)
	return booking
}

// confirmPaid drives the booking through redirect and success callback.
func (f *lifecycleFixture) confirmPaid(t *testing.T, booking *domain.Booking) {
	t.Helper()

	if _, err := f.service.BuildPaymentRedirect(context.Background(), booking.ID, "203.0.113.7"); err != nil {
		t.Fatalf("payment redirect failed: %v", err)
	}

	ack, err := f.service.HandleGatewayCallback(context.Background(), successCallbackParams(booking.Number, booking.TotalAmount))
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if ack.Code != "00" {
		t.Fatalf("expected ack 00, got %s", ack.Code)
	}
}

// startRental takes a paid booking through contract and handover.
func (f *lifecycleFixture) startRental(t *testing.T, bookingID string) {
	t.Helper()

	if _, err := f.service.SignContract(context.Background(), bookingID, "renter-1"); err != nil {
		t.Fatalf("contract signing failed: %v", err)
	}
	if _, err := f.service.RecordHandover(context.Background(), service.HandoverRequest{
		BookingID: bookingID,
		StaffID:   "staff-1",
		Inspection: &domain.Inspection{
			OdometerKm:     1240,
			BatteryPercent: 100,
			Condition:      "clean, no damage",
		},
	}); err != nil {
		t.Fatalf("handover failed: %v", err)
	}
}

func returnInspection() *domain.Inspection {
	return &domain.Inspection{
		OdometerKm:     1298,
		BatteryPercent: 34,
		Condition:      "minor scuff on left mirror",
		PhotoRefs:      []string{"s3://inspections/booking-1/ret-1.jpg"},
	}
}

func TestLifecycle_HappyPathThroughRefund(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)

	f.confirmPaid(t, booking)

	stored := f.bookingRepo.GetBooking(booking.ID)
	if stored.Status != domain.BookingStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("expected payment PAID, got %s", stored.PaymentStatus)
	}
	if stored.PaidAmount != 2_150_000 {
		t.Errorf("expected paid amount 2150000, got %d", stored.PaidAmount)
	}
	if !stored.ReservedUntil.IsZero() {
		t.Error("hold should be cleared after payment")
	}
	if f.vehicleRepo.GetVehicle("vehicle-1").Available {
		t.Error("vehicle should be unavailable after confirmation")
	}

	f.startRental(t, booking.ID)

	if got := f.bookingRepo.GetBooking(booking.ID).Status; got != domain.BookingStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", got)
	}

	// Return with a cleaning fee inside the deposit.
	returned, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
		AdditionalCharges: []domain.AdditionalCharge{
			{Type: domain.ChargeTypeCleaning, Amount: 100_000},
		},
	})
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}

	if returned.Status != domain.BookingStatusRefundPending {
		t.Fatalf("expected REFUND_PENDING, got %s", returned.Status)
	}
	if returned.DepositRefund.Amount != 1_900_000 {
		t.Errorf("expected refund 1900000, got %d", returned.DepositRefund.Amount)
	}
	if !f.vehicleRepo.GetVehicle("vehicle-1").Available {
		t.Error("vehicle should be available again after return")
	}

	// Staff transfer, then renter confirmation.
	if _, err := f.service.RecordRefundTransfer(context.Background(), service.RefundTransferRequest{
		BookingID: booking.ID,
		StaffID:   "staff-1",
		Reference: "FT26073001234",
	}); err != nil {
		t.Fatalf("refund transfer failed: %v", err)
	}

	completed, err := f.service.ConfirmRefundReceived(context.Background(), booking.ID, "renter-1")
	if err != nil {
		t.Fatalf("refund confirmation failed: %v", err)
	}
	if completed.Status != domain.BookingStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", completed.Status)
	}
	if completed.DepositRefund.Status != domain.RefundStatusRefunded {
		t.Errorf("expected refund REFUNDED, got %s", completed.DepositRefund.Status)
	}
}

func TestLifecycle_AuditTrailRecordsEveryTransition(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)

	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	if _, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
	}); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	var names []string
	for _, e := range f.bookingRepo.Events(booking.ID) {
		names = append(names, e.Event)
	}

	want := []string{"payment_initiated", "payment_confirmed", "contract_signed", "handover_recorded", "return_recorded", "inspection_completed"}
	if len(names) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	// The return passes through RETURNING so the trail shows it.
	events := f.bookingRepo.Events(booking.ID)
	if events[4].ToStatus != domain.BookingStatusReturning {
		t.Errorf("return_recorded should land in RETURNING, got %s", events[4].ToStatus)
	}
	if events[5].FromStatus != domain.BookingStatusReturning {
		t.Errorf("inspection_completed should leave RETURNING, got %s", events[5].FromStatus)
	}
}

func TestLifecycle_ChargesExceedingDepositRouteToAdditionalPayment(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	returned, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
		AdditionalCharges: []domain.AdditionalCharge{
			{Type: domain.ChargeTypeRepair, Amount: 2_500_000, Description: "cracked fairing"},
		},
	})
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}

	if returned.Status != domain.BookingStatusPendingPayment {
		t.Fatalf("expected PENDING_PAYMENT, got %s", returned.Status)
	}
	if returned.AdditionalPayment.Amount != 500_000 {
		t.Errorf("expected additional due 500000, got %d", returned.AdditionalPayment.Amount)
	}
	if returned.DepositRefund.Status != domain.RefundStatusPendingPayment {
		t.Errorf("expected refund status PENDING_PAYMENT, got %s", returned.DepositRefund.Status)
	}

	// Renter pays the excess through the gateway.
	ack, err := f.service.HandleGatewayCallback(context.Background(), successCallbackParams(booking.Number+"-A", 500_000))
	if err != nil {
		t.Fatalf("additional payment callback failed: %v", err)
	}
	if ack.Code != "00" {
		t.Fatalf("expected ack 00, got %s", ack.Code)
	}

	stored := f.bookingRepo.GetBooking(booking.ID)
	if stored.AdditionalPayment.Status != domain.AdditionalPaymentStatusPaid {
		t.Fatalf("expected additional payment PAID, got %s", stored.AdditionalPayment.Status)
	}
	if stored.Status != domain.BookingStatusPendingPayment {
		t.Errorf("status should stay PENDING_PAYMENT until staff confirm, got %s", stored.Status)
	}

	completed, err := f.service.ConfirmAdditionalPaymentReceived(context.Background(), booking.ID, "staff-1")
	if err != nil {
		t.Fatalf("staff confirmation failed: %v", err)
	}
	if completed.Status != domain.BookingStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", completed.Status)
	}
	if completed.AdditionalPayment.Status != domain.AdditionalPaymentStatusCompleted {
		t.Errorf("expected additional payment COMPLETED, got %s", completed.AdditionalPayment.Status)
	}
}

func TestLifecycle_DuplicateSuccessCallbackIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)

	before := f.bookingRepo.GetBooking(booking.ID)

	// The gateway retries the same callback.
	ack, err := f.service.HandleGatewayCallback(context.Background(), successCallbackParams(booking.Number, booking.TotalAmount))
	if err != nil {
		t.Fatalf("duplicate callback errored: %v", err)
	}
	if ack.Code != "00" {
		t.Errorf("duplicate should still be acknowledged with 00, got %s", ack.Code)
	}

	after := f.bookingRepo.GetBooking(booking.ID)
	if after.PaidAmount != before.PaidAmount {
		t.Errorf("duplicate callback changed paid amount: %d -> %d", before.PaidAmount, after.PaidAmount)
	}
	if !after.PaidAt.Equal(before.PaidAt) {
		t.Error("duplicate callback changed payment timestamp")
	}
}

func TestLifecycle_StaleFailureCannotRegressConfirmedBooking(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)

	// A delayed failure callback for the same order arrives after success.
	params := successCallbackParams(booking.Number, booking.TotalAmount)
	params["vnp_ResponseCode"] = "24"
	params["vnp_SecureHash"] = signTestParams(testHashSecret, params)

	ack, err := f.service.HandleGatewayCallback(context.Background(), params)
	if err != nil {
		t.Fatalf("stale failure errored: %v", err)
	}
	if ack.Code != "00" {
		t.Errorf("stale failure should be acknowledged, got %s", ack.Code)
	}

	stored := f.bookingRepo.GetBooking(booking.ID)
	if stored.Status != domain.BookingStatusConfirmed {
		t.Errorf("confirmed booking regressed to %s", stored.Status)
	}
	if stored.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("payment status regressed to %s", stored.PaymentStatus)
	}
}

func TestLifecycle_FailedCallbackKeepsHoldAlive(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)

	if _, err := f.service.BuildPaymentRedirect(context.Background(), booking.ID, "203.0.113.7"); err != nil {
		t.Fatalf("payment redirect failed: %v", err)
	}

	params := successCallbackParams(booking.Number, booking.TotalAmount)
	params["vnp_ResponseCode"] = "24"
	params["vnp_SecureHash"] = signTestParams(testHashSecret, params)

	if _, err := f.service.HandleGatewayCallback(context.Background(), params); err != nil {
		t.Fatalf("failure callback errored: %v", err)
	}

	stored := f.bookingRepo.GetBooking(booking.ID)
	if stored.Status != domain.BookingStatusPending {
		t.Errorf("failed payment should leave booking PENDING for retry, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.PaymentStatusFailed {
		t.Errorf("expected payment FAILED, got %s", stored.PaymentStatus)
	}
	if stored.ReservedUntil.IsZero() {
		t.Error("hold should survive a failed payment attempt")
	}
}

func TestLifecycle_CallbackAmountMismatchRejected(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)

	if _, err := f.service.BuildPaymentRedirect(context.Background(), booking.ID, "203.0.113.7"); err != nil {
		t.Fatalf("payment redirect failed: %v", err)
	}

	// Correctly signed callback for the wrong amount.
	_, err := f.service.HandleGatewayCallback(context.Background(), successCallbackParams(booking.Number, 100_000))
	if !errors.Is(err, service.ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}

	if got := f.bookingRepo.GetBooking(booking.ID).Status; got != domain.BookingStatusPending {
		t.Errorf("mismatched callback must not mutate status, got %s", got)
	}
}

func TestLifecycle_CallbackForUnknownBookingAcknowledged(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)

	ack, err := f.service.HandleGatewayCallback(context.Background(), successCallbackParams("EV-260314-9999", 2_150_000))
	if err != nil {
		t.Fatalf("unknown reference should not error: %v", err)
	}
	if ack.Code != "01" {
		t.Errorf("expected ack 01, got %s", ack.Code)
	}
}

func TestLifecycle_HandoverRequiresSignedContract(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)

	_, err := f.service.RecordHandover(context.Background(), service.HandoverRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: &domain.Inspection{OdometerKm: 1240, BatteryPercent: 100},
	})
	if !errors.Is(err, service.ErrContractNotSigned) {
		t.Errorf("expected ErrContractNotSigned, got %v", err)
	}
}

func TestLifecycle_ReturnRequiresPhotos(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	inspection := returnInspection()
	inspection.PhotoRefs = nil

	_, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: inspection,
	})
	if !errors.Is(err, service.ErrMissingReturnPhotos) {
		t.Errorf("expected ErrMissingReturnPhotos, got %v", err)
	}
}

func TestLifecycle_ReturnRejectsNonPositiveCharge(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	_, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
		AdditionalCharges: []domain.AdditionalCharge{
			{Type: domain.ChargeTypeOther, Amount: 0},
		},
	})
	if !errors.Is(err, service.ErrInvalidChargeAmount) {
		t.Errorf("expected ErrInvalidChargeAmount, got %v", err)
	}
}

func TestLifecycle_ReturnViaReturnRequest(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	if _, err := f.service.RequestReturn(context.Background(), booking.ID, "renter-1"); err != nil {
		t.Fatalf("return request failed: %v", err)
	}
	if got := f.bookingRepo.GetBooking(booking.ID).Status; got != domain.BookingStatusPendingReturn {
		t.Fatalf("expected PENDING_RETURN, got %s", got)
	}

	// Staff record the return from the pending-return state.
	returned, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
	})
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if returned.Status != domain.BookingStatusRefundPending {
		t.Errorf("expected REFUND_PENDING, got %s", returned.Status)
	}
}

func TestLifecycle_RefundTransferRequiresReference(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	if _, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
	}); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	_, err := f.service.RecordRefundTransfer(context.Background(), service.RefundTransferRequest{
		BookingID: booking.ID,
		StaffID:   "staff-1",
	})
	if !errors.Is(err, service.ErrMissingTransferReference) {
		t.Errorf("expected ErrMissingTransferReference, got %v", err)
	}
}

func TestLifecycle_RefundConfirmationRequiresRecordedTransfer(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	if _, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
	}); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	// Renter tries to confirm before staff recorded the transfer.
	_, err := f.service.ConfirmRefundReceived(context.Background(), booking.ID, "renter-1")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestLifecycle_AdditionalPaymentConfirmationRequiresPayment(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	if _, err := f.service.RecordReturn(context.Background(), service.ReturnRequest{
		BookingID:  booking.ID,
		StaffID:    "staff-1",
		Inspection: returnInspection(),
		AdditionalCharges: []domain.AdditionalCharge{
			{Type: domain.ChargeTypeRepair, Amount: 2_500_000},
		},
	}); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	// Staff cannot confirm funds that never arrived.
	_, err := f.service.ConfirmAdditionalPaymentReceived(context.Background(), booking.ID, "staff-1")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestLifecycle_CancelConfirmedBookingRestoresVehicle(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)

	cancelled, err := f.service.Cancel(context.Background(), service.CancelRequest{
		BookingID:   booking.ID,
		CancelledBy: "renter-1",
		Reason:      "change of plans",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if cancelled.Status != domain.BookingStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if !f.vehicleRepo.GetVehicle("vehicle-1").Available {
		t.Error("vehicle should be available after cancellation")
	}
}

func TestLifecycle_CancelRequiresReason(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)

	_, err := f.service.Cancel(context.Background(), service.CancelRequest{
		BookingID:   booking.ID,
		CancelledBy: "renter-1",
	})
	if !errors.Is(err, service.ErrMissingCancelReason) {
		t.Errorf("expected ErrMissingCancelReason, got %v", err)
	}
}

func TestLifecycle_CancelAfterHandoverRejected(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)
	f.startRental(t, booking.ID)

	_, err := f.service.Cancel(context.Background(), service.CancelRequest{
		BookingID:   booking.ID,
		CancelledBy: "renter-1",
		Reason:      "too late",
	})
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestLifecycle_GetBookingAppliesLazyHoldExpiry(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)

	f.now = f.now.Add(30 * time.Minute)

	got, err := f.service.GetBooking(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.BookingStatusCancelled {
		t.Errorf("expected lazy expiry to CANCELLED, got %s", got.Status)
	}
	if stored := f.bookingRepo.GetBooking(booking.ID); stored.Status != domain.BookingStatusCancelled {
		t.Errorf("lazy expiry should persist, stored status %s", stored.Status)
	}
}

func TestLifecycle_PaymentRedirectRejectedAfterHoldLapses(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)

	f.now = f.now.Add(30 * time.Minute)

	_, err := f.service.BuildPaymentRedirect(context.Background(), booking.ID, "203.0.113.7")
	if !errors.Is(err, service.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition for lapsed hold, got %v", err)
	}
}

func TestLifecycle_ConcurrentMutationBlockedByBookingLock(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.lockStore.FailBookingAcquire = true

	_, err := f.service.Cancel(context.Background(), service.CancelRequest{
		BookingID:   booking.ID,
		CancelledBy: "renter-1",
		Reason:      "change of plans",
	})
	if !errors.Is(err, service.ErrBookingLocked) {
		t.Errorf("expected ErrBookingLocked, got %v", err)
	}
}

func TestLifecycle_SignContractIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t)
	booking := f.seedReserved(t)
	f.confirmPaid(t, booking)

	first, err := f.service.SignContract(context.Background(), booking.ID, "renter-1")
	if err != nil {
		t.Fatalf("first signing failed: %v", err)
	}
	second, err := f.service.SignContract(context.Background(), booking.ID, "renter-1")
	if err != nil {
		t.Fatalf("repeat signing failed: %v", err)
	}
	if !second.ContractSignedAt.Equal(first.ContractSignedAt) {
		t.Error("repeat signing should not move the signature timestamp")
	}
}
