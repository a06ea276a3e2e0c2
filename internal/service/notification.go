package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"evrental/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationReservationCreated NotificationType = "RESERVATION_CREATED"
	NotificationHoldExpired        NotificationType = "HOLD_EXPIRED"
	NotificationBookingConfirmed   NotificationType = "BOOKING_CONFIRMED"
	NotificationPaymentFailed      NotificationType = "PAYMENT_FAILED"
	NotificationBookingCancelled   NotificationType = "BOOKING_CANCELLED"
	NotificationHandoverRecorded   NotificationType = "HANDOVER_RECORDED"
	NotificationReturnRecorded     NotificationType = "RETURN_RECORDED"
	NotificationRefundTransfer     NotificationType = "REFUND_TRANSFER_RECORDED"
	NotificationAdditionalPaid     NotificationType = "ADDITIONAL_PAYMENT_PAID"
	NotificationBookingCompleted   NotificationType = "BOOKING_COMPLETED"
	NotificationReceiptReady       NotificationType = "RECEIPT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client
	// - Email client
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyReservationCreated tells the renter their hold is placed and
// how long it lasts.
func (s *NotificationService) NotifyReservationCreated(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationReservationCreated,
		RecipientID: booking.RenterID,
		Title:       "Reservation Created",
		Message: fmt.Sprintf("Booking %s is reserved. Complete payment of %s before %s to confirm.",
			booking.Number, formatVND(booking.TotalAmount), booking.ReservedUntil.Format("15:04 Jan 02")),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
			"total_amount":   booking.TotalAmount,
			"reserved_until": booking.ReservedUntil,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyHoldExpired tells the renter their unpaid hold was released.
func (s *NotificationService) NotifyHoldExpired(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationHoldExpired,
		RecipientID: booking.RenterID,
		Title:       "Reservation Expired",
		Message:     fmt.Sprintf("Booking %s expired without payment and was cancelled.", booking.Number),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyBookingConfirmed tells the renter their payment went through.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: booking.RenterID,
		Title:       "Booking Confirmed",
		Message: fmt.Sprintf("Payment of %s received. Booking %s is confirmed for pickup on %s.",
			formatVND(booking.PaidAmount), booking.Number, booking.StartDate.Format("Jan 02 15:04")),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
			"paid_amount":    booking.PaidAmount,
			"transaction_id": booking.TransactionID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPaymentFailed tells the renter their payment attempt failed.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: booking.RenterID,
		Title:       "Payment Failed",
		Message: fmt.Sprintf("Payment for booking %s failed. Retry before %s to keep your reservation.",
			booking.Number, booking.ReservedUntil.Format("15:04 Jan 02")),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyBookingCancelled tells the renter the booking was cancelled.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, cancelledBy string) error {
	notification := Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: booking.RenterID,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("Booking %s was cancelled: %s", booking.Number, booking.CancelReason),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
			"cancelled_by":   cancelledBy,
			"reason":         booking.CancelReason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyHandoverRecorded tells the renter the rental has started.
func (s *NotificationService) NotifyHandoverRecorded(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationHandoverRecorded,
		RecipientID: booking.RenterID,
		Title:       "Vehicle Handed Over",
		Message:     fmt.Sprintf("Your rental %s has started. Return by %s.", booking.Number, booking.EndDate.Format("Jan 02 15:04")),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
			"end_date":       booking.EndDate,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyReturnRecorded tells the renter what the return settlement is:
// a refund coming their way, or an additional amount they owe.
func (s *NotificationService) NotifyReturnRecorded(ctx context.Context, booking *domain.Booking, settlement Settlement) error {
	message := fmt.Sprintf("Vehicle returned. Your deposit refund of %s is being processed.", formatVND(settlement.RefundDue))
	if !settlement.RefundPath() {
		message = fmt.Sprintf("Vehicle returned. Charges exceed your deposit; please pay the remaining %s.", formatVND(settlement.AdditionalDue))
	}

	notification := Notification{
		Type:        NotificationReturnRecorded,
		RecipientID: booking.RenterID,
		Title:       "Return Recorded",
		Message:     message,
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
			"total_charges":  settlement.TotalCharges,
			"refund_due":     settlement.RefundDue,
			"additional_due": settlement.AdditionalDue,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRefundTransferRecorded asks the renter to confirm they received
// the deposit transfer.
func (s *NotificationService) NotifyRefundTransferRecorded(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationRefundTransfer,
		RecipientID: booking.RenterID,
		Title:       "Refund Sent",
		Message: fmt.Sprintf("Your deposit refund of %s was transferred (ref %s). Please confirm receipt.",
			formatVND(booking.DepositRefund.Amount), booking.DepositRefund.TransferReference),
		Data: map[string]interface{}{
			"booking_id":         booking.ID,
			"booking_number":     booking.Number,
			"refund_amount":      booking.DepositRefund.Amount,
			"transfer_reference": booking.DepositRefund.TransferReference,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyAdditionalPaymentPaid tells staff the renter's additional
// payment came through and awaits their confirmation.
func (s *NotificationService) NotifyAdditionalPaymentPaid(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationAdditionalPaid,
		RecipientID: booking.RenterID,
		Title:       "Additional Payment Received",
		Message: fmt.Sprintf("Payment of %s for booking %s was received and is awaiting staff confirmation.",
			formatVND(booking.AdditionalPayment.Amount), booking.Number),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
			"amount":         booking.AdditionalPayment.Amount,
			"transaction_id": booking.AdditionalPayment.TransactionID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyBookingCompleted tells the renter the booking is settled.
func (s *NotificationService) NotifyBookingCompleted(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationBookingCompleted,
		RecipientID: booking.RenterID,
		Title:       "Booking Completed",
		Message:     fmt.Sprintf("Booking %s is fully settled. Thank you for riding electric!", booking.Number),
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"booking_number": booking.Number,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyReceiptReady tells the renter their settlement receipt is ready.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, receipt *domain.Receipt) error {
	notification := Notification{
		Type:        NotificationReceiptReady,
		RecipientID: receipt.RenterID,
		Title:       "Receipt Ready",
		Message:     fmt.Sprintf("Your receipt for booking %s is ready.", receipt.BookingNumber),
		Data: map[string]interface{}{
			"receipt_id":     receipt.ID,
			"booking_id":     receipt.BookingID,
			"booking_number": receipt.BookingNumber,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Send SMS/email if enabled

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}

func formatVND(amount int64) string {
	return fmt.Sprintf("%d VND", amount)
}
