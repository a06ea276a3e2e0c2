package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"evrental/internal/domain"
)

// ReceiptService produces the settlement receipt issued when a booking
// completes.
type ReceiptService struct {
	notificationService *NotificationService
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(notificationService *NotificationService) *ReceiptService {
	return &ReceiptService{
		notificationService: notificationService,
	}
}

// GenerateReceipt builds the final settlement statement for a completed
// booking: rental price, deposit, charges, and whichever of refund or
// additional payment applied.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, booking *domain.Booking) (*domain.Receipt, error) {
	if booking == nil {
		return nil, ErrInvalidBookingID
	}

	var additionalPaid int64
	if booking.AdditionalPayment.Status == domain.AdditionalPaymentStatusPaid ||
		booking.AdditionalPayment.Status == domain.AdditionalPaymentStatusCompleted {
		additionalPaid = booking.AdditionalPayment.Amount
	}

	receipt := &domain.Receipt{
		ID:                uuid.New().String(),
		BookingID:         booking.ID,
		BookingNumber:     booking.Number,
		RenterID:          booking.RenterID,
		VehicleID:         booking.VehicleID,
		RentalMode:        booking.RentalMode,
		StartDate:         booking.StartDate,
		EndDate:           booking.EndDate,
		BasePrice:         booking.BasePrice,
		Deposit:           booking.Deposit,
		TotalPaid:         booking.PaidAmount,
		AdditionalCharges: booking.AdditionalCharges,
		TotalCharges:      booking.TotalAdditionalCharges(),
		RefundAmount:      booking.DepositRefund.Amount,
		AdditionalPaid:    additionalPaid,
		PaymentMethod:     booking.PaymentMethod,
		CreatedAt:         time.Now(),
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyReceiptReady(ctx, receipt)
	}

	return receipt, nil
}

// FormatReceipt formats the receipt as a string (for email/print).
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	var b strings.Builder

	b.WriteString("=====================================\n")
	b.WriteString("        RENTAL RECEIPT\n")
	b.WriteString("=====================================\n")
	fmt.Fprintf(&b, "Receipt ID: %s\n", receipt.ID)
	fmt.Fprintf(&b, "Booking:    %s\n", receipt.BookingNumber)
	fmt.Fprintf(&b, "Date:       %s\n\n", receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM"))

	b.WriteString("RENTAL DETAILS\n")
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "Mode:   %s\n", receipt.RentalMode)
	fmt.Fprintf(&b, "From:   %s\n", receipt.StartDate.Format("Jan 02, 2006 3:04 PM"))
	fmt.Fprintf(&b, "To:     %s\n\n", receipt.EndDate.Format("Jan 02, 2006 3:04 PM"))

	b.WriteString("PAYMENT BREAKDOWN\n")
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "Rental Price:     %s\n", formatVND(receipt.BasePrice))
	fmt.Fprintf(&b, "Deposit:          %s\n", formatVND(receipt.Deposit))
	fmt.Fprintf(&b, "Paid Up Front:    %s\n", formatVND(receipt.TotalPaid))

	if len(receipt.AdditionalCharges) > 0 {
		b.WriteString("\nADDITIONAL CHARGES\n")
		b.WriteString("-------------------------------------\n")
		for _, c := range receipt.AdditionalCharges {
			fmt.Fprintf(&b, "%-16s %s\n", c.Type+":", formatVND(c.Amount))
		}
		fmt.Fprintf(&b, "Total Charges:    %s\n", formatVND(receipt.TotalCharges))
	}

	b.WriteString("\nSETTLEMENT\n")
	b.WriteString("-------------------------------------\n")
	if receipt.AdditionalPaid > 0 {
		fmt.Fprintf(&b, "Additional Paid:  %s\n", formatVND(receipt.AdditionalPaid))
	} else {
		fmt.Fprintf(&b, "Deposit Refunded: %s\n", formatVND(receipt.RefundAmount))
	}

	fmt.Fprintf(&b, "\nPayment Method: %s\n", receipt.PaymentMethod)
	b.WriteString("=====================================\n")
	b.WriteString("   Thank you for riding electric!\n")
	b.WriteString("=====================================\n")

	return b.String()
}
