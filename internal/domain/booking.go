package domain

import "time"

// BookingStatus represents the current lifecycle status of a booking.
// Status is owned by the booking service; nothing else may set it.
type BookingStatus string

const (
	BookingStatusReserved       BookingStatus = "RESERVED"
	BookingStatusPending        BookingStatus = "PENDING"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusInProgress     BookingStatus = "IN_PROGRESS"
	BookingStatusPendingReturn  BookingStatus = "PENDING_RETURN"
	BookingStatusReturning      BookingStatus = "RETURNING"
	BookingStatusRefundPending  BookingStatus = "REFUND_PENDING"
	BookingStatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingStatusCompleted      BookingStatus = "COMPLETED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// ActiveStatuses are the statuses that occupy a vehicle's time window.
// A vehicle has at most one booking in any of these statuses for a
// given interval.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusReserved,
		BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusInProgress,
	}
}

// RentalMode determines how the base price is computed.
type RentalMode string

const (
	RentalModeHour RentalMode = "HOUR"
	RentalModeDay  RentalMode = "DAY"
)

// PaymentMethod represents the payment method for a booking.
type PaymentMethod string

const (
	PaymentMethodGateway      PaymentMethod = "GATEWAY"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// PaymentStatus represents the status of the initial rental payment.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// RefundStatus represents the status of the deposit refund.
type RefundStatus string

const (
	RefundStatusNone           RefundStatus = "NONE"
	RefundStatusPending        RefundStatus = "PENDING"
	RefundStatusPendingPayment RefundStatus = "PENDING_PAYMENT"
	RefundStatusRefunded       RefundStatus = "REFUNDED"
)

// AdditionalPaymentStatus represents the status of an additional payment
// owed when return charges exceed the deposit.
type AdditionalPaymentStatus string

const (
	AdditionalPaymentStatusUnpaid    AdditionalPaymentStatus = "UNPAID"
	AdditionalPaymentStatusPaid      AdditionalPaymentStatus = "PAID"
	AdditionalPaymentStatusCompleted AdditionalPaymentStatus = "COMPLETED"
)

// ChargeType classifies an additional charge assessed at return.
type ChargeType string

const (
	ChargeTypeLateFee  ChargeType = "LATE_FEE"
	ChargeTypeCleaning ChargeType = "CLEANING"
	ChargeTypeRepair   ChargeType = "REPAIR"
	ChargeTypeOther    ChargeType = "OTHER"
)

// AdditionalCharge is a fee assessed during the return inspection,
// offset against the deposit. Amounts are in whole VND.
type AdditionalCharge struct {
	Type        ChargeType
	Amount      int64
	Description string
}

// DepositRefund tracks the out-of-band deposit refund. The staff
// transfer record and the renter's receipt confirmation are independent
// facts: TransferRecordedAt marks the first, RefundedAt the second.
type DepositRefund struct {
	Status             RefundStatus
	Amount             int64
	TransferReference  string
	TransferNotes      string
	TransferRecordedAt time.Time
	RefundedAt         time.Time
	RefundedBy         string
}

// AdditionalPayment tracks the payment owed by the renter when return
// charges exceed the deposit. Paid via the gateway, then confirmed by
// staff.
type AdditionalPayment struct {
	Amount        int64
	Status        AdditionalPaymentStatus
	TransactionID string
	PaidAt        time.Time
	ConfirmedAt   time.Time
}

// Booking is the aggregate root for a rental. Monetary amounts are
// int64 in whole VND. BasePrice, Deposit and TotalAmount are frozen at
// creation and never recomputed.
type Booking struct {
	ID     string
	Number string

	VehicleID       string
	PickupStationID string
	ReturnStationID string
	RenterID        string

	RentalMode    RentalMode
	StartDate     time.Time
	EndDate       time.Time
	ReservedUntil time.Time // set iff status is RESERVED or PENDING

	BasePrice         int64
	Deposit           int64
	TotalAmount       int64 // BasePrice + Deposit, frozen at creation
	AdditionalCharges []AdditionalCharge

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	TransactionID string
	PaidAmount    int64
	PaidAt        time.Time

	DepositRefund     DepositRefund
	AdditionalPayment AdditionalPayment

	ContractSigned   bool
	ContractSignedAt time.Time

	CancelReason string
	CancelledAt  time.Time

	HandoverInspection *Inspection
	ReturnInspection   *Inspection

	Status    BookingStatus
	CreatedAt time.Time
}

// TotalAdditionalCharges sums the charges recorded at return.
func (b *Booking) TotalAdditionalCharges() int64 {
	var total int64
	for _, c := range b.AdditionalCharges {
		total += c.Amount
	}
	return total
}

// Overlaps reports whether the booking's rental window intersects
// [start, end). Windows are half-open: back-to-back rentals where one
// ends exactly when the next starts do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && start.Before(b.EndDate)
}

// BookingEvent is one entry in the append-only transition audit trail.
type BookingEvent struct {
	ID         string
	BookingID  string
	FromStatus BookingStatus
	ToStatus   BookingStatus
	Event      string
	Actor      string
	CreatedAt  time.Time
}
