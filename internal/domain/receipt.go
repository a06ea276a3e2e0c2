package domain

import "time"

// Receipt is the final settlement statement issued when a booking
// completes. Amounts are in whole VND.
type Receipt struct {
	ID            string
	BookingID     string
	BookingNumber string
	RenterID      string
	VehicleID     string

	RentalMode RentalMode
	StartDate  time.Time
	EndDate    time.Time

	BasePrice         int64
	Deposit           int64
	TotalPaid         int64
	AdditionalCharges []AdditionalCharge
	TotalCharges      int64
	RefundAmount      int64
	AdditionalPaid    int64

	PaymentMethod PaymentMethod
	CreatedAt     time.Time
}
