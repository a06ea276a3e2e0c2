package service

import "errors"

// Validation errors. Surfaced to the caller, no state change.
var (
	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidRenterID is returned when renter ID is empty.
	ErrInvalidRenterID = errors.New("invalid renter id")

	// ErrInvalidStationID is returned when a station ID is empty or unknown.
	ErrInvalidStationID = errors.New("invalid station id")

	// ErrInvalidRentalMode is returned when the rental mode is neither hour nor day.
	ErrInvalidRentalMode = errors.New("invalid rental mode")

	// ErrInvalidDuration is returned when duration is below one unit.
	ErrInvalidDuration = errors.New("duration must be at least 1")

	// ErrHourlyDurationTooLong is returned when an hourly rental exceeds
	// 24 hours. Rentals beyond one day must use day mode.
	ErrHourlyDurationTooLong = errors.New("hourly rentals are limited to 24 hours, use day mode")

	// ErrInvalidRentalWindow is returned when the end date is not after the start date.
	ErrInvalidRentalWindow = errors.New("end date must be after start date")

	// ErrStartTooSoon is returned when the start date is inside the
	// minimum lead-time buffer.
	ErrStartTooSoon = errors.New("start date is too soon")

	// ErrMissingInspection is returned when a handover or return is
	// recorded without a condition snapshot.
	ErrMissingInspection = errors.New("inspection data required")

	// ErrMissingReturnPhotos is returned when a return inspection has no photos.
	ErrMissingReturnPhotos = errors.New("return inspection photos required")

	// ErrInvalidChargeAmount is returned when an additional charge is not positive.
	ErrInvalidChargeAmount = errors.New("additional charge amount must be positive")

	// ErrMissingTransferReference is returned when a refund transfer is
	// recorded without a bank reference.
	ErrMissingTransferReference = errors.New("transfer reference required")

	// ErrMissingCancelReason is returned when a cancellation has no reason.
	ErrMissingCancelReason = errors.New("cancellation reason required")
)

// Conflict errors. Surfaced to the caller, no state change.
var (
	// ErrVehicleConflict is returned when another active booking
	// overlaps the requested window, or the vehicle's reservation lock
	// is held by a concurrent request.
	ErrVehicleConflict = errors.New("vehicle already booked for this window")

	// ErrBookingLocked is returned when a concurrent event against the
	// same booking holds the mutation lock. The caller may retry.
	ErrBookingLocked = errors.New("booking is being updated, retry")
)

// State machine errors. Logged as potential client or replay bugs,
// never retried automatically.
var (
	// ErrInvalidStateTransition is returned when an event is not
	// applicable to the booking's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrContractNotSigned is returned when handover is attempted
	// before the rental contract is signed.
	ErrContractNotSigned = errors.New("contract not signed")
)

// Gateway errors.
var (
	// ErrSignatureMismatch is returned when a gateway callback fails
	// signature verification. Treated as a security event; the callback
	// is rejected outright and never applied.
	ErrSignatureMismatch = errors.New("callback signature mismatch")

	// ErrUnknownTransactionRef is returned when a verified callback
	// references a booking number that does not exist. Non-fatal: the
	// callback is logged and acknowledged without mutation.
	ErrUnknownTransactionRef = errors.New("unknown transaction reference")

	// ErrAmountMismatch is returned when a verified callback carries an
	// amount that does not match the booking. Rejected without mutation.
	ErrAmountMismatch = errors.New("callback amount does not match booking")

	// ErrGatewayUnavailable is returned when the upstream payment
	// provider cannot be reached. The caller retries; the booking
	// remains in its pre-call state.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
