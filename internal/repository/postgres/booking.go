package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"evrental/internal/domain"
	"evrental/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
// Guarded transitions run in a repository-internal transaction so the
// status update and the audit event are committed atomically.
type BookingRepository struct {
	db *sql.DB
	q  Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db, q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
// Transition is unavailable on a tx-scoped repository.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	id, number, vehicle_id, pickup_station_id, return_station_id, renter_id,
	rental_mode, start_date, end_date, reserved_until,
	base_price, deposit, total_amount, additional_charges,
	payment_method, payment_status, transaction_id, paid_amount, paid_at,
	refund_status, refund_amount, transfer_reference, transfer_notes,
	transfer_recorded_at, refunded_at, refunded_by,
	addpay_amount, addpay_status, addpay_transaction_id, addpay_paid_at, addpay_confirmed_at,
	contract_signed, contract_signed_at,
	cancel_reason, cancelled_at,
	handover_inspection, return_inspection,
	status, created_at`

// Create persists a new booking and its creation audit event.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if r.db == nil {
		return errors.New("create requires a db-scoped repository")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39)
	`

	args, err := bookingArgs(booking)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if err = insertEvent(ctx, tx, &domain.BookingEvent{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		FromStatus: "",
		ToStatus:   booking.Status,
		Event:      "booking_created",
		Actor:      booking.RenterID,
		CreatedAt:  booking.CreatedAt,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByNumber retrieves a booking by its human-readable number.
func (r *BookingRepository) GetByNumber(ctx context.Context, number string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE number = $1`
	return r.getOne(ctx, query, number)
}

func (r *BookingRepository) getOne(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// GetAll retrieves recent bookings.
func (r *BookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC LIMIT 100`
	return r.list(ctx, query)
}

// FindActiveOverlapping returns bookings for the vehicle whose rental
// window intersects [start, end) with a status that occupies the vehicle.
func (r *BookingRepository) FindActiveOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE vehicle_id = $1
		  AND status = ANY($2)
		  AND start_date < $4
		  AND $3 < end_date
	`

	statuses := make([]string, 0, 4)
	for _, s := range domain.ActiveStatuses() {
		statuses = append(statuses, string(s))
	}

	return r.list(ctx, query, vehicleID, pq.Array(statuses), start, end)
}

// FindExpiredHolds returns bookings still holding a vehicle whose
// reservation hold lapsed before now.
func (r *BookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = ANY($1)
		  AND reserved_until IS NOT NULL
		  AND reserved_until < $2
		ORDER BY reserved_until
		LIMIT $3
	`

	holding := []string{string(domain.BookingStatusReserved), string(domain.BookingStatusPending)}

	return r.list(ctx, query, pq.Array(holding), now, limit)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// Transition persists the booking if and only if the stored row is
// still in the from status, appending the audit event atomically.
func (r *BookingRepository) Transition(ctx context.Context, booking *domain.Booking, from domain.BookingStatus, event, actor string) error {
	if r.db == nil {
		return errors.New("transition requires a db-scoped repository")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		UPDATE bookings SET
			reserved_until = $2,
			additional_charges = $3,
			payment_method = $4, payment_status = $5, transaction_id = $6, paid_amount = $7, paid_at = $8,
			refund_status = $9, refund_amount = $10, transfer_reference = $11, transfer_notes = $12,
			transfer_recorded_at = $13, refunded_at = $14, refunded_by = $15,
			addpay_amount = $16, addpay_status = $17, addpay_transaction_id = $18, addpay_paid_at = $19, addpay_confirmed_at = $20,
			contract_signed = $21, contract_signed_at = $22,
			cancel_reason = $23, cancelled_at = $24,
			handover_inspection = $25, return_inspection = $26,
			status = $27
		WHERE id = $1 AND status = $28
	`

	charges, err := json.Marshal(booking.AdditionalCharges)
	if err != nil {
		return err
	}
	handover, err := marshalInspection(booking.HandoverInspection)
	if err != nil {
		return err
	}
	ret, err := marshalInspection(booking.ReturnInspection)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query,
		booking.ID,
		nullTime(booking.ReservedUntil),
		charges,
		booking.PaymentMethod,
		booking.PaymentStatus,
		nullString(booking.TransactionID),
		booking.PaidAmount,
		nullTime(booking.PaidAt),
		booking.DepositRefund.Status,
		booking.DepositRefund.Amount,
		nullString(booking.DepositRefund.TransferReference),
		nullString(booking.DepositRefund.TransferNotes),
		nullTime(booking.DepositRefund.TransferRecordedAt),
		nullTime(booking.DepositRefund.RefundedAt),
		nullString(booking.DepositRefund.RefundedBy),
		booking.AdditionalPayment.Amount,
		booking.AdditionalPayment.Status,
		nullString(booking.AdditionalPayment.TransactionID),
		nullTime(booking.AdditionalPayment.PaidAt),
		nullTime(booking.AdditionalPayment.ConfirmedAt),
		booking.ContractSigned,
		nullTime(booking.ContractSignedAt),
		nullString(booking.CancelReason),
		nullTime(booking.CancelledAt),
		handover,
		ret,
		booking.Status,
		from,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Disambiguate a missing row from a stale status guard.
		var current string
		err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = $1`, booking.ID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			err = repository.ErrNotFound
			return err
		}
		if err != nil {
			return err
		}
		err = fmt.Errorf("%w: have %s, want %s", repository.ErrStaleStatus, current, from)
		return err
	}

	if err = insertEvent(ctx, tx, &domain.BookingEvent{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		FromStatus: from,
		ToStatus:   booking.Status,
		Event:      event,
		Actor:      actor,
		CreatedAt:  time.Now(),
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// ListEvents returns the append-only transition trail, oldest first.
func (r *BookingRepository) ListEvents(ctx context.Context, bookingID string) ([]*domain.BookingEvent, error) {
	query := `
		SELECT id, booking_id, from_status, to_status, event, actor, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.BookingEvent
	for rows.Next() {
		var ev domain.BookingEvent
		var fromStatus sql.NullString
		if err := rows.Scan(&ev.ID, &ev.BookingID, &fromStatus, &ev.ToStatus, &ev.Event, &ev.Actor, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if fromStatus.Valid {
			ev.FromStatus = domain.BookingStatus(fromStatus.String)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func insertEvent(ctx context.Context, q Querier, ev *domain.BookingEvent) error {
	query := `
		INSERT INTO booking_events (id, booking_id, from_status, to_status, event, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.ExecContext(ctx, query,
		ev.ID,
		ev.BookingID,
		nullString(string(ev.FromStatus)),
		ev.ToStatus,
		ev.Event,
		ev.Actor,
		ev.CreatedAt,
	)
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var (
		b                  domain.Booking
		reservedUntil      sql.NullTime
		charges            []byte
		transactionID      sql.NullString
		paidAt             sql.NullTime
		transferReference  sql.NullString
		transferNotes      sql.NullString
		transferRecordedAt sql.NullTime
		refundedAt         sql.NullTime
		refundedBy         sql.NullString
		addpayTxnID        sql.NullString
		addpayPaidAt       sql.NullTime
		addpayConfirmedAt  sql.NullTime
		contractSignedAt   sql.NullTime
		cancelReason       sql.NullString
		cancelledAt        sql.NullTime
		handover           []byte
		ret                []byte
	)

	err := row.Scan(
		&b.ID, &b.Number, &b.VehicleID, &b.PickupStationID, &b.ReturnStationID, &b.RenterID,
		&b.RentalMode, &b.StartDate, &b.EndDate, &reservedUntil,
		&b.BasePrice, &b.Deposit, &b.TotalAmount, &charges,
		&b.PaymentMethod, &b.PaymentStatus, &transactionID, &b.PaidAmount, &paidAt,
		&b.DepositRefund.Status, &b.DepositRefund.Amount, &transferReference, &transferNotes,
		&transferRecordedAt, &refundedAt, &refundedBy,
		&b.AdditionalPayment.Amount, &b.AdditionalPayment.Status, &addpayTxnID, &addpayPaidAt, &addpayConfirmedAt,
		&b.ContractSigned, &contractSignedAt,
		&cancelReason, &cancelledAt,
		&handover, &ret,
		&b.Status, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reservedUntil.Valid {
		b.ReservedUntil = reservedUntil.Time
	}
	if len(charges) > 0 {
		if err := json.Unmarshal(charges, &b.AdditionalCharges); err != nil {
			return nil, err
		}
	}
	if transactionID.Valid {
		b.TransactionID = transactionID.String
	}
	if paidAt.Valid {
		b.PaidAt = paidAt.Time
	}
	if transferReference.Valid {
		b.DepositRefund.TransferReference = transferReference.String
	}
	if transferNotes.Valid {
		b.DepositRefund.TransferNotes = transferNotes.String
	}
	if transferRecordedAt.Valid {
		b.DepositRefund.TransferRecordedAt = transferRecordedAt.Time
	}
	if refundedAt.Valid {
		b.DepositRefund.RefundedAt = refundedAt.Time
	}
	if refundedBy.Valid {
		b.DepositRefund.RefundedBy = refundedBy.String
	}
	if addpayTxnID.Valid {
		b.AdditionalPayment.TransactionID = addpayTxnID.String
	}
	if addpayPaidAt.Valid {
		b.AdditionalPayment.PaidAt = addpayPaidAt.Time
	}
	if addpayConfirmedAt.Valid {
		b.AdditionalPayment.ConfirmedAt = addpayConfirmedAt.Time
	}
	if contractSignedAt.Valid {
		b.ContractSignedAt = contractSignedAt.Time
	}
	if cancelReason.Valid {
		b.CancelReason = cancelReason.String
	}
	if cancelledAt.Valid {
		b.CancelledAt = cancelledAt.Time
	}
	if b.HandoverInspection, err = unmarshalInspection(handover); err != nil {
		return nil, err
	}
	if b.ReturnInspection, err = unmarshalInspection(ret); err != nil {
		return nil, err
	}

	return &b, nil
}

func bookingArgs(b *domain.Booking) ([]any, error) {
	charges, err := json.Marshal(b.AdditionalCharges)
	if err != nil {
		return nil, err
	}
	handover, err := marshalInspection(b.HandoverInspection)
	if err != nil {
		return nil, err
	}
	ret, err := marshalInspection(b.ReturnInspection)
	if err != nil {
		return nil, err
	}

	return []any{
		b.ID, b.Number, b.VehicleID, b.PickupStationID, b.ReturnStationID, b.RenterID,
		b.RentalMode, b.StartDate, b.EndDate, nullTime(b.ReservedUntil),
		b.BasePrice, b.Deposit, b.TotalAmount, charges,
		b.PaymentMethod, b.PaymentStatus, nullString(b.TransactionID), b.PaidAmount, nullTime(b.PaidAt),
		b.DepositRefund.Status, b.DepositRefund.Amount, nullString(b.DepositRefund.TransferReference), nullString(b.DepositRefund.TransferNotes),
		nullTime(b.DepositRefund.TransferRecordedAt), nullTime(b.DepositRefund.RefundedAt), nullString(b.DepositRefund.RefundedBy),
		b.AdditionalPayment.Amount, b.AdditionalPayment.Status, nullString(b.AdditionalPayment.TransactionID), nullTime(b.AdditionalPayment.PaidAt), nullTime(b.AdditionalPayment.ConfirmedAt),
		b.ContractSigned, nullTime(b.ContractSignedAt),
		nullString(b.CancelReason), nullTime(b.CancelledAt),
		handover, ret,
		b.Status, b.CreatedAt,
	}, nil
}

func marshalInspection(i *domain.Inspection) ([]byte, error) {
	if i == nil {
		return nil, nil
	}
	return json.Marshal(i)
}

func unmarshalInspection(data []byte) (*domain.Inspection, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var i domain.Inspection
	if err := json.Unmarshal(data, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
