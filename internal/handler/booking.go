package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"evrental/internal/domain"
	"evrental/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	reservationService *service.ReservationService
	bookingService     *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(reservationService *service.ReservationService, bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{
		reservationService: reservationService,
		bookingService:     bookingService,
	}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	VehicleID       string `json:"vehicle_id"`
	RenterID        string `json:"renter_id"`
	PickupStationID string `json:"pickup_station_id"`
	ReturnStationID string `json:"return_station_id"`
	RentalMode      string `json:"rental_mode"` // HOUR, DAY
	StartDate       string `json:"start_date"`  // RFC 3339
	EndDate         string `json:"end_date"`    // RFC 3339
	PaymentMethod   string `json:"payment_method,omitempty"`
}

// CancelBookingRequest is the HTTP request body for cancelling a booking.
type CancelBookingRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason"`
}

// InspectionRequest is the condition snapshot supplied at handover or return.
type InspectionRequest struct {
	StaffID        string   `json:"staff_id"`
	OdometerKm     int64    `json:"odometer_km"`
	BatteryPercent int      `json:"battery_percent"`
	Condition      string   `json:"condition"`
	PhotoRefs      []string `json:"photo_refs,omitempty"`
}

// ChargeRequest is one additional charge assessed at return.
type ChargeRequest struct {
	Type        string `json:"type"` // LATE_FEE, CLEANING, REPAIR, OTHER
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ReturnBookingRequest is the HTTP request body for recording a return.
type ReturnBookingRequest struct {
	StaffID           string            `json:"staff_id"`
	Inspection        InspectionRequest `json:"inspection"`
	AdditionalCharges []ChargeRequest   `json:"additional_charges,omitempty"`
}

// RefundTransferRequest is the HTTP request body for recording the
// deposit transfer.
type RefundTransferRequest struct {
	StaffID   string `json:"staff_id"`
	Reference string `json:"reference"`
	Notes     string `json:"notes,omitempty"`
}

// ActorRequest carries just the acting party's ID.
type ActorRequest struct {
	ActorID string `json:"actor_id"`
}

// InspectionResponse is the recorded condition snapshot.
type InspectionResponse struct {
	Kind           string   `json:"kind"`
	OdometerKm     int64    `json:"odometer_km"`
	BatteryPercent int      `json:"battery_percent"`
	Condition      string   `json:"condition"`
	PhotoRefs      []string `json:"photo_refs,omitempty"`
	InspectedBy    string   `json:"inspected_by"`
	InspectedAt    string   `json:"inspected_at"`
}

// ChargeResponse is one recorded additional charge.
type ChargeResponse struct {
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// RefundResponse is the deposit refund state.
type RefundResponse struct {
	Status             string `json:"status"`
	Amount             int64  `json:"amount,omitempty"`
	TransferReference  string `json:"transfer_reference,omitempty"`
	TransferNotes      string `json:"transfer_notes,omitempty"`
	TransferRecordedAt string `json:"transfer_recorded_at,omitempty"`
	RefundedAt         string `json:"refunded_at,omitempty"`
}

// AdditionalPaymentResponse is the additional payment state.
type AdditionalPaymentResponse struct {
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`
	ConfirmedAt   string `json:"confirmed_at,omitempty"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID              string `json:"id"`
	Number          string `json:"number"`
	VehicleID       string `json:"vehicle_id"`
	PickupStationID string `json:"pickup_station_id"`
	ReturnStationID string `json:"return_station_id"`
	RenterID        string `json:"renter_id"`

	RentalMode    string `json:"rental_mode"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	ReservedUntil string `json:"reserved_until,omitempty"`

	BasePrice   int64 `json:"base_price"`
	Deposit     int64 `json:"deposit"`
	TotalAmount int64 `json:"total_amount"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	TransactionID string `json:"transaction_id,omitempty"`
	PaidAmount    int64  `json:"paid_amount,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`

	AdditionalCharges []ChargeResponse           `json:"additional_charges,omitempty"`
	DepositRefund     *RefundResponse            `json:"deposit_refund,omitempty"`
	AdditionalPayment *AdditionalPaymentResponse `json:"additional_payment,omitempty"`

	ContractSigned   bool   `json:"contract_signed"`
	ContractSignedAt string `json:"contract_signed_at,omitempty"`

	CancelReason string `json:"cancel_reason,omitempty"`
	CancelledAt  string `json:"cancelled_at,omitempty"`

	HandoverInspection *InspectionResponse `json:"handover_inspection,omitempty"`
	ReturnInspection   *InspectionResponse `json:"return_inspection,omitempty"`

	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// BookingEventResponse is one entry in a booking's audit trail.
type BookingEventResponse struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Event      string `json:"event"`
	Actor      string `json:"actor"`
	CreatedAt  string `json:"created_at"`
}

// PaymentURLResponse carries the signed gateway redirect URL.
type PaymentURLResponse struct {
	PaymentURL string `json:"payment_url"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid start_date, expected RFC 3339"})
		return
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid end_date, expected RFC 3339"})
		return
	}

	mode, err := parseRentalMode(req.RentalMode)
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.reservationService.Reserve(c.Request.Context(), service.ReserveRequest{
		VehicleID:       req.VehicleID,
		RenterID:        req.RenterID,
		PickupStationID: req.PickupStationID,
		ReturnStationID: req.ReturnStationID,
		Mode:            mode,
		StartDate:       startDate,
		EndDate:         endDate,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// GetAllBookings handles GET /v1/bookings
func (h *BookingHandler) GetAllBookings(c *gin.Context) {
	bookings, err := h.bookingService.GetAllBookings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, toBookingResponse(b))
	}

	respondJSON(c, http.StatusOK, responses)
}

// GetBookingEvents handles GET /v1/bookings/:id/events
func (h *BookingHandler) GetBookingEvents(c *gin.Context) {
	events, err := h.bookingService.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]BookingEventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, BookingEventResponse{
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Event:      e.Event,
			Actor:      e.Actor,
			CreatedAt:  formatTime(e.CreatedAt),
		})
	}

	respondJSON(c, http.StatusOK, responses)
}

// GetPaymentURL handles GET /v1/bookings/:id/payment-url
func (h *BookingHandler) GetPaymentURL(c *gin.Context) {
	paymentURL, err := h.bookingService.BuildPaymentRedirect(c.Request.Context(), c.Param("id"), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentURLResponse{PaymentURL: paymentURL})
}

// GetAdditionalPaymentURL handles GET /v1/bookings/:id/additional-payment-url
func (h *BookingHandler) GetAdditionalPaymentURL(c *gin.Context) {
	paymentURL, err := h.bookingService.BuildAdditionalPaymentRedirect(c.Request.Context(), c.Param("id"), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentURLResponse{PaymentURL: paymentURL})
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), service.CancelRequest{
		BookingID:   c.Param("id"),
		CancelledBy: req.CancelledBy,
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// SignContract handles POST /v1/bookings/:id/contract
func (h *BookingHandler) SignContract(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.SignContract(c.Request.Context(), c.Param("id"), req.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RecordHandover handles POST /v1/bookings/:id/handover
func (h *BookingHandler) RecordHandover(c *gin.Context) {
	var req InspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.RecordHandover(c.Request.Context(), service.HandoverRequest{
		BookingID: c.Param("id"),
		StaffID:   req.StaffID,
		Inspection: &domain.Inspection{
			OdometerKm:     req.OdometerKm,
			BatteryPercent: req.BatteryPercent,
			Condition:      req.Condition,
			PhotoRefs:      req.PhotoRefs,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RequestReturn handles POST /v1/bookings/:id/return-request
func (h *BookingHandler) RequestReturn(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.RequestReturn(c.Request.Context(), c.Param("id"), req.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RecordReturn handles POST /v1/bookings/:id/return
func (h *BookingHandler) RecordReturn(c *gin.Context) {
	var req ReturnBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	charges := make([]domain.AdditionalCharge, 0, len(req.AdditionalCharges))
	for _, charge := range req.AdditionalCharges {
		charges = append(charges, domain.AdditionalCharge{
			Type:        domain.ChargeType(charge.Type),
			Amount:      charge.Amount,
			Description: charge.Description,
		})
	}

	booking, err := h.bookingService.RecordReturn(c.Request.Context(), service.ReturnRequest{
		BookingID: c.Param("id"),
		StaffID:   req.StaffID,
		Inspection: &domain.Inspection{
			OdometerKm:     req.Inspection.OdometerKm,
			BatteryPercent: req.Inspection.BatteryPercent,
			Condition:      req.Inspection.Condition,
			PhotoRefs:      req.Inspection.PhotoRefs,
		},
		AdditionalCharges: charges,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RecordRefundTransfer handles POST /v1/bookings/:id/refund-transfer
func (h *BookingHandler) RecordRefundTransfer(c *gin.Context) {
	var req RefundTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.RecordRefundTransfer(c.Request.Context(), service.RefundTransferRequest{
		BookingID: c.Param("id"),
		StaffID:   req.StaffID,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ConfirmRefund handles POST /v1/bookings/:id/confirm-refund
func (h *BookingHandler) ConfirmRefund(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.ConfirmRefundReceived(c.Request.Context(), c.Param("id"), req.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ConfirmAdditionalPayment handles POST /v1/bookings/:id/confirm-additional-payment
func (h *BookingHandler) ConfirmAdditionalPayment(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.ConfirmAdditionalPaymentReceived(c.Request.Context(), c.Param("id"), req.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

func parseRentalMode(mode string) (domain.RentalMode, error) {
	switch domain.RentalMode(mode) {
	case domain.RentalModeHour, domain.RentalModeDay:
		return domain.RentalMode(mode), nil
	default:
		return "", service.ErrInvalidRentalMode
	}
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		Number:          b.Number,
		VehicleID:       b.VehicleID,
		PickupStationID: b.PickupStationID,
		ReturnStationID: b.ReturnStationID,
		RenterID:        b.RenterID,
		RentalMode:      string(b.RentalMode),
		StartDate:       formatTime(b.StartDate),
		EndDate:         formatTime(b.EndDate),
		BasePrice:       b.BasePrice,
		Deposit:         b.Deposit,
		TotalAmount:     b.TotalAmount,
		PaymentMethod:   string(b.PaymentMethod),
		PaymentStatus:   string(b.PaymentStatus),
		TransactionID:   b.TransactionID,
		PaidAmount:      b.PaidAmount,
		ContractSigned:  b.ContractSigned,
		CancelReason:    b.CancelReason,
		Status:          string(b.Status),
		CreatedAt:       formatTime(b.CreatedAt),
	}

	if !b.ReservedUntil.IsZero() {
		resp.ReservedUntil = formatTime(b.ReservedUntil)
	}
	if !b.PaidAt.IsZero() {
		resp.PaidAt = formatTime(b.PaidAt)
	}
	if !b.ContractSignedAt.IsZero() {
		resp.ContractSignedAt = formatTime(b.ContractSignedAt)
	}
	if !b.CancelledAt.IsZero() {
		resp.CancelledAt = formatTime(b.CancelledAt)
	}

	for _, charge := range b.AdditionalCharges {
		resp.AdditionalCharges = append(resp.AdditionalCharges, ChargeResponse{
			Type:        string(charge.Type),
			Amount:      charge.Amount,
			Description: charge.Description,
		})
	}

	if b.DepositRefund.Status != domain.RefundStatusNone {
		refund := RefundResponse{
			Status:            string(b.DepositRefund.Status),
			Amount:            b.DepositRefund.Amount,
			TransferReference: b.DepositRefund.TransferReference,
			TransferNotes:     b.DepositRefund.TransferNotes,
		}
		if !b.DepositRefund.TransferRecordedAt.IsZero() {
			refund.TransferRecordedAt = formatTime(b.DepositRefund.TransferRecordedAt)
		}
		if !b.DepositRefund.RefundedAt.IsZero() {
			refund.RefundedAt = formatTime(b.DepositRefund.RefundedAt)
		}
		resp.DepositRefund = &refund
	}

	if b.AdditionalPayment.Amount > 0 {
		addpay := AdditionalPaymentResponse{
			Amount:        b.AdditionalPayment.Amount,
			Status:        string(b.AdditionalPayment.Status),
			TransactionID: b.AdditionalPayment.TransactionID,
		}
		if !b.AdditionalPayment.PaidAt.IsZero() {
			addpay.PaidAt = formatTime(b.AdditionalPayment.PaidAt)
		}
		if !b.AdditionalPayment.ConfirmedAt.IsZero() {
			addpay.ConfirmedAt = formatTime(b.AdditionalPayment.ConfirmedAt)
		}
		resp.AdditionalPayment = &addpay
	}

	resp.HandoverInspection = toInspectionResponse(b.HandoverInspection)
	resp.ReturnInspection = toInspectionResponse(b.ReturnInspection)

	return resp
}

func toInspectionResponse(in *domain.Inspection) *InspectionResponse {
	if in == nil {
		return nil
	}
	return &InspectionResponse{
		Kind:           string(in.Kind),
		OdometerKm:     in.OdometerKm,
		BatteryPercent: in.BatteryPercent,
		Condition:      in.Condition,
		PhotoRefs:      in.PhotoRefs,
		InspectedBy:    in.InspectedBy,
		InspectedAt:    formatTime(in.InspectedAt),
	}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
