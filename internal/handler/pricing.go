package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"evrental/internal/service"
)

// PricingHandler handles HTTP requests for price quotes.
type PricingHandler struct {
	pricingService *service.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
	}
}

// QuoteResponse is the HTTP response for a price quote.
type QuoteResponse struct {
	VehicleID   string `json:"vehicle_id"`
	RentalMode  string `json:"mode"`
	Duration    int    `json:"duration"`
	BasePrice   int64  `json:"base_price"`
	Deposit     int64  `json:"deposit"`
	TotalAmount int64  `json:"total_amount"`
}

// GetQuote handles GET /v1/pricing/quote
func (h *PricingHandler) GetQuote(c *gin.Context) {
	vehicleID := c.Query("vehicle_id")
	modeParam := c.Query("mode")

	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		respondError(c, service.ErrInvalidDuration)
		return
	}

	mode, err := parseRentalMode(modeParam)
	if err != nil {
		respondError(c, err)
		return
	}

	quote, err := h.pricingService.QuoteVehicle(c.Request.Context(), vehicleID, mode, duration)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		VehicleID:   vehicleID,
		RentalMode:  modeParam,
		Duration:    duration,
		BasePrice:   quote.BasePrice,
		Deposit:     quote.Deposit,
		TotalAmount: quote.TotalAmount,
	})
}
