package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evrental/internal/service"
)

// PaymentHandler handles the payment gateway callback.
type PaymentHandler struct {
	bookingService *service.BookingService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(bookingService *service.BookingService) *PaymentHandler {
	return &PaymentHandler{
		bookingService: bookingService,
	}
}

// CallbackResponse is the acknowledgement body the gateway expects.
type CallbackResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// HandleCallback handles GET /v1/payments/callback
//
// The gateway retries until it receives HTTP 200, so every verified
// callback is acknowledged with 200 and a response code in the body;
// only an unverifiable request gets a non-acknowledging code.
func (h *PaymentHandler) HandleCallback(c *gin.Context) {
	params := make(map[string]string, len(c.Request.URL.Query()))
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	ack, err := h.bookingService.HandleGatewayCallback(c.Request.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSignatureMismatch):
			c.JSON(http.StatusOK, CallbackResponse{RspCode: "97", Message: "Invalid signature"})
		case errors.Is(err, service.ErrAmountMismatch):
			c.JSON(http.StatusOK, CallbackResponse{RspCode: "04", Message: "Invalid amount"})
		case errors.Is(err, service.ErrUnknownTransactionRef):
			c.JSON(http.StatusOK, CallbackResponse{RspCode: "01", Message: "Order not found"})
		case errors.Is(err, service.ErrInvalidStateTransition), errors.Is(err, service.ErrBookingLocked):
			// Transient or out-of-order; the gateway will retry.
			c.JSON(http.StatusOK, CallbackResponse{RspCode: "99", Message: "Unable to process, retry"})
		default:
			c.JSON(http.StatusInternalServerError, CallbackResponse{RspCode: "99", Message: "Internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, CallbackResponse{RspCode: ack.Code, Message: ack.Message})
}
