package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"evrental/internal/domain"
	"evrental/internal/repository"
	"evrental/internal/service"
)

// VehicleHandler handles HTTP requests for the vehicle directory.
type VehicleHandler struct {
	vehicleRepo repository.VehicleRepository
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleRepo repository.VehicleRepository) *VehicleHandler {
	return &VehicleHandler{
		vehicleRepo: vehicleRepo,
	}
}

// CreateVehicleRequest is the HTTP request body for registering a vehicle.
type CreateVehicleRequest struct {
	Name         string `json:"name"`
	PlateNumber  string `json:"plate_number"`
	StationID    string `json:"station_id"`
	PricePerHour int64  `json:"price_per_hour"`
	PricePerDay  int64  `json:"price_per_day"`
	Deposit      int64  `json:"deposit"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PlateNumber  string `json:"plate_number"`
	StationID    string `json:"station_id"`
	PricePerHour int64  `json:"price_per_hour"`
	PricePerDay  int64  `json:"price_per_day"`
	Deposit      int64  `json:"deposit"`
	Available    bool   `json:"available"`
	CreatedAt    string `json:"created_at"`
}

// CreateVehicle handles POST /v1/vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.PricePerHour <= 0 || req.PricePerDay <= 0 || req.Deposit <= 0 {
		respondError(c, service.ErrInvalidChargeAmount)
		return
	}

	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		Name:         req.Name,
		PlateNumber:  req.PlateNumber,
		StationID:    req.StationID,
		PricePerHour: req.PricePerHour,
		PricePerDay:  req.PricePerDay,
		Deposit:      req.Deposit,
		Available:    true,
		CreatedAt:    time.Now(),
	}

	if err := h.vehicleRepo.Create(c.Request.Context(), vehicle); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// GetVehicle handles GET /v1/vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// GetAllVehicles handles GET /v1/vehicles
func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	vehicles, err := h.vehicleRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		responses = append(responses, toVehicleResponse(v))
	}

	respondJSON(c, http.StatusOK, responses)
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           v.ID,
		Name:         v.Name,
		PlateNumber:  v.PlateNumber,
		StationID:    v.StationID,
		PricePerHour: v.PricePerHour,
		PricePerDay:  v.PricePerDay,
		Deposit:      v.Deposit,
		Available:    v.Available,
		CreatedAt:    formatTime(v.CreatedAt),
	}
}
