package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"evrental/internal/domain"
	"evrental/internal/repository"
)

// StationHandler handles HTTP requests for the station directory.
type StationHandler struct {
	stationRepo repository.StationRepository
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stationRepo repository.StationRepository) *StationHandler {
	return &StationHandler{
		stationRepo: stationRepo,
	}
}

// CreateStationRequest is the HTTP request body for registering a station.
type CreateStationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// StationResponse is the HTTP representation of a station.
type StationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

// CreateStation handles POST /v1/stations
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	station := &domain.Station{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Address:   req.Address,
		CreatedAt: time.Now(),
	}

	if err := h.stationRepo.Create(c.Request.Context(), station); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toStationResponse(station))
}

// GetStation handles GET /v1/stations/:id
func (h *StationHandler) GetStation(c *gin.Context) {
	station, err := h.stationRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toStationResponse(station))
}

// GetAllStations handles GET /v1/stations
func (h *StationHandler) GetAllStations(c *gin.Context) {
	stations, err := h.stationRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]StationResponse, 0, len(stations))
	for _, s := range stations {
		responses = append(responses, toStationResponse(s))
	}

	respondJSON(c, http.StatusOK, responses)
}

func toStationResponse(s *domain.Station) StationResponse {
	return StationResponse{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		CreatedAt: formatTime(s.CreatedAt),
	}
}
