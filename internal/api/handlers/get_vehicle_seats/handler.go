package get_vehicle_seats

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TripBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TripBookingService/internal/service/bookings"
)

const (
	msgInvalidVehicleID = "Invalid vehicle ID"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/vehicles/{vehicleId}/seats
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicleId"]

	seats, err := h.service.GetVehicleSeats(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidInput) {
			h.logger.Warn("GET /vehicles/{id}/seats - Invalid vehicle ID: %q", vehicleID)
			handlers.RespondBadRequest(w, msgInvalidVehicleID)
			return
		}
		h.logger.Error("GET /vehicles/{id}/seats - Failed to get seats: vehicle_id=%s, error=%v", vehicleID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /vehicles/{id}/seats - Seats retrieved: vehicle_id=%s, booked=%d", vehicleID, len(seats.BookedSeats))
	handlers.RespondJSON(w, http.StatusOK, seats)
}
