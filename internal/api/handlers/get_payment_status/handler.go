package get_payment_status

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TripBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TripBookingService/internal/service/bookings"
)

const (
	msgInvalidTransactionID = "Invalid transaction ID"
	msgNotFound             = "Payment not found"
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

// Handle GET /api/v1/payments/{transactionId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	status, err := h.service.GetPaymentStatus(r.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /payments/{id} - Invalid transaction ID: %q", transactionID)
			handlers.RespondBadRequest(w, msgInvalidTransactionID)

		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /payments/{id} - Payment not found: tx=%s", transactionID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /payments/{id} - Failed to get payment: tx=%s, error=%v", transactionID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /payments/{id} - Payment retrieved: tx=%s, status=%s", transactionID, status.PaymentStatus)
	handlers.RespondJSON(w, http.StatusOK, status)
}
