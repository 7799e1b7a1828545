package request_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-TripBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TripBookingService/internal/integrations/gateway"
	requestPayment "github.com/m04kA/SMC-TripBookingService/internal/usecase/request_payment"
)

const (
	msgInvalidRequestBody   = "Invalid request body"
	msgSeatAlreadyBooked    = "One or more seats are already booked"
	msgDuplicateUserBooking = "You have already booked one or more of these seats"
	msgDuplicateTransaction = "A payment with this AccountReference already exists"
	msgTokenFailed          = "Failed to obtain payment gateway access token"
	msgGatewayUnavailable   = "Payment gateway is unavailable"
	msgGatewayRejected      = "Payment gateway rejected the request"
)

type Handler struct {
	useCase RequestPaymentUseCase
	logger  Logger
}

func NewHandler(useCase RequestPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /request-payment
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req RequestPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /request-payment - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, requestPayment.ErrInvalidInput):
			h.logger.Warn("POST /request-payment - Validation failed: tx=%s, error=%v", req.AccountReference, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, requestPayment.ErrDuplicateUserBooking):
			h.logger.Warn("POST /request-payment - Duplicate user booking: user_id=%s, vehicle_id=%s", req.UserID, req.VehicleID)
			handlers.RespondConflict(w, msgDuplicateUserBooking)

		case errors.Is(err, requestPayment.ErrSeatAlreadyBooked):
			h.logger.Warn("POST /request-payment - Seats already booked: user_id=%s, vehicle_id=%s", req.UserID, req.VehicleID)
			handlers.RespondConflict(w, msgSeatAlreadyBooked)

		case errors.Is(err, requestPayment.ErrDuplicateTransaction):
			h.logger.Warn("POST /request-payment - Duplicate transaction: tx=%s", req.AccountReference)
			handlers.RespondConflict(w, msgDuplicateTransaction)

		case errors.Is(err, requestPayment.ErrGatewayRejected):
			// Тело отказа шлюза отдаётся клиенту как есть
			var rejected *gateway.RejectedError
			if errors.As(err, &rejected) && len(rejected.Body) > 0 {
				h.logger.Warn("POST /request-payment - Gateway rejected: tx=%s, status=%d", req.AccountReference, rejected.StatusCode)
				handlers.RespondRaw(w, http.StatusInternalServerError, rejected.Body)
				return
			}
			h.logger.Warn("POST /request-payment - Gateway rejected: tx=%s, error=%v", req.AccountReference, err)
			handlers.RespondError(w, http.StatusInternalServerError, msgGatewayRejected)

		case errors.Is(err, requestPayment.ErrTokenAcquisitionFailed):
			h.logger.Error("POST /request-payment - Token acquisition failed: tx=%s, error=%v", req.AccountReference, err)
			handlers.RespondError(w, http.StatusBadGateway, msgTokenFailed)

		case errors.Is(err, requestPayment.ErrGatewayUnavailable):
			h.logger.Error("POST /request-payment - Gateway unavailable: tx=%s, error=%v", req.AccountReference, err)
			handlers.RespondError(w, http.StatusGatewayTimeout, msgGatewayUnavailable)

		default:
			h.logger.Error("POST /request-payment - Failed to request payment: tx=%s, error=%v", req.AccountReference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /request-payment - Payment requested: tx=%s, booking_id=%d, gateway_status=%d",
		result.TransactionID, result.BookingID, result.GatewayStatus)
	handlers.RespondRaw(w, http.StatusOK, result.GatewayBody)
}
