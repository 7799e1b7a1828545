package payment_callback

import (
	"net/http"

	"github.com/m04kA/SMC-TripBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	reconcilePayment "github.com/m04kA/SMC-TripBookingService/internal/usecase/reconcile_payment"
)

type Handler struct {
	useCase ReconcileUseCase
	logger  Logger
}

func NewHandler(useCase ReconcileUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /c2b-callback-results?bookingData=...
// Шлюз всегда получает 200 "ok": исход сверки остаётся в логах и метриках.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	bodyErr := handlers.DecodeJSON(r, &req)
	if bodyErr != nil {
		h.logger.Warn("POST /c2b-callback-results - Invalid callback body: %v", bodyErr)
	}

	bookingData, ok := domain.ExtractSnapshotParam(r.URL.RawQuery)
	if !ok {
		h.logger.Warn("POST /c2b-callback-results - Missing %s query parameter", domain.BookingDataParam)
	}

	result := h.useCase.Execute(r.Context(), &reconcilePayment.Request{
		BookingData:      bookingData,
		ResultCode:       req.ResultCode,
		ResultUnreadable: bodyErr != nil,
	})

	h.logger.Info("POST /c2b-callback-results - Callback processed: tx=%s, result_code=%q, outcome=%s",
		result.TransactionID, req.ResultCode, result.Outcome)
	handlers.RespondJSON(w, http.StatusOK, ack)
}
