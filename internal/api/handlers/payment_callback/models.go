package payment_callback

import "github.com/m04kA/SMC-TripBookingService/internal/domain"

// CallbackRequest тело callback шлюза. Нужен только ResultCode, остальные поля игнорируются
type CallbackRequest struct {
	ResultCode domain.ResultCode `json:"ResultCode"`
}

// ack ответ шлюзу на любой callback
const ack = "ok"
