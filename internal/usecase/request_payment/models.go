package request_payment

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
)

// Request запрос на оплату поездки
type Request struct {
	// Платёжная часть, уходит в шлюз
	MerchantCode     string
	NetworkCode      string
	PhoneNumber      string
	TransactionDesc  string
	AccountReference string // он же transactionId для callback
	Currency         string
	Amount           decimal.Decimal
	CallBackURL      string

	// Данные поездки, попадают в bookingData
	UserID              string
	Seats               domain.SeatList
	VehicleID           string
	VehicleName         string
	VehicleRegistration string
	Price               string
	TripDate            string
	DepartureTime       string
	From                string
	To                  string
}

// Response ответ шлюза и созданная pending запись
type Response struct {
	GatewayStatus int
	GatewayBody   []byte
	BookingID     int64
	TransactionID string
}
