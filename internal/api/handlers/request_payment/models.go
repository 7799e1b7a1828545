package request_payment

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	requestPayment "github.com/m04kA/SMC-TripBookingService/internal/usecase/request_payment"
)

// RequestPaymentRequest HTTP request model.
// Платёжные поля названы так, как их ждёт шлюз, поля поездки - как их шлёт клиент.
type RequestPaymentRequest struct {
	MerchantCode     domain.LooseString `json:"MerchantCode"`
	NetworkCode      domain.LooseString `json:"NetworkCode"`
	PhoneNumber      domain.LooseString `json:"PhoneNumber"`
	TransactionDesc  string             `json:"TransactionDesc"`
	AccountReference domain.LooseString `json:"AccountReference"`
	Currency         string             `json:"Currency"`
	Amount           decimal.Decimal    `json:"Amount"` // число или строка
	CallBackURL      string             `json:"CallBackURL"`

	UserID              domain.LooseString `json:"userId"`
	Seats               domain.SeatList    `json:"seats"` // массив или "A1,A2"
	VehicleID           domain.LooseString `json:"vehicleId"`
	VehicleName         string             `json:"vehiclename"`
	VehicleRegistration string             `json:"vehiclereg"`
	Price               domain.LooseString `json:"price"`
	TripDate            string             `json:"tripdate"`
	DepartureTime       string             `json:"leavesAt"`
	From                string             `json:"from"`
	To                  string             `json:"to"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *RequestPaymentRequest) ToUseCaseRequest() *requestPayment.Request {
	return &requestPayment.Request{
		MerchantCode:        string(r.MerchantCode),
		NetworkCode:         string(r.NetworkCode),
		PhoneNumber:         string(r.PhoneNumber),
		TransactionDesc:     r.TransactionDesc,
		AccountReference:    string(r.AccountReference),
		Currency:            r.Currency,
		Amount:              r.Amount,
		CallBackURL:         r.CallBackURL,
		UserID:              string(r.UserID),
		Seats:               r.Seats,
		VehicleID:           string(r.VehicleID),
		VehicleName:         r.VehicleName,
		VehicleRegistration: r.VehicleRegistration,
		Price:               string(r.Price),
		TripDate:            r.TripDate,
		DepartureTime:       r.DepartureTime,
		From:                r.From,
		To:                  r.To,
	}
}
