package gateway

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Config параметры подключения к шлюзу
type Config struct {
	TokenURL     string
	PaymentURL   string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	TokenTTL     time.Duration // используется, если шлюз не прислал expires_in
}

// PaymentRequest запрос на оплату. CallBackURL уже содержит bookingData.
type PaymentRequest struct {
	MerchantCode     string
	NetworkCode      string
	PhoneNumber      string
	TransactionDesc  string
	AccountReference string
	Currency         string
	Amount           decimal.Decimal
	CallBackURL      string
}

// PaymentResponse ответ шлюза, принявшего запрос
type PaymentResponse struct {
	StatusCode int
	Body       []byte
}

// paymentPayload тело POST на payment endpoint. Amount уходит числом, а не строкой.
type paymentPayload struct {
	MerchantCode     string      `json:"MerchantCode"`
	NetworkCode      string      `json:"NetworkCode"`
	PhoneNumber      string      `json:"PhoneNumber"`
	TransactionDesc  string      `json:"TransactionDesc"`
	AccountReference string      `json:"AccountReference"`
	Currency         string      `json:"Currency"`
	Amount           json.Number `json:"Amount"`
	CallBackURL      string      `json:"CallBackURL"`
}

func newPaymentPayload(req *PaymentRequest) paymentPayload {
	return paymentPayload{
		MerchantCode:     req.MerchantCode,
		NetworkCode:      req.NetworkCode,
		PhoneNumber:      req.PhoneNumber,
		TransactionDesc:  req.TransactionDesc,
		AccountReference: req.AccountReference,
		Currency:         req.Currency,
		Amount:           json.Number(req.Amount.String()),
		CallBackURL:      req.CallBackURL,
	}
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// paymentStatus шлюз может ответить 2xx, но с "status": false в теле
type paymentStatus struct {
	Status *bool `json:"status"`
}
