package domain

import (
	"fmt"
	"time"
)

// PaymentStatus статус оплаты бронирования
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// IsValid проверяет, что статус входит в допустимый набор
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	default:
		return false
	}
}

// IsTerminal true для статусов, из которых переходов больше нет
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// ParsePaymentStatus конвертирует строку в PaymentStatus
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, raw)
	}
	return status, nil
}

// Booking бронирование мест на рейс.
//
// Существует в двух видах:
//   - pending запись платежа (Finalized=false, TransactionID задан), мест не занимает;
//   - финализированная запись (Finalized=true), создаётся только через аллокатор мест
//     и держит места в booked_seats. SourceTransactionID указывает на платёж, из которого она появилась.
type Booking struct {
	ID     int64
	UserID string
	Seats  SeatList

	VehicleID           string
	VehicleName         string
	VehicleRegistration string
	Price               string
	TripDate            string
	DepartureTime       string
	From                string
	To                  string

	BookingDate time.Time

	TransactionID       *string
	PaymentStatus       PaymentStatus
	Finalized           bool
	SourceTransactionID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HoldsSeats true, если бронирование участвует в проверке конфликтов мест
func (b *Booking) HoldsSeats() bool {
	return b.Finalized
}
