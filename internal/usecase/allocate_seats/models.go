package allocate_seats

import (
	"time"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
)

// Request запрос на финализацию бронирования мест
type Request struct {
	UserID    string
	VehicleID string
	Seats     domain.SeatList

	// Денормализованные данные рейса
	VehicleName         string
	VehicleRegistration string
	Price               string
	TripDate            string
	DepartureTime       string
	From                string
	To                  string

	PaymentStatus       domain.PaymentStatus // пустой = pending
	SourceTransactionID *string              // платёж, по которому создаётся бронь
}

// Response созданное финализированное бронирование
type Response struct {
	ID                  int64
	UserID              string
	VehicleID           string
	Seats               domain.SeatList
	PaymentStatus       domain.PaymentStatus
	SourceTransactionID *string
	BookingDate         time.Time
	CreatedAt           time.Time
}

// Результаты аллокации для метрик
const (
	resultAllocated        = "allocated"
	resultSeatConflict     = "seat_conflict"
	resultDuplicateUser    = "duplicate_user"
	resultAlreadyFinalized = "already_finalized"
	resultInvalid          = "invalid"
	resultError            = "error"
)
