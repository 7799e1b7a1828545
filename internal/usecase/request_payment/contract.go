package request_payment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	"github.com/m04kA/SMC-TripBookingService/internal/integrations/gateway"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Booking, error)
	CreatePending(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// SeatChecker предварительная проверка мест (allocate_seats.UseCase.Check)
type SeatChecker interface {
	Check(ctx context.Context, vehicleID string, seats domain.SeatList, userID string) error
}

// PaymentGateway клиент платёжного шлюза
type PaymentGateway interface {
	RequestPayment(ctx context.Context, req *gateway.PaymentRequest) (*gateway.PaymentResponse, error)
}

// TransactionClaimer захват AccountReference на время обращения к шлюзу
type TransactionClaimer interface {
	Claim(ctx context.Context, transactionID string) (token string, ok bool, err error)
	Release(ctx context.Context, transactionID, token string) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
