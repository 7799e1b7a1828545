package reconcile_payment

import (
	"context"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	"github.com/m04kA/SMC-TripBookingService/internal/usecase/allocate_seats"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	TransitionPaymentStatus(ctx context.Context, transactionID string, from, to domain.PaymentStatus) (bool, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Booking, error)
}

// SeatAllocator аллокатор мест (allocate_seats.UseCase)
type SeatAllocator interface {
	Execute(ctx context.Context, req *allocate_seats.Request) (*allocate_seats.Response, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счётчик исходов обработки callback
type Metrics interface {
	IncPaymentCallback(outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
