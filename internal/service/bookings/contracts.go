package bookings

import (
	"context"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Booking, error)
	GetBySourceTransactionID(ctx context.Context, transactionID string) (*domain.Booking, error)
	GetBookedSeats(ctx context.Context, vehicleID string) ([]string, error)
	GetByUserID(ctx context.Context, userID string, status *domain.PaymentStatus) ([]*domain.Booking, error)
}

// TransactionManager интерфейс для работы с транзакциями
type TransactionManager interface {
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
