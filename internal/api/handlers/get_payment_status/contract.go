package get_payment_status

import (
	"context"

	"github.com/m04kA/SMC-TripBookingService/internal/service/bookings/models"
)

type BookingService interface {
	GetPaymentStatus(ctx context.Context, transactionID string) (*models.PaymentStatusResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
