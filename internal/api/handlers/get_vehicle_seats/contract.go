package get_vehicle_seats

import (
	"context"

	"github.com/m04kA/SMC-TripBookingService/internal/service/bookings/models"
)

type BookingService interface {
	GetVehicleSeats(ctx context.Context, vehicleID string) (*models.VehicleSeatsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
