package payment_callback

import (
	"context"

	reconcilePayment "github.com/m04kA/SMC-TripBookingService/internal/usecase/reconcile_payment"
)

type ReconcileUseCase interface {
	Execute(ctx context.Context, req *reconcilePayment.Request) *reconcilePayment.Response
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}
