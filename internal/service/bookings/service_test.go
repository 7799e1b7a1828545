package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	"github.com/m04kA/SMC-TripBookingService/internal/service/bookings/models"
	memstore "github.com/m04kA/SMC-TripBookingService/internal/testutil"
	"github.com/m04kA/SMC-TripBookingService/pkg/logger"
	"github.com/m04kA/SMC-TripBookingService/pkg/ptr"
)

func seed(t *testing.T) *memstore.MemStore {
	t.Helper()
	ctx := context.Background()
	store := memstore.NewMemStore()
	when := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	_, err := store.CreatePending(ctx, &domain.Booking{
		UserID: "u1", VehicleID: "V1", Seats: domain.SeatList{"A1", "A2"},
		BookingDate: when, TransactionID: ptr.Ptr("TX1"),
	})
	require.NoError(t, err)
	_, err = store.CreatePending(ctx, &domain.Booking{
		UserID: "u1", VehicleID: "V1", Seats: domain.SeatList{"B1"},
		BookingDate: when, TransactionID: ptr.Ptr("TX2"),
	})
	require.NoError(t, err)

	moved, err := store.TransitionPaymentStatus(ctx, "TX1", domain.PaymentPending, domain.PaymentSuccess)
	require.NoError(t, err)
	require.True(t, moved)

	_, err = store.CreateFinalized(ctx, &domain.Booking{
		UserID: "u1", VehicleID: "V1", Seats: domain.SeatList{"A1", "A2"},
		BookingDate: when, PaymentStatus: domain.PaymentSuccess, SourceTransactionID: ptr.Ptr("TX1"),
	})
	require.NoError(t, err)

	return store
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := seed(t)
	return NewService(store, store, logger.NewDiscard())
}

func TestGetPaymentStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	paid, err := svc.GetPaymentStatus(ctx, "TX1")
	require.NoError(t, err)
	assert.Equal(t, "success", paid.PaymentStatus)
	require.NotNil(t, paid.FinalizedBooking)
	assert.Equal(t, []string{"A1", "A2"}, paid.FinalizedBooking.Seats)
	assert.True(t, paid.FinalizedBooking.Finalized)

	waiting, err := svc.GetPaymentStatus(ctx, "TX2")
	require.NoError(t, err)
	assert.Equal(t, "pending", waiting.PaymentStatus)
	assert.Nil(t, waiting.FinalizedBooking)

	_, err = svc.GetPaymentStatus(ctx, "TX404")
	require.ErrorIs(t, err, ErrBookingNotFound)

	_, err = svc.GetPaymentStatus(ctx, " ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetVehicleSeats(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.GetVehicleSeats(context.Background(), "V1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, resp.BookedSeats)

	empty, err := svc.GetVehicleSeats(context.Background(), "V2")
	require.NoError(t, err)
	assert.NotNil(t, empty.BookedSeats)
	assert.Empty(t, empty.BookedSeats)
}

func TestGetUserBookings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	all, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, all.Bookings, 3)

	pending, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: "u1", Status: ptr.Ptr("pending")})
	require.NoError(t, err)
	require.Len(t, pending.Bookings, 1)
	assert.Equal(t, "TX2", *pending.Bookings[0].TransactionID)

	_, err = svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: "u1", Status: ptr.Ptr("refunded")})
	require.ErrorIs(t, err, ErrInvalidInput)

	none, err := svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none.Bookings)
	assert.Empty(t, none.Bookings)
}
