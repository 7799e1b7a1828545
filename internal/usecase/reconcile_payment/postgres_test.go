package reconcile_payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TripBookingService/internal/testutil"
	"github.com/m04kA/SMC-TripBookingService/internal/usecase/allocate_seats"
	"github.com/m04kA/SMC-TripBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TripBookingService/pkg/logger"
	"github.com/m04kA/SMC-TripBookingService/pkg/ptr"
	"github.com/m04kA/SMC-TripBookingService/pkg/txmanager"
)

func TestPostgres_ConcurrentRedeliveryFinalizesOnce(t *testing.T) {
	db := dbmetrics.Wrap(testutil.NewTestDB(t), nil)
	repo := bookingRepo.NewRepository(db)
	txm := txmanager.NewTransactionManager(db)
	log := logger.NewDiscard()
	m := &outcomeCounter{}
	uc := NewUseCase(repo, allocate_seats.NewUseCase(repo, txm, nil, log), txm, m, log)
	ctx := context.Background()

	s := snapshot("TX1", "u1", "A1", "A2")
	pending := s.ToBooking(time.Now())
	pending.TransactionID = ptr.Ptr("TX1")
	_, err := repo.CreatePending(ctx, pending)
	require.NoError(t, err)

	data, err := domain.EncodeSnapshot(s)
	require.NoError(t, err)

	const deliveries = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			uc.Execute(ctx, &Request{BookingData: data, ResultCode: "0"})
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, m.count(OutcomeFinalized))
	assert.Equal(t, deliveries-1, m.count(OutcomeDuplicate))

	payment, err := repo.GetByTransactionID(ctx, "TX1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, payment.PaymentStatus)

	finalized, err := repo.GetFinalizedByVehicle(ctx, "V1")
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	assert.Equal(t, "TX1", ptr.Deref(finalized[0].SourceTransactionID, ""))

	seats, err := repo.GetBookedSeats(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, seats)
}

func TestPostgres_LateConflictKeepsPaymentAndFreesNothing(t *testing.T) {
	db := dbmetrics.Wrap(testutil.NewTestDB(t), nil)
	repo := bookingRepo.NewRepository(db)
	txm := txmanager.NewTransactionManager(db)
	log := logger.NewDiscard()
	allocator := allocate_seats.NewUseCase(repo, txm, nil, log)
	uc := NewUseCase(repo, allocator, txm, &outcomeCounter{}, log)
	ctx := context.Background()

	_, err := allocator.Execute(ctx, &allocate_seats.Request{
		UserID: "u2", VehicleID: "V1", Seats: domain.SeatList{"A2"}, PaymentStatus: domain.PaymentSuccess,
	})
	require.NoError(t, err)

	s := snapshot("TX1", "u1", "A1", "A2")
	pending := s.ToBooking(time.Now())
	pending.TransactionID = ptr.Ptr("TX1")
	_, err = repo.CreatePending(ctx, pending)
	require.NoError(t, err)

	data, err := domain.EncodeSnapshot(s)
	require.NoError(t, err)

	resp := uc.Execute(ctx, &Request{BookingData: data, ResultCode: "0"})
	assert.Equal(t, OutcomeAllocationConflict, resp.Outcome)

	payment, err := repo.GetByTransactionID(ctx, "TX1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, payment.PaymentStatus)

	seats, err := repo.GetBookedSeats(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, seats)
}
