package reconcile_payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	"github.com/m04kA/SMC-TripBookingService/internal/infra/cache/claim"
	"github.com/m04kA/SMC-TripBookingService/internal/integrations/gateway"
	memstore "github.com/m04kA/SMC-TripBookingService/internal/testutil"
	"github.com/m04kA/SMC-TripBookingService/internal/usecase/allocate_seats"
	"github.com/m04kA/SMC-TripBookingService/internal/usecase/request_payment"
	"github.com/m04kA/SMC-TripBookingService/pkg/logger"
	"github.com/m04kA/SMC-TripBookingService/pkg/ptr"
)

type outcomeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *outcomeCounter) IncPaymentCallback(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[outcome]++
}

func (c *outcomeCounter) count(outcome Outcome) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[string(outcome)]
}

type acceptingGateway struct{}

func (acceptingGateway) RequestPayment(context.Context, *gateway.PaymentRequest) (*gateway.PaymentResponse, error) {
	return &gateway.PaymentResponse{StatusCode: 200, Body: []byte(`{"status":true}`)}, nil
}

type fixture struct {
	store     *memstore.MemStore
	allocator *allocate_seats.UseCase
	metrics   *outcomeCounter
	uc        *UseCase
}

func newFixture() *fixture {
	store := memstore.NewMemStore()
	log := logger.NewDiscard()
	allocator := allocate_seats.NewUseCase(store, store, nil, log)
	m := &outcomeCounter{}

	return &fixture{
		store:     store,
		allocator: allocator,
		metrics:   m,
		uc:        NewUseCase(store, allocator, store, m, log),
	}
}

func snapshot(txID, userID string, seats ...string) *domain.TripSnapshot {
	return &domain.TripSnapshot{
		UserID:        userID,
		Seats:         seats,
		VehicleID:     "V1",
		VehicleName:   "Shuttle",
		Price:         "1500",
		TripDate:      "2025-03-20",
		DepartureTime: "08:00",
		From:          "Nairobi",
		To:            "Mombasa",
		TransactionID: txID,
	}
}

// pending создаёт pending запись и возвращает закодированный снимок для callback
func (f *fixture) pending(t *testing.T, s *domain.TripSnapshot) string {
	t.Helper()

	b := s.ToBooking(time.Now())
	b.TransactionID = ptr.Ptr(s.TransactionID)
	_, err := f.store.CreatePending(context.Background(), b)
	require.NoError(t, err)

	encoded, err := domain.EncodeSnapshot(s)
	require.NoError(t, err)
	return encoded
}

func (f *fixture) status(t *testing.T, txID string) domain.PaymentStatus {
	t.Helper()
	b, err := f.store.GetByTransactionID(context.Background(), txID)
	require.NoError(t, err)
	return b.PaymentStatus
}

func TestExecute_SuccessFinalizes(t *testing.T) {
	f := newFixture()
	data := f.pending(t, snapshot("TX1", "u1", "A1", "A2"))

	resp := f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "0"})

	assert.Equal(t, OutcomeFinalized, resp.Outcome)
	assert.Equal(t, "TX1", resp.TransactionID)
	assert.NotZero(t, resp.BookingID)
	assert.Equal(t, domain.PaymentSuccess, f.status(t, "TX1"))

	finalized := f.store.Finalized()
	require.Len(t, finalized, 1)
	assert.Equal(t, domain.SeatList{"A1", "A2"}, finalized[0].Seats)
	assert.Equal(t, domain.PaymentSuccess, finalized[0].PaymentStatus)
	assert.Equal(t, "TX1", ptr.Deref(finalized[0].SourceTransactionID, ""))
}

func TestExecute_RedeliveryIsIdempotent(t *testing.T) {
	f := newFixture()
	data := f.pending(t, snapshot("TX1", "u1", "A1"))
	req := &Request{BookingData: data, ResultCode: "0"}

	first := f.uc.Execute(context.Background(), req)
	second := f.uc.Execute(context.Background(), req)

	assert.Equal(t, OutcomeFinalized, first.Outcome)
	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Len(t, f.store.Finalized(), 1)
	assert.Equal(t, 1, f.metrics.count(OutcomeFinalized))
	assert.Equal(t, 1, f.metrics.count(OutcomeDuplicate))

	// Поздний failure после success статус не меняет
	late := f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "1"})
	assert.Equal(t, OutcomeDuplicate, late.Outcome)
	assert.Equal(t, domain.PaymentSuccess, f.status(t, "TX1"))
}

func TestExecute_ConcurrentRedelivery(t *testing.T) {
	f := newFixture()
	data := f.pending(t, snapshot("TX1", "u1", "A1"))

	const deliveries = 8
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "0"})
		}()
	}
	wg.Wait()

	assert.Len(t, f.store.Finalized(), 1)
	assert.Equal(t, 1, f.metrics.count(OutcomeFinalized))
	assert.Equal(t, deliveries-1, f.metrics.count(OutcomeDuplicate))
}

func TestExecute_FailureMarksFailed(t *testing.T) {
	f := newFixture()
	data := f.pending(t, snapshot("TX1", "u1", "A1", "A2"))

	resp := f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "1"})

	assert.Equal(t, OutcomeFailed, resp.Outcome)
	assert.Equal(t, domain.PaymentFailed, resp.PaymentStatus)
	assert.Equal(t, domain.PaymentFailed, f.status(t, "TX1"))
	assert.Empty(t, f.store.Finalized())
}

func TestExecute_UnreadableResultLeavesPending(t *testing.T) {
	f := newFixture()
	data := f.pending(t, snapshot("TX1", "u1", "A1", "A2"))

	resp := f.uc.Execute(context.Background(), &Request{BookingData: data, ResultUnreadable: true})

	assert.Equal(t, OutcomeUnreadableResult, resp.Outcome)
	assert.Equal(t, "TX1", resp.TransactionID)
	assert.Equal(t, domain.PaymentPending, f.status(t, "TX1"))
	assert.Empty(t, f.store.Finalized())

	// валидная повторная доставка всё ещё финализирует бронь
	resp = f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "0"})
	assert.Equal(t, OutcomeFinalized, resp.Outcome)
	assert.Equal(t, domain.PaymentSuccess, f.status(t, "TX1"))
	assert.Len(t, f.store.Finalized(), 1)
	assert.Equal(t, 1, f.metrics.count(OutcomeUnreadableResult))
}

func TestExecute_PaidThenSeatsRejectedForNextPayment(t *testing.T) {
	f := newFixture()
	log := logger.NewDiscard()
	initiator := request_payment.NewUseCase(f.store, f.allocator, acceptingGateway{}, claim.NewLocal(time.Minute), log)

	payment := func(txID, userID string, seats ...string) *request_payment.Request {
		return &request_payment.Request{
			PhoneNumber:      "254700000000",
			AccountReference: txID,
			Currency:         "KES",
			Amount:           decimal.NewFromInt(1500),
			CallBackURL:      "https://api.example.com/c2b-callback-results",
			UserID:           userID,
			Seats:            seats,
			VehicleID:        "V1",
		}
	}

	_, err := initiator.Execute(context.Background(), payment("TX1", "u1", "A1", "A2"))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, f.status(t, "TX1"))

	encoded, err := domain.EncodeSnapshot(snapshot("TX1", "u1", "A1", "A2"))
	require.NoError(t, err)
	resp := f.uc.Execute(context.Background(), &Request{BookingData: encoded, ResultCode: "0"})
	require.Equal(t, OutcomeFinalized, resp.Outcome)

	_, err = initiator.Execute(context.Background(), payment("TX2", "u2", "A2", "A3"))
	require.ErrorIs(t, err, request_payment.ErrSeatAlreadyBooked)
	assert.Contains(t, err.Error(), "A2")

	_, err = f.store.GetByTransactionID(context.Background(), "TX2")
	assert.Error(t, err)
}

func TestExecute_LateConflictKeepsPaymentSuccess(t *testing.T) {
	f := newFixture()

	_, err := f.allocator.Execute(context.Background(), &allocate_seats.Request{
		UserID: "u9", VehicleID: "V1", Seats: domain.SeatList{"A2"},
	})
	require.NoError(t, err)

	data := f.pending(t, snapshot("TX1", "u1", "A1", "A2"))
	resp := f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "0"})

	assert.Equal(t, OutcomeAllocationConflict, resp.Outcome)
	assert.Equal(t, domain.PaymentSuccess, f.status(t, "TX1"))
	assert.Len(t, f.store.Finalized(), 1)
}

func TestExecute_BadPayloads(t *testing.T) {
	f := newFixture()

	noTx, err := domain.EncodeSnapshot(snapshot("", "u1", "A1"))
	require.NoError(t, err)
	unknown, err := domain.EncodeSnapshot(snapshot("TX-404", "u1", "A1"))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *Request
		want Outcome
	}{
		{name: "empty", req: &Request{ResultCode: "0"}, want: OutcomeDecodeError},
		{name: "not json", req: &Request{BookingData: "%7Bbroken", ResultCode: "0"}, want: OutcomeDecodeError},
		{name: "bad escape", req: &Request{BookingData: "%zz", ResultCode: "0"}, want: OutcomeDecodeError},
		{name: "no transaction", req: &Request{BookingData: noTx, ResultCode: "0"}, want: OutcomeMissingTransaction},
		{name: "unknown transaction", req: &Request{BookingData: unknown, ResultCode: "0"}, want: OutcomeUnknownTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.uc.Execute(context.Background(), tt.req)
			assert.Equal(t, tt.want, resp.Outcome)
		})
	}

	assert.Empty(t, f.store.All())
}

type failingAllocator struct{}

func (failingAllocator) Execute(context.Context, *allocate_seats.Request) (*allocate_seats.Response, error) {
	return nil, errors.Join(allocate_seats.ErrInternal, errors.New("connection reset"))
}

func TestExecute_AllocationErrorRollsBackTransition(t *testing.T) {
	f := newFixture()
	f.uc = NewUseCase(f.store, failingAllocator{}, f.store, f.metrics, logger.NewDiscard())
	data := f.pending(t, snapshot("TX1", "u1", "A1"))

	resp := f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "0"})

	assert.Equal(t, OutcomeAllocationError, resp.Outcome)
	assert.Equal(t, domain.PaymentPending, f.status(t, "TX1"))

	// Повторная доставка после восстановления аллокатора доводит дело до конца
	f.uc = NewUseCase(f.store, f.allocator, f.store, f.metrics, logger.NewDiscard())
	resp = f.uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "0"})
	assert.Equal(t, OutcomeFinalized, resp.Outcome)
}

type brokenStore struct {
	*memstore.MemStore
}

func (brokenStore) TransitionPaymentStatus(context.Context, string, domain.PaymentStatus, domain.PaymentStatus) (bool, error) {
	return false, errors.New("connection refused")
}

func TestExecute_StoreError(t *testing.T) {
	f := newFixture()
	data := f.pending(t, snapshot("TX1", "u1", "A1"))

	uc := NewUseCase(brokenStore{f.store}, f.allocator, f.store, nil, logger.NewDiscard())
	resp := uc.Execute(context.Background(), &Request{BookingData: data, ResultCode: "0"})

	assert.Equal(t, OutcomeStoreError, resp.Outcome)
	assert.Empty(t, f.store.Finalized())
}
