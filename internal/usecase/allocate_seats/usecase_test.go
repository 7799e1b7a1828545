package allocate_seats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
	memstore "github.com/m04kA/SMC-TripBookingService/internal/testutil"
	"github.com/m04kA/SMC-TripBookingService/pkg/logger"
	"github.com/m04kA/SMC-TripBookingService/pkg/ptr"
)

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingMetrics) IncSeatAllocation(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[result]++
}

func (c *countingMetrics) count(result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[result]
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

var bookingTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newUseCase(store *memstore.MemStore, m Metrics) *UseCase {
	uc := NewUseCase(store, store, m, logger.NewDiscard())
	uc.timeProvider = fixedTime{t: bookingTime}
	return uc
}

func request(userID string, seats ...string) *Request {
	return &Request{
		UserID:        userID,
		VehicleID:     "KDA-001",
		Seats:         seats,
		VehicleName:   "Shuttle",
		Price:         "1500",
		TripDate:      "2025-03-20",
		DepartureTime: "08:00",
		From:          "Nairobi",
		To:            "Mombasa",
	}
}

func TestExecute_AllocatesFreeSeats(t *testing.T) {
	store := memstore.NewMemStore()
	uc := newUseCase(store, nil)

	req := request("u1", "A1", "A2")
	req.PaymentStatus = domain.PaymentSuccess
	req.SourceTransactionID = ptr.Ptr("TX-1")

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, domain.SeatList{"A1", "A2"}, resp.Seats)
	assert.Equal(t, domain.PaymentSuccess, resp.PaymentStatus)
	assert.Equal(t, bookingTime, resp.BookingDate)
	assert.Equal(t, "TX-1", ptr.Deref(resp.SourceTransactionID, ""))

	finalized := store.Finalized()
	require.Len(t, finalized, 1)
	assert.Nil(t, finalized[0].TransactionID)
	assert.Equal(t, 1, store.LockCalls())
}

func TestExecute_DefaultsToPendingStatus(t *testing.T) {
	store := memstore.NewMemStore()
	uc := newUseCase(store, nil)

	resp, err := uc.Execute(context.Background(), request("u1", "B1"))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, resp.PaymentStatus)
}

func TestExecute_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		seats   []string
		wantErr error
	}{
		{name: "other user holds seat", userID: "u2", seats: []string{"A2", "A3"}, wantErr: ErrSeatAlreadyBooked},
		{name: "same user repeats seat", userID: "u1", seats: []string{"A1"}, wantErr: ErrDuplicateUserBooking},
		{name: "own seat wins over foreign", userID: "u1", seats: []string{"C1", "A2"}, wantErr: ErrDuplicateUserBooking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.NewMemStore()
			uc := newUseCase(store, nil)

			_, err := uc.Execute(context.Background(), request("u1", "A1", "A2"))
			require.NoError(t, err)
			_, err = uc.Execute(context.Background(), request("u3", "C1"))
			require.NoError(t, err)

			_, err = uc.Execute(context.Background(), request(tt.userID, tt.seats...))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, store.Finalized(), 2)
		})
	}
}

func TestExecute_PendingRecordsDoNotHoldSeats(t *testing.T) {
	store := memstore.NewMemStore()
	uc := newUseCase(store, nil)

	_, err := store.CreatePending(context.Background(), &domain.Booking{
		UserID:        "u2",
		VehicleID:     "KDA-001",
		Seats:         domain.SeatList{"A1"},
		TransactionID: ptr.Ptr("TX-P"),
		BookingDate:   bookingTime,
	})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), request("u1", "A1"))
	require.NoError(t, err)
}

func TestExecute_OtherVehicleIsIndependent(t *testing.T) {
	store := memstore.NewMemStore()
	uc := newUseCase(store, nil)

	_, err := uc.Execute(context.Background(), request("u1", "A1"))
	require.NoError(t, err)

	req := request("u2", "A1")
	req.VehicleID = "KDB-002"
	_, err = uc.Execute(context.Background(), req)
	require.NoError(t, err)
}

func TestExecute_AlreadyFinalized(t *testing.T) {
	store := memstore.NewMemStore()
	uc := newUseCase(store, nil)

	first := request("u1", "A1")
	first.SourceTransactionID = ptr.Ptr("TX-1")
	_, err := uc.Execute(context.Background(), first)
	require.NoError(t, err)

	second := request("u1", "B1")
	second.SourceTransactionID = ptr.Ptr("TX-1")
	_, err = uc.Execute(context.Background(), second)
	require.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.Len(t, store.Finalized(), 1)
}

func TestExecute_InvalidInput(t *testing.T) {
	uc := newUseCase(memstore.NewMemStore(), nil)

	tests := []struct {
		name string
		req  *Request
	}{
		{name: "nil request", req: nil},
		{name: "no vehicle", req: &Request{UserID: "u1", Seats: domain.SeatList{"A1"}}},
		{name: "no user", req: &Request{VehicleID: "V1", Seats: domain.SeatList{"A1"}}},
		{name: "no seats", req: &Request{UserID: "u1", VehicleID: "V1"}},
		{name: "empty label", req: &Request{UserID: "u1", VehicleID: "V1", Seats: domain.SeatList{"A1", ""}}},
		{name: "duplicate seat", req: &Request{UserID: "u1", VehicleID: "V1", Seats: domain.SeatList{"A1", "A1"}}},
		{name: "bad status", req: &Request{UserID: "u1", VehicleID: "V1", Seats: domain.SeatList{"A1"}, PaymentStatus: "refunded"}},
		{name: "blank source tx", req: &Request{UserID: "u1", VehicleID: "V1", Seats: domain.SeatList{"A1"}, SourceTransactionID: ptr.Ptr(" ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestExecute_ConcurrentOverlappingRequests(t *testing.T) {
	store := memstore.NewMemStore()
	m := &countingMetrics{}
	uc := newUseCase(store, m)

	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			_, err := uc.Execute(context.Background(), request(fmt.Sprintf("user-%d", i), "A1", fmt.Sprintf("B%d", i)))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSeatAlreadyBooked):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, store.Finalized(), 1)

	assert.Equal(t, 1, m.count(resultAllocated))
	assert.Equal(t, workers-1, m.count(resultSeatConflict))
}

func TestCheck(t *testing.T) {
	store := memstore.NewMemStore()
	uc := newUseCase(store, nil)

	_, err := uc.Execute(context.Background(), request("u1", "A1"))
	require.NoError(t, err)

	assert.NoError(t, uc.Check(context.Background(), "KDA-001", domain.SeatList{"A2"}, "u2"))
	assert.ErrorIs(t, uc.Check(context.Background(), "KDA-001", domain.SeatList{"A1"}, "u2"), ErrSeatAlreadyBooked)
	assert.ErrorIs(t, uc.Check(context.Background(), "KDA-001", domain.SeatList{"A1"}, "u1"), ErrDuplicateUserBooking)
	assert.ErrorIs(t, uc.Check(context.Background(), "KDA-001", nil, "u1"), ErrInvalidInput)

	// Check ничего не записывает
	assert.Len(t, store.All(), 1)
}

type repoMock struct {
	mock.Mock
}

func (m *repoMock) LockVehicle(ctx context.Context, vehicleID string) error {
	return m.Called(ctx, vehicleID).Error(0)
}

func (m *repoMock) GetFinalizedByVehicle(ctx context.Context, vehicleID string) ([]*domain.Booking, error) {
	args := m.Called(ctx, vehicleID)
	bookings, _ := args.Get(0).([]*domain.Booking)
	return bookings, args.Error(1)
}

func (m *repoMock) CreateFinalized(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, b)
	created, _ := args.Get(0).(*domain.Booking)
	return created, args.Error(1)
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestExecute_RepositoryErrors(t *testing.T) {
	errDB := errors.New("connection refused")

	tests := []struct {
		name    string
		setup   func(r *repoMock)
		wantErr error
	}{
		{
			name: "lock fails",
			setup: func(r *repoMock) {
				r.On("LockVehicle", mock.Anything, "KDA-001").Return(errDB)
			},
			wantErr: ErrInternal,
		},
		{
			name: "read fails",
			setup: func(r *repoMock) {
				r.On("LockVehicle", mock.Anything, "KDA-001").Return(nil)
				r.On("GetFinalizedByVehicle", mock.Anything, "KDA-001").Return(nil, errDB)
			},
			wantErr: ErrInternal,
		},
		{
			name: "unique violation on seats",
			setup: func(r *repoMock) {
				r.On("LockVehicle", mock.Anything, "KDA-001").Return(nil)
				r.On("GetFinalizedByVehicle", mock.Anything, "KDA-001").Return([]*domain.Booking{}, nil)
				r.On("CreateFinalized", mock.Anything, mock.Anything).Return(nil, bookingRepo.ErrSeatConflict)
			},
			wantErr: ErrSeatAlreadyBooked,
		},
		{
			name: "insert fails",
			setup: func(r *repoMock) {
				r.On("LockVehicle", mock.Anything, "KDA-001").Return(nil)
				r.On("GetFinalizedByVehicle", mock.Anything, "KDA-001").Return([]*domain.Booking{}, nil)
				r.On("CreateFinalized", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: %w", bookingRepo.ErrExecQuery, errDB))
			},
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &repoMock{}
			tt.setup(repo)

			uc := NewUseCase(repo, passthroughTx{}, nil, logger.NewDiscard())
			_, err := uc.Execute(context.Background(), request("u1", "A1"))

			require.ErrorIs(t, err, tt.wantErr)
			repo.AssertExpectations(t)
		})
	}
}
