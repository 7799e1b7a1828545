// Package testutil содержит in-memory хранилище бронирований для тестов usecase.
// Ограничения уникальности повторяют SQL схему: (vehicle_id, seat_label),
// transaction_id и source_transaction_id.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
)

type seatKey struct {
	vehicleID string
	label     string
}

type txKey struct{}

// MemStore реализует контракты репозитория бронирований и менеджера транзакций.
// Do выполняет транзакции строго по одной и откатывает изменения при ошибке.
type MemStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	nextID   int64
	bookings []*domain.Booking
	seats    map[seatKey]int64

	lockCalls int
}

func NewMemStore() *MemStore {
	return &MemStore{seats: make(map[seatKey]int64)}
}

// Do вложенные вызовы переиспользуют внешнюю "транзакцию"
func (s *MemStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// DoReadOnly читает под тем же мьютексом, что и Do, поэтому видит согласованное состояние
func (s *MemStore) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *MemStore) LockVehicle(ctx context.Context, vehicleID string) error {
	if ctx.Value(txKey{}) == nil {
		return bookingRepo.ErrTransaction
	}
	s.mu.Lock()
	s.lockCalls++
	s.mu.Unlock()
	return nil
}

func (s *MemStore) CreatePending(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.TransactionID != nil {
		for _, existing := range s.bookings {
			if existing.TransactionID != nil && *existing.TransactionID == *b.TransactionID {
				return nil, bookingRepo.ErrDuplicateTransaction
			}
		}
	}

	b.PaymentStatus = domain.PaymentPending
	b.Finalized = false
	b.SourceTransactionID = nil
	return s.insert(b), nil
}

func (s *MemStore) CreateFinalized(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, label := range b.Seats {
		if _, taken := s.seats[seatKey{b.VehicleID, label}]; taken {
			return nil, bookingRepo.ErrSeatConflict
		}
	}
	if b.SourceTransactionID != nil {
		for _, existing := range s.bookings {
			if existing.SourceTransactionID != nil && *existing.SourceTransactionID == *b.SourceTransactionID {
				return nil, bookingRepo.ErrAlreadyFinalized
			}
		}
	}

	b.Finalized = true
	b.TransactionID = nil
	created := s.insert(b)
	for _, label := range b.Seats {
		s.seats[seatKey{b.VehicleID, label}] = created.ID
	}
	return created, nil
}

func (s *MemStore) GetFinalizedByVehicle(_ context.Context, vehicleID string) ([]*domain.Booking, error) {
	return s.filter(func(b *domain.Booking) bool {
		return b.Finalized && b.VehicleID == vehicleID
	}), nil
}

func (s *MemStore) GetBookedSeats(_ context.Context, vehicleID string) ([]string, error) {
	var seats []string
	for _, b := range s.filter(func(b *domain.Booking) bool {
		return b.Finalized && b.VehicleID == vehicleID
	}) {
		seats = append(seats, b.Seats...)
	}
	return seats, nil
}

func (s *MemStore) GetByTransactionID(_ context.Context, transactionID string) (*domain.Booking, error) {
	found := s.filter(func(b *domain.Booking) bool {
		return b.TransactionID != nil && *b.TransactionID == transactionID
	})
	if len(found) == 0 {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return found[0], nil
}

func (s *MemStore) GetBySourceTransactionID(_ context.Context, transactionID string) (*domain.Booking, error) {
	found := s.filter(func(b *domain.Booking) bool {
		return b.SourceTransactionID != nil && *b.SourceTransactionID == transactionID
	})
	if len(found) == 0 {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return found[0], nil
}

func (s *MemStore) TransitionPaymentStatus(_ context.Context, transactionID string, from, to domain.PaymentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if !b.Finalized && b.TransactionID != nil && *b.TransactionID == transactionID && b.PaymentStatus == from {
			b.PaymentStatus = to
			b.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) GetByUserID(_ context.Context, userID string, status *domain.PaymentStatus) ([]*domain.Booking, error) {
	return s.filter(func(b *domain.Booking) bool {
		return b.UserID == userID && (status == nil || b.PaymentStatus == *status)
	}), nil
}

// All возвращает копии всех записей в порядке создания
func (s *MemStore) All() []*domain.Booking {
	return s.filter(func(*domain.Booking) bool { return true })
}

// Finalized возвращает финализированные брони
func (s *MemStore) Finalized() []*domain.Booking {
	return s.filter(func(b *domain.Booking) bool { return b.Finalized })
}

// LockCalls сколько раз бралась блокировка транспорта
func (s *MemStore) LockCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockCalls
}

func (s *MemStore) insert(b *domain.Booking) *domain.Booking {
	s.nextID++
	now := time.Now()

	stored := copyBooking(b)
	stored.ID = s.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.bookings = append(s.bookings, stored)

	return copyBooking(stored)
}

func (s *MemStore) filter(keep func(*domain.Booking) bool) []*domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, copyBooking(b))
		}
	}
	return out
}

type memSnapshot struct {
	nextID   int64
	bookings []*domain.Booking
	seats    map[seatKey]int64
}

func (s *MemStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		nextID:   s.nextID,
		bookings: make([]*domain.Booking, 0, len(s.bookings)),
		seats:    make(map[seatKey]int64, len(s.seats)),
	}
	for _, b := range s.bookings {
		snap.bookings = append(snap.bookings, copyBooking(b))
	}
	for k, v := range s.seats {
		snap.seats[k] = v
	}
	return snap
}

func (s *MemStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = snap.nextID
	s.bookings = snap.bookings
	s.seats = snap.seats
}

func copyBooking(b *domain.Booking) *domain.Booking {
	c := *b
	c.Seats = append(domain.SeatList(nil), b.Seats...)
	if b.TransactionID != nil {
		v := *b.TransactionID
		c.TransactionID = &v
	}
	if b.SourceTransactionID != nil {
		v := *b.SourceTransactionID
		c.SourceTransactionID = &v
	}
	return &c
}
