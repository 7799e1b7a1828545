package allocate_seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TripBookingService/pkg/metrics"
	"github.com/m04kA/SMC-TripBookingService/pkg/ptr"
)

// UseCase аллокатор мест: финализирует бронирование, если запрошенные места свободны
type UseCase struct {
	bookingRepo  BookingRepository
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	m Metrics,
	logger Logger,
) *UseCase {
	if m == nil {
		m = (*metrics.Metrics)(nil)
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		metrics:      m,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute проверяет конфликты и создаёт финализированное бронирование.
// Всё выполняется в одной транзакции под advisory-блокировкой транспорта: блокировка берётся
// первым запросом, и чтение броней после неё видит всё, что зафиксировал предыдущий владелец.
// Первичный ключ booked_seats отсекает пересечение, если блокировку кто-то обошёл.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("AllocateSeats: validation failed: %v", err)
		uc.metrics.IncSeatAllocation(resultInvalid)
		return nil, err
	}

	uc.logger.Info("AllocateSeats: user=%s, vehicle=%s, seats=%s, source_tx=%s",
		req.UserID, req.VehicleID, req.Seats, ptr.Deref(req.SourceTransactionID, "-"))

	var result *domain.Booking

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Блокируем транспорт до конца транзакции
		if err := uc.bookingRepo.LockVehicle(txCtx, req.VehicleID); err != nil {
			return fmt.Errorf("%w: lock vehicle: %w", ErrInternal, err)
		}

		// 2. Читаем финализированные брони транспорта
		existing, err := uc.bookingRepo.GetFinalizedByVehicle(txCtx, req.VehicleID)
		if err != nil {
			return fmt.Errorf("%w: get bookings: %w", ErrInternal, err)
		}

		// 3. Проверяем конфликты мест
		if err := checkSeatConflicts(req.Seats, req.UserID, existing); err != nil {
			return err
		}

		// 4. Создаём бронь вместе со строками booked_seats
		created, err := uc.bookingRepo.CreateFinalized(txCtx, uc.newBooking(req))
		if err != nil {
			switch {
			case errors.Is(err, bookingRepo.ErrSeatConflict):
				return fmt.Errorf("%w: %v", ErrSeatAlreadyBooked, err)
			case errors.Is(err, bookingRepo.ErrAlreadyFinalized):
				return fmt.Errorf("%w: %v", ErrAlreadyFinalized, err)
			default:
				return fmt.Errorf("%w: create booking: %w", ErrInternal, err)
			}
		}

		result = created
		return nil
	})

	if err != nil {
		uc.observeFailure(req, err)
		return nil, err
	}

	uc.metrics.IncSeatAllocation(resultAllocated)
	uc.logger.Info("AllocateSeats: created booking id=%d for user=%s, vehicle=%s, seats=%s",
		result.ID, result.UserID, result.VehicleID, result.Seats)

	return &Response{
		ID:                  result.ID,
		UserID:              result.UserID,
		VehicleID:           result.VehicleID,
		Seats:               result.Seats,
		PaymentStatus:       result.PaymentStatus,
		SourceTransactionID: result.SourceTransactionID,
		BookingDate:         result.BookingDate,
		CreatedAt:           result.CreatedAt,
	}, nil
}

// Check необязывающая проверка доступности мест без записи.
// Результат может устареть к моменту Execute, окончательное решение принимает Execute.
func (uc *UseCase) Check(ctx context.Context, vehicleID string, seats domain.SeatList, userID string) error {
	if err := validateTarget(vehicleID, seats, userID); err != nil {
		return err
	}

	existing, err := uc.bookingRepo.GetFinalizedByVehicle(ctx, vehicleID)
	if err != nil {
		uc.logger.Error("CheckSeats: failed to get bookings for vehicle=%s: %v", vehicleID, err)
		return fmt.Errorf("%w: get bookings: %w", ErrInternal, err)
	}

	return checkSeatConflicts(seats, userID, existing)
}

func (uc *UseCase) newBooking(req *Request) *domain.Booking {
	status := req.PaymentStatus
	if status == "" {
		status = domain.PaymentPending
	}

	return &domain.Booking{
		UserID:              req.UserID,
		Seats:               req.Seats,
		VehicleID:           req.VehicleID,
		VehicleName:         req.VehicleName,
		VehicleRegistration: req.VehicleRegistration,
		Price:               req.Price,
		TripDate:            req.TripDate,
		DepartureTime:       req.DepartureTime,
		From:                req.From,
		To:                  req.To,
		BookingDate:         uc.timeProvider.Now(),
		PaymentStatus:       status,
		SourceTransactionID: req.SourceTransactionID,
	}
}

func (uc *UseCase) observeFailure(req *Request, err error) {
	switch {
	case errors.Is(err, ErrDuplicateUserBooking):
		uc.metrics.IncSeatAllocation(resultDuplicateUser)
		uc.logger.Warn("AllocateSeats: user=%s already holds seats on vehicle=%s: %v", req.UserID, req.VehicleID, err)
	case errors.Is(err, ErrSeatAlreadyBooked):
		uc.metrics.IncSeatAllocation(resultSeatConflict)
		uc.logger.Warn("AllocateSeats: seats taken on vehicle=%s: %v", req.VehicleID, err)
	case errors.Is(err, ErrAlreadyFinalized):
		uc.metrics.IncSeatAllocation(resultAlreadyFinalized)
		uc.logger.Warn("AllocateSeats: payment %s already finalized", ptr.Deref(req.SourceTransactionID, "-"))
	default:
		uc.metrics.IncSeatAllocation(resultError)
		uc.logger.Error("AllocateSeats: failed for user=%s, vehicle=%s: %v", req.UserID, req.VehicleID, err)
	}
}
