package reconcile_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TripBookingService/internal/usecase/allocate_seats"
	"github.com/m04kA/SMC-TripBookingService/pkg/metrics"
	"github.com/m04kA/SMC-TripBookingService/pkg/ptr"
)

// errAllocation внутренняя ошибка аллокатора: транзакция откатывается вместе с переходом статуса,
// чтобы повторная доставка callback смогла попробовать ещё раз
var errAllocation = errors.New("reconcile_payment: allocation failed")

// UseCase сверяет pending бронирование с результатом оплаты
type UseCase struct {
	bookingRepo BookingRepository
	allocator   SeatAllocator
	txManager   TransactionManager
	metrics     Metrics
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	allocator SeatAllocator,
	txManager TransactionManager,
	m Metrics,
	logger Logger,
) *UseCase {
	if m == nil {
		m = (*metrics.Metrics)(nil)
	}
	return &UseCase{
		bookingRepo: bookingRepo,
		allocator:   allocator,
		txManager:   txManager,
		metrics:     m,
		logger:      logger,
	}
}

// Execute обрабатывает callback. Ошибок не возвращает: исход пишется в лог и метрики.
//
// Переход pending -> success|failed и аллокация мест выполняются в одной транзакции.
// Переход - compare-and-swap по payment_status, поэтому повторная доставка
// того же callback ничего не меняет и аллокатор вызывается не больше одного раза.
func (uc *UseCase) Execute(ctx context.Context, req *Request) *Response {
	resp := uc.reconcile(ctx, req)
	uc.metrics.IncPaymentCallback(string(resp.Outcome))
	return resp
}

func (uc *UseCase) reconcile(ctx context.Context, req *Request) *Response {
	snapshot, err := domain.DecodeSnapshot(req.BookingData)
	if err != nil {
		uc.logger.Error("ReconcilePayment: failed to decode %s: %v", domain.BookingDataParam, err)
		return &Response{Outcome: OutcomeDecodeError}
	}

	txID := snapshot.TransactionID
	if txID == "" {
		uc.logger.Error("ReconcilePayment: snapshot has no transactionId (user=%s, vehicle=%s)",
			snapshot.UserID, snapshot.VehicleID)
		return &Response{Outcome: OutcomeMissingTransaction}
	}

	// Без разобранного результата статус не трогаем: валидная повторная доставка решит судьбу платежа
	if req.ResultUnreadable {
		uc.logger.Error("ReconcilePayment: tx=%s callback body unreadable, booking left pending", txID)
		return &Response{Outcome: OutcomeUnreadableResult, TransactionID: txID, PaymentStatus: domain.PaymentPending}
	}

	status := req.ResultCode.PaymentStatus()
	resp := &Response{TransactionID: txID, PaymentStatus: status}

	uc.logger.Info("ReconcilePayment: tx=%s, resultCode=%q -> %s", txID, req.ResultCode, status)

	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// fn может выполниться повторно при deadlock
		resp.Outcome = ""
		resp.BookingID = 0

		// 1. pending -> success|failed
		moved, err := uc.bookingRepo.TransitionPaymentStatus(txCtx, txID, domain.PaymentPending, status)
		if err != nil {
			return fmt.Errorf("transition: %w", err)
		}

		if !moved {
			resp.Outcome, err = uc.classifyUnmoved(txCtx, txID)
			return err
		}

		if status == domain.PaymentFailed {
			resp.Outcome = OutcomeFailed
			return nil
		}

		// 2. Оплата прошла - занимаем места
		allocated, err := uc.allocator.Execute(txCtx, allocationRequest(snapshot, txID))
		switch {
		case err == nil:
			resp.Outcome = OutcomeFinalized
			resp.BookingID = allocated.ID
			return nil
		case errors.Is(err, allocate_seats.ErrSeatAlreadyBooked),
			errors.Is(err, allocate_seats.ErrDuplicateUserBooking),
			errors.Is(err, allocate_seats.ErrInvalidInput):
			// Оплата остаётся success, бронь не создаётся
			uc.logger.Error("ReconcilePayment: tx=%s paid but seats %s on vehicle=%s cannot be allocated for user=%s: %v",
				txID, snapshot.Seats, snapshot.VehicleID, snapshot.UserID, err)
			resp.Outcome = OutcomeAllocationConflict
			return nil
		case errors.Is(err, allocate_seats.ErrAlreadyFinalized):
			resp.Outcome = OutcomeDuplicate
			return nil
		default:
			resp.Outcome = OutcomeAllocationError
			return fmt.Errorf("%w: %w", errAllocation, err)
		}
	})

	if err != nil {
		if !errors.Is(err, errAllocation) {
			resp.Outcome = OutcomeStoreError
		}
		resp.BookingID = 0
		uc.logger.Error("ReconcilePayment: tx=%s not reconciled (%s), waiting for redelivery: %v", txID, resp.Outcome, err)
		return resp
	}

	switch resp.Outcome {
	case OutcomeFinalized:
		uc.logger.Info("ReconcilePayment: tx=%s finalized, booking id=%d", txID, resp.BookingID)
	case OutcomeFailed:
		uc.logger.Info("ReconcilePayment: tx=%s marked as failed", txID)
	case OutcomeDuplicate:
		uc.logger.Info("ReconcilePayment: tx=%s already reconciled, callback ignored", txID)
	case OutcomeUnknownTransaction:
		uc.logger.Error("ReconcilePayment: no pending booking for tx=%s (status %s), nothing allocated", txID, status)
	}

	return resp
}

// classifyUnmoved отличает уже обработанный платёж от неизвестного
func (uc *UseCase) classifyUnmoved(ctx context.Context, txID string) (Outcome, error) {
	_, err := uc.bookingRepo.GetByTransactionID(ctx, txID)
	switch {
	case err == nil:
		return OutcomeDuplicate, nil
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		return OutcomeUnknownTransaction, nil
	default:
		return "", fmt.Errorf("get by transaction: %w", err)
	}
}

func allocationRequest(s *domain.TripSnapshot, txID string) *allocate_seats.Request {
	return &allocate_seats.Request{
		UserID:              s.UserID,
		VehicleID:           s.VehicleID,
		Seats:               s.Seats,
		VehicleName:         s.VehicleName,
		VehicleRegistration: s.VehicleRegistration,
		Price:               string(s.Price),
		TripDate:            s.TripDate,
		DepartureTime:       s.DepartureTime,
		From:                s.From,
		To:                  s.To,
		PaymentStatus:       domain.PaymentSuccess,
		SourceTransactionID: ptr.Ptr(txID),
	}
}
