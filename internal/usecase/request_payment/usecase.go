package request_payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TripBookingService/internal/integrations/gateway"
	"github.com/m04kA/SMC-TripBookingService/internal/usecase/allocate_seats"
	"github.com/m04kA/SMC-TripBookingService/pkg/ptr"
)

// UseCase инициатор платежа: проверяет места, вызывает шлюз и записывает pending бронирование
type UseCase struct {
	bookingRepo  BookingRepository
	seats        SeatChecker
	gateway      PaymentGateway
	claims       TransactionClaimer
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	seats SeatChecker,
	gateway PaymentGateway,
	claims TransactionClaimer,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		seats:        seats,
		gateway:      gateway,
		claims:       claims,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute инициирует оплату поездки.
// Pending запись создаётся только после того, как шлюз принял запрос:
// при отказе или недоступности шлюза в хранилище ничего не остаётся.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RequestPayment: validation failed: %v", err)
		return nil, err
	}

	txID := strings.TrimSpace(req.AccountReference)

	uc.logger.Info("RequestPayment: tx=%s, user=%s, vehicle=%s, seats=%s, amount=%s %s",
		txID, req.UserID, req.VehicleID, req.Seats, req.Amount, req.Currency)

	// 1. Один AccountReference - один запрос к шлюзу. Захват держится до записи pending,
	// дальше повтор отсекает уникальный индекс transaction_id
	token, claimed, err := uc.claims.Claim(ctx, txID)
	switch {
	case err != nil:
		uc.logger.Warn("RequestPayment: failed to claim tx=%s, relying on database check: %v", txID, err)
	case !claimed:
		uc.logger.Warn("RequestPayment: transaction %s is already being processed", txID)
		return nil, fmt.Errorf("%w: %s is in progress", ErrDuplicateTransaction, txID)
	default:
		defer func() {
			if err := uc.claims.Release(context.WithoutCancel(ctx), txID, token); err != nil {
				uc.logger.Warn("RequestPayment: failed to release claim on tx=%s: %v", txID, err)
			}
		}()
	}

	// 2. Одна запись платежа на AccountReference
	_, err = uc.bookingRepo.GetByTransactionID(ctx, txID)
	switch {
	case err == nil:
		uc.logger.Warn("RequestPayment: transaction %s already exists", txID)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, txID)
	case !errors.Is(err, bookingRepo.ErrBookingNotFound):
		uc.logger.Error("RequestPayment: failed to look up transaction %s: %v", txID, err)
		return nil, fmt.Errorf("%w: get by transaction: %w", ErrInternal, err)
	}

	// 3. Необязывающая проверка мест до списания денег
	if err := uc.seats.Check(ctx, req.VehicleID, req.Seats, req.UserID); err != nil {
		return nil, uc.mapSeatError(req, err)
	}

	// 4. Снимок поездки в callback URL
	snapshot := uc.snapshot(req, txID)
	callbackURL, err := domain.AttachSnapshot(req.CallBackURL, snapshot)
	if err != nil {
		uc.logger.Warn("RequestPayment: bad callback url for tx=%s: %v", txID, err)
		if errors.Is(err, domain.ErrInvalidCallbackURL) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 5. Вызов шлюза
	gwResp, err := uc.gateway.RequestPayment(ctx, &gateway.PaymentRequest{
		MerchantCode:     req.MerchantCode,
		NetworkCode:      req.NetworkCode,
		PhoneNumber:      req.PhoneNumber,
		TransactionDesc:  req.TransactionDesc,
		AccountReference: txID,
		Currency:         req.Currency,
		Amount:           req.Amount,
		CallBackURL:      callbackURL,
	})
	if err != nil {
		return nil, uc.mapGatewayError(txID, err)
	}

	// 6. Шлюз принял запрос - фиксируем ожидание callback
	pending := snapshot.ToBooking(uc.timeProvider.Now())
	pending.TransactionID = ptr.Ptr(txID)

	created, err := uc.bookingRepo.CreatePending(ctx, pending)
	if err != nil {
		// Деньги уже запрошены, а записи нет: callback по этому tx будет unknown_transaction
		uc.logger.Error("RequestPayment: gateway accepted tx=%s but pending booking was not saved: %v (gateway body: %s)",
			txID, err, gwResp.Body)
		if errors.Is(err, bookingRepo.ErrDuplicateTransaction) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, txID)
		}
		return nil, fmt.Errorf("%w: create pending: %w", ErrInternal, err)
	}

	uc.logger.Info("RequestPayment: tx=%s accepted by gateway, pending booking id=%d", txID, created.ID)

	return &Response{
		GatewayStatus: gwResp.StatusCode,
		GatewayBody:   gwResp.Body,
		BookingID:     created.ID,
		TransactionID: txID,
	}, nil
}

func (uc *UseCase) snapshot(req *Request, txID string) *domain.TripSnapshot {
	return &domain.TripSnapshot{
		UserID:              req.UserID,
		Seats:               req.Seats,
		VehicleID:           req.VehicleID,
		VehicleName:         req.VehicleName,
		VehicleRegistration: req.VehicleRegistration,
		Price:               domain.LooseString(req.Price),
		TripDate:            req.TripDate,
		DepartureTime:       req.DepartureTime,
		From:                req.From,
		To:                  req.To,
		TransactionID:       txID,
	}
}

func (uc *UseCase) mapSeatError(req *Request, err error) error {
	switch {
	case errors.Is(err, allocate_seats.ErrDuplicateUserBooking):
		uc.logger.Warn("RequestPayment: user=%s already holds seats on vehicle=%s: %v", req.UserID, req.VehicleID, err)
		return fmt.Errorf("%w: %v", ErrDuplicateUserBooking, err)
	case errors.Is(err, allocate_seats.ErrSeatAlreadyBooked):
		uc.logger.Warn("RequestPayment: seats taken on vehicle=%s: %v", req.VehicleID, err)
		return fmt.Errorf("%w: %v", ErrSeatAlreadyBooked, err)
	case errors.Is(err, allocate_seats.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		uc.logger.Error("RequestPayment: seat check failed for vehicle=%s: %v", req.VehicleID, err)
		return fmt.Errorf("%w: seat check: %w", ErrInternal, err)
	}
}

func (uc *UseCase) mapGatewayError(txID string, err error) error {
	switch {
	case errors.Is(err, gateway.ErrTokenAcquisition):
		uc.logger.Error("RequestPayment: token acquisition failed for tx=%s: %v", txID, err)
		return fmt.Errorf("%w: %w", ErrTokenAcquisitionFailed, err)
	case errors.Is(err, gateway.ErrUnavailable):
		uc.logger.Error("RequestPayment: gateway unavailable for tx=%s: %v", txID, err)
		return fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	case errors.Is(err, gateway.ErrGatewayRejected):
		uc.logger.Warn("RequestPayment: gateway rejected tx=%s: %v", txID, err)
		return fmt.Errorf("%w: %w", ErrGatewayRejected, err)
	default:
		uc.logger.Error("RequestPayment: gateway call failed for tx=%s: %v", txID, err)
		return fmt.Errorf("%w: gateway: %w", ErrInternal, err)
	}
}
