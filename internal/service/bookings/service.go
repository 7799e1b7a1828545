package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TripBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TripBookingService/internal/service/bookings/models"
)

// Service сервис чтения бронирований и платежей
type Service struct {
	bookingRepo BookingRepository
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(bookingRepo BookingRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetPaymentStatus возвращает pending запись платежа и, если оплата прошла, созданную по ней бронь.
// Обе записи читаются из одного снимка: success без брони значит конфликт при финализации,
// а не callback, зафиксированный между двумя чтениями.
func (s *Service) GetPaymentStatus(ctx context.Context, transactionID string) (*models.PaymentStatusResponse, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transactionId is required", ErrInvalidInput)
	}

	var resp *models.PaymentStatusResponse

	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		payment, err := s.bookingRepo.GetByTransactionID(txCtx, transactionID)
		if err != nil {
			return err
		}

		resp = &models.PaymentStatusResponse{
			TransactionID: transactionID,
			PaymentStatus: string(payment.PaymentStatus),
			Payment:       models.FromDomainBooking(payment),
		}

		if payment.PaymentStatus != domain.PaymentSuccess {
			return nil
		}

		finalized, err := s.bookingRepo.GetBySourceTransactionID(txCtx, transactionID)
		switch {
		case err == nil:
			resp.FinalizedBooking = models.FromDomainBooking(finalized)
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			// оплачено, но места не выданы (конфликт при финализации)
		default:
			return fmt.Errorf("finalized booking: %w", err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetPaymentStatus: transaction %s not found", transactionID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetPaymentStatus: repository error for tx=%s: %v", transactionID, err)
		return nil, fmt.Errorf("%w: GetPaymentStatus - repository error: %v", ErrInternal, err)
	}

	return resp, nil
}

// GetVehicleSeats возвращает места, занятые финализированными бронированиями
func (s *Service) GetVehicleSeats(ctx context.Context, vehicleID string) (*models.VehicleSeatsResponse, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return nil, fmt.Errorf("%w: vehicleId is required", ErrInvalidInput)
	}

	seats, err := s.bookingRepo.GetBookedSeats(ctx, vehicleID)
	if err != nil {
		s.logger.Error("GetVehicleSeats: repository error for vehicle=%s: %v", vehicleID, err)
		return nil, fmt.Errorf("%w: GetVehicleSeats - repository error: %v", ErrInternal, err)
	}
	if seats == nil {
		seats = []string{}
	}

	return &models.VehicleSeatsResponse{VehicleID: vehicleID, BookedSeats: seats}, nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу оплаты
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%s, status=%v", req.UserID, req.Status)

	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	var domainStatus *domain.PaymentStatus
	if req.Status != nil {
		status, err := domain.ParsePaymentStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%s", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%s: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%s", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}
