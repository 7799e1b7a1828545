package models

import (
	"time"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID string  `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                  int64    `json:"id"`
	UserID              string   `json:"userId"`
	Seats               []string `json:"seats"`
	VehicleID           string   `json:"vehicleId"`
	VehicleName         string   `json:"vehiclename"`
	VehicleRegistration string   `json:"vehiclereg"`
	Price               string   `json:"price"`
	TripDate            string   `json:"tripdate"`
	DepartureTime       string   `json:"leavesAt"`
	From                string   `json:"from"`
	To                  string   `json:"to"`
	BookingDate         string   `json:"bookingDate"` // RFC3339
	PaymentStatus       string   `json:"paymentStatus"`
	Finalized           bool     `json:"finalized"`

	TransactionID       *string `json:"transactionId,omitempty"`
	SourceTransactionID *string `json:"sourceTransactionId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// PaymentStatusResponse состояние платежа и созданной по нему брони
type PaymentStatusResponse struct {
	TransactionID    string           `json:"transactionId"`
	PaymentStatus    string           `json:"paymentStatus"`
	Payment          *BookingResponse `json:"payment"`
	FinalizedBooking *BookingResponse `json:"finalizedBooking,omitempty"`
}

// VehicleSeatsResponse занятые места транспорта
type VehicleSeatsResponse struct {
	VehicleID   string   `json:"vehicleId"`
	BookedSeats []string `json:"bookedSeats"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	seats := b.Seats.Strings()
	if seats == nil {
		seats = []string{}
	}

	return &BookingResponse{
		ID:                  b.ID,
		UserID:              b.UserID,
		Seats:               seats,
		VehicleID:           b.VehicleID,
		VehicleName:         b.VehicleName,
		VehicleRegistration: b.VehicleRegistration,
		Price:               b.Price,
		TripDate:            b.TripDate,
		DepartureTime:       b.DepartureTime,
		From:                b.From,
		To:                  b.To,
		BookingDate:         b.BookingDate.Format(time.RFC3339),
		PaymentStatus:       string(b.PaymentStatus),
		Finalized:           b.Finalized,
		TransactionID:       b.TransactionID,
		SourceTransactionID: b.SourceTransactionID,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
