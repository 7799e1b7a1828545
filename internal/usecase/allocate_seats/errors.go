package allocate_seats

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("allocate_seats: invalid input data")

	// ErrSeatAlreadyBooked возвращается, когда место занято другим пользователем
	ErrSeatAlreadyBooked = errors.New("allocate_seats: one or more seats are already booked")

	// ErrDuplicateUserBooking возвращается, когда пользователь уже забронировал одно из мест
	ErrDuplicateUserBooking = errors.New("allocate_seats: user has already booked one or more of these seats")

	// ErrAlreadyFinalized возвращается, когда по платежу уже создано бронирование
	ErrAlreadyFinalized = errors.New("allocate_seats: payment already finalized")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("allocate_seats: internal error")
)
