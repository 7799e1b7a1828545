package request_payment

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("request_payment: invalid input data")

	// ErrSeatAlreadyBooked возвращается, когда место уже занято
	ErrSeatAlreadyBooked = errors.New("request_payment: one or more seats are already booked")

	// ErrDuplicateUserBooking возвращается, когда пользователь уже забронировал одно из мест
	ErrDuplicateUserBooking = errors.New("request_payment: user has already booked one or more of these seats")

	// ErrDuplicateTransaction возвращается, когда по AccountReference уже есть запись
	ErrDuplicateTransaction = errors.New("request_payment: transaction already exists")

	// ErrTokenAcquisitionFailed возвращается, когда не удалось получить токен шлюза
	ErrTokenAcquisitionFailed = errors.New("request_payment: failed to acquire gateway token")

	// ErrGatewayUnavailable возвращается при таймауте или сетевой ошибке шлюза
	ErrGatewayUnavailable = errors.New("request_payment: payment gateway unavailable")

	// ErrGatewayRejected возвращается, когда шлюз отклонил запрос. Цепочка содержит *gateway.RejectedError
	ErrGatewayRejected = errors.New("request_payment: payment gateway rejected the request")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("request_payment: internal error")
)
