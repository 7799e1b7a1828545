package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrSeatConflict возвращается, когда место уже занято финализированным бронированием (booked_seats_pkey)
	ErrSeatConflict = errors.New("booking.repository: seat already booked")

	// ErrDuplicateTransaction возвращается, когда запись с таким transaction_id уже существует
	ErrDuplicateTransaction = errors.New("booking.repository: duplicate transaction id")

	// ErrAlreadyFinalized возвращается, когда по платежу уже создано финализированное бронирование
	ErrAlreadyFinalized = errors.New("booking.repository: payment already finalized")

	// ErrTransaction возвращается при ошибках работы с транзакцией
	ErrTransaction = errors.New("booking.repository: transaction error")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
