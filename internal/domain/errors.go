package domain

import "errors"

var (
	// ErrNoSeats возвращается, когда список мест пуст
	ErrNoSeats = errors.New("domain: seats must not be empty")

	// ErrEmptySeatLabel возвращается, когда одно из мест пустая строка
	ErrEmptySeatLabel = errors.New("domain: seat label must not be empty")

	// ErrDuplicateSeat возвращается, когда место указано дважды в одном запросе
	ErrDuplicateSeat = errors.New("domain: duplicate seat label")

	// ErrInvalidSeats возвращается, когда seats не массив и не строка
	ErrInvalidSeats = errors.New("domain: seats must be an array or a comma separated string")

	// ErrInvalidPaymentStatus возвращается при неизвестном статусе оплаты
	ErrInvalidPaymentStatus = errors.New("domain: invalid payment status")

	// ErrSnapshotEncode возвращается при ошибке сериализации снимка
	ErrSnapshotEncode = errors.New("domain: failed to encode booking snapshot")

	// ErrSnapshotDecode возвращается, когда bookingData невозможно разобрать
	ErrSnapshotDecode = errors.New("domain: failed to decode booking snapshot")

	// ErrInvalidCallbackURL возвращается, когда CallBackURL не является корректным URL
	ErrInvalidCallbackURL = errors.New("domain: invalid callback url")
)
