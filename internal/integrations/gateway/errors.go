package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenAcquisition возвращается, когда не удалось получить токен доступа
	ErrTokenAcquisition = errors.New("gateway client: failed to acquire access token")

	// ErrUnavailable возвращается при таймауте или сетевой ошибке обращения к шлюзу
	ErrUnavailable = errors.New("gateway client: gateway unavailable")

	// ErrGatewayRejected возвращается, когда шлюз отклонил запрос на оплату
	ErrGatewayRejected = errors.New("gateway client: payment request rejected")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("gateway client: internal error")
)

// RejectedError отказ шлюза вместе с его сырым телом ответа, которое отдаётся клиенту как есть
type RejectedError struct {
	StatusCode int
	Body       []byte
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrGatewayRejected, e.StatusCode, string(e.Body))
}

func (e *RejectedError) Unwrap() error {
	return ErrGatewayRejected
}
