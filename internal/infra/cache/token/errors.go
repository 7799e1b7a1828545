package token

import "errors"

var (
	// ErrTokenNotFound возвращается, когда токена в кэше нет или он истёк
	ErrTokenNotFound = errors.New("token.cache: token not found")

	// ErrCache возвращается при ошибках обращения к Redis
	ErrCache = errors.New("token.cache: redis error")
)
