package claim

import "errors"

var (
	// ErrClaim возвращается при ошибках обращения к Redis
	ErrClaim = errors.New("claim: redis error")
)
