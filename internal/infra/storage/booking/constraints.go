package booking

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// Имена ограничений из migrations/0001_init.sql
const (
	constraintBookedSeatsPK       = "booked_seats_pkey"
	constraintTransactionID       = "bookings_transaction_id_uidx"
	constraintSourceTransactionID = "bookings_source_transaction_id_uidx"
)

// mapConstraintError переводит нарушение уникальности в доменную ошибку репозитория.
// Возвращает nil, если err не является известным нарушением.
func mapConstraintError(op string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pgUniqueViolation {
		return nil
	}

	switch pqErr.Constraint {
	case constraintBookedSeatsPK:
		return fmt.Errorf("%w: %s - %s", ErrSeatConflict, op, pqErr.Detail)
	case constraintTransactionID:
		return fmt.Errorf("%w: %s - %s", ErrDuplicateTransaction, op, pqErr.Detail)
	case constraintSourceTransactionID:
		return fmt.Errorf("%w: %s - %s", ErrAlreadyFinalized, op, pqErr.Detail)
	default:
		return nil
	}
}
