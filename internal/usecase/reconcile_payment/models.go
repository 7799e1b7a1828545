package reconcile_payment

import "github.com/m04kA/SMC-TripBookingService/internal/domain"

// Request callback шлюза
type Request struct {
	BookingData string // сырое значение query-параметра bookingData
	ResultCode  domain.ResultCode

	// ResultUnreadable тело callback не разобралось: результат оплаты неизвестен
	ResultUnreadable bool
}

// Outcome результат обработки callback. Наружу не отдаётся, шлюз всегда получает "ok"
type Outcome string

const (
	OutcomeFinalized          Outcome = "finalized"
	OutcomeFailed             Outcome = "failed"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeUnknownTransaction Outcome = "unknown_transaction"
	OutcomeDecodeError        Outcome = "decode_error"
	OutcomeMissingTransaction Outcome = "missing_transaction"
	OutcomeStoreError         Outcome = "store_error"
	OutcomeAllocationConflict Outcome = "allocation_conflict"
	OutcomeAllocationError    Outcome = "allocation_error"
	OutcomeUnreadableResult   Outcome = "unreadable_result"
)

// Response итог обработки
type Response struct {
	Outcome       Outcome
	TransactionID string
	PaymentStatus domain.PaymentStatus
	BookingID     int64 // id финализированной брони, если она создана
}
