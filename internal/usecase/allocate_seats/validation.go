package allocate_seats

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidInput)
	}

	if err := validateTarget(req.VehicleID, req.Seats, req.UserID); err != nil {
		return err
	}

	if req.PaymentStatus != "" && !req.PaymentStatus.IsValid() {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, req.PaymentStatus)
	}

	if req.SourceTransactionID != nil && strings.TrimSpace(*req.SourceTransactionID) == "" {
		return fmt.Errorf("%w: sourceTransactionId must not be blank", ErrInvalidInput)
	}

	return nil
}

func validateTarget(vehicleID string, seats domain.SeatList, userID string) error {
	if strings.TrimSpace(vehicleID) == "" {
		return fmt.Errorf("%w: vehicleId is required", ErrInvalidInput)
	}

	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	if err := seats.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return nil
}

// checkSeatConflicts решает, можно ли выдать места requested пользователю userID.
// Сначала проверяются собственные брони пользователя: повтор своих мест это ErrDuplicateUserBooking,
// и только потом чужие (ErrSeatAlreadyBooked). Pending записи места не держат и пропускаются.
func checkSeatConflicts(requested domain.SeatList, userID string, existing []*domain.Booking) error {
	var own, others []string

	for _, b := range existing {
		if !b.HoldsSeats() {
			continue
		}
		common := requested.Intersect(b.Seats)
		if len(common) == 0 {
			continue
		}
		if b.UserID == userID {
			own = append(own, common...)
		} else {
			others = append(others, common...)
		}
	}

	if len(own) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateUserBooking, strings.Join(own, ","))
	}
	if len(others) > 0 {
		return fmt.Errorf("%w: %s", ErrSeatAlreadyBooked, strings.Join(others, ","))
	}

	return nil
}
