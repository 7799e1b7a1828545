package request_payment

import (
	"fmt"
	"strings"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidInput)
	}

	required := []struct {
		name  string
		value string
	}{
		{"AccountReference", req.AccountReference},
		{"PhoneNumber", req.PhoneNumber},
		{"CallBackURL", req.CallBackURL},
		{"userId", req.UserID},
		{"vehicleId", req.VehicleID},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}

	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: Amount must be positive, got %s", ErrInvalidInput, req.Amount)
	}

	if err := req.Seats.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return nil
}
