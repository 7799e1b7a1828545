package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ResultCode код результата оплаты из callback шлюза.
// Шлюз присылает его то числом, то строкой.
type ResultCode string

func (c *ResultCode) UnmarshalJSON(data []byte) error {
	var raw LooseString
	if err := raw.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("domain: invalid ResultCode: %w", err)
	}
	*c = ResultCode(strings.TrimSpace(string(raw)))
	return nil
}

// IsSuccess true только для кода "0". Отсутствующий код считается неуспехом.
func (c ResultCode) IsSuccess() bool {
	return string(c) == ResultCodeSuccess
}

// PaymentStatus статус, в который переводится бронирование по этому коду
func (c ResultCode) PaymentStatus() PaymentStatus {
	if c.IsSuccess() {
		return PaymentSuccess
	}
	return PaymentFailed
}

// LooseString строка, которая в JSON может прийти строкой, числом или bool
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = LooseString(num.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = LooseString(fmt.Sprintf("%t", b))
		return nil
	}

	return fmt.Errorf("unsupported value %s", string(data))
}
