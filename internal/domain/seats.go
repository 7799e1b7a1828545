package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SeatList упорядоченный список мест.
// Из JSON принимается как массив (строк или чисел), так и одна строка "A1,A2".
type SeatList []string

// ParseSeats разбивает строку по запятым и обрезает пробелы.
// Пустые метки сохраняются, чтобы Validate их отклонил.
func ParseSeats(raw string) SeatList {
	if strings.TrimSpace(raw) == "" {
		return SeatList{}
	}
	parts := strings.Split(raw, SeatSeparator)
	seats := make(SeatList, 0, len(parts))
	for _, p := range parts {
		seats = append(seats, strings.TrimSpace(p))
	}
	return seats
}

func (s *SeatList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeats, err)
		}
		*s = ParseSeats(raw)
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeats, err)
		}
		seats := make(SeatList, 0, len(items))
		for _, item := range items {
			var label LooseString
			if err := json.Unmarshal(item, &label); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSeats, err)
			}
			seats = append(seats, strings.TrimSpace(string(label)))
		}
		*s = seats
		return nil
	default:
		return ErrInvalidSeats
	}
}

// Validate проверяет, что список не пуст, без пустых меток и без повторов
func (s SeatList) Validate() error {
	if len(s) == 0 {
		return ErrNoSeats
	}
	seen := make(map[string]struct{}, len(s))
	for _, label := range s {
		if label == "" {
			return ErrEmptySeatLabel
		}
		if _, ok := seen[label]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSeat, label)
		}
		seen[label] = struct{}{}
	}
	return nil
}

// Contains проверяет наличие места в списке
func (s SeatList) Contains(label string) bool {
	for _, l := range s {
		if l == label {
			return true
		}
	}
	return false
}

// Intersect возвращает места из s, которые есть в other, в порядке s
func (s SeatList) Intersect(other []string) []string {
	if len(s) == 0 || len(other) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(other))
	for _, l := range other {
		set[l] = struct{}{}
	}
	var common []string
	for _, l := range s {
		if _, ok := set[l]; ok {
			common = append(common, l)
		}
	}
	return common
}

// Strings возвращает копию как []string (для pq.Array)
func (s SeatList) Strings() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func (s SeatList) String() string {
	return strings.Join(s, SeatSeparator)
}
