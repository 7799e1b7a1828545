package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TripSnapshot снимок намерения бронирования, который шлюз возвращает нам в callback URL.
// JSON-имена полей совпадают с телом POST /request-payment.
type TripSnapshot struct {
	UserID              string      `json:"userId"`
	Seats               SeatList    `json:"seats"`
	VehicleID           string      `json:"vehicleId"`
	VehicleName         string      `json:"vehiclename"`
	VehicleRegistration string      `json:"vehiclereg"`
	Price               LooseString `json:"price"`
	TripDate            string      `json:"tripdate"`
	DepartureTime       string      `json:"leavesAt"`
	From                string      `json:"from"`
	To                  string      `json:"to"`
	TransactionID       string      `json:"transactionId"`
}

// EncodeSnapshot сериализует снимок в JSON и экранирует его для query-параметра
func EncodeSnapshot(s *TripSnapshot) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSnapshotEncode, err)
	}
	return url.QueryEscape(string(raw)), nil
}

// DecodeSnapshot обратная операция к EncodeSnapshot: снимает экранирование и разбирает JSON.
// encoded должен быть сырым значением из query, без предварительного декодирования.
func DecodeSnapshot(encoded string) (*TripSnapshot, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrSnapshotDecode, BookingDataParam)
	}

	raw, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: unescape: %v", ErrSnapshotDecode, err)
	}

	var s TripSnapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrSnapshotDecode, err)
	}

	return &s, nil
}

// AttachSnapshot добавляет bookingData к callbackURL, сохраняя уже существующие параметры
func AttachSnapshot(callbackURL string, s *TripSnapshot) (string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidCallbackURL, callbackURL)
	}

	encoded, err := EncodeSnapshot(s)
	if err != nil {
		return "", err
	}

	parts := withoutParam(u.RawQuery, BookingDataParam)
	parts = append(parts, BookingDataParam+"="+encoded)
	u.RawQuery = strings.Join(parts, "&")

	return u.String(), nil
}

// withoutParam возвращает части RawQuery без ключа name (в любом экранировании).
// Остальные параметры сохраняются как есть, в исходном порядке.
func withoutParam(rawQuery, name string) []string {
	if rawQuery == "" {
		return nil
	}
	var kept []string
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		key, _, _ := strings.Cut(part, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil && unescaped == name {
			continue
		}
		kept = append(kept, part)
	}
	return kept
}

// ExtractSnapshotParam возвращает сырое (ещё экранированное) значение bookingData из RawQuery.
// url.Values здесь не подходит: он уже снимает экранирование, и DecodeSnapshot сделал бы это второй раз.
func ExtractSnapshotParam(rawQuery string) (string, bool) {
	prefix := BookingDataParam + "="
	for _, part := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(part, prefix) {
			return strings.TrimPrefix(part, prefix), true
		}
	}
	return "", false
}

// ToBooking строит бронирование по снимку. Статус и флаги выставляет вызывающий код.
func (s *TripSnapshot) ToBooking(bookingDate time.Time) *Booking {
	return &Booking{
		UserID:              s.UserID,
		Seats:               s.Seats,
		VehicleID:           s.VehicleID,
		VehicleName:         s.VehicleName,
		VehicleRegistration: s.VehicleRegistration,
		Price:               string(s.Price),
		TripDate:            s.TripDate,
		DepartureTime:       s.DepartureTime,
		From:                s.From,
		To:                  s.To,
		BookingDate:         bookingDate,
	}
}
