package domain

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *TripSnapshot {
	return &TripSnapshot{
		UserID:              "user-7",
		Seats:               SeatList{"C3", "A1", "B2"},
		VehicleID:           "V1",
		VehicleName:         "Coach & Sons",
		VehicleRegistration: "KDA 123X",
		Price:               "1500.50",
		TripDate:            "2025-03-01",
		DepartureTime:       "08:30",
		From:                "Nairobi",
		To:                  "Mombasa/Old Town?",
		TransactionID:       "TX1",
	}
}

func TestSnapshot_EncodeDecodeRoundTrip(t *testing.T) {
	in := sampleSnapshot()

	encoded, err := EncodeSnapshot(in)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "&")
	assert.NotContains(t, encoded, "?")

	out, err := DecodeSnapshot(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, []string{"C3", "A1", "B2"}, out.Seats.Strings())
}

func TestSnapshot_AttachAndExtractThroughURL(t *testing.T) {
	in := sampleSnapshot()

	callback, err := AttachSnapshot("https://trips.example.com/c2b-callback-results?source=mpesa", in)
	require.NoError(t, err)

	u, err := url.Parse(callback)
	require.NoError(t, err)
	assert.Equal(t, "mpesa", u.Query().Get("source"))

	raw, ok := ExtractSnapshotParam(u.RawQuery)
	require.True(t, ok)

	out, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSnapshot_AttachWithoutQuery(t *testing.T) {
	callback, err := AttachSnapshot("https://trips.example.com/c2b-callback-results", sampleSnapshot())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(callback, "https://trips.example.com/c2b-callback-results?bookingData="))
}

func TestSnapshot_AttachReplacesExistingBookingData(t *testing.T) {
	other := &TripSnapshot{UserID: "u9", Seats: SeatList{"Z9"}, VehicleID: "V7", TransactionID: "TX-OTHER"}
	otherEncoded, err := EncodeSnapshot(other)
	require.NoError(t, err)

	callbacks := []string{
		"https://api.example.com/cb?bookingData=" + otherEncoded + "&source=mpesa",
		"https://api.example.com/cb?source=mpesa&booking%44ata=" + otherEncoded,
		"https://api.example.com/cb?bookingData&source=mpesa",
	}

	for _, cb := range callbacks {
		t.Run(cb, func(t *testing.T) {
			callback, err := AttachSnapshot(cb, sampleSnapshot())
			require.NoError(t, err)

			u, err := url.Parse(callback)
			require.NoError(t, err)
			assert.Len(t, u.Query()[BookingDataParam], 1)
			assert.Equal(t, "mpesa", u.Query().Get("source"))

			raw, ok := ExtractSnapshotParam(u.RawQuery)
			require.True(t, ok)
			out, err := DecodeSnapshot(raw)
			require.NoError(t, err)
			assert.Equal(t, sampleSnapshot(), out)
		})
	}
}

func TestSnapshot_AttachRejectsRelativeURL(t *testing.T) {
	_, err := AttachSnapshot("/c2b-callback-results", sampleSnapshot())
	require.ErrorIs(t, err, ErrInvalidCallbackURL)
}

func TestSnapshot_DecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "bad escape", encoded: "%zz"},
		{name: "not json", encoded: url.QueryEscape("{not json")},
		{name: "seats wrong type", encoded: url.QueryEscape(`{"seats":{"a":1}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot(tt.encoded)
			require.ErrorIs(t, err, ErrSnapshotDecode)
		})
	}
}

func TestSnapshot_DecodeAcceptsCommaSeatsAndNumericPrice(t *testing.T) {
	raw := url.QueryEscape(`{"userId":"u1","seats":"A1, A2","vehicleId":"V1","price":1200,"transactionId":"TX9"}`)

	s, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, SeatList{"A1", "A2"}, s.Seats)
	assert.Equal(t, LooseString("1200"), s.Price)
	assert.Equal(t, "TX9", s.TransactionID)
}

func TestExtractSnapshotParam_Missing(t *testing.T) {
	_, ok := ExtractSnapshotParam("source=mpesa&other=1")
	assert.False(t, ok)
}
