package domain

const (
	// BookingDataParam имя query-параметра callback URL со снимком бронирования
	BookingDataParam = "bookingData"

	// ResultCodeSuccess код успешной оплаты в callback платёжного шлюза
	ResultCodeSuccess = "0"

	// SeatSeparator разделитель мест, когда они пришли одной строкой
	SeatSeparator = ","
)
