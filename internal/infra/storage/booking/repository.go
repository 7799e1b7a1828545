package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-TripBookingService/internal/domain"
	"github.com/m04kA/SMC-TripBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TripBookingService/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"user_id",
	"seats",
	"vehicle_id",
	"vehicle_name",
	"vehicle_registration",
	"price",
	"trip_date",
	"departure_time",
	"from_location",
	"to_location",
	"booking_date",
	"transaction_id",
	"payment_status",
	"finalized",
	"source_transaction_id",
	"created_at",
	"updated_at",
}

var insertColumns = []string{
	"user_id",
	"seats",
	"vehicle_id",
	"vehicle_name",
	"vehicle_registration",
	"price",
	"trip_date",
	"departure_time",
	"from_location",
	"to_location",
	"booking_date",
	"transaction_id",
	"payment_status",
	"finalized",
	"source_transaction_id",
}

// Вторая часть CTE: места новой брони раскладываются в booked_seats.
// PK (vehicle_id, seat_label) не даёт двум финализированным броням держать одно место.
const finalizeSuffix = `RETURNING id, vehicle_id, seats, created_at, updated_at
), seat_rows AS (
	INSERT INTO booked_seats (vehicle_id, seat_label, booking_id)
	SELECT nb.vehicle_id, s.label, nb.id
	FROM new_booking nb CROSS JOIN LATERAL unnest(nb.seats) AS s(label)
)
SELECT id, created_at, updated_at FROM new_booking`

const finalizeSavepoint = "create_finalized"

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreatePending сохраняет запись платежа в статусе pending.
// Места не резервируются: запись не попадает в booked_seats.
func (r *Repository) CreatePending(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	booking.PaymentStatus = domain.PaymentPending
	booking.Finalized = false
	booking.SourceTransactionID = nil

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(insertColumns...).
		Values(insertValues(booking)...).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CreatePending - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if mapped := mapConstraintError("CreatePending", err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("%w: CreatePending - execute insert: %w", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// CreateFinalized одним запросом создаёт финализированное бронирование и строки booked_seats.
// Вызывается внутри транзакции аллокатора после LockVehicle.
// В транзакции вставка идёт под savepoint: нарушение уникальности откатывает только её,
// и внешняя транзакция остаётся пригодной для commit.
func (r *Repository) CreateFinalized(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	inTx := dbmetrics.IsInTransaction(ctx)

	if inTx {
		if _, err := executor.ExecContext(ctx, "SAVEPOINT "+finalizeSavepoint); err != nil {
			return nil, fmt.Errorf("%w: CreateFinalized - savepoint: %w", ErrTransaction, err)
		}
	}

	booking.Finalized = true
	booking.TransactionID = nil

	query, args, err := psqlbuilder.Insert("bookings").
		Prefix("WITH new_booking AS (").
		Columns(insertColumns...).
		Values(insertValues(booking)...).
		Suffix(finalizeSuffix).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CreateFinalized - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if inTx {
			if _, rbErr := executor.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+finalizeSavepoint); rbErr != nil {
				return nil, fmt.Errorf("%w: CreateFinalized - rollback to savepoint: %v (insert: %w)", ErrTransaction, rbErr, err)
			}
		}
		if mapped := mapConstraintError("CreateFinalized", err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("%w: CreateFinalized - execute insert: %w", ErrExecQuery, err)
	}

	if inTx {
		if _, err := executor.ExecContext(ctx, "RELEASE SAVEPOINT "+finalizeSavepoint); err != nil {
			return nil, fmt.Errorf("%w: CreateFinalized - release savepoint: %w", ErrTransaction, err)
		}
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// LockVehicle берёт advisory-блокировку транспорта до конца текущей транзакции.
// Все аллокации одного vehicle_id выстраиваются в очередь.
func (r *Repository) LockVehicle(ctx context.Context, vehicleID string) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return fmt.Errorf("%w: LockVehicle - called outside of transaction", ErrTransaction)
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", vehicleID); err != nil {
		return fmt.Errorf("%w: LockVehicle - acquire lock: %w", ErrExecQuery, err)
	}

	return nil
}

// GetFinalizedByVehicle возвращает финализированные бронирования транспорта.
// Внутри транзакции строки блокируются (FOR UPDATE).
func (r *Repository) GetFinalizedByVehicle(ctx context.Context, vehicleID string) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"vehicle_id": vehicleID, "finalized": true}).
		OrderBy("id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetFinalizedByVehicle - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetFinalizedByVehicle - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetBookedSeats возвращает занятые места транспорта
func (r *Repository) GetBookedSeats(ctx context.Context, vehicleID string) ([]string, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("seat_label").
		From("booked_seats").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		OrderBy("seat_label ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetBookedSeats - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBookedSeats - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	seats := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("%w: GetBookedSeats - scan seat_label: %v", ErrScanRow, err)
		}
		seats = append(seats, label)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetBookedSeats - rows error: %v", ErrScanRow, err)
	}

	return seats, nil
}

// GetByTransactionID получает запись платежа по transaction_id
func (r *Repository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByTransactionID", squirrel.Eq{"transaction_id": transactionID})
}

// GetBySourceTransactionID получает финализированное бронирование, созданное по платежу
func (r *Repository) GetBySourceTransactionID(ctx context.Context, transactionID string) (*domain.Booking, error) {
	return r.getOne(ctx, "GetBySourceTransactionID", squirrel.Eq{"source_transaction_id": transactionID})
}

// TransitionPaymentStatus атомарно переводит запись платежа из from в to.
// Возвращает false, если запись не найдена или уже не в статусе from.
func (r *Repository) TransitionPaymentStatus(
	ctx context.Context,
	transactionID string,
	from, to domain.PaymentStatus,
) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"transaction_id": transactionID,
			"payment_status": from,
			"finalized":      false,
		}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: TransitionPaymentStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: TransitionPaymentStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: TransitionPaymentStatus - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

// GetByUserID получает список бронирований пользователя
// Опционально фильтрует по статусу оплаты
func (r *Repository) GetByUserID(ctx context.Context, userID string, status *domain.PaymentStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("booking_date DESC, id DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"payment_status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan booking: %w", ErrScanRow, op, err)
	}

	return booking, nil
}

func insertValues(b *domain.Booking) []interface{} {
	return []interface{}{
		b.UserID,
		pq.Array(b.Seats.Strings()),
		b.VehicleID,
		b.VehicleName,
		b.VehicleRegistration,
		b.Price,
		b.TripDate,
		b.DepartureTime,
		b.From,
		b.To,
		b.BookingDate,
		b.TransactionID,
		b.PaymentStatus,
		b.Finalized,
		b.SourceTransactionID,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking              domain.Booking
		seats                pq.StringArray
		transactionID        sql.NullString
		sourceTransactionID  sql.NullString
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&seats,
		&booking.VehicleID,
		&booking.VehicleName,
		&booking.VehicleRegistration,
		&booking.Price,
		&booking.TripDate,
		&booking.DepartureTime,
		&booking.From,
		&booking.To,
		&booking.BookingDate,
		&transactionID,
		&booking.PaymentStatus,
		&booking.Finalized,
		&sourceTransactionID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Seats = domain.SeatList(seats)
	if transactionID.Valid {
		booking.TransactionID = &transactionID.String
	}
	if sourceTransactionID.Valid {
		booking.SourceTransactionID = &sourceTransactionID.String
	}
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %w", ErrScanRow, err)
	}

	return bookings, nil
}
