package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, client_id, start_time, duration_minutes, price, status, notes,
		reschedule_count, original_start, commitment_id, calendar_event_id,
		cancel_reason, canceled_at, created_at, updated_at`

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// Create создаёт новое бронирование. Проверка занятости времени и вставка —
// одна атомарная операция: конфликт ловится частичным уникальным индексом
// по start_time среди активных бронирований, а не отдельным SELECT-ом.
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (client_id, start_time, duration_minutes, price, status, notes, commitment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		booking.ClientID,
		booking.StartTime,
		booking.DurationMinutes,
		booking.Price,
		booking.Status,
		booking.Notes,
		booking.CommitmentID,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrStartTimeTaken
		}
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// ListActiveBetween получает активные бронирования, пересекающие интервал [from, to)
func (r *BookingRepository) ListActiveBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status IN ('pending', 'confirmed', 'rescheduled')
		  AND start_time < $2
		  AND start_time + (duration_minutes || ' minutes')::interval > $1
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListByClient получает все бронирования клиента
func (r *BookingRepository) ListByClient(ctx context.Context, clientID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE client_id = $1
		ORDER BY start_time DESC
	`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list bookings by client: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ExistsActiveAt проверяет, занято ли время активным бронированием.
// Только для дешёвого пропуска при материализации серий: настоящая защита
// от дубля — уникальный индекс в Create.
func (r *BookingRepository) ExistsActiveAt(ctx context.Context, startTime time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE start_time = $1
			  AND status IN ('pending', 'confirmed', 'rescheduled')
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, startTime).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active booking: %w", err)
	}

	return exists, nil
}

// Reschedule переносит занятие на новое время. Дата меняется на месте
// (не новая строка), original_start заполняется только при первом переносе.
// Конфликт по новому времени ловится тем же уникальным индексом.
func (r *BookingRepository) Reschedule(ctx context.Context, id int64, newStart time.Time) error {
	query := `
		UPDATE bookings
		SET start_time = $2,
		    status = 'rescheduled',
		    reschedule_count = reschedule_count + 1,
		    original_start = COALESCE(original_start, start_time),
		    updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, newStart)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStartTimeTaken
		}
		return fmt.Errorf("reschedule booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// UpdateStatus обновляет статус бронирования
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// Cancel отменяет бронирование с указанием причины
func (r *BookingRepository) Cancel(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE bookings
		SET status = 'canceled',
		    cancel_reason = $2,
		    canceled_at = now(),
		    updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// CountReschedulesBetween считает перенесённые бронирования клиента
// в интервале [from, to). Границы месяца вычисляет вызывающая сторона
// по часам студии: извлечение месяца на стороне БД зависело бы от её зоны.
func (r *BookingRepository) CountReschedulesBetween(ctx context.Context, clientID int64, from, to time.Time) (int, error) {
	query := `
		SELECT count(*)
		FROM bookings
		WHERE client_id = $1
		  AND reschedule_count > 0
		  AND start_time >= $2
		  AND start_time < $3
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, clientID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reschedules between: %w", err)
	}

	return count, nil
}

// ListUnsyncedFuture получает будущие активные бронирования без события
// во внешнем календаре
func (r *BookingRepository) ListUnsyncedFuture(ctx context.Context, limit int) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE calendar_event_id IS NULL
		  AND status IN ('pending', 'confirmed', 'rescheduled')
		  AND start_time > now()
		ORDER BY start_time
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced future bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListRecentUnsynced получает недавно созданные бронирования без синхронизации
func (r *BookingRepository) ListRecentUnsynced(ctx context.Context, since time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE calendar_event_id IS NULL
		  AND status IN ('pending', 'confirmed', 'rescheduled')
		  AND created_at >= $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list recent unsynced bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListCanceledSynced получает отменённые бронирования, у которых ещё есть
// событие во внешнем календаре (его нужно удалить)
func (r *BookingRepository) ListCanceledSynced(ctx context.Context, limit int) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE calendar_event_id IS NOT NULL
		  AND status = 'canceled'
		ORDER BY updated_at
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list canceled synced bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// SetCalendarEventID сохраняет ID события внешнего календаря
func (r *BookingRepository) SetCalendarEventID(ctx context.Context, id int64, eventID *string) error {
	query := `
		UPDATE bookings
		SET calendar_event_id = $2, updated_at = now()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, eventID); err != nil {
		return fmt.Errorf("set calendar event id: %w", err)
	}

	return nil
}

// MarkPastCompleted переводит прошедшие подтверждённые занятия в completed
func (r *BookingRepository) MarkPastCompleted(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = now()
		WHERE status IN ('confirmed', 'rescheduled')
		  AND start_time + (duration_minutes || ' minutes')::interval <= $1
	`

	result, err := r.pool.Exec(ctx, query, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark past bookings completed: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.StartTime,
		&booking.DurationMinutes,
		&booking.Price,
		&booking.Status,
		&booking.Notes,
		&booking.RescheduleCount,
		&booking.OriginalStart,
		&booking.CommitmentID,
		&booking.CalendarEventID,
		&booking.CancelReason,
		&booking.CanceledAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func scanBookings(rows pgx.Rows) ([]*model.Booking, error) {
	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

// isUniqueViolation проверяет ошибку на нарушение уникального ограничения
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
