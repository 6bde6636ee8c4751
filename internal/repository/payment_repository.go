package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create создаёт платёжную запись
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (booking_id, client_id, amount, kind, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, p.BookingID, p.ClientID, p.Amount, p.Kind, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

// UpdateStatusByBooking обновляет статус платежа заданного типа по бронированию.
// Запись могла не появиться (её создание не блокирует бронирование),
// поэтому нулевое число затронутых строк — различимая ошибка, не no-op.
func (r *PaymentRepository) UpdateStatusByBooking(ctx context.Context, bookingID int64, kind model.PaymentKind, status model.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $3, updated_at = now()
		WHERE booking_id = $1 AND kind = $2 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, bookingID, kind, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

// ListByBooking получает все платежи бронирования
func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*model.Payment, error) {
	query := `
		SELECT id, booking_id, client_id, amount, kind, status, created_at, updated_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list payments by booking: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		var p model.Payment
		err := rows.Scan(&p.ID, &p.BookingID, &p.ClientID, &p.Amount, &p.Kind,
			&p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, &p)
	}

	return payments, nil
}
