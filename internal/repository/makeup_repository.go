package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MakeupRepository struct {
	pool *pgxpool.Pool
}

func NewMakeupRepository(pool *pgxpool.Pool) *MakeupRepository {
	return &MakeupRepository{pool: pool}
}

// Create создаёт заявку на отработку
func (r *MakeupRepository) Create(ctx context.Context, m *model.MakeupRequest) error {
	query := `
		INSERT INTO makeup_requests (client_id, booking_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, m.ClientID, m.BookingID, m.Status).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create makeup request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *MakeupRepository) GetByID(ctx context.Context, id int64) (*model.MakeupRequest, error) {
	query := `
		SELECT id, client_id, booking_id, status, session_id, scheduled_at, created_at, updated_at
		FROM makeup_requests
		WHERE id = $1
	`

	var m model.MakeupRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.ClientID,
		&m.BookingID,
		&m.Status,
		&m.SessionID,
		&m.ScheduledAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get makeup request by id: %w", err)
	}

	return &m, nil
}

// CountPendingByClient считает pending-заявки клиента
func (r *MakeupRepository) CountPendingByClient(ctx context.Context, clientID int64) (int, error) {
	query := `
		SELECT count(*)
		FROM makeup_requests
		WHERE client_id = $1 AND status = 'pending'
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, clientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending makeup requests: %w", err)
	}

	return count, nil
}

// Schedule назначает заявке время отработки и, опционально, субботнюю сессию
func (r *MakeupRepository) Schedule(ctx context.Context, id int64, sessionID *int64, scheduledAt time.Time) error {
	query := `
		UPDATE makeup_requests
		SET status = 'scheduled', session_id = $2, scheduled_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, id, sessionID, scheduledAt)
	if err != nil {
		return fmt.Errorf("schedule makeup request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("makeup request not found or not pending")
	}

	return nil
}

// UpdateStatus обновляет статус заявки
func (r *MakeupRepository) UpdateStatus(ctx context.Context, id int64, status model.MakeupStatus) error {
	query := `
		UPDATE makeup_requests
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update makeup request status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("makeup request not found")
	}

	return nil
}

// ExpirePendingBefore переводит старые pending-заявки в expired.
// Вызывается ежедневной задачей после конца учебного года.
func (r *MakeupRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE makeup_requests
		SET status = 'expired', updated_at = now()
		WHERE status = 'pending' AND created_at < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire pending makeup requests: %w", err)
	}

	return result.RowsAffected(), nil
}
