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

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create создаёт субботнюю сессию
func (r *SessionRepository) Create(ctx context.Context, s *model.SaturdaySession) error {
	query := `
		INSERT INTO saturday_sessions (start_time, duration_minutes, max_participants, current_participants)
		VALUES ($1, $2, $3, 0)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, s.StartTime, s.DurationMinutes, s.MaxParticipants).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create saturday session: %w", err)
	}

	s.CurrentParticipants = 0
	return nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.SaturdaySession, error) {
	query := `
		SELECT id, start_time, duration_minutes, max_participants, current_participants, created_at
		FROM saturday_sessions
		WHERE id = $1
	`

	var s model.SaturdaySession
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.StartTime,
		&s.DurationMinutes,
		&s.MaxParticipants,
		&s.CurrentParticipants,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get saturday session by id: %w", err)
	}

	return &s, nil
}

// ListUpcoming получает будущие сессии
func (r *SessionRepository) ListUpcoming(ctx context.Context, from time.Time) ([]*model.SaturdaySession, error) {
	query := `
		SELECT id, start_time, duration_minutes, max_participants, current_participants, created_at
		FROM saturday_sessions
		WHERE start_time >= $1
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("list upcoming saturday sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.SaturdaySession
	for rows.Next() {
		var s model.SaturdaySession
		err := rows.Scan(&s.ID, &s.StartTime, &s.DurationMinutes,
			&s.MaxParticipants, &s.CurrentParticipants, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan saturday session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	return sessions, nil
}

// Join занимает место в сессии. Проверка вместимости и инкремент —
// один условный UPDATE, параллельные записи на последнее место не проходят обе.
func (r *SessionRepository) Join(ctx context.Context, id int64) error {
	query := `
		UPDATE saturday_sessions
		SET current_participants = current_participants + 1
		WHERE id = $1 AND current_participants < max_participants
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("join saturday session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSessionFull
	}

	return nil
}

// Leave освобождает место в сессии
func (r *SessionRepository) Leave(ctx context.Context, id int64) error {
	query := `
		UPDATE saturday_sessions
		SET current_participants = current_participants - 1
		WHERE id = $1 AND current_participants > 0
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("leave saturday session: %w", err)
	}

	return nil
}
