package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SyncLogRepository struct {
	pool *pgxpool.Pool
}

func NewSyncLogRepository(pool *pgxpool.Pool) *SyncLogRepository {
	return &SyncLogRepository{pool: pool}
}

// Create пишет запись в журнал синхронизации
func (r *SyncLogRepository) Create(ctx context.Context, entry *model.CalendarSyncLog) error {
	query := `
		INSERT INTO calendar_sync_log (booking_id, action, outcome, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, entry.BookingID, entry.Action, entry.Outcome, entry.Message).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create sync log entry: %w", err)
	}

	return nil
}

// ListRecent получает последние записи журнала
func (r *SyncLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.CalendarSyncLog, error) {
	query := `
		SELECT id, booking_id, action, outcome, message, created_at
		FROM calendar_sync_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync log entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.CalendarSyncLog
	for rows.Next() {
		var e model.CalendarSyncLog
		err := rows.Scan(&e.ID, &e.BookingID, &e.Action, &e.Outcome, &e.Message, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan sync log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, nil
}
