package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BusyIntervalRepository struct {
	pool *pgxpool.Pool
}

func NewBusyIntervalRepository(pool *pgxpool.Pool) *BusyIntervalRepository {
	return &BusyIntervalRepository{pool: pool}
}

// ReplaceWindow заменяет кеш busy-интервалов в окне [from, to) свежими данными.
// Удаление и вставка идут одной транзакцией, чтобы резолвер не увидел
// полупустое окно.
func (r *BusyIntervalRepository) ReplaceWindow(ctx context.Context, from, to time.Time, intervals []model.BusyInterval) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM busy_intervals WHERE start_time >= $1 AND start_time < $2`,
		from, to)
	if err != nil {
		return fmt.Errorf("clear busy intervals window: %w", err)
	}

	query := `
		INSERT INTO busy_intervals (start_time, end_time, fetched_at)
		VALUES ($1, $2, now())
	`

	for _, interval := range intervals {
		if _, err := tx.Exec(ctx, query, interval.StartTime, interval.EndTime); err != nil {
			return fmt.Errorf("insert busy interval: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListBetween получает busy-интервалы, пересекающие окно [from, to)
func (r *BusyIntervalRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*model.BusyInterval, error) {
	query := `
		SELECT id, start_time, end_time, fetched_at
		FROM busy_intervals
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list busy intervals: %w", err)
	}
	defer rows.Close()

	var intervals []*model.BusyInterval
	for rows.Next() {
		var interval model.BusyInterval
		err := rows.Scan(&interval.ID, &interval.StartTime, &interval.EndTime, &interval.FetchedAt)
		if err != nil {
			return nil, fmt.Errorf("scan busy interval: %w", err)
		}
		intervals = append(intervals, &interval)
	}

	return intervals, nil
}
