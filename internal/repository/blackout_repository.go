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

type BlackoutRepository struct {
	pool *pgxpool.Pool
}

func NewBlackoutRepository(pool *pgxpool.Pool) *BlackoutRepository {
	return &BlackoutRepository{pool: pool}
}

// Create создаёт blackout-период
func (r *BlackoutRepository) Create(ctx context.Context, b *model.BlackoutRange) error {
	query := `
		INSERT INTO blackout_ranges (start_date, end_date, reason)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, b.StartDate, b.EndDate, b.Reason).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create blackout range: %w", err)
	}

	return nil
}

// List получает все blackout-периоды
func (r *BlackoutRepository) List(ctx context.Context) ([]*model.BlackoutRange, error) {
	query := `
		SELECT id, start_date, end_date, reason, created_at
		FROM blackout_ranges
		ORDER BY start_date
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list blackout ranges: %w", err)
	}
	defer rows.Close()

	var ranges []*model.BlackoutRange
	for rows.Next() {
		var b model.BlackoutRange
		if err := rows.Scan(&b.ID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan blackout range: %w", err)
		}
		ranges = append(ranges, &b)
	}

	return ranges, nil
}

// FindCovering ищет blackout-период, в который попадает дата.
// Календарный день берётся из зоны переданного значения: вызывающая
// сторона передаёт время уже в часах студии, а приведение timestamptz
// к date на стороне БД зависело бы от зоны сервера.
func (r *BlackoutRepository) FindCovering(ctx context.Context, date time.Time) (*model.BlackoutRange, error) {
	query := `
		SELECT id, start_date, end_date, reason, created_at
		FROM blackout_ranges
		WHERE start_date <= $1::date AND end_date >= $1::date
		LIMIT 1
	`

	var b model.BlackoutRange
	err := r.pool.QueryRow(ctx, query, date.Format("2006-01-02")).
		Scan(&b.ID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find covering blackout range: %w", err)
	}

	return &b, nil
}

// ListBetween получает blackout-периоды, пересекающие интервал дат
func (r *BlackoutRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*model.BlackoutRange, error) {
	query := `
		SELECT id, start_date, end_date, reason, created_at
		FROM blackout_ranges
		WHERE start_date <= $2::date AND end_date >= $1::date
		ORDER BY start_date
	`

	rows, err := r.pool.Query(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list blackout ranges between: %w", err)
	}
	defer rows.Close()

	var ranges []*model.BlackoutRange
	for rows.Next() {
		var b model.BlackoutRange
		if err := rows.Scan(&b.ID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan blackout range: %w", err)
		}
		ranges = append(ranges, &b)
	}

	return ranges, nil
}
