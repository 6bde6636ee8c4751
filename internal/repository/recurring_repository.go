package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commitmentColumns = `id, series_id, client_id, duration_minutes, price, weekday,
		start_hour, start_minute, frequency, start_date, end_date, status, category,
		created_at, updated_at`

type RecurringRepository struct {
	pool *pgxpool.Pool
}

func NewRecurringRepository(pool *pgxpool.Pool) *RecurringRepository {
	return &RecurringRepository{pool: pool}
}

// Create создаёт commitment внутри переданной транзакции.
// Вызывается вместе с генерацией billing cycles: либо всё, либо ничего.
func (r *RecurringRepository) Create(ctx context.Context, tx pgx.Tx, c *model.RecurringCommitment) error {
	query := `
		INSERT INTO recurring_commitments
			(series_id, client_id, duration_minutes, price, weekday, start_hour,
			 start_minute, frequency, start_date, end_date, status, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx, query,
		c.SeriesID,
		c.ClientID,
		c.DurationMinutes,
		c.Price,
		c.Weekday,
		c.StartHour,
		c.StartMinute,
		c.Frequency,
		c.StartDate,
		c.EndDate,
		c.Status,
		c.Category,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create recurring commitment: %w", err)
	}

	return nil
}

// GetByID получает commitment по ID
func (r *RecurringRepository) GetByID(ctx context.Context, id int64) (*model.RecurringCommitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM recurring_commitments WHERE id = $1`

	commitment, err := scanCommitment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring commitment by id: %w", err)
	}

	return commitment, nil
}

// ListActive получает все активные commitments
func (r *RecurringRepository) ListActive(ctx context.Context) ([]*model.RecurringCommitment, error) {
	query := `
		SELECT ` + commitmentColumns + `
		FROM recurring_commitments
		WHERE status = 'active'
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active commitments: %w", err)
	}
	defer rows.Close()

	return scanCommitments(rows)
}

// ListByClient получает все commitments клиента
func (r *RecurringRepository) ListByClient(ctx context.Context, clientID int64) ([]*model.RecurringCommitment, error) {
	query := `
		SELECT ` + commitmentColumns + `
		FROM recurring_commitments
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list commitments by client: %w", err)
	}
	defer rows.Close()

	return scanCommitments(rows)
}

// UpdateStatus обновляет статус commitment. Жёсткого удаления нет:
// отменённые и завершённые серии остаются в истории.
func (r *RecurringRepository) UpdateStatus(ctx context.Context, id int64, status model.CommitmentStatus) error {
	query := `
		UPDATE recurring_commitments
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update commitment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("recurring commitment not found")
	}

	return nil
}

func scanCommitment(row pgx.Row) (*model.RecurringCommitment, error) {
	var c model.RecurringCommitment
	err := row.Scan(
		&c.ID,
		&c.SeriesID,
		&c.ClientID,
		&c.DurationMinutes,
		&c.Price,
		&c.Weekday,
		&c.StartHour,
		&c.StartMinute,
		&c.Frequency,
		&c.StartDate,
		&c.EndDate,
		&c.Status,
		&c.Category,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCommitments(rows pgx.Rows) ([]*model.RecurringCommitment, error) {
	var commitments []*model.RecurringCommitment
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring commitment: %w", err)
		}
		commitments = append(commitments, c)
	}
	return commitments, nil
}
