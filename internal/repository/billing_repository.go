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

type BillingRepository struct {
	pool *pgxpool.Pool
}

func NewBillingRepository(pool *pgxpool.Pool) *BillingRepository {
	return &BillingRepository{pool: pool}
}

// CreateBatch вставляет все billing cycles серии одной транзакцией.
// Частичной генерации не бывает: ошибка на любом месяце откатывает всё.
func (r *BillingRepository) CreateBatch(ctx context.Context, tx pgx.Tx, cycles []*model.BillingCycle) error {
	query := `
		INSERT INTO billing_cycles
			(commitment_id, month, year, lessons_count, total_amount, status, billing_date, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	for _, cycle := range cycles {
		err := tx.QueryRow(
			ctx, query,
			cycle.CommitmentID,
			cycle.Month,
			cycle.Year,
			cycle.LessonsCount,
			cycle.TotalAmount,
			cycle.Status,
			cycle.BillingDate,
			cycle.DueDate,
		).Scan(&cycle.ID, &cycle.CreatedAt)

		if err != nil {
			return fmt.Errorf("create billing cycle %d-%02d: %w", cycle.Year, cycle.Month, err)
		}
	}

	return nil
}

// GetByID получает billing cycle по ID
func (r *BillingRepository) GetByID(ctx context.Context, id int64) (*model.BillingCycle, error) {
	query := `
		SELECT id, commitment_id, month, year, lessons_count, total_amount, status,
		       billing_date, due_date, paid_at, created_at
		FROM billing_cycles
		WHERE id = $1
	`

	cycle, err := scanBillingCycle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get billing cycle by id: %w", err)
	}

	return cycle, nil
}

// ListByCommitment получает все billing cycles серии
func (r *BillingRepository) ListByCommitment(ctx context.Context, commitmentID int64) ([]*model.BillingCycle, error) {
	query := `
		SELECT id, commitment_id, month, year, lessons_count, total_amount, status,
		       billing_date, due_date, paid_at, created_at
		FROM billing_cycles
		WHERE commitment_id = $1
		ORDER BY year, month
	`

	rows, err := r.pool.Query(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("list billing cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*model.BillingCycle
	for rows.Next() {
		cycle, err := scanBillingCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing cycle: %w", err)
		}
		cycles = append(cycles, cycle)
	}

	return cycles, nil
}

// MarkPaid отмечает счёт оплаченным (подтверждение админа)
func (r *BillingRepository) MarkPaid(ctx context.Context, id int64) error {
	query := `
		UPDATE billing_cycles
		SET status = 'paid', paid_at = now()
		WHERE id = $1 AND status IN ('pending', 'overdue')
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark billing cycle paid: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("billing cycle not found or not payable")
	}

	return nil
}

// MarkOverdue переводит просроченные счета в overdue. Вызывается ежедневно.
func (r *BillingRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE billing_cycles
		SET status = 'overdue'
		WHERE status = 'pending' AND due_date < $1
	`

	result, err := r.pool.Exec(ctx, query, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark billing cycles overdue: %w", err)
	}

	return result.RowsAffected(), nil
}

// CancelByCommitment отменяет неоплаченные счета отменённой серии
func (r *BillingRepository) CancelByCommitment(ctx context.Context, commitmentID int64) (int64, error) {
	query := `
		UPDATE billing_cycles
		SET status = 'canceled'
		WHERE commitment_id = $1 AND status IN ('pending', 'overdue')
	`

	result, err := r.pool.Exec(ctx, query, commitmentID)
	if err != nil {
		return 0, fmt.Errorf("cancel billing cycles: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanBillingCycle(row pgx.Row) (*model.BillingCycle, error) {
	var cycle model.BillingCycle
	err := row.Scan(
		&cycle.ID,
		&cycle.CommitmentID,
		&cycle.Month,
		&cycle.Year,
		&cycle.LessonsCount,
		&cycle.TotalAmount,
		&cycle.Status,
		&cycle.BillingDate,
		&cycle.DueDate,
		&cycle.PaidAt,
		&cycle.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}
