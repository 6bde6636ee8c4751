package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Load читает бизнес-настройки студии и таблицу цен.
// Отсутствие обязательного ключа или пустая таблица цен — фатальная ошибка
// конфигурации: без настроек сервис не стартует.
func (r *SettingsRepository) Load(ctx context.Context, location *time.Location) (*model.StudioSettings, error) {
	values, err := r.loadKeyValues(ctx)
	if err != nil {
		return nil, err
	}

	settings := &model.StudioSettings{Location: location}

	intKeys := []struct {
		key  string
		dest *int
	}{
		{"business_hours_start", &settings.BusinessHoursStart},
		{"business_hours_end", &settings.BusinessHoursEnd},
		{"slot_step_minutes", &settings.SlotStepMinutes},
		{"cancellation_policy_hours", &settings.CancellationPolicyHours},
		{"max_reschedules_per_month", &settings.MaxReschedulesPerMonth},
		{"max_pending_makeups", &settings.MaxPendingMakeups},
		{"min_advance_notice_hours", &settings.MinAdvanceNoticeHours},
	}

	for _, item := range intKeys {
		raw, ok := values[item.key]
		if !ok {
			return nil, fmt.Errorf("required setting %q is missing", item.key)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("setting %q is not a number: %w", item.key, err)
		}
		*item.dest = n
	}

	settings.AcademicYearStart, err = parseDateSetting(values, "academic_year_start", location)
	if err != nil {
		return nil, err
	}

	settings.AcademicYearEnd, err = parseDateSetting(values, "academic_year_end", location)
	if err != nil {
		return nil, err
	}

	settings.Prices, err = r.loadPrices(ctx)
	if err != nil {
		return nil, err
	}

	return settings, nil
}

func (r *SettingsRepository) loadKeyValues(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}

	return values, nil
}

func (r *SettingsRepository) loadPrices(ctx context.Context) (map[int]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT duration_minutes, price FROM lesson_prices`)
	if err != nil {
		return nil, fmt.Errorf("load lesson prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[int]decimal.Decimal)
	for rows.Next() {
		var duration int
		var price decimal.Decimal
		if err := rows.Scan(&duration, &price); err != nil {
			return nil, fmt.Errorf("scan lesson price: %w", err)
		}
		prices[duration] = price
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("lesson price table is empty")
	}

	return prices, nil
}

func parseDateSetting(values map[string]string, key string, location *time.Location) (time.Time, error) {
	raw, ok := values[key]
	if !ok {
		return time.Time{}, fmt.Errorf("required setting %q is missing", key)
	}

	date, err := time.ParseInLocation("2006-01-02", raw, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("setting %q is not a date: %w", key, err)
	}

	return date, nil
}
