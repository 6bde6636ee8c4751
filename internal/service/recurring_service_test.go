package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommitment(frequency model.CommitmentFrequency) *model.RecurringCommitment {
	return &model.RecurringCommitment{
		ID:              7,
		SeriesID:        uuid.New(),
		ClientID:        1,
		DurationMinutes: 60,
		Price:           decimal.NewFromInt(1500),
		Weekday:         1, // Понедельник
		StartHour:       14,
		StartMinute:     0,
		Frequency:       frequency,
		StartDate:       time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		Status:          model.CommitmentStatusActive,
	}
}

func TestBuildBillingCyclesWeekly(t *testing.T) {
	commitment := testCommitment(model.FrequencyWeekly)

	cycles := buildBillingCycles(commitment)

	// Сентябрь 2025 .. май 2026 — девять календарных месяцев
	require.Len(t, cycles, 9)

	first := cycles[0]
	assert.Equal(t, 9, first.Month)
	assert.Equal(t, 2025, first.Year)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), first.BillingDate)
	assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), first.DueDate)

	last := cycles[len(cycles)-1]
	assert.Equal(t, 5, last.Month)
	assert.Equal(t, 2026, last.Year)

	for _, cycle := range cycles {
		assert.Equal(t, int64(7), cycle.CommitmentID)
		assert.Equal(t, 4, cycle.LessonsCount)
		assert.True(t, cycle.TotalAmount.Equal(decimal.NewFromInt(6000)),
			"total %s for %d-%02d", cycle.TotalAmount, cycle.Year, cycle.Month)
		assert.Equal(t, model.BillingStatusPending, cycle.Status)
	}
}

func TestBuildBillingCyclesBiweekly(t *testing.T) {
	commitment := testCommitment(model.FrequencyBiweekly)

	cycles := buildBillingCycles(commitment)

	require.Len(t, cycles, 9)
	for _, cycle := range cycles {
		assert.Equal(t, 2, cycle.LessonsCount)
		assert.True(t, cycle.TotalAmount.Equal(decimal.NewFromInt(3000)))
	}
}

func TestBuildBillingCyclesSingleMonth(t *testing.T) {
	commitment := testCommitment(model.FrequencyWeekly)
	commitment.StartDate = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	cycles := buildBillingCycles(commitment)

	require.Len(t, cycles, 1)
	assert.Equal(t, 5, cycles[0].Month)
	assert.Equal(t, 2026, cycles[0].Year)
}

func TestOccurrenceTimesWeekly(t *testing.T) {
	commitment := testCommitment(model.FrequencyWeekly)
	commitment.StartDate = time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC) // Понедельник

	from := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	times := occurrenceTimes(commitment, from, 4, time.UTC)

	require.Len(t, times, 4)
	assert.Equal(t, time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC), times[1])
	assert.Equal(t, time.Date(2025, 11, 17, 14, 0, 0, 0, time.UTC), times[2])
	assert.Equal(t, time.Date(2025, 11, 24, 14, 0, 0, 0, time.UTC), times[3])
}

func TestOccurrenceTimesBiweekly(t *testing.T) {
	commitment := testCommitment(model.FrequencyBiweekly)
	commitment.StartDate = time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)

	from := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	times := occurrenceTimes(commitment, from, 4, time.UTC)

	require.Len(t, times, 2)
	assert.Equal(t, time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2025, 11, 17, 14, 0, 0, 0, time.UTC), times[1])
}

func TestOccurrenceTimesRespectsSeriesBounds(t *testing.T) {
	commitment := testCommitment(model.FrequencyWeekly)
	commitment.StartDate = time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	commitment.EndDate = time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)

	from := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	times := occurrenceTimes(commitment, from, 8, time.UTC)

	// До start_date и после end_date вхождений нет
	require.Len(t, times, 2)
	assert.Equal(t, time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2025, 11, 17, 14, 0, 0, 0, time.UTC), times[1])
}

func TestOccurrenceTimesSkipsPastTimes(t *testing.T) {
	commitment := testCommitment(model.FrequencyWeekly)
	commitment.StartDate = time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)

	// Запуск в понедельник после времени занятия: сегодняшнее вхождение
	// уже прошло
	from := time.Date(2025, 11, 3, 16, 0, 0, 0, time.UTC)
	times := occurrenceTimes(commitment, from, 2, time.UTC)

	require.NotEmpty(t, times)
	assert.Equal(t, time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC), times[0])
}
