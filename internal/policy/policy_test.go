package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(time.UTC, 24, 2, 2)
}

func TestFreeCancellationBoundary(t *testing.T) {
	e := newTestEngine()
	lessonStart := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{
			name:    "well outside window",
			now:     lessonStart.Add(-72 * time.Hour),
			allowed: true,
		},
		{
			name:    "exactly at boundary",
			now:     lessonStart.Add(-24 * time.Hour),
			allowed: true,
		},
		{
			name:    "one second inside window",
			now:     lessonStart.Add(-24*time.Hour + time.Second),
			allowed: false,
		},
		{
			name:    "one hour before lesson",
			now:     lessonStart.Add(-time.Hour),
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.FreeCancellation(tt.now, lessonStart)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestRescheduleSameMonth(t *testing.T) {
	e := newTestEngine()

	original := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)

	d := e.Reschedule(original, time.Date(2025, 11, 20, 16, 0, 0, 0, time.UTC), 0)
	assert.True(t, d.Allowed)

	// Последний день месяца -> первый день следующего: запрещено
	// независимо от оставшегося лимита
	lastDay := time.Date(2025, 11, 30, 18, 0, 0, 0, time.UTC)
	d = e.Reschedule(lastDay, time.Date(2025, 12, 1, 18, 0, 0, 0, time.UTC), 0)
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "same calendar month")

	// Тот же месяц, но другой год
	d = e.Reschedule(original, time.Date(2026, 11, 10, 14, 0, 0, 0, time.UTC), 0)
	assert.False(t, d.Allowed)
}

func TestRescheduleComparesMonthsByStudioClock(t *testing.T) {
	studio := time.FixedZone("MSK", 3*60*60)
	e := NewEngine(studio, 24, 2, 2)

	// 30 ноября 21:30 UTC — это уже 1 декабря 00:30 по часам студии,
	// перенос на 15 декабря остаётся в том же месяце
	original := time.Date(2025, 11, 30, 21, 30, 0, 0, time.UTC)
	newStart := time.Date(2025, 12, 15, 14, 0, 0, 0, studio)

	d := e.Reschedule(original, newStart, 0)
	require.True(t, d.Allowed, "both instants fall in December studio time: %s", d.Reason)

	// И наоборот: по UTC месяцы совпадают, по часам студии — нет
	d = e.Reschedule(
		time.Date(2025, 11, 30, 20, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 22, 0, 0, 0, time.UTC),
		0,
	)
	assert.False(t, d.Allowed)
}

func TestRescheduleMonthlyQuota(t *testing.T) {
	e := newTestEngine()

	original := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)
	newStart := time.Date(2025, 11, 17, 14, 0, 0, 0, time.UTC)

	d := e.Reschedule(original, newStart, 1)
	assert.True(t, d.Allowed)

	d = e.Reschedule(original, newStart, 2)
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "limit")
}

func TestMakeupCap(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.Makeup(0).Allowed)
	assert.True(t, e.Makeup(1).Allowed)
	assert.False(t, e.Makeup(2).Allowed)
	assert.False(t, e.Makeup(3).Allowed)
}

func TestRefundOnlyForInstructorCancellations(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.Refund(CancelByInstructor).Allowed)
	assert.False(t, e.Refund(CancelByClient).Allowed)
}
