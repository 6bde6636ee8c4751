package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() *model.StudioSettings {
	return &model.StudioSettings{
		BusinessHoursStart:      9,
		BusinessHoursEnd:        18,
		SlotStepMinutes:         30,
		Prices:                  map[int]decimal.Decimal{60: decimal.NewFromInt(1500), 90: decimal.NewFromInt(2100)},
		CancellationPolicyHours: 24,
		MaxReschedulesPerMonth:  2,
		MaxPendingMakeups:       2,
		MinAdvanceNoticeHours:   2,
		AcademicYearStart:       time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		AcademicYearEnd:         time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		Location:                time.UTC,
	}
}

func TestResolveSlotsOpenDay(t *testing.T) {
	settings := testSettings()
	date := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	slots := resolveSlots(settings, date, 60, nil, nil, nil)

	// 9:00..17:00 с шагом 30 минут: 17 кандидатов, последний кончается
	// ровно в закрытие
	require.Len(t, slots, 17)

	for _, slot := range slots {
		assert.True(t, slot.Available, "slot %s should be available", slot.Start)
	}

	first := slots[0]
	assert.Equal(t, time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC), first.End)

	last := slots[len(slots)-1]
	assert.Equal(t, time.Date(2025, 11, 10, 17, 0, 0, 0, time.UTC), last.Start)
	assert.Equal(t, time.Date(2025, 11, 10, 18, 0, 0, 0, time.UTC), last.End)
}

func TestResolveSlotsExcludesSlotsCrossingClose(t *testing.T) {
	settings := testSettings()
	date := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	slots := resolveSlots(settings, date, 90, nil, nil, nil)
	require.NotEmpty(t, slots)

	// 90-минутный слот в 17:00 закончился бы в 18:30 — его нет в выдаче
	last := slots[len(slots)-1]
	assert.Equal(t, time.Date(2025, 11, 10, 16, 30, 0, 0, time.UTC), last.Start)
	assert.Equal(t, time.Date(2025, 11, 10, 18, 0, 0, 0, time.UTC), last.End)
}

func TestResolveSlotsMarksBookedOverlap(t *testing.T) {
	settings := testSettings()
	date := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	booking := &model.Booking{
		StartTime:       time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.BookingStatusConfirmed,
	}

	slots := resolveSlots(settings, date, 60, []*model.Booking{booking}, nil, nil)

	byStart := make(map[string]Slot)
	for _, slot := range slots {
		byStart[slot.Start.Format("15:04")] = slot
	}

	// Строгое пересечение: 13:00-14:00 впритык к брони свободен
	assert.True(t, byStart["13:00"].Available)
	assert.False(t, byStart["13:30"].Available)
	assert.False(t, byStart["14:00"].Available)
	assert.False(t, byStart["14:30"].Available)
	assert.True(t, byStart["15:00"].Available)

	assert.Equal(t, "booked", byStart["14:00"].Reason)
}

func TestResolveSlotsIgnoresTerminalBookings(t *testing.T) {
	settings := testSettings()
	date := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	canceled := &model.Booking{
		StartTime:       time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.BookingStatusCanceled,
	}

	slots := resolveSlots(settings, date, 60, []*model.Booking{canceled}, nil, nil)

	for _, slot := range slots {
		assert.True(t, slot.Available)
	}
}

func TestResolveSlotsMarksBusyIntervals(t *testing.T) {
	settings := testSettings()
	date := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	busy := &model.BusyInterval{
		StartTime: time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 11, 10, 11, 0, 0, 0, time.UTC),
	}

	slots := resolveSlots(settings, date, 60, nil, []*model.BusyInterval{busy}, nil)

	byStart := make(map[string]Slot)
	for _, slot := range slots {
		byStart[slot.Start.Format("15:04")] = slot
	}

	assert.False(t, byStart["10:00"].Available)
	assert.Equal(t, "busy", byStart["10:00"].Reason)
	assert.True(t, byStart["11:00"].Available)
}

func TestResolveSlotsBlackoutCoversWholeDay(t *testing.T) {
	settings := testSettings()
	date := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)

	blackout := &model.BlackoutRange{
		StartDate: time.Date(2025, 11, 24, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 29, 0, 0, 0, 0, time.UTC),
		Reason:    "winter break",
	}

	slots := resolveSlots(settings, date, 60, nil, nil, []*model.BlackoutRange{blackout})
	require.NotEmpty(t, slots)

	for _, slot := range slots {
		assert.False(t, slot.Available)
		assert.Equal(t, "blackout", slot.Reason)
	}

	// День за границей периода открыт
	after := time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)
	slots = resolveSlots(settings, after, 60, nil, nil, []*model.BlackoutRange{blackout})
	for _, slot := range slots {
		assert.True(t, slot.Available)
	}
}

func TestResolveSlotsIsDeterministic(t *testing.T) {
	settings := testSettings()
	date := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	booking := &model.Booking{
		StartTime:       time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.BookingStatusPending,
	}

	first := resolveSlots(settings, date, 60, []*model.Booking{booking}, nil, nil)
	second := resolveSlots(settings, date, 60, []*model.Booking{booking}, nil, nil)

	assert.Equal(t, first, second)
}
