package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

// Slot представляет кандидата на время занятия в выдаче резолвера
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"` // booked | busy | blackout
}

type AvailabilityService struct {
	settings     *model.StudioSettings
	bookingRepo  *repository.BookingRepository
	blackoutRepo *repository.BlackoutRepository
	busyRepo     *repository.BusyIntervalRepository
	logger       *zap.Logger
}

func NewAvailabilityService(
	settings *model.StudioSettings,
	bookingRepo *repository.BookingRepository,
	blackoutRepo *repository.BlackoutRepository,
	busyRepo *repository.BusyIntervalRepository,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		settings:     settings,
		bookingRepo:  bookingRepo,
		blackoutRepo: blackoutRepo,
		busyRepo:     busyRepo,
		logger:       logger,
	}
}

// Resolve строит сетку слотов на дату для заданной длительности.
// Чистое чтение: ничего не резервирует и не мутирует.
func (s *AvailabilityService) Resolve(ctx context.Context, date time.Time, durationMinutes int) ([]Slot, error) {
	if !s.settings.AllowedDuration(durationMinutes) {
		return nil, validationErr("duration_minutes", "duration %d is not offered", durationMinutes)
	}

	date = date.In(s.settings.Location)

	dayStart := time.Date(date.Year(), date.Month(), date.Day(),
		s.settings.BusinessHoursStart, 0, 0, 0, s.settings.Location)
	dayEnd := time.Date(date.Year(), date.Month(), date.Day(),
		s.settings.BusinessHoursEnd, 0, 0, 0, s.settings.Location)

	bookings, err := s.bookingRepo.ListActiveBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	busy, err := s.busyRepo.ListBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load busy intervals: %w", err)
	}

	blackouts, err := s.blackoutRepo.ListBetween(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("load blackout ranges: %w", err)
	}

	slots := resolveSlots(s.settings, date, durationMinutes, bookings, busy, blackouts)

	s.logger.Debug("Availability resolved",
		zap.Time("date", date),
		zap.Int("duration_minutes", durationMinutes),
		zap.Int("slots", len(slots)),
	)

	return slots, nil
}

// ListBlackouts отдаёт все blackout-периоды
func (s *AvailabilityService) ListBlackouts(ctx context.Context) ([]*model.BlackoutRange, error) {
	return s.blackoutRepo.List(ctx)
}

// CreateBlackout создаёт blackout-период
func (s *AvailabilityService) CreateBlackout(ctx context.Context, startDate, endDate time.Time, reason string) (*model.BlackoutRange, error) {
	if endDate.Before(startDate) {
		return nil, validationErr("end_date", "end date is before start date")
	}

	blackout := &model.BlackoutRange{
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    reason,
	}
	if err := s.blackoutRepo.Create(ctx, blackout); err != nil {
		return nil, fmt.Errorf("create blackout range: %w", err)
	}

	s.logger.Info("Blackout range created",
		zap.Int64("blackout_id", blackout.ID),
		zap.Time("start_date", startDate),
		zap.Time("end_date", endDate),
	)

	return blackout, nil
}

// resolveSlots — чистое ядро резолвера: вся загрузка данных снаружи.
// Кандидаты идут с фиксированным шагом по рабочим часам; слот, конец
// которого вылезает за закрытие, не попадает в выдачу вовсе.
func resolveSlots(
	settings *model.StudioSettings,
	date time.Time,
	durationMinutes int,
	bookings []*model.Booking,
	busy []*model.BusyInterval,
	blackouts []*model.BlackoutRange,
) []Slot {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(),
		settings.BusinessHoursStart, 0, 0, 0, settings.Location)
	dayEnd := time.Date(date.Year(), date.Month(), date.Day(),
		settings.BusinessHoursEnd, 0, 0, 0, settings.Location)

	step := time.Duration(settings.SlotStepMinutes) * time.Minute
	duration := time.Duration(durationMinutes) * time.Minute

	inBlackout := coveredByBlackout(date, blackouts)

	var slots []Slot
	for start := dayStart; !start.After(dayEnd); start = start.Add(step) {
		end := start.Add(duration)
		if end.After(dayEnd) {
			break
		}

		slot := Slot{Start: start, End: end, Available: true}

		switch {
		case inBlackout:
			slot.Available = false
			slot.Reason = "blackout"
		case overlapsBooking(start, end, bookings):
			slot.Available = false
			slot.Reason = "booked"
		case overlapsBusy(start, end, busy):
			slot.Available = false
			slot.Reason = "busy"
		}

		slots = append(slots, slot)
	}

	return slots
}

func coveredByBlackout(date time.Time, blackouts []*model.BlackoutRange) bool {
	for _, b := range blackouts {
		if b.Contains(date) {
			return true
		}
	}
	return false
}

// Строгое пересечение интервалов: границы впритык не конфликтуют
func intervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func overlapsBooking(start, end time.Time, bookings []*model.Booking) bool {
	for _, b := range bookings {
		if b.Status.IsTerminal() {
			continue
		}
		if intervalsOverlap(start, end, b.StartTime, b.EndTime()) {
			return true
		}
	}
	return false
}

func overlapsBusy(start, end time.Time, busy []*model.BusyInterval) bool {
	for _, interval := range busy {
		if intervalsOverlap(start, end, interval.StartTime, interval.EndTime) {
			return true
		}
	}
	return false
}
