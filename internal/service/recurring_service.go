package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RecurringService struct {
	pool          *pgxpool.Pool
	settings      *model.StudioSettings
	recurringRepo *repository.RecurringRepository
	billingRepo   *repository.BillingRepository
	bookingRepo   *repository.BookingRepository
	blackoutRepo  *repository.BlackoutRepository
	logger        *zap.Logger
}

func NewRecurringService(
	pool *pgxpool.Pool,
	settings *model.StudioSettings,
	recurringRepo *repository.RecurringRepository,
	billingRepo *repository.BillingRepository,
	bookingRepo *repository.BookingRepository,
	blackoutRepo *repository.BlackoutRepository,
	logger *zap.Logger,
) *RecurringService {
	return &RecurringService{
		pool:          pool,
		settings:      settings,
		recurringRepo: recurringRepo,
		billingRepo:   billingRepo,
		bookingRepo:   bookingRepo,
		blackoutRepo:  blackoutRepo,
		logger:        logger,
	}
}

// CreateCommitment создаёт постоянный слот и сразу, в той же транзакции,
// полный набор billing cycles до конца серии. Цена фиксируется из таблицы
// цен один раз; неизвестная длительность отклоняет всё до каких-либо записей.
func (s *RecurringService) CreateCommitment(
	ctx context.Context,
	clientID int64,
	durationMinutes int,
	weekday int,
	startHour, startMinute int,
	frequency model.CommitmentFrequency,
	startDate time.Time,
	category string,
) (*model.RecurringCommitment, error) {
	if weekday < 0 || weekday > 6 {
		return nil, validationErr("weekday", "weekday must be 0-6, got %d", weekday)
	}
	if startHour < 0 || startHour > 23 || startMinute < 0 || startMinute > 59 {
		return nil, validationErr("time", "invalid start time %02d:%02d", startHour, startMinute)
	}
	if frequency != model.FrequencyWeekly && frequency != model.FrequencyBiweekly {
		return nil, validationErr("frequency", "unknown frequency %q", frequency)
	}

	price, ok := s.settings.PriceFor(durationMinutes)
	if !ok {
		return nil, ErrPriceNotConfigured
	}

	commitment := &model.RecurringCommitment{
		SeriesID:        uuid.New(),
		ClientID:        clientID,
		DurationMinutes: durationMinutes,
		Price:           price,
		Weekday:         weekday,
		StartHour:       startHour,
		StartMinute:     startMinute,
		Frequency:       frequency,
		StartDate:       startDate,
		EndDate:         s.settings.AcademicYearEnd, // Конец серии по умолчанию
		Status:          model.CommitmentStatusActive,
		Category:        category,
	}

	if commitment.EndDate.Before(commitment.StartDate) {
		return nil, validationErr("start_date", "start date is after academic year end")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.recurringRepo.Create(ctx, tx, commitment); err != nil {
		return nil, err
	}

	cycles := buildBillingCycles(commitment)
	if err := s.billingRepo.CreateBatch(ctx, tx, cycles); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Recurring commitment created",
		zap.Int64("commitment_id", commitment.ID),
		zap.Int64("client_id", clientID),
		zap.String("frequency", string(frequency)),
		zap.Int("billing_cycles", len(cycles)),
	)

	return commitment, nil
}

// buildBillingCycles строит по одному счёту на каждый календарный месяц серии:
// с первого числа месяца начала по первое число месяца конца включительно.
// Число занятий в месяце — фиксированная константа частоты.
func buildBillingCycles(c *model.RecurringCommitment) []*model.BillingCycle {
	lessons := c.LessonsPerMonth()
	total := c.Price.Mul(decimal.NewFromInt(int64(lessons)))

	first := time.Date(c.StartDate.Year(), c.StartDate.Month(), 1, 0, 0, 0, 0, c.StartDate.Location())
	last := time.Date(c.EndDate.Year(), c.EndDate.Month(), 1, 0, 0, 0, 0, c.EndDate.Location())

	var cycles []*model.BillingCycle
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		cycles = append(cycles, &model.BillingCycle{
			CommitmentID: c.ID,
			Month:        int(month.Month()),
			Year:         month.Year(),
			LessonsCount: lessons,
			TotalAmount:  total,
			Status:       model.BillingStatusPending,
			BillingDate:  month,
			DueDate:      month.AddDate(0, 0, 14), // Пятнадцатое число
		})
	}

	return cycles
}

// GetCommitment получает commitment по ID
func (s *RecurringService) GetCommitment(ctx context.Context, id int64) (*model.RecurringCommitment, error) {
	commitment, err := s.recurringRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, ErrCommitmentNotFound
	}
	return commitment, nil
}

// ListBillingCycles получает счета серии
func (s *RecurringService) ListBillingCycles(ctx context.Context, commitmentID int64) ([]*model.BillingCycle, error) {
	return s.billingRepo.ListByCommitment(ctx, commitmentID)
}

// MarkBillingPaid отмечает счёт оплаченным (подтверждение админа)
func (s *RecurringService) MarkBillingPaid(ctx context.Context, id int64) error {
	cycle, err := s.billingRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get billing cycle: %w", err)
	}
	if cycle == nil {
		return ErrBillingCycleNotFound
	}

	if err := s.billingRepo.MarkPaid(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Billing cycle paid",
		zap.Int64("billing_cycle_id", id),
		zap.Int64("commitment_id", cycle.CommitmentID),
	)

	return nil
}

// Pause приостанавливает commitment (действие админа)
func (s *RecurringService) Pause(ctx context.Context, id int64) error {
	return s.transitionCommitment(ctx, id, model.CommitmentStatusActive, model.CommitmentStatusPaused)
}

// Resume возобновляет приостановленный commitment
func (s *RecurringService) Resume(ctx context.Context, id int64) error {
	return s.transitionCommitment(ctx, id, model.CommitmentStatusPaused, model.CommitmentStatusActive)
}

// CancelCommitment отменяет commitment и его неоплаченные счета.
// Запись остаётся в истории, жёсткого удаления нет.
func (s *RecurringService) CancelCommitment(ctx context.Context, id int64) error {
	commitment, err := s.recurringRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get commitment: %w", err)
	}
	if commitment == nil {
		return ErrCommitmentNotFound
	}

	if commitment.Status == model.CommitmentStatusCanceled || commitment.Status == model.CommitmentStatusCompleted {
		return validationErr("status", "commitment is already %s", commitment.Status)
	}

	if err := s.recurringRepo.UpdateStatus(ctx, id, model.CommitmentStatusCanceled); err != nil {
		return err
	}

	canceled, err := s.billingRepo.CancelByCommitment(ctx, id)
	if err != nil {
		return err
	}

	s.logger.Info("Recurring commitment canceled",
		zap.Int64("commitment_id", id),
		zap.Int64("billing_cycles_canceled", canceled),
	)

	return nil
}

func (s *RecurringService) transitionCommitment(ctx context.Context, id int64, from, to model.CommitmentStatus) error {
	commitment, err := s.recurringRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get commitment: %w", err)
	}
	if commitment == nil {
		return ErrCommitmentNotFound
	}

	if commitment.Status != from {
		return validationErr("status", "commitment is %s, expected %s", commitment.Status, from)
	}

	return s.recurringRepo.UpdateStatus(ctx, id, to)
}

// MaterializeUpcoming превращает активные commitments в конкретные занятия
// на weeksAhead недель вперёд. Каждое занятие проходит тот же атомарный
// конфликт-чек, что и ручное бронирование: blackout или занятое время
// подавляют отдельное вхождение, не ломая серию.
func (s *RecurringService) MaterializeUpcoming(ctx context.Context, weeksAhead int) error {
	commitments, err := s.recurringRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active commitments: %w", err)
	}

	now := time.Now().In(s.settings.Location)
	totalCreated := 0

	for _, commitment := range commitments {
		created, err := s.materializeCommitment(ctx, commitment, now, weeksAhead)
		if err != nil {
			s.logger.Error("Failed to materialize commitment",
				zap.Int64("commitment_id", commitment.ID),
				zap.Error(err),
			)
			continue
		}
		totalCreated += created
	}

	s.logger.Info("Materialized recurring commitments",
		zap.Int("commitments", len(commitments)),
		zap.Int("bookings_created", totalCreated),
	)

	return nil
}

func (s *RecurringService) materializeCommitment(ctx context.Context, c *model.RecurringCommitment, now time.Time, weeksAhead int) (int, error) {
	times := occurrenceTimes(c, now, weeksAhead, s.settings.Location)
	created := 0

	for _, startTime := range times {
		blackout, err := s.blackoutRepo.FindCovering(ctx, startTime)
		if err != nil {
			return created, fmt.Errorf("check blackout range: %w", err)
		}
		if blackout != nil {
			s.logger.Debug("Occurrence suppressed by blackout range",
				zap.Int64("commitment_id", c.ID),
				zap.Time("start_time", startTime),
			)
			continue
		}

		// Дешёвый пропуск уже материализованных вхождений
		exists, err := s.bookingRepo.ExistsActiveAt(ctx, startTime)
		if err != nil {
			s.logger.Warn("Failed to check existing booking",
				zap.Time("start_time", startTime),
				zap.Error(err),
			)
			continue
		}
		if exists {
			continue
		}

		commitmentID := c.ID
		booking := &model.Booking{
			ClientID:        c.ClientID,
			StartTime:       startTime,
			DurationMinutes: c.DurationMinutes,
			Price:           c.Price,
			Status:          model.BookingStatusConfirmed, // Оплата идёт месячными счетами
			CommitmentID:    &commitmentID,
		}

		if err := s.bookingRepo.Create(ctx, booking); err != nil {
			if errors.Is(err, repository.ErrStartTimeTaken) {
				// Кто-то занял время вручную: подавляем вхождение
				s.logger.Debug("Occurrence suppressed by conflicting booking",
					zap.Int64("commitment_id", c.ID),
					zap.Time("start_time", startTime),
				)
				continue
			}
			s.logger.Warn("Failed to materialize occurrence",
				zap.Int64("commitment_id", c.ID),
				zap.Time("start_time", startTime),
				zap.Error(err),
			)
			continue
		}

		created++
	}

	return created, nil
}

// occurrenceTimes вычисляет конкретные времена занятий серии в окне
// [from, from+weeksAhead недель], не выходя за границы серии.
// Для biweekly отсчёт недель идёт от первого вхождения после start_date.
func occurrenceTimes(c *model.RecurringCommitment, from time.Time, weeksAhead int, location *time.Location) []time.Time {
	anchor := firstOccurrenceDate(c.StartDate, c.Weekday)

	var times []time.Time
	daysToCheck := weeksAhead * 7

	for i := 0; i < daysToCheck; i++ {
		date := from.AddDate(0, 0, i)

		if int(date.Weekday()) != c.Weekday {
			continue
		}

		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, location)
		if day.Before(anchor) || day.After(c.EndDate) {
			continue
		}

		if c.Frequency == model.FrequencyBiweekly {
			// Округление часов до суток прощает сдвиг на переходе
			// летнего/зимнего времени
			days := (int(day.Sub(anchor).Hours()) + 12) / 24
			if (days/7)%2 != 0 {
				continue
			}
		}

		startTime := time.Date(date.Year(), date.Month(), date.Day(),
			c.StartHour, c.StartMinute, 0, 0, location)

		if startTime.Before(from) {
			continue
		}

		times = append(times, startTime)
	}

	return times
}

// firstOccurrenceDate находит первую дату с нужным днём недели,
// не раньше начала серии
func firstOccurrenceDate(startDate time.Time, weekday int) time.Time {
	day := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())
	for int(day.Weekday()) != weekday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// SweepOverdueBilling переводит просроченные счета в overdue.
// Вызывается ежедневной фоновой задачей.
func (s *RecurringService) SweepOverdueBilling(ctx context.Context) error {
	now := time.Now().In(s.settings.Location)

	marked, err := s.billingRepo.MarkOverdue(ctx, now)
	if err != nil {
		return err
	}

	if marked > 0 {
		s.logger.Info("Billing cycles marked overdue", zap.Int64("count", marked))
	}

	return nil
}

// SweepCompletedLessons переводит прошедшие занятия в completed
func (s *RecurringService) SweepCompletedLessons(ctx context.Context) error {
	now := time.Now().In(s.settings.Location)

	marked, err := s.bookingRepo.MarkPastCompleted(ctx, now)
	if err != nil {
		return err
	}

	if marked > 0 {
		s.logger.Info("Past lessons marked completed", zap.Int64("count", marked))
	}

	return nil
}
