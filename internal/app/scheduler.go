package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"go.uber.org/zap"
)

// Горизонт материализации серий: занятия всегда есть минимум
// на месяц вперёд
const materializeWeeksAhead = 4

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	recurringService *service.RecurringService
	makeupService    *service.MakeupService
	syncService      *service.CalendarSyncService
	syncInterval     time.Duration
	sweepHour        int // Час суток для ежедневного обслуживания
	logger           *zap.Logger
	stopChan         chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(
	recurringService *service.RecurringService,
	makeupService *service.MakeupService,
	syncService *service.CalendarSyncService,
	syncInterval time.Duration,
	sweepHour int,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		recurringService: recurringService,
		makeupService:    makeupService,
		syncService:      syncService,
		syncInterval:     syncInterval,
		sweepHour:        sweepHour,
		logger:           logger,
		stopChan:         make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runDailyTask(ctx)

	if s.syncService.Enabled() {
		go s.runIncrementalSyncTask(ctx)
	} else {
		s.logger.Info("Calendar sync not configured, incremental sync disabled")
	}
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runIncrementalSyncTask периодически пушит свежие бронирования
// во внешний календарь
func (s *Scheduler) runIncrementalSyncTask(ctx context.Context) {
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Берём с запасом два интервала, чтобы не потерять занятия
			// на границе тиков: пуш идемпотентный
			since := time.Now().Add(-2 * s.syncInterval)
			s.syncService.SyncRecent(ctx, since)
		case <-s.stopChan:
			s.logger.Info("Incremental sync task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Incremental sync task cancelled")
			return
		}
	}
}

// runDailyTask раз в сутки выполняет обслуживание: материализацию серий,
// просрочку счетов, завершение прошедших занятий, истечение отработок
// и полный проход синхронизации
func (s *Scheduler) runDailyTask(ctx context.Context) {
	// Первый запуск сразу при старте, дальше — в заданный час суток
	s.runDailySweep(ctx)

	timer := time.NewTimer(untilNextHour(time.Now(), s.sweepHour))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.runDailySweep(ctx)
			timer.Reset(untilNextHour(time.Now(), s.sweepHour))
		case <-s.stopChan:
			s.logger.Info("Daily task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Daily task cancelled")
			return
		}
	}
}

// untilNextHour возвращает время до ближайшего наступления часа hour
func untilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func (s *Scheduler) runDailySweep(ctx context.Context) {
	s.logger.Info("Starting daily sweep")

	if err := s.recurringService.MaterializeUpcoming(ctx, materializeWeeksAhead); err != nil {
		s.logger.Error("Failed to materialize recurring commitments", zap.Error(err))
	}

	if err := s.recurringService.SweepOverdueBilling(ctx); err != nil {
		s.logger.Error("Failed to sweep overdue billing", zap.Error(err))
	}

	if err := s.recurringService.SweepCompletedLessons(ctx); err != nil {
		s.logger.Error("Failed to sweep completed lessons", zap.Error(err))
	}

	if err := s.makeupService.ExpireStale(ctx); err != nil {
		s.logger.Error("Failed to expire stale makeup requests", zap.Error(err))
	}

	s.syncService.SyncFull(ctx)

	s.logger.Info("Daily sweep completed")
}
