package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/calendar"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	// Таймаут одного вызова внешнего календаря. Локальное состояние
	// первично, долгие вызовы не должны держать фоновую задачу.
	calendarCallTimeout = 15 * time.Second

	// Пауза между вызовами в полном обходе, чтобы не выесть бюджет
	// запросов внешнего API
	fullSweepCallDelay = 500 * time.Millisecond

	// Горизонт загрузки busy-интервалов
	busyPullHorizon = 30 * 24 * time.Hour

	fullSweepBatchLimit = 200
)

// CalendarSyncService — фоновый реконсилятор внешнего календаря.
// Состояния занятия: без события -> синхронизировано (есть event id) ->
// обновлено или удалено. Все исходы пишутся в диагностический журнал;
// на корректность бронирований синхронизация не влияет.
type CalendarSyncService struct {
	client      calendar.Client
	enabled     bool // false, если реквизиты календаря не заданы
	bookingRepo *repository.BookingRepository
	syncLogRepo *repository.SyncLogRepository
	busyRepo    *repository.BusyIntervalRepository
	logger      *zap.Logger
}

func NewCalendarSyncService(
	client calendar.Client,
	enabled bool,
	bookingRepo *repository.BookingRepository,
	syncLogRepo *repository.SyncLogRepository,
	busyRepo *repository.BusyIntervalRepository,
	logger *zap.Logger,
) *CalendarSyncService {
	return &CalendarSyncService{
		client:      client,
		enabled:     enabled,
		bookingRepo: bookingRepo,
		syncLogRepo: syncLogRepo,
		busyRepo:    busyRepo,
		logger:      logger,
	}
}

// Enabled сообщает, настроена ли синхронизация
func (s *CalendarSyncService) Enabled() bool {
	return s.enabled
}

// SyncRecent — инкрементальный проход: пушит недавно созданные занятия
// без события в календаре
func (s *CalendarSyncService) SyncRecent(ctx context.Context, since time.Time) {
	if !s.enabled {
		return
	}

	bookings, err := s.bookingRepo.ListRecentUnsynced(ctx, since)
	if err != nil {
		s.logger.Error("Failed to list recent unsynced bookings", zap.Error(err))
		return
	}

	for _, booking := range bookings {
		s.pushBooking(ctx, booking)
	}
}

// SyncFull — ежедневный полный проход: все будущие несинхронизированные
// занятия, удаление событий отменённых занятий и обновление кеша
// busy-интервалов. Между вызовами внешнего API выдерживается пауза.
func (s *CalendarSyncService) SyncFull(ctx context.Context) {
	if !s.enabled {
		return
	}

	bookings, err := s.bookingRepo.ListUnsyncedFuture(ctx, fullSweepBatchLimit)
	if err != nil {
		s.logger.Error("Failed to list unsynced future bookings", zap.Error(err))
		return
	}

	for _, booking := range bookings {
		s.pushBooking(ctx, booking)

		select {
		case <-time.After(fullSweepCallDelay):
		case <-ctx.Done():
			return
		}
	}

	canceled, err := s.bookingRepo.ListCanceledSynced(ctx, fullSweepBatchLimit)
	if err != nil {
		s.logger.Error("Failed to list canceled synced bookings", zap.Error(err))
		return
	}

	for _, booking := range canceled {
		s.deleteEvent(ctx, booking)

		select {
		case <-time.After(fullSweepCallDelay):
		case <-ctx.Done():
			return
		}
	}

	s.PullBusyIntervals(ctx)
}

// PullBusyIntervals обновляет локальный кеш занятых интервалов
// внешнего календаря
func (s *CalendarSyncService) PullBusyIntervals(ctx context.Context) {
	if !s.enabled {
		return
	}

	from := time.Now()
	to := from.Add(busyPullHorizon)

	var intervals []calendar.BusyInterval
	err := s.callWithAuthRetry(ctx, func(ctx context.Context) error {
		var callErr error
		intervals, callErr = s.client.ListBusyIntervals(ctx, from, to)
		return callErr
	})

	if err != nil {
		s.recordOutcome(ctx, nil, model.SyncActionPull, err)
		return
	}

	cached := make([]model.BusyInterval, 0, len(intervals))
	for _, interval := range intervals {
		cached = append(cached, model.BusyInterval{
			StartTime: interval.Start,
			EndTime:   interval.End,
		})
	}

	if err := s.busyRepo.ReplaceWindow(ctx, from, to, cached); err != nil {
		s.recordOutcome(ctx, nil, model.SyncActionPull, err)
		return
	}

	s.recordOutcome(ctx, nil, model.SyncActionPull, nil)

	s.logger.Info("Busy intervals pulled", zap.Int("count", len(cached)))
}

// pushBooking создаёт или обновляет событие занятия во внешнем календаре
func (s *CalendarSyncService) pushBooking(ctx context.Context, booking *model.Booking) {
	details := calendar.EventDetails{
		Title:       fmt.Sprintf("Lesson #%d", booking.ID),
		Description: booking.Notes,
		Start:       booking.StartTime,
		End:         booking.EndTime(),
	}

	if booking.CalendarEventID != nil {
		err := s.callWithAuthRetry(ctx, func(ctx context.Context) error {
			return s.client.UpdateEvent(ctx, *booking.CalendarEventID, details)
		})
		s.recordOutcome(ctx, &booking.ID, model.SyncActionUpdate, err)
		return
	}

	var eventID string
	err := s.callWithAuthRetry(ctx, func(ctx context.Context) error {
		var callErr error
		eventID, callErr = s.client.CreateEvent(ctx, details)
		return callErr
	})

	if err != nil {
		// Занятие остаётся несинхронизированным до следующего прохода
		s.recordOutcome(ctx, &booking.ID, model.SyncActionPush, err)
		return
	}

	if err := s.bookingRepo.SetCalendarEventID(ctx, booking.ID, &eventID); err != nil {
		s.recordOutcome(ctx, &booking.ID, model.SyncActionPush, err)
		return
	}

	s.recordOutcome(ctx, &booking.ID, model.SyncActionPush, nil)
}

// deleteEvent удаляет событие отменённого занятия
func (s *CalendarSyncService) deleteEvent(ctx context.Context, booking *model.Booking) {
	if booking.CalendarEventID == nil {
		return
	}

	err := s.callWithAuthRetry(ctx, func(ctx context.Context) error {
		return s.client.DeleteEvent(ctx, *booking.CalendarEventID)
	})

	if err != nil {
		s.recordOutcome(ctx, &booking.ID, model.SyncActionDelete, err)
		return
	}

	if err := s.bookingRepo.SetCalendarEventID(ctx, booking.ID, nil); err != nil {
		s.recordOutcome(ctx, &booking.ID, model.SyncActionDelete, err)
		return
	}

	s.recordOutcome(ctx, &booking.ID, model.SyncActionDelete, nil)
}

// callWithAuthRetry выполняет вызов календаря с таймаутом.
// На 401 обновляет токен и повторяет один раз; дальше ошибка уходит
// в журнал, занятие ждёт следующего прохода. Бесконечных ретраев нет.
func (s *CalendarSyncService) callWithAuthRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, calendarCallTimeout)
		defer cancel()

		err := fn(callCtx)
		if errors.Is(err, calendar.ErrUnauthorized) {
			if refreshErr := s.client.RefreshCredential(callCtx); refreshErr != nil {
				return fmt.Errorf("refresh credential: %w", refreshErr)
			}
			return retry.RetryableError(err)
		}

		return err
	})
}

// recordOutcome пишет исход попытки в журнал синхронизации
func (s *CalendarSyncService) recordOutcome(ctx context.Context, bookingID *int64, action model.SyncAction, callErr error) {
	entry := &model.CalendarSyncLog{
		BookingID: bookingID,
		Action:    action,
		Outcome:   model.SyncOutcomeSuccess,
	}

	if callErr != nil {
		entry.Outcome = model.SyncOutcomeError
		entry.Message = callErr.Error()

		s.logger.Warn("Calendar sync attempt failed",
			zap.String("action", string(action)),
			zap.Error(callErr),
		)
	}

	if err := s.syncLogRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("Failed to write sync log entry", zap.Error(err))
	}
}

// RecentLog отдаёт последние записи журнала синхронизации
func (s *CalendarSyncService) RecentLog(ctx context.Context, limit int) ([]*model.CalendarSyncLog, error) {
	return s.syncLogRepo.ListRecent(ctx, limit)
}
