package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/events"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/policy"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

type BookingService struct {
	settings     *model.StudioSettings
	policies     *policy.Engine
	bookingRepo  *repository.BookingRepository
	blackoutRepo *repository.BlackoutRepository
	paymentRepo  *repository.PaymentRepository
	bus          *events.Bus
	logger       *zap.Logger
}

func NewBookingService(
	settings *model.StudioSettings,
	policies *policy.Engine,
	bookingRepo *repository.BookingRepository,
	blackoutRepo *repository.BlackoutRepository,
	paymentRepo *repository.PaymentRepository,
	bus *events.Bus,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		settings:     settings,
		policies:     policies,
		bookingRepo:  bookingRepo,
		blackoutRepo: blackoutRepo,
		paymentRepo:  paymentRepo,
		bus:          bus,
		logger:       logger,
	}
}

// Create создаёт бронирование со статусом pending.
// Захват времени атомарный: конфликт по start_time отдаёт ErrSlotTaken,
// ничего не записав.
func (s *BookingService) Create(ctx context.Context, clientID int64, startTime time.Time, durationMinutes int, notes string) (*model.Booking, error) {
	now := time.Now().In(s.settings.Location)

	// Вся календарная арифметика — по часам студии, независимо от
	// смещения, с которым время пришло от клиента
	startTime = startTime.In(s.settings.Location)

	if err := validateBookingTime(s.settings, now, startTime, durationMinutes); err != nil {
		return nil, err
	}

	blackout, err := s.blackoutRepo.FindCovering(ctx, startTime)
	if err != nil {
		return nil, fmt.Errorf("check blackout range: %w", err)
	}
	if blackout != nil {
		return nil, validationErr("start_time", "date falls inside blackout period: %s", blackout.Reason)
	}

	price, ok := s.settings.PriceFor(durationMinutes)
	if !ok {
		return nil, ErrPriceNotConfigured
	}

	booking := &model.Booking{
		ClientID:        clientID,
		StartTime:       startTime,
		DurationMinutes: durationMinutes,
		Price:           price,
		Status:          model.BookingStatusPending,
		Notes:           notes,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrStartTimeTaken) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	// Платёжное намерение на стоимость занятия. Ошибка здесь не
	// откатывает бронирование: запись переживёт повторную попытку оплаты.
	payment := &model.Payment{
		BookingID: booking.ID,
		ClientID:  clientID,
		Amount:    price,
		Kind:      model.PaymentKindLesson,
		Status:    model.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		s.logger.Warn("Failed to create lesson payment record",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
	}

	s.bus.Publish(booking.ID, events.KindBookingCreated, map[string]string{
		"start_time": booking.StartTime.Format(time.RFC3339),
		"price":      booking.Price.String(),
	})

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("client_id", clientID),
		zap.Time("start_time", startTime),
		zap.Int("duration_minutes", durationMinutes),
	)

	return booking, nil
}

// ConfirmPaymentSuccess переводит бронирование из pending в confirmed.
// Вызывается платёжным коллаборатором.
func (s *BookingService) ConfirmPaymentSuccess(ctx context.Context, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return ErrBookingNotFound
	}

	if booking.Status != model.BookingStatusPending {
		return validationErr("status", "booking is not pending")
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, model.BookingStatusConfirmed); err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}

	if err := s.paymentRepo.UpdateStatusByBooking(ctx, bookingID, model.PaymentKindLesson, model.PaymentStatusSucceeded); err != nil {
		s.logger.Warn("Failed to update payment record", zap.Int64("booking_id", bookingID), zap.Error(err))
	}

	s.bus.Publish(bookingID, events.KindBookingConfirmed, nil)

	s.logger.Info("Booking confirmed", zap.Int64("booking_id", bookingID))
	return nil
}

// ConfirmPaymentFailure отменяет pending-бронирование после неуспешной оплаты
func (s *BookingService) ConfirmPaymentFailure(ctx context.Context, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return ErrBookingNotFound
	}

	if booking.Status != model.BookingStatusPending {
		return validationErr("status", "booking is not pending")
	}

	if err := s.bookingRepo.Cancel(ctx, bookingID, "payment failed"); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	if err := s.paymentRepo.UpdateStatusByBooking(ctx, bookingID, model.PaymentKindLesson, model.PaymentStatusFailed); err != nil {
		s.logger.Warn("Failed to update payment record", zap.Int64("booking_id", bookingID), zap.Error(err))
	}

	s.bus.Publish(bookingID, events.KindBookingCanceled, map[string]string{"reason": "payment failed"})

	s.logger.Info("Booking canceled after payment failure", zap.Int64("booking_id", bookingID))
	return nil
}

// Cancel отменяет бронирование. Поздняя отмена не блокируется, но тянет
// за собой автоматический штраф на полную стоимость занятия.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64, initiator policy.CancelInitiator, reason string) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if booking.Status.IsTerminal() {
		return nil, validationErr("status", "booking is already %s", booking.Status)
	}

	now := time.Now().In(s.settings.Location)
	cancelReason := reason

	// Штраф только для клиентских отмен внутри окна
	if initiator == policy.CancelByClient {
		if decision := s.policies.FreeCancellation(now, booking.StartTime); !decision.Allowed {
			fee := &model.Payment{
				BookingID: booking.ID,
				ClientID:  booking.ClientID,
				Amount:    booking.Price,
				Kind:      model.PaymentKindLateCancellationFee,
				Status:    model.PaymentStatusPending,
			}
			if err := s.paymentRepo.Create(ctx, fee); err != nil {
				s.logger.Error("Failed to record late cancellation fee",
					zap.Int64("booking_id", booking.ID),
					zap.Error(err),
				)
			}

			cancelReason = reason + " (late cancellation fee applied)"

			s.logger.Info("Late cancellation fee recorded",
				zap.Int64("booking_id", booking.ID),
				zap.String("amount", booking.Price.String()),
			)
		}
	}

	if err := s.bookingRepo.Cancel(ctx, bookingID, cancelReason); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	refund := s.policies.Refund(initiator)

	s.bus.Publish(bookingID, events.KindBookingCanceled, map[string]string{
		"reason":          cancelReason,
		"initiator":       string(initiator),
		"refund_eligible": fmt.Sprintf("%t", refund.Allowed),
	})

	s.logger.Info("Booking canceled",
		zap.Int64("booking_id", bookingID),
		zap.String("initiator", string(initiator)),
		zap.Bool("refund_eligible", refund.Allowed),
	)

	return s.bookingRepo.GetByID(ctx, bookingID)
}

// Reschedule переносит занятие на новое время в том же календарном месяце.
// Проверка конфликта по новому времени такая же атомарная, как при создании.
func (s *BookingService) Reschedule(ctx context.Context, bookingID int64, newStart time.Time) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if booking.Status.IsTerminal() {
		return nil, validationErr("status", "booking is already %s", booking.Status)
	}

	now := time.Now().In(s.settings.Location)
	newStart = newStart.In(s.settings.Location)

	if err := validateBookingTime(s.settings, now, newStart, booking.DurationMinutes); err != nil {
		return nil, err
	}

	blackout, err := s.blackoutRepo.FindCovering(ctx, newStart)
	if err != nil {
		return nil, fmt.Errorf("check blackout range: %w", err)
	}
	if blackout != nil {
		return nil, validationErr("new_start", "date falls inside blackout period: %s", blackout.Reason)
	}

	// Границы месяца считаются по часам студии, лимит проверяется
	// по попаданию start_time в этот интервал
	monthStart, monthEnd := monthBounds(booking.StartTime.In(s.settings.Location))

	used, err := s.bookingRepo.CountReschedulesBetween(ctx, booking.ClientID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("count reschedules: %w", err)
	}

	if decision := s.policies.Reschedule(booking.StartTime, newStart, used); !decision.Allowed {
		return nil, &PolicyDeniedError{Reason: decision.Reason}
	}

	if err := s.bookingRepo.Reschedule(ctx, bookingID, newStart); err != nil {
		if errors.Is(err, repository.ErrStartTimeTaken) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("reschedule booking: %w", err)
	}

	s.bus.Publish(bookingID, events.KindBookingRescheduled, map[string]string{
		"old_start": booking.StartTime.Format(time.RFC3339),
		"new_start": newStart.Format(time.RFC3339),
	})

	s.logger.Info("Booking rescheduled",
		zap.Int64("booking_id", bookingID),
		zap.Time("old_start", booking.StartTime),
		zap.Time("new_start", newStart),
	)

	return s.bookingRepo.GetByID(ctx, bookingID)
}

// GetByID получает бронирование по ID
func (s *BookingService) GetByID(ctx context.Context, bookingID int64) (*model.Booking, error) {
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// ListByClient получает все бронирования клиента
func (s *BookingService) ListByClient(ctx context.Context, clientID int64) ([]*model.Booking, error) {
	return s.bookingRepo.ListByClient(ctx, clientID)
}

// monthBounds возвращает полуоткрытый интервал [начало месяца, начало
// следующего) в зоне переданного значения
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// validateBookingTime проверяет время и длительность будущего занятия
func validateBookingTime(settings *model.StudioSettings, now, startTime time.Time, durationMinutes int) error {
	if !settings.AllowedDuration(durationMinutes) {
		return validationErr("duration_minutes", "duration %d is not offered", durationMinutes)
	}

	if !startTime.After(now) {
		return validationErr("start_time", "start time is in the past")
	}

	notice := time.Duration(settings.MinAdvanceNoticeHours) * time.Hour
	if startTime.Sub(now) < notice {
		return validationErr("start_time", "booking requires at least %d hours advance notice", settings.MinAdvanceNoticeHours)
	}

	return nil
}
