package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/policy"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

type MakeupService struct {
	settings    *model.StudioSettings
	policies    *policy.Engine
	makeupRepo  *repository.MakeupRepository
	sessionRepo *repository.SessionRepository
	bookingRepo *repository.BookingRepository
	logger      *zap.Logger
}

func NewMakeupService(
	settings *model.StudioSettings,
	policies *policy.Engine,
	makeupRepo *repository.MakeupRepository,
	sessionRepo *repository.SessionRepository,
	bookingRepo *repository.BookingRepository,
	logger *zap.Logger,
) *MakeupService {
	return &MakeupService{
		settings:    settings,
		policies:    policies,
		makeupRepo:  makeupRepo,
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Request создаёт заявку на отработку пропущенного занятия.
// Лимит одновременных pending-заявок проверяется до записи.
func (s *MakeupService) Request(ctx context.Context, clientID, bookingID int64) (*model.MakeupRequest, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if booking.ClientID != clientID {
		return nil, validationErr("booking_id", "booking does not belong to client")
	}

	if booking.Status != model.BookingStatusCanceled && booking.Status != model.BookingStatusConfirmed {
		return nil, validationErr("booking_id", "make-up is only available for canceled or confirmed lessons")
	}

	pending, err := s.makeupRepo.CountPendingByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("count pending makeups: %w", err)
	}

	if decision := s.policies.Makeup(pending); !decision.Allowed {
		return nil, &PolicyDeniedError{Reason: decision.Reason}
	}

	request := &model.MakeupRequest{
		ClientID:  clientID,
		BookingID: bookingID,
		Status:    model.MakeupStatusPending,
	}

	if err := s.makeupRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("Makeup request created",
		zap.Int64("makeup_id", request.ID),
		zap.Int64("client_id", clientID),
		zap.Int64("booking_id", bookingID),
	)

	return request, nil
}

// ScheduleIntoSession назначает заявке место в субботней сессии.
// Занятие места атомарное: одновременные заявки на последнее место
// не проходят обе.
func (s *MakeupService) ScheduleIntoSession(ctx context.Context, requestID, sessionID int64) error {
	request, err := s.makeupRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get makeup request: %w", err)
	}
	if request == nil {
		return ErrMakeupNotFound
	}

	if request.Status != model.MakeupStatusPending {
		return validationErr("status", "makeup request is not pending")
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get saturday session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}

	// Быстрый отказ по прочитанному счётчику; гонку за последнее место
	// всё равно решает условный UPDATE в Join
	if !session.HasCapacity() {
		return ErrSessionFull
	}

	if err := s.sessionRepo.Join(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionFull) {
			return ErrSessionFull
		}
		return err
	}

	if err := s.makeupRepo.Schedule(ctx, requestID, &sessionID, session.StartTime); err != nil {
		// Освобождаем занятое место, заявка осталась pending
		if leaveErr := s.sessionRepo.Leave(ctx, sessionID); leaveErr != nil {
			s.logger.Error("Failed to release session seat",
				zap.Int64("session_id", sessionID),
				zap.Error(leaveErr),
			)
		}
		return err
	}

	s.logger.Info("Makeup request scheduled",
		zap.Int64("makeup_id", requestID),
		zap.Int64("session_id", sessionID),
	)

	return nil
}

// Complete отмечает отработку проведённой
func (s *MakeupService) Complete(ctx context.Context, requestID int64) error {
	request, err := s.makeupRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get makeup request: %w", err)
	}
	if request == nil {
		return ErrMakeupNotFound
	}

	if request.Status != model.MakeupStatusScheduled {
		return validationErr("status", "makeup request is not scheduled")
	}

	return s.makeupRepo.UpdateStatus(ctx, requestID, model.MakeupStatusCompleted)
}

// CreateSession создаёт субботнюю сессию (действие админа)
func (s *MakeupService) CreateSession(ctx context.Context, startTime time.Time, durationMinutes, maxParticipants int) (*model.SaturdaySession, error) {
	if maxParticipants <= 0 {
		return nil, validationErr("max_participants", "must be positive")
	}

	session := &model.SaturdaySession{
		StartTime:       startTime,
		DurationMinutes: durationMinutes,
		MaxParticipants: maxParticipants,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// ListUpcomingSessions получает будущие субботние сессии
func (s *MakeupService) ListUpcomingSessions(ctx context.Context) ([]*model.SaturdaySession, error) {
	now := time.Now().In(s.settings.Location)
	return s.sessionRepo.ListUpcoming(ctx, now)
}

// ExpireStale переводит невостребованные заявки в expired после конца
// учебного года. Вызывается ежедневной фоновой задачей.
func (s *MakeupService) ExpireStale(ctx context.Context) error {
	now := time.Now().In(s.settings.Location)
	if now.Before(s.settings.AcademicYearEnd) {
		return nil
	}

	expired, err := s.makeupRepo.ExpirePendingBefore(ctx, now)
	if err != nil {
		return err
	}

	if expired > 0 {
		s.logger.Info("Makeup requests expired", zap.Int64("count", expired))
	}

	return nil
}
