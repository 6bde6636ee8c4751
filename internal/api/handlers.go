package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/policy"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type Handler struct {
	availability *service.AvailabilityService
	bookings     *service.BookingService
	recurring    *service.RecurringService
	makeups      *service.MakeupService
	sync         *service.CalendarSyncService
	location     *time.Location
	logger       *zap.Logger
}

func NewHandler(
	availability *service.AvailabilityService,
	bookings *service.BookingService,
	recurring *service.RecurringService,
	makeups *service.MakeupService,
	sync *service.CalendarSyncService,
	location *time.Location,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		availability: availability,
		bookings:     bookings,
		recurring:    recurring,
		makeups:      makeups,
		sync:         sync,
		location:     location,
		logger:       logger,
	}
}

// ResolveAvailability отдаёт сетку слотов на дату
func (h *Handler) ResolveAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), h.location)
	if err != nil {
		h.badRequest(w, r, "date must be YYYY-MM-DD")
		return
	}

	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		h.badRequest(w, r, "duration must be an integer")
		return
	}

	slots, err := h.availability.Resolve(r.Context(), date, duration)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"slots": slots})
}

// CreateBooking создаёт разовое бронирование
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	if req.ClientID == 0 {
		h.badRequest(w, r, "client_id is required")
		return
	}

	booking, err := h.bookings.Create(r.Context(), req.ClientID, req.StartTime, req.DurationMinutes, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, booking)
}

// GetBooking отдаёт бронирование по ID
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	booking, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if booking == nil {
		h.writeError(w, r, service.ErrBookingNotFound)
		return
	}

	render.JSON(w, r, booking)
}

// ListClientBookings отдаёт бронирования клиента
func (h *Handler) ListClientBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListByClient(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"bookings": bookings})
}

// CancelBooking отменяет бронирование
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req cancelBookingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	initiator := policy.CancelByClient
	if req.Initiator == string(policy.CancelByInstructor) {
		initiator = policy.CancelByInstructor
	}

	booking, err := h.bookings.Cancel(r.Context(), id, initiator, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, booking)
}

// RescheduleBooking переносит бронирование на новое время
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req rescheduleBookingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	booking, err := h.bookings.Reschedule(r.Context(), id, req.NewStart)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, booking)
}

// ConfirmPaymentSuccess — сигнал об успешной оплате
func (h *Handler) ConfirmPaymentSuccess(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.bookings.ConfirmPaymentSuccess(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConfirmPaymentFailure — сигнал о неуспешной оплате
func (h *Handler) ConfirmPaymentFailure(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.bookings.ConfirmPaymentFailure(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateCommitment создаёт recurring commitment вместе со счетами
func (h *Handler) CreateCommitment(w http.ResponseWriter, r *http.Request) {
	var req createCommitmentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	if req.ClientID == 0 {
		h.badRequest(w, r, "client_id is required")
		return
	}

	startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, h.location)
	if err != nil {
		h.badRequest(w, r, "start_date must be YYYY-MM-DD")
		return
	}

	commitment, err := h.recurring.CreateCommitment(
		r.Context(),
		req.ClientID,
		req.DurationMinutes,
		req.Weekday,
		req.StartHour,
		req.StartMinute,
		model.CommitmentFrequency(req.Frequency),
		startDate,
		req.Category,
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, commitment)
}

// GetCommitment отдаёт commitment по ID
func (h *Handler) GetCommitment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	commitment, err := h.recurring.GetCommitment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, commitment)
}

// ListBillingCycles отдаёт счета commitment
func (h *Handler) ListBillingCycles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	cycles, err := h.recurring.ListBillingCycles(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"billing_cycles": cycles})
}

// PauseCommitment приостанавливает commitment
func (h *Handler) PauseCommitment(w http.ResponseWriter, r *http.Request) {
	h.commitmentTransition(w, r, h.recurring.Pause)
}

// ResumeCommitment возобновляет commitment
func (h *Handler) ResumeCommitment(w http.ResponseWriter, r *http.Request) {
	h.commitmentTransition(w, r, h.recurring.Resume)
}

// CancelCommitment отменяет commitment
func (h *Handler) CancelCommitment(w http.ResponseWriter, r *http.Request) {
	h.commitmentTransition(w, r, h.recurring.CancelCommitment)
}

// MarkBillingPaid отмечает счёт оплаченным
func (h *Handler) MarkBillingPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.recurring.MarkBillingPaid(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateMakeup создаёт заявку на отработку
func (h *Handler) CreateMakeup(w http.ResponseWriter, r *http.Request) {
	var req createMakeupRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	request, err := h.makeups.Request(r.Context(), req.ClientID, req.BookingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, request)
}

// ScheduleMakeup назначает отработку в субботнюю сессию
func (h *Handler) ScheduleMakeup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req scheduleMakeupRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	if err := h.makeups.ScheduleIntoSession(r.Context(), id, req.SessionID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteMakeup отмечает отработку проведённой
func (h *Handler) CompleteMakeup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.makeups.Complete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSessions отдаёт будущие субботние сессии
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.makeups.ListUpcomingSessions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"sessions": sessions})
}

// CreateSession создаёт субботнюю сессию
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	session, err := h.makeups.CreateSession(r.Context(), req.StartTime, req.DurationMinutes, req.MaxParticipants)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, session)
}

// ListBlackouts отдаёт blackout-периоды
func (h *Handler) ListBlackouts(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.availability.ListBlackouts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"blackout_ranges": ranges})
}

// CreateBlackout создаёт blackout-период
func (h *Handler) CreateBlackout(w http.ResponseWriter, r *http.Request) {
	var req createBlackoutRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "failed to decode request body")
		return
	}

	startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, h.location)
	if err != nil {
		h.badRequest(w, r, "start_date must be YYYY-MM-DD")
		return
	}

	endDate, err := time.ParseInLocation("2006-01-02", req.EndDate, h.location)
	if err != nil {
		h.badRequest(w, r, "end_date must be YYYY-MM-DD")
		return
	}

	blackout, err := h.availability.CreateBlackout(r.Context(), startDate, endDate, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, blackout)
}

// ListSyncLog отдаёт журнал синхронизации с внешним календарём
func (h *Handler) ListSyncLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.badRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.sync.RecentLog(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"entries": entries})
}

func (h *Handler) commitmentTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.badRequest(w, r, "id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	w.WriteHeader(http.StatusBadRequest)
	render.JSON(w, r, newError("BAD_REQUEST", message))
}

// writeError переводит ошибки доменного слоя в HTTP-ответы.
// Вызывающая сторона всегда видит, почему именно отказано:
// конфликт, валидация или бизнес-правило.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	var pErr *service.PolicyDeniedError

	switch {
	case errors.As(err, &vErr):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, newError("VALIDATION_FAILED", vErr.Error()))
	case errors.As(err, &pErr):
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, newError("POLICY_DENIED", pErr.Reason))
	case errors.Is(err, service.ErrSlotTaken):
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, newError("SLOT_TAKEN", "requested time is already booked"))
	case errors.Is(err, service.ErrSessionFull):
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, newError("SESSION_FULL", "saturday session has no free seats"))
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrCommitmentNotFound),
		errors.Is(err, service.ErrMakeupNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrBillingCycleNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, newError("NOT_FOUND", err.Error()))
	default:
		h.logger.Error("Request failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, newError("INTERNAL", "internal error"))
	}
}
