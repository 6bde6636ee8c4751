package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"     // Ожидает оплаты
	BookingStatusConfirmed   BookingStatus = "confirmed"   // Оплачено и подтверждено
	BookingStatusCompleted   BookingStatus = "completed"   // Занятие прошло
	BookingStatusCanceled    BookingStatus = "canceled"    // Отменено
	BookingStatusRescheduled BookingStatus = "rescheduled" // Перенесено на другую дату
)

// IsTerminal сообщает, является ли статус конечным.
// Нетерминальные бронирования занимают своё время старта.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCanceled
}

type Booking struct {
	ID              int64           `json:"id"`
	ClientID        int64           `json:"client_id"`
	StartTime       time.Time       `json:"start_time"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"` // Фиксируется при создании, дальше не меняется
	Status          BookingStatus   `json:"status"`
	Notes           string          `json:"notes"`
	RescheduleCount int             `json:"reschedule_count"`
	OriginalStart   *time.Time      `json:"original_start"`    // Заполняется один раз, при первом переносе
	CommitmentID    *int64          `json:"commitment_id"`     // Ссылка на commitment, если занятие из серии
	CalendarEventID *string         `json:"calendar_event_id"` // ID события во внешнем календаре
	CancelReason    *string         `json:"cancel_reason"`
	CanceledAt      *time.Time      `json:"canceled_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EndTime возвращает время окончания занятия
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}
