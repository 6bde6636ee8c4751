package model

import "time"

type MakeupStatus string

const (
	MakeupStatusPending   MakeupStatus = "pending"   // Ожидает назначения даты
	MakeupStatusScheduled MakeupStatus = "scheduled" // Назначено время отработки
	MakeupStatusCompleted MakeupStatus = "completed"
	MakeupStatusExpired   MakeupStatus = "expired" // Не использовано до конца учебного года
)

// MakeupRequest представляет заявку на отработку пропущенного занятия
type MakeupRequest struct {
	ID          int64        `json:"id"`
	ClientID    int64        `json:"client_id"`
	BookingID   int64        `json:"booking_id"` // Исходное отменённое занятие
	Status      MakeupStatus `json:"status"`
	SessionID   *int64       `json:"session_id"`   // Субботняя сессия, если отработка групповая
	ScheduledAt *time.Time   `json:"scheduled_at"` // Назначенное время отработки
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SaturdaySession представляет групповой субботний слот для отработок
// с ограничением по количеству участников
type SaturdaySession struct {
	ID                  int64     `json:"id"`
	StartTime           time.Time `json:"start_time"`
	DurationMinutes     int       `json:"duration_minutes"`
	MaxParticipants     int       `json:"max_participants"`
	CurrentParticipants int       `json:"current_participants"`
	CreatedAt           time.Time `json:"created_at"`
}

// HasCapacity проверяет, есть ли свободные места
func (s *SaturdaySession) HasCapacity() bool {
	return s.CurrentParticipants < s.MaxParticipants
}
