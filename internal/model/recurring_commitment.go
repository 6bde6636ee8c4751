package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommitmentFrequency string

const (
	FrequencyWeekly   CommitmentFrequency = "weekly"
	FrequencyBiweekly CommitmentFrequency = "biweekly"
)

type CommitmentStatus string

const (
	CommitmentStatusActive    CommitmentStatus = "active"
	CommitmentStatusPaused    CommitmentStatus = "paused"    // Приостановлен админом
	CommitmentStatusCompleted CommitmentStatus = "completed" // Учебный год закончился
	CommitmentStatusCanceled  CommitmentStatus = "canceled"  // Отменён клиентом
)

// RecurringCommitment представляет постоянный еженедельный/двухнедельный слот клиента
type RecurringCommitment struct {
	ID              int64               `json:"id"`
	SeriesID        uuid.UUID           `json:"series_id"` // Ключ серии для внешнего календаря
	ClientID        int64               `json:"client_id"`
	DurationMinutes int                 `json:"duration_minutes"`
	Price           decimal.Decimal     `json:"price"` // Фиксируется при создании из таблицы цен
	Weekday         int                 `json:"weekday"`      // 0 = Sunday, 6 = Saturday
	StartHour       int                 `json:"start_hour"`   // 0-23
	StartMinute     int                 `json:"start_minute"` // 0-59
	Frequency       CommitmentFrequency `json:"frequency"`
	StartDate       time.Time           `json:"start_date"`
	EndDate         time.Time           `json:"end_date"` // По умолчанию конец учебного года
	Status          CommitmentStatus    `json:"status"`
	Category        string              `json:"category"` // Направление занятий (вокал, гитара и т.д.)
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// LessonsPerMonth возвращает фиксированное число занятий в месяц для тарификации.
// Упрощение: месяцы с пятью вхождениями дня недели не учитываются.
func (c *RecurringCommitment) LessonsPerMonth() int {
	if c.Frequency == FrequencyBiweekly {
		return 2
	}
	return 4
}
