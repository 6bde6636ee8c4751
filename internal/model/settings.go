package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StudioSettings представляет бизнес-параметры студии.
// Читаются один раз при старте и считаются неизменяемыми в рамках процесса.
type StudioSettings struct {
	BusinessHoursStart int // Час открытия, 0-23
	BusinessHoursEnd   int // Час закрытия, 0-23 (занятия должны закончиться до него)
	SlotStepMinutes    int // Шаг сетки слотов

	// Таблица цен: длительность занятия в минутах -> цена
	Prices map[int]decimal.Decimal

	CancellationPolicyHours int // За сколько часов отмена бесплатна
	MaxReschedulesPerMonth  int // Лимит переносов на клиента в месяц
	MaxPendingMakeups       int // Лимит одновременных заявок на отработку
	MinAdvanceNoticeHours   int // Минимальный срок записи до начала занятия

	AcademicYearStart time.Time
	AcademicYearEnd   time.Time

	Location *time.Location // Часовой пояс студии, все расчёты в нём
}

// PriceFor возвращает цену для длительности занятия
func (s *StudioSettings) PriceFor(durationMinutes int) (decimal.Decimal, bool) {
	price, ok := s.Prices[durationMinutes]
	return price, ok
}

// AllowedDuration проверяет, что длительность есть в таблице цен
func (s *StudioSettings) AllowedDuration(durationMinutes int) bool {
	_, ok := s.Prices[durationMinutes]
	return ok
}
