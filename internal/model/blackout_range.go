package model

import "time"

// BlackoutRange представляет период, в котором занятия не проводятся
// (каникулы, отпуск преподавателя). Задаётся админом, не редактируется.
type BlackoutRange struct {
	ID        int64     `json:"id"`
	StartDate time.Time `json:"start_date"` // Дата без времени, включительно
	EndDate   time.Time `json:"end_date"`   // Дата без времени, включительно
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Contains проверяет, попадает ли дата в период.
// Сравнение идёт по календарным дням, время и зона отбрасываются.
func (b *BlackoutRange) Contains(date time.Time) bool {
	day := truncateToDay(date)
	return !day.Before(truncateToDay(b.StartDate)) && !day.After(truncateToDay(b.EndDate))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
