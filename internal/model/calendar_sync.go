package model

import "time"

type SyncAction string

const (
	SyncActionPush   SyncAction = "push"   // Создание события во внешнем календаре
	SyncActionUpdate SyncAction = "update" // Обновление существующего события
	SyncActionDelete SyncAction = "delete" // Удаление события
	SyncActionPull   SyncAction = "pull"   // Загрузка busy-интервалов
)

type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeError   SyncOutcome = "error"
)

// CalendarSyncLog представляет запись о попытке синхронизации с внешним календарём.
// Журнал диагностический, на корректность бронирований не влияет.
type CalendarSyncLog struct {
	ID        int64       `json:"id"`
	BookingID *int64      `json:"booking_id"` // nil для pull-операций
	Action    SyncAction  `json:"action"`
	Outcome   SyncOutcome `json:"outcome"`
	Message   string      `json:"message"` // Текст ошибки при outcome = error
	CreatedAt time.Time   `json:"created_at"`
}

// BusyInterval представляет занятый интервал из внешнего календаря
// (преподаватель заблокировал личное время). Локальный кеш, обновляется pull-ом.
type BusyInterval struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	FetchedAt time.Time `json:"fetched_at"`
}
