package policy

import (
	"fmt"
	"time"
)

// CancelInitiator определяет, по чьей инициативе отменено занятие.
// От этого зависит право на возврат денег.
type CancelInitiator string

const (
	CancelByClient     CancelInitiator = "client"
	CancelByInstructor CancelInitiator = "instructor"
)

// Decision представляет результат проверки правила: разрешено или нет, и почему
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// Engine проверяет бизнес-правила перед переходами статусов бронирования.
// Правила чистые: движок ничего не пишет и не читает из хранилища,
// все нужные данные передаются вызывающей стороной. Календарная
// арифметика (границы месяцев) идёт по часовому поясу студии,
// какой бы пояс ни несли входные значения.
type Engine struct {
	location               *time.Location // Часовой пояс студии
	cancellationHours      int            // Окно бесплатной отмены
	maxReschedulesPerMonth int
	maxPendingMakeups      int
}

func NewEngine(location *time.Location, cancellationHours, maxReschedulesPerMonth, maxPendingMakeups int) *Engine {
	return &Engine{
		location:               location,
		cancellationHours:      cancellationHours,
		maxReschedulesPerMonth: maxReschedulesPerMonth,
		maxPendingMakeups:      maxPendingMakeups,
	}
}

// FreeCancellation проверяет, укладывается ли отмена в бесплатное окно.
// Граница включительно: отмена ровно за cancellationHours часов ещё бесплатна.
// Отказ не блокирует отмену, а означает автоматический штраф.
func (e *Engine) FreeCancellation(now, lessonStart time.Time) Decision {
	window := time.Duration(e.cancellationHours) * time.Hour
	if lessonStart.Sub(now) >= window {
		return allow()
	}
	return deny("cancellation within %d hours of lesson start, late fee applies", e.cancellationHours)
}

// Reschedule проверяет перенос занятия: новая дата должна остаться в том же
// календарном месяце, и месячный лимит переносов клиента не должен быть исчерпан.
// Оба условия обязательны. Месяц определяется по часам студии: значение
// с чужим смещением не должно менять вердикт.
func (e *Engine) Reschedule(originalStart, newStart time.Time, usedThisMonth int) Decision {
	original := originalStart.In(e.location)
	updated := newStart.In(e.location)

	if original.Year() != updated.Year() || original.Month() != updated.Month() {
		return deny("reschedule must stay within the same calendar month")
	}
	if usedThisMonth >= e.maxReschedulesPerMonth {
		return deny("monthly reschedule limit of %d reached", e.maxReschedulesPerMonth)
	}
	return allow()
}

// Makeup проверяет лимит одновременных pending-заявок на отработку
func (e *Engine) Makeup(pendingCount int) Decision {
	if pendingCount >= e.maxPendingMakeups {
		return deny("at most %d pending make-up requests allowed", e.maxPendingMakeups)
	}
	return allow()
}

// Refund проверяет право на возврат. Возврат возможен только если занятие
// отменено по инициативе преподавателя. Это жёсткое бизнес-правило,
// не настройка.
func (e *Engine) Refund(initiator CancelInitiator) Decision {
	if initiator == CancelByInstructor {
		return allow()
	}
	return deny("refunds are only issued for instructor-initiated cancellations")
}
