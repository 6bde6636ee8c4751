package service

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotTaken — время уже занято активным бронированием.
	// Вызывающая сторона может предложить соседние свободные слоты.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrBookingNotFound — бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrCommitmentNotFound — recurring commitment не найден
	ErrCommitmentNotFound = errors.New("recurring commitment not found")

	// ErrMakeupNotFound — заявка на отработку не найдена
	ErrMakeupNotFound = errors.New("makeup request not found")

	// ErrSessionNotFound — субботняя сессия не найдена
	ErrSessionNotFound = errors.New("saturday session not found")

	// ErrSessionFull — в субботней сессии нет свободных мест
	ErrSessionFull = errors.New("saturday session is full")

	// ErrBillingCycleNotFound — счёт не найден
	ErrBillingCycleNotFound = errors.New("billing cycle not found")

	// ErrPriceNotConfigured — для запрошенной длительности нет цены.
	// Фатальная ошибка конфигурации: операция отклоняется целиком,
	// до каких-либо записей.
	ErrPriceNotConfigured = errors.New("no price configured for requested duration")
)

// ValidationError — некорректный вход: прошедшее время, недопустимая
// длительность, blackout-период. Ничего не записано.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PolicyDeniedError — бизнес-правило не позволило переход статуса
type PolicyDeniedError struct {
	Reason string
}

func (e *PolicyDeniedError) Error() string {
	return "policy denied: " + e.Reason
}
