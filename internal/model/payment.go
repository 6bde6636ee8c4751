package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentKind string

const (
	PaymentKindLesson              PaymentKind = "lesson_payment"
	PaymentKindLateCancellationFee PaymentKind = "late_cancellation_fee" // Штраф за позднюю отмену
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment представляет платёжное намерение, привязанное к занятию.
// Само списание выполняет внешний платёжный провайдер, здесь только учёт.
type Payment struct {
	ID        int64           `json:"id"`
	BookingID int64           `json:"booking_id"`
	ClientID  int64           `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      PaymentKind     `json:"kind"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
