package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillingCycleStatus string

const (
	BillingStatusPending  BillingCycleStatus = "pending"
	BillingStatusPaid     BillingCycleStatus = "paid"
	BillingStatusOverdue  BillingCycleStatus = "overdue" // Выставляется ежедневной проверкой после due_date
	BillingStatusCanceled BillingCycleStatus = "canceled"
)

// BillingCycle представляет счёт за один календарный месяц recurring commitment
type BillingCycle struct {
	ID           int64              `json:"id"`
	CommitmentID int64              `json:"commitment_id"`
	Month        int                `json:"month"` // 1-12
	Year         int                `json:"year"`
	LessonsCount int                `json:"lessons_count"`
	TotalAmount  decimal.Decimal    `json:"total_amount"` // lessons_count * цена занятия
	Status       BillingCycleStatus `json:"status"`
	BillingDate  time.Time          `json:"billing_date"` // Первое число месяца
	DueDate      time.Time          `json:"due_date"`     // Пятнадцатое число месяца
	PaidAt       *time.Time         `json:"paid_at"`
	CreatedAt    time.Time          `json:"created_at"`
}
