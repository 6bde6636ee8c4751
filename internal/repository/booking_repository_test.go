package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool подключается к базе из TEST_DB_DSN и накатывает миграции.
// Без заданного DSN интеграционные тесты пропускаются.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set, skipping database integration test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, goose.SetDialect("postgres"))

	db := stdlib.OpenDBFromPool(pool)
	require.NoError(t, goose.Up(db, "../../migrations"))
	require.NoError(t, db.Close())

	return pool
}

func newBooking(clientID int64, startTime time.Time) *model.Booking {
	return &model.Booking{
		ClientID:        clientID,
		StartTime:       startTime,
		DurationMinutes: 60,
		Price:           decimal.NewFromInt(1500),
		Status:          model.BookingStatusPending,
	}
}

func TestCreateSerializesConcurrentBookingsPerStartTime(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewBookingRepository(pool)
	ctx := context.Background()

	// Уникальное в пределах запуска время, чтобы не зависеть от
	// состояния базы
	startTime := time.Now().Add(10_000 * time.Hour).UTC().Truncate(time.Second)
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM payments WHERE booking_id IN (SELECT id FROM bookings WHERE start_time = $1)`, startTime)
		pool.Exec(ctx, `DELETE FROM bookings WHERE start_time = $1`, startTime)
	})

	errs := make(chan error, 2)
	var wg sync.WaitGroup

	for clientID := int64(1); clientID <= 2; clientID++ {
		wg.Add(1)
		go func(clientID int64) {
			defer wg.Done()
			errs <- repo.Create(ctx, newBooking(clientID, startTime))
		}(clientID)
	}

	wg.Wait()
	close(errs)

	var taken, created int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrStartTimeTaken):
			taken++
		default:
			t.Fatalf("unexpected create error: %v", err)
		}
	}

	assert.Equal(t, 1, created, "exactly one concurrent create must win the slot")
	assert.Equal(t, 1, taken, "the loser must see the conflict, not an arbitrary error")
}

func TestRescheduleOntoHeldStartTimeConflicts(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewBookingRepository(pool)
	ctx := context.Background()

	held := time.Now().Add(11_000 * time.Hour).UTC().Truncate(time.Second)
	moving := held.Add(2 * time.Hour)
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM bookings WHERE start_time IN ($1, $2)`, held, moving)
	})

	require.NoError(t, repo.Create(ctx, newBooking(1, held)))

	victim := newBooking(2, moving)
	require.NoError(t, repo.Create(ctx, victim))

	err := repo.Reschedule(ctx, victim.ID, held)
	assert.ErrorIs(t, err, repository.ErrStartTimeTaken)
}

func TestUpdatePaymentStatusWithoutRecord(t *testing.T) {
	pool := testPool(t)
	bookings := repository.NewBookingRepository(pool)
	payments := repository.NewPaymentRepository(pool)
	ctx := context.Background()

	startTime := time.Now().Add(12_000 * time.Hour).UTC().Truncate(time.Second)
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM payments WHERE booking_id IN (SELECT id FROM bookings WHERE start_time = $1)`, startTime)
		pool.Exec(ctx, `DELETE FROM bookings WHERE start_time = $1`, startTime)
	})

	booking := newBooking(3, startTime)
	require.NoError(t, bookings.Create(ctx, booking))

	// Платёжная запись не создавалась: обновление должно это сообщить,
	// а не молча пройти
	err := payments.UpdateStatusByBooking(ctx, booking.ID, model.PaymentKindLesson, model.PaymentStatusSucceeded)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)

	payment := &model.Payment{
		BookingID: booking.ID,
		ClientID:  booking.ClientID,
		Amount:    booking.Price,
		Kind:      model.PaymentKindLesson,
		Status:    model.PaymentStatusPending,
	}
	require.NoError(t, payments.Create(ctx, payment))

	assert.NoError(t, payments.UpdateStatusByBooking(ctx, booking.ID, model.PaymentKindLesson, model.PaymentStatusSucceeded))
}
