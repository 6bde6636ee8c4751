package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	defer bus.Close()

	first := bus.Subscribe(4)
	second := bus.Subscribe(4)

	bus.Publish(42, KindBookingCreated, map[string]string{"start_time": "2025-11-10T14:00:00Z"})

	e := <-first
	require.Equal(t, int64(42), e.BookingID)
	require.Equal(t, KindBookingCreated, e.Kind)
	assert.Equal(t, "2025-11-10T14:00:00Z", e.Details["start_time"])
	assert.NotZero(t, e.ID)

	e = <-second
	assert.Equal(t, int64(42), e.BookingID)
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus(zap.NewNop())
	defer bus.Close()

	ch := bus.Subscribe(1)

	// Второй Publish должен отбросить событие, а не зависнуть
	bus.Publish(1, KindBookingCreated, nil)
	bus.Publish(2, KindBookingCanceled, nil)

	e := <-ch
	assert.Equal(t, int64(1), e.BookingID)

	select {
	case e := <-ch:
		t.Fatalf("expected dropped event, got %v", e)
	default:
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus(zap.NewNop())
	ch := bus.Subscribe(1)

	bus.Close()
	bus.Publish(1, KindBookingConfirmed, nil)

	_, ok := <-ch
	assert.False(t, ok)
}
