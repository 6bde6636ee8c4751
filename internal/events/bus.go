package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Kind string

const (
	KindBookingCreated     Kind = "created"
	KindBookingConfirmed   Kind = "confirmed"
	KindBookingCanceled    Kind = "canceled"
	KindBookingRescheduled Kind = "rescheduled"
)

// Event представляет событие жизненного цикла бронирования.
// Поток событий потребляет внешний нотификатор, канал доставки здесь не важен.
type Event struct {
	ID         uuid.UUID
	BookingID  int64
	Kind       Kind
	OccurredAt time.Time
	Details    map[string]string
}

// Bus — внутренняя шина событий. Публикация не блокирует и не падает:
// переполненный подписчик теряет событие, бронирование от этого не страдает.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe возвращает канал событий с заданным буфером
func (b *Bus) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	return ch
}

// Publish рассылает событие всем подписчикам, никогда не блокируя
func (b *Bus) Publish(bookingID int64, kind Kind, details map[string]string) {
	event := Event{
		ID:         uuid.New(),
		BookingID:  bookingID,
		Kind:       kind,
		OccurredAt: time.Now(),
		Details:    details,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Event subscriber buffer full, dropping event",
				zap.Int64("booking_id", bookingID),
				zap.String("kind", string(kind)),
			)
		}
	}
}

// Close закрывает все подписки
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, ch := range b.subs {
		close(ch)
	}
}
