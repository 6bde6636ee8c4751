package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntilNextHour(t *testing.T) {
	now := time.Date(2025, 11, 10, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, 30*time.Minute, untilNextHour(now, 15))

	// Час уже прошёл сегодня: ждём до завтра
	assert.Equal(t, 12*time.Hour+30*time.Minute, untilNextHour(now, 3))

	// Ровно на границе часа: следующий запуск через сутки
	exact := time.Date(2025, 11, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, 24*time.Hour, untilNextHour(exact, 3))
}
