package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBookingTime(t *testing.T) {
	settings := testSettings()
	now := time.Date(2025, 11, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		start    time.Time
		duration int
		wantErr  string
	}{
		{
			name:     "valid booking",
			start:    time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC),
			duration: 60,
		},
		{
			name:     "unknown duration",
			start:    time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC),
			duration: 45,
			wantErr:  "duration_minutes",
		},
		{
			name:     "start in the past",
			start:    time.Date(2025, 11, 8, 14, 0, 0, 0, time.UTC),
			duration: 60,
			wantErr:  "start_time",
		},
		{
			name:     "start equals now",
			start:    now,
			duration: 60,
			wantErr:  "start_time",
		},
		{
			name:     "inside advance notice window",
			start:    now.Add(time.Hour),
			duration: 60,
			wantErr:  "start_time",
		},
		{
			name:     "exactly at advance notice boundary",
			start:    now.Add(2 * time.Hour),
			duration: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBookingTime(settings, now, tt.start, tt.duration)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantErr, vErr.Field)
		})
	}
}
