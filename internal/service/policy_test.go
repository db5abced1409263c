package service

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_CheckBusinessHours(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	policy := DefaultPolicy()
	policy.Location = warsaw

	day := func(h, m int) time.Time { return time.Date(2026, 5, 14, h, m, 0, 0, warsaw) }

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{name: "lunch", start: day(12, 0), end: day(14, 0)},
		{name: "last booking exactly", start: day(19, 0), end: day(21, 0)},
		{name: "ends at closing", start: day(19, 0), end: day(22, 0)},
		{name: "starts one minute late", start: day(19, 1), end: day(20, 0), wantErr: true},
		{name: "ends after closing", start: day(18, 0), end: day(22, 1), wantErr: true},
		{name: "next day", start: day(18, 0), end: day(18, 0).Add(8 * time.Hour), wantErr: true},
		// 17:30 UTC это 19:30 в Варшаве
		{
			name:    "start evaluated in restaurant timezone",
			start:   time.Date(2026, 5, 14, 17, 30, 0, 0, time.UTC),
			end:     time.Date(2026, 5, 14, 18, 30, 0, 0, time.UTC),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.CheckBusinessHours(model.TimeInterval{Start: tt.start, End: tt.end})
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrOutsideBusinessHours)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "19:00", formatClock(19*time.Hour))
	assert.Equal(t, "07:05", formatClock(7*time.Hour+5*time.Minute))
}
