package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableStaffForWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	index := f.svc.Availability()

	evening := f.store.AddStaff("Мария", "Орлова")
	day := f.store.AddStaff("Дмитрий", "Соколов")
	busy := f.store.AddStaff("Елена", "Морозова")

	// Смена [18:00, 22:00)
	f.store.AddShift(evening, f.window(t, 6*time.Hour, 10*time.Hour))
	f.store.AddShift(day, f.window(t, 0, 6*time.Hour))
	f.store.AddShift(busy, f.window(t, 0, 10*time.Hour))
	f.put(t, model.ReservationStatusConfirmed, 7*time.Hour, 8*time.Hour, &busy)

	tests := []struct {
		name   string
		window model.TimeInterval
		want   []int64
	}{
		{
			name:   "shift does not cover window end",
			window: f.window(t, 9*time.Hour, 11*time.Hour),
			want:   []int64{},
		},
		{
			name:   "shift edges cover the window exactly",
			window: f.window(t, 6*time.Hour, 10*time.Hour),
			want:   []int64{evening},
		},
		{
			name:   "busy staff is excluded",
			window: f.window(t, 7*time.Hour+30*time.Minute, 8*time.Hour),
			want:   []int64{evening},
		},
		{
			name:   "sorted by id",
			window: f.window(t, time.Hour, 2*time.Hour),
			want:   []int64{day, busy},
		},
		{
			name:   "adjacent reservation does not make staff busy",
			window: f.window(t, 8*time.Hour, 9*time.Hour),
			want:   []int64{evening, busy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := index.AvailableStaffForWindow(ctx, tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAvailableStaff_CancelledAssignmentFreesStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	waiter := f.store.AddStaff("Мария", "Орлова")
	f.store.AddShift(waiter, f.window(t, 0, 10*time.Hour))
	f.put(t, model.ReservationStatusCancelled, time.Hour, 2*time.Hour, &waiter)

	got, err := f.svc.Availability().AvailableStaffForWindow(ctx, f.window(t, time.Hour, 2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{waiter}, got)
}

func TestOccupiedTableIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	index := f.svc.Availability()

	f.create(t, f.tableID, time.Hour, 2*time.Hour)

	occupied, err := index.IsTableOccupied(ctx, f.tableID, f.window(t, 90*time.Minute, 3*time.Hour))
	require.NoError(t, err)
	assert.True(t, occupied)

	occupied, err = index.IsTableOccupied(ctx, f.tableID, f.window(t, 2*time.Hour, 3*time.Hour))
	require.NoError(t, err)
	assert.False(t, occupied, "half-open intervals only touch")

	occupied, err = index.IsTableOccupied(ctx, f.table2ID, f.window(t, time.Hour, 2*time.Hour))
	require.NoError(t, err)
	assert.False(t, occupied)

	_, err = index.OccupiedTableIDs(ctx, model.TimeInterval{Start: f.now, End: f.now})
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
}
