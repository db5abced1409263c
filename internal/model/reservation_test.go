package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ReservationStatus
		want     bool
	}{
		{ReservationStatusPending, ReservationStatusConfirmed, true},
		{ReservationStatusPending, ReservationStatusCancelled, true},
		{ReservationStatusPending, ReservationStatusInProgress, false},
		{ReservationStatusConfirmed, ReservationStatusInProgress, true},
		{ReservationStatusConfirmed, ReservationStatusCancelled, true},
		{ReservationStatusConfirmed, ReservationStatusCompleted, false},
		{ReservationStatusInProgress, ReservationStatusCompleted, true},
		{ReservationStatusInProgress, ReservationStatusCancelled, false},
		{ReservationStatusCompleted, ReservationStatusPending, false},
		{ReservationStatusCancelled, ReservationStatusPending, false},
		{ReservationStatusCancelled, ReservationStatusConfirmed, false},
		{ReservationStatusPending, ReservationStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestReservationStatusFlags(t *testing.T) {
	for _, s := range ActiveReservationStatuses() {
		assert.True(t, s.IsActive())
		assert.False(t, s.IsTerminal())
	}
	assert.True(t, ReservationStatusCompleted.IsTerminal())
	assert.True(t, ReservationStatusCancelled.IsTerminal())
}

func TestParseReservationStatus(t *testing.T) {
	s, err := ParseReservationStatus("IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, ReservationStatusInProgress, s)

	_, err = ParseReservationStatus("seated")
	assert.Error(t, err)
}

func TestReservationItemLookup(t *testing.T) {
	staffID := int64(7)
	r := &Reservation{
		StaffID: &staffID,
		Items: []*ReservationItem{
			{ID: 1, MenuItemID: 10, Quantity: 2},
			{ID: 2, MenuItemID: 11, Quantity: 1},
		},
	}

	require.NotNil(t, r.Item(2))
	assert.Equal(t, int64(11), r.Item(2).MenuItemID)
	assert.Nil(t, r.Item(3))
	assert.True(t, r.IsServedBy(7))
	assert.False(t, r.IsServedBy(8))
	assert.False(t, (&Reservation{}).IsServedBy(7))
}
