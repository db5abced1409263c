package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
)

// AvailabilityIndex отвечает на вопросы "какие столики заняты" и "кто из сотрудников свободен".
// Каждый вызов читает актуальное состояние хранилища, ничего не кэширует.
type AvailabilityIndex struct {
	reservations ReservationStore
	staff        StaffDirectory
}

func NewAvailabilityIndex(reservations ReservationStore, staff StaffDirectory) *AvailabilityIndex {
	return &AvailabilityIndex{
		reservations: reservations,
		staff:        staff,
	}
}

// OccupiedTableIDs столики с активной бронью, пересекающей окно
func (a *AvailabilityIndex) OccupiedTableIDs(ctx context.Context, window model.TimeInterval) ([]int64, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	ids, err := a.reservations.OccupiedTableIDs(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("get occupied tables: %w", err)
	}

	return ids, nil
}

// IsTableOccupied проверяет занят ли столик в окне
func (a *AvailabilityIndex) IsTableOccupied(ctx context.Context, tableID int64, window model.TimeInterval) (bool, error) {
	ids, err := a.OccupiedTableIDs(ctx, window)
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		if id == tableID {
			return true, nil
		}
	}

	return false, nil
}

// AvailableStaffForWindow сотрудники, чья смена целиком покрывает окно
// и которые не назначены на другую активную бронь в это время. Отсортированы по ID.
func (a *AvailabilityIndex) AvailableStaffForWindow(ctx context.Context, window model.TimeInterval) ([]int64, error) {
	return a.availableStaff(ctx, window, 0)
}

func (a *AvailabilityIndex) availableStaff(ctx context.Context, window model.TimeInterval, excludeReservationID int64) ([]int64, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	shifts, err := a.staff.ShiftsCovering(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("get covering shifts: %w", err)
	}

	busyIDs, err := a.reservations.BusyStaffIDs(ctx, window, excludeReservationID)
	if err != nil {
		return nil, fmt.Errorf("get busy staff: %w", err)
	}

	busy := make(map[int64]struct{}, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(shifts))
	staffIDs := make([]int64, 0, len(shifts))
	for _, shift := range shifts {
		// Хранилище может вернуть лишнее, проверяем покрытие ещё раз
		if !model.Covers(shift.Period, window) {
			continue
		}
		if _, ok := busy[shift.StaffID]; ok {
			continue
		}
		if _, ok := seen[shift.StaffID]; ok {
			continue
		}
		seen[shift.StaffID] = struct{}{}
		staffIDs = append(staffIDs, shift.StaffID)
	}

	sort.Slice(staffIDs, func(i, j int) bool { return staffIDs[i] < staffIDs[j] })

	return staffIDs, nil
}
