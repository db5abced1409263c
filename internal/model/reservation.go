package model

import (
	"fmt"
	"strings"
	"time"
)

type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "pending"     // Ожидает подтверждения
	ReservationStatusConfirmed  ReservationStatus = "confirmed"   // Подтверждена
	ReservationStatusInProgress ReservationStatus = "in_progress" // Гости за столиком
	ReservationStatusCompleted  ReservationStatus = "completed"   // Завершена
	ReservationStatusCancelled  ReservationStatus = "cancelled"   // Отменена
)

// Разрешённые переходы. Из completed и cancelled переходов нет.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:    {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed:  {ReservationStatusInProgress, ReservationStatusCancelled},
	ReservationStatusInProgress: {ReservationStatusCompleted},
}

// ActiveReservationStatuses статусы, которые занимают столик
func ActiveReservationStatuses() []ReservationStatus {
	return []ReservationStatus{
		ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusInProgress,
	}
}

// ParseReservationStatus разбирает статус без учёта регистра
func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusInProgress,
		ReservationStatusCompleted, ReservationStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCompleted || s == ReservationStatusCancelled
}

func (s ReservationStatus) IsActive() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusInProgress:
		return true
	}
	return false
}

// CanTransitionTo проверяет допустим ли переход в next
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID        int64              `json:"id"`
	ClientID  int64              `json:"client_id"`
	TableID   int64              `json:"table_id"`
	StaffID   *int64             `json:"staff_id"` // nil - официант не назначен
	Period    TimeInterval       `json:"period"`
	Status    ReservationStatus  `json:"status"`
	Items     []*ReservationItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Item возвращает позицию заказа по ID или nil, если она не принадлежит брони
func (r *Reservation) Item(itemID int64) *ReservationItem {
	for _, item := range r.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// IsServedBy проверяет что бронь обслуживает указанный сотрудник
func (r *Reservation) IsServedBy(staffID int64) bool {
	return r.StaffID != nil && *r.StaffID == staffID
}

// ReservationItem позиция меню, заказанная к брони
type ReservationItem struct {
	ID            int64 `json:"id"`
	ReservationID int64 `json:"reservation_id"`
	MenuItemID    int64 `json:"menu_item_id"`
	Quantity      int   `json:"quantity"`
	IsServed      bool  `json:"is_served"`
}

// ItemRequest позиция из запроса на бронирование
type ItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}
