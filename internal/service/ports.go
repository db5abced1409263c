package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
)

// TxRunner выполняет функцию в одной транзакции хранилища
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReservationStore хранилище броней и позиций заказа
type ReservationStore interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	LockTable(ctx context.Context, tableID int64) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	OccupiedTableIDs(ctx context.Context, window model.TimeInterval) ([]int64, error)
	BusyStaffIDs(ctx context.Context, window model.TimeInterval, excludeReservationID int64) ([]int64, error)
	List(ctx context.Context) ([]*model.Reservation, error)
	ListByClient(ctx context.Context, clientID int64) ([]*model.Reservation, error)
	ListByStaff(ctx context.Context, staffID int64) ([]*model.Reservation, error)
	FindConfirmedEndedBefore(ctx context.Context, threshold time.Time, limit int) ([]*model.Reservation, error)
	FindPendingStartedBefore(ctx context.Context, threshold time.Time, limit int) ([]*model.Reservation, error)
	TransitionStatus(ctx context.Context, id int64, from, to model.ReservationStatus) (bool, error)
	SetStaff(ctx context.Context, id, staffID int64) error
	ToggleItemServed(ctx context.Context, reservationID, itemID int64) (*model.ReservationItem, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// TableCatalog каталог столиков
type TableCatalog interface {
	GetByID(ctx context.Context, id int64) (*model.Table, error)
}

// MenuCatalog каталог блюд
type MenuCatalog interface {
	GetByID(ctx context.Context, id int64) (*model.MenuItem, error)
}

// StaffDirectory справочник сотрудников и их смен
type StaffDirectory interface {
	GetByID(ctx context.Context, id int64) (*model.Staff, error)
	ShiftsCovering(ctx context.Context, window model.TimeInterval) ([]*model.StaffShift, error)
}

// Notifier доставка уведомлений. Ошибки не откатывают операции с бронями.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, body string) error
	NotifyAdmins(ctx context.Context, title, body string) error
}
