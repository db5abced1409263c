// Package memstore хранит данные броней в памяти. Используется в тестах
// вместо PostgreSQL и повторяет его гарантии: транзакции выполняются
// по очереди, пересечение активных броней одного столика отклоняется.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
)

type txKey struct{}

type Store struct {
	txMu sync.Mutex // сериализует транзакции
	mu   sync.Mutex // защищает данные

	nextID       int64
	reservations map[int64]*model.Reservation
	tables       map[int64]*model.Table
	menu         map[int64]*model.MenuItem
	staff        map[int64]*model.Staff
	shifts       []*model.StaffShift
	users        map[int64]*model.User
}

func New() *Store {
	return &Store{
		reservations: make(map[int64]*model.Reservation),
		tables:       make(map[int64]*model.Table),
		menu:         make(map[int64]*model.MenuItem),
		staff:        make(map[int64]*model.Staff),
		users:        make(map[int64]*model.User),
	}
}

// Reservations хранилище броней
func (s *Store) Reservations() *Reservations { return &Reservations{s: s} }

// Tables каталог столиков
func (s *Store) Tables() *Tables { return &Tables{s: s} }

// Menu каталог блюд
func (s *Store) Menu() *Menu { return &Menu{s: s} }

// Staff справочник сотрудников
func (s *Store) Staff() *Staff { return &Staff{s: s} }

// Users справочник пользователей
func (s *Store) Users() *Users { return &Users{s: s} }

// InTx выполняет fn эксклюзивно относительно других транзакций
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddTable добавляет столик и возвращает его ID
func (s *Store) AddTable(number *int, seats int, active bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.tables[id] = &model.Table{ID: id, Number: number, Seats: seats, IsActive: active, CreatedAt: time.Now()}
	return id
}

// AddMenuItem добавляет блюдо и возвращает его ID
func (s *Store) AddMenuItem(name string, price int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.menu[id] = &model.MenuItem{ID: id, Name: name, Price: price, IsAvailable: true}
	return id
}

// AddUser добавляет пользователя и возвращает его ID
func (s *Store) AddUser(email string, role model.Role, telegramID *int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.users[id] = &model.User{ID: id, Email: email, Role: role, TelegramID: telegramID, IsActive: true, CreatedAt: time.Now()}
	return id
}

// AddStaff добавляет сотрудника (вместе с пользователем) и возвращает его ID
func (s *Store) AddStaff(firstName, lastName string) int64 {
	id := s.AddUser(firstName+"@staff.local", model.RoleStaff, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.staff[id] = &model.Staff{ID: id, FirstName: firstName, LastName: lastName, HireDate: time.Now()}
	return id
}

// AddShift добавляет смену сотрудника
func (s *Store) AddShift(staffID int64, period model.TimeInterval) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.shifts = append(s.shifts, &model.StaffShift{ID: id, StaffID: staffID, Period: period})
	return id
}

// PutReservation сохраняет бронь как есть, без проверок. Нужна для подготовки данных.
func (s *Store) PutReservation(r *model.Reservation) *model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(r)
	if stored.ID == 0 {
		stored.ID = s.id()
	}
	for _, item := range stored.Items {
		if item.ID == 0 {
			item.ID = s.id()
		}
		item.ReservationID = stored.ID
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
		stored.UpdatedAt = stored.CreatedAt
	}
	s.reservations[stored.ID] = stored

	return clone(stored)
}

// Reservations реализует хранилище броней
type Reservations struct{ s *Store }

func (r *Reservations) Create(ctx context.Context, reservation *model.Reservation) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if reservation.Status.IsActive() {
		for _, other := range s.reservations {
			if other.TableID == reservation.TableID && other.Status.IsActive() &&
				model.Overlaps(other.Period, reservation.Period) {
				return fmt.Errorf("create reservation: %w", model.ErrSlotConflict)
			}
		}
	}

	reservation.ID = s.id()
	reservation.CreatedAt = time.Now()
	reservation.UpdatedAt = reservation.CreatedAt
	for _, item := range reservation.Items {
		item.ID = s.id()
		item.ReservationID = reservation.ID
	}

	s.reservations[reservation.ID] = clone(reservation)
	return nil
}

func (r *Reservations) LockTable(ctx context.Context, tableID int64) error {
	if ctx.Value(txKey{}) == nil {
		return errors.New("lock table: no transaction")
	}
	return nil
}

func (r *Reservations) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return nil, nil
	}
	return clone(reservation), nil
}

func (r *Reservations) OccupiedTableIDs(ctx context.Context, window model.TimeInterval) ([]int64, error) {
	return r.collectIDs(func(res *model.Reservation) (int64, bool) {
		return res.TableID, res.Status.IsActive() && model.Overlaps(res.Period, window)
	}), nil
}

func (r *Reservations) BusyStaffIDs(ctx context.Context, window model.TimeInterval, excludeReservationID int64) ([]int64, error) {
	return r.collectIDs(func(res *model.Reservation) (int64, bool) {
		if res.StaffID == nil || res.ID == excludeReservationID {
			return 0, false
		}
		return *res.StaffID, res.Status.IsActive() && model.Overlaps(res.Period, window)
	}), nil
}

func (r *Reservations) List(ctx context.Context) ([]*model.Reservation, error) {
	list := r.filter(func(*model.Reservation) bool { return true })
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *Reservations) ListByClient(ctx context.Context, clientID int64) ([]*model.Reservation, error) {
	list := r.filter(func(res *model.Reservation) bool { return res.ClientID == clientID })
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *Reservations) ListByStaff(ctx context.Context, staffID int64) ([]*model.Reservation, error) {
	list := r.filter(func(res *model.Reservation) bool { return res.IsServedBy(staffID) })
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Period.Start.Equal(list[j].Period.Start) {
			return list[i].Period.Start.After(list[j].Period.Start)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *Reservations) FindConfirmedEndedBefore(ctx context.Context, threshold time.Time, limit int) ([]*model.Reservation, error) {
	list := r.filter(func(res *model.Reservation) bool {
		return res.Status == model.ReservationStatusConfirmed && res.Period.End.Before(threshold)
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Period.End.Before(list[j].Period.End) })
	return limitList(list, limit), nil
}

func (r *Reservations) FindPendingStartedBefore(ctx context.Context, threshold time.Time, limit int) ([]*model.Reservation, error) {
	list := r.filter(func(res *model.Reservation) bool {
		return res.Status == model.ReservationStatusPending && res.Period.Start.Before(threshold)
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Period.Start.Before(list[j].Period.Start) })
	return limitList(list, limit), nil
}

func (r *Reservations) TransitionStatus(ctx context.Context, id int64, from, to model.ReservationStatus) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok || reservation.Status != from {
		return false, nil
	}

	reservation.Status = to
	reservation.UpdatedAt = time.Now()
	return true, nil
}

func (r *Reservations) SetStaff(ctx context.Context, id, staffID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}

	reservation.StaffID = &staffID
	reservation.UpdatedAt = time.Now()
	return nil
}

func (r *Reservations) ToggleItemServed(ctx context.Context, reservationID, itemID int64) (*model.ReservationItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return nil, nil
	}

	item := reservation.Item(itemID)
	if item == nil {
		return nil, nil
	}

	item.IsServed = !item.IsServed
	copied := *item
	return &copied, nil
}

func (r *Reservations) Delete(ctx context.Context, id int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return false, nil
	}

	delete(s.reservations, id)
	return true, nil
}

func (r *Reservations) filter(keep func(*model.Reservation) bool) []*model.Reservation {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	list := []*model.Reservation{}
	for _, reservation := range s.reservations {
		if keep(reservation) {
			list = append(list, clone(reservation))
		}
	}
	return list
}

func (r *Reservations) collectIDs(pick func(*model.Reservation) (int64, bool)) []int64 {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]struct{})
	ids := []int64{}
	for _, reservation := range s.reservations {
		id, ok := pick(reservation)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Tables реализует каталог столиков
type Tables struct{ s *Store }

func (t *Tables) GetByID(ctx context.Context, id int64) (*model.Table, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	table, ok := t.s.tables[id]
	if !ok {
		return nil, nil
	}
	copied := *table
	return &copied, nil
}

// Menu реализует каталог блюд
type Menu struct{ s *Store }

func (m *Menu) GetByID(ctx context.Context, id int64) (*model.MenuItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	item, ok := m.s.menu[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

// Staff реализует справочник сотрудников
type Staff struct{ s *Store }

func (st *Staff) GetByID(ctx context.Context, id int64) (*model.Staff, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	member, ok := st.s.staff[id]
	if !ok {
		return nil, nil
	}
	copied := *member
	return &copied, nil
}

func (st *Staff) ShiftsCovering(ctx context.Context, window model.TimeInterval) ([]*model.StaffShift, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var shifts []*model.StaffShift
	for _, shift := range st.s.shifts {
		if model.Covers(shift.Period, window) {
			copied := *shift
			shifts = append(shifts, &copied)
		}
	}
	return shifts, nil
}

// Users реализует справочник пользователей
type Users struct{ s *Store }

func (u *Users) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (u *Users) ListAdmins(ctx context.Context) ([]*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	var admins []*model.User
	for _, user := range u.s.users {
		if user.Role == model.RoleAdmin && user.IsActive {
			copied := *user
			admins = append(admins, &copied)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].ID < admins[j].ID })
	return admins, nil
}

func clone(r *model.Reservation) *model.Reservation {
	copied := *r
	if r.StaffID != nil {
		staffID := *r.StaffID
		copied.StaffID = &staffID
	}
	copied.Items = make([]*model.ReservationItem, 0, len(r.Items))
	for _, item := range r.Items {
		itemCopy := *item
		copied.Items = append(copied.Items, &itemCopy)
	}
	return &copied
}

func limitList(list []*model.Reservation, limit int) []*model.Reservation {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
