package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

type ReservationService struct {
	tx           TxRunner
	reservations ReservationStore
	tables       TableCatalog
	menu         MenuCatalog
	staff        StaffDirectory
	notifier     Notifier
	availability *AvailabilityIndex
	policy       Policy
	logger       *zap.Logger

	now  func() time.Time
	pick func(n int) int

	notifications sync.WaitGroup
}

// Option настройка сервиса
type Option func(*ReservationService)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) { s.now = now }
}

// WithPicker подменяет случайный выбор сотрудника. pick(n) должен вернуть число из [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *ReservationService) { s.pick = pick }
}

func NewReservationService(
	tx TxRunner,
	reservations ReservationStore,
	tables TableCatalog,
	menu MenuCatalog,
	staff StaffDirectory,
	notifier Notifier,
	policy Policy,
	logger *zap.Logger,
	opts ...Option,
) *ReservationService {
	s := &ReservationService{
		tx:           tx,
		reservations: reservations,
		tables:       tables,
		menu:         menu,
		staff:        staff,
		notifier:     notifier,
		availability: NewAvailabilityIndex(reservations, staff),
		policy:       policy,
		logger:       logger,
		now:          time.Now,
		pick:         rand.Intn,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Availability индекс занятости, с которым работает сервис
func (s *ReservationService) Availability() *AvailabilityIndex {
	return s.availability
}

// CreateReservation создаёт бронь в статусе pending и случайно назначает свободного официанта
func (s *ReservationService) CreateReservation(ctx context.Context, clientID, tableID int64, window model.TimeInterval, items []model.ItemRequest) (*model.Reservation, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	if window.Start.Before(s.now()) {
		return nil, fmt.Errorf("%w: start %s", model.ErrReservationInPast, window.Start.Format(time.RFC3339))
	}

	if err := s.policy.CheckBusinessHours(window); err != nil {
		return nil, err
	}

	var reservation *model.Reservation

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		table, err := s.tables.GetByID(ctx, tableID)
		if err != nil {
			return fmt.Errorf("get table: %w", err)
		}

		if table == nil || !table.IsReservable() {
			return fmt.Errorf("table %d: %w", tableID, model.ErrNotFound)
		}

		// Проверка занятости и вставка идут под блокировкой столика
		if err := s.reservations.LockTable(ctx, tableID); err != nil {
			return err
		}

		occupied, err := s.availability.IsTableOccupied(ctx, tableID, window)
		if err != nil {
			return err
		}

		if occupied {
			return fmt.Errorf("table %d %s: %w", tableID, window, model.ErrSlotConflict)
		}

		lineItems, err := s.resolveItems(ctx, items)
		if err != nil {
			return err
		}

		staffIDs, err := s.availability.AvailableStaffForWindow(ctx, window)
		if err != nil {
			return err
		}

		reservation = &model.Reservation{
			ClientID: clientID,
			TableID:  tableID,
			Period:   window,
			Status:   model.ReservationStatusPending,
			Items:    lineItems,
		}

		if len(staffIDs) > 0 {
			staffID := staffIDs[s.pick(len(staffIDs))]
			reservation.StaffID = &staffID
		}

		return s.reservations.Create(ctx, reservation)
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("client_id", clientID),
		zap.Int64("table_id", tableID),
		zap.Stringer("period", reservation.Period),
		zap.Int64p("staff_id", reservation.StaffID),
		zap.Int("items", len(reservation.Items)),
	)

	return reservation, nil
}

func (s *ReservationService) resolveItems(ctx context.Context, requests []model.ItemRequest) ([]*model.ReservationItem, error) {
	items := make([]*model.ReservationItem, 0, len(requests))

	for _, req := range requests {
		if req.MenuItemID <= 0 {
			return nil, fmt.Errorf("%w: menu item id is required", model.ErrInvalidLineItem)
		}

		if req.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity of menu item %d must be at least 1", model.ErrInvalidLineItem, req.MenuItemID)
		}

		menuItem, err := s.menu.GetByID(ctx, req.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("get menu item: %w", err)
		}

		if menuItem == nil {
			return nil, fmt.Errorf("menu item %d: %w", req.MenuItemID, model.ErrNotFound)
		}

		items = append(items, &model.ReservationItem{
			MenuItemID: menuItem.ID,
			Quantity:   req.Quantity,
			IsServed:   false,
		})
	}

	return items, nil
}

// UpdateStatus переводит бронь в новый статус.
// Клиент может только отменить свою бронь, сотрудник и администратор - любой допустимый переход.
func (s *ReservationService) UpdateStatus(ctx context.Context, reservationID int64, newStatus model.ReservationStatus, caller model.Caller) error {
	reservation, err := s.getReservation(ctx, reservationID)
	if err != nil {
		return err
	}

	if reservation.Status == model.ReservationStatusCancelled || !reservation.Status.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", model.ErrInvalidStateTransition, reservation.Status, newStatus)
	}

	switch caller.Role {
	case model.RoleStaff, model.RoleAdmin:
	case model.RoleClient:
		if newStatus != model.ReservationStatusCancelled || reservation.ClientID != caller.UserID {
			return fmt.Errorf("reservation %d: %w", reservationID, model.ErrForbidden)
		}
	default:
		return fmt.Errorf("role %q: %w", caller.Role, model.ErrForbidden)
	}

	if err := s.transition(ctx, reservation, newStatus); err != nil {
		return err
	}

	s.logger.Info("Reservation status updated",
		zap.Int64("reservation_id", reservationID),
		zap.String("status", string(newStatus)),
		zap.Int64("caller_id", caller.UserID),
		zap.String("caller_role", string(caller.Role)),
	)

	if caller.Role != model.RoleClient {
		s.notify(reservation.ClientID, "Статус брони изменён",
			fmt.Sprintf("Бронь #%d на %s: %s", reservation.ID, reservation.Period.Start.Format("02.01.2006 15:04"), newStatus))
	}

	return nil
}

// CancelReservation отменяет бронь по запросу клиента-владельца
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID, clientID int64) error {
	reservation, err := s.getReservation(ctx, reservationID)
	if err != nil {
		return err
	}

	if reservation.ClientID != clientID {
		return fmt.Errorf("reservation %d: %w", reservationID, model.ErrForbidden)
	}

	if !reservation.Status.CanTransitionTo(model.ReservationStatusCancelled) {
		return fmt.Errorf("%w: cannot cancel reservation in status %s", model.ErrInvalidStateTransition, reservation.Status)
	}

	if err := s.transition(ctx, reservation, model.ReservationStatusCancelled); err != nil {
		return err
	}

	s.logger.Info("Reservation canceled",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("client_id", clientID),
	)

	return nil
}

// transition атомарно меняет статус, если его никто не изменил раньше.
// Подтверждённую бронь с истёкшим окном отменить нельзя: её завершит фоновая сверка.
func (s *ReservationService) transition(ctx context.Context, reservation *model.Reservation, to model.ReservationStatus) error {
	if to == model.ReservationStatusCancelled &&
		reservation.Status == model.ReservationStatusConfirmed &&
		!s.now().Before(reservation.Period.End) {
		return fmt.Errorf("%w: reservation %d has already ended", model.ErrInvalidStateTransition, reservation.ID)
	}

	ok, err := s.reservations.TransitionStatus(ctx, reservation.ID, reservation.Status, to)
	if err != nil {
		return err
	}

	if ok {
		return nil
	}

	// Статус изменился параллельно. Если он уже целевой - результат тот же.
	current, err := s.getReservation(ctx, reservation.ID)
	if err != nil {
		return err
	}

	if current.Status == to {
		return nil
	}

	return fmt.Errorf("%w: reservation %d is now %s", model.ErrInvalidStateTransition, reservation.ID, current.Status)
}

// AssignStaff административно назначает сотрудника на бронь.
// График сотрудника не проверяется, при отсутствии подходящей смены пишется предупреждение.
func (s *ReservationService) AssignStaff(ctx context.Context, reservationID, staffID int64) error {
	reservation, err := s.getReservation(ctx, reservationID)
	if err != nil {
		return err
	}

	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return fmt.Errorf("get staff: %w", err)
	}

	if staff == nil {
		return fmt.Errorf("staff %d: %w", staffID, model.ErrNotFound)
	}

	if err := s.reservations.SetStaff(ctx, reservationID, staffID); err != nil {
		return err
	}

	if !s.onShift(ctx, staffID, reservation.Period) {
		s.logger.Warn("Staff assigned outside of their shifts",
			zap.Int64("reservation_id", reservationID),
			zap.Int64("staff_id", staffID),
			zap.Stringer("period", reservation.Period),
		)
	}

	s.logger.Info("Staff assigned",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("staff_id", staffID),
	)

	s.notify(staffID, "Новая бронь",
		fmt.Sprintf("Вы назначены на бронь #%d, столик %d, %s", reservation.ID, reservation.TableID,
			reservation.Period.Start.Format("02.01.2006 15:04")))

	return nil
}

func (s *ReservationService) onShift(ctx context.Context, staffID int64, window model.TimeInterval) bool {
	shifts, err := s.staff.ShiftsCovering(ctx, window)
	if err != nil {
		s.logger.Error("Failed to check staff shifts", zap.Int64("staff_id", staffID), zap.Error(err))
		return true
	}

	for _, shift := range shifts {
		if shift.StaffID == staffID && model.Covers(shift.Period, window) {
			return true
		}
	}

	return false
}

// ToggleLineItemServed переключает флаг подачи блюда. Доступно только назначенному официанту.
func (s *ReservationService) ToggleLineItemServed(ctx context.Context, reservationID, itemID, staffID int64) (*model.ReservationItem, error) {
	reservation, err := s.getReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if !reservation.IsServedBy(staffID) {
		return nil, fmt.Errorf("reservation %d: %w", reservationID, model.ErrForbidden)
	}

	if reservation.Item(itemID) == nil {
		return nil, fmt.Errorf("item %d of reservation %d: %w", itemID, reservationID, model.ErrNotFound)
	}

	item, err := s.reservations.ToggleItemServed(ctx, reservationID, itemID)
	if err != nil {
		return nil, err
	}

	if item == nil {
		return nil, fmt.Errorf("item %d of reservation %d: %w", itemID, reservationID, model.ErrNotFound)
	}

	s.logger.Info("Reservation item toggled",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("item_id", itemID),
		zap.Bool("is_served", item.IsServed),
	)

	return item, nil
}

// ListOccupiedTables столики, занятые в окне
func (s *ReservationService) ListOccupiedTables(ctx context.Context, window model.TimeInterval) ([]int64, error) {
	return s.availability.OccupiedTableIDs(ctx, window)
}

// ListAvailableStaff сотрудники, которых можно поставить на бронь
func (s *ReservationService) ListAvailableStaff(ctx context.Context, reservationID int64) ([]*model.Staff, error) {
	reservation, err := s.getReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	ids, err := s.availability.availableStaff(ctx, reservation.Period, reservation.ID)
	if err != nil {
		return nil, err
	}

	staff := make([]*model.Staff, 0, len(ids))
	for _, id := range ids {
		member, err := s.staff.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get staff: %w", err)
		}
		if member != nil {
			staff = append(staff, member)
		}
	}

	return staff, nil
}

// ListAll все брони, сначала самые новые
func (s *ReservationService) ListAll(ctx context.Context) ([]*model.Reservation, error) {
	return s.reservations.List(ctx)
}

// ListForClient брони клиента, сначала самые новые
func (s *ReservationService) ListForClient(ctx context.Context, clientID int64) ([]*model.Reservation, error) {
	return s.reservations.ListByClient(ctx, clientID)
}

// ListForStaff брони официанта, сначала самые поздние
func (s *ReservationService) ListForStaff(ctx context.Context, staffID int64) ([]*model.Reservation, error) {
	return s.reservations.ListByStaff(ctx, staffID)
}

// GetReservation получает бронь по ID
func (s *ReservationService) GetReservation(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	return s.getReservation(ctx, reservationID)
}

// DeleteReservation удаляет бронь вместе с позициями. Только для административной чистки.
func (s *ReservationService) DeleteReservation(ctx context.Context, reservationID int64) error {
	deleted, err := s.reservations.Delete(ctx, reservationID)
	if err != nil {
		return err
	}

	if !deleted {
		return fmt.Errorf("reservation %d: %w", reservationID, model.ErrNotFound)
	}

	s.logger.Info("Reservation deleted", zap.Int64("reservation_id", reservationID))

	return nil
}

// Wait дожидается отправки всех запущенных уведомлений
func (s *ReservationService) Wait() {
	s.notifications.Wait()
}

func (s *ReservationService) getReservation(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	if reservation == nil {
		return nil, fmt.Errorf("reservation %d: %w", reservationID, model.ErrNotFound)
	}

	return reservation, nil
}

// notify отправляет уведомление в фоне, ошибки только логируются
func (s *ReservationService) notify(userID int64, title, body string) {
	s.dispatch(func(ctx context.Context) error {
		return s.notifier.Notify(ctx, userID, title, body)
	}, zap.Int64("user_id", userID), zap.String("title", title))
}

func (s *ReservationService) notifyAdmins(title, body string) {
	s.dispatch(func(ctx context.Context) error {
		return s.notifier.NotifyAdmins(ctx, title, body)
	}, zap.String("title", title))
}

func (s *ReservationService) dispatch(send func(ctx context.Context) error, fields ...zap.Field) {
	if s.notifier == nil {
		return
	}

	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			s.logger.Error("Failed to send notification", append(fields, zap.Error(err))...)
		}
	}()
}
