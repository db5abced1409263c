package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `id, client_id, table_id, staff_id, start_time, end_time, status, created_at, updated_at`

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт бронь вместе с позициями заказа.
// Пересечение с другой активной бронью того же столика возвращается как model.ErrSlotConflict.
func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.InTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO reservations (client_id, table_id, staff_id, start_time, end_time, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`

		err := r.QueryRow(
			ctx, query,
			reservation.ClientID,
			reservation.TableID,
			reservation.StaffID,
			reservation.Period.Start,
			reservation.Period.End,
			reservation.Status,
		).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)

		if err != nil {
			if base.IsConflict(err) {
				return fmt.Errorf("create reservation: %w", model.ErrSlotConflict)
			}
			return fmt.Errorf("create reservation: %w", err)
		}

		itemQuery := `
			INSERT INTO reservation_items (reservation_id, menu_item_id, quantity, is_served)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`

		for _, item := range reservation.Items {
			item.ReservationID = reservation.ID
			err := r.QueryRow(ctx, itemQuery, item.ReservationID, item.MenuItemID, item.Quantity, item.IsServed).
				Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("create reservation item: %w", err)
			}
		}

		return nil
	})
}

// LockTable берёт транзакционную advisory-блокировку на столик.
// Проверка занятости и вставка брони одного столика выполняются строго по очереди.
func (r *ReservationRepository) LockTable(ctx context.Context, tableID int64) error {
	_, err := r.Conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, tableID)
	if err != nil {
		return fmt.Errorf("lock table %d: %w", tableID, err)
	}
	return nil
}

// GetByID получает бронь по ID вместе с позициями заказа
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	if err := r.loadItems(ctx, []*model.Reservation{reservation}); err != nil {
		return nil, err
	}

	return reservation, nil
}

// OccupiedTableIDs возвращает столики с активной бронью, пересекающей окно
func (r *ReservationRepository) OccupiedTableIDs(ctx context.Context, window model.TimeInterval) ([]int64, error) {
	query := `
		SELECT DISTINCT table_id
		FROM reservations
		WHERE status = ANY($1)
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY table_id
	`

	return r.queryIDs(ctx, query, activeStatuses(), window.Start, window.End)
}

// BusyStaffIDs возвращает сотрудников, уже назначенных на активную бронь в этом окне
func (r *ReservationRepository) BusyStaffIDs(ctx context.Context, window model.TimeInterval, excludeReservationID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT staff_id
		FROM reservations
		WHERE staff_id IS NOT NULL
		  AND status = ANY($1)
		  AND start_time < $3
		  AND end_time > $2
		  AND id <> $4
		ORDER BY staff_id
	`

	return r.queryIDs(ctx, query, activeStatuses(), window.Start, window.End, excludeReservationID)
}

// List получает все брони, сначала самые новые
func (r *ReservationRepository) List(ctx context.Context) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY id DESC`
	return r.queryReservations(ctx, true, query)
}

// ListByClient получает все брони клиента
func (r *ReservationRepository) ListByClient(ctx context.Context, clientID int64) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE client_id = $1 ORDER BY id DESC`
	return r.queryReservations(ctx, true, query, clientID)
}

// ListByStaff получает брони сотрудника, сначала самые поздние по времени начала
func (r *ReservationRepository) ListByStaff(ctx context.Context, staffID int64) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE staff_id = $1 ORDER BY start_time DESC, id DESC`
	return r.queryReservations(ctx, true, query, staffID)
}

// FindConfirmedEndedBefore подтверждённые брони, закончившиеся раньше threshold
func (r *ReservationRepository) FindConfirmedEndedBefore(ctx context.Context, threshold time.Time, limit int) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = $1 AND end_time < $2
		ORDER BY end_time
		LIMIT $3
	`
	return r.queryReservations(ctx, false, query, model.ReservationStatusConfirmed, threshold, limit)
}

// FindPendingStartedBefore неподтверждённые брони, время начала которых уже прошло
func (r *ReservationRepository) FindPendingStartedBefore(ctx context.Context, threshold time.Time, limit int) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = $1 AND start_time < $2
		ORDER BY start_time
		LIMIT $3
	`
	return r.queryReservations(ctx, false, query, model.ReservationStatusPending, threshold, limit)
}

// TransitionStatus меняет статус только если текущий статус равен from.
// Возвращает false, если бронь уже в другом статусе или не существует.
func (r *ReservationRepository) TransitionStatus(ctx context.Context, id int64, from, to model.ReservationStatus) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	affected, err := r.ExecAffected(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update reservation status: %w", err)
	}

	return affected > 0, nil
}

// SetStaff назначает сотрудника на бронь
func (r *ReservationRepository) SetStaff(ctx context.Context, id, staffID int64) error {
	query := `
		UPDATE reservations
		SET staff_id = $2, updated_at = now()
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, id, staffID)
	if err != nil {
		return fmt.Errorf("set reservation staff: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}

	return nil
}

// ToggleItemServed переключает флаг подачи позиции. Возвращает nil, если позиция не принадлежит брони.
func (r *ReservationRepository) ToggleItemServed(ctx context.Context, reservationID, itemID int64) (*model.ReservationItem, error) {
	query := `
		UPDATE reservation_items
		SET is_served = NOT is_served
		WHERE id = $1 AND reservation_id = $2
		RETURNING id, reservation_id, menu_item_id, quantity, is_served
	`

	var item model.ReservationItem
	err := r.QueryRow(ctx, query, itemID, reservationID).Scan(
		&item.ID,
		&item.ReservationID,
		&item.MenuItemID,
		&item.Quantity,
		&item.IsServed,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("toggle reservation item: %w", err)
	}

	return &item, nil
}

// Delete удаляет бронь (позиции удалятся каскадом)
func (r *ReservationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete reservation: %w", err)
	}

	return affected > 0, nil
}

func (r *ReservationRepository) queryReservations(ctx context.Context, withItems bool, query string, args ...any) ([]*model.Reservation, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	reservations := []*model.Reservation{}
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	if withItems {
		if err := r.loadItems(ctx, reservations); err != nil {
			return nil, err
		}
	}

	return reservations, nil
}

func (r *ReservationRepository) loadItems(ctx context.Context, reservations []*model.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Reservation, len(reservations))
	ids := make([]int64, 0, len(reservations))
	for _, reservation := range reservations {
		reservation.Items = []*model.ReservationItem{}
		byID[reservation.ID] = reservation
		ids = append(ids, reservation.ID)
	}

	query := `
		SELECT id, reservation_id, menu_item_id, quantity, is_served
		FROM reservation_items
		WHERE reservation_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("get reservation items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.ReservationItem
		err := rows.Scan(
			&item.ID,
			&item.ReservationID,
			&item.MenuItemID,
			&item.Quantity,
			&item.IsServed,
		)
		if err != nil {
			return fmt.Errorf("scan reservation item: %w", err)
		}
		if reservation, ok := byID[item.ReservationID]; ok {
			reservation.Items = append(reservation.Items, &item)
		}
	}

	return rows.Err()
}

func (r *ReservationRepository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}

	return ids, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var reservation model.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.ClientID,
		&reservation.TableID,
		&reservation.StaffID,
		&reservation.Period.Start,
		&reservation.Period.End,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func activeStatuses() []string {
	statuses := model.ActiveReservationStatuses()
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
