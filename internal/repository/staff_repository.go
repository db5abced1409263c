package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StaffRepository struct {
	*base.Repository
}

func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает сотрудника по ID
func (r *StaffRepository) GetByID(ctx context.Context, id int64) (*model.Staff, error) {
	query := `
		SELECT s.user_id, u.first_name, u.last_name, s.speaks_english, s.hire_date
		FROM staff s
		JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1 AND u.is_active
	`

	var staff model.Staff
	err := r.QueryRow(ctx, query, id).Scan(
		&staff.ID,
		&staff.FirstName,
		&staff.LastName,
		&staff.SpeaksEnglish,
		&staff.HireDate,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get staff by id: %w", err)
	}

	return &staff, nil
}

// ShiftsCovering получает смены, целиком покрывающие окно
func (r *StaffRepository) ShiftsCovering(ctx context.Context, window model.TimeInterval) ([]*model.StaffShift, error) {
	query := `
		SELECT ws.id, ws.staff_id, ws.start_time, ws.end_time
		FROM work_shifts ws
		JOIN users u ON u.id = ws.staff_id
		WHERE ws.start_time <= $1
		  AND ws.end_time >= $2
		  AND u.is_active
		ORDER BY ws.staff_id, ws.id
	`

	rows, err := r.Query(ctx, query, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("get shifts covering window: %w", err)
	}
	defer rows.Close()

	var shifts []*model.StaffShift
	for rows.Next() {
		var shift model.StaffShift
		err := rows.Scan(
			&shift.ID,
			&shift.StaffID,
			&shift.Period.Start,
			&shift.Period.End,
		)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, &shift)
	}

	return shifts, rows.Err()
}
