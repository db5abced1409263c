package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TableRepository struct {
	*base.Repository
}

func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает столик по ID
func (r *TableRepository) GetByID(ctx context.Context, id int64) (*model.Table, error) {
	query := `
		SELECT id, table_number, seats, is_active, created_at
		FROM restaurant_tables
		WHERE id = $1
	`

	var table model.Table
	err := r.QueryRow(ctx, query, id).Scan(
		&table.ID,
		&table.Number,
		&table.Seats,
		&table.IsActive,
		&table.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get table by id: %w", err)
	}

	return &table, nil
}

// List получает все активные столики
func (r *TableRepository) List(ctx context.Context) ([]*model.Table, error) {
	query := `
		SELECT id, table_number, seats, is_active, created_at
		FROM restaurant_tables
		WHERE is_active
		ORDER BY table_number NULLS LAST, id
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []*model.Table
	for rows.Next() {
		var table model.Table
		err := rows.Scan(
			&table.ID,
			&table.Number,
			&table.Seats,
			&table.IsActive,
			&table.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, &table)
	}

	return tables, rows.Err()
}
