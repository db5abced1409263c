package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuRepository struct {
	*base.Repository
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает позицию меню по ID
func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*model.MenuItem, error) {
	query := `
		SELECT id, name, price, is_available
		FROM menu_items
		WHERE id = $1
	`

	var item model.MenuItem
	err := r.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.IsAvailable,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get menu item by id: %w", err)
	}

	return &item, nil
}
