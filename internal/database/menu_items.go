package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, restaurant_id, category, name, price, stock, description, options, image_url, is_available, created_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.RestaurantID, &m.Category, &m.Name, &m.Price, &m.Stock,
		&m.Description, &m.Options, &m.ImageURL, &m.IsAvailable, &m.CreatedAt)
	return m, err
}

const listAvailableMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE restaurant_id = $1 AND is_available = true
ORDER BY category, name
`

func (q *Queries) ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItems, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type GetMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1 AND restaurant_id = $2
`

func (q *Queries) GetMenuItem(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, arg.ID, arg.RestaurantID))
}

type CreateMenuItemParams struct {
	RestaurantID uuid.UUID
	Category     string
	Name         string
	Price        pgtype.Numeric
	Stock        int32
	Description  pgtype.Text
	Options      []MenuItemOption
	ImageURL     pgtype.Text
	IsAvailable  bool
}

const createMenuItem = `
INSERT INTO menu_items (restaurant_id, category, name, price, stock, description, options, image_url, is_available)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + menuItemColumns + `
`

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.RestaurantID, arg.Category, arg.Name, arg.Price, arg.Stock,
		arg.Description, arg.Options, arg.ImageURL, arg.IsAvailable))
}

type UpdateMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Category     string
	Name         string
	Price        pgtype.Numeric
	Stock        int32
	Description  pgtype.Text
	Options      []MenuItemOption
	ImageURL     pgtype.Text
	IsAvailable  bool
}

const updateMenuItem = `
UPDATE menu_items
SET category = $3, name = $4, price = $5, stock = $6, description = $7,
    options = $8, image_url = $9, is_available = $10
WHERE id = $1 AND restaurant_id = $2
RETURNING ` + menuItemColumns + `
`

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.RestaurantID, arg.Category, arg.Name, arg.Price, arg.Stock,
		arg.Description, arg.Options, arg.ImageURL, arg.IsAvailable))
}

type DeleteMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const deleteMenuItem = `
DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2
`

func (q *Queries) DeleteMenuItem(ctx context.Context, arg DeleteMenuItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMenuItem, arg.ID, arg.RestaurantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
