package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, restaurant_id, table_number, status, total_amount, notes, created_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.RestaurantID, &o.TableNumber, &o.Status,
		&o.TotalAmount, &o.Notes, &o.CreatedAt)
	return o, err
}

type CreateOrderParams struct {
	RestaurantID uuid.UUID
	TableNumber  string
	Status       string
	TotalAmount  pgtype.Numeric
	Notes        pgtype.Text
}

const createOrder = `
INSERT INTO orders (restaurant_id, table_number, status, total_amount, notes)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + orderColumns + `
`

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.RestaurantID, arg.TableNumber, arg.Status, arg.TotalAmount, arg.Notes))
}

type CreateOrderItemParams struct {
	OrderID         uuid.UUID
	MenuItemID      uuid.UUID
	Quantity        int32
	SelectedOptions map[string]string
	UnitPrice       pgtype.Numeric
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, quantity, selected_options, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, menu_item_id, quantity, selected_options, unit_price
`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	opts := arg.SelectedOptions
	if opts == nil {
		opts = map[string]string{}
	}
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.MenuItemID, arg.Quantity, opts, arg.UnitPrice)
	var oi OrderItem
	err := row.Scan(&oi.ID, &oi.OrderID, &oi.MenuItemID, &oi.Quantity, &oi.SelectedOptions, &oi.UnitPrice)
	return oi, err
}

type GetOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND restaurant_id = $2
`

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.RestaurantID))
}

// listActiveOrders returns the kitchen queue: everything not yet completed,
// newest first.
const listActiveOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE restaurant_id = $1 AND status IN ('pending', 'preparing', 'served')
ORDER BY created_at DESC
`

func (q *Queries) ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listActiveOrders, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListOrderItemsRow is an order line joined with its menu item snapshot.
type ListOrderItemsRow struct {
	OrderItem OrderItem
	MenuItem  MenuItem
}

const listOrderItemsByOrder = `
SELECT oi.id, oi.order_id, oi.menu_item_id, oi.quantity, oi.selected_options, oi.unit_price,
       mi.id, mi.restaurant_id, mi.category, mi.name, mi.price, mi.stock, mi.description, mi.options, mi.image_url, mi.is_available, mi.created_at
FROM order_items oi
JOIN menu_items mi ON mi.id = oi.menu_item_id
WHERE oi.order_id = $1
ORDER BY oi.id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]ListOrderItemsRow, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListOrderItemsRow
	for rows.Next() {
		var r ListOrderItemsRow
		err := rows.Scan(
			&r.OrderItem.ID, &r.OrderItem.OrderID, &r.OrderItem.MenuItemID,
			&r.OrderItem.Quantity, &r.OrderItem.SelectedOptions, &r.OrderItem.UnitPrice,
			&r.MenuItem.ID, &r.MenuItem.RestaurantID, &r.MenuItem.Category, &r.MenuItem.Name,
			&r.MenuItem.Price, &r.MenuItem.Stock, &r.MenuItem.Description, &r.MenuItem.Options,
			&r.MenuItem.ImageURL, &r.MenuItem.IsAvailable, &r.MenuItem.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Status       string
	// FromStatus is the expected current status. The update also matches rows
	// already in the target status, so a retried transition is a no-op success.
	FromStatus string
}

const updateOrderStatus = `
UPDATE orders
SET status = $3
WHERE id = $1 AND restaurant_id = $2 AND status IN ($4, $3)
RETURNING ` + orderColumns + `
`

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID, arg.RestaurantID, arg.Status, arg.FromStatus))
}
