package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cartItemColumns = `id, restaurant_id, table_number, menu_item_id, quantity, selected_options, created_at`

func scanCartItem(row interface{ Scan(dest ...any) error }) (CartItem, error) {
	var c CartItem
	err := row.Scan(&c.ID, &c.RestaurantID, &c.TableNumber, &c.MenuItemID,
		&c.Quantity, &c.SelectedOptions, &c.CreatedAt)
	return c, err
}

type CartScope struct {
	RestaurantID uuid.UUID
	TableNumber  string
}

// ListCartItemsRow is a cart line joined with its menu item snapshot.
type ListCartItemsRow struct {
	CartItem CartItem
	MenuItem MenuItem
}

const listCartItems = `
SELECT ci.id, ci.restaurant_id, ci.table_number, ci.menu_item_id, ci.quantity, ci.selected_options, ci.created_at,
       mi.id, mi.restaurant_id, mi.category, mi.name, mi.price, mi.stock, mi.description, mi.options, mi.image_url, mi.is_available, mi.created_at
FROM cart_items ci
JOIN menu_items mi ON mi.id = ci.menu_item_id
WHERE ci.restaurant_id = $1 AND ci.table_number = $2
ORDER BY ci.created_at ASC
`

func (q *Queries) ListCartItems(ctx context.Context, arg CartScope) ([]ListCartItemsRow, error) {
	rows, err := q.db.Query(ctx, listCartItems, arg.RestaurantID, arg.TableNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListCartItemsRow
	for rows.Next() {
		var r ListCartItemsRow
		err := rows.Scan(
			&r.CartItem.ID, &r.CartItem.RestaurantID, &r.CartItem.TableNumber, &r.CartItem.MenuItemID,
			&r.CartItem.Quantity, &r.CartItem.SelectedOptions, &r.CartItem.CreatedAt,
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

type AddCartItemParams struct {
	RestaurantID    uuid.UUID
	TableNumber     string
	MenuItemID      uuid.UUID
	Quantity        int32
	SelectedOptions map[string]string
}

// addCartItem merges on insert: a line with the same menu item and
// structurally equal selected options gains quantity instead of duplicating.
// jsonb equality is structural, so key order does not matter.
const addCartItem = `
INSERT INTO cart_items (restaurant_id, table_number, menu_item_id, quantity, selected_options)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (restaurant_id, table_number, menu_item_id, selected_options)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
RETURNING ` + cartItemColumns + `
`

func (q *Queries) AddCartItem(ctx context.Context, arg AddCartItemParams) (CartItem, error) {
	opts := arg.SelectedOptions
	if opts == nil {
		opts = map[string]string{}
	}
	return scanCartItem(q.db.QueryRow(ctx, addCartItem,
		arg.RestaurantID, arg.TableNumber, arg.MenuItemID, arg.Quantity, opts))
}

type UpdateCartItemQuantityParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	TableNumber  string
	Quantity     int32
}

const updateCartItemQuantity = `
UPDATE cart_items
SET quantity = $4
WHERE id = $1 AND restaurant_id = $2 AND table_number = $3
RETURNING ` + cartItemColumns + `
`

func (q *Queries) UpdateCartItemQuantity(ctx context.Context, arg UpdateCartItemQuantityParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, updateCartItemQuantity,
		arg.ID, arg.RestaurantID, arg.TableNumber, arg.Quantity))
}

type DeleteCartItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	TableNumber  string
}

const deleteCartItem = `
DELETE FROM cart_items
WHERE id = $1 AND restaurant_id = $2 AND table_number = $3
`

// DeleteCartItem removes a line. Deleting an absent line is not an error.
func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error {
	_, err := q.db.Exec(ctx, deleteCartItem, arg.ID, arg.RestaurantID, arg.TableNumber)
	return err
}

// CheckoutLine is a cart line with the current menu price, read inside the
// checkout transaction.
type CheckoutLine struct {
	CartItemID      uuid.UUID
	MenuItemID      uuid.UUID
	Quantity        int32
	SelectedOptions map[string]string
	UnitPrice       pgtype.Numeric
}

const listCartLinesForCheckout = `
SELECT ci.id, ci.menu_item_id, ci.quantity, ci.selected_options, mi.price
FROM cart_items ci
JOIN menu_items mi ON mi.id = ci.menu_item_id
WHERE ci.restaurant_id = $1 AND ci.table_number = $2
ORDER BY ci.created_at ASC
`

func (q *Queries) ListCartLinesForCheckout(ctx context.Context, arg CartScope) ([]CheckoutLine, error) {
	rows, err := q.db.Query(ctx, listCartLinesForCheckout, arg.RestaurantID, arg.TableNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CheckoutLine
	for rows.Next() {
		var l CheckoutLine
		if err := rows.Scan(&l.CartItemID, &l.MenuItemID, &l.Quantity, &l.SelectedOptions, &l.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const deleteCartItemsByIDs = `
DELETE FROM cart_items
WHERE id = ANY($1)
`

// DeleteCartItemsByIDs drains exactly the snapshotted lines. Checkout deletes
// by ID rather than by scope so a line added concurrently is carried over to
// the next cart instead of vanishing.
func (q *Queries) DeleteCartItemsByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCartItemsByIDs, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
