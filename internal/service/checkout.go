package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/enum"
)

// Errors returned by the checkout service.
var (
	ErrEmptyCart    = errors.New("nothing to check out")
	ErrCartConflict = errors.New("cart changed during checkout")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CheckoutStore defines the DB methods needed to convert a cart into an order.
// Satisfied by *database.Queries (and its WithTx variant).
type CheckoutStore interface {
	ListCartLinesForCheckout(ctx context.Context, arg database.CartScope) ([]database.CheckoutLine, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	DeleteCartItemsByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx).
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// CheckoutRequest identifies the cart scope to drain.
type CheckoutRequest struct {
	RestaurantID uuid.UUID
	TableNumber  string
	Notes        string
}

// CheckoutResult is the created order with its line snapshots.
type CheckoutResult struct {
	Order database.Order
	Items []database.OrderItem
}

// CheckoutService converts a table's cart into an immutable order atomically.
type CheckoutService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
}

func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore) *CheckoutService {
	return &CheckoutService{pool: pool, newStore: newStore}
}

// Checkout runs the whole conversion in one transaction: snapshot every cart
// line with its current menu price, create the order with total = sum of line
// totals, create one order item per line carrying the captured unit price,
// delete the snapshotted cart lines. Any failure rolls back everything; no
// reader ever observes an order without items or a half-emptied cart.
//
// An advisory lock on the (restaurant, table) scope serializes concurrent
// checkouts for the same table: the loser of a race sees an empty cart and
// gets ErrEmptyCart instead of creating a second order.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", scopeLockKey(req.RestaurantID, req.TableNumber)); err != nil {
		return nil, fmt.Errorf("lock scope: %w", err)
	}

	store := s.newStore(tx)
	scope := database.CartScope{RestaurantID: req.RestaurantID, TableNumber: req.TableNumber}

	lines, err := store.ListCartLinesForCheckout(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		price := database.NumericToDecimal(l.UnitPrice)
		total = total.Add(price.Mul(decimal.NewFromInt32(l.Quantity)))
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		RestaurantID: req.RestaurantID,
		TableNumber:  req.TableNumber,
		Status:       enum.OrderStatusPending,
		TotalAmount:  database.DecimalToNumeric(total),
		Notes:        notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:         order.ID,
			MenuItemID:      l.MenuItemID,
			Quantity:        l.Quantity,
			SelectedOptions: l.SelectedOptions,
			UnitPrice:       l.UnitPrice,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
		ids = append(ids, l.CartItemID)
	}

	deleted, err := store.DeleteCartItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("drain cart: %w", err)
	}
	if deleted != int64(len(ids)) {
		// A snapshotted line vanished mid-transaction. Should be impossible
		// under the advisory lock; abort rather than ship a wrong order.
		return nil, ErrCartConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{Order: order, Items: items}, nil
}

// scopeLockKey hashes a (restaurant, table) scope into an advisory lock key.
func scopeLockKey(restaurantID uuid.UUID, tableNumber string) int64 {
	h := fnv.New64a()
	h.Write(restaurantID[:])
	h.Write([]byte{0})
	h.Write([]byte(tableNumber))
	return int64(h.Sum64())
}
