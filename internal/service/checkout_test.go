package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/enum"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
	execErr    error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	// The advisory lock statement lands here.
	return pgconn.CommandTag{}, m.execErr
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockCheckoutStore implements CheckoutStore with configurable behavior.
type mockCheckoutStore struct {
	listLinesFn       func(ctx context.Context, arg database.CartScope) ([]database.CheckoutLine, error)
	createOrderFn     func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	deleteByIDsFn     func(ctx context.Context, ids []uuid.UUID) (int64, error)
}

func (m *mockCheckoutStore) ListCartLinesForCheckout(ctx context.Context, arg database.CartScope) ([]database.CheckoutLine, error) {
	return m.listLinesFn(ctx, arg)
}
func (m *mockCheckoutStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockCheckoutStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockCheckoutStore) DeleteCartItemsByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return m.deleteByIDsFn(ctx, ids)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := database.NumericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func newTestService(store *mockCheckoutStore) (*CheckoutService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	return NewCheckoutService(pool, newStore), tx
}

// twoLineCart builds the worked example: two 红烧牛肉面 at 28.50 with
// 中辣, one 柠檬水 at 14.50.
func twoLineCart() []database.CheckoutLine {
	return []database.CheckoutLine{
		{
			CartItemID:      uuid.New(),
			MenuItemID:      uuid.New(),
			Quantity:        2,
			SelectedOptions: map[string]string{"辣度": "中辣"},
			UnitPrice:       makeNumeric("28.50"),
		},
		{
			CartItemID:      uuid.New(),
			MenuItemID:      uuid.New(),
			Quantity:        1,
			SelectedOptions: map[string]string{},
			UnitPrice:       makeNumeric("14.50"),
		},
	}
}

func defaultStore(lines []database.CheckoutLine) *mockCheckoutStore {
	return &mockCheckoutStore{
		listLinesFn: func(ctx context.Context, arg database.CartScope) ([]database.CheckoutLine, error) {
			return lines, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:           uuid.New(),
				RestaurantID: arg.RestaurantID,
				TableNumber:  arg.TableNumber,
				Status:       arg.Status,
				TotalAmount:  arg.TotalAmount,
				Notes:        arg.Notes,
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{
				ID:              uuid.New(),
				OrderID:         arg.OrderID,
				MenuItemID:      arg.MenuItemID,
				Quantity:        arg.Quantity,
				SelectedOptions: arg.SelectedOptions,
				UnitPrice:       arg.UnitPrice,
			}, nil
		},
		deleteByIDsFn: func(ctx context.Context, ids []uuid.UUID) (int64, error) {
			return int64(len(ids)), nil
		},
	}
}

// --- Tests ---

func TestCheckoutTotalAndSnapshot(t *testing.T) {
	lines := twoLineCart()
	store := defaultStore(lines)

	var createdOrder *database.CreateOrderParams
	baseCreate := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		createdOrder = &arg
		return baseCreate(ctx, arg)
	}

	svc, tx := newTestService(store)
	result, err := svc.Checkout(context.Background(), CheckoutRequest{
		RestaurantID: uuid.New(),
		TableNumber:  "5",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 2 x 28.50 + 1 x 14.50
	if !numericEquals(createdOrder.TotalAmount, "71.50") {
		t.Errorf("total = %s, want 71.50", database.NumericToDecimal(createdOrder.TotalAmount))
	}
	if createdOrder.Status != enum.OrderStatusPending {
		t.Errorf("status = %s, want %s", createdOrder.Status, enum.OrderStatusPending)
	}

	if len(result.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(result.Items))
	}
	if !numericEquals(result.Items[0].UnitPrice, "28.50") {
		t.Errorf("unit price not captured from cart snapshot")
	}
	if result.Items[0].SelectedOptions["辣度"] != "中辣" {
		t.Errorf("selected options not carried onto order item")
	}

	if !tx.committed {
		t.Error("transaction was not committed")
	}
	if tx.rolledBack {
		t.Error("transaction was rolled back after commit")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := defaultStore(nil)
	svc, tx := newTestService(store)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		RestaurantID: uuid.New(),
		TableNumber:  "5",
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if tx.committed {
		t.Error("empty cart must not commit")
	}
	if !tx.rolledBack {
		t.Error("empty cart must roll back")
	}
}

func TestCheckoutItemInsertFailureRollsBack(t *testing.T) {
	store := defaultStore(twoLineCart())
	boom := errors.New("insert failed")
	calls := 0
	store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		calls++
		if calls == 2 {
			return database.OrderItem{}, boom
		}
		return database.OrderItem{ID: uuid.New(), OrderID: arg.OrderID}, nil
	}

	svc, tx := newTestService(store)
	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		RestaurantID: uuid.New(),
		TableNumber:  "5",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped insert error", err)
	}
	if tx.committed {
		t.Error("failed checkout must not commit")
	}
	if !tx.rolledBack {
		t.Error("failed checkout must roll back; no partial order may survive")
	}
}

func TestCheckoutCartDrainMismatch(t *testing.T) {
	store := defaultStore(twoLineCart())
	store.deleteByIDsFn = func(ctx context.Context, ids []uuid.UUID) (int64, error) {
		return int64(len(ids)) - 1, nil
	}

	svc, tx := newTestService(store)
	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		RestaurantID: uuid.New(),
		TableNumber:  "5",
	})
	if !errors.Is(err, ErrCartConflict) {
		t.Fatalf("err = %v, want ErrCartConflict", err)
	}
	if tx.committed {
		t.Error("conflicting checkout must not commit")
	}
}

func TestCheckoutDeletesOnlySnapshottedLines(t *testing.T) {
	lines := twoLineCart()
	store := defaultStore(lines)

	var deleted []uuid.UUID
	store.deleteByIDsFn = func(ctx context.Context, ids []uuid.UUID) (int64, error) {
		deleted = ids
		return int64(len(ids)), nil
	}

	svc, _ := newTestService(store)
	if _, err := svc.Checkout(context.Background(), CheckoutRequest{
		RestaurantID: uuid.New(),
		TableNumber:  "5",
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if len(deleted) != 2 {
		t.Fatalf("deleted %d lines, want 2", len(deleted))
	}
	for i, l := range lines {
		if deleted[i] != l.CartItemID {
			t.Errorf("deleted[%d] = %s, want %s", i, deleted[i], l.CartItemID)
		}
	}
}

func TestScopeLockKeyDistinguishesScopes(t *testing.T) {
	rid := uuid.New()
	k1 := scopeLockKey(rid, "5")
	k2 := scopeLockKey(rid, "6")
	k3 := scopeLockKey(uuid.New(), "5")
	if k1 == k2 || k1 == k3 {
		t.Error("different scopes mapped to the same lock key")
	}
	if k1 != scopeLockKey(rid, "5") {
		t.Error("lock key not deterministic")
	}
}
