package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/enum"
	"github.com/mnw01/scan-order/internal/handler"
)

// --- Mock OrderStore ---

type mockOrderStore struct {
	listActiveOrdersFn func(ctx context.Context, restaurantID uuid.UUID) ([]database.Order, error)
	listOrderItemsFn   func(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error)
	getOrderFn         func(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	updateStatusFn     func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

func (m *mockOrderStore) ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]database.Order, error) {
	if m.listActiveOrdersFn != nil {
		return m.listActiveOrdersFn(ctx, restaurantID)
	}
	return []database.Order{}, nil
}

func (m *mockOrderStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error) {
	if m.listOrderItemsFn != nil {
		return m.listOrderItemsFn(ctx, orderID)
	}
	return []database.ListOrderItemsRow{}, nil
}

func (m *mockOrderStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, arg)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, arg)
	}
	return database.Order{}, pgx.ErrNoRows
}

// --- Test helpers ---

func newOrderRouter(store *mockOrderStore) http.Handler {
	h := handler.NewOrderHandler(store, nil)
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}/orders", h.RegisterRoutes)
	return r
}

func statusPath(rid, orderID uuid.UUID) string {
	return fmt.Sprintf("/restaurants/%s/orders/%s/status", rid, orderID)
}

func pendingOrder(rid uuid.UUID) database.Order {
	return database.Order{
		ID:           uuid.New(),
		RestaurantID: rid,
		TableNumber:  "5",
		Status:       enum.OrderStatusPending,
		TotalAmount:  makeNumeric("71.50"),
	}
}

// --- Tests ---

func TestListActiveOrders(t *testing.T) {
	rid := uuid.New()
	order := pendingOrder(rid)
	store := &mockOrderStore{
		listActiveOrdersFn: func(ctx context.Context, restaurantID uuid.UUID) ([]database.Order, error) {
			if restaurantID != rid {
				t.Errorf("restaurantID = %s, want %s", restaurantID, rid)
			}
			return []database.Order{order}, nil
		},
	}
	router := newOrderRouter(store)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/restaurants/%s/orders", rid), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Orders []struct {
			Status      string `json:"status"`
			StatusLabel string `json:"status_label"`
			ActionLabel string `json:"action_label"`
			TotalAmount string `json:"total_amount"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(resp.Orders))
	}
	got := resp.Orders[0]
	if got.Status != "pending" || got.StatusLabel != "待处理" || got.ActionLabel != "开始制作" {
		t.Errorf("labels wrong: %+v", got)
	}
	if got.TotalAmount != "71.50" {
		t.Errorf("total_amount = %q, want \"71.50\"", got.TotalAmount)
	}
}

func TestUpdateStatusLegalTransition(t *testing.T) {
	rid := uuid.New()
	order := pendingOrder(rid)

	var updated *database.UpdateOrderStatusParams
	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
			return order, nil
		},
		updateStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			updated = &arg
			out := order
			out.Status = arg.Status
			return out, nil
		},
	}
	router := newOrderRouter(store)

	rec := doJSON(t, router, http.MethodPatch, statusPath(rid, order.ID),
		map[string]string{"status": "preparing"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if updated == nil || updated.FromStatus != "pending" || updated.Status != "preparing" {
		t.Errorf("update params = %+v", updated)
	}
}

func TestUpdateStatusRejectsIllegalTransitions(t *testing.T) {
	rid := uuid.New()
	order := pendingOrder(rid)
	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
			return order, nil
		},
		updateStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			t.Fatal("illegal transition must not reach the store")
			return database.Order{}, nil
		},
	}
	router := newOrderRouter(store)

	// pending may only move to preparing; skipping and reversing are out.
	for _, target := range []string{"served", "completed"} {
		rec := doJSON(t, router, http.MethodPatch, statusPath(rid, order.ID),
			map[string]string{"status": target})
		if rec.Code != http.StatusConflict {
			t.Errorf("pending -> %s: status = %d, want 409", target, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodPatch, statusPath(rid, order.ID),
		map[string]string{"status": "cancelled"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status: status = %d, want 400", rec.Code)
	}
}

func TestUpdateStatusIdempotentReapply(t *testing.T) {
	rid := uuid.New()
	order := pendingOrder(rid)
	order.Status = enum.OrderStatusPreparing
	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
			return order, nil
		},
		updateStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			t.Fatal("re-applying the current status must not write")
			return database.Order{}, nil
		},
	}
	router := newOrderRouter(store)

	rec := doJSON(t, router, http.MethodPatch, statusPath(rid, order.ID),
		map[string]string{"status": "preparing"})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (no-op success)", rec.Code)
	}
}

func TestUpdateStatusLostRace(t *testing.T) {
	rid := uuid.New()
	order := pendingOrder(rid)
	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
			return order, nil
		},
		updateStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			// Another screen advanced the order between our read and write.
			return database.Order{}, pgx.ErrNoRows
		},
	}
	router := newOrderRouter(store)

	rec := doJSON(t, router, http.MethodPatch, statusPath(rid, order.ID),
		map[string]string{"status": "preparing"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	store := &mockOrderStore{}
	router := newOrderRouter(store)

	rec := doJSON(t, router, http.MethodPatch, statusPath(uuid.New(), uuid.New()),
		map[string]string{"status": "preparing"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
