package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/enum"
	"github.com/mnw01/scan-order/internal/stream"
)

// OrderStore defines the database methods needed by order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// OrderHandler handles the kitchen queue endpoints.
type OrderHandler struct {
	store     OrderStore
	publisher *stream.Publisher
}

func NewOrderHandler(store OrderStore, publisher *stream.Publisher) *OrderHandler {
	return &OrderHandler{store: store, publisher: publisher}
}

// RegisterRoutes registers order endpoints. Expected to be mounted inside a
// restaurant-scoped subrouter: /restaurants/{rid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListActive)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID           uuid.UUID           `json:"id"`
	RestaurantID uuid.UUID           `json:"restaurant_id"`
	TableNumber  string              `json:"table_number"`
	Status       string              `json:"status"`
	StatusLabel  string              `json:"status_label"`
	ActionLabel  string              `json:"action_label,omitempty"`
	TotalAmount  string              `json:"total_amount"`
	Notes        *string             `json:"notes"`
	CreatedAt    time.Time           `json:"created_at"`
	Items        []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID              uuid.UUID         `json:"id"`
	OrderID         uuid.UUID         `json:"order_id"`
	MenuItemID      uuid.UUID         `json:"menu_item_id"`
	Quantity        int32             `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options"`
	UnitPrice       string            `json:"unit_price"`
	MenuItem        menuItemResponse  `json:"menu_item"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

func toOrderResponse(o database.Order, items []database.ListOrderItemsRow) orderResponse {
	itemResponses := make([]orderItemResponse, len(items))
	for i, row := range items {
		opts := row.OrderItem.SelectedOptions
		if opts == nil {
			opts = map[string]string{}
		}
		itemResponses[i] = orderItemResponse{
			ID:              row.OrderItem.ID,
			OrderID:         row.OrderItem.OrderID,
			MenuItemID:      row.OrderItem.MenuItemID,
			Quantity:        row.OrderItem.Quantity,
			SelectedOptions: opts,
			UnitPrice:       database.NumericToDecimal(row.OrderItem.UnitPrice).StringFixed(2),
			MenuItem:        toMenuItemResponse(row.MenuItem),
		}
	}
	return orderResponse{
		ID:           o.ID,
		RestaurantID: o.RestaurantID,
		TableNumber:  o.TableNumber,
		Status:       o.Status,
		StatusLabel:  enum.StatusLabel(o.Status),
		ActionLabel:  enum.ActionLabel(o.Status),
		TotalAmount:  database.NumericToDecimal(o.TotalAmount).StringFixed(2),
		Notes:        textPtr(o.Notes),
		CreatedAt:    o.CreatedAt,
		Items:        itemResponses,
	}
}

// --- Handlers ---

// ListActive handles GET /restaurants/{rid}/orders: the kitchen queue,
// pending/preparing/served only, newest first, joined with lines and menu
// item snapshots.
func (h *OrderHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	orders, err := h.store.ListActiveOrders(r.Context(), restaurantID)
	if err != nil {
		log.Printf("ERROR: list active orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = toOrderResponse(o, items)
	}

	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp})
}

// UpdateStatus handles PATCH /restaurants/{rid}/orders/{id}/status.
// Only the single legal forward transition is accepted; re-applying the
// current status is a no-op success so retries are safe.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !enum.IsValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:           orderID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Re-applying the current status happens on retries after a lost
	// response; treat it as already done.
	if current.Status == req.Status {
		writeJSON(w, http.StatusOK, toOrderResponse(current, nil))
		return
	}

	if !enum.CanTransition(current.Status, req.Status) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("illegal transition %s -> %s", current.Status, req.Status),
		})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:           orderID,
		RestaurantID: restaurantID,
		Status:       req.Status,
		FromStatus:   current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Status changed between our read and write (race condition)
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.publisher.Publish(r.Context(), stream.EventOrderStatusChanged, updated)

	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil))
}
