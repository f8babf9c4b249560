package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/service"
	"github.com/mnw01/scan-order/internal/stream"
)

// CartStore defines the database methods needed by cart handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CartStore interface {
	ListCartItems(ctx context.Context, arg database.CartScope) ([]database.ListCartItemsRow, error)
	AddCartItem(ctx context.Context, arg database.AddCartItemParams) (database.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, arg database.UpdateCartItemQuantityParams) (database.CartItem, error)
	DeleteCartItem(ctx context.Context, arg database.DeleteCartItemParams) error
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
}

// CheckoutServicer defines the service methods needed by the checkout
// endpoint. Satisfied by *service.CheckoutService.
type CheckoutServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// CartHandler handles the shared table cart endpoints.
type CartHandler struct {
	store     CartStore
	svc       CheckoutServicer
	publisher *stream.Publisher
}

func NewCartHandler(store CartStore, svc CheckoutServicer, publisher *stream.Publisher) *CartHandler {
	return &CartHandler{store: store, svc: svc, publisher: publisher}
}

// RegisterRoutes registers cart endpoints. Expected to be mounted inside a
// table-scoped subrouter: /restaurants/{rid}/tables/{table}
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.List)
	r.Post("/cart", h.Add)
	r.Patch("/cart/{id}", h.UpdateQuantity)
	r.Delete("/cart/{id}", h.Remove)
	r.Post("/checkout", h.Checkout)
}

// --- Request / Response types ---

type addCartItemRequest struct {
	MenuItemID      string            `json:"menu_item_id"`
	Quantity        int32             `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options"`
}

type updateCartItemRequest struct {
	Quantity int32 `json:"quantity"`
}

type checkoutRequest struct {
	Notes string `json:"notes"`
}

type checkoutResponse struct {
	OrderID uuid.UUID `json:"order_id"`
}

type cartLineResponse struct {
	ID              uuid.UUID         `json:"id"`
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	TableNumber     string            `json:"table_number"`
	MenuItemID      uuid.UUID         `json:"menu_item_id"`
	Quantity        int32             `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options"`
	CreatedAt       time.Time         `json:"created_at"`
	MenuItem        menuItemResponse  `json:"menu_item"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
}

func toCartLineResponse(row database.ListCartItemsRow) cartLineResponse {
	opts := row.CartItem.SelectedOptions
	if opts == nil {
		opts = map[string]string{}
	}
	return cartLineResponse{
		ID:              row.CartItem.ID,
		RestaurantID:    row.CartItem.RestaurantID,
		TableNumber:     row.CartItem.TableNumber,
		MenuItemID:      row.CartItem.MenuItemID,
		Quantity:        row.CartItem.Quantity,
		SelectedOptions: opts,
		CreatedAt:       row.CartItem.CreatedAt,
		MenuItem:        toMenuItemResponse(row.MenuItem),
	}
}

// --- Handlers ---

func cartScope(r *http.Request) (database.CartScope, error) {
	rid, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		return database.CartScope{}, fmt.Errorf("invalid restaurant ID")
	}
	table := chi.URLParam(r, "table")
	if table == "" {
		return database.CartScope{}, fmt.Errorf("missing table number")
	}
	return database.CartScope{RestaurantID: rid, TableNumber: table}, nil
}

// List handles GET /restaurants/{rid}/tables/{table}/cart.
// Lines come back joined with their menu item, oldest first.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := cartScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.ListCartItems(r.Context(), scope)
	if err != nil {
		log.Printf("ERROR: list cart items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines := make([]cartLineResponse, len(rows))
	for i, row := range rows {
		lines[i] = toCartLineResponse(row)
	}
	writeJSON(w, http.StatusOK, cartResponse{Lines: lines})
}

// Add handles POST /restaurants/{rid}/tables/{table}/cart.
// A line matching on (menu_item_id, selected_options) gains quantity instead
// of duplicating; the merge happens in a single upsert.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	scope, err := cartScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}
	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu_item_id"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), database.GetMenuItemParams{
		ID:           menuItemID,
		RestaurantID: scope.RestaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !item.IsAvailable || item.Stock == 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item is not available"})
		return
	}
	if err := validateSelectedOptions(item, req.SelectedOptions); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	line, err := h.store.AddCartItem(r.Context(), database.AddCartItemParams{
		RestaurantID:    scope.RestaurantID,
		TableNumber:     scope.TableNumber,
		MenuItemID:      menuItemID,
		Quantity:        req.Quantity,
		SelectedOptions: req.SelectedOptions,
	})
	if err != nil {
		log.Printf("ERROR: add cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCartLineResponse(database.ListCartItemsRow{CartItem: line, MenuItem: item}))
}

// UpdateQuantity handles PATCH /restaurants/{rid}/tables/{table}/cart/{id}.
// A quantity <= 0 removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	scope, err := cartScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart item ID"})
		return
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Quantity <= 0 {
		h.deleteLine(w, r, scope, lineID)
		return
	}

	_, err = h.store.UpdateCartItemQuantity(r.Context(), database.UpdateCartItemQuantityParams{
		ID:           lineID,
		RestaurantID: scope.RestaurantID,
		TableNumber:  scope.TableNumber,
		Quantity:     req.Quantity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart item not found"})
			return
		}
		log.Printf("ERROR: update cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /restaurants/{rid}/tables/{table}/cart/{id}.
// Removing an absent line is a no-op, not an error.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	scope, err := cartScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart item ID"})
		return
	}

	h.deleteLine(w, r, scope, lineID)
}

func (h *CartHandler) deleteLine(w http.ResponseWriter, r *http.Request, scope database.CartScope, lineID uuid.UUID) {
	err := h.store.DeleteCartItem(r.Context(), database.DeleteCartItemParams{
		ID:           lineID,
		RestaurantID: scope.RestaurantID,
		TableNumber:  scope.TableNumber,
	})
	if err != nil {
		log.Printf("ERROR: delete cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /restaurants/{rid}/tables/{table}/checkout.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	scope, err := cartScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req checkoutRequest
	if r.Body != nil {
		// The body is optional; a missing or empty one means no notes.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		RestaurantID: scope.RestaurantID,
		TableNumber:  scope.TableNumber,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": service.ErrEmptyCart.Error()})
			return
		}
		log.Printf("ERROR: checkout %s/%s: %v", scope.RestaurantID, scope.TableNumber, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "checkout failed"})
		return
	}

	h.publisher.Publish(r.Context(), stream.EventOrderCreated, result.Order)

	writeJSON(w, http.StatusCreated, checkoutResponse{OrderID: result.Order.ID})
}

// validateSelectedOptions checks the chosen configuration against the menu
// item's option groups: every required group needs exactly one chosen value,
// every key must name a known group, every value must be one of its choices.
func validateSelectedOptions(item database.MenuItem, selected map[string]string) error {
	groups := make(map[string]database.MenuItemOption, len(item.Options))
	for _, opt := range item.Options {
		groups[opt.Name] = opt
	}

	for name, value := range selected {
		opt, ok := groups[name]
		if !ok {
			return fmt.Errorf("unknown option %q", name)
		}
		valid := false
		for _, c := range opt.Choices {
			if c == value {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid choice %q for option %q", value, name)
		}
	}

	for _, opt := range item.Options {
		if opt.Required {
			if _, ok := selected[opt.Name]; !ok {
				return fmt.Errorf("option %q is required", opt.Name)
			}
		}
	}
	return nil
}
