package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mnw01/scan-order/internal/database"
)

// MenuStore defines the database methods needed by owner menu management.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, arg database.DeleteMenuItemParams) (int64, error)
}

// MenuHandler handles owner menu management. Customer flows never touch
// these endpoints; menu items are immutable from the customer side.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu management endpoints. Expected to be mounted
// inside an owner-gated restaurant subrouter: /restaurants/{rid}/menu-items
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type menuItemRequest struct {
	Category    string                    `json:"category"`
	Name        string                    `json:"name"`
	Price       string                    `json:"price"`
	Stock       *int32                    `json:"stock"`
	Description string                    `json:"description"`
	Options     []database.MenuItemOption `json:"options"`
	ImageURL    string                    `json:"image_url"`
	IsAvailable *bool                     `json:"is_available"`
}

func (req *menuItemRequest) validate() (decimal.Decimal, error) {
	if req.Category == "" {
		return decimal.Zero, errors.New("category is required")
	}
	if req.Name == "" {
		return decimal.Zero, errors.New("name is required")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return decimal.Zero, errors.New("invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, errors.New("price must be >= 0")
	}
	for _, opt := range req.Options {
		if opt.Name == "" {
			return decimal.Zero, errors.New("option name is required")
		}
		if len(opt.Choices) == 0 {
			return decimal.Zero, errors.New("option choices are required")
		}
	}
	return price, nil
}

// Create handles POST /restaurants/{rid}/menu-items.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	price, err := req.validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stock := int32(-1)
	if req.Stock != nil {
		stock = *req.Stock
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		RestaurantID: restaurantID,
		Category:     req.Category,
		Name:         req.Name,
		Price:        database.DecimalToNumeric(price),
		Stock:        stock,
		Description:  optionalText(req.Description),
		Options:      req.Options,
		ImageURL:     optionalText(req.ImageURL),
		IsAvailable:  available,
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PATCH /restaurants/{rid}/menu-items/{id}.
// The whole editable surface is replaced; absent stock/is_available keep
// their current values.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	current, err := h.store.GetMenuItem(r.Context(), database.GetMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
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

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	price, err := req.validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stock := current.Stock
	if req.Stock != nil {
		stock = *req.Stock
	}
	available := current.IsAvailable
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
		Category:     req.Category,
		Name:         req.Name,
		Price:        database.DecimalToNumeric(price),
		Stock:        stock,
		Description:  optionalText(req.Description),
		Options:      req.Options,
		ImageURL:     optionalText(req.ImageURL),
		IsAvailable:  available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete handles DELETE /restaurants/{rid}/menu-items/{id}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	affected, err := h.store.DeleteMenuItem(r.Context(), database.DeleteMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
