package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mnw01/scan-order/internal/cache"
	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/service"
)

// RestaurantStore defines the database methods needed by restaurant handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RestaurantStore interface {
	GetRestaurantBySlug(ctx context.Context, slug string) (database.Restaurant, error)
	ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
}

// RestaurantHandler resolves restaurant slugs for the customer menu page.
type RestaurantHandler struct {
	store RestaurantStore
	cache *cache.RestaurantCache
	qr    service.TableQRGenerator
}

func NewRestaurantHandler(store RestaurantStore, c *cache.RestaurantCache, qr service.TableQRGenerator) *RestaurantHandler {
	return &RestaurantHandler{store: store, cache: c, qr: qr}
}

func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Resolve)
	r.Get("/tables/{table}/qrcode", h.TableQR)
}

type resolveResponse struct {
	Restaurant restaurantResponse `json:"restaurant"`
	MenuItems  []menuItemResponse `json:"menu_items"`
	Categories []string           `json:"categories"`
}

func (h *RestaurantHandler) resolveSlug(ctx context.Context, slug string) (database.Restaurant, error) {
	if r, ok := h.cache.Get(ctx, slug); ok {
		return r, nil
	}
	r, err := h.store.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		return database.Restaurant{}, err
	}
	if err := h.cache.Set(ctx, r); err != nil {
		log.Printf("ERROR: cache restaurant %s: %v", slug, err)
	}
	return r, nil
}

// Resolve handles GET /r/{slug}: the restaurant plus its available
// menu, ordered by category then name, plus the distinct category list.
func (h *RestaurantHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	restaurant, err := h.resolveSlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		log.Printf("ERROR: resolve restaurant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListAvailableMenuItems(r.Context(), restaurant.ID)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	itemResponses := make([]menuItemResponse, len(items))
	var categories []string
	seen := make(map[string]bool)
	for i, item := range items {
		itemResponses[i] = toMenuItemResponse(item)
		if !seen[item.Category] {
			seen[item.Category] = true
			categories = append(categories, item.Category)
		}
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Restaurant: toRestaurantResponse(restaurant),
		MenuItems:  itemResponses,
		Categories: categories,
	})
}

// TableQR handles GET /r/{slug}/tables/{table}/qrcode, returning
// the PNG customers scan to open this table's menu.
func (h *RestaurantHandler) TableQR(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	table := chi.URLParam(r, "table")

	if _, err := h.resolveSlug(r.Context(), slug); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		log.Printf("ERROR: resolve restaurant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	png, err := h.qr.Generate(slug, table)
	if err != nil {
		log.Printf("ERROR: generate table qr: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
