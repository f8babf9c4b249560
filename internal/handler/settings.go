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

	"github.com/mnw01/scan-order/internal/cache"
	"github.com/mnw01/scan-order/internal/database"
)

// SettingsStore defines the database methods needed by restaurant settings.
type SettingsStore interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	UpdateRestaurant(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error)
}

// SettingsHandler handles owner edits to the restaurant record itself.
type SettingsHandler struct {
	store SettingsStore
	cache *cache.RestaurantCache
}

func NewSettingsHandler(store SettingsStore, c *cache.RestaurantCache) *SettingsHandler {
	return &SettingsHandler{store: store, cache: c}
}

type updateRestaurantRequest struct {
	Name    *string `json:"name"`
	LogoURL *string `json:"logo_url"`
}

// Update handles PATCH /restaurants/{rid}. Absent fields keep their current
// values. The slug cache entry is dropped so customer lookups pick up the
// edit on the next resolve.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req updateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name must not be empty"})
		return
	}

	current, err := h.store.GetRestaurant(r.Context(), restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		log.Printf("ERROR: get restaurant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	name := current.Name
	if req.Name != nil {
		name = *req.Name
	}
	logo := current.LogoURL
	if req.LogoURL != nil {
		logo = optionalText(*req.LogoURL)
	}

	restaurant, err := h.store.UpdateRestaurant(r.Context(), database.UpdateRestaurantParams{
		ID:      restaurantID,
		Name:    name,
		LogoURL: logo,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		log.Printf("ERROR: update restaurant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.cache.Invalidate(r.Context(), restaurant.Slug); err != nil {
		log.Printf("ERROR: invalidate restaurant cache %s: %v", restaurant.Slug, err)
	}

	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}
