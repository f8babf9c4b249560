package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mnw01/scan-order/internal/database"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// --- Shared response types ---

type restaurantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   *string   `json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toRestaurantResponse(r database.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		LogoURL:   textPtr(r.LogoURL),
		CreatedAt: r.CreatedAt,
	}
}

type menuItemResponse struct {
	ID           uuid.UUID                 `json:"id"`
	RestaurantID uuid.UUID                 `json:"restaurant_id"`
	Category     string                    `json:"category"`
	Name         string                    `json:"name"`
	Price        string                    `json:"price"`
	Stock        int32                     `json:"stock"`
	Description  *string                   `json:"description"`
	Options      []database.MenuItemOption `json:"options"`
	ImageURL     *string                   `json:"image_url"`
	IsAvailable  bool                      `json:"is_available"`
	CreatedAt    time.Time                 `json:"created_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	options := m.Options
	if options == nil {
		options = []database.MenuItemOption{}
	}
	return menuItemResponse{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Category:     m.Category,
		Name:         m.Name,
		Price:        database.NumericToDecimal(m.Price).StringFixed(2),
		Stock:        m.Stock,
		Description:  textPtr(m.Description),
		Options:      options,
		ImageURL:     textPtr(m.ImageURL),
		IsAvailable:  m.IsAvailable,
		CreatedAt:    m.CreatedAt,
	}
}
