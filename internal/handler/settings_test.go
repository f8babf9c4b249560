package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/handler"
)

type mockSettingsStore struct {
	getFn    func(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	updateFn func(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error)
}

func (m *mockSettingsStore) GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockSettingsStore) UpdateRestaurant(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, arg)
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func newSettingsRouter(store *mockSettingsStore) http.Handler {
	h := handler.NewSettingsHandler(store, nil)
	r := chi.NewRouter()
	r.Patch("/restaurants/{rid}", h.Update)
	return r
}

func TestUpdateSettingsPartial(t *testing.T) {
	restaurant := database.Restaurant{
		ID:      uuid.New(),
		Name:    "扫码点餐演示餐厅",
		Slug:    "demo",
		LogoURL: pgtype.Text{String: "https://cdn.example.com/logo.png", Valid: true},
	}

	var updated database.UpdateRestaurantParams
	store := &mockSettingsStore{
		getFn: func(ctx context.Context, id uuid.UUID) (database.Restaurant, error) {
			if id != restaurant.ID {
				return database.Restaurant{}, pgx.ErrNoRows
			}
			return restaurant, nil
		},
		updateFn: func(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error) {
			updated = arg
			out := restaurant
			out.Name = arg.Name
			out.LogoURL = arg.LogoURL
			return out, nil
		},
	}
	router := newSettingsRouter(store)

	// Only the name is sent; the logo must carry over from the current row.
	rec := doJSON(t, router, http.MethodPatch, "/restaurants/"+restaurant.ID.String(),
		map[string]string{"name": "新店名"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if updated.Name != "新店名" {
		t.Errorf("updated name = %q, want 新店名", updated.Name)
	}
	if !updated.LogoURL.Valid || updated.LogoURL.String != restaurant.LogoURL.String {
		t.Errorf("logo not carried over: %+v", updated.LogoURL)
	}

	var resp struct {
		Name    string  `json:"name"`
		LogoURL *string `json:"logo_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "新店名" {
		t.Errorf("response name = %q, want 新店名", resp.Name)
	}
	if resp.LogoURL == nil || *resp.LogoURL != restaurant.LogoURL.String {
		t.Errorf("response logo_url = %v, want %q", resp.LogoURL, restaurant.LogoURL.String)
	}
}

func TestUpdateSettingsEmptyName(t *testing.T) {
	router := newSettingsRouter(&mockSettingsStore{})

	rec := doJSON(t, router, http.MethodPatch, "/restaurants/"+uuid.NewString(),
		map[string]string{"name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateSettingsUnknownRestaurant(t *testing.T) {
	store := &mockSettingsStore{
		getFn: func(ctx context.Context, id uuid.UUID) (database.Restaurant, error) {
			return database.Restaurant{}, pgx.ErrNoRows
		},
	}
	router := newSettingsRouter(store)

	rec := doJSON(t, router, http.MethodPatch, "/restaurants/"+uuid.NewString(),
		map[string]string{"name": "新店名"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}
