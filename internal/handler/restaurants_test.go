package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/handler"
	"github.com/mnw01/scan-order/internal/service"
)

type mockRestaurantStore struct {
	getBySlugFn func(ctx context.Context, slug string) (database.Restaurant, error)
	listItemsFn func(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
}

func (m *mockRestaurantStore) GetRestaurantBySlug(ctx context.Context, slug string) (database.Restaurant, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockRestaurantStore) ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, restaurantID)
	}
	return []database.MenuItem{}, nil
}

func newRestaurantRouter(store *mockRestaurantStore) http.Handler {
	h := handler.NewRestaurantHandler(store, nil, service.TableQRGenerator{BaseURL: "http://localhost:8080"})
	r := chi.NewRouter()
	r.Route("/r/{slug}", h.RegisterRoutes)
	return r
}

func TestResolveRestaurant(t *testing.T) {
	restaurant := database.Restaurant{ID: uuid.New(), Name: "扫码点餐演示餐厅", Slug: "demo"}
	menuItem := func(category, name, price string) database.MenuItem {
		return database.MenuItem{
			ID:           uuid.New(),
			RestaurantID: restaurant.ID,
			Category:     category,
			Name:         name,
			Price:        makeNumeric(price),
			Stock:        -1,
			IsAvailable:  true,
		}
	}
	store := &mockRestaurantStore{
		getBySlugFn: func(ctx context.Context, slug string) (database.Restaurant, error) {
			if slug != "demo" {
				return database.Restaurant{}, pgx.ErrNoRows
			}
			return restaurant, nil
		},
		listItemsFn: func(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error) {
			// Already ordered by category then name, as the query returns them.
			return []database.MenuItem{
				menuItem("主食", "扬州炒饭", "18.00"),
				menuItem("招牌菜", "红烧牛肉面", "28.50"),
				menuItem("招牌菜", "宫保鸡丁", "32.00"),
				menuItem("饮品", "柠檬水", "8.00"),
			}, nil
		},
	}
	router := newRestaurantRouter(store)

	rec := doJSON(t, router, http.MethodGet, "/r/demo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Restaurant struct {
			Slug string `json:"slug"`
		} `json:"restaurant"`
		MenuItems []struct {
			Price string `json:"price"`
		} `json:"menu_items"`
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Restaurant.Slug != "demo" {
		t.Errorf("slug = %q, want demo", resp.Restaurant.Slug)
	}
	if len(resp.MenuItems) != 4 {
		t.Fatalf("menu items = %d, want 4", len(resp.MenuItems))
	}
	if resp.MenuItems[1].Price != "28.50" {
		t.Errorf("price = %q, want \"28.50\"", resp.MenuItems[1].Price)
	}

	// Distinct categories in menu order.
	want := []string{"主食", "招牌菜", "饮品"}
	if len(resp.Categories) != len(want) {
		t.Fatalf("categories = %v, want %v", resp.Categories, want)
	}
	for i := range want {
		if resp.Categories[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, resp.Categories[i], want[i])
		}
	}
}

func TestResolveUnknownSlug(t *testing.T) {
	router := newRestaurantRouter(&mockRestaurantStore{})

	rec := doJSON(t, router, http.MethodGet, "/r/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTableQRCode(t *testing.T) {
	restaurant := database.Restaurant{ID: uuid.New(), Name: "demo", Slug: "demo"}
	store := &mockRestaurantStore{
		getBySlugFn: func(ctx context.Context, slug string) (database.Restaurant, error) {
			return restaurant, nil
		},
	}
	router := newRestaurantRouter(store)

	rec := doJSON(t, router, http.MethodGet, "/r/demo/tables/5/qrcode", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty PNG body")
	}
}
