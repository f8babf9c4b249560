package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mnw01/scan-order/internal/cache"
	"github.com/mnw01/scan-order/internal/config"
	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/handler"
	mw "github.com/mnw01/scan-order/internal/middleware"
	"github.com/mnw01/scan-order/internal/service"
	"github.com/mnw01/scan-order/internal/stream"
	"github.com/mnw01/scan-order/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Customer surfaces (menu, cart, checkout, cart feed) are open per table
// link; kitchen and owner surfaces require authentication.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub,
	restaurantCache *cache.RestaurantCache, publisher *stream.Publisher) chi.Router {

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Customer lookup by slug (public), same path shape as the QR link
	qr := service.TableQRGenerator{BaseURL: cfg.PublicURL}
	restaurantHandler := handler.NewRestaurantHandler(queries, restaurantCache, qr)
	r.Route("/r/{slug}", restaurantHandler.RegisterRoutes)

	// WebSocket feeds (cart feed open, orders feed validates JWT internally)
	r.Get("/ws/restaurants/{rid}/tables/{table}/cart", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeCartWS(hub, w, r)
	})
	r.Get("/ws/restaurants/{rid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeOrdersWS(hub, cfg.JWTSecret, w, r)
	})

	// Table-scoped customer routes (public; the table link is the credential)
	newCheckoutStore := func(db database.DBTX) service.CheckoutStore {
		return database.New(db)
	}
	checkoutService := service.NewCheckoutService(pool, newCheckoutStore)
	cartHandler := handler.NewCartHandler(queries, checkoutService, publisher)
	r.Route("/restaurants/{rid}/tables/{table}", cartHandler.RegisterRoutes)

	// Protected restaurant routes (kitchen + owner)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Use(mw.RequireRestaurant)

			// Kitchen queue
			orderHandler := handler.NewOrderHandler(queries, publisher)
			r.Route("/orders", orderHandler.RegisterRoutes)

			// Owner-only management
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireOwner)

				menuHandler := handler.NewMenuHandler(queries)
				r.Route("/menu-items", menuHandler.RegisterRoutes)

				settingsHandler := handler.NewSettingsHandler(queries, restaurantCache)
				r.Patch("/", settingsHandler.Update)
			})
		})
	})

	return r
}
