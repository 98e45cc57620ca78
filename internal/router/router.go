package router

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/salepoint/api/internal/cache"
	"github.com/salepoint/api/internal/config"
	"github.com/salepoint/api/internal/handler"
	mw "github.com/salepoint/api/internal/middleware"
	"github.com/salepoint/api/internal/service"
	"github.com/salepoint/api/internal/store"
	"github.com/salepoint/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and merchant scoping middleware as needed.
func New(cfg *config.Config, repo store.Repository, catalogCache cache.CatalogCache, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://app.salepoint.dev"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(repo, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/merchants/{mid}/sales", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Default register day falls back to the server timezone when a
	// merchant has no usable one configured.
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("ERROR: load timezone %q, falling back to UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}
	checkoutService := service.NewCheckoutService(repo, loc)

	// Protected routes (require authentication, scoped to the token's merchant)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/merchants/{mid}", func(r chi.Router) {
			r.Use(mw.RequireMerchant)

			profileHandler := handler.NewProfileHandler(repo)
			r.Route("/profile", profileHandler.RegisterRoutes)

			categoryHandler := handler.NewCategoryHandler(repo)
			r.Route("/categories", categoryHandler.RegisterRoutes)

			itemHandler := handler.NewItemHandler(repo, catalogCache)
			r.Route("/items", itemHandler.RegisterRoutes)

			salesHandler := handler.NewSalesHandler(repo, checkoutService, hub)
			r.Route("/sales", salesHandler.RegisterRoutes)

			reportsHandler := handler.NewReportsHandler(repo)
			r.Route("/reports", reportsHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
