package router

import (
	"net/http"

	"skinsignal-api/internal/handler"
	"skinsignal-api/internal/middleware"
	"skinsignal-api/pkg/apierror"
	"skinsignal-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	PortfolioHandler *handler.PortfolioHandler
	AlertHandler     *handler.AlertHandler
	PhoneHandler     *handler.PhoneHandler
	AdminHandler     *handler.AdminHandler
	AdminAuth        func(http.Handler) http.Handler
	AllowedOrigins   []string
	Logger           *zap.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, apierror.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, &apierror.Error{StatusCode: http.StatusMethodNotAllowed, Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// User routes are keyed by SteamID; there is no session auth.
		if cfg.PortfolioHandler != nil {
			r.Route("/portfolio/{steam_id}", func(r chi.Router) {
				r.Post("/snapshot", cfg.PortfolioHandler.TakeSnapshot)
				r.Get("/inventory", cfg.PortfolioHandler.Inventory)
				r.Get("/history", cfg.PortfolioHandler.History)
				r.Get("/movers", cfg.PortfolioHandler.Movers)
				r.Get("/allocation", cfg.PortfolioHandler.Allocation)
				r.Get("/smart-sale", cfg.PortfolioHandler.SmartSale)
				r.Get("/items/{name}/score", cfg.PortfolioHandler.ItemScore)
				r.Get("/overrides", cfg.PortfolioHandler.ListOverrides)
				r.Put("/overrides", cfg.PortfolioHandler.SetOverride)
				r.Delete("/overrides", cfg.PortfolioHandler.ClearOverride)
			})
		}

		if cfg.AlertHandler != nil {
			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", cfg.AlertHandler.List)
				r.Post("/", cfg.AlertHandler.Create)
				r.Patch("/{id}", cfg.AlertHandler.Toggle)
				r.Get("/{id}/events", cfg.AlertHandler.Events)
			})
		}

		if cfg.PhoneHandler != nil {
			r.Route("/user/phone", func(r chi.Router) {
				r.Post("/start", cfg.PhoneHandler.Start)
				r.Post("/verify", cfg.PhoneHandler.Verify)
			})
		}

		// Operator routes require an API key.
		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				if cfg.AdminAuth != nil {
					r.Use(cfg.AdminAuth)
				}
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Post("/migrate", cfg.AdminHandler.Migrate)
				r.Post("/cron/daily", cfg.AdminHandler.RunDaily)
				r.Delete("/cache/listings", cfg.AdminHandler.PurgeListings)
				r.Get("/cache/listings/{name}", cfg.AdminHandler.ListingCached)
				r.Delete("/cache/listings/{name}", cfg.AdminHandler.InvalidateListing)
			})
		}
	})

	return r
}
