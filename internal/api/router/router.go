// Package router wires the HTTP surface: the public catalog and booking
// session API, health/metrics, and the JWT-protected admin routes.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glowupstudio/booking-platform/internal/catalog"
	"github.com/glowupstudio/booking-platform/internal/http/handlers"
	httpmiddleware "github.com/glowupstudio/booking-platform/internal/http/middleware"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	CatalogHandler  *catalog.Handler
	BookingHandler  *handlers.BookingHandler
	AdminBookings   *handlers.AdminBookingsHandler
	MetricsHandler  http.Handler
	AdminAuthSecret string

	CORSAllowedOrigins []string

	// Requests/sec and burst applied per client IP to the booking API.
	BookingRateLimit float64
	BookingRateBurst int
}

// New creates the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.CatalogHandler != nil {
			api.Get("/services", cfg.CatalogHandler.ListServices)
		}
		if cfg.BookingHandler != nil {
			api.Route("/booking", func(b chi.Router) {
				if cfg.BookingRateLimit > 0 {
					b.Use(httpmiddleware.RateLimit(cfg.BookingRateLimit, cfg.BookingRateBurst))
				}
				b.Post("/sessions", cfg.BookingHandler.CreateSession)
				b.Route("/sessions/{sessionID}", func(s chi.Router) {
					s.Get("/", cfg.BookingHandler.GetSession)
					s.Delete("/", cfg.BookingHandler.DeleteSession)
					s.Post("/events", cfg.BookingHandler.HandleEvent)
				})
			})
		}
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.AdminBookings != nil {
			admin.Get("/bookings", cfg.AdminBookings.List)
		}
		if cfg.CatalogHandler != nil {
			admin.Post("/catalog/refresh", cfg.CatalogHandler.Refresh)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
