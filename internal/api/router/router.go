// Package router assembles the HTTP surface of the assistant.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atendeai/assistant/internal/clinic"
	httpmiddleware "github.com/atendeai/assistant/internal/http/middleware"
	"github.com/atendeai/assistant/internal/messaging"
	"github.com/atendeai/assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	Webhook         *messaging.WebhookHandler
	ClinicHandler   *clinic.Handler
	MetricsHandler  http.Handler
	AdminAuthSecret string
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, the Meta webhook.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.Webhook != nil {
			public.Mount("/webhooks/whatsapp", cfg.Webhook.Routes())
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Clinic administration, behind the admin JWT.
	if cfg.ClinicHandler != nil {
		r.Route("/admin/clinics", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Mount("/", cfg.ClinicHandler.Routes())
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
