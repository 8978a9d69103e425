package clinic

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atendeai/assistant/pkg/logging"
)

// Handler provides HTTP endpoints for clinic configuration management.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new clinic config HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns a chi router with clinic admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{number}/config", h.GetConfig)
	r.Put("/{number}/config", h.UpdateConfig)
	return r
}

// GetConfig returns the clinic configuration for a WhatsApp number.
// GET /admin/clinics/{number}/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		http.Error(w, `{"error": "number required"}`, http.StatusBadRequest)
		return
	}

	cfg, err := h.store.Resolve(r.Context(), number)
	if errors.Is(err, ErrClinicNotFound) {
		http.Error(w, `{"error": "clinic not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get clinic config", "number", number, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		h.logger.Error("failed to encode clinic config", "number", number, "error", err)
	}
}

// UpdateConfigRequest is the request body for updating clinic config.
// All fields are optional; absent fields keep their current value.
type UpdateConfigRequest struct {
	ID                 string         `json:"id,omitempty"`
	Name               string         `json:"name,omitempty"`
	AgentName          string         `json:"agent_name,omitempty"`
	GreetingTemplate   *string        `json:"greeting_template,omitempty"`
	FarewellTemplate   *string        `json:"farewell_template,omitempty"`
	OutOfHoursTemplate *string        `json:"out_of_hours_template,omitempty"`
	BusinessHours      *BusinessHours `json:"business_hours,omitempty"`
	Timezone           string         `json:"timezone,omitempty"`
}

// UpdateConfig creates or updates the clinic configuration for a number.
// PUT /admin/clinics/{number}/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		http.Error(w, `{"error": "number required"}`, http.StatusBadRequest)
		return
	}

	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	if req.Timezone != "" {
		if _, err := Location(req.Timezone); err != nil {
			http.Error(w, `{"error": "invalid timezone"}`, http.StatusBadRequest)
			return
		}
	}

	// Existing record, or a fresh default for a new clinic.
	cfg, err := h.store.Resolve(r.Context(), number)
	if errors.Is(err, ErrClinicNotFound) {
		cfg = DefaultConfig(req.ID, number)
	} else if err != nil {
		h.logger.Error("failed to get clinic config", "number", number, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	if req.ID != "" {
		cfg.ID = req.ID
	}
	if req.Name != "" {
		cfg.Name = req.Name
	}
	if req.AgentName != "" {
		cfg.AgentName = req.AgentName
	}
	if req.GreetingTemplate != nil {
		cfg.GreetingTemplate = *req.GreetingTemplate
	}
	if req.FarewellTemplate != nil {
		cfg.FarewellTemplate = *req.FarewellTemplate
	}
	if req.OutOfHoursTemplate != nil {
		cfg.OutOfHoursTemplate = *req.OutOfHoursTemplate
	}
	if req.BusinessHours != nil {
		cfg.BusinessHours = *req.BusinessHours
	}
	if req.Timezone != "" {
		cfg.Timezone = req.Timezone
	}

	if err := h.store.Set(r.Context(), cfg); err != nil {
		h.logger.Error("failed to save clinic config", "number", number, "error", err)
		http.Error(w, `{"error": "failed to save config"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("clinic config updated", "number", cfg.WhatsAppNumber, "name", cfg.Name)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		h.logger.Error("failed to encode clinic config", "number", number, "error", err)
	}
}
