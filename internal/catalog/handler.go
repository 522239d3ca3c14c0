package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

// Handler serves the public catalog endpoint. Private appointment types are
// filtered out so the storefront never needs provider credentials of its own.
type Handler struct {
	source Source
	cache  *CachedSource // nil when caching is disabled
	logger *logging.Logger
}

// NewHandler creates a catalog handler. cache may be nil.
func NewHandler(source Source, cache *CachedSource, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{source: source, cache: cache, logger: logger.Component("catalog")}
}

// ListServicesResponse is the response for GET /api/services.
type ListServicesResponse struct {
	Services []acuity.AppointmentType `json:"services"`
	Count    int                      `json:"count"`
}

// ListServices handles GET /api/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	types, err := h.source.ListAppointmentTypes(r.Context())
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	public := make([]acuity.AppointmentType, 0, len(types))
	for _, t := range types {
		if t.Private {
			continue
		}
		public = append(public, t)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ListServicesResponse{Services: public, Count: len(public)})
}

// Refresh handles POST /admin/catalog/refresh: drops the cache and warms it.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		http.Error(w, "catalog cache disabled", http.StatusNotImplemented)
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("catalog cache invalidation failed", "error", err)
		http.Error(w, "failed to invalidate catalog cache", http.StatusInternalServerError)
		return
	}
	types, err := h.source.ListAppointmentTypes(r.Context())
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	h.logger.Info("catalog refreshed", "count", len(types))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"count": len(types)})
}

func (h *Handler) writeCatalogError(w http.ResponseWriter, err error) {
	var verr *acuity.ValidationError
	switch {
	case errors.Is(err, acuity.ErrNotConfigured):
		h.logger.Error("provider credentials not configured")
		http.Error(w, "scheduling provider not configured", http.StatusServiceUnavailable)
	case errors.As(err, &verr):
		h.logger.Error("catalog failed validation", "reason", verr.Reason, "raw", string(verr.Raw))
		http.Error(w, "could not load services", http.StatusBadGateway)
	default:
		h.logger.Error("catalog fetch failed", "error", err)
		http.Error(w, "could not load services", http.StatusBadGateway)
	}
}
