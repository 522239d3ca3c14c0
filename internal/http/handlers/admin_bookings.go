package handlers

import (
	"net/http"
	"strconv"

	"github.com/glowupstudio/booking-platform/internal/records"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

// AdminBookingsHandler serves the back-office view of recorded bookings.
type AdminBookingsHandler struct {
	records *records.Service // nil when no database is configured
	logger  *logging.Logger
}

func NewAdminBookingsHandler(svc *records.Service, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{records: svc, logger: logger.Component("admin_bookings")}
}

type listBookingsResponse struct {
	Bookings []records.Record `json:"bookings"`
	Count    int              `json:"count"`
}

// List handles GET /admin/bookings?limit=N.
func (h *AdminBookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		http.Error(w, "booking records disabled", http.StatusNotImplemented)
		return
	}

	limit := int32(50)
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = int32(n)
		}
	}

	recs, err := h.records.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list booking records", "error", err)
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []records.Record{}
	}
	writeJSON(w, http.StatusOK, listBookingsResponse{Bookings: recs, Count: len(recs)})
}
