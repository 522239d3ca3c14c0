// Package handlers holds the HTTP handlers for the booking session API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/internal/booking"
	"github.com/glowupstudio/booking-platform/internal/catalog"
	"github.com/glowupstudio/booking-platform/internal/session"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

// BookingHandler drives booking flows over HTTP. Each session holds one
// flow; the client sends events and renders the returned snapshot.
type BookingHandler struct {
	source   catalog.Source
	gateway  booking.Gateway
	sessions *session.Store
	recorder booking.Recorder // nil when persistence is disabled
	logger   *logging.Logger
}

// NewBookingHandler creates the booking session handler.
func NewBookingHandler(source catalog.Source, gateway booking.Gateway, sessions *session.Store, recorder booking.Recorder, logger *logging.Logger) *BookingHandler {
	if source == nil || gateway == nil || sessions == nil {
		panic("handlers: catalog source, gateway and session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		source:   source,
		gateway:  gateway,
		sessions: sessions,
		recorder: recorder,
		logger:   logger.Component("booking_api"),
	}
}

type createSessionRequest struct {
	ServiceIDs []int  `json:"serviceIds,omitempty"`
	Month      string `json:"month,omitempty"`
}

type sessionResponse struct {
	SessionID string           `json:"sessionId"`
	State     booking.Snapshot `json:"state"`
	Error     string           `json:"error,omitempty"`
}

// CreateSession handles POST /api/booking/sessions. Deep-link service ids
// pre-seed the cart; ids that resolve skip the flow straight to date/time
// selection, and if none resolve the session still opens at the category
// step with the error surfaced.
func (h *BookingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	services, err := h.source.ListAppointmentTypes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	opts := []booking.FlowOption{booking.WithFlowLogger(h.logger)}
	if len(req.ServiceIDs) > 0 {
		opts = append(opts, booking.WithServiceIDs(req.ServiceIDs))
	}
	if req.Month != "" {
		opts = append(opts, booking.WithMonth(req.Month))
	}
	if h.recorder != nil {
		opts = append(opts, booking.WithRecorder(h.recorder))
	}

	flow, err := booking.NewFlow(services, h.gateway, opts...)
	if err != nil && !errors.Is(err, booking.ErrUnknownService) {
		h.writeError(w, err)
		return
	}

	id := h.sessions.Create(flow)
	resp := sessionResponse{SessionID: id, State: flow.Snapshot()}
	if err != nil {
		resp.Error = "service not found"
	}
	h.logger.Info("booking session created", "session_id", id, "step", resp.State.Step)
	writeJSON(w, http.StatusCreated, resp)
}

// GetSession handles GET /api/booking/sessions/{sessionID}.
func (h *BookingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: chi.URLParam(r, "sessionID"),
		State:     flow.Snapshot(),
	})
}

// DeleteSession handles DELETE /api/booking/sessions/{sessionID}.
func (h *BookingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

type eventRequest struct {
	Type      string                 `json:"type"`
	Gender    string                 `json:"gender,omitempty"`
	Area      string                 `json:"area,omitempty"`
	ServiceID int                    `json:"serviceId,omitempty"`
	Month     string                 `json:"month,omitempty"`
	Date      string                 `json:"date,omitempty"`
	Time      string                 `json:"time,omitempty"`
	Details   *booking.ClientDetails `json:"details,omitempty"`
}

type eventResponse struct {
	SessionID  string                   `json:"sessionId"`
	State      booking.Snapshot         `json:"state"`
	Services   []acuity.AppointmentType `json:"services,omitempty"`
	Outcome    booking.Outcome          `json:"outcome,omitempty"`
	PaymentURL string                   `json:"paymentUrl,omitempty"`
}

// HandleEvent handles POST /api/booking/sessions/{sessionID}/events.
func (h *BookingHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := eventResponse{SessionID: chi.URLParam(r, "sessionID")}
	var err error

	switch req.Type {
	case "choose_gender":
		err = flow.ChooseGender(catalog.Gender(req.Gender))
	case "select_area":
		if err = flow.SelectArea(catalog.BodyArea(req.Area)); err == nil {
			resp.Services = flow.ServicesForSelection()
		}
	case "add_service":
		err = flow.AddService(req.ServiceID)
	case "remove_service":
		err = flow.RemoveService(req.ServiceID)
	case "proceed":
		err = flow.Proceed()
	case "back":
		err = flow.Back()
	case "set_month":
		err = flow.SetMonth(req.Month)
	case "fetch_dates":
		_, err = flow.FetchDates(r.Context())
	case "select_date":
		err = flow.SelectDate(req.Date)
	case "fetch_times":
		_, err = flow.FetchTimes(r.Context())
	case "select_time":
		err = flow.SelectTime(req.Time)
	case "submit":
		if req.Details == nil {
			http.Error(w, "details required", http.StatusBadRequest)
			return
		}
		var result *booking.Result
		if result, err = flow.Submit(r.Context(), *req.Details); err == nil {
			resp.Outcome = result.Outcome
		}
	case "proceed_to_payment":
		resp.PaymentURL, err = flow.ProceedToPayment()
	case "pay_later":
		err = flow.PayLater()
	case "reset":
		flow.Reset()
	default:
		http.Error(w, "unknown event type", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.writeError(w, err)
		return
	}
	resp.State = flow.Snapshot()
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) lookup(w http.ResponseWriter, r *http.Request) (*booking.Flow, bool) {
	id := chi.URLParam(r, "sessionID")
	flow, ok := h.sessions.Get(id)
	if !ok || flow == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return flow, true
}

// writeError maps flow and provider failures onto HTTP statuses. Provider
// detail never reaches the client; the flow stays where it was so the
// visitor can retry the same step.
func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	var (
		fieldErrs booking.FieldErrors
		stateErr  *booking.StateError
		argErr    *acuity.InvalidArgumentError
		provErr   *acuity.ProviderError
		valErr    *acuity.ValidationError
	)
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"fieldErrors": fieldErrs})
	case errors.As(err, &stateErr):
		http.Error(w, stateErr.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrSubmitInFlight):
		http.Error(w, "submission already in progress", http.StatusConflict)
	case errors.Is(err, booking.ErrSuperseded):
		http.Error(w, "selection changed, fetch again", http.StatusConflict)
	case errors.Is(err, booking.ErrUnknownService):
		http.Error(w, "service not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrEmptyCart):
		http.Error(w, "select at least one service", http.StatusBadRequest)
	case errors.As(err, &argErr):
		http.Error(w, argErr.Reason, http.StatusBadRequest)
	case errors.Is(err, acuity.ErrNotConfigured):
		h.logger.Error("provider credentials not configured")
		http.Error(w, "scheduling provider not configured", http.StatusServiceUnavailable)
	case errors.As(err, &valErr):
		h.logger.Error("provider response failed validation", "endpoint", valErr.Endpoint, "reason", valErr.Reason)
		http.Error(w, "could not reach the scheduling provider", http.StatusBadGateway)
	case errors.As(err, &provErr):
		h.logger.Error("provider returned an error", "endpoint", provErr.Endpoint, "status", provErr.StatusCode)
		http.Error(w, "could not reach the scheduling provider", http.StatusBadGateway)
	default:
		h.logger.Error("booking event failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
