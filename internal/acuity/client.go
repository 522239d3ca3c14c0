package acuity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/glowupstudio/booking-platform/pkg/logging"
)

const (
	defaultBaseURL = "https://acuityscheduling.com/api/v1"
	defaultTimeout = 15 * time.Second

	// defaultNotesFieldID is the Acuity intake form field that free-text
	// notes are written to when the request carries any.
	defaultNotesFieldID = 1
)

var (
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// CallObserver receives one observation per provider round trip.
type CallObserver interface {
	ObserveProviderCall(endpoint, outcome string, seconds float64)
}

// Client is the Acuity Scheduling REST client. All requests authenticate
// with HTTP Basic auth built from the configured user id and API key.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userID       string
	apiKey       string
	notesFieldID int
	logger       *logging.Logger
	observer     CallObserver
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithNotesFieldID sets the intake form field id that notes map to.
func WithNotesFieldID(id int) Option {
	return func(c *Client) {
		if id > 0 {
			c.notesFieldID = id
		}
	}
}

// WithObserver attaches a per-call metrics observer.
func WithObserver(o CallObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient constructs an Acuity client.
func NewClient(userID, apiKey string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		userID:       strings.TrimSpace(userID),
		apiKey:       strings.TrimSpace(apiKey),
		notesFieldID: defaultNotesFieldID,
		logger:       logger.Component("acuity"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.userID != "" && c.apiKey != ""
}

type appointmentTypePayload struct {
	ID          *int    `json:"id"`
	Name        *string `json:"name"`
	Description string  `json:"description"`
	Price       *string `json:"price"`
	Duration    *int    `json:"duration"`
	Category    string  `json:"category"`
	Private     bool    `json:"private"`
	Image       *string `json:"image"`
}

// ListAppointmentTypes fetches the full service catalog.
func (c *Client) ListAppointmentTypes(ctx context.Context) ([]AppointmentType, error) {
	raw, err := c.do(ctx, http.MethodGet, "/appointment-types", nil)
	if err != nil {
		return nil, err
	}

	var payload []appointmentTypePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ValidationError{Endpoint: "/appointment-types", Reason: "expected an array of appointment types", Raw: raw}
	}

	types := make([]AppointmentType, 0, len(payload))
	for i, p := range payload {
		if p.ID == nil || p.Name == nil || p.Price == nil || p.Duration == nil {
			return nil, &ValidationError{
				Endpoint: "/appointment-types",
				Reason:   fmt.Sprintf("item %d is missing a required field", i),
				Raw:      raw,
			}
		}
		t := AppointmentType{
			ID:              *p.ID,
			Name:            *p.Name,
			Description:     p.Description,
			Price:           *p.Price,
			DurationMinutes: *p.Duration,
			Category:        p.Category,
			Private:         p.Private,
		}
		if p.Image != nil {
			t.Image = *p.Image
		}
		types = append(types, t)
	}
	return types, nil
}

// ListAvailableDates returns the dates with availability for one appointment
// type in the given YYYY-MM month. The provider's endpoint accepts exactly
// one appointment type id; passing zero or several is a caller bug and fails
// before any network call.
func (c *Client) ListAvailableDates(ctx context.Context, appointmentTypeIDs []int, month string) ([]string, error) {
	if len(appointmentTypeIDs) != 1 {
		return nil, &InvalidArgumentError{
			Reason: fmt.Sprintf("availability/dates takes exactly one appointment type id, got %d", len(appointmentTypeIDs)),
		}
	}
	if !monthPattern.MatchString(month) {
		return nil, &InvalidArgumentError{Reason: "month must be YYYY-MM, got " + strconv.Quote(month)}
	}

	q := url.Values{}
	q.Set("month", month)
	q.Set("appointmentTypeID", strconv.Itoa(appointmentTypeIDs[0]))
	endpoint := "/availability/dates?" + q.Encode()

	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload []struct {
		Date *string `json:"date"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ValidationError{Endpoint: "/availability/dates", Reason: "expected an array of date objects", Raw: raw}
	}

	dates := make([]string, 0, len(payload))
	for i, p := range payload {
		if p.Date == nil || !datePattern.MatchString(*p.Date) {
			return nil, &ValidationError{
				Endpoint: "/availability/dates",
				Reason:   fmt.Sprintf("item %d has no valid YYYY-MM-DD date", i),
				Raw:      raw,
			}
		}
		dates = append(dates, *p.Date)
	}
	return dates, nil
}

// ListAvailableTimes returns the open slots for one appointment type on one
// YYYY-MM-DD date. Slot times are normalized to a single ISO-8601 shape at
// this boundary; the provider emits either full datetimes or short clock
// tokens depending on account settings.
func (c *Client) ListAvailableTimes(ctx context.Context, appointmentTypeID int, date string) ([]TimeSlot, error) {
	if appointmentTypeID <= 0 {
		return nil, &InvalidArgumentError{Reason: "appointment type id required"}
	}
	if !datePattern.MatchString(date) {
		return nil, &InvalidArgumentError{Reason: "date must be YYYY-MM-DD, got " + strconv.Quote(date)}
	}

	q := url.Values{}
	q.Set("date", date)
	q.Set("appointmentTypeID", strconv.Itoa(appointmentTypeID))
	endpoint := "/availability/times?" + q.Encode()

	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload []struct {
		Time           *string `json:"time"`
		SlotsAvailable int     `json:"slotsAvailable"`
		CalendarID     int     `json:"calendarID"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ValidationError{Endpoint: "/availability/times", Reason: "expected an array of time slots", Raw: raw}
	}

	slots := make([]TimeSlot, 0, len(payload))
	for i, p := range payload {
		if p.Time == nil {
			return nil, &ValidationError{
				Endpoint: "/availability/times",
				Reason:   fmt.Sprintf("item %d has no time", i),
				Raw:      raw,
			}
		}
		normalized, err := normalizeSlotTime(date, *p.Time)
		if err != nil {
			return nil, &ValidationError{
				Endpoint: "/availability/times",
				Reason:   fmt.Sprintf("item %d: %v", i, err),
				Raw:      raw,
			}
		}
		slots = append(slots, TimeSlot{
			Time:           normalized,
			SlotsAvailable: p.SlotsAvailable,
			CalendarID:     p.CalendarID,
		})
	}
	return slots, nil
}

type appointmentPayload struct {
	ID                  *int64  `json:"id"`
	FirstName           string  `json:"firstName"`
	LastName            string  `json:"lastName"`
	Email               string  `json:"email"`
	Phone               *string `json:"phone"`
	Date                string  `json:"date"`
	Time                string  `json:"time"`
	EndTime             string  `json:"endTime"`
	Datetime            *string `json:"datetime"`
	Price               *string `json:"price"`
	Paid                *string `json:"paid"`
	AmountPaid          string  `json:"amountPaid"`
	Type                string  `json:"type"`
	AppointmentTypeID   int     `json:"appointmentTypeID"`
	AddonIDs            []int   `json:"addonIDs"`
	Duration            string  `json:"duration"`
	Calendar            string  `json:"calendar"`
	CalendarID          int     `json:"calendarID"`
	CanClientCancel     bool    `json:"canClientCancel"`
	CanClientReschedule bool    `json:"canClientReschedule"`
	Location            string  `json:"location"`
	Notes               *string `json:"notes"`
	Timezone            string  `json:"timezone"`
	ConfirmationPage    *string `json:"confirmationPage"`
}

// CreateAppointment submits a booking. One attempt only: retrying a creation
// call risks duplicate bookings, so retry policy belongs to the caller.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"appointmentTypeID": req.AppointmentTypeID,
		"datetime":          req.Datetime,
		"firstName":         req.FirstName,
		"lastName":          req.LastName,
		"email":             req.Email,
	}
	if strings.TrimSpace(req.Phone) != "" {
		body["phone"] = req.Phone
	}
	if strings.TrimSpace(req.Notes) != "" {
		body["fields"] = []map[string]any{{"id": c.notesFieldID, "value": req.Notes}}
	}
	if len(req.AddonIDs) > 0 {
		body["addonIDs"] = req.AddonIDs
	}
	if req.CalendarID > 0 {
		body["calendarID"] = req.CalendarID
	}

	raw, err := c.do(ctx, http.MethodPost, "/appointments", body)
	if err != nil {
		return nil, err
	}

	var p appointmentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Endpoint: "/appointments", Reason: "expected an appointment object", Raw: raw}
	}
	if p.ID == nil || *p.ID <= 0 || p.Datetime == nil || p.Price == nil || p.Paid == nil || p.ConfirmationPage == nil {
		return nil, &ValidationError{Endpoint: "/appointments", Reason: "appointment is missing a required field", Raw: raw}
	}

	appt := &Appointment{
		ID:                  *p.ID,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		Email:               p.Email,
		Date:                p.Date,
		Time:                p.Time,
		EndTime:             p.EndTime,
		Datetime:            *p.Datetime,
		Price:               *p.Price,
		Paid:                *p.Paid,
		AmountPaid:          p.AmountPaid,
		Type:                p.Type,
		AppointmentTypeID:   p.AppointmentTypeID,
		AddonIDs:            p.AddonIDs,
		Duration:            p.Duration,
		Calendar:            p.Calendar,
		CalendarID:          p.CalendarID,
		CanClientCancel:     p.CanClientCancel,
		CanClientReschedule: p.CanClientReschedule,
		Location:            p.Location,
		Timezone:            p.Timezone,
		ConfirmationPage:    *p.ConfirmationPage,
	}
	if p.Phone != nil {
		appt.Phone = *p.Phone
	}
	if p.Notes != nil {
		appt.Notes = *p.Notes
	}
	c.logger.Info("appointment created", "id", appt.ID, "datetime", appt.Datetime, "paid", appt.Paid)
	return appt, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("acuity: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("acuity: build request: %w", err)
	}
	req.SetBasicAuth(c.userID, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	path := endpoint
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(path, "network_error", start)
		return nil, fmt.Errorf("acuity: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(path, "network_error", start)
		return nil, fmt.Errorf("acuity: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(path, "http_error", start)
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("provider returned non-2xx", "status", resp.StatusCode, "path", path, "body", msg)
		return nil, &ProviderError{Endpoint: path, StatusCode: resp.StatusCode, Message: msg}
	}

	c.observe(path, "ok", start)
	return respBody, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveProviderCall(endpoint, outcome, time.Since(start).Seconds())
	}
}

// slotTimeLayouts are the full datetime shapes Acuity is known to emit.
var slotTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// clockLayouts are the short display tokens some accounts emit instead.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04pm",
	"3:04 PM",
	"3:04PM",
}

// normalizeSlotTime converts whatever time token the provider emitted into
// one canonical ISO-8601 string. Full datetimes keep their offset; bare
// clock tokens are combined with the queried date.
func normalizeSlotTime(date, token string) (string, error) {
	token = strings.TrimSpace(token)
	for _, layout := range slotTimeLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			if layout == "2006-01-02T15:04:05" {
				return t.Format("2006-01-02T15:04:05"), nil
			}
			return t.Format("2006-01-02T15:04:05-0700"), nil
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return date + "T" + t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("unrecognized time token %q", token)
}
