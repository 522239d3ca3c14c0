package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/internal/catalog"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

// Step is the flow's current position. The value is serializable and is the
// single source of truth for what the client may do next.
type Step string

const (
	StepSelectCategory  Step = "select_category"
	StepSelectService   Step = "select_service"
	StepSelectDateTime  Step = "select_datetime"
	StepEnterDetails    Step = "enter_details"
	StepPaymentRequired Step = "payment_required"
	StepConfirmed       Step = "confirmed"
)

var (
	// ErrUnknownService means a requested service id is not in the catalog.
	ErrUnknownService = errors.New("booking: service not found")
	// ErrEmptyCart means a transition required at least one selected service.
	ErrEmptyCart = errors.New("booking: cart is empty")
	// ErrSubmitInFlight guards against double submission while a creation
	// request is outstanding.
	ErrSubmitInFlight = errors.New("booking: submission already in progress")
)

// StateError means an event arrived in a step that does not accept it.
type StateError struct {
	Step  Step
	Event string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("booking: event %q not allowed in step %q", e.Event, e.Step)
}

// Gateway is the full provider surface the flow drives.
type Gateway interface {
	AvailabilityGateway
	SubmitGateway
}

// Recorder persists confirmations. Failures are logged, never surfaced;
// the booking already exists at the provider by the time it is written.
type Recorder interface {
	RecordConfirmation(ctx context.Context, appt *acuity.Appointment, outcome Outcome) error
}

var flowMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Flow is one visitor's booking in progress. It owns the cart, the step
// state, and all selections, and is the only mutator of them; every other
// component sees immutable snapshots. Safe for concurrent use.
type Flow struct {
	services []acuity.AppointmentType
	byID     map[int]acuity.AppointmentType

	availability *Availability
	submitter    *Submitter
	recorder     Recorder
	logger       *logging.Logger

	mu           sync.Mutex
	step         Step
	gender       catalog.Gender
	area         catalog.BodyArea
	cart         Cart
	month        string
	selectedDate string
	selectedSlot *acuity.TimeSlot
	details      ClientDetails
	confirmation *acuity.Appointment
	outcome      Outcome
	deepLinked   bool
	submitting   bool
}

// FlowOption configures a new Flow.
type FlowOption func(*flowOptions)

type flowOptions struct {
	serviceIDs []int
	month      string
	recorder   Recorder
	logger     *logging.Logger
}

// WithServiceIDs pre-seeds the cart from deep-link ids. Ids that do not
// resolve against the catalog are dropped; if at least one resolves the
// flow starts at the date/time step.
func WithServiceIDs(ids []int) FlowOption {
	return func(o *flowOptions) { o.serviceIDs = ids }
}

// WithMonth sets the initial availability month. Defaults to the current
// calendar month.
func WithMonth(month string) FlowOption {
	return func(o *flowOptions) { o.month = month }
}

// WithRecorder attaches best-effort confirmation persistence.
func WithRecorder(r Recorder) FlowOption {
	return func(o *flowOptions) { o.recorder = r }
}

// WithFlowLogger sets the flow's logger.
func WithFlowLogger(l *logging.Logger) FlowOption {
	return func(o *flowOptions) { o.logger = l }
}

// NewFlow starts a booking over a frozen catalog snapshot. When deep-link
// ids are given and none resolve, the returned flow is still usable from
// the category step and the error is ErrUnknownService.
func NewFlow(services []acuity.AppointmentType, gateway Gateway, opts ...FlowOption) (*Flow, error) {
	o := flowOptions{month: time.Now().Format("2006-01")}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}

	byID := make(map[int]acuity.AppointmentType, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	f := &Flow{
		services:     services,
		byID:         byID,
		availability: NewAvailability(gateway),
		submitter:    NewSubmitter(gateway, o.logger),
		recorder:     o.recorder,
		logger:       o.logger.Component("booking"),
		step:         StepSelectCategory,
		month:        o.month,
	}

	if len(o.serviceIDs) == 0 {
		return f, nil
	}
	for _, id := range o.serviceIDs {
		if svc, ok := byID[id]; ok {
			f.cart.Add(svc)
		}
	}
	if f.cart.Empty() {
		f.logger.Warn("deep link resolved no services", "requested", len(o.serviceIDs))
		return f, ErrUnknownService
	}
	f.step = StepSelectDateTime
	f.deepLinked = true
	return f, nil
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// ChooseGender starts service selection. Clears any prior cart and area.
func (f *Flow) ChooseGender(g catalog.Gender) error {
	if !catalog.ValidGender(g) {
		return &acuity.InvalidArgumentError{Reason: "unknown gender " + string(g)}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectCategory && f.step != StepSelectService {
		return &StateError{Step: f.step, Event: "choose_gender"}
	}
	f.gender = g
	f.area = ""
	f.cart.Clear()
	f.clearScheduleLocked()
	f.step = StepSelectService
	return nil
}

// SelectArea picks the body-area facet used to list services.
func (f *Flow) SelectArea(a catalog.BodyArea) error {
	if !catalog.ValidArea(a) {
		return &acuity.InvalidArgumentError{Reason: "unknown body area " + string(a)}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectService {
		return &StateError{Step: f.step, Event: "select_area"}
	}
	f.area = a
	return nil
}

// ServicesForSelection lists the catalog entries for the chosen gender and
// area, for the service picker to render.
func (f *Flow) ServicesForSelection() []acuity.AppointmentType {
	f.mu.Lock()
	gender, area := f.gender, f.area
	f.mu.Unlock()
	if gender == "" || area == "" {
		return nil
	}
	return catalog.Classify(f.services, gender, area)
}

// AddService puts a catalog service in the cart.
func (f *Flow) AddService(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectService {
		return &StateError{Step: f.step, Event: "add_service"}
	}
	svc, ok := f.byID[id]
	if !ok {
		return ErrUnknownService
	}
	if f.cart.Add(svc) {
		f.clearScheduleLocked()
	}
	return nil
}

// RemoveService takes a service out of the cart.
func (f *Flow) RemoveService(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectService {
		return &StateError{Step: f.step, Event: "remove_service"}
	}
	if f.cart.Remove(id) {
		f.clearScheduleLocked()
	}
	return nil
}

// Proceed advances out of the current step: service selection moves to the
// date/time step (cart must be non-empty), and the date/time step moves to
// detail entry (a date and time must be selected).
func (f *Flow) Proceed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepSelectService:
		if f.cart.Empty() {
			return ErrEmptyCart
		}
		f.step = StepSelectDateTime
		return nil
	case StepSelectDateTime:
		if f.selectedDate == "" || f.selectedSlot == nil {
			return &acuity.InvalidArgumentError{Reason: "select a date and time first"}
		}
		f.step = StepEnterDetails
		return nil
	default:
		return &StateError{Step: f.step, Event: "proceed"}
	}
}

// Back returns to the previous step. A deep-linked flow backs out of the
// date/time step to the category step, since it never visited the picker.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepSelectService:
		f.step = StepSelectCategory
		return nil
	case StepSelectDateTime:
		if f.deepLinked {
			f.deepLinked = false
			f.cart.Clear()
			f.clearScheduleLocked()
			f.step = StepSelectCategory
			return nil
		}
		f.step = StepSelectService
		return nil
	case StepEnterDetails:
		f.step = StepSelectDateTime
		return nil
	default:
		return &StateError{Step: f.step, Event: "back"}
	}
}

// SetMonth changes the candidate month, discarding fetched dates and times
// and any selected date or time.
func (f *Flow) SetMonth(month string) error {
	if !flowMonthPattern.MatchString(month) {
		return &acuity.InvalidArgumentError{Reason: "month must be YYYY-MM"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectDateTime {
		return &StateError{Step: f.step, Event: "set_month"}
	}
	if month == f.month {
		return nil
	}
	f.month = month
	f.selectedDate = ""
	f.selectedSlot = nil
	f.availability.Invalidate()
	return nil
}

// FetchDates looks up availability for the primary service in the current
// month. Returns ErrSuperseded if the selection changed mid-flight; an
// empty list is valid and means no availability.
func (f *Flow) FetchDates(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	if f.step != StepSelectDateTime {
		f.mu.Unlock()
		return nil, &StateError{Step: f.step, Event: "fetch_dates"}
	}
	primary, ok := f.cart.Primary()
	month := f.month
	token := f.availability.Token()
	f.mu.Unlock()
	if !ok {
		return nil, ErrEmptyCart
	}
	return f.availability.FetchDates(ctx, token, primary.ID, month)
}

// SelectDate picks one of the fetched dates, clearing any previously
// selected time and fetched slots.
func (f *Flow) SelectDate(date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectDateTime {
		return &StateError{Step: f.step, Event: "select_date"}
	}
	if !f.availability.HasDate(date) {
		return &acuity.InvalidArgumentError{Reason: "date " + date + " is not available"}
	}
	f.selectedDate = date
	f.selectedSlot = nil
	f.availability.InvalidateTimes()
	return nil
}

// FetchTimes looks up slots for the selected date.
func (f *Flow) FetchTimes(ctx context.Context) ([]acuity.TimeSlot, error) {
	f.mu.Lock()
	if f.step != StepSelectDateTime {
		f.mu.Unlock()
		return nil, &StateError{Step: f.step, Event: "fetch_times"}
	}
	if f.selectedDate == "" {
		f.mu.Unlock()
		return nil, &acuity.InvalidArgumentError{Reason: "select a date first"}
	}
	primary, ok := f.cart.Primary()
	date := f.selectedDate
	token := f.availability.Token()
	f.mu.Unlock()
	if !ok {
		return nil, ErrEmptyCart
	}
	return f.availability.FetchTimes(ctx, token, primary.ID, date)
}

// SelectTime picks one of the fetched slots by its canonical time token.
func (f *Flow) SelectTime(timeToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepSelectDateTime {
		return &StateError{Step: f.step, Event: "select_time"}
	}
	slot, ok := f.availability.Slot(timeToken)
	if !ok {
		return &acuity.InvalidArgumentError{Reason: "time " + timeToken + " is not available"}
	}
	f.selectedSlot = &slot
	return nil
}

// Submit books the appointment with the entered details. Invalid details
// come back as FieldErrors with nothing sent; any failure leaves the flow
// in the details step with the entered values retained, so the visitor can
// correct and retry. If the flow is reset or navigated away while the
// creation request is outstanding, the newer state wins and the created
// appointment is only returned to the caller.
func (f *Flow) Submit(ctx context.Context, details ClientDetails) (*Result, error) {
	f.mu.Lock()
	if f.step != StepEnterDetails {
		f.mu.Unlock()
		return nil, &StateError{Step: f.step, Event: "submit"}
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	f.details = details
	if errs := details.Validate(); errs != nil {
		f.mu.Unlock()
		return nil, errs
	}
	f.submitting = true
	cart := f.cart
	slot := *f.selectedSlot
	f.mu.Unlock()

	result, err := f.submitter.Submit(ctx, &cart, slot, details)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return nil, err
	}

	if f.recorder != nil {
		if rerr := f.recorder.RecordConfirmation(ctx, result.Appointment, result.Outcome); rerr != nil {
			f.logger.Error("failed to record confirmation", "appointment_id", result.Appointment.ID, "error", rerr)
		}
	}
	if f.step != StepEnterDetails {
		// The flow was reset or navigated away while the creation request
		// was outstanding. The appointment exists at the provider and is
		// recorded and returned, but the newer state stands.
		f.logger.Warn("flow changed during submission", "appointment_id", result.Appointment.ID, "step", f.step)
		return result, nil
	}

	f.confirmation = result.Appointment
	f.outcome = result.Outcome
	if result.Outcome == OutcomePaymentRequired {
		f.step = StepPaymentRequired
	} else {
		f.step = StepConfirmed
	}
	return result, nil
}

// ProceedToPayment acknowledges the unpaid balance and returns the
// provider's confirmation page URL, where payment is collected.
func (f *Flow) ProceedToPayment() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPaymentRequired {
		return "", &StateError{Step: f.step, Event: "proceed_to_payment"}
	}
	f.step = StepConfirmed
	return f.confirmation.ConfirmationPage, nil
}

// PayLater accepts paying in person and completes the flow.
func (f *Flow) PayLater() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPaymentRequired {
		return &StateError{Step: f.step, Event: "pay_later"}
	}
	f.step = StepConfirmed
	return nil
}

// Reset wipes every selection and returns to the category step.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepSelectCategory
	f.gender = ""
	f.area = ""
	f.cart.Clear()
	f.clearScheduleLocked()
	f.details = ClientDetails{}
	f.confirmation = nil
	f.outcome = ""
	f.deepLinked = false
}

// clearScheduleLocked discards everything downstream of a cart change.
// Callers hold f.mu.
func (f *Flow) clearScheduleLocked() {
	f.selectedDate = ""
	f.selectedSlot = nil
	f.availability.Invalidate()
}

// Snapshot is a serializable view of the flow for rendering. It is a copy;
// mutating it has no effect on the flow.
type Snapshot struct {
	Step         Step                     `json:"step"`
	Gender       catalog.Gender           `json:"gender,omitempty"`
	Area         catalog.BodyArea         `json:"area,omitempty"`
	Services     []acuity.AppointmentType `json:"services"`
	PrimaryID    int                      `json:"primaryId,omitempty"`
	TotalCents   int64                    `json:"totalCents"`
	TotalMinutes int                      `json:"totalMinutes"`
	Month        string                   `json:"month"`
	Dates        []string                 `json:"dates"`
	SelectedDate string                   `json:"selectedDate,omitempty"`
	Slots        []acuity.TimeSlot        `json:"slots"`
	SelectedTime string                   `json:"selectedTime,omitempty"`
	Details      ClientDetails            `json:"details"`
	Outcome      Outcome                  `json:"outcome,omitempty"`
	Confirmation *acuity.Appointment      `json:"confirmation,omitempty"`
	DeepLinked   bool                     `json:"deepLinked"`
}

// Snapshot returns the current state for rendering.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{
		Step:         f.step,
		Gender:       f.gender,
		Area:         f.area,
		Services:     f.cart.Services(),
		TotalMinutes: f.cart.TotalMinutes(),
		Month:        f.month,
		Dates:        f.availability.Dates(),
		SelectedDate: f.selectedDate,
		Slots:        f.availability.Slots(),
		Details:      f.details,
		Outcome:      f.outcome,
		Confirmation: f.confirmation,
		DeepLinked:   f.deepLinked,
	}
	if primary, ok := f.cart.Primary(); ok {
		snap.PrimaryID = primary.ID
	}
	if total, err := f.cart.TotalCents(); err == nil {
		snap.TotalCents = total
	}
	if f.selectedSlot != nil {
		snap.SelectedTime = f.selectedSlot.Time
	}
	return snap
}
