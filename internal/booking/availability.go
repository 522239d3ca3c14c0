package booking

import (
	"context"
	"errors"
	"sync"

	"github.com/glowupstudio/booking-platform/internal/acuity"
)

// ErrSuperseded means a fetch completed after its input changed; the result
// was discarded and the caller should not render it.
var ErrSuperseded = errors.New("booking: availability result superseded")

// AvailabilityGateway is the slice of the provider client the availability
// chain needs.
type AvailabilityGateway interface {
	ListAvailableDates(ctx context.Context, appointmentTypeIDs []int, month string) ([]string, error)
	ListAvailableTimes(ctx context.Context, appointmentTypeID int, date string) ([]acuity.TimeSlot, error)
}

// Availability runs the dependent date and time lookups for the cart's
// primary service. Every change to an upstream input (cart, month, date)
// bumps a generation counter; a fetch carries the generation its inputs
// were read under and its result is applied only if the generation is
// unchanged when it completes. Responses for stale selections can never
// overwrite current ones, whatever order the network returns them in.
type Availability struct {
	gateway AvailabilityGateway

	mu         sync.Mutex
	generation uint64
	dates      []string
	slots      []acuity.TimeSlot
}

// NewAvailability creates the availability chain over the given gateway.
func NewAvailability(gateway AvailabilityGateway) *Availability {
	if gateway == nil {
		panic("booking: nil availability gateway")
	}
	return &Availability{gateway: gateway}
}

// Invalidate clears fetched results and marks any in-flight fetch stale.
func (a *Availability) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.dates = nil
	a.slots = nil
}

// InvalidateTimes clears fetched time slots only, keeping the date list.
// Used when the selected date changes within the same month.
func (a *Availability) InvalidateTimes() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.slots = nil
}

// Token returns the current generation. Callers capture it together with
// the fetch inputs, under whatever lock guards those inputs, and pass it to
// the fetch so the staleness check covers the inputs and not just the call.
func (a *Availability) Token() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// FetchDates looks up the dates with availability for one appointment type
// in a YYYY-MM month. An empty result is a valid "no availability" state,
// not an error.
func (a *Availability) FetchDates(ctx context.Context, token uint64, appointmentTypeID int, month string) ([]string, error) {
	dates, err := a.gateway.ListAvailableDates(ctx, []int{appointmentTypeID}, month)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != token {
		return nil, ErrSuperseded
	}
	a.dates = dates
	return dates, nil
}

// FetchTimes looks up the open slots for one appointment type on a date.
func (a *Availability) FetchTimes(ctx context.Context, token uint64, appointmentTypeID int, date string) ([]acuity.TimeSlot, error) {
	slots, err := a.gateway.ListAvailableTimes(ctx, appointmentTypeID, date)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != token {
		return nil, ErrSuperseded
	}
	a.slots = slots
	return slots, nil
}

// Dates returns the last applied date list.
func (a *Availability) Dates() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.dates))
	copy(out, a.dates)
	return out
}

// Slots returns the last applied time slots.
func (a *Availability) Slots() []acuity.TimeSlot {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]acuity.TimeSlot, len(a.slots))
	copy(out, a.slots)
	return out
}

// Slot returns the fetched slot whose canonical time token matches.
func (a *Availability) Slot(timeToken string) (acuity.TimeSlot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.slots {
		if s.Time == timeToken {
			return s, true
		}
	}
	return acuity.TimeSlot{}, false
}

// HasDate reports whether the given date is in the last applied date list.
func (a *Availability) HasDate(date string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, d := range a.dates {
		if d == date {
			return true
		}
	}
	return false
}
