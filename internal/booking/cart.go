// Package booking implements the appointment booking flow: the service cart,
// the dependent date/time availability chain, submission, and the step state
// machine that sequences them.
package booking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glowupstudio/booking-platform/internal/acuity"
)

// Cart is an ordered set of selected services, unique by id. Insertion order
// is preserved for display and for primary-service tie breaking.
type Cart struct {
	items []acuity.AppointmentType
}

// Add appends a service to the cart. Adding an id already present is a no-op.
func (c *Cart) Add(svc acuity.AppointmentType) bool {
	if c.Contains(svc.ID) {
		return false
	}
	c.items = append(c.items, svc)
	return true
}

// Remove drops the service with the given id. Returns false if absent.
func (c *Cart) Remove(id int) bool {
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the cart holds the given service id.
func (c *Cart) Contains(id int) bool {
	for _, item := range c.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of services in the cart.
func (c *Cart) Len() int { return len(c.items) }

// Empty reports whether no services are selected.
func (c *Cart) Empty() bool { return len(c.items) == 0 }

// Clear removes every service.
func (c *Cart) Clear() { c.items = nil }

// Services returns a copy of the cart's contents in insertion order.
func (c *Cart) Services() []acuity.AppointmentType {
	out := make([]acuity.AppointmentType, len(c.items))
	copy(out, c.items)
	return out
}

// Primary returns the cart member with the longest duration; ties go to the
// earliest insertion. The provider's availability endpoints accept exactly
// one appointment type, so this single service drives every date and time
// lookup. When cart services live on incompatible calendars this heuristic
// can miss availability for the others; that limitation is accepted.
func (c *Cart) Primary() (acuity.AppointmentType, bool) {
	if len(c.items) == 0 {
		return acuity.AppointmentType{}, false
	}
	primary := c.items[0]
	for _, item := range c.items[1:] {
		if item.DurationMinutes > primary.DurationMinutes {
			primary = item
		}
	}
	return primary, true
}

// AddonIDs returns the ids of every non-primary cart member, in insertion
// order. These go to the provider as add-ons on the same booking.
func (c *Cart) AddonIDs() []int {
	primary, ok := c.Primary()
	if !ok {
		return nil
	}
	var ids []int
	for _, item := range c.items {
		if item.ID != primary.ID {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// TotalCents sums the cart's prices. Prices arrive as decimal strings.
func (c *Cart) TotalCents() (int64, error) {
	var total int64
	for _, item := range c.items {
		cents, err := parsePriceCents(item.Price)
		if err != nil {
			return 0, fmt.Errorf("booking: service %d: %w", item.ID, err)
		}
		total += cents
	}
	return total, nil
}

// TotalMinutes sums the cart's service durations.
func (c *Cart) TotalMinutes() int {
	var total int
	for _, item := range c.items {
		total += item.DurationMinutes
	}
	return total
}

// parsePriceCents parses a decimal price string such as "45.00" or "45".
func parsePriceCents(price string) (int64, error) {
	s := strings.TrimSpace(price)
	if s == "" {
		return 0, nil
	}
	whole, frac, _ := strings.Cut(s, ".")
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	cents := dollars * 100
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q", price)
		}
		cents += f
	}
	return cents, nil
}
