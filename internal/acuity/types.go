// Package acuity contains the Acuity Scheduling REST client and its types.
// It is the only package that talks to the scheduling provider.
package acuity

import "strings"

// AppointmentType is one bookable service from the Acuity catalog.
// Immutable once fetched; the catalog is keyed by ID.
type AppointmentType struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           string `json:"price"` // decimal string, e.g. "45.00"
	DurationMinutes int    `json:"duration"`
	Category        string `json:"category"`
	Image           string `json:"image,omitempty"`
	Private         bool   `json:"private"`
}

// TimeSlot is one bookable start time on a given date. Time carries the
// canonical ISO-8601 token produced by the gateway regardless of how the
// provider rendered it.
type TimeSlot struct {
	Time           string `json:"time"`
	SlotsAvailable int    `json:"slotsAvailable"`
	CalendarID     int    `json:"calendarID,omitempty"`
}

// Appointment is the provider's confirmation record for a created booking.
type Appointment struct {
	ID                  int64  `json:"id"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Date                string `json:"date"`
	Time                string `json:"time"`
	EndTime             string `json:"endTime"`
	Datetime            string `json:"datetime"`
	Price               string `json:"price"`
	Paid                string `json:"paid"`
	AmountPaid          string `json:"amountPaid"`
	Type                string `json:"type"`
	AppointmentTypeID   int    `json:"appointmentTypeID"`
	AddonIDs            []int  `json:"addonIDs"`
	Duration            string `json:"duration"`
	Calendar            string `json:"calendar"`
	CalendarID          int    `json:"calendarID"`
	CanClientCancel     bool   `json:"canClientCancel"`
	CanClientReschedule bool   `json:"canClientReschedule"`
	Location            string `json:"location"`
	Notes               string `json:"notes"`
	Timezone            string `json:"timezone"`
	ConfirmationPage    string `json:"confirmationPage"`
}

// IsPaid reports whether the provider marked the appointment as paid.
func (a *Appointment) IsPaid() bool {
	paid := strings.ToLower(strings.TrimSpace(a.Paid))
	return paid == "yes" || paid == "paid"
}

// CreateAppointmentRequest contains the fields for POST /appointments.
type CreateAppointmentRequest struct {
	AppointmentTypeID int
	Datetime          string // ISO-8601, e.g. "2024-07-26T09:00:00-0500"
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Notes             string
	AddonIDs          []int
	CalendarID        int
}

// Validate checks the request before it goes on the wire.
func (r CreateAppointmentRequest) Validate() error {
	if r.AppointmentTypeID <= 0 {
		return &InvalidArgumentError{Reason: "appointment type id required"}
	}
	if strings.TrimSpace(r.Datetime) == "" {
		return &InvalidArgumentError{Reason: "datetime required"}
	}
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return &InvalidArgumentError{Reason: "first and last name required"}
	}
	if strings.TrimSpace(r.Email) == "" {
		return &InvalidArgumentError{Reason: "email required"}
	}
	return nil
}
