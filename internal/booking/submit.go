package booking

import (
	"context"
	"fmt"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

// Outcome is the terminal result of a submission.
type Outcome string

const (
	// OutcomeConfirmed means the appointment is booked and nothing is owed.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomePaymentRequired means the appointment is booked but the
	// provider reports an unpaid balance the client should settle.
	OutcomePaymentRequired Outcome = "payment_required"
)

// SubmitGateway is the slice of the provider client submission needs.
type SubmitGateway interface {
	CreateAppointment(ctx context.Context, req acuity.CreateAppointmentRequest) (*acuity.Appointment, error)
}

// Result pairs the provider's confirmation with the payment branch taken.
type Result struct {
	Outcome     Outcome
	Appointment *acuity.Appointment
}

// Submitter validates client details, builds the creation payload from the
// cart and the chosen slot, and interprets the provider's payment state.
// One network attempt per call; retrying creation risks duplicate bookings.
type Submitter struct {
	gateway SubmitGateway
	logger  *logging.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(gateway SubmitGateway, logger *logging.Logger) *Submitter {
	if gateway == nil {
		panic("booking: nil submit gateway")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Submitter{gateway: gateway, logger: logger.Component("submitter")}
}

// Submit books the cart's primary service with the rest as add-ons. Details
// are validated before any network call; a FieldErrors return means nothing
// was sent.
func (s *Submitter) Submit(ctx context.Context, cart *Cart, slot acuity.TimeSlot, details ClientDetails) (*Result, error) {
	if errs := details.Validate(); errs != nil {
		return nil, errs
	}
	primary, ok := cart.Primary()
	if !ok {
		return nil, &acuity.InvalidArgumentError{Reason: "cannot submit an empty cart"}
	}

	req := acuity.CreateAppointmentRequest{
		AppointmentTypeID: primary.ID,
		Datetime:          slot.Time,
		FirstName:         details.FirstName,
		LastName:          details.LastName,
		Email:             details.Email,
		Phone:             details.Phone,
		Notes:             details.Notes,
		AddonIDs:          cart.AddonIDs(),
		CalendarID:        slot.CalendarID,
	}

	appt, err := s.gateway.CreateAppointment(ctx, req)
	if err != nil {
		return nil, err
	}

	outcome := OutcomeConfirmed
	cents, err := parsePriceCents(appt.Price)
	if err != nil {
		return nil, fmt.Errorf("booking: confirmation price: %w", err)
	}
	if !appt.IsPaid() && cents > 0 {
		outcome = OutcomePaymentRequired
	}

	s.logger.Info("booking submitted",
		"appointment_id", appt.ID,
		"type_id", primary.ID,
		"addons", len(req.AddonIDs),
		"outcome", string(outcome),
	)
	return &Result{Outcome: outcome, Appointment: appt}, nil
}
