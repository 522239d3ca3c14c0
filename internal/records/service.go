package records

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/internal/booking"
	"github.com/glowupstudio/booking-platform/internal/observability/metrics"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

var recordsTracer = otel.Tracer("glowup.internal.records")

// Service writes confirmation records and counts outcomes. It satisfies the
// booking flow's Recorder hook.
type Service struct {
	repo    *Repository
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewService constructs a records service. metrics may be nil.
func NewService(repo *Repository, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("records: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, metrics: m, logger: logger.Component("records")}
}

// RecordConfirmation persists one provider confirmation.
func (s *Service) RecordConfirmation(ctx context.Context, appt *acuity.Appointment, outcome booking.Outcome) error {
	ctx, span := recordsTracer.Start(ctx, "records.confirmation")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("glowup.appointment_id", appt.ID),
		attribute.String("glowup.outcome", string(outcome)),
	)

	rec := Record{
		ID:                uuid.New(),
		AppointmentID:     appt.ID,
		AppointmentTypeID: appt.AppointmentTypeID,
		Datetime:          appt.Datetime,
		FirstName:         appt.FirstName,
		LastName:          appt.LastName,
		Email:             appt.Email,
		Phone:             appt.Phone,
		Price:             appt.Price,
		Paid:              appt.Paid,
		Outcome:           string(outcome),
		ConfirmationURL:   appt.ConfirmationPage,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		span.RecordError(err)
		return err
	}
	s.metrics.ObserveBookingOutcome(string(outcome))
	s.logger.Info("confirmation recorded", "appointment_id", appt.ID, "outcome", string(outcome))
	return nil
}

// ListRecent exposes the audit trail for the admin endpoint.
func (s *Service) ListRecent(ctx context.Context, limit int32) ([]Record, error) {
	ctx, span := recordsTracer.Start(ctx, "records.list_recent")
	defer span.End()
	span.SetAttributes(attribute.Int("glowup.limit", int(limit)))
	return s.repo.ListRecent(ctx, limit)
}
