package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/internal/catalog"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

func testCatalog() []acuity.AppointmentType {
	return []acuity.AppointmentType{
		svc(1, "Signature Facial", "55.00", 60),
		svc(2, "Brow Shape", "20.00", 15),
		svc(3, "Brazilian Wax", "45.00", 30),
		svc(4, "Men's Brow Wax", "18.00", 15),
	}
}

func newTestFlow(t *testing.T, gw Gateway, opts ...FlowOption) *Flow {
	t.Helper()
	opts = append(opts, WithMonth("2024-07"), WithFlowLogger(logging.New("error")))
	f, err := NewFlow(testCatalog(), gw, opts...)
	require.NoError(t, err)
	return f
}

// walks a flow up to the details step with service 3 in the cart.
func advanceToDetails(t *testing.T, f *Flow) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.ChooseGender(catalog.GenderFemale))
	require.NoError(t, f.SelectArea(catalog.AreaLow))
	require.NoError(t, f.AddService(3))
	require.NoError(t, f.Proceed())

	dates, err := f.FetchDates(ctx)
	require.NoError(t, err)
	require.Contains(t, dates, "2024-07-26")
	require.NoError(t, f.SelectDate("2024-07-26"))

	slots, err := f.FetchTimes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	require.NoError(t, f.SelectTime(slots[0].Time))
	require.NoError(t, f.Proceed())
	require.Equal(t, StepEnterDetails, f.Step())
}

func scheduledGateway() *fakeGateway {
	gw := newFakeGateway()
	gw.dates["2024-07"] = []string{"2024-07-25", "2024-07-26"}
	gw.times["2024-07-26"] = []acuity.TimeSlot{
		{Time: "2024-07-26T09:00:00-0500", SlotsAvailable: 1, CalendarID: 3},
		{Time: "2024-07-26T10:30:00-0500", SlotsAvailable: 1, CalendarID: 3},
	}
	gw.times["2024-07-25"] = []acuity.TimeSlot{
		{Time: "2024-07-25T14:00:00-0500", SlotsAvailable: 1, CalendarID: 3},
	}
	return gw
}

func TestFlowEndToEndPaymentRequired(t *testing.T) {
	gw := scheduledGateway()
	gw.appt = confirmation("no", "45.00")
	f := newTestFlow(t, gw)

	advanceToDetails(t, f)
	res, err := f.Submit(context.Background(), validDetails())
	require.NoError(t, err)
	assert.Equal(t, OutcomePaymentRequired, res.Outcome)
	assert.Equal(t, StepPaymentRequired, f.Step())

	url, err := f.ProceedToPayment()
	require.NoError(t, err)
	assert.Contains(t, url, "acuityscheduling.com")
	assert.Equal(t, StepConfirmed, f.Step())
}

func TestFlowEndToEndConfirmedWhenPaid(t *testing.T) {
	gw := scheduledGateway()
	gw.appt = confirmation("yes", "45.00")
	f := newTestFlow(t, gw)

	advanceToDetails(t, f)
	res, err := f.Submit(context.Background(), validDetails())
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, StepConfirmed, f.Step())
}

func TestFlowPayLater(t *testing.T) {
	gw := scheduledGateway()
	gw.appt = confirmation("no", "45.00")
	f := newTestFlow(t, gw)

	advanceToDetails(t, f)
	_, err := f.Submit(context.Background(), validDetails())
	require.NoError(t, err)
	require.NoError(t, f.PayLater())
	assert.Equal(t, StepConfirmed, f.Step())
}

func TestFlowSelectDateClearsTimeAndSlots(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw)
	ctx := context.Background()

	require.NoError(t, f.ChooseGender(catalog.GenderFemale))
	require.NoError(t, f.SelectArea(catalog.AreaLow))
	require.NoError(t, f.AddService(3))
	require.NoError(t, f.Proceed())

	_, err := f.FetchDates(ctx)
	require.NoError(t, err)
	require.NoError(t, f.SelectDate("2024-07-26"))
	slots, err := f.FetchTimes(ctx)
	require.NoError(t, err)
	require.NoError(t, f.SelectTime(slots[0].Time))
	require.NotEmpty(t, f.Snapshot().SelectedTime)

	require.NoError(t, f.SelectDate("2024-07-25"))
	snap := f.Snapshot()
	assert.Empty(t, snap.SelectedTime)
	assert.Empty(t, snap.Slots)
	assert.Equal(t, "2024-07-25", snap.SelectedDate)
}

func TestFlowCartChangeInvalidatesSchedule(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw)
	ctx := context.Background()

	require.NoError(t, f.ChooseGender(catalog.GenderFemale))
	require.NoError(t, f.SelectArea(catalog.AreaLow))
	require.NoError(t, f.AddService(3))
	require.NoError(t, f.Proceed())
	_, err := f.FetchDates(ctx)
	require.NoError(t, err)

	require.NoError(t, f.Back())
	require.NoError(t, f.AddService(1))
	snap := f.Snapshot()
	assert.Empty(t, snap.Dates)
	assert.Empty(t, snap.SelectedDate)
	assert.Equal(t, 1, snap.PrimaryID, "facial is now the longest service")
}

func TestFlowProceedRequiresNonEmptyCart(t *testing.T) {
	f := newTestFlow(t, scheduledGateway())
	require.NoError(t, f.ChooseGender(catalog.GenderFemale))
	assert.ErrorIs(t, f.Proceed(), ErrEmptyCart)
	assert.Equal(t, StepSelectService, f.Step())
}

func TestFlowNoAvailabilityIsNotAnError(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw, WithMonth("2024-09"))

	require.NoError(t, f.ChooseGender(catalog.GenderFemale))
	require.NoError(t, f.SelectArea(catalog.AreaLow))
	require.NoError(t, f.AddService(3))
	require.NoError(t, f.Proceed())

	dates, err := f.FetchDates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestFlowSetMonthClearsSelections(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw)
	ctx := context.Background()

	require.NoError(t, f.ChooseGender(catalog.GenderFemale))
	require.NoError(t, f.SelectArea(catalog.AreaLow))
	require.NoError(t, f.AddService(3))
	require.NoError(t, f.Proceed())
	_, err := f.FetchDates(ctx)
	require.NoError(t, err)
	require.NoError(t, f.SelectDate("2024-07-26"))

	require.NoError(t, f.SetMonth("2024-08"))
	snap := f.Snapshot()
	assert.Equal(t, "2024-08", snap.Month)
	assert.Empty(t, snap.Dates)
	assert.Empty(t, snap.SelectedDate)
}

func TestFlowSubmitFailureRetainsDetails(t *testing.T) {
	gw := scheduledGateway()
	gw.errs["create"] = &acuity.ProviderError{Endpoint: "/appointments", StatusCode: 500}
	f := newTestFlow(t, gw)

	advanceToDetails(t, f)
	details := validDetails()
	_, err := f.Submit(context.Background(), details)
	require.Error(t, err)

	snap := f.Snapshot()
	assert.Equal(t, StepEnterDetails, snap.Step, "failure leaves the flow on the details step")
	assert.Equal(t, details, snap.Details, "entered details survive a failed submission")
}

func TestFlowSubmitInvalidDetailsStaysPut(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw)

	advanceToDetails(t, f)
	d := validDetails()
	d.Phone = "123"
	_, err := f.Submit(context.Background(), d)

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, StepEnterDetails, f.Step())
	assert.Empty(t, gw.created)
}

func TestFlowDeepLinkStartsAtDateTime(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw, WithServiceIDs([]int{3, 1}))

	snap := f.Snapshot()
	assert.Equal(t, StepSelectDateTime, snap.Step)
	assert.True(t, snap.DeepLinked)
	require.Len(t, snap.Services, 2)
	assert.Equal(t, 1, snap.PrimaryID)
}

func TestFlowDeepLinkUnresolvedIDsDropped(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw, WithServiceIDs([]int{3, 999}))

	snap := f.Snapshot()
	assert.Equal(t, StepSelectDateTime, snap.Step)
	require.Len(t, snap.Services, 1)
	assert.Equal(t, 3, snap.Services[0].ID)
}

func TestFlowDeepLinkNothingResolves(t *testing.T) {
	gw := scheduledGateway()
	f, err := NewFlow(testCatalog(), gw, WithServiceIDs([]int{998, 999}), WithFlowLogger(logging.New("error")))
	assert.ErrorIs(t, err, ErrUnknownService)
	require.NotNil(t, f)

	snap := f.Snapshot()
	assert.Equal(t, StepSelectCategory, snap.Step)
	assert.Empty(t, snap.Services)
}

func TestFlowDeepLinkBackReturnsToCategory(t *testing.T) {
	gw := scheduledGateway()
	f := newTestFlow(t, gw, WithServiceIDs([]int{3}))

	require.NoError(t, f.Back())
	snap := f.Snapshot()
	assert.Equal(t, StepSelectCategory, snap.Step)
	assert.Empty(t, snap.Services, "deep-linked cart is discarded on back")
}

func TestFlowBackFromDetails(t *testing.T) {
	f := newTestFlow(t, scheduledGateway())
	advanceToDetails(t, f)
	require.NoError(t, f.Back())
	assert.Equal(t, StepSelectDateTime, f.Step())
}

func TestFlowReset(t *testing.T) {
	gw := scheduledGateway()
	gw.appt = confirmation("yes", "45.00")
	f := newTestFlow(t, gw)

	advanceToDetails(t, f)
	_, err := f.Submit(context.Background(), validDetails())
	require.NoError(t, err)

	f.Reset()
	snap := f.Snapshot()
	assert.Equal(t, StepSelectCategory, snap.Step)
	assert.Empty(t, snap.Services)
	assert.Nil(t, snap.Confirmation)
	assert.Empty(t, snap.Details.Email)
}

func TestFlowDoubleSubmitGuarded(t *testing.T) {
	gw := scheduledGateway()
	gw.appt = confirmation("yes", "45.00")
	gw.createGate = make(chan struct{})
	gw.createReleased = make(chan struct{})
	f := newTestFlow(t, gw)
	advanceToDetails(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), validDetails())
		done <- err
	}()

	<-gw.createGate // first submission is at the provider
	_, err := f.Submit(context.Background(), validDetails())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	close(gw.createReleased)

	require.NoError(t, <-done)
	assert.Equal(t, StepConfirmed, f.Step())
	assert.Len(t, gw.created, 1, "only one creation request reaches the gateway")
}

func TestFlowResetDuringSubmitKeepsResetState(t *testing.T) {
	gw := scheduledGateway()
	gw.appt = confirmation("yes", "45.00")
	gw.createGate = make(chan struct{})
	gw.createReleased = make(chan struct{})
	rec := &failingRecorder{}
	f := newTestFlow(t, gw, WithRecorder(rec))
	advanceToDetails(t, f)

	type submitResult struct {
		res *Result
		err error
	}
	done := make(chan submitResult, 1)
	go func() {
		res, err := f.Submit(context.Background(), validDetails())
		done <- submitResult{res, err}
	}()

	<-gw.createGate // creation request is at the provider
	f.Reset()
	close(gw.createReleased)

	sr := <-done
	require.NoError(t, sr.err)
	require.NotNil(t, sr.res)
	assert.Equal(t, OutcomeConfirmed, sr.res.Outcome, "the booking itself succeeded")

	snap := f.Snapshot()
	assert.Equal(t, StepSelectCategory, snap.Step, "reset state is not overwritten")
	assert.Empty(t, snap.Services)
	assert.Nil(t, snap.Confirmation)
	assert.Empty(t, snap.Outcome)
	assert.True(t, rec.called, "the appointment is still recorded")
}

func TestFlowRejectsEventsOutOfStep(t *testing.T) {
	f := newTestFlow(t, scheduledGateway())

	var stateErr *StateError
	assert.ErrorAs(t, f.SelectDate("2024-07-26"), &stateErr)
	assert.ErrorAs(t, f.SelectTime("2024-07-26T09:00:00-0500"), &stateErr)
	_, err := f.Submit(context.Background(), validDetails())
	assert.ErrorAs(t, err, &stateErr)
	assert.ErrorAs(t, f.PayLater(), &stateErr)
}

func TestFlowServicesForSelection(t *testing.T) {
	f := newTestFlow(t, scheduledGateway())
	require.NoError(t, f.ChooseGender(catalog.GenderMale))
	require.NoError(t, f.SelectArea(catalog.AreaFace))

	services := f.ServicesForSelection()
	require.Len(t, services, 1)
	assert.Equal(t, "Men's Brow Wax", services[0].Name)
}

func TestFlowRecorderFailureDoesNotAffectOutcome(t *testing.T) {
	gw := scheduledGateway()
	gw.appt = confirmation("yes", "45.00")
	rec := &failingRecorder{}
	f := newTestFlow(t, gw, WithRecorder(rec))

	advanceToDetails(t, f)
	res, err := f.Submit(context.Background(), validDetails())
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.True(t, rec.called)
}

type failingRecorder struct{ called bool }

func (r *failingRecorder) RecordConfirmation(context.Context, *acuity.Appointment, Outcome) error {
	r.called = true
	return assert.AnError
}
