package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

type stubSource struct {
	types []acuity.AppointmentType
	err   error
}

func (s *stubSource) ListAppointmentTypes(context.Context) ([]acuity.AppointmentType, error) {
	return s.types, s.err
}

func TestListServicesFiltersPrivate(t *testing.T) {
	src := &stubSource{types: []acuity.AppointmentType{
		{ID: 1, Name: "Signature Facial"},
		{ID: 2, Name: "Staff Training Block", Private: true},
		{ID: 3, Name: "Men's Haircut"},
	}}
	h := NewHandler(src, nil, logging.New("error"))

	rec := httptest.NewRecorder()
	h.ListServices(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListServicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Services, 2)
	assert.Equal(t, 1, resp.Services[0].ID)
	assert.Equal(t, 3, resp.Services[1].ID)
}

func TestListServicesNotConfigured(t *testing.T) {
	h := NewHandler(&stubSource{err: acuity.ErrNotConfigured}, nil, logging.New("error"))

	rec := httptest.NewRecorder()
	h.ListServices(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListServicesProviderFailure(t *testing.T) {
	h := NewHandler(&stubSource{err: &acuity.ProviderError{Endpoint: "/appointment-types", StatusCode: 502}}, nil, logging.New("error"))

	rec := httptest.NewRecorder()
	h.ListServices(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "502", "provider details must not leak")
}

func TestRefreshWithoutCache(t *testing.T) {
	h := NewHandler(&stubSource{}, nil, logging.New("error"))

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/admin/catalog/refresh", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
