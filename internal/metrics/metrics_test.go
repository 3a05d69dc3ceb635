package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()

	m.RecordClaim("granted")
	m.RecordClaim("granted")
	m.RecordClaim("conflict")
	m.RecordRelease()
	m.SetSessions(3)
	m.SetConflicts(1)
	m.RecordError("sweep", "list")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClaimsTotal.WithLabelValues("granted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClaimsTotal.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleasesTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConflictsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("sweep", "list")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.RecordClaim("granted")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coordinator_claims_total")
}

func TestRegistriesAreIndependent(t *testing.T) {
	// Each instance owns its registry, so tests can create as many as needed
	// without duplicate-registration panics.
	a := New()
	b := New()
	a.RecordClaim("granted")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ClaimsTotal.WithLabelValues("granted")))
}
