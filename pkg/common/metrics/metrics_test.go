package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAttempt(t *testing.T) {
	m := New()
	m.ObserveAttempt("registered")
	m.ObserveAttempt("registered")
	m.ObserveAttempt("username_taken")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("registered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("username_taken")))
}

func TestObserveSubmission(t *testing.T) {
	m := New()
	m.ObserveSubmission(201, 10*time.Millisecond)
	m.ObserveSubmission(0, time.Millisecond)
	m.ObserveSubmission(503, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("transport_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("5xx")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveAttempt("registered")
	m.ObserveSubmission(409, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `barista_registration_attempts_total{outcome="registered"} 1`))
	assert.True(t, strings.Contains(rec.Body.String(), `barista_registration_submissions_total{outcome="4xx"} 1`))
	assert.True(t, strings.Contains(rec.Body.String(), `barista_registration_duration_seconds_count 1`))
}

func TestOutcomeClass(t *testing.T) {
	assert.Equal(t, "transport_error", outcomeClass(0))
	assert.Equal(t, "2xx", outcomeClass(204))
	assert.Equal(t, "3xx", outcomeClass(302))
	assert.Equal(t, "4xx", outcomeClass(409))
	assert.Equal(t, "5xx", outcomeClass(500))
}
