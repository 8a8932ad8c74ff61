package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", "200", 0.1)
	m.JobExecuted("x", "completed")
	m.ReminderOperation("schedule", "applied")
	m.RemindersCancelled(3)
	m.SetOverdueNotes(4)
}

func TestCollectorsRecord(t *testing.T) {
	m := New()
	m.JobExecuted("cleanup-finished-jobs", "completed")
	m.JobExecuted("cleanup-finished-jobs", "completed")
	m.RemindersCancelled(2)
	m.RemindersCancelled(0)
	m.SetOverdueNotes(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobsExecuted.WithLabelValues("cleanup-finished-jobs", "completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.remindersCancelled))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.overdueNotes))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ReminderOperation("schedule", "applied")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `inkmind_reminder_operations_total{op="schedule",outcome="applied"} 1`))
}
