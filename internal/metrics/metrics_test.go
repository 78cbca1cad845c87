package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnsCounterAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Turns.WithLabelValues(OutcomeOK).Inc()
	m.Turns.WithLabelValues(OutcomeLLMError).Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Turns.WithLabelValues(OutcomeLLMError)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `finadvisor_turns_total{outcome="llm_error"} 2`)
}

func TestIndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestObserveSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSearch(1500*time.Millisecond, 3)

	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchDuration))
	n, err := testutil.GatherAndCount(reg, "finadvisor_search_results")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
