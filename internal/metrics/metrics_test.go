package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediacompose-api/internal/metrics"
)

func TestRecordComposition(t *testing.T) {
	success := metrics.CompositionsTotal.WithLabelValues("clip_merge", metrics.OutcomeSuccess, "")
	failed := metrics.CompositionsTotal.WithLabelValues("clip_merge", metrics.OutcomeFailure, "acquisition")
	beforeSuccess := testutil.ToFloat64(success)
	beforeFailed := testutil.ToFloat64(failed)

	metrics.RecordComposition("clip_merge", "", 3*time.Second, 17.5)
	metrics.RecordComposition("clip_merge", "acquisition", time.Second, 0)

	assert.Equal(t, beforeSuccess+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestSetJobCount(t *testing.T) {
	metrics.SetJobCount("pending", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.JobsByStatus.WithLabelValues("pending")))

	metrics.SetJobCount("pending", 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.JobsByStatus.WithLabelValues("pending")))
}

func TestRecordHTTPRequest(t *testing.T) {
	c := metrics.HTTPRequestsTotal.WithLabelValues("POST", "422")
	before := testutil.ToFloat64(c)

	metrics.RecordHTTPRequest("POST", 422, 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestPromhttpExposure(t *testing.T) {
	metrics.RecordComposition("longform", "", time.Minute, 40)

	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "mediacompose_compositions_total"))
}
