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
	"go.uber.org/zap"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector("cadscribe", zap.NewNop())

	assert.NotNil(t, c.httpRequestsTotal)
	assert.NotNil(t, c.generationsTotal)
	assert.NotNil(t, c.modificationsTotal)
	assert.NotNil(t, c.Registry())
}

func TestNewCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("cadscribe", nil)
	b := NewCollector("cadscribe", nil)
	a.RecordArtifact("cube")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.artifactsWritten.WithLabelValues("cube")))
	assert.Equal(t, 0, testutil.CollectAndCount(b.artifactsWritten))
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c := NewCollector("cadscribe", zap.NewNop())
	c.RecordHTTPRequest("POST", "/generate_model/", 200, 40*time.Millisecond)
	c.RecordHTTPRequest("POST", "/generate_model/", 201, 10*time.Millisecond)
	c.RecordHTTPRequest("POST", "/generate_model/", 500, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/generate_model/", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/generate_model/", "5xx")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.httpRequestDuration))
}

func TestCollector_RecordGenerationAndResolve(t *testing.T) {
	c := NewCollector("cadscribe", zap.NewNop())
	c.RecordGeneration("openai", true, time.Second)
	c.RecordGeneration("openai", false, time.Second)
	c.RecordResolve("torus")
	c.RecordResolve("")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("openai", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.shapesResolved))
}

func TestCollector_RecordModificationAndUpload(t *testing.T) {
	c := NewCollector("cadscribe", zap.NewNop())
	c.RecordModification("applied", "x")
	c.RecordModification("noop_pattern", "")
	c.RecordUpload(false)

	assert.Equal(t, 2, testutil.CollectAndCount(c.modificationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.uploadsTotal.WithLabelValues("error")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("cadscribe", zap.NewNop())
	c.RecordArtifact("sphere")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `cadscribe_artifacts_written_total{suffix="sphere"} 1`))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(422))
	assert.Equal(t, "5xx", statusClass(502))
	assert.Equal(t, "1xx", statusClass(0))
}
