package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

func TestRecordAnalysis(t *testing.T) {
	m := NewMetrics()
	session := &prosody.Session{
		Gender:   prosody.Female,
		Duration: 3,
		Scores:   prosody.ScoreResult{prosody.ScoreOverall: 0.5, prosody.ScoreRecommendedHiring: -0.25},
	}

	m.RecordAnalysis(session, 200*time.Millisecond)
	m.RecordAnalysis(session, 300*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GenderTotal.WithLabelValues("Female")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Scores))
}

func TestRecordAnalysisFailureUsesErrorCode(t *testing.T) {
	m := NewMetrics()

	m.RecordAnalysisFailure(prosody.NewError(prosody.ErrCodeDecoding, "a.mp3", "decode", nil), time.Second)
	m.RecordAnalysisFailure(errors.New("other"), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(prosody.ErrCodeDecoding)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("error")))
}

func TestHTTPMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("GET", "/health", "200", 0.01)
	m.RecordHTTPError("POST", "/v1/analyses", "client_error")
	m.RecordSessionStored()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPErrors.WithLabelValues("POST", "/v1/analyses", "client_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStored))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.RecordSessionStored()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "prosody_sessions_stored_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.RecordSessionStored()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SessionsStored))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SessionsStored))
}
