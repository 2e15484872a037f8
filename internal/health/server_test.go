package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/portfolio-lab/internal/metrics"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func newTestServer(db DatabasePinger) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewServer(Config{
		ServiceName: "daily-report",
		Version:     "test",
		Metrics:     metrics.Handler(),
		Logger:      logger,
		DB:          db,
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := newTestServer(nil)
	h := s.Handler()

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "daily-report", body.Service)
	assert.Empty(t, body.LastReport)

	s.RecordRun(time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), nil)
	rec = get(t, h, "/health")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-03-15T18:00:00Z", body.LastReport)

	assert.Equal(t, http.StatusOK, get(t, h, "/live").Code)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name    string
		ready   bool
		db      DatabasePinger
		runErr  error
		want    int
		checkOn string
	}{
		{name: "not marked ready", ready: false, want: http.StatusServiceUnavailable, checkOn: "service"},
		{name: "ready without database", ready: true, want: http.StatusOK, checkOn: "service"},
		{name: "database ok", ready: true, db: fakePinger{}, want: http.StatusOK, checkOn: "database"},
		{name: "database down", ready: true, db: fakePinger{err: errors.New("refused")}, want: http.StatusServiceUnavailable, checkOn: "database"},
		{name: "last run failed", ready: true, runErr: errors.New("no data"), want: http.StatusServiceUnavailable, checkOn: "last_report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.db)
			s.SetReady(tt.ready)
			if tt.runErr != nil {
				s.RecordRun(time.Now(), tt.runErr)
			}

			rec := get(t, s.Handler(), "/ready")
			assert.Equal(t, tt.want, rec.Code)

			var body ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Checks, tt.checkOn)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.RecordWarning("min_assets")

	rec := get(t, newTestServer(nil).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_lab_analysis_warnings_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	s := NewServer(Config{ServiceName: "x"})
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/metrics").Code)
}
