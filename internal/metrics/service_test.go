package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := metrics.NewService(reg)

	s.IncReportsReceived()
	s.IncReportsReceived()
	s.SetPendingReports(3)
	s.IncRelaysDropped("authority_offline")
	s.IncMatchesRated()
	s.ObserveRatingDuration(0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.ReportsReceived))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.PendingReports))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.RelaysDropped.WithLabelValues("authority_offline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.MatchesRated))
	assert.Equal(t, 1, testutil.CollectAndCount(s.RatingDuration))

	rec := httptest.NewRecorder()
	metrics.NewMetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lobby_reports_received_total 2")
	assert.Contains(t, string(body), `lobby_relays_dropped_total{reason="authority_offline"} 1`)
}
