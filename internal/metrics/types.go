package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the lobby.
type Service struct {
	ReportsReceived     prometheus.Counter
	ReportsRejected     prometheus.Counter
	ReportsEvicted      prometheus.Counter
	ReportsCompleted    prometheus.Counter
	PendingReports      prometheus.Gauge
	MatchesRecorded     prometheus.Counter
	MatchesRated        prometheus.Counter
	RatingDuration      prometheus.Histogram
	OpenGames           prometheus.Gauge
	RelaysDropped       *prometheus.CounterVec
	SendFailures        prometheus.Counter
	AnnouncementsSent   prometheus.Counter
	AnnouncementsFailed prometheus.Counter
	StartupTimeSeconds  prometheus.Gauge
}

// Persistent counter keys.
const (
	KeyReportsCompleted = "reports_completed"
	KeyMatchesRated     = "matches_rated"
	KeyMatchesRecorded  = "matches_recorded"
)
