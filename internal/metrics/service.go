package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ReportsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_reports_received_total",
			Help: "The total number of game report fragments received.",
		}),
		ReportsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_reports_rejected_total",
			Help: "The total number of game report fragments rejected as malformed.",
		}),
		ReportsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_reports_evicted_total",
			Help: "The total number of incomplete reports dropped from a full queue.",
		}),
		ReportsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_reports_completed_total",
			Help: "The total number of reports confirmed by every player.",
		}),
		PendingReports: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_reports_pending",
			Help: "The number of reports waiting for the remaining players.",
		}),
		MatchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_matches_recorded_total",
			Help: "The total number of finished matches stored.",
		}),
		MatchesRated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_matches_rated_total",
			Help: "The total number of matches that changed ratings.",
		}),
		RatingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lobby_match_rating_duration_seconds",
			Help:    "The duration of recording and rating one match.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		OpenGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_open_games",
			Help: "The number of games currently hosted in the lobby.",
		}),
		RelaysDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_relays_dropped_total",
			Help: "The total number of messages the gateway could not relay.",
		}, []string{"reason"}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_send_failures_total",
			Help: "The total number of envelopes the room refused to deliver.",
		}),
		AnnouncementsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_announcements_sent_total",
			Help: "The total number of rated match announcements posted to Slack.",
		}),
		AnnouncementsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_announcements_failed_total",
			Help: "The total number of rated match announcements that failed to post.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ReportsReceived,
		s.ReportsRejected,
		s.ReportsEvicted,
		s.ReportsCompleted,
		s.PendingReports,
		s.MatchesRecorded,
		s.MatchesRated,
		s.RatingDuration,
		s.OpenGames,
		s.RelaysDropped,
		s.SendFailures,
		s.AnnouncementsSent,
		s.AnnouncementsFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncReportsReceived() {
	s.ReportsReceived.Inc()
}

func (s *Service) IncReportsRejected() {
	s.ReportsRejected.Inc()
}

func (s *Service) IncReportsEvicted() {
	s.ReportsEvicted.Inc()
}

func (s *Service) IncReportsCompleted() {
	s.ReportsCompleted.Inc()
}

func (s *Service) SetPendingReports(n int) {
	s.PendingReports.Set(float64(n))
}

func (s *Service) IncMatchesRecorded() {
	s.MatchesRecorded.Inc()
}

func (s *Service) IncMatchesRated() {
	s.MatchesRated.Inc()
}

func (s *Service) ObserveRatingDuration(duration float64) {
	s.RatingDuration.Observe(duration)
}

func (s *Service) SetOpenGames(n int) {
	s.OpenGames.Set(float64(n))
}

func (s *Service) IncRelaysDropped(reason string) {
	s.RelaysDropped.WithLabelValues(reason).Inc()
}

func (s *Service) IncSendFailures() {
	s.SendFailures.Inc()
}

func (s *Service) IncAnnouncementsSent() {
	s.AnnouncementsSent.Inc()
}

func (s *Service) IncAnnouncementsFailed() {
	s.AnnouncementsFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
