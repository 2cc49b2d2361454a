package metrics

// Metrics defines the interface for collecting lobby metrics.
// This decouples the components from the Prometheus implementation.
type Metrics interface {
	IncReportsReceived()
	IncReportsRejected()
	IncReportsEvicted()
	IncReportsCompleted()
	SetPendingReports(n int)
	IncMatchesRecorded()
	IncMatchesRated()
	ObserveRatingDuration(duration float64)
	SetOpenGames(n int)
	IncRelaysDropped(reason string)
	IncSendFailures()
	IncAnnouncementsSent()
	IncAnnouncementsFailed()
	SetStartupTime(duration float64)
}

// MetricsStore keeps lifetime counters that survive restarts.
type MetricsStore interface {
	Increment(key string)
	GetAll() (map[string]int, error)
}
