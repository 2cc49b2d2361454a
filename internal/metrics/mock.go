package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	reportsReceived     int
	reportsRejected     int
	reportsEvicted      int
	reportsCompleted    int
	pendingReports      int
	matchesRecorded     int
	matchesRated        int
	ratingDurations     []float64
	openGames           int
	relaysDropped       map[string]int
	sendFailures        int
	announcementsSent   int
	announcementsFailed int
	startupTime         float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		ratingDurations: make([]float64, 0),
		relaysDropped:   make(map[string]int),
	}
}

func (m *Mock) IncReportsReceived() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsReceived++
}

func (m *Mock) IncReportsRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsRejected++
}

func (m *Mock) IncReportsEvicted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsEvicted++
}

func (m *Mock) IncReportsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsCompleted++
}

func (m *Mock) SetPendingReports(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingReports = n
}

func (m *Mock) IncMatchesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesRecorded++
}

func (m *Mock) IncMatchesRated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesRated++
}

func (m *Mock) ObserveRatingDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratingDurations = append(m.ratingDurations, duration)
}

func (m *Mock) SetOpenGames(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openGames = n
}

func (m *Mock) IncRelaysDropped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relaysDropped[reason]++
}

func (m *Mock) IncSendFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendFailures++
}

func (m *Mock) IncAnnouncementsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcementsSent++
}

func (m *Mock) IncAnnouncementsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcementsFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// ReportsReceived returns the number of times IncReportsReceived was called.
func (m *Mock) ReportsReceived() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reportsReceived
}

// ReportsRejected returns the number of times IncReportsRejected was called.
func (m *Mock) ReportsRejected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reportsRejected
}

// ReportsEvicted returns the number of times IncReportsEvicted was called.
func (m *Mock) ReportsEvicted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reportsEvicted
}

// ReportsCompleted returns the number of times IncReportsCompleted was called.
func (m *Mock) ReportsCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reportsCompleted
}

// PendingReports returns the last value passed to SetPendingReports.
func (m *Mock) PendingReports() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingReports
}

// MatchesRecorded returns the number of times IncMatchesRecorded was called.
func (m *Mock) MatchesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesRecorded
}

// MatchesRated returns the number of times IncMatchesRated was called.
func (m *Mock) MatchesRated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesRated
}

// RatingDurations returns every duration observed.
func (m *Mock) RatingDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.ratingDurations...)
}

// OpenGames returns the last value passed to SetOpenGames.
func (m *Mock) OpenGames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openGames
}

// RelaysDropped returns how many relays were dropped for reason.
func (m *Mock) RelaysDropped(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relaysDropped[reason]
}

// SendFailures returns the number of times IncSendFailures was called.
func (m *Mock) SendFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendFailures
}

// AnnouncementsSent returns the number of times IncAnnouncementsSent was called.
func (m *Mock) AnnouncementsSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.announcementsSent
}

// AnnouncementsFailed returns the number of times IncAnnouncementsFailed was called.
func (m *Mock) AnnouncementsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.announcementsFailed
}

// StartupTime returns the last value passed to SetStartupTime.
func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
