package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/lobbybot/internal/leaderboard"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	AnnounceRatedMatchFunc func(result leaderboard.Result) error
	SendLeaderboardFunc    func(players []leaderboard.Player) error

	FormatLeaderboardResponseFunc    func(players []leaderboard.Player) (any, error)
	FormatProfileResponseFunc        func(profile leaderboard.Profile) (any, error)
	FormatPlayerNotFoundResponseFunc func(query string) (any, error)

	// Call records
	AnnounceRatedMatchCalls []leaderboard.Result
	SendLeaderboardCalls    [][]leaderboard.Player
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnounceRatedMatchCalls = nil
	m.SendLeaderboardCalls = nil
}

func (m *Mock) AnnounceRatedMatch(_ context.Context, result leaderboard.Result, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnounceRatedMatchCalls = append(m.AnnounceRatedMatchCalls, result)
	if m.AnnounceRatedMatchFunc != nil {
		return m.AnnounceRatedMatchFunc(result)
	}
	return nil
}

func (m *Mock) SendLeaderboard(_ context.Context, players []leaderboard.Player, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(players)
	}
	return nil
}

// Announced returns a copy of every announced result.
func (m *Mock) Announced() []leaderboard.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]leaderboard.Result(nil), m.AnnounceRatedMatchCalls...)
}

func (m *Mock) FormatLeaderboardResponse(players []leaderboard.Player) (any, error) {
	if m.FormatLeaderboardResponseFunc != nil {
		return m.FormatLeaderboardResponseFunc(players)
	}
	return nil, nil
}

func (m *Mock) FormatProfileResponse(profile leaderboard.Profile) (any, error) {
	if m.FormatProfileResponseFunc != nil {
		return m.FormatProfileResponseFunc(profile)
	}
	return nil, nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string) (any, error) {
	if m.FormatPlayerNotFoundResponseFunc != nil {
		return m.FormatPlayerNotFoundResponseFunc(query)
	}
	return nil, nil
}
