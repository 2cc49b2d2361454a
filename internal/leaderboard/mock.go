package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mauv0809/lobbybot/internal/elo"
)

// Mock is an in-memory Store for testing. Setting SaveMatchErr makes
// SaveMatch fail without changing anything.
type Mock struct {
	mu           sync.Mutex
	players      map[string]Player
	matches      []MatchRecord
	SaveMatchErr error
}

var _ Store = (*Mock)(nil)

// NewMock creates an empty in-memory store.
func NewMock() *Mock {
	return &Mock{players: make(map[string]Player)}
}

// Matches returns every saved match.
func (m *Mock) Matches() []MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MatchRecord(nil), m.matches...)
}

// SetPlayer inserts or replaces a player.
func (m *Mock) SetPlayer(p Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.Identity] = p
}

func (m *Mock) GetPlayer(_ context.Context, identity string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[identity]
	if !ok {
		return Player{}, fmt.Errorf("%s: %w", identity, ErrPlayerNotFound)
	}
	return p, nil
}

func (m *Mock) GetOrCreatePlayer(_ context.Context, identity string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreate(identity), nil
}

func (m *Mock) getOrCreate(identity string) Player {
	p, ok := m.players[identity]
	if !ok {
		p = Player{Identity: identity, Rating: elo.Unrated, HighestRating: elo.Unrated, CreatedAt: time.Now()}
		m.players[identity] = p
	}
	return p
}

func (m *Mock) DeletePlayer(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[identity]; !ok {
		return fmt.Errorf("%s: %w", identity, ErrPlayerNotFound)
	}
	delete(m.players, identity)
	return nil
}

func (m *Mock) TopPlayers(_ context.Context, limit int) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rated []Player
	for _, p := range m.players {
		if p.Rating != elo.Unrated {
			rated = append(rated, p)
		}
	}
	sort.Slice(rated, func(i, j int) bool {
		if rated[i].Rating != rated[j].Rating {
			return rated[i].Rating > rated[j].Rating
		}
		return rated[i].Identity < rated[j].Identity
	})
	if len(rated) > limit {
		rated = rated[:limit]
	}
	return rated, nil
}

func (m *Mock) PlayersByIdentity(_ context.Context, identities []string) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []Player
	for _, id := range identities {
		if p, ok := m.players[id]; ok {
			found = append(found, p)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Identity < found[j].Identity })
	return found, nil
}

func (m *Mock) CountRatedAtLeast(_ context.Context, rating int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.players {
		if p.Rating != elo.Unrated && p.Rating >= rating {
			n++
		}
	}
	return n, nil
}

func (m *Mock) CountMatches(_ context.Context, identity string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.matches {
		for _, p := range rec.Participants {
			if p.Identity == identity {
				n++
			}
		}
	}
	return n, nil
}

func (m *Mock) CountWins(_ context.Context, identity string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.matches {
		if rec.Winner == identity {
			n++
		}
	}
	return n, nil
}

func (m *Mock) SaveMatch(_ context.Context, rec MatchRecord, updates []RatingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveMatchErr != nil {
		return m.SaveMatchErr
	}
	for _, p := range rec.Participants {
		m.getOrCreate(p.Identity)
	}
	for _, u := range updates {
		if _, ok := m.players[u.Identity]; !ok {
			return fmt.Errorf("update rating of %s: %w", u.Identity, ErrPlayerNotFound)
		}
	}
	for _, u := range updates {
		p := m.players[u.Identity]
		p.Rating = u.After
		p.HighestRating = u.HighestRating
		p.RatedMatches++
		m.players[u.Identity] = p
	}
	m.matches = append(m.matches, rec)
	return nil
}
