package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/lobbybot/internal/elo"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/reports"
)

// Scalar report fields stored in their own columns.
const (
	fieldMapName     = "mapName"
	fieldTimeElapsed = "timeElapsed"
	fieldTeamsLocked = "teamsLocked"
	fieldMatchID     = "matchID"
)

// Service records finished matches, rates 1v1s and answers leaderboard
// queries.
type Service struct {
	mu      sync.Mutex
	store   Store
	metrics metrics.Metrics
	now     func() time.Time
}

func New(store Store, m metrics.Metrics) *Service {
	return &Service{
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

// AddAndRateMatch stores a confirmed match and, for a 1v1 with a single
// winner, adjusts both ratings. The match record and rating changes are
// committed together. A report in which anyone is still playing is
// discarded with ErrMatchInProgress.
func (s *Service) AddAndRateMatch(ctx context.Context, report reports.CanonicalReport) (Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRatingDuration(time.Since(start).Seconds())
	}()

	if len(report.Players) == 0 {
		return Result{}, ErrNoParticipants
	}
	for _, id := range report.Players {
		if state, _ := report.Stat(statStates, id); state == stateActive {
			return Result{}, fmt.Errorf("%s is still playing: %w", id, ErrMatchInProgress)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.buildRecord(report)
	var updates []RatingUpdate
	if verify(rec) {
		var err error
		updates, err = s.rate(ctx, rec)
		if err != nil {
			return Result{}, err
		}
		rec.Rated = true
	}

	if err := s.store.SaveMatch(ctx, rec, updates); err != nil {
		return Result{}, err
	}
	s.metrics.IncMatchesRecorded()
	if rec.Rated {
		s.metrics.IncMatchesRated()
	}
	log.Info("Match recorded", "id", rec.ID, "players", len(rec.Participants), "winner", rec.Winner, "rated", rec.Rated)
	return Result{Match: rec, Updates: updates}, nil
}

func (s *Service) buildRecord(report reports.CanonicalReport) MatchRecord {
	rec := MatchRecord{
		ID:        uuid.NewString(),
		MatchID:   report.Scalars[fieldMatchID],
		MapName:   report.Scalars[fieldMapName],
		Details:   make(map[string]string),
		CreatedAt: s.now(),
	}
	rec.Duration, _ = strconv.ParseInt(report.Scalars[fieldTimeElapsed], 10, 64)
	rec.TeamsLocked, _ = strconv.ParseBool(report.Scalars[fieldTeamsLocked])
	for k, v := range report.Scalars {
		switch k {
		case fieldMatchID, fieldMapName, fieldTimeElapsed, fieldTeamsLocked:
		default:
			rec.Details[k] = v
		}
	}

	for i, id := range report.Players {
		p := Participant{
			Identity: id,
			Position: i + 1,
			Stats:    make(map[string]string),
		}
		for stat := range report.PerPlayer {
			v, _ := report.Stat(stat, id)
			switch stat {
			case statStates:
				p.State = v
			case statCivs:
				p.Civ = v
			default:
				p.Stats[stat] = v
			}
		}
		if p.State == stateWon && rec.Winner == "" {
			rec.Winner = id
		}
		rec.Participants = append(rec.Participants, p)
	}
	return rec
}

// verify allows rating only for a two-player match with exactly one winner.
func verify(rec MatchRecord) bool {
	if len(rec.Participants) != 2 {
		return false
	}
	winners := 0
	for _, p := range rec.Participants {
		if p.State == stateWon {
			winners++
		}
	}
	return winners == 1
}

func (s *Service) rate(ctx context.Context, rec MatchRecord) ([]RatingUpdate, error) {
	first, err := s.store.GetOrCreatePlayer(ctx, rec.Participants[0].Identity)
	if err != nil {
		return nil, err
	}
	second, err := s.store.GetOrCreatePlayer(ctx, rec.Participants[1].Identity)
	if err != nil {
		return nil, err
	}

	result := elo.Loss
	if rec.Winner == first.Identity {
		result = elo.Win
	}
	r1, r2 := startingRating(first), startingRating(second)
	d1 := elo.RatingAdjustment(r1, r2, first.RatedMatches, second.RatedMatches, result)
	d2 := elo.RatingAdjustment(r2, r1, second.RatedMatches, first.RatedMatches, result.Opposite())

	return []RatingUpdate{
		update(first, r1, d1),
		update(second, r2, d2),
	}, nil
}

func startingRating(p Player) int {
	if p.Rating == elo.Unrated {
		return elo.DefaultRating
	}
	return p.Rating
}

func update(p Player, before, delta int) RatingUpdate {
	u := RatingUpdate{
		Identity:      p.Identity,
		Before:        before,
		After:         before + delta,
		HighestRating: p.HighestRating,
	}
	if u.After > u.HighestRating {
		u.HighestRating = u.After
	}
	return u
}

// Announcement describes a rated match for the lobby room.
func (r Result) Announcement() string {
	if !r.Rated() {
		return ""
	}
	a, b := r.Updates[0], r.Updates[1]
	outcome := elo.Loss
	if r.Match.Winner == a.Identity {
		outcome = elo.Win
	}
	n1, n2 := DisplayName(a.Identity), DisplayName(b.Identity)
	return fmt.Sprintf("A rated game has ended. %s %s against %s. Rating Adjustment: %s (%d -> %d) and %s (%d -> %d).",
		n1, outcome, n2, n1, a.Before, a.After, n2, b.Before, b.After)
}

// GetOrCreatePlayer returns identity's record, creating an unrated one on
// first sight.
func (s *Service) GetOrCreatePlayer(ctx context.Context, identity string) (Player, error) {
	return s.store.GetOrCreatePlayer(ctx, identity)
}

// RemovePlayer deletes a player together with its match participation.
func (s *Service) RemovePlayer(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeletePlayer(ctx, identity); err != nil {
		return err
	}
	log.Info("Removed player", "identity", identity)
	return nil
}

// GetBoard returns the top rated players, best first.
func (s *Service) GetBoard(ctx context.Context) ([]Player, error) {
	return s.store.TopPlayers(ctx, BoardSize)
}

// GetRatingList returns the rating of every known online player. nicks maps
// online identities to their nicks; the result is ordered by nick.
func (s *Service) GetRatingList(ctx context.Context, nicks map[string]string) ([]RatingEntry, error) {
	ids := make([]string, 0, len(nicks))
	for id := range nicks {
		ids = append(ids, id)
	}
	players, err := s.store.PlayersByIdentity(ctx, ids)
	if err != nil {
		return nil, err
	}
	entries := make([]RatingEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, RatingEntry{Nick: nicks[p.Identity], Rating: p.Rating})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Nick < entries[j].Nick })
	return entries, nil
}

// GetProfile returns identity's statistics or ErrPlayerNotFound.
func (s *Service) GetProfile(ctx context.Context, identity string) (Profile, error) {
	p, err := s.store.GetPlayer(ctx, identity)
	if err != nil {
		return Profile{}, err
	}
	prof := Profile{
		Identity:      p.Identity,
		Rating:        p.Rating,
		HighestRating: p.HighestRating,
	}
	if p.Rating != elo.Unrated {
		if prof.Rank, err = s.store.CountRatedAtLeast(ctx, p.Rating); err != nil {
			return Profile{}, fmt.Errorf("failed to rank %s: %w", identity, err)
		}
	}
	if prof.TotalMatches, err = s.store.CountMatches(ctx, identity); err != nil {
		return Profile{}, fmt.Errorf("failed to count matches of %s: %w", identity, err)
	}
	if prof.Wins, err = s.store.CountWins(ctx, identity); err != nil {
		return Profile{}, fmt.Errorf("failed to count wins of %s: %w", identity, err)
	}
	prof.Losses = prof.TotalMatches - prof.Wins
	return prof, nil
}

// IsNotFound reports whether err means the player is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlayerNotFound)
}
