package leaderboard

import (
	"errors"
	"strings"
	"time"
)

const (
	// BoardSize is how many rated players the leaderboard lists.
	BoardSize = 100

	stateActive = "active"
	stateWon    = "won"

	statStates = "playerStates"
	statCivs   = "civs"
)

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrMatchInProgress = errors.New("match still in progress")
	ErrNoParticipants  = errors.New("match has no participants")
)

// Player is a player's rating record. Rating and HighestRating are
// elo.Unrated until the player finishes a rated match.
type Player struct {
	Identity      string
	Rating        int
	HighestRating int
	RatedMatches  int
	CreatedAt     time.Time
}

// Participant is one player's part in a stored match.
type Participant struct {
	Identity string
	Position int
	State    string
	Civ      string
	Stats    map[string]string
}

// MatchRecord is a finished match as stored.
type MatchRecord struct {
	ID           string
	MatchID      string
	MapName      string
	Duration     int64
	TeamsLocked  bool
	Winner       string
	Rated        bool
	Participants []Participant
	Details      map[string]string
	CreatedAt    time.Time
}

// RatingUpdate is the change one rated match made to a player.
type RatingUpdate struct {
	Identity      string
	Before        int
	After         int
	HighestRating int
}

// Result is what AddAndRateMatch did with a report.
type Result struct {
	Match   MatchRecord
	Updates []RatingUpdate
}

// Rated reports whether the match changed any rating.
func (r Result) Rated() bool {
	return r.Match.Rated && len(r.Updates) == 2
}

// Profile summarises a player for profile queries. Rank is zero and Rating
// elo.Unrated for a player who has never finished a rated match.
type Profile struct {
	Identity      string
	Rating        int
	HighestRating int
	Rank          int
	TotalMatches  int
	Wins          int
	Losses        int
}

// RatingEntry is one online player's rating, keyed by nick.
type RatingEntry struct {
	Nick   string
	Rating int
}

// DisplayName strips the domain from an identity.
func DisplayName(identity string) string {
	if i := strings.LastIndex(identity, "@"); i >= 0 {
		return identity[:i]
	}
	return identity
}
