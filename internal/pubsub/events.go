package pubsub

import "github.com/mauv0809/lobbybot/internal/leaderboard"

// NewRatedMatchEvent builds the event for a rated match.
func NewRatedMatchEvent(r leaderboard.Result) RatedMatchEvent {
	ev := RatedMatchEvent{
		RecordID: r.Match.ID,
		MatchID:  r.Match.MatchID,
		MapName:  r.Match.MapName,
		Winner:   r.Match.Winner,
		At:       r.Match.CreatedAt.Unix(),
	}
	for _, u := range r.Updates {
		ev.Ratings = append(ev.Ratings, RatingChange{Identity: u.Identity, Before: u.Before, After: u.After})
	}
	return ev
}

// NewRecordedMatchEvent builds the event for any stored match.
func NewRecordedMatchEvent(r leaderboard.Result) RecordedMatchEvent {
	ev := RecordedMatchEvent{
		RecordID: r.Match.ID,
		MatchID:  r.Match.MatchID,
		Rated:    r.Rated(),
		At:       r.Match.CreatedAt.Unix(),
	}
	for _, p := range r.Match.Participants {
		ev.Players = append(ev.Players, p.Identity)
	}
	return ev
}
