package leaderboard

import "context"

// Store persists players and matches.
type Store interface {
	GetPlayer(ctx context.Context, identity string) (Player, error)
	GetOrCreatePlayer(ctx context.Context, identity string) (Player, error)
	DeletePlayer(ctx context.Context, identity string) error
	TopPlayers(ctx context.Context, limit int) ([]Player, error)
	PlayersByIdentity(ctx context.Context, identities []string) ([]Player, error)
	CountRatedAtLeast(ctx context.Context, rating int) (int, error)
	CountMatches(ctx context.Context, identity string) (int, error)
	CountWins(ctx context.Context, identity string) (int, error)
	// SaveMatch stores rec and applies updates atomically.
	SaveMatch(ctx context.Context, rec MatchRecord, updates []RatingUpdate) error
}
