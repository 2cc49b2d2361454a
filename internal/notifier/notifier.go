package notifier

import (
	"context"

	"github.com/mauv0809/lobbybot/internal/leaderboard"
)

// Notifier posts lobby events to an operator channel.
// This decouples the lobby from the specific provider (e.g., Slack).
type Notifier interface {
	// AnnounceRatedMatch posts the outcome of a rated match.
	AnnounceRatedMatch(ctx context.Context, result leaderboard.Result, dryRun bool) error
	// SendLeaderboard posts the current top of the leaderboard.
	SendLeaderboard(ctx context.Context, players []leaderboard.Player, dryRun bool) error

	// Slash command responses. The concrete type depends on the provider.
	FormatLeaderboardResponse(players []leaderboard.Player) (any, error)
	FormatProfileResponse(profile leaderboard.Profile) (any, error)
	FormatPlayerNotFoundResponse(query string) (any, error)
}
