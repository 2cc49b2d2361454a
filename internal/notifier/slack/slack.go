package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-channel", "dry-run-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncAnnouncementsFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncAnnouncementsSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) AnnounceRatedMatch(ctx context.Context, result leaderboard.Result, dryRun bool) error {
	if !result.Rated() {
		return nil
	}
	_, _, err := s.sendMessage(ctx, formatRatedMatch(result), dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(ctx context.Context, players []leaderboard.Player, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, formatLeaderboard(players), dryRun)
	return err
}

func (s *Notifier) FormatLeaderboardResponse(players []leaderboard.Player) (any, error) {
	return formatLeaderboard(players), nil
}

func (s *Notifier) FormatProfileResponse(profile leaderboard.Profile) (any, error) {
	return formatProfile(profile), nil
}

func (s *Notifier) FormatPlayerNotFoundResponse(query string) (any, error) {
	text := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("No player found matching `%s`.", query), false, false)
	return slack.NewBlockMessage(slack.NewSectionBlock(text, nil, nil)), nil
}
