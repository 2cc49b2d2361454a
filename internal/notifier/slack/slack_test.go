package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	calls                  int
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.calls++
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func ratedResult() leaderboard.Result {
	return leaderboard.Result{
		Match: leaderboard.MatchRecord{
			MatchID:  "m-1",
			MapName:  "Arcadia",
			Duration: 1805000,
			Winner:   "alice@lobby.test",
			Rated:    true,
		},
		Updates: []leaderboard.RatingUpdate{
			{Identity: "alice@lobby.test", Before: 1200, After: 1278},
			{Identity: "bob@lobby.test", Before: 1200, After: 1122},
		},
	}
}

func TestSendMessage_DryRun(t *testing.T) {
	m := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", m)

	_, _, err := notifier.sendMessage(context.Background(), slackapi.NewBlockMessage(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, m.AnnouncementsSent())
}

func TestAnnounceRatedMatch(t *testing.T) {
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}
	m := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", m)

	require.NoError(t, notifier.AnnounceRatedMatch(context.Background(), ratedResult(), false))
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, m.AnnouncementsSent())
}

func TestAnnounceRatedMatch_SkipsUnrated(t *testing.T) {
	api := &mockSlackAPI{}
	notifier := NewNotifierWithAPI(api, "C123", metrics.NewMock())

	require.NoError(t, notifier.AnnounceRatedMatch(context.Background(), leaderboard.Result{}, false))
	assert.Equal(t, 0, api.calls)
}

func TestAnnounceRatedMatch_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}
	m := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", m)

	err := notifier.AnnounceRatedMatch(context.Background(), ratedResult(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, m.AnnouncementsSent())
	assert.Equal(t, 1, m.AnnouncementsFailed())
}

func TestFormatRatedMatch(t *testing.T) {
	msg := formatRatedMatch(ratedResult())
	require.Len(t, msg.Blocks.BlockSet, 4)

	details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "alice won on Arcadia after 30m05s", details.Text.Text)

	ratings, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	require.Len(t, ratings.Fields, 2)
	assert.Equal(t, "alice\n1200 → 1278 (+78)", ratings.Fields[0].Text)
	assert.Equal(t, "bob\n1200 → 1122 (-78)", ratings.Fields[1].Text)
}

func TestFormatLeaderboard(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		msg := formatLeaderboard(nil)
		require.Len(t, msg.Blocks.BlockSet, 2)
		section := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		assert.Equal(t, "No rated games yet.", section.Text.Text)
	})

	t.Run("split into sections", func(t *testing.T) {
		players := make([]leaderboard.Player, 30)
		for i := range players {
			players[i] = leaderboard.Player{Identity: "p@lobby.test", Rating: 2000 - i}
		}
		msg := formatLeaderboard(players)
		require.Len(t, msg.Blocks.BlockSet, 3)
		first := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		assert.Contains(t, first.Text.Text, "1. 🥇 p 2000")
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m59s", formatDuration(59999))
	assert.Equal(t, "1h01m01s", formatDuration(3661000))
}

func TestFormatProfile(t *testing.T) {
	t.Run("rated", func(t *testing.T) {
		msg := formatProfile(leaderboard.Profile{Identity: "alice@lobby.test", Rating: 1278, HighestRating: 1301, Rank: 2, TotalMatches: 5, Wins: 3, Losses: 2})
		require.Len(t, msg.Blocks.BlockSet, 2)
		header := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		assert.Equal(t, "📊 alice", header.Text.Text)
		section := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.Len(t, section.Fields, 4)
		assert.Equal(t, "*Rating*\n1278", section.Fields[0].Text)
		assert.Equal(t, "*Rank*\n#2", section.Fields[2].Text)
		assert.Equal(t, "*Record*\n5 games, 3 W / 2 L", section.Fields[3].Text)
	})

	t.Run("unrated", func(t *testing.T) {
		msg := formatProfile(leaderboard.Profile{Identity: "bob@lobby.test", Rating: -1, HighestRating: -1})
		section := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		assert.Equal(t, "*Rating*\nunrated", section.Fields[0].Text)
		assert.Equal(t, "*Rank*\n-", section.Fields[2].Text)
	})
}

func TestFormatPlayerNotFoundResponse(t *testing.T) {
	n := NewNotifierWithAPI(&mockSlackAPI{}, "C1", metrics.NewMock())
	msg, err := n.FormatPlayerNotFoundResponse("nobody")
	require.NoError(t, err)
	section := msg.(slackapi.Message).Blocks.BlockSet[0].(*slackapi.SectionBlock)
	assert.Equal(t, "No player found matching `nobody`.", section.Text.Text)
}
