package slack

import (
	"fmt"
	"strings"

	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/slack-go/slack"
)

func formatRatedMatch(result leaderboard.Result) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⚔️ Rated game finished ⚔️", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	winner := leaderboard.DisplayName(result.Match.Winner)
	details := fmt.Sprintf("%s won on %s", winner, orUnknown(result.Match.MapName))
	if result.Match.Duration > 0 {
		details += fmt.Sprintf(" after %s", formatDuration(result.Match.Duration))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", details, true, false), nil, nil))

	var fields []*slack.TextBlockObject
	for _, u := range result.Updates {
		text := fmt.Sprintf("%s\n%d → %d (%+d)", leaderboard.DisplayName(u.Identity), u.Before, u.After, u.After-u.Before)
		fields = append(fields, slack.NewTextBlockObject("plain_text", text, true, false))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "Rating adjustment:", true, false), fields, nil))

	if result.Match.MatchID != "" {
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Match "+result.Match.MatchID, false, false)))
	}
	return slack.NewBlockMessage(blocks...)
}

func formatLeaderboard(players []leaderboard.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Lobby Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No rated games yet.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	lines := make([]string, 0, len(players))
	for i, p := range players {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇 "
		case 2:
			medal = "🥈 "
		case 3:
			medal = "🥉 "
		}
		lines = append(lines, fmt.Sprintf("%d. %s%s %d", rank, medal, leaderboard.DisplayName(p.Identity), p.Rating))
	}
	// Slack caps a text object at 3000 characters.
	for len(lines) > 0 {
		n := min(len(lines), 25)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines[:n], "\n"), true, false), nil, nil))
		lines = lines[n:]
	}
	return slack.NewBlockMessage(blocks...)
}

// formatDuration renders a match length reported in milliseconds.
func formatDuration(ms int64) string {
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func orUnknown(s string) string {
	if s == "" {
		return "an unknown map"
	}
	return s
}

func formatProfile(p leaderboard.Profile) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "📊 "+leaderboard.DisplayName(p.Identity), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	rating, highest, rank := "unrated", "-", "-"
	if p.Rank > 0 {
		rating = fmt.Sprint(p.Rating)
		highest = fmt.Sprint(p.HighestRating)
		rank = fmt.Sprintf("#%d", p.Rank)
	}
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", "*Rating*\n"+rating, false, false),
		slack.NewTextBlockObject("mrkdwn", "*Highest*\n"+highest, false, false),
		slack.NewTextBlockObject("mrkdwn", "*Rank*\n"+rank, false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Record*\n%d games, %d W / %d L", p.TotalMatches, p.Wins, p.Losses), false, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	return slack.NewBlockMessage(blocks...)
}
