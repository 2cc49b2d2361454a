package authority

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/elo"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/notifier"
	"github.com/mauv0809/lobbybot/internal/protocol"
	"github.com/mauv0809/lobbybot/internal/pubsub"
	"github.com/mauv0809/lobbybot/internal/reports"
	"github.com/mauv0809/lobbybot/internal/transport"
)

// Config identifies the rating authority and the gateway it trusts to
// forward reports on behalf of clients.
type Config struct {
	Identity string
	Nick     string
	Gateway  string
	// DryRun logs operator announcements instead of posting them.
	DryRun bool
}

// Deps are the collaborators of the authority.
type Deps struct {
	Sender      transport.Sender
	Reports     *reports.Aggregator
	Leaderboard *leaderboard.Service
	Notifier    notifier.Notifier
	PubSub      pubsub.PubSubClient
	Counters    metrics.MetricsStore
	Metrics     metrics.Metrics
}

// Authority is the lobby's rating bot. It reconciles match reports, rates
// finished 1v1 matches and answers leaderboard and profile queries.
//
// All state is owned by the goroutine calling HandleEnvelope.
type Authority struct {
	cfg Config
	Deps
	roster map[string]string
}

func New(cfg Config, deps Deps) *Authority {
	return &Authority{
		cfg:    cfg,
		Deps:   deps,
		roster: make(map[string]string),
	}
}

// Run handles traffic for ep until ctx is cancelled or ep leaves the room.
func (a *Authority) Run(ctx context.Context, ep *transport.Endpoint) error {
	log.Info("Rating authority started", "identity", a.cfg.Identity, "gateway", a.cfg.Gateway)
	return ep.Serve(ctx, func(env transport.Envelope) {
		a.HandleEnvelope(ctx, env)
	})
}

// HandleEnvelope processes one envelope. Failures are logged, never returned.
func (a *Authority) HandleEnvelope(ctx context.Context, env transport.Envelope) {
	if env.From == a.cfg.Identity {
		return
	}
	if env.Type == transport.TypePresence {
		a.handlePresence(env)
		return
	}

	msg, err := protocol.Decode(env)
	if err != nil {
		log.Warn("Dropped invalid message", "from", env.From, "family", env.Family, "type", env.Type, "error", err)
		return
	}

	switch m := msg.(type) {
	case protocol.PlayerOnline:
		a.handlePlayerOnline(ctx, env.From, m)
	case protocol.BoardRequest:
		a.handleBoardRequest(ctx, env.From, m)
	case protocol.GameReport:
		a.handleGameReport(ctx, env.From, m)
	case protocol.ProfileRequest:
		a.handleProfileRequest(ctx, env.From, m)
	default:
		log.Debug("Ignoring message", "from", env.From, "family", msg.Family(), "type", env.Type)
	}
}

func (a *Authority) handlePresence(env transport.Envelope) {
	p, ok := transport.ParsePresence(env)
	if !ok {
		return
	}
	if p.Online {
		a.roster[env.From] = p.Nick
	} else {
		delete(a.roster, env.From)
	}
}

func (a *Authority) handlePlayerOnline(ctx context.Context, from string, m protocol.PlayerOnline) {
	if from != a.cfg.Gateway && from != m.Online {
		log.Warn("Ignoring player announcement", "from", from, "player", m.Online)
		return
	}
	if _, err := a.Leaderboard.GetOrCreatePlayer(ctx, m.Online); err != nil {
		log.Error("Failed to register player", "player", m.Online, "error", err)
	}
}

func (a *Authority) handleBoardRequest(ctx context.Context, from string, req protocol.BoardRequest) {
	switch req.Command {
	case protocol.CommandGetLeaderboard:
		if req.Recipient != "" {
			if _, err := a.Leaderboard.GetOrCreatePlayer(ctx, req.Recipient); err != nil {
				log.Error("Failed to register player", "player", req.Recipient, "error", err)
			}
		}
		a.sendLeaderboard(ctx, from, req.Recipient)
	case protocol.CommandGetRatingList:
		a.sendRatingList(ctx, from)
	}
}

func (a *Authority) sendLeaderboard(ctx context.Context, to, recipient string) {
	players, err := a.Leaderboard.GetBoard(ctx)
	if err != nil {
		log.Error("Failed to load leaderboard", "error", err)
		return
	}
	board := protocol.BoardList{
		Command:   protocol.CommandBoardList,
		Recipient: recipient,
		Items:     make([]protocol.BoardItem, 0, len(players)),
	}
	for _, p := range players {
		board.Items = append(board.Items, protocol.BoardItem{
			Name:   leaderboard.DisplayName(p.Identity),
			Rating: strconv.Itoa(p.Rating),
		})
	}
	a.send(to, transport.TypeResult, board)
}

func (a *Authority) sendRatingList(ctx context.Context, to string) {
	online := make(map[string]string, len(a.roster))
	for identity, nick := range a.roster {
		if identity != a.cfg.Gateway {
			online[identity] = nick
		}
	}
	entries, err := a.Leaderboard.GetRatingList(ctx, online)
	if err != nil {
		log.Error("Failed to load rating list", "error", err)
		return
	}
	list := protocol.BoardList{
		Command: protocol.CommandRatingList,
		Items:   make([]protocol.BoardItem, 0, len(entries)),
	}
	for _, e := range entries {
		rating := ""
		if e.Rating != elo.Unrated {
			rating = strconv.Itoa(e.Rating)
		}
		list.Items = append(list.Items, protocol.BoardItem{Name: e.Nick, Rating: rating})
	}
	a.send(to, transport.TypeResult, list)
}

// handleGameReport feeds one player's report to the aggregator and records
// every match it completes. The gateway forwards reports on behalf of
// clients, so only its claim about the sender is trusted.
func (a *Authority) handleGameReport(ctx context.Context, from string, report protocol.GameReport) {
	participant := from
	if from == a.cfg.Gateway && report.Sender != "" {
		participant = report.Sender
	}

	completed, err := a.Reports.Submit(participant, report.Game)
	if err != nil {
		log.Warn("Rejected game report", "participant", participant, "error", err)
		return
	}
	for _, c := range completed {
		a.Counters.Increment(metrics.KeyReportsCompleted)
		a.recordMatch(ctx, from, c)
	}
}

func (a *Authority) recordMatch(ctx context.Context, from string, report reports.CanonicalReport) {
	result, err := a.Leaderboard.AddAndRateMatch(ctx, report)
	if errors.Is(err, leaderboard.ErrMatchInProgress) {
		log.Info("Discarded report of a match in progress", "players", report.Players)
		return
	}
	if err != nil {
		log.Error("Failed to record match", "players", report.Players, "error", err)
		return
	}

	a.Counters.Increment(metrics.KeyMatchesRecorded)
	if err := a.PubSub.SendMessage(pubsub.EventMatchRecorded, pubsub.NewRecordedMatchEvent(result)); err != nil {
		log.Error("Failed to publish recorded match", "id", result.Match.ID, "error", err)
	}
	if !result.Rated() {
		return
	}

	a.Counters.Increment(metrics.KeyMatchesRated)
	a.send("", transport.TypeChat, protocol.Chat{Body: result.Announcement()})
	a.sendRatingList(ctx, from)

	if err := a.PubSub.SendMessage(pubsub.EventMatchRated, pubsub.NewRatedMatchEvent(result)); err != nil {
		log.Error("Failed to publish rated match", "id", result.Match.ID, "error", err)
	}
	if err := a.Notifier.AnnounceRatedMatch(ctx, result, a.cfg.DryRun); err != nil {
		log.Error("Failed to announce rated match", "id", result.Match.ID, "error", err)
	}
}

func (a *Authority) handleProfileRequest(ctx context.Context, from string, req protocol.ProfileRequest) {
	nick := req.Command
	identity := a.resolve(nick, req.Recipient, from)

	profile := protocol.Profile{Command: nick, Recipient: req.Recipient}
	stats, err := a.Leaderboard.GetProfile(ctx, identity)
	switch {
	case err == nil:
		profile.Items = []protocol.ProfileItem{{
			Player:           nick,
			Rating:           strconv.Itoa(stats.Rating),
			HighestRating:    strconv.Itoa(stats.HighestRating),
			Rank:             strconv.Itoa(stats.Rank),
			TotalGamesPlayed: strconv.Itoa(stats.TotalMatches),
			Wins:             strconv.Itoa(stats.Wins),
			Losses:           strconv.Itoa(stats.Losses),
		}}
	case leaderboard.IsNotFound(err):
		profile.Items = []protocol.ProfileItem{{Player: nick, Rating: protocol.UnknownPlayerRating}}
	default:
		log.Error("Failed to load profile", "player", identity, "error", err)
		profile.Items = []protocol.ProfileItem{{Player: nick, Rating: protocol.UnknownPlayerRating}}
	}
	a.send(from, transport.TypeResult, profile)
}

// resolve maps a nick to an identity: an online player's identity if one
// uses that nick, otherwise the nick on the requester's domain.
func (a *Authority) resolve(nick, recipient, from string) string {
	for identity, n := range a.roster {
		if n == nick {
			return identity
		}
	}
	ref := recipient
	if ref == "" {
		ref = from
	}
	if i := strings.LastIndex(ref, "@"); i >= 0 {
		return nick + ref[i:]
	}
	return nick
}

func (a *Authority) send(to string, typ transport.StanzaType, msg protocol.Message) {
	env, err := protocol.Encode(to, typ, msg)
	if err != nil {
		log.Error("Failed to encode message", "family", msg.Family(), "error", err)
		return
	}
	if err := a.Sender.Send(env); err != nil {
		a.Metrics.IncSendFailures()
		log.Error("Failed to send", "to", to, "family", msg.Family(), "error", err)
	}
}
