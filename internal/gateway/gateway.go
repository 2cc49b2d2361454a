package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/games"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/protocol"
	"github.com/mauv0809/lobbybot/internal/transport"
)

// Gateway is the lobby's administrative bot. It keeps the game list, relays
// reports and leaderboard queries between clients and the rating authority,
// and routes the authority's answers back to whoever asked.
//
// All state is owned by the goroutine calling HandleEnvelope.
type Gateway struct {
	cfg     Config
	sender  transport.Sender
	games   *games.Directory
	metrics metrics.Metrics

	roster map[string]string
	warned bool
}

func New(cfg Config, sender transport.Sender, dir *games.Directory, m metrics.Metrics) *Gateway {
	return &Gateway{
		cfg:     cfg,
		sender:  sender,
		games:   dir,
		metrics: m,
		roster:  make(map[string]string),
	}
}

// Run handles traffic for ep until ctx is cancelled or ep leaves the room.
func (g *Gateway) Run(ctx context.Context, ep *transport.Endpoint) error {
	log.Info("Gateway started", "identity", g.cfg.Identity, "authority", g.cfg.Authority)
	return ep.Serve(ctx, g.HandleEnvelope)
}

// HandleEnvelope processes one envelope. Failures are logged and never
// returned; one bad client must not stop the lobby.
func (g *Gateway) HandleEnvelope(env transport.Envelope) {
	if env.From == g.cfg.Identity {
		return
	}
	if env.Type == transport.TypePresence {
		g.handlePresence(env)
		return
	}

	msg, err := protocol.Decode(env)
	if err != nil {
		g.metrics.IncRelaysDropped(dropInvalid)
		log.Warn("Dropped invalid message", "from", env.From, "family", env.Family, "type", env.Type, "error", err)
		return
	}

	switch m := msg.(type) {
	case protocol.GameCommand:
		g.handleGameCommand(env.From, m)
	case protocol.BoardRequest:
		err = g.relayBoardRequest(env.From, m)
	case protocol.BoardList:
		err = g.relayBoardList(env.From, m)
	case protocol.GameReport:
		err = g.relayGameReport(env.From, m)
	case protocol.ProfileRequest:
		err = g.relayProfileRequest(env.From, m)
	case protocol.Profile:
		err = g.relayProfile(env.From, m)
	case protocol.Chat:
		g.handleChat(env.From, m)
	default:
		log.Debug("Ignoring message", "from", env.From, "family", msg.Family(), "type", env.Type)
	}
	switch {
	case err == nil, errors.Is(err, ErrAuthorityUnavailable):
		// Offline drops were already reported once by requireAuthority.
	default:
		log.Error("Failed to relay message", "from", env.From, "family", env.Family, "error", err)
	}
}

func (g *Gateway) handlePresence(env transport.Envelope) {
	p, ok := transport.ParsePresence(env)
	if !ok {
		log.Warn("Malformed presence", "from", env.From)
		return
	}
	if p.Online {
		g.handleJoin(env.From, p.Nick)
		return
	}
	g.handleLeave(env.From, p.Nick)
}

func (g *Gateway) handleJoin(identity, nick string) {
	if identity == g.cfg.Authority {
		g.warned = false
	}
	g.roster[identity] = nick
	log.Debug("Client connected", "identity", identity, "nick", nick)

	if identity == g.cfg.Authority {
		return
	}
	if g.authorityOnline() {
		for _, req := range []struct {
			typ transport.StanzaType
			msg protocol.Message
		}{
			{transport.TypeSet, protocol.PlayerOnline{Online: identity}},
			{transport.TypeGet, protocol.BoardRequest{Command: protocol.CommandGetRatingList}},
		} {
			if err := g.sendToAuthority(req.typ, req.msg); err != nil {
				log.Error("Failed to notify rating authority", "player", identity, "error", err)
			}
		}
	}
	g.sendGameList(identity)
}

func (g *Gateway) handleLeave(identity, nick string) {
	delete(g.roster, identity)
	if _, ok := g.games.Get(identity); ok {
		if err := g.games.Remove(identity); err == nil {
			g.metrics.SetOpenGames(g.games.Len())
			g.broadcastGameList()
		}
	}
	if identity == g.cfg.Authority {
		g.warned = false
	}
	log.Debug("Client disconnected", "identity", identity, "nick", nick)
}

func (g *Gateway) handleGameCommand(from string, cmd protocol.GameCommand) {
	var err error
	switch cmd.Command {
	case protocol.CommandRegister:
		err = g.games.Add(from, snapshot(cmd.Game))
	case protocol.CommandUnregister:
		err = g.games.Remove(from)
	case protocol.CommandChangeState:
		err = g.games.ChangeState(from, snapshot(cmd.Game))
	}
	if err != nil {
		log.Warn("Failed to process game command", "from", from, "command", cmd.Command, "error", err)
		return
	}
	g.metrics.SetOpenGames(g.games.Len())
	g.broadcastGameList()
}

func snapshot(s *protocol.GameSnapshot) games.Snapshot {
	return games.Snapshot{Players: s.Players, NumPlayers: s.NumPlayers, Attributes: s.Attributes}
}

func (g *Gateway) relayBoardRequest(from string, req protocol.BoardRequest) error {
	if from == g.cfg.Authority {
		return nil
	}
	relayed := protocol.BoardRequest{Command: req.Command}
	if req.Command == protocol.CommandGetLeaderboard {
		relayed.Recipient = from
	}
	return g.requireAuthority(transport.TypeGet, relayed)
}

func (g *Gateway) relayGameReport(from string, report protocol.GameReport) error {
	if from == g.cfg.Authority {
		return nil
	}
	return g.requireAuthority(transport.TypeSet, protocol.GameReport{Sender: from, Game: report.Game})
}

func (g *Gateway) relayProfileRequest(from string, req protocol.ProfileRequest) error {
	if from == g.cfg.Authority {
		return nil
	}
	return g.requireAuthority(transport.TypeGet, protocol.ProfileRequest{Command: req.Command, Recipient: from})
}

// relayBoardList forwards the authority's board. Without a recipient it is
// a rating list for everyone in the room.
func (g *Gateway) relayBoardList(from string, list protocol.BoardList) error {
	if !g.fromAuthority(from) {
		return nil
	}
	if list.Recipient == "" {
		g.broadcast(transport.TypeResult, list)
		return nil
	}
	return g.sendTo(list.Recipient, transport.TypeResult, list)
}

func (g *Gateway) relayProfile(from string, profile protocol.Profile) error {
	if !g.fromAuthority(from) {
		return nil
	}
	if profile.Recipient == "" {
		g.metrics.IncRelaysDropped(dropUnknownTarget)
		return fmt.Errorf("profile of %s without recipient: %w", profile.Command, ErrUnknownTarget)
	}
	return g.sendTo(profile.Recipient, transport.TypeResult, profile)
}

func (g *Gateway) handleChat(from string, chat protocol.Chat) {
	if g.cfg.Nick == "" || !strings.Contains(strings.ToLower(chat.Body), strings.ToLower(g.cfg.Nick)) {
		return
	}
	env, err := protocol.Encode("", transport.TypeChat, protocol.Chat{Body: MentionReply})
	if err != nil {
		log.Error("Failed to encode reply", "error", err)
		return
	}
	g.send(env)
}

func (g *Gateway) fromAuthority(from string) bool {
	if from != g.cfg.Authority || from == "" {
		log.Warn("Ignoring result not sent by the rating authority", "from", from)
		return false
	}
	return true
}

func (g *Gateway) authorityOnline() bool {
	if g.cfg.Authority == "" {
		return false
	}
	_, ok := g.roster[g.cfg.Authority]
	return ok
}

// requireAuthority sends msg to the authority, or drops it and warns once
// while the authority is away. A drop returns ErrAuthorityUnavailable.
func (g *Gateway) requireAuthority(typ transport.StanzaType, msg protocol.Message) error {
	if !g.authorityOnline() {
		g.metrics.IncRelaysDropped(dropAuthorityOffline)
		if !g.warned {
			log.Warn("Rating authority is offline", "authority", g.cfg.Authority)
			g.warned = true
		}
		return fmt.Errorf("%s: %w", msg.Family(), ErrAuthorityUnavailable)
	}
	return g.sendToAuthority(typ, msg)
}

func (g *Gateway) sendToAuthority(typ transport.StanzaType, msg protocol.Message) error {
	return g.sendTo(g.cfg.Authority, typ, msg)
}

func (g *Gateway) sendTo(to string, typ transport.StanzaType, msg protocol.Message) error {
	if _, ok := g.roster[to]; !ok {
		g.metrics.IncRelaysDropped(dropUnknownTarget)
		return fmt.Errorf("%s %s: %w", msg.Family(), to, ErrUnknownTarget)
	}
	env, err := protocol.Encode(to, typ, msg)
	if err != nil {
		return err
	}
	if !g.send(env) {
		return fmt.Errorf("%s %s: %w", msg.Family(), to, transport.ErrNotConnected)
	}
	return nil
}

func (g *Gateway) broadcast(typ transport.StanzaType, msg protocol.Message) {
	env, err := protocol.Encode("", typ, msg)
	if err != nil {
		log.Error("Failed to encode broadcast", "family", msg.Family(), "error", err)
		return
	}
	for identity := range g.roster {
		if identity == g.cfg.Authority {
			continue
		}
		env.To = identity
		g.send(env)
	}
}

func (g *Gateway) send(env transport.Envelope) bool {
	if err := g.sender.Send(env); err != nil {
		g.metrics.IncSendFailures()
		if !errors.Is(err, transport.ErrNotConnected) {
			log.Error("Failed to send", "to", env.To, "family", env.Family, "error", err)
		} else {
			log.Warn("Recipient left before delivery", "to", env.To, "family", env.Family)
		}
		return false
	}
	return true
}

func (g *Gateway) gameList() protocol.GameList {
	sessions := g.games.GetAll()
	list := protocol.GameList{Games: make([]protocol.GameListing, 0, len(sessions))}
	for _, s := range sessions {
		listing := protocol.GameListing{
			Host:        s.Host,
			Players:     s.Players,
			NumPlayers:  s.NumPlayers,
			PlayersInit: s.PlayersInit,
			NumInit:     s.NumInit,
			State:       string(s.State),
			Attributes:  s.Attributes,
		}
		if !s.StartTime.IsZero() {
			listing.StartTime = s.StartTime.Unix()
		}
		list.Games = append(list.Games, listing)
	}
	return list
}

func (g *Gateway) sendGameList(to string) {
	if err := g.sendTo(to, transport.TypeResult, g.gameList()); err != nil {
		log.Error("Failed to send game list", "to", to, "error", err)
	}
}

func (g *Gateway) broadcastGameList() {
	g.broadcast(transport.TypeResult, g.gameList())
}
