package gateway_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/games"
	"github.com/mauv0809/lobbybot/internal/gateway"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/protocol"
	"github.com/mauv0809/lobbybot/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bot       = "wfgbot@lobby.test"
	authority = "ratings@lobby.test"
	alice     = "alice@lobby.test"
	bob       = "bob@lobby.test"
)

type fixture struct {
	gw      *gateway.Gateway
	sent    *transport.Recorder
	games   *games.Directory
	metrics *metrics.Mock
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sent:    transport.NewRecorder(),
		games:   games.NewDirectory(),
		metrics: metrics.NewMock(),
	}
	f.gw = gateway.New(gateway.Config{Identity: bot, Nick: "WFGbot", Authority: authority}, f.sent, f.games, f.metrics)
	return f
}

func presence(identity, nick string, online bool) transport.Envelope {
	payload, _ := json.Marshal(transport.Presence{Nick: nick, Online: online})
	return transport.Envelope{From: identity, Type: transport.TypePresence, Payload: payload}
}

func message(t *testing.T, from string, typ transport.StanzaType, msg protocol.Message) transport.Envelope {
	t.Helper()
	env, err := protocol.Encode(bot, typ, msg)
	require.NoError(t, err)
	env.From = from
	return env
}

func decode[T protocol.Message](t *testing.T, env transport.Envelope) T {
	t.Helper()
	msg, err := protocol.Decode(env)
	require.NoError(t, err)
	out, ok := msg.(T)
	require.True(t, ok, "unexpected message %T", msg)
	return out
}

func nbp(n int) *int { return &n }

func (f *fixture) join(identity, nick string) {
	f.gw.HandleEnvelope(presence(identity, nick, true))
}

func TestJoin_SendsGameList(t *testing.T) {
	f := setup(t)
	f.join(alice, "alice")

	sent := f.sent.To(alice)
	require.Len(t, sent, 1)
	list := decode[protocol.GameList](t, sent[0])
	assert.Empty(t, list.Games)
	assert.Empty(t, f.sent.To(authority), "authority is offline")
}

func TestJoin_NotifiesAuthority(t *testing.T) {
	f := setup(t)
	f.join(authority, "Ratings")
	assert.Empty(t, f.sent.Sent, "the authority gets no game list")

	f.join(alice, "alice")
	toAuthority := f.sent.To(authority)
	require.Len(t, toAuthority, 2)
	assert.Equal(t, protocol.PlayerOnline{Online: alice}, decode[protocol.PlayerOnline](t, toAuthority[0]))
	assert.Equal(t, protocol.BoardRequest{Command: protocol.CommandGetRatingList}, decode[protocol.BoardRequest](t, toAuthority[1]))
}

func TestGameLifecycle(t *testing.T) {
	f := setup(t)
	f.join(alice, "alice")
	f.join(bob, "bob")
	f.sent.Reset()

	f.gw.HandleEnvelope(message(t, alice, transport.TypeSet, protocol.GameCommand{
		Command: protocol.CommandRegister,
		Game:    &protocol.GameSnapshot{Players: []string{"alice"}, NumPlayers: nbp(2), Attributes: map[string]string{"name": "1v1 me"}},
	}))
	require.Len(t, f.sent.To(bob), 1, "every client gets the new list")
	list := decode[protocol.GameList](t, f.sent.To(bob)[0])
	require.Len(t, list.Games, 1)
	assert.Equal(t, alice, list.Games[0].Host)
	assert.Equal(t, "init", list.Games[0].State)
	assert.Equal(t, "1v1 me", list.Games[0].Attributes["name"])
	assert.Equal(t, 1, f.metrics.OpenGames())

	f.sent.Reset()
	f.gw.HandleEnvelope(message(t, alice, transport.TypeSet, protocol.GameCommand{
		Command: protocol.CommandChangeState,
		Game:    &protocol.GameSnapshot{Players: []string{"alice", "bob"}, NumPlayers: nbp(2)},
	}))
	list = decode[protocol.GameList](t, f.sent.To(alice)[0])
	assert.Equal(t, "running", list.Games[0].State)
	assert.NotZero(t, list.Games[0].StartTime)

	f.sent.Reset()
	f.gw.HandleEnvelope(message(t, alice, transport.TypeSet, protocol.GameCommand{Command: protocol.CommandUnregister}))
	list = decode[protocol.GameList](t, f.sent.To(bob)[0])
	assert.Empty(t, list.Games)
	assert.Equal(t, 0, f.metrics.OpenGames())
}

func TestChangeStateForUnknownGameIsIgnored(t *testing.T) {
	f := setup(t)
	f.join(alice, "alice")
	f.sent.Reset()

	f.gw.HandleEnvelope(message(t, alice, transport.TypeSet, protocol.GameCommand{
		Command: protocol.CommandChangeState,
		Game:    &protocol.GameSnapshot{Players: []string{}, NumPlayers: nbp(2)},
	}))
	assert.Empty(t, f.sent.Sent)
}

func TestLeave_RemovesHostedGame(t *testing.T) {
	f := setup(t)
	f.join(alice, "alice")
	f.join(bob, "bob")
	f.gw.HandleEnvelope(message(t, alice, transport.TypeSet, protocol.GameCommand{
		Command: protocol.CommandRegister,
		Game:    &protocol.GameSnapshot{Players: []string{"alice"}, NumPlayers: nbp(2)},
	}))
	f.sent.Reset()

	f.gw.HandleEnvelope(presence(alice, "alice", false))
	assert.Equal(t, 0, f.games.Len())
	require.Len(t, f.sent.To(bob), 1)
	assert.Empty(t, decode[protocol.GameList](t, f.sent.To(bob)[0]).Games)
	assert.Empty(t, f.sent.To(alice), "the leaver is no longer addressed")
}

func TestGameReport_RelayedWithSender(t *testing.T) {
	f := setup(t)
	f.join(authority, "Ratings")
	f.join(alice, "alice")
	f.sent.Reset()

	game := map[string]string{"playerID": "1", "playerStates": "won,defeated,"}
	f.gw.HandleEnvelope(message(t, alice, transport.TypeSet, protocol.GameReport{Sender: "mallory@lobby.test", Game: game}))

	sent := f.sent.To(authority)
	require.Len(t, sent, 1)
	report := decode[protocol.GameReport](t, sent[0])
	assert.Equal(t, alice, report.Sender, "the sender comes from the room, not the client")
	assert.Equal(t, game, report.Game)
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestAuthorityOffline_WarnsOnceAndDrops(t *testing.T) {
	const warning = "Rating authority is offline"
	out := captureLog(t)
	f := setup(t)
	f.join(alice, "alice")
	f.sent.Reset()

	report := message(t, alice, transport.TypeSet, protocol.GameReport{Game: map[string]string{"a": "b"}})
	f.gw.HandleEnvelope(report)
	f.gw.HandleEnvelope(message(t, alice, transport.TypeGet, protocol.ProfileRequest{Command: "bob"}))
	assert.Empty(t, f.sent.Sent)
	assert.Equal(t, 2, f.metrics.RelaysDropped("authority_offline"))
	assert.Equal(t, 1, strings.Count(out.String(), warning), "one warning per outage")
	assert.NotContains(t, out.String(), "Failed to relay message")

	// Once the authority is back, relays resume.
	f.join(authority, "Ratings")
	f.gw.HandleEnvelope(report)
	assert.Len(t, f.sent.To(authority), 1)

	// A new outage warns again, once.
	f.gw.HandleEnvelope(presence(authority, "Ratings", false))
	f.sent.Reset()
	f.gw.HandleEnvelope(report)
	f.gw.HandleEnvelope(report)
	assert.Empty(t, f.sent.Sent)
	assert.Equal(t, 4, f.metrics.RelaysDropped("authority_offline"))
	assert.Equal(t, 2, strings.Count(out.String(), warning))
}

func TestLeaveIsSeenAfterTrafficBurst(t *testing.T) {
	hub := transport.NewHub()
	botEP, err := hub.Join(bot, "WFGbot")
	require.NoError(t, err)
	dir := games.NewDirectory()
	gw := gateway.New(gateway.Config{Identity: bot, Nick: "WFGbot", Authority: authority}, botEP, dir, metrics.NewMock())

	host, err := hub.Join(alice, "alice")
	require.NoError(t, err)
	send := func(cmd protocol.GameCommand) {
		env, err := protocol.Encode(bot, transport.TypeSet, cmd)
		require.NoError(t, err)
		_ = host.Send(env)
	}
	send(protocol.GameCommand{
		Command: protocol.CommandRegister,
		Game:    &protocol.GameSnapshot{Players: []string{"alice"}, NumPlayers: nbp(2)},
	})
	// More changes than the gateway's buffer holds; the overflow is dropped.
	for i := 0; i < 300; i++ {
		send(protocol.GameCommand{
			Command: protocol.CommandChangeState,
			Game:    &protocol.GameSnapshot{Players: []string{"alice", "bob"}, NumPlayers: nbp(2)},
		})
	}
	host.Leave()

	for {
		select {
		case env := <-botEP.Receive():
			gw.HandleEnvelope(env)
			if p, ok := transport.ParsePresence(env); ok && env.From == alice && !p.Online {
				assert.False(t, hub.Online(alice))
				assert.Equal(t, 0, dir.Len(), "the host's game is removed when the host leaves")
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("the gateway never saw the host leave")
		}
	}
}

func TestBoardList(t *testing.T) {
	f := setup(t)
	f.join(authority, "Ratings")
	f.join(alice, "alice")
	f.join(bob, "bob")
	f.sent.Reset()

	t.Run("leaderboard request carries the requester", func(t *testing.T) {
		f.gw.HandleEnvelope(message(t, alice, transport.TypeGet, protocol.BoardRequest{Command: protocol.CommandGetLeaderboard, Recipient: bob}))
		sent := f.sent.To(authority)
		require.Len(t, sent, 1)
		assert.Equal(t, protocol.BoardRequest{Command: protocol.CommandGetLeaderboard, Recipient: alice}, decode[protocol.BoardRequest](t, sent[0]))
		f.sent.Reset()
	})

	t.Run("leaderboard goes to the recipient only", func(t *testing.T) {
		board := protocol.BoardList{Command: protocol.CommandBoardList, Recipient: alice, Items: []protocol.BoardItem{{Name: "alice", Rating: "1278"}}}
		f.gw.HandleEnvelope(message(t, authority, transport.TypeResult, board))
		require.Len(t, f.sent.Sent, 1)
		assert.Equal(t, alice, f.sent.Sent[0].To)
		assert.Equal(t, board, decode[protocol.BoardList](t, f.sent.Sent[0]))
		f.sent.Reset()
	})

	t.Run("rating list goes to every client", func(t *testing.T) {
		f.gw.HandleEnvelope(message(t, authority, transport.TypeResult, protocol.BoardList{Command: protocol.CommandRatingList}))
		assert.Len(t, f.sent.To(alice), 1)
		assert.Len(t, f.sent.To(bob), 1)
		assert.Empty(t, f.sent.To(authority))
		f.sent.Reset()
	})

	t.Run("results from clients are ignored", func(t *testing.T) {
		f.gw.HandleEnvelope(message(t, bob, transport.TypeResult, protocol.BoardList{Command: protocol.CommandRatingList}))
		assert.Empty(t, f.sent.Sent)
	})

	t.Run("unknown recipient is dropped", func(t *testing.T) {
		f.gw.HandleEnvelope(message(t, authority, transport.TypeResult, protocol.BoardList{Command: protocol.CommandBoardList, Recipient: "gone@lobby.test"}))
		assert.Empty(t, f.sent.Sent)
		assert.Equal(t, 1, f.metrics.RelaysDropped("unknown_target"))
	})
}

func TestProfile(t *testing.T) {
	f := setup(t)
	f.join(authority, "Ratings")
	f.join(alice, "alice")
	f.sent.Reset()

	f.gw.HandleEnvelope(message(t, alice, transport.TypeGet, protocol.ProfileRequest{Command: "bob"}))
	sent := f.sent.To(authority)
	require.Len(t, sent, 1)
	assert.Equal(t, protocol.ProfileRequest{Command: "bob", Recipient: alice}, decode[protocol.ProfileRequest](t, sent[0]))
	f.sent.Reset()

	profile := protocol.Profile{Command: "bob", Recipient: alice, Items: []protocol.ProfileItem{{Player: "bob", Rating: "-2"}}}
	f.gw.HandleEnvelope(message(t, authority, transport.TypeResult, profile))
	sent = f.sent.To(alice)
	require.Len(t, sent, 1)
	assert.Equal(t, profile, decode[protocol.Profile](t, sent[0]))
}

func TestMentionReply(t *testing.T) {
	f := setup(t)
	f.join(alice, "alice")
	f.sent.Reset()

	f.gw.HandleEnvelope(message(t, alice, transport.TypeChat, protocol.Chat{Body: "hey wfgbot, wanna play?"}))
	require.Len(t, f.sent.Sent, 1)
	assert.Equal(t, transport.TypeChat, f.sent.Sent[0].Type)
	assert.Empty(t, f.sent.Sent[0].To)
	assert.Equal(t, gateway.MentionReply, decode[protocol.Chat](t, f.sent.Sent[0]).Body)

	f.sent.Reset()
	f.gw.HandleEnvelope(message(t, alice, transport.TypeChat, protocol.Chat{Body: "gl hf"}))
	assert.Empty(t, f.sent.Sent)
}

func TestInvalidMessagesAreCounted(t *testing.T) {
	f := setup(t)
	f.gw.HandleEnvelope(transport.Envelope{From: alice, Type: transport.TypeSet, Family: "weather"})
	assert.Equal(t, 1, f.metrics.RelaysDropped("invalid"))
	assert.Empty(t, f.sent.Sent)
}

func TestSendFailuresAreCounted(t *testing.T) {
	f := setup(t)
	f.sent.FailFor[alice] = true
	f.join(alice, "alice")
	assert.Equal(t, 1, f.metrics.SendFailures())
}
