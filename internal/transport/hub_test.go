package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mauv0809/lobbybot/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ep *transport.Endpoint) transport.Envelope {
	t.Helper()
	select {
	case env := <-ep.Receive():
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("no envelope received by %s", ep.Identity())
		return transport.Envelope{}
	}
}

func drainPresence(t *testing.T, ep *transport.Endpoint, n int) []transport.Envelope {
	t.Helper()
	var out []transport.Envelope
	for i := 0; i < n; i++ {
		env := receive(t, ep)
		require.Equal(t, transport.TypePresence, env.Type)
		out = append(out, env)
	}
	return out
}

func TestHub_PresenceOnJoinAndLeave(t *testing.T) {
	hub := transport.NewHub()

	alice, err := hub.Join("alice@lobby.test", "alice")
	require.NoError(t, err)
	self := drainPresence(t, alice, 1)
	assert.Equal(t, "alice@lobby.test", self[0].From)

	bob, err := hub.Join("bob@lobby.test", "bob")
	require.NoError(t, err)

	// Bob learns about alice and himself.
	envs := drainPresence(t, bob, 2)
	assert.Equal(t, "alice@lobby.test", envs[0].From)
	assert.Equal(t, "bob@lobby.test", envs[1].From)

	// Alice learns about bob.
	joined := receive(t, alice)
	p, ok := transport.ParsePresence(joined)
	require.True(t, ok)
	assert.Equal(t, "bob", p.Nick)
	assert.True(t, p.Online)

	bob.Leave()
	left := receive(t, alice)
	p, ok = transport.ParsePresence(left)
	require.True(t, ok)
	assert.Equal(t, "bob@lobby.test", left.From)
	assert.False(t, p.Online)

	assert.Equal(t, []transport.Member{{Identity: "alice@lobby.test", Nick: "alice"}}, hub.Members())
	assert.ErrorIs(t, bob.Send(transport.Envelope{To: "alice@lobby.test", Type: transport.TypeSet}), transport.ErrClosed)
}

func TestHub_DuplicateIdentity(t *testing.T) {
	hub := transport.NewHub()
	_, err := hub.Join("alice@lobby.test", "alice")
	require.NoError(t, err)
	_, err = hub.Join("alice@lobby.test", "alice2")
	assert.ErrorIs(t, err, transport.ErrIdentityInUse)
}

func TestHub_Routing(t *testing.T) {
	hub := transport.NewHub()
	alice, err := hub.Join("alice@lobby.test", "alice")
	require.NoError(t, err)
	bob, err := hub.Join("bob@lobby.test", "bob")
	require.NoError(t, err)
	carol, err := hub.Join("carol@lobby.test", "carol")
	require.NoError(t, err)
	drainPresence(t, alice, 3)
	drainPresence(t, bob, 3)
	drainPresence(t, carol, 3)

	t.Run("addressed envelope reaches only the recipient with a stamped sender", func(t *testing.T) {
		err := alice.Send(transport.Envelope{From: "forged@lobby.test", To: "bob@lobby.test", Type: transport.TypeGet, Family: "profile"})
		require.NoError(t, err)
		env := receive(t, bob)
		assert.Equal(t, "alice@lobby.test", env.From)
		assert.Equal(t, "profile", env.Family)
		assert.NotEmpty(t, env.ID)
		assert.Empty(t, carol.Receive())
	})

	t.Run("room chat reaches everyone but the sender", func(t *testing.T) {
		err := alice.Send(transport.Envelope{Type: transport.TypeChat, Payload: json.RawMessage(`{"body":"hi"}`)})
		require.NoError(t, err)
		assert.Equal(t, "alice@lobby.test", receive(t, bob).From)
		assert.Equal(t, "alice@lobby.test", receive(t, carol).From)
		assert.Empty(t, alice.Receive())
	})

	t.Run("unknown recipient", func(t *testing.T) {
		err := alice.Send(transport.Envelope{To: "nobody@lobby.test", Type: transport.TypeSet})
		assert.ErrorIs(t, err, transport.ErrNotConnected)
	})

	t.Run("members cannot forge presence", func(t *testing.T) {
		err := alice.Send(transport.Envelope{To: "bob@lobby.test", Type: transport.TypePresence})
		assert.Error(t, err)
	})
}

func TestHub_ServeWS(t *testing.T) {
	hub := transport.NewHub()
	bot, err := hub.Join("bot@lobby.test", "bot")
	require.NoError(t, err)
	drainPresence(t, bot, 1)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "?" + url.Values{"identity": {"dave@lobby.test"}, "nick": {"dave"}}.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	joined := receive(t, bot)
	assert.Equal(t, "dave@lobby.test", joined.From)

	// The client sees the bot and itself.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second transport.Envelope
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "bot@lobby.test", first.From)
	assert.Equal(t, "dave@lobby.test", second.From)

	require.NoError(t, conn.WriteJSON(transport.Envelope{To: "bot@lobby.test", Type: transport.TypeGet, Family: "boardlist"}))
	env := receive(t, bot)
	assert.Equal(t, "dave@lobby.test", env.From)
	assert.Equal(t, "boardlist", env.Family)

	require.NoError(t, bot.Send(transport.Envelope{To: "dave@lobby.test", Type: transport.TypeResult, Family: "boardlist"}))
	var reply transport.Envelope
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "bot@lobby.test", reply.From)
	assert.Equal(t, transport.TypeResult, reply.Type)

	conn.Close()
	left := receive(t, bot)
	p, ok := transport.ParsePresence(left)
	require.True(t, ok)
	assert.False(t, p.Online)
}

func TestHub_ServeWS_RequiresIdentity(t *testing.T) {
	hub := transport.NewHub()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws?nick=dave", nil)
	hub.ServeWS(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEndpoint_Serve(t *testing.T) {
	hub := transport.NewHub()
	alice, err := hub.Join("alice@lobby.test", "alice")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	seen := make(chan transport.Envelope, 8)
	done := make(chan error, 1)
	go func() { done <- alice.Serve(ctx, func(env transport.Envelope) { seen <- env }) }()

	bob, err := hub.Join("bob@lobby.test", "bob")
	require.NoError(t, err)
	require.NoError(t, bob.Send(transport.Envelope{To: "alice@lobby.test", Type: transport.TypeChat, Family: "chat"}))

	var types []transport.StanzaType
	for len(types) < 3 {
		select {
		case env := <-seen:
			types = append(types, env.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("serve did not deliver")
		}
	}
	// Own presence, bob's presence, then bob's message.
	assert.Equal(t, []transport.StanzaType{transport.TypePresence, transport.TypePresence, transport.TypeChat}, types)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestEndpoint_ServeStopsOnLeave(t *testing.T) {
	hub := transport.NewHub()
	alice, err := hub.Join("alice@lobby.test", "alice")
	require.NoError(t, err)
	alice.Leave()

	err = alice.Serve(context.Background(), func(transport.Envelope) {})
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestHub_PresenceSurvivesFullBuffer(t *testing.T) {
	hub := transport.NewHubWithBuffer(4)
	alice, err := hub.Join("alice@lobby.test", "alice")
	require.NoError(t, err)
	bob, err := hub.Join("bob@lobby.test", "bob")
	require.NoError(t, err)

	var full int
	for i := 0; i < 20; i++ {
		err := bob.Send(transport.Envelope{To: "alice@lobby.test", Type: transport.TypeSet, Family: "gamelist"})
		if err != nil {
			require.ErrorIs(t, err, transport.ErrBufferFull)
			full++
		}
	}
	require.Positive(t, full, "alice's buffer never filled")
	bob.Leave()

	// Alice's own join, bob's join, the messages that fit, then bob's leave.
	drainPresence(t, alice, 2)
	for i := 0; i < 20-full; i++ {
		assert.Equal(t, transport.TypeSet, receive(t, alice).Type)
	}
	left := receive(t, alice)
	p, ok := transport.ParsePresence(left)
	require.True(t, ok, "expected bob's leave, got %s", left.Type)
	assert.Equal(t, "bob@lobby.test", left.From)
	assert.False(t, p.Online)

	// Traffic flows again once the buffer drains.
	carol, err := hub.Join("carol@lobby.test", "carol")
	require.NoError(t, err)
	receive(t, alice)
	assert.NoError(t, carol.Send(transport.Envelope{To: "alice@lobby.test", Type: transport.TypeSet, Family: "gamelist"}))
}
