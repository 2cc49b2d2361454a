package http

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/config"
	"github.com/mauv0809/lobbybot/internal/games"
	"github.com/mauv0809/lobbybot/internal/http/handlers"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/notifier"
	"github.com/mauv0809/lobbybot/internal/transport"
)

func NewServer(hub *transport.Hub, dir *games.Directory, board *leaderboard.Service, counters metrics.MetricsStore, metricsHandler http.Handler, notifier notifier.Notifier, cfg config.Config) *Server {
	server := &Server{
		Hub:            hub,
		Games:          dir,
		Leaderboard:    board,
		Counters:       counters,
		MetricsHandler: metricsHandler,
		Notifier:       notifier,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(handler, paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/ws", http.HandlerFunc(s.Hub.ServeWS))
	s.Router.Handle("/health", Chain(handlers.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/members", Chain(handlers.ListMembersHandler(s.Hub), paramsMiddleware))
	s.Router.Handle("/games", Chain(handlers.ListGamesHandler(s.Games), paramsMiddleware))
	s.Router.Handle("/leaderboard", Chain(handlers.LeaderboardHandler(s.Leaderboard), paramsMiddleware))
	s.Router.Handle("/leaderboard/announce", Chain(handlers.AnnounceLeaderboardHandler(s.Leaderboard, s.Notifier), paramsMiddleware))
	s.Router.Handle("/profile", Chain(handlers.ProfileHandler(s.Leaderboard), paramsMiddleware))
	s.Router.Handle("/stats", Chain(handlers.StatsHandler(s.Counters), paramsMiddleware))

	// Slash commands can't be authenticated without a signing secret.
	if s.Cfg.Slack.SigningSecret == "" {
		log.Info("SLACK_SIGNING_SECRET is not set, Slack commands are disabled")
		return
	}
	slackAuth := slackVerifyMiddleware(s.Cfg.Slack.SigningSecret)
	s.Router.Handle("/slack/command/leaderboard", Chain(handlers.LeaderboardCommandHandler(s.Leaderboard, s.Notifier), paramsMiddleware, slackAuth))
	s.Router.Handle("/slack/command/profile", Chain(handlers.ProfileCommandHandler(s.Leaderboard, s.Notifier, s.Cfg.Domain), paramsMiddleware, slackAuth))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
