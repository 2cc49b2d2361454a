package http

import (
	"net/http"

	"github.com/mauv0809/lobbybot/internal/config"
	"github.com/mauv0809/lobbybot/internal/games"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/notifier"
	"github.com/mauv0809/lobbybot/internal/transport"
)

type Server struct {
	Hub            *transport.Hub
	Games          *games.Directory
	Leaderboard    *leaderboard.Service
	Counters       metrics.MetricsStore
	MetricsHandler http.Handler
	Notifier       notifier.Notifier
	Cfg            config.Config
	Router         *http.ServeMux
}
