package handlers

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/games"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/transport"
)

// GameView is the JSON shape of an open game.
type GameView struct {
	Host        string            `json:"host"`
	Players     []string          `json:"players"`
	NumPlayers  int               `json:"nbp"`
	PlayersInit []string          `json:"playersInit"`
	NumInit     int               `json:"nbpInit"`
	State       games.State       `json:"state"`
	StartTime   *time.Time        `json:"startTime,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// PlayerView is the JSON shape of a leaderboard row.
type PlayerView struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Identity string `json:"identity"`
	Rating   int    `json:"rating"`
	Highest  int    `json:"highestRating"`
	Matches  int    `json:"ratedMatches"`
}

// ProfileView is the JSON shape of a player profile.
type ProfileView struct {
	Name          string `json:"name"`
	Identity      string `json:"identity"`
	Rating        int    `json:"rating"`
	HighestRating int    `json:"highestRating"`
	Rank          int    `json:"rank"`
	TotalMatches  int    `json:"totalGamesPlayed"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
}

func ListGamesHandler(dir *games.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := dir.GetAll()
		views := make([]GameView, 0, len(sessions))
		for _, s := range sessions {
			v := GameView{
				Host:        s.Host,
				Players:     s.Players,
				NumPlayers:  s.NumPlayers,
				PlayersInit: s.PlayersInit,
				NumInit:     s.NumInit,
				State:       s.State,
				Attributes:  s.Attributes,
			}
			if !s.StartTime.IsZero() {
				start := s.StartTime
				v.StartTime = &start
			}
			views = append(views, v)
		}
		writeJSON(w, views)
	}
}

func ListMembersHandler(hub *transport.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.Members())
	}
}

func LeaderboardHandler(board *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := board.GetBoard(r.Context())
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}
		views := make([]PlayerView, 0, len(players))
		for i, p := range players {
			views = append(views, PlayerView{
				Rank:     i + 1,
				Name:     leaderboard.DisplayName(p.Identity),
				Identity: p.Identity,
				Rating:   p.Rating,
				Highest:  p.HighestRating,
				Matches:  p.RatedMatches,
			})
		}
		writeJSON(w, views)
	}
}

func ProfileHandler(board *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := r.URL.Query().Get("name")
		if identity == "" {
			http.Error(w, "Query parameter 'name' is required.", http.StatusBadRequest)
			return
		}
		p, err := board.GetProfile(r.Context(), identity)
		if leaderboard.IsNotFound(err) {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to get profile", http.StatusInternalServerError)
			log.Error("Failed to get profile from store", "player", identity, "error", err)
			return
		}
		writeJSON(w, ProfileView{
			Name:          leaderboard.DisplayName(p.Identity),
			Identity:      p.Identity,
			Rating:        p.Rating,
			HighestRating: p.HighestRating,
			Rank:          p.Rank,
			TotalMatches:  p.TotalMatches,
			Wins:          p.Wins,
			Losses:        p.Losses,
		})
	}
}

func StatsHandler(counters metrics.MetricsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := counters.GetAll()
		if err != nil {
			http.Error(w, "Failed to get counters", http.StatusInternalServerError)
			log.Error("Failed to get counters from store", "error", err)
			return
		}
		writeJSON(w, all)
	}
}
