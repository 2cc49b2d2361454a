package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/notifier"
	"github.com/slack-go/slack"
)

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg any) {
	slackMsg, ok := msg.(slack.Message)
	if !ok {
		http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
		log.Error("Failed to cast message to slack.Message")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(slackMsg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

func LeaderboardCommandHandler(board *leaderboard.Service, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := board.GetBoard(r.Context())
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}

		msg, err := notifier.FormatLeaderboardResponse(players)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}

// ProfileCommandHandler answers the /profile slash command. The text is a
// full identity or a nick, which is tried on the lobby domain.
func ProfileCommandHandler(board *leaderboard.Service, notifier notifier.Notifier, domain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		query := strings.TrimSpace(r.FormValue("text"))
		if query == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}
		identity := query
		if !strings.Contains(identity, "@") {
			identity += "@" + domain
		}

		log.Info("Received profile command", "player", identity)
		profile, err := board.GetProfile(r.Context(), identity)
		var msg any
		switch {
		case err == nil:
			msg, err = notifier.FormatProfileResponse(profile)
		case leaderboard.IsNotFound(err):
			log.Warn("Could not find player", "player", identity)
			msg, err = notifier.FormatPlayerNotFoundResponse(query)
		}
		if err != nil {
			http.Error(w, "Failed to format profile", http.StatusInternalServerError)
			log.Error("Failed to format profile", "player", identity, "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}

// AnnounceLeaderboardHandler posts the current leaderboard to the ops channel.
func AnnounceLeaderboardHandler(board *leaderboard.Service, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		players, err := board.GetBoard(r.Context())
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}
		if err := notifier.SendLeaderboard(r.Context(), players, IsDryRunFromContext(r)); err != nil {
			http.Error(w, "Failed to announce leaderboard", http.StatusInternalServerError)
			log.Error("Failed to announce leaderboard", "error", err)
			return
		}
		w.Write([]byte("OK"))
	}
}
