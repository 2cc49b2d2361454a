package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/lobbybot/internal/database"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/reports"
	"github.com/prometheus/client_golang/prometheus"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":           "lobby.db",
		"LOBBY_DOMAIN":      "lobby.local",
		"TURSO_PRIMARY_URL": "",
		"TURSO_AUTH_TOKEN":  "",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

var (
	maps  = []string{"Arcadia", "Mainland", "Alpine Lakes", "Nomad", "Sahel"}
	civs  = []string{"athen", "brit", "cart", "gaul", "iber", "mace", "maur", "pers", "ptol", "rome", "sele", "spart"}
	nicks = []string{"Aelius", "Brennus", "Cassia", "Darius", "Eumenes", "Flavia", "Gisco", "Hanno"}
)

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()
	log.Info("Successfully connected to the database.")

	const numMatches = 500

	m := metrics.NewService(prometheus.NewRegistry())
	board := leaderboard.New(leaderboard.NewStore(db), m)
	agg := reports.New(reports.DefaultCapacity, m)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	players := make([]string, len(nicks))
	for i, nick := range nicks {
		players[i] = nick + "@" + cfg["LOBBY_DOMAIN"]
		if _, err := board.GetOrCreatePlayer(ctx, players[i]); err != nil {
			log.Fatalf("Failed to create player %s: %s", players[i], err)
		}
	}
	log.Info("Ensured seed players exist.", "count", len(players))

	log.Info("Preparing to play seed matches...", "total", numMatches)
	startTime := time.Now()
	rated := 0
	for i := 0; i < numMatches; i++ {
		first, second := pickPair(rng, len(players))
		fragment := randomFragment(rng)

		// Both participants report the same match, each from its own position.
		var completed []reports.CanonicalReport
		for ordinal, player := range []string{players[first], players[second]} {
			raw := make(map[string]string, len(fragment)+1)
			for k, v := range fragment {
				raw[k] = v
			}
			raw["playerID"] = strconv.Itoa(ordinal + 1)
			done, err := agg.Submit(player, raw)
			if err != nil {
				log.Fatalf("Failed to submit seed report: %s", err)
			}
			completed = append(completed, done...)
		}

		for _, report := range completed {
			res, err := board.AddAndRateMatch(ctx, report)
			if err != nil {
				log.Fatalf("Failed to record seed match: %s", err)
			}
			if res.Rated() {
				rated++
			}
		}
		if (i+1)%100 == 0 {
			log.Info("Progress", "matches", i+1)
		}
	}

	duration := time.Since(startTime)
	log.Info("Seeding complete.", "matches", numMatches, "rated", rated, "duration", duration)

	top, err := board.GetBoard(ctx)
	if err != nil {
		log.Fatalf("Failed to read leaderboard: %s", err)
	}
	for i, p := range top {
		fmt.Printf("%2d. %-10s %d\n", i+1, leaderboard.DisplayName(p.Identity), p.Rating)
	}
}

func pickPair(rng *rand.Rand, n int) (int, int) {
	first := rng.Intn(n)
	second := rng.Intn(n - 1)
	if second >= first {
		second++
	}
	return first, second
}

func randomFragment(rng *rand.Rand) map[string]string {
	states := []string{"won", "defeated"}
	if rng.Intn(2) == 0 {
		states[0], states[1] = states[1], states[0]
	}
	return map[string]string{
		"matchID":      uuid.NewString(),
		"mapName":      maps[rng.Intn(len(maps))],
		"timeElapsed":  strconv.Itoa(600000 + rng.Intn(3000000)),
		"teamsLocked":  "true",
		"playerStates": strings.Join(states, ",") + ",",
		"civs":         civs[rng.Intn(len(civs))] + "," + civs[rng.Intn(len(civs))] + ",",
		"totalScore":   strconv.Itoa(rng.Intn(10000)) + "," + strconv.Itoa(rng.Intn(10000)) + ",",
	}
}
