package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type store struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*store)(nil)

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

const playerColumns = `identity, rating, COALESCE(highest_rating, -1), rated_matches, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (Player, error) {
	var p Player
	var created int64
	if err := row.Scan(&p.Identity, &p.Rating, &p.HighestRating, &p.RatedMatches, &created); err != nil {
		return Player{}, err
	}
	p.CreatedAt = time.Unix(created, 0)
	return p, nil
}

func (s *store) GetPlayer(ctx context.Context, identity string) (Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE identity = ?`, identity)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("%s: %w", identity, ErrPlayerNotFound)
	}
	if err != nil {
		return Player{}, fmt.Errorf("failed to get player %s: %w", identity, err)
	}
	return p, nil
}

func (s *store) GetOrCreatePlayer(ctx context.Context, identity string) (Player, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO players (identity, created_at) VALUES (?, ?)
		ON CONFLICT(identity) DO NOTHING`, identity, s.now().Unix())
	if err != nil {
		return Player{}, fmt.Errorf("failed to create player %s: %w", identity, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Debug("Created player", "identity", identity)
	}
	return s.GetPlayer(ctx, identity)
}

func (s *store) DeletePlayer(ctx context.Context, identity string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE identity = ?`, identity)
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", identity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", identity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", identity, ErrPlayerNotFound)
	}
	return nil
}

func (s *store) TopPlayers(ctx context.Context, limit int) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE rating != -1
		ORDER BY rating DESC, identity
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top players: %w", err)
	}
	return collectPlayers(rows)
}

func (s *store) PlayersByIdentity(ctx context.Context, identities []string) ([]Player, error) {
	if len(identities) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(identities)), ",")
	args := make([]any, len(identities))
	for i, id := range identities {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE identity IN (`+placeholders+`)
		ORDER BY identity`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	return collectPlayers(rows)
}

func collectPlayers(rows *sql.Rows) ([]Player, error) {
	defer rows.Close()
	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *store) CountRatedAtLeast(ctx context.Context, rating int) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM players WHERE rating != -1 AND rating >= ?`, rating)
}

func (s *store) CountMatches(ctx context.Context, identity string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM match_players WHERE player = ?`, identity)
}

func (s *store) CountWins(ctx context.Context, identity string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM matches WHERE winner = ?`, identity)
}

func (s *store) SaveMatch(ctx context.Context, rec MatchRecord, updates []RatingUpdate) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("Failed to roll back match", "error", rbErr, "match", rec.ID)
			}
		}
	}()

	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	for _, p := range rec.Participants {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO players (identity, created_at) VALUES (?, ?)
			ON CONFLICT(identity) DO NOTHING`, p.Identity, created.Unix()); err != nil {
			return fmt.Errorf("failed to create participant %s: %w", p.Identity, err)
		}
	}

	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("failed to encode match details: %w", err)
	}
	var winner sql.NullString
	if rec.Winner != "" {
		winner = sql.NullString{String: rec.Winner, Valid: true}
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO matches (id, match_id, map_name, duration, teams_locked, winner, rated, details_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.MatchID, rec.MapName, rec.Duration, rec.TeamsLocked, winner, rec.Rated, string(details), created.Unix(),
	); err != nil {
		return fmt.Errorf("failed to insert match %s: %w", rec.ID, err)
	}

	for _, p := range rec.Participants {
		stats, mErr := json.Marshal(p.Stats)
		if mErr != nil {
			err = fmt.Errorf("failed to encode stats for %s: %w", p.Identity, mErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO match_players (match_id, player, position, state, civ, stats_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, p.Identity, p.Position, p.State, p.Civ, string(stats),
		); err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", p.Identity, err)
		}
	}

	for _, u := range updates {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE players SET rating = ?, highest_rating = ?, rated_matches = rated_matches + 1
			WHERE identity = ?`, u.After, u.HighestRating, u.Identity)
		if err != nil {
			return fmt.Errorf("failed to update rating of %s: %w", u.Identity, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			err = fmt.Errorf("update rating of %s: %w", u.Identity, ErrPlayerNotFound)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match %s: %w", rec.ID, err)
	}
	return nil
}
