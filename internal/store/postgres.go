package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

const connectTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS current_game (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	session    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	phone        TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	points       INTEGER NOT NULL DEFAULT 0,
	games_played INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL,
	last_active  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS players_last_active_idx ON players (last_active);
`

// Postgres keeps the shared session and the players in PostgreSQL.
// Every failure is reported as quiz.ErrUnavailable so viewers can degrade.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// Migrate creates the tables if they do not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return unavailable("migrate", err)
	}
	log.Info().Msg("database schema ready")
	return nil
}

func (p *Postgres) GetCurrentGame(ctx context.Context) (*quiz.GameSession, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT session FROM current_game WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get current game", err)
	}
	var s quiz.GameSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode current game: %w", err)
	}
	return &s, nil
}

func (p *Postgres) SaveCurrentGame(ctx context.Context, s *quiz.GameSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode current game: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO current_game (id, session, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET session = EXCLUDED.session, updated_at = now()
	`, raw)
	if err != nil {
		return unavailable("save current game", err)
	}
	return nil
}

func (p *Postgres) GetPlayers(ctx context.Context) ([]quiz.Player, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, phone, email, points, games_played, created_at, last_active
		FROM players ORDER BY created_at
	`)
	if err != nil {
		return nil, unavailable("get players", err)
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Player, error) {
		var pl quiz.Player
		err := row.Scan(&pl.ID, &pl.Name, &pl.Phone, &pl.Email, &pl.Points, &pl.GamesPlayed, &pl.CreatedAt, &pl.LastActive)
		return pl, err
	})
	if err != nil {
		return nil, unavailable("get players", err)
	}
	return players, nil
}

func (p *Postgres) SavePlayer(ctx context.Context, pl quiz.Player) (quiz.Player, error) {
	if pl.LastActive.IsZero() {
		pl.LastActive = time.Now().UTC()
	}
	if pl.CreatedAt.IsZero() {
		pl.CreatedAt = pl.LastActive
	}
	var out quiz.Player
	err := p.pool.QueryRow(ctx, `
		INSERT INTO players (id, name, phone, email, created_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			last_active = EXCLUDED.last_active
		RETURNING id, name, phone, email, points, games_played, created_at, last_active
	`, pl.ID, pl.Name, pl.Phone, pl.Email, pl.CreatedAt, pl.LastActive).
		Scan(&out.ID, &out.Name, &out.Phone, &out.Email, &out.Points, &out.GamesPlayed, &out.CreatedAt, &out.LastActive)
	if err != nil {
		return quiz.Player{}, unavailable("save player", err)
	}
	return out, nil
}

func (p *Postgres) UpdatePlayerScore(ctx context.Context, playerID string, delta int) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE players SET points = points + $2, games_played = games_played + 1
		WHERE id = $1
	`, playerID, delta)
	if err != nil {
		return unavailable("update score", err)
	}
	if tag.RowsAffected() == 0 {
		return quiz.ErrUnknownPlayer
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: postgres %s: %v", quiz.ErrUnavailable, op, err)
}
