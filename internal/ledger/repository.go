package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	_ "github.com/lib/pq"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrDuplicateMatch  = errors.New("match already logged")
)

// Repository persists profiles and the match log.
// GetProfile returns (nil, nil) for an unknown wallet.
type Repository interface {
	GetProfile(ctx context.Context, wallet string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, p *domain.Profile) error
	// UpdateProfiles runs fn on the locked profiles of all wallets and stores the result atomically.
	UpdateProfiles(ctx context.Context, wallets []string, fn func(ps []*domain.Profile) error) error
	InsertMatch(ctx context.Context, m *domain.Match) error
	RecentMatches(ctx context.Context, wallet string, limit int) ([]*domain.Match, error)
	TopByOnlineWins(ctx context.Context, limit int) ([]*domain.Profile, error)
	TopByPoints(ctx context.Context, limit int) ([]*domain.Profile, error)
}

//go:embed schema.sql
var schemaSQL string

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// OpenPostgres connects, pings and applies the schema.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

const profileColumns = `
	wallet,
	nickname,
	xo_points,
	wins,
	losses,
	draws,
	online_wins,
	online_losses,
	online_draws,
	current_streak,
	best_streak,
	last_game_at,
	created_at,
	updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p        domain.Profile
		lastGame sql.NullTime
	)
	err := row.Scan(
		&p.Wallet,
		&p.Nickname,
		&p.XOPoints,
		&p.Stats.Wins,
		&p.Stats.Losses,
		&p.Stats.Draws,
		&p.Stats.OnlineWins,
		&p.Stats.OnlineLosses,
		&p.Stats.OnlineDraws,
		&p.Stats.CurrentStreak,
		&p.Stats.BestStreak,
		&lastGame,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastGame.Valid {
		p.LastGameAt = lastGame.Time
	}
	return &p, nil
}

func (r *repository) GetProfile(ctx context.Context, wallet string) (*domain.Profile, error) {
	query := `SELECT` + profileColumns + ` FROM xo_profiles WHERE wallet = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, wallet))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select xo profile: %w", err)
	}
	return p, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertProfile(ctx context.Context, db execer, p *domain.Profile) error {
	const query = `
		INSERT INTO xo_profiles (
			wallet,
			nickname,
			xo_points,
			wins,
			losses,
			draws,
			online_wins,
			online_losses,
			online_draws,
			current_streak,
			best_streak,
			last_game_at,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (wallet)
		DO UPDATE SET
			nickname = EXCLUDED.nickname,
			xo_points = EXCLUDED.xo_points,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			online_wins = EXCLUDED.online_wins,
			online_losses = EXCLUDED.online_losses,
			online_draws = EXCLUDED.online_draws,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			last_game_at = EXCLUDED.last_game_at,
			updated_at = NOW()`

	var lastGame sql.NullTime
	if !p.LastGameAt.IsZero() {
		lastGame = sql.NullTime{Time: p.LastGameAt, Valid: true}
	}
	_, err := db.ExecContext(
		ctx,
		query,
		p.Wallet,
		p.Nickname,
		p.XOPoints,
		p.Stats.Wins,
		p.Stats.Losses,
		p.Stats.Draws,
		p.Stats.OnlineWins,
		p.Stats.OnlineLosses,
		p.Stats.OnlineDraws,
		p.Stats.CurrentStreak,
		p.Stats.BestStreak,
		lastGame,
	)
	if err != nil {
		return fmt.Errorf("upsert xo profile: %w", err)
	}
	return nil
}

func (r *repository) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return fmt.Errorf("nil xo profile payload")
	}
	return upsertProfile(ctx, r.db, p)
}

func (r *repository) UpdateProfiles(ctx context.Context, wallets []string, fn func(ps []*domain.Profile) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock rows in a stable order so concurrent settlements cannot deadlock.
	order := append([]string(nil), wallets...)
	sort.Strings(order)
	locked := make(map[string]*domain.Profile, len(order))
	query := `SELECT` + profileColumns + ` FROM xo_profiles WHERE wallet = $1 FOR UPDATE`
	for _, w := range order {
		if _, ok := locked[w]; ok {
			continue
		}
		p, err := scanProfile(tx.QueryRowContext(ctx, query, w))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrProfileNotFound, w)
		}
		if err != nil {
			return fmt.Errorf("lock xo profile: %w", err)
		}
		locked[w] = p
	}

	ps := make([]*domain.Profile, len(wallets))
	for i, w := range wallets {
		ps[i] = locked[w]
	}
	if err := fn(ps); err != nil {
		return err
	}
	for _, w := range order {
		if err := upsertProfile(ctx, tx, locked[w]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile tx: %w", err)
	}
	return nil
}

func (r *repository) InsertMatch(ctx context.Context, m *domain.Match) error {
	if m == nil {
		return fmt.Errorf("nil xo match payload")
	}
	const query = `
		INSERT INTO xo_matches (
			id,
			game_code,
			player_x,
			player_o,
			player_x_nickname,
			player_o_nickname,
			winner_symbol,
			winner_wallet,
			loser_wallet,
			stake_points,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(
		ctx,
		query,
		m.ID,
		m.GameCode,
		m.PlayerX,
		m.PlayerO,
		m.PlayerXNickname,
		m.PlayerONickname,
		m.WinnerSymbol,
		m.WinnerWallet,
		m.LoserWallet,
		m.StakePoints,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert xo match: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateMatch
	}
	return nil
}

func (r *repository) RecentMatches(ctx context.Context, wallet string, limit int) ([]*domain.Match, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
		SELECT
			id,
			game_code,
			player_x,
			player_o,
			player_x_nickname,
			player_o_nickname,
			winner_symbol,
			winner_wallet,
			loser_wallet,
			stake_points,
			created_at
		FROM xo_matches
		WHERE player_x = $1 OR player_o = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("select xo matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*domain.Match, 0, limit)
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(
			&m.ID,
			&m.GameCode,
			&m.PlayerX,
			&m.PlayerO,
			&m.PlayerXNickname,
			&m.PlayerONickname,
			&m.WinnerSymbol,
			&m.WinnerWallet,
			&m.LoserWallet,
			&m.StakePoints,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan xo match: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate xo matches: %w", err)
	}
	return matches, nil
}

func (r *repository) TopByOnlineWins(ctx context.Context, limit int) ([]*domain.Profile, error) {
	return r.top(ctx, "online_wins", limit)
}

func (r *repository) TopByPoints(ctx context.Context, limit int) ([]*domain.Profile, error) {
	return r.top(ctx, "xo_points", limit)
}

// top orders by a fixed column name; callers never pass user input.
func (r *repository) top(ctx context.Context, column string, limit int) ([]*domain.Profile, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT` + profileColumns + ` FROM xo_profiles ORDER BY ` + column + ` DESC, wallet ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Profile, 0, limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return out, nil
}
