package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidWallet   = errors.New("wallet address is required")
	ErrInvalidNickname = errors.New("nickname must be 1-24 characters")
	ErrInvalidBoard    = errors.New("unknown leaderboard")
)

const nicknameRuneLimit = 24

type Config struct {
	DefaultPoints      int
	LeaderboardLimit   int
	RecentMatchesLimit int
}

type Service struct {
	repo   Repository
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, cfg Config, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if cfg.DefaultPoints <= 0 {
		cfg.DefaultPoints = DefaultXOPoints
	}
	if cfg.LeaderboardLimit <= 0 {
		cfg.LeaderboardLimit = 50
	}
	if cfg.RecentMatchesLimit <= 0 {
		cfg.RecentMatchesLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cfg: cfg, logger: logger, now: time.Now}, nil
}

// EnsureProfile loads the wallet's profile, creating it with defaults on first sight.
func (s *Service) EnsureProfile(ctx context.Context, wallet string) (*domain.Profile, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}
	p, err := s.repo.GetProfile(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.Profile{
			Wallet:   wallet,
			Nickname: DefaultNickname(wallet),
			XOPoints: s.cfg.DefaultPoints,
		}
		if err := s.repo.UpsertProfile(ctx, p); err != nil {
			return nil, err
		}
		s.logger.Info("profile_created", zap.String("wallet", wallet), zap.String("nickname", p.Nickname))
		return s.repo.GetProfile(ctx, wallet)
	}
	if p.XOPoints <= 0 {
		p.XOPoints = NormalizePoints(p.XOPoints, s.cfg.DefaultPoints)
		if err := s.repo.UpsertProfile(ctx, p); err != nil {
			return nil, err
		}
		s.logger.Info("profile_points_normalized", zap.String("wallet", wallet), zap.Int("points", p.XOPoints))
	}
	if strings.TrimSpace(p.Nickname) == "" {
		p.Nickname = DefaultNickname(wallet)
	}
	return p, nil
}

func (s *Service) Profile(ctx context.Context, wallet string) (*domain.Profile, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}
	p, err := s.repo.GetProfile(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (s *Service) SetNickname(ctx context.Context, wallet, nickname string) (*domain.Profile, error) {
	nickname = strings.Join(strings.Fields(nickname), " ")
	if nickname == "" || len([]rune(nickname)) > nicknameRuneLimit {
		return nil, ErrInvalidNickname
	}
	if _, err := s.EnsureProfile(ctx, wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeWallet(wallet)
	var out domain.Profile
	err := s.repo.UpdateProfiles(ctx, []string{wallet}, func(ps []*domain.Profile) error {
		ps[0].Nickname = nickname
		out = *ps[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordResult applies one finished game to the wallet's stats.
func (s *Service) RecordResult(ctx context.Context, wallet string, r game.Result, online bool) (*domain.Profile, error) {
	if r == game.ResultNone {
		return nil, fmt.Errorf("record result: game not finished")
	}
	if _, err := s.EnsureProfile(ctx, wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeWallet(wallet)
	now := s.now()
	var out domain.Profile
	err := s.repo.UpdateProfiles(ctx, []string{wallet}, func(ps []*domain.Profile) error {
		ps[0].Stats = ApplyResult(ps[0].Stats, r, online)
		ps[0].LastGameAt = now
		out = *ps[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}
	s.logger.Info("stats_recorded",
		zap.String("wallet", wallet),
		zap.String("result", string(r)),
		zap.Bool("online", online),
		zap.Int("streak", out.Stats.CurrentStreak),
	)
	return &out, nil
}

// SettleStake transfers bet points from loser to winner in one transaction.
func (s *Service) SettleStake(ctx context.Context, winner, loser string, bet int) error {
	if bet <= 0 {
		return nil
	}
	winner, loser = NormalizeWallet(winner), NormalizeWallet(loser)
	if winner == "" || loser == "" || winner == loser {
		return ErrInvalidWallet
	}
	var wPts, lPts int
	err := s.repo.UpdateProfiles(ctx, []string{winner, loser}, func(ps []*domain.Profile) error {
		w := NormalizePoints(ps[0].XOPoints, s.cfg.DefaultPoints)
		l := NormalizePoints(ps[1].XOPoints, s.cfg.DefaultPoints)
		ps[0].XOPoints, ps[1].XOPoints = SettleStake(w, l, bet)
		wPts, lPts = ps[0].XOPoints, ps[1].XOPoints
		return nil
	})
	if err != nil {
		return fmt.Errorf("settle stake: %w", err)
	}
	s.logger.Info("stake_settled",
		zap.String("winner", winner),
		zap.String("loser", loser),
		zap.Int("bet", bet),
		zap.Int("winner_points", wPts),
		zap.Int("loser_points", lPts),
	)
	return nil
}

// LogMatch appends a finished online game to the match log.
func (s *Service) LogMatch(ctx context.Context, m *domain.Match) error {
	if m == nil {
		return fmt.Errorf("nil match")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	m.PlayerX = NormalizeWallet(m.PlayerX)
	m.PlayerO = NormalizeWallet(m.PlayerO)
	m.WinnerWallet = NormalizeWallet(m.WinnerWallet)
	m.LoserWallet = NormalizeWallet(m.LoserWallet)
	if err := s.repo.InsertMatch(ctx, m); err != nil {
		return err
	}
	s.logger.Info("match_logged",
		zap.String("match_id", m.ID),
		zap.String("game_code", m.GameCode),
		zap.String("winner", m.WinnerSymbol),
	)
	return nil
}

func (s *Service) RecentMatches(ctx context.Context, wallet string, limit int) ([]*domain.Match, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}
	if limit <= 0 || limit > s.cfg.RecentMatchesLimit {
		limit = s.cfg.RecentMatchesLimit
	}
	return s.repo.RecentMatches(ctx, wallet, limit)
}

// Card is a profile with its derived rank, tier and badges.
type Card struct {
	Profile *domain.Profile `json:"profile"`
	Rank    string          `json:"rank"`
	Tier    string          `json:"tier"`
	WinRate int             `json:"winRate"`
	Badges  []domain.Badge  `json:"badges"`
}

func NewCard(p *domain.Profile) Card {
	return Card{
		Profile: p,
		Rank:    RankLabel(p.Stats.OnlineWins),
		Tier:    PointsTier(p.XOPoints),
		WinRate: WinRate(p.Stats),
		Badges:  Badges(p.XOPoints, p.Stats),
	}
}

type Board string

const (
	BoardWins   Board = "wins"
	BoardPoints Board = "points"
)

func (s *Service) Leaderboard(ctx context.Context, by Board, limit int) ([]Card, error) {
	if limit <= 0 || limit > s.cfg.LeaderboardLimit {
		limit = s.cfg.LeaderboardLimit
	}
	var (
		ps  []*domain.Profile
		err error
	)
	switch by {
	case BoardWins, "":
		ps, err = s.repo.TopByOnlineWins(ctx, limit)
	case BoardPoints:
		ps, err = s.repo.TopByPoints(ctx, limit)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidBoard, by)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Card, 0, len(ps))
	for _, p := range ps {
		out = append(out, NewCard(p))
	}
	return out, nil
}
