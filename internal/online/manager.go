package online

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/internal/ledger"
	"github.com/Ademileke12/xo-base-mini-app/pkg/xodto"
)

// Ledger is the slice of the profile service the manager needs.
type Ledger interface {
	EnsureProfile(ctx context.Context, wallet string) (*domain.Profile, error)
	Profile(ctx context.Context, wallet string) (*domain.Profile, error)
	RecordResult(ctx context.Context, wallet string, r game.Result, online bool) (*domain.Profile, error)
	SettleStake(ctx context.Context, winner, loser string, bet int) error
	LogMatch(ctx context.Context, m *domain.Match) error
}

// Notifier is told about finished matches. Optional.
type Notifier interface {
	MatchFinished(ctx context.Context, m *domain.Match) error
}

type ManagerOption func(*Manager)

func WithNotifier(n Notifier) ManagerOption { return func(m *Manager) { m.notifier = n } }

// WithCoin replaces the fair coin that decides whether the host plays X.
func WithCoin(flip func() bool) ManagerOption { return func(m *Manager) { m.coin = flip } }

func WithClock(now func() time.Time) ManagerOption { return func(m *Manager) { m.now = now } }

type Manager struct {
	store    Store
	ledger   Ledger
	notifier Notifier
	logger   *zap.Logger
	coin     func() bool
	now      func() time.Time
}

var matchNamespace = uuid.MustParse("6f0c7f55-4b8a-4f7e-9a43-6a3c2e0d9b11")

func NewManager(store Store, l Ledger, logger *zap.Logger, opts ...ManagerOption) (*Manager, error) {
	if store == nil || l == nil {
		return nil, errors.New("online manager requires a store and a ledger")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{store: store, ledger: l, logger: logger, coin: secureCoin, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

func secureCoin() bool {
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	return err == nil && n.Int64() == 0
}

// Create opens a new game hosted by wallet. stakePoints of 0 means a friendly match.
func (m *Manager) Create(ctx context.Context, host string, stakePoints int) (*Game, error) {
	host = ledger.NormalizeWallet(host)
	if host == "" {
		return nil, xodto.NewError(xodto.KindInvalidInput, "Wallet address is required.")
	}
	if stakePoints < 0 {
		return nil, ErrInvalidStake
	}
	p, err := m.ledger.EnsureProfile(ctx, host)
	if err != nil {
		return nil, err
	}
	if stakePoints > 0 && p.XOPoints < stakePoints {
		return nil, ErrInsufficientStake
	}

	now := m.now()
	g := &Game{
		HostWallet: host,
		StakeType:  StakeNone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if stakePoints > 0 {
		g.StakeType, g.StakePoints = StakePoints, stakePoints
	}

	var ok bool
	for attempt := 0; attempt < 5 && !ok; attempt++ {
		code, err := codeGen()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		g.Code = code
		g.reset()
		if ok, err = m.store.Create(ctx, g); err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, ErrConflict
	}

	m.logger.Info("online_created",
		zap.String("code", g.Code),
		zap.String("host", host),
		zap.Int("stake", g.StakePoints),
	)
	return g, nil
}

// Join seats wallet in the open game. A fresh game pairs the joiner with the
// host on random sides; after a player has left, the joiner takes the vacant
// seat and the remaining player keeps theirs.
func (m *Manager) Join(ctx context.Context, code, wallet string) (*Game, game.Cell, error) {
	code, wallet = NormalizeCode(code), ledger.NormalizeWallet(wallet)
	if wallet == "" {
		return nil, game.Empty, xodto.NewError(xodto.KindInvalidInput, "Wallet address is required.")
	}
	joiner, err := m.ledger.EnsureProfile(ctx, wallet)
	if err != nil {
		return nil, game.Empty, err
	}
	joinNick := joiner.Nickname
	if joinNick == "" {
		joinNick = ledger.DefaultNickname(wallet)
	}

	g, err := m.store.Update(ctx, code, func(g *Game) error {
		if g.Ready() {
			return ErrRoomFull
		}
		if g.SymbolOf(wallet) != game.Empty {
			if wallet == g.HostWallet {
				return ErrAlreadyHost
			}
			return ErrAlreadySeated
		}

		if vacant, opponent, ok := g.vacancy(); ok {
			if g.StakeType == StakePoints {
				if err := m.checkStake(ctx, g, opponent, joiner); err != nil {
					return err
				}
			}
			g.setSeat(vacant, wallet, joinNick)
		} else {
			if g.HostWallet == wallet {
				return ErrAlreadyHost
			}
			if g.StakeType == StakePoints {
				if err := m.checkStake(ctx, g, g.HostWallet, joiner); err != nil {
					return err
				}
			}
			host, err := m.ledger.EnsureProfile(ctx, g.HostWallet)
			if err != nil {
				return err
			}
			hostNick := host.Nickname
			if hostNick == "" {
				hostNick = ledger.DefaultNickname(g.HostWallet)
			}
			if m.coin() {
				g.setSeat(game.X, g.HostWallet, hostNick)
				g.setSeat(game.O, wallet, joinNick)
			} else {
				g.setSeat(game.X, wallet, joinNick)
				g.setSeat(game.O, g.HostWallet, hostNick)
			}
		}
		g.UpdatedAt = m.now()
		if !g.Terminal {
			g.Message = g.status(g.Message)
		}
		return nil
	})
	if err != nil {
		return nil, game.Empty, err
	}
	sym := g.SymbolOf(wallet)
	m.logger.Info("online_joined",
		zap.String("code", g.Code),
		zap.String("wallet", wallet),
		zap.String("symbol", sym.String()),
	)
	return g, sym, nil
}

// checkStake verifies both the joiner and the opponent can cover the bet.
func (m *Manager) checkStake(ctx context.Context, g *Game, opponent string, joiner *domain.Profile) error {
	if g.StakePoints <= 0 || opponent == "" {
		return ErrInvalidStake
	}
	other, err := m.ledger.Profile(ctx, opponent)
	if errors.Is(err, ledger.ErrProfileNotFound) {
		return ErrProfileNotFound
	}
	if err != nil {
		return err
	}
	if other == nil || joiner == nil {
		return ErrProfileNotFound
	}
	if other.XOPoints < g.StakePoints || joiner.XOPoints < g.StakePoints {
		return ErrInsufficientStake
	}
	return nil
}

// Leave frees the caller's seat. The host keeps ownership of the code.
func (m *Manager) Leave(ctx context.Context, code, wallet string) (*Game, error) {
	wallet = ledger.NormalizeWallet(wallet)
	g, err := m.store.Update(ctx, code, func(g *Game) error {
		switch g.SymbolOf(wallet) {
		case game.X:
			g.PlayerX, g.PlayerXNickname = "", ""
		case game.O:
			g.PlayerO, g.PlayerONickname = "", ""
		default:
			return ErrNotSeated
		}
		g.UpdatedAt = m.now()
		if !g.Terminal {
			g.Message = g.status(g.Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("online_left", zap.String("code", g.Code), zap.String("wallet", wallet))
	return g, nil
}

// Play places the caller's mark at index. The finishing move settles the match once.
func (m *Manager) Play(ctx context.Context, code, wallet string, index int) (*Game, error) {
	wallet = ledger.NormalizeWallet(wallet)
	var finished bool
	g, err := m.store.Update(ctx, code, func(g *Game) error {
		finished = false
		sym := g.SymbolOf(wallet)
		if sym == game.Empty {
			return ErrNotSeated
		}
		if !g.Ready() {
			return xodto.NewError(xodto.KindIllegalMove, "Waiting for opponent.")
		}
		r, err := game.ApplyMove(g.Board, g.XNext, index, sym)
		if err != nil {
			return xodto.Wrap(xodto.KindIllegalMove, err.Error(), err)
		}
		g.apply(r)
		g.UpdatedAt = m.now()
		if g.Terminal && !g.Recorded {
			g.Recorded = true
			finished = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if finished {
		m.settle(ctx, g)
	}
	return g, nil
}

// settle writes stats, stake transfer and the match log. Failures are logged only.
func (m *Manager) settle(ctx context.Context, g *Game) {
	for _, sym := range []game.Cell{game.X, game.O} {
		wallet, _ := g.seat(sym)
		r := game.Classify(game.TurnResult{Terminal: g.Terminal, Winner: g.Winner}, sym)
		if _, err := m.ledger.RecordResult(ctx, wallet, r, true); err != nil {
			m.logger.Warn("online_record_failed", zap.String("code", g.Code), zap.String("wallet", wallet), zap.Error(err))
		}
	}

	match := &domain.Match{
		ID:              uuid.NewSHA1(matchNamespace, []byte(g.Code+":"+strconv.Itoa(g.Round)+":"+g.CreatedAt.UTC().Format(time.RFC3339Nano))).String(),
		GameCode:        g.Code,
		PlayerX:         g.PlayerX,
		PlayerO:         g.PlayerO,
		PlayerXNickname: g.PlayerXNickname,
		PlayerONickname: g.PlayerONickname,
		CreatedAt:       g.UpdatedAt,
	}
	if g.Winner != game.Empty {
		match.WinnerSymbol = g.Winner.String()
		match.WinnerWallet, _ = g.seat(g.Winner)
		match.LoserWallet, _ = g.seat(g.Winner.Opponent())
		if g.Staked() {
			match.StakePoints = g.StakePoints
			if err := m.ledger.SettleStake(ctx, match.WinnerWallet, match.LoserWallet, g.StakePoints); err != nil {
				m.logger.Error("online_stake_failed", zap.String("code", g.Code), zap.Error(err))
			}
		}
	}
	if err := m.ledger.LogMatch(ctx, match); err != nil {
		m.logger.Warn("online_match_log_failed", zap.String("code", g.Code), zap.Error(err))
	}
	if m.notifier != nil {
		if err := m.notifier.MatchFinished(ctx, match); err != nil {
			m.logger.Warn("online_notify_failed", zap.String("code", g.Code), zap.Error(err))
		}
	}
	m.logger.Info("online_finished",
		zap.String("code", g.Code),
		zap.String("winner", match.WinnerSymbol),
		zap.Int("round", g.Round),
	)
}

// Restart clears the board for another round. Only player X may restart,
// and stake matches are single-round.
func (m *Manager) Restart(ctx context.Context, code, wallet string) (*Game, error) {
	wallet = ledger.NormalizeWallet(wallet)
	return m.store.Update(ctx, code, func(g *Game) error {
		if g.SymbolOf(wallet) != game.X {
			return ErrOnlyX
		}
		if g.Staked() {
			return ErrStakeRestart
		}
		g.Round++
		g.reset()
		g.UpdatedAt = m.now()
		return nil
	})
}

func (m *Manager) Get(ctx context.Context, code string) (*Game, error) {
	g, err := m.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// Subscribe streams committed snapshots of the game until cancel is called.
func (m *Manager) Subscribe(ctx context.Context, code string) (<-chan *Game, func(), error) {
	if _, err := m.Get(ctx, code); err != nil {
		return nil, nil, err
	}
	return m.store.Subscribe(ctx, code)
}
