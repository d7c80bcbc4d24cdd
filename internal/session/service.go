package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMode     = errors.New("mode must be local or ai")
)

// Mover chooses the engine's move.
type Mover interface {
	BestMove(b game.Board, mover, opponent game.Cell, d game.Difficulty) (int, bool)
}

// ResultRecorder receives finished AI games for the player's stats.
type ResultRecorder interface {
	RecordResult(ctx context.Context, wallet string, r game.Result, online bool) (*domain.Profile, error)
}

type Config struct {
	DefaultDifficulty game.Difficulty
}

type Service struct {
	store    Store
	engine   Mover
	recorder ResultRecorder
	cfg      Config
	logger   *zap.Logger
	locks    [lockStripes]sync.Mutex
	now      func() time.Time
}

func NewService(store Store, engine Mover, recorder ResultRecorder, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("move engine is required")
	}
	if cfg.DefaultDifficulty == "" {
		cfg.DefaultDifficulty = game.Standard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, engine: engine, recorder: recorder, cfg: cfg, logger: logger, now: time.Now}, nil
}

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeAI, "":
		return ModeAI, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidMode, raw)
}

// Start opens a new session. wallet may be empty for anonymous play.
func (s *Service) Start(ctx context.Context, mode Mode, difficulty string, wallet string) (*Session, error) {
	if mode != ModeLocal && mode != ModeAI {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	sess := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		Wallet:    strings.ToLower(strings.TrimSpace(wallet)),
		Turn:      game.NewGame(),
		Moves:     []int{},
		CreatedAt: s.now(),
	}
	sess.UpdatedAt = sess.CreatedAt
	if mode == ModeAI {
		d := s.cfg.DefaultDifficulty
		if strings.TrimSpace(difficulty) != "" {
			parsed, err := game.ParseDifficulty(difficulty)
			if err != nil {
				return nil, err
			}
			d = parsed
		}
		sess.Difficulty = d
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("session_start",
		zap.String("session_id", sess.ID),
		zap.String("mode", string(sess.Mode)),
		zap.String("difficulty", string(sess.Difficulty)),
	)
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

const lockStripes = 64

// lockFor maps id onto a fixed stripe so unknown ids never allocate.
func (s *Service) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *Service) lock(id string) func() {
	mu := s.lockFor(id)
	mu.Lock()
	return mu.Unlock
}

// Play applies the caller's move; in AI mode the engine answers in the same call.
func (s *Service) Play(ctx context.Context, id string, index int) (*PlayResult, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	symbol := game.ToMove(sess.Turn.XNext)
	if sess.Mode == ModeAI {
		symbol = game.X
	}
	next, err := game.ApplyMove(sess.Turn.Board, sess.Turn.XNext, index, symbol)
	if err != nil {
		return nil, err
	}
	sess.Turn = next
	sess.Moves = append(sess.Moves, index)

	out := &PlayResult{Session: sess, AIMove: -1}
	if sess.Mode == ModeAI && !next.Terminal && !next.XNext {
		if move, ok := s.engine.BestMove(next.Board, game.O, game.X, sess.Difficulty); ok {
			reply, err := game.ApplyMove(next.Board, next.XNext, move, game.O)
			if err != nil {
				return nil, fmt.Errorf("engine move: %w", err)
			}
			sess.Turn = reply
			sess.Moves = append(sess.Moves, move)
			out.AIMove, out.AIPlayed = move, true
		}
	}
	sess.UpdatedAt = s.now()

	if sess.Turn.Terminal {
		s.finish(ctx, sess)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return out, nil
}

// finish reports a finished AI game once. Recorder failures are logged and do not fail the move.
func (s *Service) finish(ctx context.Context, sess *Session) {
	result := game.Classify(sess.Turn, game.X)
	s.logger.Info("session_finish",
		zap.String("session_id", sess.ID),
		zap.String("mode", string(sess.Mode)),
		zap.String("result", string(result)),
		zap.Int("moves", len(sess.Moves)),
	)
	if sess.Recorded || sess.Mode != ModeAI || sess.Wallet == "" || s.recorder == nil {
		return
	}
	if _, err := s.recorder.RecordResult(ctx, sess.Wallet, result, false); err != nil {
		s.logger.Error("session_record_error", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	sess.Recorded = true
}

// Restart clears the board and keeps mode, difficulty and wallet.
func (s *Service) Restart(ctx context.Context, id string) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Turn = game.NewGame()
	sess.Moves = []int{}
	sess.Recorded = false
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) Close(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()
	return s.store.Delete(ctx, id)
}
