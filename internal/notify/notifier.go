package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	"github.com/Ademileke12/xo-base-mini-app/internal/msgcat"
)

// MatchEvent is the webhook body for a finished online match.
type MatchEvent struct {
	Type   string        `json:"type"`
	Text   string        `json:"text"`
	Match  *domain.Match `json:"match"`
	SentAt time.Time     `json:"sentAt"`
}

// Poster delivers one JSON event.
type Poster interface {
	Post(ctx context.Context, in any) error
}

type Notifier struct {
	poster  Poster
	catalog *msgcat.Catalog
	logger  *zap.Logger
}

func NewNotifier(p Poster, catalog *msgcat.Catalog, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{poster: p, catalog: catalog, logger: logger}
}

func (n *Notifier) MatchFinished(ctx context.Context, m *domain.Match) error {
	ev := MatchEvent{Type: "match_finished", Match: m, Text: n.summary(m), SentAt: time.Now().UTC()}
	if err := n.poster.Post(ctx, ev); err != nil {
		return err
	}
	n.logger.Debug("notify_sent", zap.String("game_code", m.GameCode))
	return nil
}

func (n *Notifier) summary(m *domain.Match) string {
	if m.WinnerSymbol == "" {
		return n.catalog.Text("notify.match_draw", map[string]any{
			"Code": m.GameCode, "X": m.PlayerXNickname, "O": m.PlayerONickname,
		}, "Game "+m.GameCode+" ended in a draw.")
	}
	winner, loser := m.PlayerXNickname, m.PlayerONickname
	if m.WinnerSymbol == "O" {
		winner, loser = loser, winner
	}
	return n.catalog.Text("notify.match_won", map[string]any{
		"Code": m.GameCode, "Winner": winner, "Loser": loser, "Stake": m.StakePoints,
	}, winner+" won game "+m.GameCode+".")
}
