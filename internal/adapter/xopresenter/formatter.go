package xopresenter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/internal/ledger"
	"github.com/Ademileke12/xo-base-mini-app/internal/msgcat"
	"github.com/Ademileke12/xo-base-mini-app/internal/online"
)

// Formatter renders game state into plain-text blocks for terminals and logs.
type Formatter struct {
	catalog *msgcat.Catalog
}

func NewFormatter(catalog *msgcat.Catalog) *Formatter {
	return &Formatter{catalog: catalog}
}

// Board draws a 3x3 grid. Empty cells show their index so players can type it.
func (f *Formatter) Board(b game.Board) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if col > 0 {
				sb.WriteByte('|')
			}
			sb.WriteByte(' ')
			if b[i] == game.Empty {
				sb.WriteString(strconv.Itoa(i))
			} else {
				sb.WriteString(b[i].String())
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (f *Formatter) Turn(r game.TurnResult) string {
	return f.Board(r.Board) + "\n" + r.Message
}

func (f *Formatter) SessionStart(d game.Difficulty, ai bool) string {
	if ai {
		return f.catalog.Text("session.started_ai", map[string]any{"Difficulty": d}, "New game against the computer. You are X.")
	}
	return f.catalog.Text("session.started_local", nil, "New local game. X moves first.")
}

func (f *Formatter) AIMove(index int) string {
	return f.catalog.Text("session.ai_moved", map[string]any{"Index": index}, fmt.Sprintf("Computer played cell %d.", index))
}

func (f *Formatter) OnlineCreated(g *online.Game) string {
	if g.Staked() {
		return f.catalog.Text("online.created_stake", map[string]any{"Code": g.Code, "Stake": g.StakePoints},
			fmt.Sprintf("Points Match %s created with %d XO stake.", g.Code, g.StakePoints))
	}
	return f.catalog.Text("online.created", map[string]any{"Code": g.Code}, "Game "+g.Code+" created.")
}

func (f *Formatter) OnlineJoined(g *online.Game, sym game.Cell) string {
	return f.catalog.Text("online.joined", map[string]any{"Code": g.Code, "Symbol": sym.String()},
		fmt.Sprintf("Joined Game %s. You are %s.", g.Code, sym))
}

// Profile renders one player card.
func (f *Formatter) Profile(c ledger.Card) string {
	p := c.Profile
	var sb strings.Builder
	sb.WriteString(f.catalog.Text("profile.card", map[string]any{
		"Nickname": p.Nickname, "Rank": c.Rank, "Tier": c.Tier, "Points": p.XOPoints, "WinRate": c.WinRate,
	}, p.Nickname))
	sb.WriteByte('\n')
	s := p.Stats
	sb.WriteString(fmt.Sprintf("• vs computer: %dW %dL %dD\n", s.Wins, s.Losses, s.Draws))
	sb.WriteString(fmt.Sprintf("• online: %dW %dL %dD\n", s.OnlineWins, s.OnlineLosses, s.OnlineDraws))
	sb.WriteString(fmt.Sprintf("• streak: %d (best %d)", s.CurrentStreak, s.BestStreak))
	if len(c.Badges) > 0 {
		labels := make([]string, 0, len(c.Badges))
		for _, b := range c.Badges {
			labels = append(labels, b.Emoji+" "+b.Label)
		}
		sb.WriteString("\n• badges: " + strings.Join(labels, ", "))
	}
	return sb.String()
}

func (f *Formatter) Leaderboard(by ledger.Board, cards []ledger.Card) string {
	if len(cards) == 0 {
		return "No players yet."
	}
	var sb strings.Builder
	for i, c := range cards {
		if i > 0 {
			sb.WriteByte('\n')
		}
		score := fmt.Sprintf("%d wins", c.Profile.Stats.OnlineWins)
		if by == ledger.BoardPoints {
			score = fmt.Sprintf("%d XO", c.Profile.XOPoints)
		}
		sb.WriteString(fmt.Sprintf("%2d. %s · %s · %s", i+1, c.Profile.Nickname, score, c.Tier))
	}
	return sb.String()
}

// Matches lists recent matches from wallet's point of view.
func (f *Formatter) Matches(wallet string, ms []*domain.Match) string {
	if len(ms) == 0 {
		return "No matches yet."
	}
	wallet = ledger.NormalizeWallet(wallet)
	lines := make([]string, 0, len(ms))
	for _, m := range ms {
		outcome := "draw"
		switch wallet {
		case m.WinnerWallet:
			outcome = "won"
		case m.LoserWallet:
			outcome = "lost"
		}
		opp := m.PlayerONickname
		if wallet == m.PlayerO {
			opp = m.PlayerXNickname
		}
		line := fmt.Sprintf("%s %s vs %s (%s)", m.CreatedAt.Format(time.DateOnly), outcome, opp, m.GameCode)
		if m.StakePoints > 0 && outcome != "draw" {
			line += fmt.Sprintf(" %d XO", m.StakePoints)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
