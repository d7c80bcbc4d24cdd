package ledger

import (
	"math"
	"strings"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	"github.com/Ademileke12/xo-base-mini-app/internal/game"
)

const DefaultXOPoints = 6000

// ApplyResult returns stats after one finished game.
func ApplyResult(s domain.Stats, r game.Result, online bool) domain.Stats {
	switch r {
	case game.ResultWin:
		s.Wins++
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
		if online {
			s.OnlineWins++
		}
	case game.ResultLoss:
		s.Losses++
		s.CurrentStreak = 0
		if online {
			s.OnlineLosses++
		}
	case game.ResultDraw:
		s.Draws++
		if online {
			s.OnlineDraws++
		}
	}
	return s
}

// NormalizePoints resets missing or non-positive balances to def.
func NormalizePoints(p, def int) int {
	if def <= 0 {
		def = DefaultXOPoints
	}
	if p <= 0 {
		return def
	}
	return p
}

// SettleStake moves bet from loser to winner; the loser never goes below zero.
func SettleStake(winnerPts, loserPts, bet int) (int, int) {
	if bet <= 0 {
		return winnerPts, loserPts
	}
	loser := loserPts - bet
	if loser < 0 {
		loser = 0
	}
	return winnerPts + bet, loser
}

// DefaultNickname derives "Player_ABCD" from characters 2..6 of the wallet.
func DefaultNickname(wallet string) string {
	w := strings.TrimSpace(wallet)
	lo, hi := 2, 6
	if lo > len(w) {
		lo = len(w)
	}
	if hi > len(w) {
		hi = len(w)
	}
	return "Player_" + strings.ToUpper(w[lo:hi])
}

func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

func RankLabel(onlineWins int) string {
	switch {
	case onlineWins >= 20:
		return "Grandmaster"
	case onlineWins >= 10:
		return "Master"
	case onlineWins >= 5:
		return "Challenger"
	case onlineWins >= 1:
		return "Rookie"
	default:
		return "Unranked"
	}
}

func PointsTier(points int) string {
	switch {
	case points >= 10000:
		return "Whale"
	case points >= 8000:
		return "Grinder"
	case points >= 6000:
		return "Stacker"
	default:
		return "Climber"
	}
}

// WinRate is the rounded online win percentage.
func WinRate(s domain.Stats) int {
	total := s.OnlineWins + s.OnlineLosses + s.OnlineDraws
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(s.OnlineWins) / float64(total) * 100))
}

func Badges(points int, s domain.Stats) []domain.Badge {
	var out []domain.Badge
	switch {
	case points >= 12000:
		out = append(out, domain.Badge{ID: "deity", Label: "Onchain Deity", Emoji: "👑", Description: "Massive XO stack. You rule the grid."})
	case points >= 9000:
		out = append(out, domain.Badge{ID: "whale", Label: "XO Whale", Emoji: "🐋", Description: "You’ve stacked a serious XO bag."})
	case points >= 7000:
		out = append(out, domain.Badge{ID: "grinder", Label: "Grinder", Emoji: "🔥", Description: "Playing often and stacking XO."})
	}

	switch {
	case s.OnlineWins >= 20:
		out = append(out, domain.Badge{ID: "veteran", Label: "Ranked Veteran", Emoji: "⚔️", Description: "20+ online wins."})
	case s.OnlineWins >= 10:
		out = append(out, domain.Badge{ID: "fighter", Label: "Ranked Fighter", Emoji: "🥊", Description: "10+ online wins."})
	}

	if s.BestStreak >= 5 {
		out = append(out, domain.Badge{ID: "streak", Label: "Hot Streak", Emoji: "🔥", Description: "5+ win streak."})
	}
	if s.OnlineDraws >= 10 {
		out = append(out, domain.Badge{ID: "wall", Label: "Unbreakable", Emoji: "🧱", Description: "10+ online draws."})
	}
	return out
}
