package ledger

import (
	"testing"

	"github.com/Ademileke12/xo-base-mini-app/internal/domain"
	"github.com/Ademileke12/xo-base-mini-app/internal/game"
)

func TestApplyResultStreaks(t *testing.T) {
	var s domain.Stats
	for _, r := range []game.Result{game.ResultWin, game.ResultWin, game.ResultDraw, game.ResultWin} {
		s = ApplyResult(s, r, false)
	}
	if s.Wins != 3 || s.Draws != 1 || s.CurrentStreak != 3 || s.BestStreak != 3 {
		t.Fatalf("unexpected stats after wins/draw: %+v", s)
	}
	s = ApplyResult(s, game.ResultLoss, true)
	if s.CurrentStreak != 0 || s.BestStreak != 3 || s.Losses != 1 || s.OnlineLosses != 1 {
		t.Fatalf("loss should reset streak only: %+v", s)
	}
	if s.OnlineWins != 0 || s.OnlineDraws != 0 {
		t.Fatalf("offline results leaked into online counters: %+v", s)
	}
	s = ApplyResult(s, game.ResultDraw, true)
	if s.OnlineDraws != 1 || s.Draws != 2 {
		t.Fatalf("online draw not counted: %+v", s)
	}
}

func TestSettleStake(t *testing.T) {
	w, l := SettleStake(6000, 6000, 500)
	if w != 6500 || l != 5500 {
		t.Fatalf("got %d/%d", w, l)
	}
	w, l = SettleStake(100, 300, 500)
	if w != 600 || l != 0 {
		t.Fatalf("loser must clamp at zero: %d/%d", w, l)
	}
	w, l = SettleStake(10, 20, 0)
	if w != 10 || l != 20 {
		t.Fatalf("zero bet must be a no-op: %d/%d", w, l)
	}
}

func TestNormalizePoints(t *testing.T) {
	if NormalizePoints(0, 0) != DefaultXOPoints || NormalizePoints(-5, 100) != 100 || NormalizePoints(42, 100) != 42 {
		t.Fatalf("normalize mismatch")
	}
}

func TestDefaultNickname(t *testing.T) {
	if got := DefaultNickname("0xabcdef1234"); got != "Player_ABCD" {
		t.Fatalf("got %q", got)
	}
	if got := DefaultNickname("0xa"); got != "Player_A" {
		t.Fatalf("short wallet: %q", got)
	}
}

func TestRankAndTier(t *testing.T) {
	ranks := map[int]string{0: "Unranked", 1: "Rookie", 5: "Challenger", 10: "Master", 19: "Master", 20: "Grandmaster"}
	for wins, want := range ranks {
		if got := RankLabel(wins); got != want {
			t.Fatalf("RankLabel(%d)=%s want %s", wins, got, want)
		}
	}
	tiers := map[int]string{5999: "Climber", 6000: "Stacker", 8000: "Grinder", 10000: "Whale"}
	for pts, want := range tiers {
		if got := PointsTier(pts); got != want {
			t.Fatalf("PointsTier(%d)=%s want %s", pts, got, want)
		}
	}
}

func TestBadges(t *testing.T) {
	ids := func(bs []domain.Badge) []string {
		out := make([]string, 0, len(bs))
		for _, b := range bs {
			out = append(out, b.ID)
		}
		return out
	}
	got := ids(Badges(12000, domain.Stats{OnlineWins: 25, BestStreak: 5, OnlineDraws: 10}))
	want := []string{"deity", "veteran", "streak", "wall"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if got := ids(Badges(9500, domain.Stats{OnlineWins: 12})); len(got) != 2 || got[0] != "whale" || got[1] != "fighter" {
		t.Fatalf("whale/fighter expected, got %v", got)
	}
	if got := Badges(6000, domain.Stats{}); len(got) != 0 {
		t.Fatalf("no badges expected, got %v", got)
	}
}

func TestWinRate(t *testing.T) {
	if WinRate(domain.Stats{}) != 0 {
		t.Fatalf("empty win rate must be 0")
	}
	if got := WinRate(domain.Stats{OnlineWins: 2, OnlineLosses: 1}); got != 67 {
		t.Fatalf("got %d", got)
	}
}
