package online

import (
	"fmt"
	"strings"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/pkg/xodto"
)

type StakeType string

const (
	StakeNone   StakeType = "none"
	StakePoints StakeType = "points"
)

// Game is one shared online board keyed by its join code.
type Game struct {
	Code     string     `json:"code"`
	Board    game.Board `json:"board"`
	XNext    bool       `json:"xNext"`
	Winner   game.Cell  `json:"winner"`
	Line     *game.Line `json:"line,omitempty"`
	Terminal bool       `json:"terminal"`
	Message  string     `json:"message"`

	HostWallet      string `json:"hostWallet"`
	PlayerX         string `json:"playerX,omitempty"`
	PlayerO         string `json:"playerO,omitempty"`
	PlayerXNickname string `json:"playerXNickname,omitempty"`
	PlayerONickname string `json:"playerONickname,omitempty"`

	StakeType   StakeType `json:"stakeType"`
	StakePoints int       `json:"stakePoints,omitempty"`

	Round     int       `json:"round"`
	Recorded  bool      `json:"recorded"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ready reports whether both seats are taken.
func (g *Game) Ready() bool { return g.PlayerX != "" && g.PlayerO != "" }

func (g *Game) Staked() bool { return g.StakeType == StakePoints && g.StakePoints > 0 }

// SymbolOf returns the seat held by wallet, or Empty.
func (g *Game) SymbolOf(wallet string) game.Cell {
	switch wallet {
	case "":
		return game.Empty
	case g.PlayerX:
		return game.X
	case g.PlayerO:
		return game.O
	}
	return game.Empty
}

func (g *Game) seat(c game.Cell) (wallet, nickname string) {
	if c == game.X {
		return g.PlayerX, g.PlayerXNickname
	}
	return g.PlayerO, g.PlayerONickname
}

// vacancy reports the empty seat and the wallet holding the other one when
// exactly one seat is taken.
func (g *Game) vacancy() (vacant game.Cell, opponent string, ok bool) {
	switch {
	case g.PlayerX != "" && g.PlayerO == "":
		return game.O, g.PlayerX, true
	case g.PlayerO != "" && g.PlayerX == "":
		return game.X, g.PlayerO, true
	}
	return game.Empty, "", false
}

func (g *Game) setSeat(c game.Cell, wallet, nickname string) {
	if c == game.X {
		g.PlayerX, g.PlayerXNickname = wallet, nickname
		return
	}
	g.PlayerO, g.PlayerONickname = wallet, nickname
}

func (g *Game) apply(r game.TurnResult) {
	g.Board, g.XNext, g.Winner, g.Line, g.Terminal = r.Board, r.XNext, r.Winner, r.Line, r.Terminal
	g.Message = g.status(r.Message)
}

// status is the status line shown to both players.
func (g *Game) status(core string) string {
	if g.Terminal {
		return core
	}
	if !g.Ready() {
		return fmt.Sprintf("Game %s: Waiting for opponent...", g.Code)
	}
	return fmt.Sprintf("Game %s: %s (X) vs %s (O) - %s's Turn",
		g.Code, g.PlayerXNickname, g.PlayerONickname, game.ToMove(g.XNext))
}

func (g *Game) reset() {
	g.Recorded = false
	g.apply(game.NewGame())
}

var (
	ErrGameNotFound      = xodto.NewError(xodto.KindGameNotFound, "Game not found.")
	ErrRoomFull          = xodto.NewError(xodto.KindRoomFull, "Room full.")
	ErrAlreadyHost       = xodto.NewError(xodto.KindAlreadyHost, "You already created this game.")
	ErrInvalidStake      = xodto.NewError(xodto.KindInvalidStake, "Invalid stake game configuration.")
	ErrProfileNotFound   = xodto.NewError(xodto.KindProfileNotFound, "Player profile not found for stake.")
	ErrInsufficientStake = xodto.NewError(xodto.KindInsufficientStake, "Insufficient XO points for this stake match.")
	ErrNotSeated         = xodto.NewError(xodto.KindNotSeated, "You are not seated in this game.")
	ErrOnlyX             = xodto.NewError(xodto.KindForbidden, "Only player X can restart the game.")
	ErrStakeRestart      = xodto.NewError(xodto.KindForbidden, "Stake matches cannot be restarted.")
	ErrAlreadySeated     = xodto.NewError(xodto.KindAlreadyHost, "You are already seated in this game.")
	ErrConflict          = &xodto.DomainError{Kind: xodto.KindConflict, Message: "Concurrent update detected. Try again.", Retryable: true}
)

// NormalizeCode upper-cases and trims a join code.
func NormalizeCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }
