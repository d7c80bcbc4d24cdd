package session

import (
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeAI    Mode = "ai"
)

// Session is one local or AI game. In AI mode the human plays X.
type Session struct {
	ID         string          `json:"id"`
	Mode       Mode            `json:"mode"`
	Difficulty game.Difficulty `json:"difficulty,omitempty"`
	Wallet     string          `json:"wallet,omitempty"`
	Turn       game.TurnResult `json:"turn"`
	Moves      []int           `json:"moves"`
	Recorded   bool            `json:"recorded,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// PlayResult reports the ply made by the caller and the engine reply, if any.
type PlayResult struct {
	Session  *Session `json:"session"`
	AIMove   int      `json:"aiMove"`
	AIPlayed bool     `json:"aiPlayed"`
}
