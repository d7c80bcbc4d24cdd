package domain

import "time"

type Stats struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Draws         int `json:"draws"`
	OnlineWins    int `json:"onlineWins"`
	OnlineLosses  int `json:"onlineLosses"`
	OnlineDraws   int `json:"onlineDraws"`
	CurrentStreak int `json:"currentStreak"`
	BestStreak    int `json:"bestStreak"`
}

// Profile is a player's record keyed by lower-cased wallet address.
type Profile struct {
	Wallet     string    `json:"wallet"`
	Nickname   string    `json:"nickname"`
	XOPoints   int       `json:"xoPoints"`
	Stats      Stats     `json:"stats"`
	LastGameAt time.Time `json:"lastGameAt,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Match is one finished online game.
type Match struct {
	ID              string    `json:"id"`
	GameCode        string    `json:"gameCode"`
	PlayerX         string    `json:"playerX"`
	PlayerO         string    `json:"playerO"`
	PlayerXNickname string    `json:"playerXNickname,omitempty"`
	PlayerONickname string    `json:"playerONickname,omitempty"`
	WinnerSymbol    string    `json:"winnerSymbol,omitempty"`
	WinnerWallet    string    `json:"winnerWallet,omitempty"`
	LoserWallet     string    `json:"loserWallet,omitempty"`
	StakePoints     int       `json:"stakePoints,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Players returns both seats in X, O order.
func (m Match) Players() []string { return []string{m.PlayerX, m.PlayerO} }

type Badge struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}
