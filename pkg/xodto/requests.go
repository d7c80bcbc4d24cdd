package xodto

type StartSessionRequest struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty,omitempty"`
}

type MoveRequest struct {
	Index int `json:"index"`
}

type CreateOnlineRequest struct {
	StakePoints int `json:"stakePoints,omitempty"`
}

type JoinOnlineResponse struct {
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

type NicknameRequest struct {
	Nickname string `json:"nickname"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
