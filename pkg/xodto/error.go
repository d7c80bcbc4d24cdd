package xodto

import "errors"

// Kind classifies a DomainError.
type Kind string

const (
	KindGameNotFound      Kind = "game_not_found"
	KindRoomFull          Kind = "room_full"
	KindAlreadyHost       Kind = "already_host"
	KindInvalidStake      Kind = "invalid_stake"
	KindProfileNotFound   Kind = "profile_not_found"
	KindInsufficientStake Kind = "insufficient_stake"
	KindNotSeated         Kind = "not_seated"
	KindForbidden         Kind = "forbidden"
	KindIllegalMove       Kind = "illegal_move"
	KindInvalidInput      Kind = "invalid_input"
	KindSessionNotFound   Kind = "session_not_found"
	KindConflict          Kind = "conflict"
)

type DomainError struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != "" {
		return string(e.Kind)
	}
	return "xo service error"
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches another DomainError by Kind, so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind Kind, msg string) *DomainError {
	return &DomainError{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of the first DomainError in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
