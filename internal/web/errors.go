package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/internal/ledger"
	"github.com/Ademileke12/xo-base-mini-app/internal/session"
	"github.com/Ademileke12/xo-base-mini-app/pkg/xodto"
)

var kindStatus = map[xodto.Kind]int{
	xodto.KindGameNotFound:      http.StatusNotFound,
	xodto.KindSessionNotFound:   http.StatusNotFound,
	xodto.KindProfileNotFound:   http.StatusNotFound,
	xodto.KindRoomFull:          http.StatusConflict,
	xodto.KindAlreadyHost:       http.StatusConflict,
	xodto.KindConflict:          http.StatusConflict,
	xodto.KindInvalidStake:      http.StatusUnprocessableEntity,
	xodto.KindInsufficientStake: http.StatusUnprocessableEntity,
	xodto.KindIllegalMove:       http.StatusUnprocessableEntity,
	xodto.KindInvalidInput:      http.StatusBadRequest,
	xodto.KindNotSeated:         http.StatusForbidden,
	xodto.KindForbidden:         http.StatusForbidden,
}

// classify turns service errors into a DomainError for the response body.
func classify(err error) *xodto.DomainError {
	var de *xodto.DomainError
	if errors.As(err, &de) {
		return de
	}
	var me *game.MoveError
	switch {
	case errors.As(err, &me):
		return xodto.Wrap(xodto.KindIllegalMove, err.Error(), err)
	case errors.Is(err, session.ErrSessionNotFound):
		return xodto.Wrap(xodto.KindSessionNotFound, "Session not found.", err)
	case errors.Is(err, ledger.ErrProfileNotFound):
		return xodto.Wrap(xodto.KindProfileNotFound, "Player profile not found.", err)
	case errors.Is(err, session.ErrInvalidMode),
		errors.Is(err, ledger.ErrInvalidWallet),
		errors.Is(err, ledger.ErrInvalidNickname),
		errors.Is(err, ledger.ErrInvalidBoard):
		return xodto.Wrap(xodto.KindInvalidInput, err.Error(), err)
	}
	return nil
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	de := classify(err)
	if de == nil {
		h.Logger.Error("http_internal_error", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, xodto.ErrorResponse{Error: "internal error"})
		return
	}
	status, ok := kindStatus[de.Kind]
	if !ok {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, xodto.ErrorResponse{Error: string(de.Kind), Kind: de.Kind, Message: de.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(msg string) error { return xodto.NewError(xodto.KindInvalidInput, msg) }
