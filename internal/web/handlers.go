package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/internal/ledger"
	"github.com/Ademileke12/xo-base-mini-app/internal/online"
	"github.com/Ademileke12/xo-base-mini-app/internal/render"
	"github.com/Ademileke12/xo-base-mini-app/internal/session"
	"github.com/Ademileke12/xo-base-mini-app/pkg/xodto"
)

type handlers struct {
	Deps
}

type gameResponse struct {
	Game    *online.Game `json:"game"`
	Message string       `json:"message,omitempty"`
}

type joinResponse struct {
	xodto.JoinOnlineResponse
	Game *online.Game `json:"game"`
}

const maxBody = 1 << 16

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("Malformed JSON body.")
	}
	return nil
}

func wallet(r *http.Request) string {
	return ledger.NormalizeWallet(r.Header.Get(WalletHeader))
}

func requireWallet(r *http.Request) (string, error) {
	w := wallet(r)
	if w == "" {
		return "", badRequest("Missing " + WalletHeader + " header.")
	}
	return w, nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	var watchers int64
	if h.Hub != nil {
		watchers = h.Hub.Active()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "watchers": watchers})
}

// sessions

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request) {
	var req xodto.StartSessionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.Sessions.Start(r.Context(), mode, req.Difficulty, wallet(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) playSession(w http.ResponseWriter, r *http.Request) {
	var req xodto.MoveRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Sessions.Play(r.Context(), chi.URLParam(r, "id"), req.Index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) restartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) sessionBoard(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	last := -1
	if n := len(sess.Moves); n > 0 {
		last = sess.Moves[n-1]
	}
	h.writePNG(w, r, sess.Turn.Board, render.Options{Status: sess.Turn.Message, LastMove: last, Line: sess.Turn.Line})
}

// online

func (h *handlers) createOnline(w http.ResponseWriter, r *http.Request) {
	host, err := requireWallet(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req xodto.CreateOnlineRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.Online.Create(r.Context(), host, req.StakePoints)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := h.Catalog.Text("online.created", map[string]any{"Code": g.Code}, g.Message)
	if g.Staked() {
		msg = h.Catalog.Text("online.created_stake", map[string]any{"Code": g.Code, "Stake": g.StakePoints}, g.Message)
	}
	writeJSON(w, http.StatusCreated, gameResponse{Game: g, Message: msg})
}

func (h *handlers) getOnline(w http.ResponseWriter, r *http.Request) {
	g, err := h.Online.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Game: g})
}

func (h *handlers) joinOnline(w http.ResponseWriter, r *http.Request) {
	who, err := requireWallet(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	g, sym, err := h.Online.Join(r.Context(), chi.URLParam(r, "code"), who)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := h.Catalog.Text("online.joined", map[string]any{"Code": g.Code, "Symbol": sym.String()}, g.Message)
	writeJSON(w, http.StatusOK, joinResponse{
		JoinOnlineResponse: xodto.JoinOnlineResponse{Symbol: sym.String(), Message: msg},
		Game:               g,
	})
}

func (h *handlers) leaveOnline(w http.ResponseWriter, r *http.Request) {
	who, err := requireWallet(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.Online.Leave(r.Context(), chi.URLParam(r, "code"), who)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Game: g, Message: h.Catalog.Text("online.left", map[string]any{"Code": g.Code}, "")})
}

func (h *handlers) playOnline(w http.ResponseWriter, r *http.Request) {
	who, err := requireWallet(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req xodto.MoveRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.Online.Play(r.Context(), chi.URLParam(r, "code"), who, req.Index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Game: g})
}

func (h *handlers) restartOnline(w http.ResponseWriter, r *http.Request) {
	who, err := requireWallet(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.Online.Restart(r.Context(), chi.URLParam(r, "code"), who)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Game: g, Message: h.Catalog.Text("online.restarted", map[string]any{"Code": g.Code}, "")})
}

func (h *handlers) onlineBoard(w http.ResponseWriter, r *http.Request) {
	g, err := h.Online.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writePNG(w, r, g.Board, render.Options{Title: "Game " + g.Code, Status: g.Message, LastMove: -1, Line: g.Line})
}

func (h *handlers) watchOnline(w http.ResponseWriter, r *http.Request) {
	h.Hub.ServeGame(w, r, online.NormalizeCode(chi.URLParam(r, "code")))
}

func (h *handlers) writePNG(w http.ResponseWriter, r *http.Request, b game.Board, opts render.Options) {
	png, err := h.Renderer.RenderPNG(r.Context(), b, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// players

func (h *handlers) getPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.Ledger.EnsureProfile(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.NewCard(p))
}

func (h *handlers) setNickname(w http.ResponseWriter, r *http.Request) {
	target := ledger.NormalizeWallet(chi.URLParam(r, "wallet"))
	if who := wallet(r); who == "" || who != target {
		h.writeError(w, r, xodto.NewError(xodto.KindForbidden, "You can only rename your own profile."))
		return
	}
	var req xodto.NicknameRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Ledger.SetNickname(r.Context(), target, req.Nickname)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.NewCard(p))
}

func (h *handlers) playerMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Ledger.RecentMatches(r.Context(), chi.URLParam(r, "wallet"), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	by := ledger.Board(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("by"))))
	cards, err := h.Ledger.Leaderboard(r.Context(), by, queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
