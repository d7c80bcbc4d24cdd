package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Ademileke12/xo-base-mini-app/internal/ledger"
	"github.com/Ademileke12/xo-base-mini-app/internal/msgcat"
	"github.com/Ademileke12/xo-base-mini-app/internal/online"
	"github.com/Ademileke12/xo-base-mini-app/internal/realtime"
	"github.com/Ademileke12/xo-base-mini-app/internal/render"
	"github.com/Ademileke12/xo-base-mini-app/internal/session"
)

// WalletHeader carries the caller's wallet address.
const WalletHeader = "X-Wallet-Address"

type Deps struct {
	Sessions *session.Service
	Online   *online.Manager
	Ledger   *ledger.Service
	Hub      *realtime.Hub
	Renderer render.BoardRenderer
	Catalog  *msgcat.Catalog
	Logger   *zap.Logger
}

// NewServer wires routes and returns an http.Handler.
func NewServer(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &handlers{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)

	r.Get("/healthz", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.startSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.closeSession)
			r.Post("/moves", h.playSession)
			r.Post("/restart", h.restartSession)
			r.Get("/board.png", h.sessionBoard)
		})

		r.Post("/online", h.createOnline)
		r.Route("/online/{code}", func(r chi.Router) {
			r.Get("/", h.getOnline)
			r.Post("/join", h.joinOnline)
			r.Post("/leave", h.leaveOnline)
			r.Post("/moves", h.playOnline)
			r.Post("/restart", h.restartOnline)
			r.Get("/board.png", h.onlineBoard)
			r.Get("/ws", h.watchOnline)
		})

		r.Route("/players/{wallet}", func(r chi.Router) {
			r.Get("/", h.getPlayer)
			r.Put("/nickname", h.setNickname)
			r.Get("/matches", h.playerMatches)
		})
		r.Get("/leaderboard", h.leaderboard)
	})
	return r
}

func (h *handlers) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.Logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
