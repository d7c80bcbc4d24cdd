package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Ademileke12/xo-base-mini-app/internal/online"
)

// Source is the online game feed the hub relays.
type Source interface {
	Get(ctx context.Context, code string) (*online.Game, error)
	Subscribe(ctx context.Context, code string) (<-chan *online.Game, func(), error)
}

// Event is one frame sent to a watcher.
type Event struct {
	Type string       `json:"type"` // snapshot | update
	Game *online.Game `json:"game"`
}

type Hub struct {
	src          Source
	logger       *zap.Logger
	origins      []string
	pingInterval time.Duration
	writeTimeout time.Duration
	active       atomic.Int64
}

type Option func(*Hub)

// WithOriginPatterns allows cross-origin upgrades from the given host patterns.
func WithOriginPatterns(p ...string) Option { return func(h *Hub) { h.origins = p } }

func WithPingInterval(d time.Duration) Option { return func(h *Hub) { h.pingInterval = d } }

func NewHub(src Source, logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{src: src, logger: logger, pingInterval: 30 * time.Second, writeTimeout: 5 * time.Second}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Active is the number of open watcher connections.
func (h *Hub) Active() int64 { return h.active.Load() }

// ServeGame upgrades the request and streams snapshots of code until either side closes.
// The feed is subscribed before the snapshot is read so no commit falls between them.
func (h *Hub) ServeGame(w http.ResponseWriter, r *http.Request, code string) {
	events, cancel, err := h.src.Subscribe(r.Context(), code)
	if err != nil {
		h.httpError(w, code, err)
		return
	}
	defer cancel()

	g, err := h.src.Get(r.Context(), code)
	if err != nil {
		h.httpError(w, code, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.origins,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Warn("ws_accept_failed", zap.String("code", code), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	h.active.Add(1)
	defer h.active.Add(-1)

	// watchers never send; CloseRead handles control frames and cancels ctx on close
	ctx := conn.CloseRead(r.Context())

	if err := h.write(ctx, conn, Event{Type: "snapshot", Game: g}); err != nil {
		return
	}
	h.logger.Debug("ws_watch_start", zap.String("code", g.Code))

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if err := h.write(ctx, conn, Event{Type: "update", Game: snap}); err != nil {
				h.logger.Debug("ws_write_failed", zap.String("code", g.Code), zap.Error(err))
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) httpError(w http.ResponseWriter, code string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, online.ErrGameNotFound) {
		status = http.StatusNotFound
	} else {
		h.logger.Warn("ws_subscribe_failed", zap.String("code", code), zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, ev Event) error {
	wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, ev)
}
