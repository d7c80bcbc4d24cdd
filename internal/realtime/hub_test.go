package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/ledger"
	"github.com/Ademileke12/xo-base-mini-app/internal/online"
)

func newManager(t *testing.T) *online.Manager {
	t.Helper()
	l, err := ledger.NewService(ledger.NewMemoryRepository(), ledger.Config{}, nil)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	m, err := online.NewManager(online.NewMemoryStore(), l, nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestHubStreamsSnapshotThenUpdates(t *testing.T) {
	mgr := newManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, err := mgr.Create(ctx, "0xaaaa0001", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	hub := NewHub(mgr, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeGame(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + g.Code
	var got []Event
	err = Watch(ctx, url, nil, func(ev Event) bool {
		got = append(got, ev)
		if ev.Type == "snapshot" {
			if _, _, err := mgr.Join(ctx, g.Code, "0xbbbb0002"); err != nil {
				t.Errorf("join: %v", err)
				return false
			}
			return true
		}
		return false
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events=%d want 2", len(got))
	}
	if got[0].Game.Ready() || !got[1].Game.Ready() {
		t.Fatalf("unexpected seat state: %+v / %+v", got[0].Game, got[1].Game)
	}
	if got[1].Type != "update" {
		t.Fatalf("second event type=%s", got[1].Type)
	}
}

// joinAfterGet commits a join right after the snapshot has been read.
type joinAfterGet struct {
	*online.Manager
	once   sync.Once
	wallet string
	err    error
}

func (s *joinAfterGet) Get(ctx context.Context, code string) (*online.Game, error) {
	g, err := s.Manager.Get(ctx, code)
	s.once.Do(func() { _, _, s.err = s.Manager.Join(ctx, code, s.wallet) })
	return g, err
}

func TestHubDeliversCommitAfterSnapshotRead(t *testing.T) {
	mgr := newManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, err := mgr.Create(ctx, "0xaaaa0001", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	src := &joinAfterGet{Manager: mgr, wallet: "0xbbbb0002"}
	hub := NewHub(src, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeGame(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + g.Code
	var last *online.Game
	err = Watch(ctx, url, nil, func(ev Event) bool {
		last = ev.Game
		return !ev.Game.Ready()
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if src.err != nil {
		t.Fatalf("join: %v", src.err)
	}
	if last == nil || !last.Ready() {
		t.Fatalf("watcher never saw the committed join: %+v", last)
	}
}

func TestHubUnknownGame(t *testing.T) {
	hub := NewHub(newManager(t), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/NOPE", nil)
	hub.ServeGame(rec, req, "NOPE")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}
