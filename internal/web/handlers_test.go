package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/internal/ledger"
	"github.com/Ademileke12/xo-base-mini-app/internal/msgcat"
	"github.com/Ademileke12/xo-base-mini-app/internal/online"
	"github.com/Ademileke12/xo-base-mini-app/internal/realtime"
	"github.com/Ademileke12/xo-base-mini-app/internal/render"
	"github.com/Ademileke12/xo-base-mini-app/internal/session"
	"github.com/Ademileke12/xo-base-mini-app/pkg/xodto"
)

const (
	alice = "0xA11CE00000000000000000000000000000000001"
	bob   = "0xB0B0000000000000000000000000000000000002"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	l, err := ledger.NewService(ledger.NewMemoryRepository(), ledger.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	sessions, err := session.NewService(session.NewMemoryStore(time.Hour), game.NewEngine(game.WithSeed(1)), l,
		session.Config{DefaultDifficulty: game.Maximum}, nil)
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := online.NewManager(online.NewMemoryStore(), l, nil, online.WithCoin(func() bool { return true }))
	if err != nil {
		t.Fatal(err)
	}
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(Deps{
		Sessions: sessions,
		Online:   mgr,
		Ledger:   l,
		Hub:      realtime.NewHub(mgr, nil),
		Renderer: render.NewPNGRenderer(),
		Catalog:  cat,
	})
}

func do(t *testing.T, h http.Handler, method, path, who string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if who != "" {
		req.Header.Set(WalletHeader, who)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestAISessionFlow(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/api/sessions", alice, xodto.StartSessionRequest{Mode: "ai", Difficulty: "hard"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", rr.Code, rr.Body.String())
	}
	var sess session.Session
	decodeInto(t, rr, &sess)

	rr = do(t, h, http.MethodPost, "/api/sessions/"+sess.ID+"/moves", "", xodto.MoveRequest{Index: 0})
	if rr.Code != http.StatusOK {
		t.Fatalf("move: %d %s", rr.Code, rr.Body.String())
	}
	var res session.PlayResult
	decodeInto(t, rr, &res)
	if !res.AIPlayed || res.AIMove != 4 {
		t.Fatalf("expected engine to take the center, got %+v", res)
	}

	rr = do(t, h, http.MethodPost, "/api/sessions/"+sess.ID+"/moves", "", xodto.MoveRequest{Index: 4})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("occupied move status=%d", rr.Code)
	}
	var e xodto.ErrorResponse
	decodeInto(t, rr, &e)
	if e.Kind != xodto.KindIllegalMove {
		t.Fatalf("kind=%s", e.Kind)
	}

	rr = do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/board.png", "", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("board png: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}

	rr = do(t, h, http.MethodGet, "/api/sessions/nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown session status=%d", rr.Code)
	}
}

func TestOnlineFlowAndErrors(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/api/online", "", xodto.CreateOnlineRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing wallet status=%d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/api/online", alice, xodto.CreateOnlineRequest{StakePoints: 250})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	var created gameResponse
	decodeInto(t, rr, &created)
	code := created.Game.Code
	if !strings.HasPrefix(created.Message, "Points Match "+code+" created with 250 XO stake") {
		t.Fatalf("create message=%q", created.Message)
	}

	rr = do(t, h, http.MethodPost, "/api/online/"+code+"/join", alice, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("host join status=%d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/api/online/"+code+"/join", bob, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("join: %d %s", rr.Code, rr.Body.String())
	}
	var joined joinResponse
	decodeInto(t, rr, &joined)
	if joined.Symbol != "O" || joined.Message != "Joined Game "+code+". You are O. Good luck!" {
		t.Fatalf("join response %+v", joined.JoinOnlineResponse)
	}

	rr = do(t, h, http.MethodPost, "/api/online/"+code+"/moves", bob, xodto.MoveRequest{Index: 0})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wrong turn status=%d", rr.Code)
	}
	for i, idx := range []int{0, 3, 1, 4, 2} {
		who := alice
		if i%2 == 1 {
			who = bob
		}
		rr = do(t, h, http.MethodPost, "/api/online/"+code+"/moves", who, xodto.MoveRequest{Index: idx})
		if rr.Code != http.StatusOK {
			t.Fatalf("move %d: %d %s", i, rr.Code, rr.Body.String())
		}
	}

	rr = do(t, h, http.MethodGet, "/api/players/"+alice, "", nil)
	var card ledger.Card
	decodeInto(t, rr, &card)
	if card.Profile.XOPoints != ledger.DefaultXOPoints+250 || card.Profile.Stats.OnlineWins != 1 {
		t.Fatalf("winner card %+v", card.Profile)
	}

	rr = do(t, h, http.MethodGet, "/api/leaderboard?by=points", "", nil)
	var cards []ledger.Card
	decodeInto(t, rr, &cards)
	if len(cards) != 2 || cards[0].Profile.Wallet != strings.ToLower(alice) {
		t.Fatalf("leaderboard %+v", cards)
	}

	rr = do(t, h, http.MethodGet, "/api/leaderboard?by=elo", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad board status=%d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/api/online/"+code+"/restart", bob, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("restart by O status=%d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/online/ZZZZZZZZ", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown game status=%d", rr.Code)
	}
}

func TestNicknameOwnership(t *testing.T) {
	h := newTestServer(t)
	rr := do(t, h, http.MethodPut, "/api/players/"+alice+"/nickname", bob, xodto.NicknameRequest{Nickname: "Mallory"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status=%d", rr.Code)
	}
	rr = do(t, h, http.MethodPut, "/api/players/"+alice+"/nickname", alice, xodto.NicknameRequest{Nickname: "  Alice   Cooper "})
	if rr.Code != http.StatusOK {
		t.Fatalf("rename: %d %s", rr.Code, rr.Body.String())
	}
	var card ledger.Card
	decodeInto(t, rr, &card)
	if card.Profile.Nickname != "Alice Cooper" {
		t.Fatalf("nickname=%q", card.Profile.Nickname)
	}
}

func TestHealthz(t *testing.T) {
	rr := do(t, newTestServer(t), http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthz: %d %s", rr.Code, rr.Body.String())
	}
}
