package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/Ademileke12/xo-base-mini-app/internal/adapter/xopresenter"
	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/internal/msgcat"
	"github.com/Ademileke12/xo-base-mini-app/internal/realtime"
	"github.com/Ademileke12/xo-base-mini-app/internal/render"
	"github.com/Ademileke12/xo-base-mini-app/internal/session"
)

func main() {
	mode := flag.String("mode", "ai", "ai or local")
	difficulty := flag.String("difficulty", "standard", "standard or maximum")
	seed := flag.Uint64("seed", 0, "engine seed (0 uses the clock)")
	selfplay := flag.Bool("selfplay", false, "let the engine play both sides")
	pngPath := flag.String("png", "", "write the board image to this file after every move")
	watch := flag.String("watch", "", "ws:// URL of an online game to follow")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	catalog, err := msgcat.New(os.Getenv("MSG_CATALOG_DIR"))
	if err != nil {
		log.Fatalf("messages: %v", err)
	}
	formatter := xopresenter.NewFormatter(catalog)

	var sendImage func([]byte) error
	if *pngPath != "" {
		sendImage = func(png []byte) error { return os.WriteFile(*pngPath, png, 0o644) }
	}
	presenter := xopresenter.NewPresenter(
		func(message string) error { _, err := fmt.Println(message); return err },
		sendImage,
		render.NewPNGRenderer(),
	)

	if *watch != "" {
		err := realtime.Watch(ctx, *watch, nil, func(ev realtime.Event) bool {
			if ev.Game == nil {
				return true
			}
			turn := game.TurnResult{Board: ev.Game.Board, XNext: ev.Game.XNext, Winner: ev.Game.Winner, Line: ev.Game.Line, Terminal: ev.Game.Terminal, Message: ev.Game.Message}
			_ = presenter.Board(ctx, formatter.Turn(turn), turn, -1)
			return true
		})
		if err != nil {
			log.Fatalf("watch: %v", err)
		}
		return
	}

	var opts []game.EngineOption
	if *seed != 0 {
		opts = append(opts, game.WithSeed(*seed))
	}
	engine := game.NewEngine(opts...)
	d, err := game.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *selfplay {
		runSelfPlay(ctx, engine, d, presenter, formatter)
		return
	}

	m, err := session.ParseMode(*mode)
	if err != nil {
		log.Fatalf("%v", err)
	}
	svc, err := session.NewService(session.NewMemoryStore(time.Hour), engine, nil, session.Config{DefaultDifficulty: d}, nil)
	if err != nil {
		log.Fatalf("%v", err)
	}
	sess, err := svc.Start(ctx, m, string(d), "")
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(formatter.SessionStart(sess.Difficulty, m == session.ModeAI))
	_ = presenter.Board(ctx, formatter.Turn(sess.Turn), sess.Turn, -1)

	in := bufio.NewScanner(os.Stdin)
	for !sess.Turn.Terminal {
		fmt.Print("cell> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "q", "quit":
			return
		}
		idx, err := strconv.Atoi(line)
		if err != nil {
			fmt.Println("Enter a cell number 0-8.")
			continue
		}
		res, err := svc.Play(ctx, sess.ID, idx)
		if err != nil {
			fmt.Println(err)
			continue
		}
		sess = res.Session
		last := idx
		if res.AIPlayed {
			fmt.Println(formatter.AIMove(res.AIMove))
			last = res.AIMove
		}
		_ = presenter.Board(ctx, formatter.Turn(sess.Turn), sess.Turn, last)
	}
}

func runSelfPlay(ctx context.Context, engine *game.Engine, d game.Difficulty, p *xopresenter.Presenter, f *xopresenter.Formatter) {
	turn := game.NewGame()
	for !turn.Terminal && ctx.Err() == nil {
		mover := game.ToMove(turn.XNext)
		idx, ok := engine.BestMove(turn.Board, mover, mover.Opponent(), d)
		if !ok {
			return
		}
		next, err := game.ApplyMove(turn.Board, turn.XNext, idx, mover)
		if err != nil {
			log.Fatalf("engine move: %v", err)
		}
		turn = next
		_ = p.Board(ctx, fmt.Sprintf("%s -> %d\n%s", mover, idx, f.Turn(turn)), turn, idx)
	}
}
