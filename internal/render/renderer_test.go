package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
)

func decode(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

func TestRenderPNGDimensions(t *testing.T) {
	r := NewPNGRenderer()
	raw, err := r.RenderPNG(context.Background(), game.Board{}, Options{Title: "XO", LastMove: -1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decode(t, raw)
	if got, want := img.Bounds().Size(), Size(); got != want {
		t.Fatalf("size=%v want %v", got, want)
	}
}

func TestRenderPNGDrawsMarksAndLine(t *testing.T) {
	r := NewPNGRenderer()
	ctx := context.Background()
	origin := image.Pt(sideMargin, topMargin)

	empty := decode(t, mustRender(t, r, ctx, game.Board{}))
	won := game.Board{game.X, game.X, game.X, game.O, game.O}
	full := decode(t, mustRender(t, r, ctx, won))

	// the X stroke passes through the middle of its cell
	cx, cy := cellCenter(0, origin)
	if empty.At(int(cx), int(cy)) == full.At(int(cx), int(cy)) {
		t.Fatalf("cell 0 unchanged after placing X")
	}

	// the winning line crosses the grid between cells 0 and 1
	gx := origin.X + cellSize
	lineClr := full.At(gx, int(cy))
	lr, lg, lb, _ := lineClr.RGBA()
	wr, wg, wb, _ := winLineColor.RGBA()
	if !near(lr, wr) || !near(lg, wg) || !near(lb, wb) {
		t.Fatalf("expected win line color at grid crossing, got %v", lineClr)
	}
}

func mustRender(t *testing.T, r BoardRenderer, ctx context.Context, b game.Board) []byte {
	t.Helper()
	raw, err := r.RenderPNG(ctx, b, Options{Status: "Game Over! Player X Wins! 🎉", LastMove: 2})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return raw
}

func TestRenderPNGCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPNGRenderer().RenderPNG(ctx, game.Board{}, Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestASCIIOnly(t *testing.T) {
	if got := asciiOnly("It's a Draw! 🤝"); got != "It's a Draw!" {
		t.Fatalf("asciiOnly=%q", got)
	}
}

func near(a, b uint32) bool {
	d := int64(a) - int64(b)
	return d > -4*0x101 && d < 4*0x101
}
