package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
)

type Options struct {
	Title    string
	Status   string
	LastMove int // -1 for none
	// Line overrides the highlighted line. When nil the board's winning line is used.
	Line *game.Line
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board game.Board, opts Options) ([]byte, error)
}

type pngRenderer struct{}

func NewPNGRenderer() BoardRenderer { return &pngRenderer{} }

const (
	cellSize     = 120
	boardCells   = 3
	boardSize    = cellSize * boardCells
	sideMargin   = 30
	topMargin    = 96
	bottomMargin = 30
	gridWidth    = 6
	markInset    = 14
	panelHeight  = 28
	panelGap     = 10
	panelRadius  = 10
	panelPadX    = 18
	lineWidth    = 10.0
)

var (
	backgroundColor = color.RGBA{24, 26, 38, 255}
	cellColor       = color.RGBA{36, 39, 56, 255}
	gridColor       = color.RGBA{70, 76, 104, 255}
	lastMoveColor   = color.NRGBA{R: 255, G: 228, B: 120, A: 60}
	winLineColor    = color.NRGBA{R: 255, G: 214, B: 90, A: 255}
	hudPanelColor   = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudShadowColor  = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextStatus   = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
)

// Size is the pixel size of every rendered image.
func Size() image.Point {
	return image.Pt(boardSize+sideMargin*2, boardSize+topMargin+bottomMargin)
}

func (r *pngRenderer) RenderPNG(ctx context.Context, board game.Board, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := Size()
	origin := image.Pt(sideMargin, topMargin)
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawHUD(img, boardRect, opts)
	drawCells(img, origin, opts.LastMove)
	if err := drawMarks(img, board, origin); err != nil {
		return nil, err
	}

	line := opts.Line
	if line == nil {
		if w := game.Winner(board); w != game.Empty {
			if l, ok := game.WinningLine(board, w); ok {
				line = &l
			}
		}
	}
	if line != nil {
		drawWinLine(img, *line, origin)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func cellRect(idx int, origin image.Point) image.Rectangle {
	x := origin.X + (idx%boardCells)*cellSize
	y := origin.Y + (idx/boardCells)*cellSize
	return image.Rect(x, y, x+cellSize, y+cellSize)
}

func cellCenter(idx int, origin image.Point) (float64, float64) {
	r := cellRect(idx, origin)
	return float64(r.Min.X) + cellSize/2, float64(r.Min.Y) + cellSize/2
}

func drawCells(img *image.RGBA, origin image.Point, lastMove int) {
	for i := 0; i < game.Size; i++ {
		imagedraw.Draw(img, cellRect(i, origin), image.NewUniform(cellColor), image.Point{}, imagedraw.Src)
	}
	if lastMove >= 0 && lastMove < game.Size {
		imagedraw.Draw(img, cellRect(lastMove, origin), image.NewUniform(lastMoveColor), image.Point{}, imagedraw.Over)
	}
	grid := image.NewUniform(gridColor)
	for k := 1; k < boardCells; k++ {
		off := k*cellSize - gridWidth/2
		imagedraw.Draw(img, image.Rect(origin.X+off, origin.Y, origin.X+off+gridWidth, origin.Y+boardSize), grid, image.Point{}, imagedraw.Src)
		imagedraw.Draw(img, image.Rect(origin.X, origin.Y+off, origin.X+boardSize, origin.Y+off+gridWidth), grid, image.Point{}, imagedraw.Src)
	}
}

func drawMarks(img *image.RGBA, board game.Board, origin image.Point) error {
	markSize := cellSize - markInset*2
	for i, c := range board {
		if c == game.Empty {
			continue
		}
		mark, err := renderMark(c, markSize)
		if err != nil {
			return err
		}
		r := cellRect(i, origin).Inset(markInset)
		imagedraw.Draw(img, r, mark, image.Point{}, imagedraw.Over)
	}
	return nil
}

// drawWinLine strokes from the first to the last cell of l with round ends.
func drawWinLine(img *image.RGBA, l game.Line, origin image.Point) {
	x0, y0 := cellCenter(l[0], origin)
	x1, y1 := cellCenter(l[2], origin)
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	// half-width normal
	nx, ny := -dy/length*lineWidth/2, dx/length*lineWidth/2

	b := img.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b)
	filler := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	filler.SetColor(winLineColor)
	filler.Start(toFixed(x0+nx, y0+ny))
	filler.Line(toFixed(x1+nx, y1+ny))
	filler.Line(toFixed(x1-nx, y1-ny))
	filler.Line(toFixed(x0-nx, y0-ny))
	filler.Stop(true)
	filler.Draw()
	for _, c := range [][2]float64{{x0, y0}, {x1, y1}} {
		filler.Clear()
		rasterx.AddCircle(c[0], c[1], lineWidth/2, filler)
		filler.Draw()
	}
}

func toFixed(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

func drawHUD(img *image.RGBA, boardRect image.Rectangle, opts Options) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}

	title := asciiOnly(opts.Title)
	if title == "" {
		title = "Tic-Tac-Toe"
	}
	status := asciiOnly(opts.Status)

	statusBottom := boardRect.Min.Y - panelGap*2
	statusTop := statusBottom - panelHeight
	titleBottom := statusTop - panelGap
	titleTop := titleBottom - panelHeight

	titleRect := panelRect(drawer, title, boardRect, titleTop, titleBottom)
	drawRoundedPanel(img, titleRect.Add(image.Pt(0, 4)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, truncateWithEllipsis(face, title, titleRect.Dx()-panelPadX*2), hudTextPrimary)

	if status != "" {
		statusRect := panelRect(drawer, status, boardRect, statusTop, statusBottom)
		drawRoundedPanel(img, statusRect.Add(image.Pt(0, 4)), panelRadius, hudShadowColor)
		drawRoundedPanel(img, statusRect, panelRadius, hudPanelColor)
		drawCenteredString(drawer, statusRect, truncateWithEllipsis(face, status, statusRect.Dx()-panelPadX*2), hudTextStatus)
	}
}

func panelRect(drawer *font.Drawer, text string, boardRect image.Rectangle, top, bottom int) image.Rectangle {
	w := drawer.MeasureString(text).Round() + panelPadX*2
	if w > boardRect.Dx() {
		w = boardRect.Dx()
	}
	left := boardRect.Min.X + (boardRect.Dx()-w)/2
	return image.Rect(left, top, left+w, bottom)
}

// asciiOnly drops runes the bitmap face cannot draw, such as emoji.
func asciiOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	if text == "" || maxWidth <= 0 {
		return text
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(text).Round() <= maxWidth {
		return text
	}
	const ellipsis = "..."
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	if m := min(rect.Dx(), rect.Dy()) / 2; radius > m {
		radius = m
	}
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	// corner quarter discs, skipping pixels already covered by the rectangles
	corners := []struct {
		c      image.Point
		sx, sy int
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), -1, -1},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), 1, -1},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), -1, 1},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), 1, 1},
	}
	r2 := radius * radius
	for _, k := range corners {
		for y := 1; y <= radius; y++ {
			for x := 1; x <= radius; x++ {
				if x*x+y*y > r2 {
					continue
				}
				blendPixel(img, k.c.X+k.sx*x, k.c.Y+k.sy*y, clr)
			}
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/65535) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/65535) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/65535) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/65535) >> 8),
	})
}
