package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
)

//go:embed assets/*.svg
var markFiles embed.FS

type markCacheKey struct {
	mark game.Cell
	size int
}

var (
	markCache   = map[markCacheKey]image.Image{}
	markCacheMu sync.RWMutex
)

func renderMark(mark game.Cell, size int) (image.Image, error) {
	if !mark.IsSymbol() {
		return nil, fmt.Errorf("no asset for cell %d", mark)
	}
	key := markCacheKey{mark: mark, size: size}

	markCacheMu.RLock()
	if img, ok := markCache[key]; ok {
		markCacheMu.RUnlock()
		return img, nil
	}
	markCacheMu.RUnlock()

	name := "assets/" + map[game.Cell]string{game.X: "x", game.O: "o"}[mark] + ".svg"
	data, err := markFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read mark asset %s: %w", name, err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(data)))
	if err != nil {
		return nil, fmt.Errorf("parse mark svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	markCacheMu.Lock()
	markCache[key] = img
	markCacheMu.Unlock()
	return img, nil
}
