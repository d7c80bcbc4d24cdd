package xopresenter

import (
	"context"
	"strings"

	"github.com/Ademileke12/xo-base-mini-app/internal/game"
	"github.com/Ademileke12/xo-base-mini-app/internal/render"
)

// Presenter delivers formatted messages and board images without coupling to the caller's transport.
type Presenter struct {
	sendMessage func(message string) error
	sendImage   func(png []byte) error
	renderer    render.BoardRenderer
}

func NewPresenter(sendMessage func(message string) error, sendImage func(png []byte) error, renderer render.BoardRenderer) *Presenter {
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
		renderer:    renderer,
	}
}

// Board sends message, then a PNG of r when an image sink and renderer are configured.
func (p *Presenter) Board(ctx context.Context, message string, r game.TurnResult, lastMove int) error {
	if p == nil {
		return nil
	}
	if text := strings.TrimSpace(message); text != "" && p.sendMessage != nil {
		if err := p.sendMessage(message); err != nil {
			return err
		}
	}
	if p.sendImage == nil || p.renderer == nil {
		return nil
	}
	png, err := p.renderer.RenderPNG(ctx, r.Board, render.Options{Status: r.Message, LastMove: lastMove, Line: r.Line})
	if err != nil {
		return err
	}
	return p.sendImage(png)
}
