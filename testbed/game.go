package testbed

import (
	"fmt"
	"image/color"
	stdmath "math"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/text"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

const (
	spriteName = "textures/sprite.png"
	fontName   = "fonts/mono.fnt"
	// Enough sprites to overflow the default staging buffer a few times.
	fieldSize = 2048
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32
	time   float64

	sprite *systems.Texture
	font   *text.Font
	atlas  *systems.Texture

	showStats bool
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				showStats: true,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnInput = tg.Input
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers ")
	}

	state := g.State.(*gameState)

	sprite, err := g.SystemManager.TextureSystem.Acquire(spriteName, true)
	if err != nil {
		core.LogWarn("failed to load '%s', drawing the default texture instead: %s", spriteName, err)
		sprite = g.SystemManager.TextureSystem.GetDefaultTexture()
	}
	state.sprite = sprite

	font, err := g.SystemManager.FontSystem.Acquire(fontName)
	if err != nil {
		core.LogWarn("failed to load '%s', stats text disabled: %s", fontName, err)
		return nil
	}
	atlas, _ := g.SystemManager.FontSystem.Atlas(fontName)
	state.font = font
	state.atlas = atlas

	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.time += deltaTime
	return nil
}

func (g *TestGame) Render(r *renderer.Renderer, deltaTime float64) error {
	state := g.State.(*gameState)

	if err := r.Begin(); err != nil {
		return err
	}
	state.sprite.Bind()

	if err := r.DrawTexture(state.sprite, 20, 20); err != nil {
		return err
	}
	if err := r.DrawTextureColored(state.sprite, 120, 20, color.RGBA{R: 255, G: 96, B: 96, A: 255}); err != nil {
		return err
	}
	if err := r.DrawTextureScaled(state.sprite, 220, 20, 2, 2); err != nil {
		return err
	}

	// A rotating field of small sprites, larger than a single batch.
	center := math.NewVec2(float32(state.width)/2, float32(state.height)/2)
	for i := 0; i < fieldSize; i++ {
		angle := state.time*0.5 + float64(i)*0.05
		radius := float32(20 + i/8)
		dir := math.NewVec2(float32(stdmath.Cos(angle)), float32(stdmath.Sin(angle)))
		pos := center.Add(dir.Mul(math.NewVec2(radius, radius)))
		shade := uint8(64 + (i*191)/fieldSize)
		q := renderer.NewRectQuad(pos.X, pos.Y, 8, 8, renderer.FullTexRect, color.RGBA{R: shade, G: 255 - shade, B: 200, A: 255})
		q.PosInGame = &pos
		if err := r.DrawQuad(q); err != nil {
			return err
		}
	}

	if state.showStats && state.font != nil {
		// Everything so far used the sprite texture.
		if err := r.Flush(); err != nil {
			return err
		}
		state.atlas.Bind()
		stats := g.Metrics.Batch()
		line := fmt.Sprintf("FPS: %.0f\nquads: %d draws: %d flushes: %d",
			g.Metrics.FPS(), stats.Quads, stats.DrawCalls, stats.ImplicitFlushes)
		// Anchored to the top right corner.
		w, _ := text.Measure(state.font, line)
		if err := text.Draw(r, state.font, line, float32(state.width)-w-10, float32(state.height)-10, color.White); err != nil {
			return err
		}
	}

	return r.End()
}

func (g *TestGame) Input(input *core.Input) error {
	state := g.State.(*gameState)
	if input.WasKeyPressed(core.KEY_F1) {
		state.showStats = !state.showStats
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	if state.font != nil {
		g.SystemManager.FontSystem.Release(fontName)
	}
	if state.sprite != nil && state.sprite.Name == spriteName {
		g.SystemManager.TextureSystem.Release(spriteName)
	}
	return nil
}
