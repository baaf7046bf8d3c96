package engine

import (
	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

// Game is the set of callbacks the engine drives every frame. The engine
// fills in Config, Renderer, SystemManager, Input and Metrics before
// FnInitialize is called.
type Game struct {
	Config        *config.Config
	Renderer      *renderer.Renderer
	SystemManager *systems.SystemManager
	Input         *core.Input
	Metrics       *core.Metrics
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnInput       Input
	FnOnResize    OnResize
	FnShutdown    Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(r *renderer.Renderer, deltaTime float64) error
type Input func(input *core.Input) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
