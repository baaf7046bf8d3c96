package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/opengl"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// How long the loop sleeps per iteration while the window is minimized.
const suspendedSleepMS = 10.0

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *config.Config
	isRunning     bool
	isSuspended   bool
	quitRequested atomic.Bool
	platform      *platform.Platform
	device        *opengl.OpenGLDevice
	renderer      *renderer.Renderer
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	events        *core.EventSystem
	input         *core.Input
	metrics       *core.Metrics
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
	sleep         func(ms float64)
}

func New(g *Game, cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(cfg.Application.LogLevel); err != nil {
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	events := core.NewEventSystem()

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		clock:        core.NewClock(),
		platform:     platform.New(events),
		assetManager: am,
		events:       events,
		input:        core.NewInput(),
		metrics:      core.NewMetrics(),
		isRunning:    true,
		isSuspended:  false,
		width:        cfg.Application.StartWidth,
		height:       cfg.Application.StartHeight,
		lastTime:     0,
	}
	e.sleep = e.platform.Sleep
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	app := e.config.Application

	// register some events
	e.input.Register(e.events)
	e.events.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	e.events.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	e.events.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	if err := e.platform.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight, app.VSync); err != nil {
		return err
	}

	device, err := opengl.New(e.platform, opengl.Options{})
	if err != nil {
		return err
	}
	e.device = device

	// initialize subsystems
	if err := e.assetManager.Initialize(e.config.Assets.Directory, e.config.Assets.Watch); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(e.assetManager, e.device)
	if err != nil {
		return err
	}
	if err := sm.Initialize(); err != nil {
		return err
	}
	e.systemManager = sm

	e.renderer = renderer.New(e.device, renderer.Config{
		Capacity:           e.config.Renderer.Capacity,
		LegacyScaledHeight: e.config.Renderer.LegacyScaledHeight,
	})
	fragmentSource, vertexSource, err := e.loadShaderSources()
	if err != nil {
		return err
	}
	if err := e.renderer.Init(fragmentSource, vertexSource); err != nil {
		return err
	}

	// The framebuffer can be larger than the window on high density displays.
	width, height := e.platform.FramebufferSize()
	e.width, e.height = uint32(width), uint32(height)

	g := e.gameInstance
	g.Config = e.config
	g.Renderer = e.renderer
	g.SystemManager = e.systemManager
	g.Input = e.input
	g.Metrics = e.metrics

	if err := g.FnInitialize(); err != nil {
		return err
	}
	if g.FnOnResize != nil {
		if err := g.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) loadShaderSources() (string, string, error) {
	fragmentSource, err := e.assetManager.LoadText(e.config.Renderer.FragmentShader)
	if err != nil {
		return "", "", err
	}
	vertexSource, err := e.assetManager.LoadText(e.config.Renderer.VertexShader)
	if err != nil {
		return "", "", err
	}
	return fragmentSource, vertexSource, nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running: %w", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()

	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if !e.config.Application.VSync && e.config.Application.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / float64(e.config.Application.TargetFPS)
	}

	for e.isRunning {
		if !e.platform.PumpMessages() || e.quitRequested.Load() {
			e.isRunning = false
			break
		}
		e.events.ProcessEvents()
		e.checkShaderChanges()

		if e.waitWhileSuspended() {
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		var currentTime float64 = e.clock.Elapsed()
		var delta float64 = (currentTime - e.lastTime)
		var frameStartTime float64 = platform.GetAbsoluteTime()

		if err := e.frame(delta); err != nil {
			core.LogError("game frame failed, shutting down: %s", err)
			e.isRunning = false
			return err
		}

		e.platform.SwapBuffers()

		// Figure out how long the frame took and, if below the target, give
		// the rest back to the OS.
		var frameElapsedTime float64 = platform.GetAbsoluteTime() - frameStartTime
		e.metrics.Update(frameElapsedTime)
		if ms := sleepBudgetMS(targetFrameSeconds, frameElapsedTime); ms > 0 {
			e.sleep(ms)
		}

		// Input state copying is the last thing to happen in a frame.
		e.input.Update()

		// Update last time
		e.lastTime = currentTime
	}

	return nil
}

// waitWhileSuspended sleeps a little and reports true while the window is
// minimized.
func (e *Engine) waitWhileSuspended() bool {
	if !e.isSuspended {
		return false
	}
	e.sleep(suspendedSleepMS)
	return true
}

// sleepBudgetMS is how long the loop may sleep after a frame that took
// frameElapsed seconds, keeping one millisecond back for the scheduler.
func sleepBudgetMS(targetFrameSeconds, frameElapsed float64) float64 {
	if targetFrameSeconds <= 0 {
		return 0
	}
	return math.Clamp((targetFrameSeconds-frameElapsed)*1000-1, 0, targetFrameSeconds*1000)
}

// frame runs the game callbacks in render, update, input order.
func (e *Engine) frame(delta float64) error {
	g := e.gameInstance

	if err := e.renderer.Clear(); err != nil {
		return err
	}
	if err := g.FnRender(e.renderer, delta); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if e.renderer.IsDrawing() {
		core.LogWarn("game render returned in the middle of a batch, closing it")
		if err := e.renderer.End(); err != nil {
			return err
		}
	}
	stats := e.renderer.Stats()
	e.metrics.RecordBatch(core.BatchMetrics{
		Quads:           stats.Quads,
		Vertices:        stats.Vertices,
		DrawCalls:       stats.DrawCalls,
		ImplicitFlushes: stats.ImplicitFlushes,
	})

	if err := g.FnUpdate(delta); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if g.FnInput != nil {
		if err := g.FnInput(e.input); err != nil {
			return fmt.Errorf("input: %w", err)
		}
	}
	return nil
}

// checkShaderChanges rebuilds the sprite program when one of its sources
// changed on disk.
func (e *Engine) checkShaderChanges() {
	if !e.config.Renderer.HotReload || !e.config.Assets.Watch {
		return
	}
	reload := false
	for {
		select {
		case name, ok := <-e.assetManager.Changes():
			if !ok {
				return
			}
			if name == e.config.Renderer.VertexShader || name == e.config.Renderer.FragmentShader {
				reload = true
			}
			continue
		default:
		}
		break
	}
	if !reload {
		return
	}
	fragmentSource, vertexSource, err := e.loadShaderSources()
	if err != nil {
		core.LogError("failed to read sprite shaders: %s", err)
		return
	}
	if err := e.renderer.ReloadShaders(fragmentSource, vertexSource); err != nil {
		core.LogError("sprite shaders not reloaded, keeping the previous program: %s", err)
	}
}

// RequestQuit asks the main loop to stop at the next frame. Safe to call
// from any goroutine.
func (e *Engine) RequestQuit() {
	e.quitRequested.Store(true)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error

	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.systemManager != nil {
		errs = append(errs, e.systemManager.Shutdown())
	}
	if e.renderer != nil {
		if err := e.renderer.Dispose(); err != nil && !errors.Is(err, core.ErrNotInitialized) {
			errs = append(errs, err)
		}
	}
	if e.device != nil {
		e.device.Release()
	}
	errs = append(errs, e.assetManager.Shutdown())
	errs = append(errs, e.events.Shutdown())
	errs = append(errs, e.platform.Shutdown())

	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		e.quitRequested.Store(true)
	}
}

func (e *Engine) onKey(context core.EventContext) {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.EventFire(core.EventContext{
			Type: core.EVENT_CODE_APPLICATION_QUIT,
		})
	}
}

func (e *Engine) onResized(context core.EventContext) {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	width := se.WindowWidth
	height := se.WindowHeight

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.renderer != nil {
		if err := e.renderer.Resize(int(width), int(height)); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
}
