package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/profiler"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/xlab/closer"
)

// DefaultMaxFrameFailures is how many consecutive failed frames stop Run.
const DefaultMaxFrameFailures = 30

// shutdownTimeout bounds how long a signal handler waits for the frame loop to release resources.
const shutdownTimeout = 5 * time.Second

var (
	// ErrNoWindow is returned by Run when the engine was built without a window.
	ErrNoWindow = errors.New("engine: no window")

	// ErrFramePanic wraps a panic recovered while stepping a frame.
	ErrFramePanic = errors.New("engine: frame panicked")
)

// engine implements the Engine interface.
// Drives the window, input controller and renderer from a single frame thread.
type engine struct {
	window     window.Window
	renderer   renderer.Renderer
	controller camera.CameraController

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrameFailures int

	quitChannel  chan struct{}
	quitOnce     sync.Once
	done         chan struct{}
	teardownOnce sync.Once

	now   func() time.Time
	frame uint64
}

// Engine is the main entry point for an application.
// It owns the window and renderer and steps them once per frame:
// poll events, camera input, game logic and scene update, then render.
type Engine interface {
	// Window returns the underlying window, nil when built without one.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer the engine drives.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Controller returns the controller turning window input into camera movement.
	//
	// Returns:
	//   - camera.CameraController: the controller
	Controller() camera.CameraController

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickCallback registers the function called each frame between input handling and the
	// scene update. Use this for game logic.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Step runs one frame: the controller's input goes to Renderer.HandleInput, then the tick
	// callback, Renderer.Update and Renderer.Render. A panic inside the frame is recovered and
	// returned wrapped in ErrFramePanic.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: the render failure or recovered panic of this frame
	Step(deltaTime float32) error

	// Run initializes the renderer if needed and steps frames until the window closes, Quit is
	// called, a termination signal arrives, or too many consecutive frames fail. The renderer and
	// window are released before Run returns.
	//
	// Returns:
	//   - error: ErrNoWindow, the initialization failure, or the last frame failure when Run gave up
	Run() error

	// Quit asks Run to stop after the current frame.
	// Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options. Panics without a renderer.
// When a window is set, its input is bound to the camera controller and its resize events to
// the renderer.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel:      make(chan struct{}),
		done:             make(chan struct{}),
		maxFrameFailures: DefaultMaxFrameFailures,
		now:              time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		panic("engine: NewEngine requires a renderer")
	}
	if e.controller == nil {
		e.controller = camera.NewCameraController()
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithClock(e.now))
	}

	if e.window != nil {
		window.BindCameraController(e.window, e.controller)
		e.window.SetResizeCallback(func(width, height int) {
			e.renderer.Resize(width, height)
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Controller() camera.CameraController {
	return e.controller
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) Step(deltaTime float32) (err error) {
	e.frame++
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] recovered from panic in frame %d: %v", e.frame, r)
			err = fmt.Errorf("%w: frame %d: %v", ErrFramePanic, e.frame, r)
		}
	}()

	start := e.now()
	e.renderer.HandleInput(e.controller.Directions(), e.controller.ConsumeMouseDelta(), deltaTime)
	inputDone := e.now()

	if e.tickCallback != nil {
		e.tickCallback(deltaTime)
	}
	e.renderer.Update(deltaTime)
	updateDone := e.now()

	renderErr := e.renderer.Render()
	if e.profilingEnabled {
		e.profiler.Record(profiler.PhaseInput, inputDone.Sub(start))
		e.profiler.Record(profiler.PhaseUpdate, updateDone.Sub(inputDone))
		e.profiler.Record(profiler.PhaseRender, e.now().Sub(updateDone))
		e.profiler.Tick()
	}
	if renderErr != nil {
		return fmt.Errorf("engine: frame %d: %w", e.frame, renderErr)
	}
	return nil
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	defer e.teardown()

	if !e.renderer.Initialized() {
		if err := e.renderer.Initialize(); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}
	closer.Bind(e.shutdown)
	log.Printf("[Engine] running")

	failures := 0
	last := e.now()
	for !e.quitting() && e.window.PollEvents() {
		frameStart := e.now()
		deltaTime := float32(frameStart.Sub(last).Seconds())
		last = frameStart

		if err := e.Step(deltaTime); err != nil {
			failures++
			log.Printf("[Engine] %v", err)
			if e.maxFrameFailures > 0 && failures >= e.maxFrameFailures {
				return fmt.Errorf("engine: stopping after %d failed frames: %w", failures, err)
			}
		} else {
			failures = 0
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	log.Printf("[Engine] stopped after %d frames", e.frame)
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

// teardown releases the renderer before the window so the surface outlives the device.
func (e *engine) teardown() {
	e.teardownOnce.Do(func() {
		e.renderer.Release()
		if err := e.window.Close(); err != nil {
			log.Printf("[Engine] failed to close window: %v", err)
		}
		close(e.done)
	})
}

// shutdown runs on a termination signal: it stops the loop and waits for teardown.
func (e *engine) shutdown() {
	e.Quit()
	select {
	case <-e.done:
	case <-time.After(shutdownTimeout):
		log.Printf("[Engine] frame loop did not stop within %v", shutdownTimeout)
	}
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
