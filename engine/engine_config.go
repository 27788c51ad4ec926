package engine

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/config"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// NewEngineFromConfig opens the configured window, creates a WebGPU device presenting to it and
// wires the renderer, camera controller and frame loop settings from cfg.
//
// Parameters:
//   - cfg: a validated configuration
//   - options: extra options applied after the configured ones
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: error if the configuration is invalid or an asset fails to load
func NewEngineFromConfig(cfg *config.Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	controller, err := NewCameraControllerFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithMinSize(cfg.Window.MinWidth, cfg.Window.MinHeight),
		window.WithMaxSize(cfg.Window.MaxWidth, cfg.Window.MaxHeight),
		window.WithCursorCaptured(cfg.Window.CaptureCursor),
	)

	presentMode, _ := cfg.Renderer.PresentModeValue()
	device := wgpu_backend.NewDevice(win,
		wgpu_backend.WithPresentMode(presentMode),
		wgpu_backend.WithMSAA(backend.MSAASampleCount(cfg.Renderer.MSAA)),
		wgpu_backend.WithBackfaceCulling(cfg.Renderer.CullBackFaces),
		wgpu_backend.WithForceSoftwareRenderer(cfg.Renderer.SoftwareRenderer),
	)

	r, err := NewRendererFromConfig(cfg, device)
	if err != nil {
		if closeErr := win.Close(); closeErr != nil {
			log.Printf("[Engine] failed to close window: %v", closeErr)
		}
		return nil, err
	}

	opts := append([]EngineBuilderOption{
		WithWindow(win),
		WithRenderer(r),
		WithCameraController(controller),
		WithProfiling(cfg.Engine.Profiling),
		WithRenderFrameLimit(cfg.Engine.FrameLimit),
	}, options...)
	return NewEngine(opts...), nil
}

// NewRendererFromConfig builds a renderer on device: the configured camera and projection,
// every shader file, every scene file, the main scene and the shader bindings.
// The renderer is not initialized.
//
// Parameters:
//   - cfg: a validated configuration
//   - device: the graphics device
//
// Returns:
//   - renderer.Renderer: the renderer
//   - error: error if a shader or scene fails to load or a binding cannot be resolved
func NewRendererFromConfig(cfg *config.Config, device backend.Device) (renderer.Renderer, error) {
	rc := cfg.Renderer
	cc := cfg.Camera
	cam := camera.NewCamera(mgl32.Vec3(cc.Position),
		camera.WithTravelSpeed(cc.TravelSpeed),
		camera.WithRotationSpeed(cc.RotationSpeed),
	)

	r := renderer.NewRenderer(device,
		renderer.WithCamera(cam),
		renderer.WithFieldOfView(mgl32.DegToRad(rc.FieldOfView)),
		renderer.WithDepthRange(rc.Near, rc.Far),
		renderer.WithClearColor(rc.ClearColorValue()),
		renderer.WithShaderHotReload(rc.HotReload),
	)

	for _, sc := range cfg.Shaders {
		if err := addShader(r, sc); err != nil {
			return nil, err
		}
	}

	for _, sc := range cfg.Scenes {
		s, err := scene.LoadScene(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("engine: scene %q: %w", sc.Name, err)
		}
		if err := r.AddScene(sc.Name, s); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}
	if cfg.MainScene != "" {
		if err := r.SetMainScene(cfg.MainScene); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	for i, b := range cfg.Bindings {
		if err := applyBinding(r, b); err != nil {
			return nil, fmt.Errorf("engine: bindings[%d] %s %q: %w", i, b.Target, b.Name, err)
		}
	}
	return r, nil
}

// NewCameraControllerFromConfig builds the camera controller from the key bindings and mouse
// settings of cfg.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - camera.CameraController: the controller
//   - error: error if a key name is unknown
func NewCameraControllerFromConfig(cfg *config.Config) (camera.CameraController, error) {
	bindings, err := cfg.Camera.Keys.Bindings()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return camera.NewCameraController(
		camera.WithKeyBindings(bindings),
		camera.WithMouseSensitivity(cfg.Camera.MouseSensitivity),
		camera.WithInvertY(cfg.Camera.InvertY),
	), nil
}

func addShader(r renderer.Renderer, sc config.ShaderConfig) error {
	options := []shader.ShaderBuilderOption{shader.WithSourceFromPath(sc.Path)}
	if sc.EntryPoint != "" {
		options = append(options, shader.WithEntryPoint(sc.EntryPoint))
	}

	if sc.Stage == config.StageVertex {
		s, err := shader.NewShader(sc.Name, shader.ShaderTypeVertex, options...)
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		return r.AddVertexShader(sc.Name, s)
	}
	s, err := shader.NewShader(sc.Name, shader.ShaderTypePixel, options...)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return r.AddPixelShader(sc.Name, s)
}

func applyBinding(r renderer.Renderer, b config.BindingConfig) error {
	var setVertex, setPixel func(target, shaderName string) error
	switch b.Target {
	case config.TargetRenderable:
		setVertex, setPixel = r.SetVertexShaderOfRenderable, r.SetPixelShaderOfRenderable
	case config.TargetModel:
		setVertex, setPixel = r.SetVertexShaderOfModel, r.SetPixelShaderOfModel
	case config.TargetScene:
		setVertex, setPixel = r.SetVertexShaderOfScene, r.SetPixelShaderOfScene
	default:
		return fmt.Errorf("%w: unknown binding target %q", config.ErrInvalid, b.Target)
	}

	if b.VertexShader != "" {
		if err := setVertex(b.Name, b.VertexShader); err != nil {
			return err
		}
	}
	if b.PixelShader != "" {
		if err := setPixel(b.Name, b.PixelShader); err != nil {
			return err
		}
	}
	return nil
}
