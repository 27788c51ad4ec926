// Package config loads the TOML file describing an application: window, renderer, camera,
// shaders, scene files and the shader bindings applied after the scenes are loaded.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/pelletier/go-toml/v2"
)

// Shader stages accepted in [[shaders]] entries.
const (
	StageVertex = "vertex"
	StagePixel  = "pixel"
)

// Binding targets accepted in [[bindings]] entries.
const (
	TargetRenderable = "renderable"
	TargetModel      = "model"
	TargetScene      = "scene"
)

// Present modes accepted in [renderer].
const (
	PresentVSync    = "vsync"
	PresentUncapped = "uncapped"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root of an application configuration file.
type Config struct {
	Window    WindowConfig    `toml:"window"`
	Renderer  RendererConfig  `toml:"renderer"`
	Camera    CameraConfig    `toml:"camera"`
	Engine    EngineConfig    `toml:"engine"`
	Shaders   []ShaderConfig  `toml:"shaders"`
	Scenes    []SceneConfig   `toml:"scenes"`
	MainScene string          `toml:"main_scene"`
	Bindings  []BindingConfig `toml:"bindings"`
}

// WindowConfig describes the platform window.
type WindowConfig struct {
	Title         string `toml:"title"`
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	MinWidth      int    `toml:"min_width"`
	MinHeight     int    `toml:"min_height"`
	MaxWidth      int    `toml:"max_width"`
	MaxHeight     int    `toml:"max_height"`
	CaptureCursor bool   `toml:"capture_cursor"`
}

// RendererConfig describes projection, presentation and device settings.
type RendererConfig struct {
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView      float32    `toml:"field_of_view"`
	Near             float32    `toml:"near"`
	Far              float32    `toml:"far"`
	ClearColor       [4]float64 `toml:"clear_color"`
	PresentMode      string     `toml:"present_mode"`
	MSAA             int        `toml:"msaa"`
	CullBackFaces    bool       `toml:"cull_back_faces"`
	SoftwareRenderer bool       `toml:"software_renderer"`
	HotReload        bool       `toml:"hot_reload"`
}

// CameraConfig describes the first-person camera and its input bindings.
type CameraConfig struct {
	Position         [3]float32 `toml:"position"`
	TravelSpeed      float32    `toml:"travel_speed"`
	RotationSpeed    float32    `toml:"rotation_speed"`
	MouseSensitivity float32    `toml:"mouse_sensitivity"`
	InvertY          bool       `toml:"invert_y"`
	Keys             KeysConfig `toml:"keys"`
}

// KeysConfig names the key bound to each movement direction (see common.KeyCodeByName).
type KeysConfig struct {
	Front string `toml:"front"`
	Back  string `toml:"back"`
	Left  string `toml:"left"`
	Right string `toml:"right"`
	Up    string `toml:"up"`
	Down  string `toml:"down"`
}

// EngineConfig describes the frame loop.
type EngineConfig struct {
	Profiling bool `toml:"profiling"`
	// FrameLimit caps frames per second, 0 for uncapped.
	FrameLimit float64 `toml:"frame_limit"`
}

// ShaderConfig registers one WGSL shader file.
type ShaderConfig struct {
	Name       string `toml:"name"`
	Stage      string `toml:"stage"`
	Path       string `toml:"path"`
	EntryPoint string `toml:"entry_point"`
}

// SceneConfig registers one YAML scene file.
type SceneConfig struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// BindingConfig binds shaders to a renderable, a model, or every voxel batch of a scene.
type BindingConfig struct {
	Target       string `toml:"target"`
	Name         string `toml:"name"`
	VertexShader string `toml:"vertex_shader"`
	PixelShader  string `toml:"pixel_shader"`
}

// Default returns the configuration used for every key a file leaves out.
//
// Returns:
//   - *Config: the default configuration
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:         "oxy-voxel",
			Width:         1280,
			Height:        720,
			MinWidth:      320,
			MinHeight:     200,
			MaxWidth:      3840,
			MaxHeight:     2160,
			CaptureCursor: true,
		},
		Renderer: RendererConfig{
			FieldOfView:   90,
			Near:          0.01,
			Far:           100,
			ClearColor:    [4]float64{backend.MidnightBlue.R, backend.MidnightBlue.G, backend.MidnightBlue.B, backend.MidnightBlue.A},
			PresentMode:   PresentVSync,
			MSAA:          int(backend.MSAA4x),
			CullBackFaces: true,
		},
		Camera: CameraConfig{
			Position:         [3]float32{0, 1, -10},
			TravelSpeed:      5,
			RotationSpeed:    0.2,
			MouseSensitivity: 1,
			Keys: KeysConfig{
				Front: "w",
				Back:  "s",
				Left:  "a",
				Right: "d",
				Up:    "space",
				Down:  "left_shift",
			},
		},
	}
}

// Load reads a TOML file over Default, resolves shader and scene paths relative to the file's
// directory and validates the result.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - *Config: the loaded configuration
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.ResolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML over Default. Unknown keys are rejected. The result is not validated.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - *Config: the decoded configuration
//   - error: error if the TOML is malformed or names an unknown key
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return nil, err
	}
	if cfg.MainScene == "" && len(cfg.Scenes) > 0 {
		cfg.MainScene = cfg.Scenes[0].Name
	}
	return cfg, nil
}

// ResolvePaths joins every relative shader and scene path onto baseDir.
//
// Parameters:
//   - baseDir: the directory relative paths are resolved against
func (c *Config) ResolvePaths(baseDir string) {
	for i := range c.Shaders {
		c.Shaders[i].Path = resolve(baseDir, c.Shaders[i].Path)
	}
	for i := range c.Scenes {
		c.Scenes[i].Path = resolve(baseDir, c.Scenes[i].Path)
	}
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Validate checks every section and returns all problems found, each wrapping ErrInvalid.
//
// Returns:
//   - error: nil if the configuration is usable
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		fail("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}

	r := c.Renderer
	if r.FieldOfView <= 0 || r.FieldOfView >= 180 {
		fail("renderer.field_of_view %v must be within (0, 180) degrees", r.FieldOfView)
	}
	if r.Near <= 0 || r.Far <= r.Near {
		fail("renderer depth range [%v, %v] must satisfy 0 < near < far", r.Near, r.Far)
	}
	if _, err := r.PresentModeValue(); err != nil {
		fail("%v", err)
	}
	if r.MSAA != int(backend.MSAAOff) && r.MSAA != int(backend.MSAA4x) {
		fail("renderer.msaa %d must be 1 or 4", r.MSAA)
	}

	if _, err := c.Camera.Keys.Bindings(); err != nil {
		fail("%v", err)
	}
	if c.Camera.TravelSpeed < 0 || c.Camera.RotationSpeed < 0 {
		fail("camera speeds must not be negative")
	}

	shaders := map[string]map[string]bool{StageVertex: {}, StagePixel: {}}
	for i, s := range c.Shaders {
		switch {
		case s.Name == "":
			fail("shaders[%d] has no name", i)
		case s.Path == "":
			fail("shader %q has no path", s.Name)
		case shaders[s.Stage] == nil:
			fail("shader %q has stage %q, want %q or %q", s.Name, s.Stage, StageVertex, StagePixel)
		case shaders[s.Stage][s.Name]:
			fail("duplicate %s shader %q", s.Stage, s.Name)
		default:
			shaders[s.Stage][s.Name] = true
		}
	}

	scenes := make(map[string]bool, len(c.Scenes))
	for i, s := range c.Scenes {
		switch {
		case s.Name == "":
			fail("scenes[%d] has no name", i)
		case s.Path == "":
			fail("scene %q has no path", s.Name)
		case scenes[s.Name]:
			fail("duplicate scene %q", s.Name)
		default:
			scenes[s.Name] = true
		}
	}
	if c.MainScene != "" && !scenes[c.MainScene] {
		fail("main_scene %q is not a listed scene", c.MainScene)
	}

	for i, b := range c.Bindings {
		switch b.Target {
		case TargetRenderable, TargetModel:
		case TargetScene:
			if !scenes[b.Name] {
				fail("bindings[%d] names unknown scene %q", i, b.Name)
			}
		default:
			fail("bindings[%d] has target %q, want renderable, model or scene", i, b.Target)
		}
		if b.Name == "" {
			fail("bindings[%d] has no name", i)
		}
		if b.VertexShader == "" && b.PixelShader == "" {
			fail("bindings[%d] binds no shader", i)
		}
		if b.VertexShader != "" && !shaders[StageVertex][b.VertexShader] {
			fail("bindings[%d] names unknown vertex shader %q", i, b.VertexShader)
		}
		if b.PixelShader != "" && !shaders[StagePixel][b.PixelShader] {
			fail("bindings[%d] names unknown pixel shader %q", i, b.PixelShader)
		}
	}

	return errors.Join(errs...)
}

// PresentModeValue maps the present mode name to the backend value.
//
// Returns:
//   - backend.PresentMode: the present mode
//   - error: error if the name is unknown
func (r RendererConfig) PresentModeValue() (backend.PresentMode, error) {
	switch strings.ToLower(r.PresentMode) {
	case PresentVSync, "":
		return backend.PresentModeVSync, nil
	case PresentUncapped:
		return backend.PresentModeUncapped, nil
	}
	return 0, fmt.Errorf("renderer.present_mode %q must be %q or %q", r.PresentMode, PresentVSync, PresentUncapped)
}

// ClearColorValue returns the clear color as a backend color.
func (r RendererConfig) ClearColorValue() backend.Color {
	c := r.ClearColor
	return backend.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// Bindings resolves the key names into camera key bindings.
//
// Returns:
//   - camera.KeyBindings: the resolved bindings
//   - error: error naming the first unknown key
func (k KeysConfig) Bindings() (camera.KeyBindings, error) {
	var b camera.KeyBindings
	for _, entry := range []struct {
		field string
		name  string
		dst   *uint32
	}{
		{"front", k.Front, &b.Front},
		{"back", k.Back, &b.Back},
		{"left", k.Left, &b.Left},
		{"right", k.Right, &b.Right},
		{"up", k.Up, &b.Up},
		{"down", k.Down, &b.Down},
	} {
		code, ok := common.KeyCodeByName(entry.name)
		if !ok {
			return camera.KeyBindings{}, fmt.Errorf("camera.keys.%s: unknown key %q", entry.field, entry.name)
		}
		*entry.dst = code
	}
	return b, nil
}
