package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
main_scene = "arena"

[window]
title = "arena"
width = 800
height = 600

[renderer]
field_of_view = 60.0
far = 250.0
present_mode = "uncapped"
msaa = 1
hot_reload = true

[camera]
position = [0.0, 2.0, -5.0]
travel_speed = 3.0

[camera.keys]
up = "e"
down = "q"

[engine]
profiling = true
frame_limit = 120.0

[[shaders]]
name = "lit"
stage = "vertex"
path = "shaders/lit_vs.wgsl"

[[shaders]]
name = "lit"
stage = "pixel"
path = "shaders/lit_ps.wgsl"

[[scenes]]
name = "lobby"
path = "scenes/lobby.yaml"

[[scenes]]
name = "arena"
path = "/abs/arena.yaml"

[[bindings]]
target = "scene"
name = "arena"
vertex_shader = "lit"
pixel_shader = "lit"

[[bindings]]
target = "renderable"
name = "crate"
pixel_shader = "lit"
`

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	b, err := cfg.Camera.Keys.Bindings()
	require.NoError(t, err)
	assert.Equal(t, camera.DefaultKeyBindings(), b)
	assert.Equal(t, backend.MidnightBlue, cfg.Renderer.ClearColorValue())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "arena", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.True(t, cfg.Window.CaptureCursor, "unset keys keep their defaults")

	assert.Equal(t, float32(60), cfg.Renderer.FieldOfView)
	assert.Equal(t, float32(0.01), cfg.Renderer.Near)
	assert.Equal(t, float32(250), cfg.Renderer.Far)
	mode, err := cfg.Renderer.PresentModeValue()
	require.NoError(t, err)
	assert.Equal(t, backend.PresentModeUncapped, mode)
	assert.True(t, cfg.Renderer.HotReload)

	assert.Equal(t, [3]float32{0, 2, -5}, cfg.Camera.Position)
	b, err := cfg.Camera.Keys.Bindings()
	require.NoError(t, err)
	assert.Equal(t, uint32(common.KeyE), b.Up)
	assert.Equal(t, uint32(common.KeyQ), b.Down)
	assert.Equal(t, uint32(common.KeyW), b.Front)

	assert.True(t, cfg.Engine.Profiling)
	assert.Equal(t, 120.0, cfg.Engine.FrameLimit)

	require.Len(t, cfg.Shaders, 2)
	assert.Equal(t, filepath.Join(dir, "shaders", "lit_vs.wgsl"), cfg.Shaders[0].Path)
	require.Len(t, cfg.Scenes, 2)
	assert.Equal(t, filepath.Join(dir, "scenes", "lobby.yaml"), cfg.Scenes[0].Path)
	assert.Equal(t, "/abs/arena.yaml", cfg.Scenes[1].Path)
	assert.Equal(t, "arena", cfg.MainScene)
	assert.Len(t, cfg.Bindings, 2)
}

func TestDecodeMainSceneDefaultsToFirstScene(t *testing.T) {
	cfg, err := Decode(strings.NewReader("[[scenes]]\nname = \"first\"\npath = \"a.yaml\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.MainScene)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[window]\ntitel = \"typo\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titel")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"window size":     func(c *Config) { c.Window.Width = 0 },
		"field of view":   func(c *Config) { c.Renderer.FieldOfView = 180 },
		"depth range":     func(c *Config) { c.Renderer.Far = c.Renderer.Near },
		"present mode":    func(c *Config) { c.Renderer.PresentMode = "triple" },
		"msaa":            func(c *Config) { c.Renderer.MSAA = 8 },
		"unknown key":     func(c *Config) { c.Camera.Keys.Up = "hyper" },
		"negative speed":  func(c *Config) { c.Camera.TravelSpeed = -1 },
		"shader stage":    func(c *Config) { c.Shaders = []ShaderConfig{{Name: "a", Stage: "compute", Path: "a.wgsl"}} },
		"shader no path":  func(c *Config) { c.Shaders = []ShaderConfig{{Name: "a", Stage: StageVertex}} },
		"shader no name":  func(c *Config) { c.Shaders = []ShaderConfig{{Stage: StageVertex, Path: "a.wgsl"}} },
		"duplicate scene": func(c *Config) { c.Scenes = []SceneConfig{{Name: "a", Path: "a"}, {Name: "a", Path: "b"}} },
		"unknown main":    func(c *Config) { c.MainScene = "missing" },
		"binding target": func(c *Config) {
			c.Shaders = []ShaderConfig{{Name: "s", Stage: StageVertex, Path: "s.wgsl"}}
			c.Bindings = []BindingConfig{{Target: "light", Name: "a", VertexShader: "s"}}
		},
		"binding no shader": func(c *Config) {
			c.Bindings = []BindingConfig{{Target: TargetRenderable, Name: "a"}}
		},
		"binding wrong stage": func(c *Config) {
			c.Shaders = []ShaderConfig{{Name: "s", Stage: StageVertex, Path: "s.wgsl"}}
			c.Bindings = []BindingConfig{{Target: TargetModel, Name: "fox", PixelShader: "s"}}
		},
		"binding unknown scene": func(c *Config) {
			c.Shaders = []ShaderConfig{{Name: "s", Stage: StageVertex, Path: "s.wgsl"}}
			c.Bindings = []BindingConfig{{Target: TargetScene, Name: "nowhere", VertexShader: "s"}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Window.Height = -1
	cfg.Renderer.MSAA = 2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window size")
	assert.Contains(t, err.Error(), "msaa")
}
