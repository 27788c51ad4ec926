package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/config"
	"github.com/Carmen-Shannon/oxy-voxel/engine/drawable"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow reports itself open for a fixed number of polls.
type fakeWindow struct {
	polls, maxPolls int
	closed          bool
	captured        bool

	onResize    func(width, height int)
	onKeyDown   func(uint32)
	onKeyUp     func(uint32)
	onMouseMove func(dx, dy float32)
	onFocus     func(bool)
}

func (w *fakeWindow) SetUpdateCallback(func()) {}
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32)) { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(cb func(keyCode uint32)) { w.onKeyUp = cb }
func (w *fakeWindow) SetMouseMoveCallback(cb func(dx, dy float32)) { w.onMouseMove = cb }
func (w *fakeWindow) SetFocusCallback(cb func(focused bool)) { w.onFocus = cb }
func (w *fakeWindow) SetCursorCaptured(captured bool) { w.captured = captured }
func (w *fakeWindow) CursorCaptured() bool { return w.captured }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool { return !w.closed && w.polls < w.maxPolls }
func (w *fakeWindow) ProcessMessages() {}
func (w *fakeWindow) Width() int { return 800 }
func (w *fakeWindow) Height() int { return 600 }

func (w *fakeWindow) PollEvents() bool {
	w.polls++
	return !w.closed && w.polls <= w.maxPolls
}

func (w *fakeWindow) Close() error {
	w.closed = true
	return nil
}

const vertexSource = `//@oxy:include vertex
//@oxy:include camera
//@oxy:include projection
//@oxy:include object

@vertex
fn vs_main(v: VertexInput) -> @builtin(position) vec4<f32> {
    return projection.projection * camera.view * objectData.world * vec4<f32>(v.position, 1.0);
}
`

const pixelSource = `//@oxy:include object

@fragment
fn ps_main() -> @location(0) vec4<f32> {
    return objectData.outputColor;
}
`

type fixture struct {
	dev *backendtest.Device
	win *fakeWindow
	r   renderer.Renderer
	cam camera.Camera
}

func newFixture(t *testing.T, polls int) *fixture {
	t.Helper()
	f := &fixture{dev: backendtest.New(), win: &fakeWindow{maxPolls: polls, captured: true}}

	vs, err := shader.NewShader("basic", shader.ShaderTypeVertex, shader.WithSource(vertexSource))
	require.NoError(t, err)
	ps, err := shader.NewShader("basic", shader.ShaderTypePixel, shader.WithSource(pixelSource))
	require.NoError(t, err)

	cube := drawable.NewRenderable("cube", model.Cube(), drawable.WithShaders(vs, ps))
	f.cam = camera.NewCamera(mgl32.Vec3{0, 0, 0}, camera.WithTravelSpeed(1))
	f.r = renderer.NewRenderer(f.dev,
		renderer.WithCamera(f.cam),
		renderer.WithScene("main", scene.NewScene("main", scene.WithRenderable("cube", cube))),
		renderer.WithMainScene("main"),
		renderer.WithVertexShader("basic", vs),
		renderer.WithPixelShader("basic", ps),
	)
	return f
}

func TestNewEnginePanicsWithoutRenderer(t *testing.T) {
	assert.Panics(t, func() { NewEngine() })
}

func TestStepAppliesControllerInput(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.r.Initialize())
	e := NewEngine(WithWindow(f.win), WithRenderer(f.r))

	before := f.cam.Eye()
	f.win.onKeyDown(common.KeyW)
	require.NoError(t, e.Step(1))

	moved := f.cam.Eye().Sub(before)
	assert.InDelta(t, 1, moved.Len(), 1e-5)
	assert.Equal(t, 1, f.dev.Count("Present"))

	f.win.onKeyUp(common.KeyW)
	before = f.cam.Eye()
	require.NoError(t, e.Step(1))
	assert.Equal(t, before, f.cam.Eye())
}

func TestStepRunsTickBeforeRender(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.r.Initialize())

	var ticks []float32
	var presentsAtTick int
	e := NewEngine(WithRenderer(f.r), WithTickCallback(func(dt float32) {
		ticks = append(ticks, dt)
		presentsAtTick = f.dev.Count("Present")
	}))

	require.NoError(t, e.Step(0.25))
	assert.Equal(t, []float32{0.25}, ticks)
	assert.Zero(t, presentsAtTick)
}

func TestStepRecoversPanics(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.r.Initialize())
	e := NewEngine(WithRenderer(f.r))
	e.SetTickCallback(func(float32) { panic("boom") })

	err := e.Step(0.016)
	require.ErrorIs(t, err, ErrFramePanic)
	assert.Contains(t, err.Error(), "boom")

	e.SetTickCallback(nil)
	assert.NoError(t, e.Step(0.016))
}

func TestStepReturnsRenderErrors(t *testing.T) {
	f := newFixture(t, 0)
	e := NewEngine(WithRenderer(f.r))
	assert.ErrorIs(t, e.Step(0.016), renderer.ErrNotInitialized)
}

func TestRunStepsUntilWindowCloses(t *testing.T) {
	f := newFixture(t, 3)
	e := NewEngine(WithWindow(f.win), WithRenderer(f.r), WithProfiling(true))

	require.NoError(t, e.Run())

	assert.Equal(t, 3, f.dev.Count("Present"))
	assert.True(t, f.dev.Released)
	assert.True(t, f.win.closed)
	assert.False(t, f.r.Initialized())
}

func TestRunWithoutWindow(t *testing.T) {
	f := newFixture(t, 0)
	e := NewEngine(WithRenderer(f.r))
	assert.ErrorIs(t, e.Run(), ErrNoWindow)
}

func TestRunInitializeFailureReleases(t *testing.T) {
	f := newFixture(t, 5)
	boom := errors.New("no adapter")
	f.dev.Fail("Initialize", boom)
	e := NewEngine(WithWindow(f.win), WithRenderer(f.r))

	require.ErrorIs(t, e.Run(), boom)
	assert.True(t, f.win.closed)
	assert.Zero(t, f.dev.Count("Present"))
}

func TestRunStopsAfterConsecutiveFailures(t *testing.T) {
	f := newFixture(t, 100)
	lost := errors.New("surface lost")
	f.dev.Fail("Present", lost)
	e := NewEngine(WithWindow(f.win), WithRenderer(f.r), WithMaxFrameFailures(2))

	require.ErrorIs(t, e.Run(), lost)
	assert.Equal(t, 2, f.dev.Count("Present"))
	assert.True(t, f.dev.Released)
}

func TestQuitStopsRun(t *testing.T) {
	f := newFixture(t, 100)
	var e Engine
	e = NewEngine(WithWindow(f.win), WithRenderer(f.r), WithTickCallback(func(float32) {
		e.Quit()
		e.Quit()
	}))

	require.NoError(t, e.Run())
	assert.Equal(t, 1, f.dev.Count("Present"))
}

func TestResizeIsForwardedToRenderer(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.r.Initialize())
	NewEngine(WithWindow(f.win), WithRenderer(f.r))

	f.win.onResize(1600, 800)

	require.Equal(t, 1, f.dev.Count("Resize"))
	assert.Equal(t, []any{1600, 800}, f.dev.CallsOf("Resize")[0].Args)
}

func TestFrameDuration(t *testing.T) {
	assert.Zero(t, frameDuration(0))
	assert.Zero(t, frameDuration(-5))
	assert.InDelta(t, float64(16666666), float64(frameDuration(60)), 1)
}

const engineScene = `
name: arena
renderables:
  - name: crate
voxel_batches:
  - name: floor
    grid: {width: 2, height: 1, depth: 2, spacing: 2}
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestNewRendererFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shaders", "basic_vs.wgsl"), vertexSource)
	writeFile(t, filepath.Join(dir, "shaders", "basic_ps.wgsl"), pixelSource)
	writeFile(t, filepath.Join(dir, "scenes", "arena.yaml"), engineScene)

	cfg := config.Default()
	cfg.Renderer.FieldOfView = 60
	cfg.Shaders = []config.ShaderConfig{
		{Name: "basic", Stage: config.StageVertex, Path: "shaders/basic_vs.wgsl"},
		{Name: "basic", Stage: config.StagePixel, Path: "shaders/basic_ps.wgsl"},
	}
	cfg.Scenes = []config.SceneConfig{{Name: "arena", Path: "scenes/arena.yaml"}}
	cfg.MainScene = "arena"
	cfg.Bindings = []config.BindingConfig{
		{Target: config.TargetScene, Name: "arena", VertexShader: "basic", PixelShader: "basic"},
		{Target: config.TargetRenderable, Name: "crate", VertexShader: "basic", PixelShader: "basic"},
	}
	cfg.ResolvePaths(dir)
	require.NoError(t, cfg.Validate())

	dev := backendtest.New()
	r, err := NewRendererFromConfig(cfg, dev)
	require.NoError(t, err)

	main, ok := r.MainScene()
	require.True(t, ok)
	assert.Equal(t, "arena", main.Name())
	assert.Equal(t, mgl32.Vec3{0, 1, -10}, r.Camera().Eye())

	crate, ok := main.Renderable("crate")
	require.True(t, ok)
	require.NotNil(t, crate.VertexShader())
	assert.Equal(t, "basic", crate.VertexShader().Name())
	floor, ok := main.VoxelBatch("floor")
	require.True(t, ok)
	assert.NotNil(t, floor.PixelShader())

	require.NoError(t, r.Initialize())
	require.NoError(t, r.Render())
	assert.Equal(t, 2, dev.Count("DrawIndexed"))
}

func TestNewRendererFromConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vs.wgsl"), vertexSource)
	writeFile(t, filepath.Join(dir, "arena.yaml"), engineScene)

	missingShader := config.Default()
	missingShader.Shaders = []config.ShaderConfig{{Name: "vs", Stage: config.StageVertex, Path: filepath.Join(dir, "missing.wgsl")}}

	missingScene := config.Default()
	missingScene.Scenes = []config.SceneConfig{{Name: "arena", Path: filepath.Join(dir, "missing.yaml")}}

	unknownTarget := config.Default()
	unknownTarget.Shaders = []config.ShaderConfig{{Name: "vs", Stage: config.StageVertex, Path: filepath.Join(dir, "vs.wgsl")}}
	unknownTarget.Scenes = []config.SceneConfig{{Name: "arena", Path: filepath.Join(dir, "arena.yaml")}}
	unknownTarget.Bindings = []config.BindingConfig{{Target: config.TargetModel, Name: "fox", VertexShader: "vs"}}

	for name, cfg := range map[string]*config.Config{
		"missing shader": missingShader,
		"missing scene":  missingScene,
		"unknown target": unknownTarget,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewRendererFromConfig(cfg, backendtest.New())
			assert.Error(t, err)
		})
	}

	_, err := NewRendererFromConfig(unknownTarget, backendtest.New())
	assert.ErrorIs(t, err, renderer.ErrUnknownModel)
}

func TestNewCameraControllerFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.Keys.Up = "e"
	cfg.Camera.InvertY = true

	cc, err := NewCameraControllerFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(common.KeyE), cc.Bindings().Up)

	cc.MouseMove(1, 1)
	assert.Equal(t, camera.MouseDelta{X: 1, Y: -1}, cc.ConsumeMouseDelta())

	cfg.Camera.Keys.Down = "nope"
	_, err = NewCameraControllerFromConfig(cfg)
	assert.Error(t, err)
}

func TestShippedConfigRenders(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "assets", "oxy-voxel.toml"))
	require.NoError(t, err)
	cfg.Renderer.HotReload = false

	dev := backendtest.New()
	r, err := NewRendererFromConfig(cfg, dev)
	require.NoError(t, err)

	main, ok := r.MainScene()
	require.True(t, ok)
	assert.Equal(t, "demo", main.Name())
	assert.Len(t, main.Renderables(), 5)

	floor, ok := main.VoxelBatch("floor")
	require.True(t, ok)
	assert.Equal(t, 256, floor.InstanceCount())
	assert.Equal(t, "voxel", floor.VertexShader().Name())

	marker, ok := main.Renderable("light_marker")
	require.True(t, ok)
	assert.Equal(t, "lit", marker.VertexShader().Name())
	assert.Equal(t, "solid", marker.PixelShader().Name())

	require.NoError(t, r.Initialize())
	require.NoError(t, r.Render())
	assert.Equal(t, 6, dev.Count("DrawIndexed"))
}
