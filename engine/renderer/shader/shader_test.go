package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexSource = `//@oxy:include vertex
//@oxy:include normal_data
//@oxy:include camera
//@oxy:include projection
//@oxy:include object

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(v: VertexInput, n: NormalInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = projection.projection * camera.view * objectData.world * vec4<f32>(v.position, 1.0);
    out.uv = v.uv;
    return out;
}
`

const testPixelSource = `//@oxy:include object
//@oxy:include diffuse
//@oxy:include normal_map

@fragment
fn ps_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(diffuseTexture, diffuseSampler, uv) * objectData.outputColor;
}
`

func TestPreProcessorExpandsIncludes(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:include camera\n//@oxy:include vertex\n// @oxy:include camera\nfn f() {}")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"))
	assert.Equal(t, 1, strings.Count(out, "@group(0) @binding(0) var<uniform> camera: CameraUniform;"))
	assert.Contains(t, out, "struct VertexInput")
	assert.Contains(t, out, "fn f() {}")
	assert.NotContains(t, out, "@oxy:")
	assert.Equal(t, []string{IncludeCamera, IncludeVertex}, pp.Includes())
}

func TestPreProcessorRejectsUnknownNames(t *testing.T) {
	pp := NewPreProcessor()

	_, err := pp.Process("fn f() {}\n//@oxy:include shadows")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = pp.Process("//@oxy:group uniform camera camera")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "@oxy:group")
}

func TestPreProcessorTextureIncludes(t *testing.T) {
	out, err := NewPreProcessor().Process("//@oxy:include normal_map")
	require.NoError(t, err)
	assert.Contains(t, out, "@group(0) @binding(7) var normalTexture: texture_2d<f32>;")
	assert.Contains(t, out, "@group(0) @binding(8) var normalSampler: sampler;")
}

func TestIncludeNames(t *testing.T) {
	names := IncludeNames()
	assert.Len(t, names, 11)
	assert.Contains(t, names, IncludeSkinning)
	assert.IsIncreasing(t, names)
}

func TestNewVertexShaderParsesLayoutsAndBindings(t *testing.T) {
	s, err := NewShader("lit", ShaderTypeVertex, WithSource(testVertexSource))
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, ShaderTypeVertex, s.Type())
	assert.Equal(t, []string{IncludeVertex, IncludeNormalData, IncludeCamera, IncludeProjection, IncludeObject}, s.Includes())

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, uint64(32), layouts[0].ArrayStride)
	assert.Equal(t, backend.VertexStepModeVertex, layouts[0].StepMode)
	require.Len(t, layouts[0].Attributes, 3)
	assert.Equal(t, backend.VertexFormatFloat32x2, layouts[0].Attributes[1].Format)
	assert.Equal(t, uint64(12), layouts[0].Attributes[1].Offset)
	assert.Equal(t, uint64(24), layouts[1].ArrayStride)
	assert.Equal(t, uint32(3), layouts[1].Attributes[0].ShaderLocation)

	bindings := s.Bindings()
	require.Len(t, bindings, 3)
	assert.Equal(t, backend.Binding{Slot: SlotCamera, Kind: backend.BindingKindUniform, Name: "camera", MinSize: 80}, bindings[0])
	assert.Equal(t, SlotProjection, bindings[1].Slot)
	assert.Equal(t, uint64(96), bindings[2].MinSize)
}

func TestInstanceStructStepsPerInstance(t *testing.T) {
	src := "//@oxy:include vertex\n//@oxy:include instance\n@vertex fn main(v: VertexInput, i: InstanceInput) -> @builtin(position) vec4<f32> { return vec4<f32>(v.position, 1.0); }"
	s, err := NewShader("voxel", ShaderTypeVertex, WithSource(src))
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, backend.VertexStepModeInstance, layouts[1].StepMode)
	assert.Equal(t, uint64(64), layouts[1].ArrayStride)
	assert.Len(t, layouts[1].Attributes, 4)
}

func TestNewPixelShaderParsesTextures(t *testing.T) {
	s, err := NewShader("lit", ShaderTypePixel, WithSource(testPixelSource))
	require.NoError(t, err)

	assert.Equal(t, "ps_main", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts())

	var kinds []backend.BindingKind
	for _, b := range s.Bindings() {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []backend.BindingKind{
		backend.BindingKindUniform,
		backend.BindingKindTexture, backend.BindingKindSampler,
		backend.BindingKindTexture, backend.BindingKindSampler,
	}, kinds)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("empty", ShaderTypeVertex)
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = NewShader("pixel-as-vertex", ShaderTypeVertex, WithSource(testPixelSource))
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = NewShader("grouped", ShaderTypePixel, WithSource("@group(1) @binding(0) var s: sampler;\n@fragment fn main() {}"))
	assert.ErrorIs(t, err, ErrUnsupportedGroup)

	_, err = NewShader("missing", ShaderTypePixel, WithSourceFromPath(filepath.Join(t.TempDir(), "nope.wgsl")))
	assert.Error(t, err)

	s, err := NewShader("explicit", ShaderTypePixel, WithSource(testPixelSource), WithEntryPoint("other"))
	require.NoError(t, err)
	assert.Equal(t, "other", s.EntryPoint())
}

func TestShaderInitializeAndRelease(t *testing.T) {
	dev := backendtest.New()
	s, err := NewShader("lit", ShaderTypeVertex, WithSource(testVertexSource))
	require.NoError(t, err)
	assert.False(t, s.Initialized())

	require.NoError(t, s.Initialize(dev))
	require.NoError(t, s.Initialize(dev))
	assert.Equal(t, 1, dev.Count("CreateShader"))
	assert.True(t, s.Initialized())

	src := dev.Shaders[s.Handle()]
	assert.Equal(t, "vs_main", src.EntryPoint)
	assert.Equal(t, backend.ShaderStageVertex, src.Stage)
	assert.Len(t, src.VertexLayouts, 2)

	s.Release(dev)
	assert.False(t, s.Initialized())
	assert.Empty(t, dev.Shaders)
}

func TestShaderInitializeFailure(t *testing.T) {
	dev := backendtest.New()
	boom := errors.New("compile error")
	dev.Fail("CreateShader", boom)

	s, err := NewShader("lit", ShaderTypePixel, WithSource(testPixelSource))
	require.NoError(t, err)
	assert.ErrorIs(t, s.Initialize(dev), boom)
	assert.False(t, s.Initialized())
}

func TestShaderReloadKeepsOldModuleOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lit.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(testPixelSource), 0o644))

	dev := backendtest.New()
	s, err := NewShader("lit", ShaderTypePixel, WithSourceFromPath(path))
	require.NoError(t, err)
	require.NoError(t, s.Initialize(dev))
	first := s.Handle()

	updated := strings.Replace(testPixelSource, "ps_main", "ps_tinted", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	require.NoError(t, s.Reload(dev))
	assert.NotEqual(t, first, s.Handle())
	assert.Equal(t, "ps_tinted", s.EntryPoint())
	assert.NotContains(t, dev.Shaders, first)

	second := s.Handle()
	require.NoError(t, os.WriteFile(path, []byte("//@oxy:include nothing"), 0o644))
	assert.Error(t, s.Reload(dev))
	assert.Equal(t, second, s.Handle())
	assert.Equal(t, "ps_tinted", s.EntryPoint())

	inline, err := NewShader("inline", ShaderTypePixel, WithSource(testPixelSource))
	require.NoError(t, err)
	assert.Error(t, inline.Reload(dev))
}

func TestRegistryRejectsDuplicatesAndMismatches(t *testing.T) {
	r := NewRegistry(ShaderTypeVertex)
	vs, err := NewShader("a", ShaderTypeVertex, WithSource(testVertexSource))
	require.NoError(t, err)
	ps, err := NewShader("b", ShaderTypePixel, WithSource(testPixelSource))
	require.NoError(t, err)

	require.NoError(t, r.Add("lit", vs))
	assert.ErrorIs(t, r.Add("lit", vs), ErrDuplicateShader)
	assert.ErrorIs(t, r.Add("pixel", ps), ErrShaderTypeMismatch)
	assert.Error(t, r.Add("nil", nil))
	require.NoError(t, r.Add("also-lit", vs))

	assert.Equal(t, []string{"lit", "also-lit"}, r.Names())
	assert.Equal(t, 2, r.Len())
	got, ok := r.Get("lit")
	assert.True(t, ok)
	assert.Same(t, vs, got)

	_, err = r.MustGet("unlit")
	assert.ErrorIs(t, err, ErrUnknownShader)
}

func TestRegistryInitializeStopsAtFirstFailure(t *testing.T) {
	dev := backendtest.New()
	r := NewRegistry(ShaderTypePixel)
	for _, name := range []string{"one", "two"} {
		s, err := NewShader(name, ShaderTypePixel, WithSource(testPixelSource))
		require.NoError(t, err)
		require.NoError(t, r.Add(name, s))
	}

	dev.Fail("CreateShader", errors.New("bad module"))
	assert.Error(t, r.Initialize(dev))
	assert.Equal(t, 1, dev.Count("CreateShader"))

	dev.Fail("CreateShader", nil)
	require.NoError(t, r.Initialize(dev))
	for _, s := range r.All() {
		assert.True(t, s.Initialized())
	}

	r.Release(dev)
	assert.Equal(t, 2, dev.Count("ReleaseShader"))
}

func TestWatcherReportsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lit.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(testPixelSource), 0o644))

	s, err := NewShader("lit", ShaderTypePixel, WithSourceFromPath(path))
	require.NoError(t, err)
	inline, err := NewShader("inline", ShaderTypePixel, WithSource(testPixelSource))
	require.NoError(t, err)

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(s))
	require.NoError(t, w.Watch(inline))
	assert.Empty(t, w.Stale())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.wgsl"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(testPixelSource+"\n"), 0o644))

	var stale []Shader
	assert.Eventually(t, func() bool {
		stale = append(stale, w.Stale()...)
		return len(stale) > 0
	}, 2*time.Second, 10*time.Millisecond)
	for _, got := range stale {
		assert.Equal(t, "lit", got.Name())
	}
}
