package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveLayout(t *testing.T) {
	for typ, want := range map[string]typeLayout{
		"f32":         {size: 4, align: 4},
		"vec2f":       {size: 8, align: 8},
		"vec3<f32>":   {size: 12, align: 16},
		"vec4< u32 >": {size: 16, align: 16},
		"vec2<f16>":   {size: 4, align: 4},
		"mat3x3f":     {size: 48, align: 16},
		"mat4x4<f32>": {size: 64, align: 16},
		"mat3x2<f32>": {size: 24, align: 8},
	} {
		got, ok := primitiveLayout(typ)
		require.Truef(t, ok, "%s", typ)
		assert.Equalf(t, want, got, "%s", typ)
	}

	for _, typ := range []string{"vec5<f32>", "material", "array<f32, 4>", "CameraUniform"} {
		_, ok := primitiveLayout(typ)
		assert.Falsef(t, ok, "%s", typ)
	}
}

func TestResolveArraysAndStructs(t *testing.T) {
	structs := structLayouts([]structDecl{
		{name: "Outer", fields: []structField{{typ: "Inner"}, {typ: "f32"}}},
		{name: "Inner", fields: []structField{{typ: "vec3<f32>"}}},
		{name: "Broken", fields: []structField{{typ: "Missing"}}},
	})
	assert.Equal(t, typeLayout{size: 16, align: 16}, structs["Inner"])
	assert.Equal(t, typeLayout{size: 32, align: 16}, structs["Outer"])
	assert.NotContains(t, structs, "Broken")

	l, ok := resolveTypeLayout("array<vec4<f32>, 2>", structs)
	require.True(t, ok)
	assert.Equal(t, uint64(32), l.size)

	l, ok = resolveTypeLayout("array<Outer>", structs)
	require.True(t, ok)
	assert.Equal(t, uint64(32), l.size)

	_, ok = resolveTypeLayout("array<f32, 0>", structs)
	assert.False(t, ok)
}

func TestVertexFormat(t *testing.T) {
	f, ok := vertexFormat("vec3f")
	require.True(t, ok)
	assert.Equal(t, backend.VertexFormatFloat32x3, f)

	f, ok = vertexFormat("vec4<u32>")
	require.True(t, ok)
	assert.Equal(t, backend.VertexFormatUint32x4, f)

	f, ok = vertexFormat("i32")
	require.True(t, ok)
	assert.Equal(t, backend.VertexFormatSint32, f)

	_, ok = vertexFormat("mat4x4<f32>")
	assert.False(t, ok)
}

func TestStripComments(t *testing.T) {
	src := "a // line\nb /* block /* nested */ still\n hidden */ c\n// last"
	assert.Equal(t, "a \nb \n c\n", stripComments(src))
}

func TestClassifyResource(t *testing.T) {
	cases := []struct {
		space, typ string
		kind       backend.BindingKind
		ok         bool
	}{
		{"uniform", "CameraUniform", backend.BindingKindUniform, true},
		{"storage, read", "array<f32>", backend.BindingKindStorage, true},
		{"storage, read_write", "array<f32>", backend.BindingKindStorage, false},
		{"", "sampler", backend.BindingKindSampler, true},
		{"", "texture_2d<f32>", backend.BindingKindTexture, true},
		{"", "texture_depth_2d", backend.BindingKindTexture, false},
	}
	for _, c := range cases {
		kind, ok := classifyResource(c.space, c.typ)
		assert.Equalf(t, c.ok, ok, "%s %s", c.space, c.typ)
		if c.ok {
			assert.Equal(t, c.kind, kind)
		}
	}
}
