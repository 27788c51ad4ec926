package shader_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/light"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The WGSL structs injected by the pre-processor must match the Go structs the renderer marshals.
func TestUniformLayoutsMatchGoStructs(t *testing.T) {
	src := `//@oxy:include camera
//@oxy:include projection
//@oxy:include object
//@oxy:include lights
//@oxy:include skinning
@fragment fn main() {}`
	s, err := shader.NewShader("uniforms", shader.ShaderTypePixel, shader.WithSource(src))
	require.NoError(t, err)

	want := map[uint32]int{
		shader.SlotCamera:     (&camera.GPUCameraUniform{}).Size(),
		shader.SlotProjection: (&camera.GPUProjectionUniform{}).Size(),
		shader.SlotObject:     (&model.GPUObjectUniform{}).Size(),
		shader.SlotLights:     (&light.GPULightsUniform{}).Size(),
		shader.SlotSkinning:   (&model.GPUSkinningUniform{}).Size(),
	}
	bindings := s.Bindings()
	require.Len(t, bindings, len(want))
	for _, b := range bindings {
		assert.Equalf(t, uint64(want[b.Slot]), b.MinSize, "binding %s at slot %d", b.Name, b.Slot)
	}
}

func TestVertexLayoutsMatchGoStructs(t *testing.T) {
	src := `//@oxy:include vertex
//@oxy:include normal_data
//@oxy:include instance
//@oxy:include skin
@vertex fn main(v: VertexInput) -> @builtin(position) vec4<f32> { return vec4<f32>(v.position, 1.0); }`
	s, err := shader.NewShader("inputs", shader.ShaderTypeVertex, shader.WithSource(src))
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 4)
	assert.Equal(t, uint64((&model.GPUVertex{}).Size()), layouts[0].ArrayStride)
	assert.Equal(t, uint64((&model.GPUNormalData{}).Size()), layouts[1].ArrayStride)
	assert.Equal(t, uint64((&model.GPUInstance{}).Size()), layouts[2].ArrayStride)
	assert.Equal(t, uint64((&model.GPUSkinData{}).Size()), layouts[3].ArrayStride)
}
