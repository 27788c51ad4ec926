package light

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPULightsUniformSource is the canonical WGSL definition of the LightsUniform struct.
// Matches GPULightsUniform layout exactly (NumLights * 32 bytes).
//
//go:embed assets/lights_uniform.wgsl
var GPULightsUniformSource string

// GPULightsUniform is the per-frame lights uniform block.
// Size: 64 bytes for two lights.
type GPULightsUniform struct {
	Positions [NumLights]mgl32.Vec4 // offset  0: world-space positions, w = 1
	Colors    [NumLights]mgl32.Vec4 // offset 32: RGBA colors
}

// NewGPULightsUniform builds the uniform block from a scene's light slots.
// Empty slots are uploaded as zero position and zero color.
//
// Parameters:
//   - lights: the light slots, nil entries allowed
//
// Returns:
//   - GPULightsUniform: the uniform block
func NewGPULightsUniform(lights [NumLights]PointLight) GPULightsUniform {
	var u GPULightsUniform
	for i, l := range lights {
		if l == nil {
			continue
		}
		u.Positions[i] = l.Position()
		u.Colors[i] = l.Color()
	}
	return u
}

// Size returns the size of the GPULightsUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes
func (g *GPULightsUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULightsUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULightsUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range NumLights {
		common.PutVec4(buf[i*16:], g.Positions[i])
		common.PutVec4(buf[NumLights*16+i*16:], g.Colors[i])
	}
	return buf
}
