package camera

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (80 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the per-frame camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly (see GPUCameraUniformSource).
// Size: 80 bytes.
type GPUCameraUniform struct {
	View     mgl32.Mat4 // offset  0: view matrix (mat4x4<f32>)
	Position mgl32.Vec4 // offset 64: world-space eye position, w = 1
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutMat4(buf[0:], g.View)
	common.PutVec4(buf[64:], g.Position)
	return buf
}

// GPUProjectionUniformSource is the canonical WGSL definition of the ProjectionUniform struct.
// Matches GPUProjectionUniform layout exactly (64 bytes).
//
//go:embed assets/projection_uniform.wgsl
var GPUProjectionUniformSource string

// GPUProjectionUniform holds the projection matrix, re-uploaded whenever the surface is resized.
// Size: 64 bytes.
type GPUProjectionUniform struct {
	Projection mgl32.Mat4 // offset 0: projection matrix (mat4x4<f32>)
}

// Size returns the size of the GPUProjectionUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUProjectionUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUProjectionUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUProjectionUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutMat4(buf, g.Projection)
	return buf
}
