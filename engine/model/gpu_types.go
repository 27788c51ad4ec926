package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxBoneCount is the number of bone matrices in the skinning uniform block.
// Skeletons with more bones cannot be drawn.
const MaxBoneCount = 128

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct bound at vertex slot 0.
// Matches GPUVertex layout exactly (32 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Size: 32 bytes, no padding.
type GPUVertex struct {
	Position [3]float32 // offset  0: position in model space
	TexCoord [2]float32 // offset 12: UV texture coordinate
	Normal   [3]float32 // offset 20: vertex normal
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (32)
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUNormalDataSource is the canonical WGSL definition of the NormalInput struct bound at vertex slot 1
// by normal-mapped static meshes. Matches GPUNormalData layout exactly (24 bytes).
//
//go:embed assets/normal_data.wgsl
var GPUNormalDataSource string

// GPUNormalData holds the per-vertex tangent frame used for normal mapping.
// Size: 24 bytes, no padding.
type GPUNormalData struct {
	Tangent   [3]float32 // offset  0
	Bitangent [3]float32 // offset 12
}

// Size returns the size of the GPUNormalData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (24)
func (g *GPUNormalData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUInstanceSource is the canonical WGSL definition of the InstanceInput struct bound at vertex slot 1
// by instanced batches. The world matrix is split into four column attributes.
//
//go:embed assets/instance.wgsl
var GPUInstanceSource string

// GPUInstance is the per-instance world transform of an instanced batch.
// Size: 64 bytes (column-major mat4x4<f32>).
type GPUInstance struct {
	World mgl32.Mat4
}

// Size returns the size of the GPUInstance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (64)
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUSkinSource is the canonical WGSL definition of the SkinInput struct bound at vertex slot 1
// by skinned models. Matches GPUSkinData layout exactly (32 bytes).
//
//go:embed assets/skin.wgsl
var GPUSkinSource string

// GPUSkinData holds the bone influences of one vertex.
// Size: 32 bytes, no padding.
type GPUSkinData struct {
	BoneIndices [4]uint32  // offset  0: indices of up to 4 influencing bones
	BoneWeights [4]float32 // offset 16: blend weights, summing to 1
}

// Size returns the size of the GPUSkinData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (32)
func (g *GPUSkinData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUObjectUniformSource is the canonical WGSL definition of the ObjectUniform block.
// Matches GPUObjectUniform layout exactly (96 bytes).
//
//go:embed assets/object_uniform.wgsl
var GPUObjectUniformSource string

// GPUObjectUniform is the per-drawable uniform block uploaded before each draw.
// Size: 96 bytes.
type GPUObjectUniform struct {
	World        mgl32.Mat4 // offset  0: world transform
	OutputColor  mgl32.Vec4 // offset 64: tint multiplied into the shaded color
	HasNormalMap uint32     // offset 80: 1 when the bound material has a normal map
	_pad         [3]uint32  // offset 84: padding to 96 bytes
}

// Size returns the size of the GPUObjectUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPUObjectUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUObjectUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUObjectUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutMat4(buf[0:], g.World)
	common.PutVec4(buf[64:], g.OutputColor)
	binary.LittleEndian.PutUint32(buf[80:], g.HasNormalMap)
	return buf
}

// GPUSkinningUniformSource is the canonical WGSL definition of the SkinningUniform block.
// The array length matches MaxBoneCount.
//
//go:embed assets/skinning_uniform.wgsl
var GPUSkinningUniformSource string

// GPUSkinningUniform is the bone palette uploaded before drawing a skinned model.
// Size: MaxBoneCount * 64 bytes.
type GPUSkinningUniform struct {
	Bones [MaxBoneCount]mgl32.Mat4
}

// Size returns the size of the GPUSkinningUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes
func (g *GPUSkinningUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the bone palette into a byte buffer suitable for GPU upload.
// Unused entries are written as identity matrices.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSkinningUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, m := range g.Bones {
		if m == (mgl32.Mat4{}) {
			m = mgl32.Ident4()
		}
		common.PutMat4(buf[i*64:], m)
	}
	return buf
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of vertices.
// The radius is the maximum distance from the origin across all vertices in the slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}
