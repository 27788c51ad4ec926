package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name           string
	vertices       []GPUVertex
	normalData     []GPUNormalData
	skinData       []GPUSkinData
	indices        []uint32
	subMeshes      []SubMesh
	materials      []common.ImportedMaterial
	skeleton       *Skeleton
	animations     []*AnimationClip
	boundingRadius float32
}

// Mesh is CPU-side geometry ready for upload: vertices, optional tangent frames, optional skin
// weights, indices split into sub-meshes, the materials those sub-meshes reference, and for
// skinned meshes the skeleton and its animation clips. It is produced by the loader or by the
// primitive constructors and consumed by drawables.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Vertices retrieves the per-vertex position, UV and normal data.
	//
	// Returns:
	//   - []GPUVertex: the vertices
	Vertices() []GPUVertex

	// NormalData retrieves the per-vertex tangent frames, nil when the mesh has none.
	//
	// Returns:
	//   - []GPUNormalData: the tangent frames
	NormalData() []GPUNormalData

	// SkinData retrieves the per-vertex bone influences, nil for static meshes.
	//
	// Returns:
	//   - []GPUSkinData: the bone influences
	SkinData() []GPUSkinData

	// Indices retrieves the triangle indices.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// SubMeshes retrieves the index ranges of the mesh. A mesh always has at least one.
	//
	// Returns:
	//   - []SubMesh: the sub-meshes
	SubMeshes() []SubMesh

	// Materials retrieves the materials referenced by the sub-meshes.
	//
	// Returns:
	//   - []common.ImportedMaterial: the materials
	Materials() []common.ImportedMaterial

	// Skeleton retrieves the bone hierarchy. Returns nil for static meshes.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// Animations retrieves all animation clips bundled with this mesh.
	//
	// Returns:
	//   - []*AnimationClip: the animation clips
	Animations() []*AnimationClip

	// AnimationNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the animation clip names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation clip name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int

	// Skinned reports whether this mesh carries bone influences and a skeleton.
	//
	// Returns:
	//   - bool: true if the mesh is skinned
	Skinned() bool

	// BoundingRadius returns the distance from the origin to the farthest vertex.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// VertexData returns the vertices as raw bytes for upload.
	VertexData() []byte

	// NormalDataBytes returns the tangent frames as raw bytes for upload, nil when absent.
	NormalDataBytes() []byte

	// SkinDataBytes returns the bone influences as raw bytes for upload, nil when absent.
	SkinDataBytes() []byte

	// IndexData returns the indices as raw bytes for upload.
	IndexData() []byte
}

var _ Mesh = &mesh{}

// NewMesh creates a Mesh from vertices and indices with all specified options applied.
// When no sub-meshes are supplied the whole index buffer becomes a single untextured sub-mesh.
//
// Parameters:
//   - name: the mesh identifier
//   - vertices: the vertex data
//   - indices: the triangle indices
//   - options: functional options adding tangent frames, skinning, sub-meshes and materials
//
// Returns:
//   - Mesh: the new mesh
//   - error: an error if the optional per-vertex streams or sub-meshes do not match the geometry
func NewMesh(name string, vertices []GPUVertex, indices []uint32, options ...MeshBuilderOption) (Mesh, error) {
	m := &mesh{
		name:     name,
		vertices: vertices,
		indices:  indices,
	}
	for _, opt := range options {
		opt(m)
	}
	if len(m.subMeshes) == 0 {
		m.subMeshes = []SubMesh{{IndexCount: uint32(len(indices)), MaterialIndex: -1}}
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", name, err)
	}
	m.boundingRadius = ComputeBoundingRadius(vertices)
	return m, nil
}

func (m *mesh) validate() error {
	if len(m.vertices) == 0 || len(m.indices) == 0 {
		return errors.New("mesh has no geometry")
	}
	if m.normalData != nil && len(m.normalData) != len(m.vertices) {
		return fmt.Errorf("%d tangent frames for %d vertices", len(m.normalData), len(m.vertices))
	}
	if m.skinData != nil {
		if len(m.skinData) != len(m.vertices) {
			return fmt.Errorf("%d skin weights for %d vertices", len(m.skinData), len(m.vertices))
		}
		if m.skeleton == nil {
			return errors.New("skinned mesh has no skeleton")
		}
	}
	for i, sm := range m.subMeshes {
		if uint64(sm.BaseIndex)+uint64(sm.IndexCount) > uint64(len(m.indices)) {
			return fmt.Errorf("sub-mesh %d exceeds the index buffer", i)
		}
		if sm.MaterialIndex >= len(m.materials) {
			return fmt.Errorf("sub-mesh %d references missing material %d", i, sm.MaterialIndex)
		}
	}
	return nil
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Vertices() []GPUVertex {
	return m.vertices
}

func (m *mesh) NormalData() []GPUNormalData {
	return m.normalData
}

func (m *mesh) SkinData() []GPUSkinData {
	return m.skinData
}

func (m *mesh) Indices() []uint32 {
	return m.indices
}

func (m *mesh) SubMeshes() []SubMesh {
	return m.subMeshes
}

func (m *mesh) Materials() []common.ImportedMaterial {
	return m.materials
}

func (m *mesh) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *mesh) Animations() []*AnimationClip {
	return m.animations
}

func (m *mesh) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, a := range m.animations {
		names[i] = a.Name
	}
	return names
}

func (m *mesh) GetAnimationIndex(name string) int {
	for i, a := range m.animations {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (m *mesh) Skinned() bool {
	return m.skinData != nil && m.skeleton != nil
}

func (m *mesh) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *mesh) VertexData() []byte {
	return common.SliceToBytes(m.vertices)
}

func (m *mesh) NormalDataBytes() []byte {
	return common.SliceToBytes(m.normalData)
}

func (m *mesh) SkinDataBytes() []byte {
	return common.SliceToBytes(m.skinData)
}

func (m *mesh) IndexData() []byte {
	return common.SliceToBytes(m.indices)
}
