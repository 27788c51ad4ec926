package model

import (
	"github.com/Carmen-Shannon/oxy-voxel/common"
)

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithNormalData is an option builder that attaches per-vertex tangent frames for normal mapping.
//
// Parameters:
//   - data: one tangent frame per vertex
//
// Returns:
//   - MeshBuilderOption: a function that applies the normal data option to a mesh
func WithNormalData(data []GPUNormalData) MeshBuilderOption {
	return func(m *mesh) {
		m.normalData = data
	}
}

// WithSkinning is an option builder that makes the mesh skinned.
//
// Parameters:
//   - data: one set of bone influences per vertex
//   - skeleton: the bone hierarchy the influences refer to
//
// Returns:
//   - MeshBuilderOption: a function that applies the skinning option to a mesh
func WithSkinning(data []GPUSkinData, skeleton *Skeleton) MeshBuilderOption {
	return func(m *mesh) {
		m.skinData = data
		m.skeleton = skeleton
	}
}

// WithAnimations is an option builder that sets the animation clips of the mesh.
//
// Parameters:
//   - animations: the animation clips to set
//
// Returns:
//   - MeshBuilderOption: a function that applies the animations option to a mesh
func WithAnimations(animations []*AnimationClip) MeshBuilderOption {
	return func(m *mesh) {
		m.animations = animations
	}
}

// WithSubMeshes is an option builder that splits the index buffer into sub-meshes.
//
// Parameters:
//   - subMeshes: the index ranges
//
// Returns:
//   - MeshBuilderOption: a function that applies the sub-mesh option to a mesh
func WithSubMeshes(subMeshes []SubMesh) MeshBuilderOption {
	return func(m *mesh) {
		m.subMeshes = subMeshes
	}
}

// WithMaterials is an option builder that sets the materials referenced by the sub-meshes.
//
// Parameters:
//   - materials: the imported materials
//
// Returns:
//   - MeshBuilderOption: a function that applies the materials option to a mesh
func WithMaterials(materials []common.ImportedMaterial) MeshBuilderOption {
	return func(m *mesh) {
		m.materials = materials
	}
}
