package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	doc *gltf.Document
}

// gltfSkeletonExtractor defines the interface for extracting bone hierarchies from glTF skins.
// Bones are topologically sorted so parents always precede their children.
type gltfSkeletonExtractor interface {
	// ExtractSkeleton extracts a skeleton and the mapping from skin joint order to sorted bone order.
	// The mapping is needed to remap vertex bone indices after sorting.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract
	//
	// Returns:
	//   - *model.Skeleton: the extracted skeleton
	//   - map[int32]int32: mapping from skin joint index to sorted bone index
	//   - error: error if extraction fails
	ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int32]int32, error)

	// FindSkinForMesh finds the skin attached to the first node instancing a mesh.
	// Returns -1 if the mesh is not skinned by any node.
	//
	// Parameters:
	//   - meshIndex: the mesh index to find a skin for
	//
	// Returns:
	//   - int: the skin index, or -1 if none
	FindSkinForMesh(meshIndex int) int
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

func newGLTFSkeletonExtractor(doc *gltf.Document) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{doc: doc}
}

func (e *gltfSkeletonExtractorImpl) FindSkinForMesh(meshIndex int) int {
	for _, node := range e.doc.Nodes {
		if node.Mesh != nil && *node.Mesh == meshIndex && node.Skin != nil {
			return *node.Skin
		}
	}
	return -1
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int32]int32, error) {
	if skinIndex < 0 || skinIndex >= len(e.doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := e.doc.Skins[skinIndex]

	var inverseBind [][4][4]float32
	if skin.InverseBindMatrices != nil {
		acr, err := gltfAccessor(e.doc, *skin.InverseBindMatrices)
		if err != nil {
			return nil, nil, err
		}
		data, err := modeler.ReadAccessor(e.doc, acr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
		}
		mats, ok := data.([][4][4]float32)
		if !ok {
			return nil, nil, fmt.Errorf("inverse bind matrices are %T, want float MAT4", data)
		}
		inverseBind = mats
	}

	bones := make([]model.Bone, len(skin.Joints))
	nodeToBone := make(map[int]int32, len(skin.Joints))
	for i, nodeIdx := range skin.Joints {
		if nodeIdx < 0 || nodeIdx >= len(e.doc.Nodes) {
			return nil, nil, fmt.Errorf("joint %d: invalid node index %d", i, nodeIdx)
		}
		node := e.doc.Nodes[nodeIdx]
		bone := &bones[i]
		bone.Name = node.Name
		if bone.Name == "" {
			bone.Name = fmt.Sprintf("bone_%d", i)
		}
		bone.InverseBindMatrix = mgl32.Ident4()
		if i < len(inverseBind) {
			bone.InverseBindMatrix = gltfMat4(inverseBind[i])
		}
		bone.LocalTransform = gltfNodeTransform(node)
		bone.ParentIndex = -1
		nodeToBone[nodeIdx] = int32(i)
	}

	var roots []int32
	for i, nodeIdx := range skin.Joints {
		if parent, ok := e.parentJoint(nodeIdx, nodeToBone); ok {
			bones[i].ParentIndex = parent
			continue
		}
		roots = append(roots, int32(i))
	}

	sorted, oldToNew := gltfTopologicalSortBones(bones, roots)
	skeleton := &model.Skeleton{
		Bones:           sorted,
		BoneNameToIndex: make(map[string]int32, len(sorted)),
	}
	for i, b := range sorted {
		skeleton.BoneNameToIndex[b.Name] = int32(i)
		if b.ParentIndex < 0 {
			skeleton.RootBoneIndices = append(skeleton.RootBoneIndices, int32(i))
		}
	}
	return skeleton, oldToNew, nil
}

// parentJoint returns the bone index of the joint node that lists nodeIdx as a child.
func (e *gltfSkeletonExtractorImpl) parentJoint(nodeIdx int, nodeToBone map[int]int32) (int32, bool) {
	for parentIdx, node := range e.doc.Nodes {
		for _, child := range node.Children {
			if child != nodeIdx {
				continue
			}
			bone, ok := nodeToBone[parentIdx]
			return bone, ok
		}
	}
	return -1, false
}

// gltfMat4 converts a column-major glTF matrix into an mgl32 matrix.
func gltfMat4(m [4][4]float32) mgl32.Mat4 {
	var out mgl32.Mat4
	for c := range 4 {
		for r := range 4 {
			out[c*4+r] = m[c][r]
		}
	}
	return out
}

var gltfIdentity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// gltfNodeTransform returns a node's local TRS, decomposing its matrix when one is set.
func gltfNodeTransform(node *gltf.Node) model.Transform {
	if m := node.MatrixOrDefault(); m != gltfIdentity {
		var mat mgl32.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		return decomposeMatrix(mat)
	}
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	return model.Transform{
		Translation: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		Rotation:    mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize(),
		Scale:       mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	}
}

// decomposeMatrix splits an affine matrix without shear into translation, rotation and scale.
func decomposeMatrix(m mgl32.Mat4) model.Transform {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	t := model.Transform{
		Translation: m.Col(3).Vec3(),
		Scale:       mgl32.Vec3{sx, sy, sz},
	}
	for _, s := range []*float32{&sx, &sy, &sz} {
		if *s < 1e-4 {
			*s = 1
		}
	}
	rot := mgl32.Mat3FromCols(m.Col(0).Vec3().Mul(1/sx), m.Col(1).Vec3().Mul(1/sy), m.Col(2).Vec3().Mul(1/sz))
	t.Rotation = mgl32.Mat4ToQuat(rot.Mat4()).Normalize()
	return t
}

// gltfTopologicalSortBones orders bones breadth-first from the roots so parents precede children.
// Bones unreachable from a root are appended in their original order.
//
// Parameters:
//   - bones: bones in skin joint order with ParentIndex in that order
//   - roots: joint indices of bones without a parent joint
//
// Returns:
//   - []model.Bone: sorted bones with remapped parent indices
//   - map[int32]int32: original joint index to sorted bone index
func gltfTopologicalSortBones(bones []model.Bone, roots []int32) ([]model.Bone, map[int32]int32) {
	children := make(map[int32][]int32)
	for i, b := range bones {
		if b.ParentIndex >= 0 {
			children[b.ParentIndex] = append(children[b.ParentIndex], int32(i))
		}
	}

	order := make([]int32, 0, len(bones))
	visited := make([]bool, len(bones))
	queue := append([]int32(nil), roots...)
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		if visited[idx] {
			continue
		}
		visited[idx] = true
		order = append(order, idx)
		queue = append(queue, children[idx]...)
	}
	for i := range bones {
		if !visited[i] {
			order = append(order, int32(i))
		}
	}

	oldToNew := make(map[int32]int32, len(bones))
	for newIdx, oldIdx := range order {
		oldToNew[oldIdx] = int32(newIdx)
	}

	sorted := make([]model.Bone, len(bones))
	for newIdx, oldIdx := range order {
		b := bones[oldIdx]
		if b.ParentIndex >= 0 {
			b.ParentIndex = oldToNew[b.ParentIndex]
		}
		sorted[newIdx] = b
	}
	return sorted, oldToNew
}
