package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/qmuntal/gltf"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct{}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend() gltfLoaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string) (model.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return importDocument(doc, gltfModelName(path), filepath.Dir(path), false)
}

func (b *gltfLoaderBackendImpl) LoadMeshOnly(path string) (model.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return importDocument(doc, gltfModelName(path), filepath.Dir(path), true)
}

func (b *gltfLoaderBackendImpl) LoadReader(name string, r io.Reader) (model.Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return importDocument(doc, name, ".", false)
}

// importDocument runs every extractor over a decoded document and assembles the mesh.
// The skeleton comes from the skin of the first skinned mesh; its animations come along with it.
//
// Parameters:
//   - doc: the decoded document
//   - name: the mesh name
//   - baseDir: the directory external image URIs are relative to
//   - meshOnly: skip skeleton and animation extraction
//
// Returns:
//   - model.Mesh: the assembled mesh
//   - error: error if any extraction fails
func importDocument(doc *gltf.Document, name, baseDir string, meshOnly bool) (model.Mesh, error) {
	geo, err := newGLTFMeshExtractor(doc).ExtractAll()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}

	materials, err := newGLTFMaterialExtractor(doc, baseDir).ExtractAllMaterials()
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}

	options := []model.MeshBuilderOption{
		model.WithNormalData(geo.normalData),
		model.WithSubMeshes(geo.subMeshes),
		model.WithMaterials(materials),
	}

	if !meshOnly && geo.hasJoints && len(doc.Skins) > 0 {
		skeletons := newGLTFSkeletonExtractor(doc)
		skinIndex := 0
		for mi := range doc.Meshes {
			if si := skeletons.FindSkinForMesh(mi); si >= 0 {
				skinIndex = si
				break
			}
		}

		skeleton, oldToNew, err := skeletons.ExtractSkeleton(skinIndex)
		if err != nil {
			return nil, fmt.Errorf("skeleton extraction failed: %w", err)
		}
		gltfRemapBoneIndices(geo.skinData, oldToNew)

		boneMapping := make(map[int]int32, len(oldToNew))
		for jointIdx, nodeIdx := range doc.Skins[skinIndex].Joints {
			if bone, ok := oldToNew[int32(jointIdx)]; ok {
				boneMapping[nodeIdx] = bone
			}
		}

		clips, err := newGLTFAnimationExtractor(doc).ExtractAnimationsForSkin(skinIndex, boneMapping)
		if err != nil {
			return nil, fmt.Errorf("animation extraction failed: %w", err)
		}

		options = append(options, model.WithSkinning(geo.skinData, skeleton), model.WithAnimations(clips))
	}

	return model.NewMesh(name, geo.vertices, geo.indices, options...)
}

// gltfRemapBoneIndices rewrites vertex bone indices from skin joint order to sorted bone order.
func gltfRemapBoneIndices(skin []model.GPUSkinData, oldToNew map[int32]int32) {
	for i := range skin {
		for k := range 4 {
			if idx, ok := oldToNew[int32(skin[i].BoneIndices[k])]; ok {
				skin[i].BoneIndices[k] = uint32(idx)
			}
		}
	}
}

// gltfModelName names a mesh after its file, without the extension.
func gltfModelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
