package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	doc     *gltf.Document
	baseDir string
}

// gltfMaterialExtractor defines the interface for extracting material and texture data
// from a glTF document into engine-ready ImportedMaterial structs.
type gltfMaterialExtractor interface {
	// ExtractMaterial extracts a single material by index. Embedded images are copied into the
	// texture's Data; external images are referenced by Path and read lazily on decode.
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - common.ImportedMaterial: the extracted material
	//   - error: error if extraction fails
	ExtractMaterial(materialIndex int) (common.ImportedMaterial, error)

	// ExtractAllMaterials extracts all materials from the document in index order.
	//
	// Returns:
	//   - []common.ImportedMaterial: all extracted materials
	//   - error: error if extraction fails
	ExtractAllMaterials() ([]common.ImportedMaterial, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a document.
//
// Parameters:
//   - doc: the decoded document
//   - baseDir: the directory external image URIs are relative to
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(doc *gltf.Document, baseDir string) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{doc: doc, baseDir: baseDir}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) (common.ImportedMaterial, error) {
	if materialIndex < 0 || materialIndex >= len(e.doc.Materials) {
		return common.ImportedMaterial{}, fmt.Errorf("material index %d out of range", materialIndex)
	}
	mat := e.doc.Materials[materialIndex]

	result := common.ImportedMaterial{
		Name:      mat.Name,
		BaseColor: [4]float32{1, 1, 1, 1},
	}
	if result.Name == "" {
		result.Name = fmt.Sprintf("material_%d", materialIndex)
	}

	if pbr := mat.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		result.BaseColor = [4]float32{float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3])}

		if pbr.BaseColorTexture != nil {
			tex, err := e.loadTexture(pbr.BaseColorTexture.Index)
			if err != nil {
				return common.ImportedMaterial{}, fmt.Errorf("material %q: base color texture: %w", result.Name, err)
			}
			result.DiffuseTexture = tex
		}
	}

	if mat.NormalTexture != nil && mat.NormalTexture.Index != nil {
		tex, err := e.loadTexture(*mat.NormalTexture.Index)
		if err != nil {
			return common.ImportedMaterial{}, fmt.Errorf("material %q: normal texture: %w", result.Name, err)
		}
		result.NormalTexture = tex
	}

	return result, nil
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials() ([]common.ImportedMaterial, error) {
	materials := make([]common.ImportedMaterial, len(e.doc.Materials))
	for i := range e.doc.Materials {
		mat, err := e.ExtractMaterial(i)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		materials[i] = mat
	}
	return materials, nil
}

// loadTexture resolves a glTF texture index into an ImportedTexture. A texture without a source
// image resolves to nil.
func (e *gltfMaterialExtractorImpl) loadTexture(textureIndex int) (*common.ImportedTexture, error) {
	if textureIndex < 0 || textureIndex >= len(e.doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	tex := e.doc.Textures[textureIndex]
	if tex.Source == nil {
		return nil, nil
	}
	if *tex.Source < 0 || *tex.Source >= len(e.doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", *tex.Source)
	}
	img := e.doc.Images[*tex.Source]

	result := &common.ImportedTexture{
		Name:     img.Name,
		MimeType: img.MimeType,
	}
	if result.Name == "" {
		result.Name = fmt.Sprintf("image_%d", *tex.Source)
	}
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(e.doc.Samplers) {
		result.SamplerData = gltfSamplerToStagingData(e.doc.Samplers[*tex.Sampler])
	}

	switch {
	case img.BufferView != nil:
		if *img.BufferView < 0 || *img.BufferView >= len(e.doc.BufferViews) {
			return nil, fmt.Errorf("bufferView index %d out of range", *img.BufferView)
		}
		data, err := modeler.ReadBufferView(e.doc, e.doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		result.Data = append([]byte(nil), data...)
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		result.Data = data
	case img.URI != "":
		result.Path = filepath.Join(e.baseDir, img.URI)
		if _, err := os.Stat(result.Path); err != nil {
			return nil, fmt.Errorf("image %q: %w", img.URI, err)
		}
	default:
		return nil, nil
	}
	return result, nil
}

// gltfSamplerToStagingData converts a glTF sampler into SamplerStagingData. Unset fields keep the
// glTF defaults of linear filtering and repeat wrapping.
//
// Parameters:
//   - s: the glTF sampler to convert
//
// Returns:
//   - *common.SamplerStagingData: the converted sampler
func gltfSamplerToStagingData(s *gltf.Sampler) *common.SamplerStagingData {
	result := common.DefaultSampler()
	if s.MagFilter == gltf.MagNearest {
		result.MagFilter = common.FilterModeNearest
	}
	if s.MinFilter == gltf.MinNearest {
		result.MinFilter = common.FilterModeNearest
	}
	result.AddressModeU = gltfWrapToAddressMode(s.WrapS)
	result.AddressModeV = gltfWrapToAddressMode(s.WrapT)
	return result
}

func gltfWrapToAddressMode(wrap gltf.WrappingMode) common.AddressMode {
	switch wrap {
	case gltf.WrapClampToEdge:
		return common.AddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return common.AddressModeMirrorRepeat
	default:
		return common.AddressModeRepeat
	}
}
