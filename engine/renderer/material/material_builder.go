package material

import (
	"github.com/Carmen-Shannon/oxy-voxel/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithDiffuseTexture is an option builder that sets the diffuse/albedo texture reference.
//
// Parameters:
//   - tex: the imported texture data for the diffuse map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = tex
	}
}

// WithDiffuseTexturePath is an option builder that reads the diffuse texture from an image file.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexturePath(path string) MaterialBuilderOption {
	return WithDiffuseTexture(&common.ImportedTexture{Name: "diffuse", Path: path})
}

// WithNormalTexture is an option builder that sets the normal map texture reference.
//
// Parameters:
//   - tex: the imported texture data for the normal map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the normal texture option to a material
func WithNormalTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = tex
	}
}

// WithNormalTexturePath is an option builder that reads the normal map from an image file.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - MaterialBuilderOption: a function that applies the normal texture option to a material
func WithNormalTexturePath(path string) MaterialBuilderOption {
	return WithNormalTexture(&common.ImportedTexture{Name: "normal", Path: path})
}

// WithTextureData is an option builder that supplies already decoded diffuse pixels, for
// procedurally generated textures.
//
// Parameters:
//   - data: the RGBA pixels to upload
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture data option to a material
func WithTextureData(data *common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseStaging = data
		if m.diffuseTexture == nil {
			m.diffuseTexture = &common.ImportedTexture{Name: data.Label, Width: int(data.Width), Height: int(data.Height)}
		}
	}
}
