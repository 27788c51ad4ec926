// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// AddressMode controls how texture coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	// AddressModeRepeat tiles the texture.
	AddressModeRepeat AddressMode = iota
	// AddressModeClampToEdge clamps coordinates to the edge texels.
	AddressModeClampToEdge
	// AddressModeMirrorRepeat tiles the texture, mirroring every other tile.
	AddressModeMirrorRepeat
)

// FilterMode selects texel filtering for magnification and minification.
type FilterMode int

const (
	// FilterModeLinear blends neighbouring texels.
	FilterModeLinear FilterMode = iota
	// FilterModeNearest picks the closest texel.
	FilterModeNearest
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Label is a debug name forwarded to the graphics backend.
	Label string
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Sampler describes how the texture is sampled. Nil selects linear filtering with repeat addressing.
	Sampler *SamplerStagingData
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter FilterMode
}

// DefaultSampler returns linear filtering with repeat addressing on every axis.
//
// Returns:
//   - *SamplerStagingData: a new sampler description
func DefaultSampler() *SamplerStagingData {
	return &SamplerStagingData{
		AddressModeU: AddressModeRepeat,
		AddressModeV: AddressModeRepeat,
		AddressModeW: AddressModeRepeat,
		MagFilter:    FilterModeLinear,
		MinFilter:    FilterModeLinear,
	}
}

// ImportedMaterial represents material properties from an imported model file.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse color (RGBA).
	BaseColor [4]float32

	// DiffuseTexture holds the diffuse/albedo texture (embedded bytes or a path), nil if untextured.
	DiffuseTexture *ImportedTexture

	// NormalTexture holds the normal map (embedded bytes or a path), nil if absent.
	NormalTexture *ImportedTexture
}

// ImportedTexture represents texture data extracted from a model file or referenced on disk.
// For embedded textures (GLB), the Data field contains raw image bytes.
// For external textures, the Path field contains the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "diffuse", "normal").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures.
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	// SamplerData holds sampler parameters extracted from the model file.
	// When non-nil, these values override the default linear/repeat settings.
	SamplerData *SamplerStagingData
}

// Decode decodes the texture to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG, JPEG, BMP, TIFF and WebP.
//
// Returns:
//   - *TextureStagingData: RGBA pixels ready for upload
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() (*TextureStagingData, error) {
	if t == nil {
		return nil, fmt.Errorf("texture is nil")
	}

	var r io.Reader
	switch {
	case len(t.Data) > 0:
		r = bytes.NewReader(t.Data)
	case t.Path != "":
		file, err := os.Open(t.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open texture file %s: %w", t.Path, err)
		}
		defer file.Close()
		r = file
	default:
		return nil, fmt.Errorf("texture %q has neither data nor path", t.Name)
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %q: %w", Coalesce(t.Path, t.Name), err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	sampler := t.SamplerData
	if sampler == nil {
		sampler = DefaultSampler()
	}
	return &TextureStagingData{
		Label:   Coalesce(t.Name, t.Path),
		Pixels:  rgba.Pix,
		Width:   uint32(t.Width),
		Height:  uint32(t.Height),
		Sampler: sampler,
	}, nil
}
