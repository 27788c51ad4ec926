package material

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

// material is the implementation of the Material interface.
type material struct {
	mu *sync.Mutex

	name           string
	baseColor      [4]float32
	diffuseTexture *common.ImportedTexture
	normalTexture  *common.ImportedTexture

	diffuseStaging *common.TextureStagingData
	normalStaging  *common.TextureStagingData

	diffuseHandle backend.TextureHandle
	normalHandle  backend.TextureHandle
}

// Material is the surface description of a sub-mesh: a diffuse texture and an optional normal
// map. Texture decoding is CPU work that may run on any goroutine (the loader decodes materials in
// parallel); Initialize and Release touch the device and run on the frame thread.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// DiffuseTexture retrieves the diffuse/albedo texture data reference, or nil if none is set.
	//
	// Returns:
	//   - *common.ImportedTexture: the diffuse texture, or nil
	DiffuseTexture() *common.ImportedTexture

	// NormalTexture retrieves the normal map texture data reference, or nil if none is set.
	//
	// Returns:
	//   - *common.ImportedTexture: the normal texture, or nil
	NormalTexture() *common.ImportedTexture

	// Textured reports whether the material has a diffuse texture.
	Textured() bool

	// HasNormalMap reports whether the material has a normal map.
	HasNormalMap() bool

	// Decode decodes every texture of the material into RGBA pixels ready for upload.
	// Textures already decoded are skipped.
	//
	// Returns:
	//   - error: an error if a texture cannot be read or decoded
	Decode() error

	// Initialize uploads the decoded textures, decoding first if Decode has not run.
	// Calling it again after success is a no-op.
	//
	// Parameters:
	//   - device: the device to create the textures on
	//
	// Returns:
	//   - error: an error if decoding or texture creation fails
	Initialize(device backend.Device) error

	// DiffuseHandle returns the uploaded diffuse texture, zero until Initialize succeeds.
	DiffuseHandle() backend.TextureHandle

	// NormalHandle returns the uploaded normal map, zero when absent or not yet initialized.
	NormalHandle() backend.TextureHandle

	// Release frees the uploaded textures.
	//
	// Parameters:
	//   - device: the device the textures were created on
	Release(device backend.Device)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:        &sync.Mutex{},
		baseColor: [4]float32{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// FromImported creates a Material from the material description of an imported mesh.
//
// Parameters:
//   - imported: the material read from a model file
//
// Returns:
//   - Material: a new Material instance
func FromImported(imported common.ImportedMaterial) Material {
	return NewMaterial(
		WithName(imported.Name),
		WithBaseColor(imported.BaseColor),
		WithDiffuseTexture(imported.DiffuseTexture),
		WithNormalTexture(imported.NormalTexture),
	)
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) DiffuseTexture() *common.ImportedTexture {
	return m.diffuseTexture
}

func (m *material) NormalTexture() *common.ImportedTexture {
	return m.normalTexture
}

func (m *material) Textured() bool {
	return m.diffuseTexture != nil
}

func (m *material) HasNormalMap() bool {
	return m.normalTexture != nil
}

func (m *material) Decode() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decode()
}

func (m *material) decode() error {
	if m.diffuseTexture != nil && m.diffuseStaging == nil {
		data, err := m.diffuseTexture.Decode()
		if err != nil {
			return fmt.Errorf("material %s: diffuse: %w", m.name, err)
		}
		m.diffuseStaging = data
	}
	if m.normalTexture != nil && m.normalStaging == nil {
		data, err := m.normalTexture.Decode()
		if err != nil {
			return fmt.Errorf("material %s: normal map: %w", m.name, err)
		}
		m.normalStaging = data
	}
	return nil
}

func (m *material) Initialize(device backend.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.decode(); err != nil {
		return err
	}
	if m.diffuseStaging != nil && !m.diffuseHandle.Valid() {
		h, err := device.CreateTexture(m.diffuseStaging)
		if err != nil {
			return fmt.Errorf("material %s: diffuse: %w", m.name, err)
		}
		m.diffuseHandle = h
	}
	if m.normalStaging != nil && !m.normalHandle.Valid() {
		h, err := device.CreateTexture(m.normalStaging)
		if err != nil {
			return fmt.Errorf("material %s: normal map: %w", m.name, err)
		}
		m.normalHandle = h
	}
	return nil
}

func (m *material) DiffuseHandle() backend.TextureHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.diffuseHandle
}

func (m *material) NormalHandle() backend.TextureHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.normalHandle
}

func (m *material) Release(device backend.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.diffuseHandle.Valid() {
		device.ReleaseTexture(m.diffuseHandle)
		m.diffuseHandle = 0
	}
	if m.normalHandle.Valid() {
		device.ReleaseTexture(m.normalHandle)
		m.normalHandle = 0
	}
}
