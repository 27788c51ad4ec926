// Package backend defines the graphics device contract consumed by the renderer, scenes and drawables.
// GPU objects are referred to by opaque handles so that nothing above this package depends on a
// concrete graphics API. The WebGPU implementation lives in the wgpu_backend sub-package and a
// recording fake for tests lives in backendtest.
package backend

import "github.com/Carmen-Shannon/oxy-voxel/common"

// BufferHandle identifies a GPU buffer owned by a Device. The zero value is never a valid handle.
type BufferHandle uint32

// TextureHandle identifies a GPU texture and its sampler owned by a Device. The zero value is never a valid handle.
type TextureHandle uint32

// ShaderHandle identifies a compiled shader module owned by a Device. The zero value is never a valid handle.
type ShaderHandle uint32

// Valid reports whether the handle refers to a created buffer.
func (h BufferHandle) Valid() bool { return h != 0 }

// Valid reports whether the handle refers to a created texture.
func (h TextureHandle) Valid() bool { return h != 0 }

// Valid reports whether the handle refers to a compiled shader.
func (h ShaderHandle) Valid() bool { return h != 0 }

// BufferUsage describes how a buffer is bound during rendering.
type BufferUsage int

const (
	// BufferUsageVertex is a per-vertex or per-instance vertex buffer.
	BufferUsageVertex BufferUsage = iota

	// BufferUsageIndex is an index buffer.
	BufferUsageIndex

	// BufferUsageUniform is a uniform block bound to a shader slot.
	BufferUsageUniform
)

// String returns a readable name for the usage.
func (u BufferUsage) String() string {
	switch u {
	case BufferUsageVertex:
		return "vertex"
	case BufferUsageIndex:
		return "index"
	case BufferUsageUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// ShaderStage identifies the pipeline stage a shader module runs in.
type ShaderStage int

const (
	// ShaderStageVertex is the vertex stage.
	ShaderStageVertex ShaderStage = iota

	// ShaderStagePixel is the pixel (fragment) stage.
	ShaderStagePixel
)

// String returns a readable name for the stage.
func (s ShaderStage) String() string {
	if s == ShaderStageVertex {
		return "vertex"
	}
	return "pixel"
}

// VertexFormat is the data format of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x3
	VertexFormatUint32x4
	VertexFormatSint32
	VertexFormatSint32x2
	VertexFormatSint32x3
	VertexFormatSint32x4
)

// Size returns the byte size of one attribute of this format.
//
// Returns:
//   - uint64: the attribute size in bytes
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32, VertexFormatUint32, VertexFormatSint32:
		return 4
	case VertexFormatFloat32x2, VertexFormatUint32x2, VertexFormatSint32x2:
		return 8
	case VertexFormatFloat32x3, VertexFormatUint32x3, VertexFormatSint32x3:
		return 12
	default:
		return 16
	}
}

// VertexStepMode selects whether a vertex buffer advances per vertex or per instance.
type VertexStepMode int

const (
	// VertexStepModeVertex advances once per vertex.
	VertexStepModeVertex VertexStepMode = iota

	// VertexStepModeInstance advances once per instance.
	VertexStepModeInstance
)

// IndexFormat is the integer width of index buffer entries.
type IndexFormat int

const (
	IndexFormatUint32 IndexFormat = iota
	IndexFormatUint16
)

// BindingKind classifies a shader resource binding.
type BindingKind int

const (
	// BindingKindUniform is a uniform buffer.
	BindingKindUniform BindingKind = iota

	// BindingKindStorage is a read-only storage buffer.
	BindingKindStorage

	// BindingKindTexture is a sampled 2D texture.
	BindingKindTexture

	// BindingKindSampler is a filtering sampler.
	BindingKindSampler
)

// VertexAttribute describes one attribute within a vertex buffer layout.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes how one bound vertex buffer is read by a vertex shader.
type VertexBufferLayout struct {
	ArrayStride uint64
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

// Binding describes a resource a shader declares in bind group 0.
type Binding struct {
	// Slot is the @binding index of the resource.
	Slot uint32

	// Kind classifies the resource.
	Kind BindingKind

	// Name is the variable name the shader declares for the resource.
	Name string

	// MinSize is the minimum byte size of a buffer binding, 0 when unknown.
	MinSize uint64
}

// ShaderSource is everything a Device needs to compile a shader module and later build pipelines from it.
type ShaderSource struct {
	Label         string
	Stage         ShaderStage
	Code          string
	EntryPoint    string
	VertexLayouts []VertexBufferLayout
	Bindings      []Binding
}

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// MidnightBlue is the default clear color.
var MidnightBlue = Color{R: 0.098, G: 0.098, B: 0.439, A: 1}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing.
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

// Device is the graphics device and presentation surface used by the renderer.
// All methods are called from the frame thread.
//
// Drawing follows an immediate binding model: between BeginFrame and Present, the caller sets a
// shader pair, vertex/index buffers, uniform buffers and textures, then issues DrawIndexed. Bindings
// persist across draws until replaced.
type Device interface {
	// Initialize acquires the adapter, device and surface.
	//
	// Returns:
	//   - error: an error if any of the GPU objects could not be acquired
	Initialize() error

	// Size returns the current surface size in pixels.
	//
	// Returns:
	//   - int: the surface width
	//   - int: the surface height
	Size() (int, int)

	// Resize reconfigures the surface and its depth target.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// CreateBuffer creates a buffer initialised with data.
	//
	// Parameters:
	//   - label: a debug label
	//   - usage: how the buffer is bound
	//   - data: the initial contents, which also fix the buffer size
	//
	// Returns:
	//   - BufferHandle: the new buffer
	//   - error: an error if data is empty or the buffer could not be created
	CreateBuffer(label string, usage BufferUsage, data []byte) (BufferHandle, error)

	// WriteBuffer replaces the contents of a buffer starting at offset 0.
	//
	// Parameters:
	//   - h: the buffer to write
	//   - data: the bytes to write; must fit in the buffer
	//
	// Returns:
	//   - error: an error if the handle is unknown or data overflows the buffer
	WriteBuffer(h BufferHandle, data []byte) error

	// CreateTexture uploads RGBA8 pixels and creates the accompanying sampler.
	//
	// Parameters:
	//   - data: the staged pixels and sampler description
	//
	// Returns:
	//   - TextureHandle: the new texture
	//   - error: an error if the texture could not be created
	CreateTexture(data *common.TextureStagingData) (TextureHandle, error)

	// CreateShader compiles a shader module.
	//
	// Parameters:
	//   - src: the shader source and its reflected layouts
	//
	// Returns:
	//   - ShaderHandle: the compiled module
	//   - error: an error if compilation failed
	CreateShader(src ShaderSource) (ShaderHandle, error)

	// BeginFrame acquires the next surface texture and clears color and depth.
	//
	// Parameters:
	//   - clear: the clear color
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	BeginFrame(clear Color) error

	// SetPipeline selects the vertex and pixel shader pair for subsequent draws.
	//
	// Parameters:
	//   - vs: the vertex shader
	//   - ps: the pixel shader
	//
	// Returns:
	//   - error: an error if either handle is unknown or the pipeline could not be built
	SetPipeline(vs, ps ShaderHandle) error

	// SetVertexBuffers binds vertex buffers to consecutive slots starting at startSlot.
	SetVertexBuffers(startSlot uint32, bufs ...BufferHandle)

	// SetIndexBuffer binds the index buffer.
	SetIndexBuffer(h BufferHandle, format IndexFormat)

	// SetUniformBuffer binds a uniform buffer at a bind group 0 slot.
	SetUniformBuffer(slot uint32, h BufferHandle)

	// SetTexture binds a texture at slot and its sampler at slot+1.
	SetTexture(slot uint32, h TextureHandle)

	// DrawIndexed draws instanceCount instances of indexCount indices using the current bindings.
	//
	// Parameters:
	//   - indexCount: the number of indices to draw
	//   - instanceCount: the number of instances
	//   - firstIndex: the first index within the index buffer
	//   - baseVertex: a value added to each index before fetching vertices
	//
	// Returns:
	//   - error: an error if no pipeline is set or a required binding is missing
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32) error

	// Present submits the recorded frame and presents it.
	//
	// Returns:
	//   - error: an error if no frame is in progress
	Present() error

	ReleaseBuffer(h BufferHandle)
	ReleaseTexture(h TextureHandle)
	ReleaseShader(h ShaderHandle)

	// Release destroys every remaining GPU object and the device itself.
	Release()
}
