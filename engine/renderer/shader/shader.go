package shader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

// ShaderType identifies the pipeline stage a shader program runs in.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, containing a @vertex entry point.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypePixel is the pixel shader type, containing a @fragment entry point.
	ShaderTypePixel
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypePixel:
		return "pixel"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// Stage returns the backend pipeline stage for the shader type.
func (t ShaderType) Stage() backend.ShaderStage {
	if t == ShaderTypePixel {
		return backend.ShaderStagePixel
	}
	return backend.ShaderStageVertex
}

// Uniform and texture slots shared by every shader. All resources live in @group(0).
const (
	SlotCamera         uint32 = 0
	SlotProjection     uint32 = 1
	SlotObject         uint32 = 2
	SlotLights         uint32 = 3
	SlotSkinning       uint32 = 4
	SlotDiffuseTexture uint32 = 5
	SlotDiffuseSampler uint32 = 6
	SlotNormalTexture  uint32 = 7
	SlotNormalSampler  uint32 = 8
)

// Vertex buffer slots. Slot 0 always carries GPUVertex data; slot 1 carries the tangent frames,
// per-instance transforms or skin weights depending on the drawable kind.
const (
	VertexSlotGeometry uint32 = 0
	VertexSlotExtra    uint32 = 1
)

var (
	// ErrNoSource is returned by NewShader when neither a path nor inline source is given.
	ErrNoSource = errors.New("shader has no source")

	// ErrNoEntryPoint is returned when the source lacks an entry point for the shader's stage.
	ErrNoEntryPoint = errors.New("shader has no entry point")

	// ErrUnsupportedGroup is returned when the source declares resources outside @group(0).
	ErrUnsupportedGroup = errors.New("shader declares resources outside @group(0)")
)

// shader is the implementation of the Shader interface.
type shader struct {
	name       string
	shaderType ShaderType
	path       string
	rawSource  string
	entryPoint string // explicit override, empty to parse

	compiled compiledSource
	handle   backend.ShaderHandle

	pp PreProcessor
}

// compiledSource is the result of pre-processing and parsing one revision of shader source.
type compiledSource struct {
	source        string
	entryPoint    string
	vertexLayouts []backend.VertexBufferLayout
	bindings      []backend.Binding
	includes      []string
}

// Shader is a WGSL program for one pipeline stage. Its source is pre-processed and parsed when
// the shader is created so the vertex layouts and resource bindings it implies are known before
// any GPU work happens; Initialize then compiles it on a device.
type Shader interface {
	// Name retrieves the shader identifier used as its debug label.
	//
	// Returns:
	//   - string: the shader name
	Name() string

	// Type returns the pipeline stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypePixel
	Type() ShaderType

	// Path returns the file the source was read from, empty for inline sources.
	//
	// Returns:
	//   - string: the source path
	Path() string

	// Source returns the pre-processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL code handed to the device
	Source() string

	// EntryPoint returns the entry point function name.
	//
	// Returns:
	//   - string: the entry point
	EntryPoint() string

	// VertexLayouts returns the vertex buffer layouts implied by the vertex input structs, in slot
	// order. Always empty for pixel shaders.
	//
	// Returns:
	//   - []backend.VertexBufferLayout: the layouts
	VertexLayouts() []backend.VertexBufferLayout

	// Bindings returns the @group(0) resources the shader reads, sorted by slot.
	//
	// Returns:
	//   - []backend.Binding: the bindings
	Bindings() []backend.Binding

	// Includes returns the //@oxy:include names the source pulled in.
	//
	// Returns:
	//   - []string: the include names, in first-use order
	Includes() []string

	// Handle returns the compiled module handle, zero until Initialize succeeds.
	//
	// Returns:
	//   - backend.ShaderHandle: the module handle
	Handle() backend.ShaderHandle

	// Initialized reports whether the shader has been compiled on a device.
	//
	// Returns:
	//   - bool: true once Initialize has succeeded
	Initialized() bool

	// Initialize compiles the shader on the device. Calling it again after success is a no-op.
	//
	// Parameters:
	//   - device: the device to compile on
	//
	// Returns:
	//   - error: an error if compilation fails
	Initialize(device backend.Device) error

	// Reload re-reads the source file, re-parses it and recompiles it on the device. On any
	// failure the previous module stays in use and the error is returned.
	//
	// Parameters:
	//   - device: the device the shader was initialized on
	//
	// Returns:
	//   - error: an error if the shader has no path or the new source fails to load or compile
	Reload(device backend.Device) error

	// Release frees the compiled module. The shader can be initialized again afterwards.
	//
	// Parameters:
	//   - device: the device the shader was initialized on
	Release(device backend.Device)
}

var _ Shader = &shader{}

// NewShader creates a new Shader with all specified options applied and parses its source.
// Exactly one of WithSourceFromPath or WithSource must be given.
//
// Parameters:
//   - name: a unique identifier for the shader, used for registry lookups and debug labels
//   - shaderType: the pipeline stage of the shader
//   - options: functional options supplying the source and overrides
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the source cannot be read, pre-processed or parsed
func NewShader(name string, shaderType ShaderType, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		name:       name,
		shaderType: shaderType,
		pp:         NewPreProcessor(),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.path != "" {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("shader %s: failed to read %s: %w", name, s.path, err)
		}
		s.rawSource = string(raw)
	}
	if strings.TrimSpace(s.rawSource) == "" {
		return nil, fmt.Errorf("shader %s: %w", name, ErrNoSource)
	}

	compiled, err := s.compile(s.rawSource)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	s.compiled = compiled
	return s, nil
}

func (s *shader) Name() string {
	return s.name
}

func (s *shader) Type() ShaderType {
	return s.shaderType
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Source() string {
	return s.compiled.source
}

func (s *shader) EntryPoint() string {
	return s.compiled.entryPoint
}

func (s *shader) VertexLayouts() []backend.VertexBufferLayout {
	return s.compiled.vertexLayouts
}

func (s *shader) Bindings() []backend.Binding {
	return s.compiled.bindings
}

func (s *shader) Includes() []string {
	return s.compiled.includes
}

func (s *shader) Handle() backend.ShaderHandle {
	return s.handle
}

func (s *shader) Initialized() bool {
	return s.handle.Valid()
}

func (s *shader) Initialize(device backend.Device) error {
	if s.handle.Valid() {
		return nil
	}
	h, err := device.CreateShader(s.descriptor(s.compiled))
	if err != nil {
		return fmt.Errorf("shader %s: %w", s.name, err)
	}
	s.handle = h
	return nil
}

func (s *shader) Reload(device backend.Device) error {
	if s.path == "" {
		return fmt.Errorf("shader %s: inline shaders cannot be reloaded", s.name)
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("shader %s: failed to read %s: %w", s.name, s.path, err)
	}
	compiled, err := s.compile(string(raw))
	if err != nil {
		return fmt.Errorf("shader %s: %w", s.name, err)
	}
	h, err := device.CreateShader(s.descriptor(compiled))
	if err != nil {
		return fmt.Errorf("shader %s: %w", s.name, err)
	}

	if s.handle.Valid() {
		device.ReleaseShader(s.handle)
	}
	s.rawSource = string(raw)
	s.compiled = compiled
	s.handle = h
	return nil
}

func (s *shader) Release(device backend.Device) {
	if !s.handle.Valid() {
		return
	}
	device.ReleaseShader(s.handle)
	s.handle = 0
}

// compile pre-processes raw source and parses the entry point, vertex layouts and bindings.
func (s *shader) compile(raw string) (compiledSource, error) {
	source, err := s.pp.Process(raw)
	if err != nil {
		return compiledSource{}, err
	}

	out := compiledSource{
		source:     source,
		entryPoint: s.entryPoint,
		includes:   s.pp.Includes(),
	}
	if out.entryPoint == "" {
		out.entryPoint = parseEntryPoint(source, s.shaderType)
	}
	if out.entryPoint == "" {
		return compiledSource{}, fmt.Errorf("%w for the %s stage", ErrNoEntryPoint, s.shaderType)
	}

	bindings, otherGroups := parseBindings(source)
	if len(otherGroups) > 0 {
		return compiledSource{}, fmt.Errorf("%w: groups %v", ErrUnsupportedGroup, otherGroups)
	}
	out.bindings = bindings

	if s.shaderType == ShaderTypeVertex {
		out.vertexLayouts = parseVertexLayouts(source)
	}
	return out, nil
}

func (s *shader) descriptor(c compiledSource) backend.ShaderSource {
	return backend.ShaderSource{
		Label:         s.name,
		Stage:         s.shaderType.Stage(),
		Code:          c.source,
		EntryPoint:    c.entryPoint,
		VertexLayouts: c.vertexLayouts,
		Bindings:      c.bindings,
	}
}
