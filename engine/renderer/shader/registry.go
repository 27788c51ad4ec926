package shader

import (
	"errors"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

var (
	// ErrDuplicateShader is returned when a name is already registered.
	ErrDuplicateShader = errors.New("shader name already registered")

	// ErrUnknownShader is returned when a name is not registered.
	ErrUnknownShader = errors.New("unknown shader")

	// ErrShaderTypeMismatch is returned when a shader is added to a registry of another stage.
	ErrShaderTypeMismatch = errors.New("shader type does not match registry")
)

// registry is the implementation of the Registry interface.
type registry struct {
	shaderType ShaderType
	shaders    map[string]Shader
	order      []string
}

// Registry is a name-keyed pool of shaders for one pipeline stage. Names are unique and
// registration never overwrites. Iteration follows insertion order.
type Registry interface {
	// Type returns the pipeline stage every shader in the registry belongs to.
	//
	// Returns:
	//   - ShaderType: the registry's stage
	Type() ShaderType

	// Add registers a shader under a name.
	//
	// Parameters:
	//   - name: the registry key
	//   - s: the shader to register
	//
	// Returns:
	//   - error: ErrDuplicateShader if the name is taken, ErrShaderTypeMismatch if the shader is for another stage
	Add(name string, s Shader) error

	// Get looks up a shader by name.
	//
	// Parameters:
	//   - name: the registry key
	//
	// Returns:
	//   - Shader: the shader, nil if absent
	//   - bool: true if the name is registered
	Get(name string) (Shader, bool)

	// MustGet looks up a shader by name and wraps ErrUnknownShader when it is absent.
	//
	// Parameters:
	//   - name: the registry key
	//
	// Returns:
	//   - Shader: the shader
	//   - error: an error wrapping ErrUnknownShader if the name is not registered
	MustGet(name string) (Shader, error)

	// Names returns every registered name in insertion order.
	Names() []string

	// All returns every registered shader in insertion order.
	All() []Shader

	// Len returns the number of registered shaders.
	Len() int

	// Initialize compiles every registered shader that is not compiled yet, stopping at the
	// first failure. The failure is logged as a diagnostic and returned.
	//
	// Parameters:
	//   - device: the device to compile on
	//
	// Returns:
	//   - error: the first compilation error
	Initialize(device backend.Device) error

	// Release frees every compiled module.
	//
	// Parameters:
	//   - device: the device the shaders were compiled on
	Release(device backend.Device)
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry for one pipeline stage.
//
// Parameters:
//   - shaderType: the stage every registered shader must have
//
// Returns:
//   - Registry: the new registry
func NewRegistry(shaderType ShaderType) Registry {
	return &registry{
		shaderType: shaderType,
		shaders:    make(map[string]Shader),
	}
}

func (r *registry) Type() ShaderType {
	return r.shaderType
}

func (r *registry) Add(name string, s Shader) error {
	if s == nil {
		return fmt.Errorf("%s shader %q is nil", r.shaderType, name)
	}
	if _, ok := r.shaders[name]; ok {
		return fmt.Errorf("%s shader %q: %w", r.shaderType, name, ErrDuplicateShader)
	}
	if s.Type() != r.shaderType {
		return fmt.Errorf("%s shader %q is a %s shader: %w", r.shaderType, name, s.Type(), ErrShaderTypeMismatch)
	}
	r.shaders[name] = s
	r.order = append(r.order, name)
	return nil
}

func (r *registry) Get(name string) (Shader, bool) {
	s, ok := r.shaders[name]
	return s, ok
}

func (r *registry) MustGet(name string) (Shader, error) {
	s, ok := r.shaders[name]
	if !ok {
		return nil, fmt.Errorf("%s shader %q: %w", r.shaderType, name, ErrUnknownShader)
	}
	return s, nil
}

func (r *registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *registry) All() []Shader {
	out := make([]Shader, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.shaders[name])
	}
	return out
}

func (r *registry) Len() int {
	return len(r.order)
}

func (r *registry) Initialize(device backend.Device) error {
	for _, name := range r.order {
		if err := r.shaders[name].Initialize(device); err != nil {
			log.Printf("[Shader] failed to compile %s shader %q: %v", r.shaderType, name, err)
			return err
		}
	}
	return nil
}

func (r *registry) Release(device backend.Device) {
	for _, name := range r.order {
		r.shaders[name].Release(device)
	}
}
