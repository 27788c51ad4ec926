package drawable

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

// renderable is the implementation of the Renderable interface.
type renderable struct {
	*drawable
}

// Renderable is a static mesh drawn once per frame with its world transform. When the mesh
// carries tangent frames they are bound at vertex slot 1 for normal mapping.
type Renderable interface {
	Drawable
}

var _ Renderable = &renderable{}

// NewRenderable creates a Renderable drawing mesh, with all specified options applied.
// Panics if mesh is nil.
//
// Parameters:
//   - name: the identifier used in logs and buffer labels
//   - mesh: the geometry to draw
//   - options: functional options to configure the drawable
//
// Returns:
//   - Renderable: the new renderable
func NewRenderable(name string, mesh model.Mesh, options ...DrawableBuilderOption) Renderable {
	return &renderable{drawable: newDrawable(name, KindRenderable, mesh, options)}
}

func (r *renderable) Initialize(device backend.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return nil
	}
	if err := r.initialize(device, r.mesh.NormalDataBytes()); err != nil {
		r.release(device)
		return err
	}
	r.initialized = true
	return nil
}

func (r *renderable) Upload(device backend.Device) error {
	return r.uploadObject(device)
}

func (r *renderable) Release(device backend.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release(device)
}
