// Package scene groups named drawables of the three kinds with a fixed array of point lights.
// A scene creates the GPU resources of its drawables once and steps them every frame.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/engine/drawable"
	"github.com/Carmen-Shannon/oxy-voxel/engine/light"
	"github.com/Carmen-Shannon/oxy-voxel/engine/loader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

var (
	// ErrDuplicateName is returned when a drawable name is already taken within its collection.
	ErrDuplicateName = errors.New("scene: duplicate drawable name")
	// ErrLightIndexOutOfRange is returned for a light slot outside [0, light.NumLights).
	ErrLightIndexOutOfRange = errors.New("scene: light index out of range")
	// ErrNilDrawable is returned when a nil drawable is added.
	ErrNilDrawable = errors.New("scene: nil drawable")
	// ErrNameMismatch is returned when a drawable is added under a name other than its own.
	ErrNameMismatch = errors.New("scene: drawable name mismatch")
)

// collection keeps drawables of one kind by name, in insertion order.
type collection[T drawable.Drawable] struct {
	order  []T
	byName map[string]T
}

func newCollection[T drawable.Drawable]() collection[T] {
	return collection[T]{byName: make(map[string]T)}
}

func (c *collection[T]) has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *collection[T]) insert(name string, d T) {
	c.byName[name] = d
	c.order = append(c.order, d)
}

func (c *collection[T]) get(name string) (T, bool) {
	d, ok := c.byName[name]
	return d, ok
}

func (c *collection[T]) all() []T {
	return append([]T(nil), c.order...)
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name string

	renderables  collection[drawable.Renderable]
	voxelBatches collection[drawable.VoxelBatch]
	models       collection[drawable.Model]
	lights       [light.NumLights]light.PointLight

	loader loader.Loader

	device      backend.Device
	initialized bool
	initErr     error
}

// Scene holds named static meshes, voxel batches and skinned models, plus light.NumLights point
// light slots. Names are unique within each collection and collections are append-only.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// AddRenderable adds a static mesh under name, which must equal r.Name().
	// Once the scene is initialized the drawable is initialized on the scene's device before insertion.
	//
	// Parameters:
	//   - name: the unique renderable name
	//   - r: the renderable
	//
	// Returns:
	//   - error: ErrDuplicateName, ErrNameMismatch, ErrNilDrawable or an initialization failure
	AddRenderable(name string, r drawable.Renderable) error

	// AddVoxelBatch adds an instanced batch under name, with the same rules as AddRenderable.
	//
	// Parameters:
	//   - name: the unique batch name
	//   - b: the voxel batch
	//
	// Returns:
	//   - error: ErrDuplicateName, ErrNameMismatch, ErrNilDrawable or an initialization failure
	AddVoxelBatch(name string, b drawable.VoxelBatch) error

	// AddModel adds a skinned model under name, with the same rules as AddRenderable.
	//
	// Parameters:
	//   - name: the unique model name
	//   - m: the model
	//
	// Returns:
	//   - error: ErrDuplicateName, ErrNameMismatch, ErrNilDrawable or an initialization failure
	AddModel(name string, m drawable.Model) error

	// Renderable looks up a static mesh by name.
	Renderable(name string) (drawable.Renderable, bool)

	// VoxelBatch looks up a voxel batch by name.
	VoxelBatch(name string) (drawable.VoxelBatch, bool)

	// Model looks up a skinned model by name.
	Model(name string) (drawable.Model, bool)

	// Renderables returns the static meshes in insertion order.
	Renderables() []drawable.Renderable

	// VoxelBatches returns the voxel batches in insertion order.
	VoxelBatches() []drawable.VoxelBatch

	// Models returns the skinned models in insertion order.
	Models() []drawable.Model

	// Drawables returns every drawable in draw order: static meshes, voxel batches, then models.
	Drawables() []drawable.Drawable

	// AddPointLight assigns a light to a slot, replacing any light already there.
	//
	// Parameters:
	//   - index: the slot, in [0, light.NumLights)
	//   - l: the light
	//
	// Returns:
	//   - error: ErrLightIndexOutOfRange if index is outside the slot range
	AddPointLight(index int, l light.PointLight) error

	// PointLights returns the light slots. Empty slots are nil.
	PointLights() [light.NumLights]light.PointLight

	// LightsUniform builds the lights uniform block from the current slots.
	LightsUniform() light.GPULightsUniform

	// Loader returns the loader used to import mesh files for this scene.
	Loader() loader.Loader

	// Initialize creates the GPU resources of every drawable in draw order. It runs once:
	// later calls return the first call's result without retrying. On failure the drawables
	// already initialized are released again.
	//
	// Parameters:
	//   - device: the device to create resources on
	//
	// Returns:
	//   - error: the first drawable failure, wrapped with its name
	Initialize(device backend.Device) error

	// Initialized reports whether Initialize has succeeded.
	Initialized() bool

	// Update advances every drawable in draw order, then every populated light slot.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	Update(deltaTime float32)

	// Release frees the GPU resources of every drawable. The scene can be initialized again afterwards.
	//
	// Parameters:
	//   - device: the device the scene was initialized on
	Release(device backend.Device)
}

var _ Scene = &scene{}

// NewScene creates an empty Scene with all specified options applied.
// NewScene panics if name is empty.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options adding drawables and lights
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	if name == "" {
		panic("scene: NewScene requires a non-empty name")
	}

	s := &scene{
		mu:           &sync.RWMutex{},
		name:         name,
		renderables:  newCollection[drawable.Renderable](),
		voxelBatches: newCollection[drawable.VoxelBatch](),
		models:       newCollection[drawable.Model](),
	}

	for _, option := range options {
		option(s)
	}

	if s.loader == nil {
		s.loader = loader.NewLoader(loader.BackendTypeGLTF)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) AddRenderable(name string, r drawable.Renderable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addTo(s, &s.renderables, name, r)
}

func (s *scene) AddVoxelBatch(name string, b drawable.VoxelBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addTo(s, &s.voxelBatches, name, b)
}

func (s *scene) AddModel(name string, m drawable.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addTo(s, &s.models, name, m)
}

// addTo inserts d into c. The caller holds the write lock.
func addTo[T drawable.Drawable](s *scene, c *collection[T], name string, d T) error {
	if any(d) == nil {
		return fmt.Errorf("%w: %q", ErrNilDrawable, name)
	}
	if d.Name() != name {
		return fmt.Errorf("%w: %s %q added as %q", ErrNameMismatch, d.Kind(), d.Name(), name)
	}
	if c.has(name) {
		return fmt.Errorf("%w: %q in scene %q", ErrDuplicateName, name, s.name)
	}
	if s.initialized {
		if err := d.Initialize(s.device); err != nil {
			return fmt.Errorf("scene %q: failed to initialize %s %q: %w", s.name, d.Kind(), name, err)
		}
	}
	c.insert(name, d)
	return nil
}

func (s *scene) Renderable(name string) (drawable.Renderable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderables.get(name)
}

func (s *scene) VoxelBatch(name string) (drawable.VoxelBatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voxelBatches.get(name)
}

func (s *scene) Model(name string) (drawable.Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models.get(name)
}

func (s *scene) Renderables() []drawable.Renderable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderables.all()
}

func (s *scene) VoxelBatches() []drawable.VoxelBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voxelBatches.all()
}

func (s *scene) Models() []drawable.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models.all()
}

func (s *scene) Drawables() []drawable.Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawables()
}

// drawables lists every drawable in draw order. The caller holds the lock.
func (s *scene) drawables() []drawable.Drawable {
	all := make([]drawable.Drawable, 0, len(s.renderables.order)+len(s.voxelBatches.order)+len(s.models.order))
	for _, r := range s.renderables.order {
		all = append(all, r)
	}
	for _, b := range s.voxelBatches.order {
		all = append(all, b)
	}
	for _, m := range s.models.order {
		all = append(all, m)
	}
	return all
}

func (s *scene) AddPointLight(index int, l light.PointLight) error {
	if index < 0 || index >= light.NumLights {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrLightIndexOutOfRange, index, light.NumLights)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights[index] = l
	return nil
}

func (s *scene) PointLights() [light.NumLights]light.PointLight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lights
}

func (s *scene) LightsUniform() light.GPULightsUniform {
	return light.NewGPULightsUniform(s.PointLights())
}

func (s *scene) Loader() loader.Loader {
	return s.loader
}

func (s *scene) Initialize(device backend.Device) error {
	if device == nil {
		panic("scene: Initialize requires a non-nil device")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized || s.initErr != nil {
		return s.initErr
	}

	all := s.drawables()
	for i, d := range all {
		if err := d.Initialize(device); err != nil {
			for _, done := range all[:i] {
				done.Release(device)
			}
			s.initErr = fmt.Errorf("scene %q: failed to initialize %s %q: %w", s.name, d.Kind(), d.Name(), err)
			return s.initErr
		}
	}

	s.device = device
	s.initialized = true
	return nil
}

func (s *scene) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *scene) Update(deltaTime float32) {
	s.mu.RLock()
	all := s.drawables()
	lights := s.lights
	s.mu.RUnlock()

	for _, d := range all {
		d.Update(deltaTime)
	}
	for _, l := range lights {
		if l != nil {
			l.Update(deltaTime)
		}
	}
}

func (s *scene) Release(device backend.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.drawables() {
		d.Release(device)
	}
	s.device = nil
	s.initialized = false
	s.initErr = nil
}
