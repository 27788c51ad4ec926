// Package drawable holds the scene objects the renderer can draw: static meshes (Renderable),
// instanced batches of repeated geometry (VoxelBatch) and skinned animated meshes (Model).
//
// All three share the Drawable interface. A drawable owns its geometry buffers, its per-object
// uniform buffer and its materials; the renderer binds them in a fixed order and never looks at
// how the world transform is produced.
package drawable

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-voxel/engine/animator"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxBoneCount is the largest skeleton a Model can draw.
const MaxBoneCount = model.MaxBoneCount

// Kind identifies the drawable variant.
type Kind int

const (
	// KindRenderable is a static mesh.
	KindRenderable Kind = iota

	// KindVoxelBatch is an instanced batch of one mesh.
	KindVoxelBatch

	// KindModel is a skinned animated mesh.
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindRenderable:
		return "renderable"
	case KindVoxelBatch:
		return "voxel batch"
	case KindModel:
		return "model"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrNotInitialized is returned when GPU work is requested before Initialize.
	ErrNotInitialized = errors.New("drawable is not initialized")

	// ErrNotSkinned is returned by NewModel for meshes without bone influences.
	ErrNotSkinned = errors.New("mesh is not skinned")

	// ErrInstanceOutOfRange is returned when an instance index is outside a batch.
	ErrInstanceOutOfRange = errors.New("instance index out of range")
)

// Buffers are the GPU buffers of an initialized drawable. Unused buffers are zero.
type Buffers struct {
	// Vertex holds the GPUVertex stream bound at vertex slot 0.
	Vertex backend.BufferHandle

	// Extra holds the stream bound at vertex slot 1: tangent frames, instance transforms or skin weights.
	Extra backend.BufferHandle

	// Index holds the triangle indices.
	Index backend.BufferHandle

	// Object holds the per-object uniform block.
	Object backend.BufferHandle

	// Skinning holds the bone palette of a Model.
	Skinning backend.BufferHandle
}

// Drawable is the capability shared by every scene object the renderer draws.
type Drawable interface {
	// Name returns the identifier used in logs and buffer labels.
	//
	// Returns:
	//   - string: the drawable name
	Name() string

	// Kind returns the drawable variant.
	//
	// Returns:
	//   - Kind: the variant
	Kind() Kind

	// Enabled reports whether the renderer should draw this drawable.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the renderer draws this drawable. Disabled drawables still update.
	//
	// Parameters:
	//   - enabled: true to draw
	SetEnabled(enabled bool)

	// Update advances the drawable's motion (and skeleton for models) by deltaTime.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	Update(deltaTime float32)

	// WorldMatrix returns the current world transform.
	//
	// Returns:
	//   - mgl32.Mat4: the world transform
	WorldMatrix() mgl32.Mat4

	// SetWorldMatrix replaces the world transform. A motion, if any, overrides it on the next Update.
	//
	// Parameters:
	//   - world: the new world transform
	SetWorldMatrix(world mgl32.Mat4)

	// OutputColor returns the tint multiplied into the shaded color.
	//
	// Returns:
	//   - mgl32.Vec4: the RGBA tint
	OutputColor() mgl32.Vec4

	// SetOutputColor sets the tint multiplied into the shaded color.
	//
	// Parameters:
	//   - color: the RGBA tint
	SetOutputColor(color mgl32.Vec4)

	// Geometry returns the mesh the drawable renders.
	//
	// Returns:
	//   - model.Mesh: the mesh
	Geometry() model.Mesh

	// Materials returns the materials indexed by the mesh's sub-meshes.
	//
	// Returns:
	//   - []material.Material: the materials
	Materials() []material.Material

	// SubMeshMaterial returns the material a sub-mesh is drawn with. Sub-meshes without a
	// material index use the drawable's default material. The result may be nil.
	//
	// Parameters:
	//   - index: the sub-mesh index
	//
	// Returns:
	//   - material.Material: the material or nil
	SubMeshMaterial(index int) material.Material

	// Textured reports whether any sub-mesh is drawn with a diffuse texture.
	//
	// Returns:
	//   - bool: true if at least one sub-mesh is textured
	Textured() bool

	// HasNormalMap reports whether the drawable is normal mapped: the mesh carries tangent frames
	// and every textured sub-mesh material has a normal map.
	//
	// Returns:
	//   - bool: true if normal mapped
	HasNormalMap() bool

	// VertexShader returns the bound vertex shader, nil until one is set.
	//
	// Returns:
	//   - shader.Shader: the vertex shader or nil
	VertexShader() shader.Shader

	// PixelShader returns the bound pixel shader, nil until one is set.
	//
	// Returns:
	//   - shader.Shader: the pixel shader or nil
	PixelShader() shader.Shader

	// SetVertexShader binds the vertex shader used to draw this drawable.
	//
	// Parameters:
	//   - s: the vertex shader
	SetVertexShader(s shader.Shader)

	// SetPixelShader binds the pixel shader used to draw this drawable.
	//
	// Parameters:
	//   - s: the pixel shader
	SetPixelShader(s shader.Shader)

	// ObjectUniform builds the per-object uniform block from the current state.
	//
	// Returns:
	//   - model.GPUObjectUniform: the world transform, tint and normal-map flag
	ObjectUniform() model.GPUObjectUniform

	// Buffers returns the GPU buffers created by Initialize.
	//
	// Returns:
	//   - Buffers: the buffer handles
	Buffers() Buffers

	// Initialized reports whether Initialize has succeeded.
	//
	// Returns:
	//   - bool: true once GPU resources exist
	Initialized() bool

	// Initialize creates the geometry buffers, the uniform buffers and the material textures.
	// Calling it again after success is a no-op. On failure the resources created so far are released.
	//
	// Parameters:
	//   - device: the device to create resources on
	//
	// Returns:
	//   - error: the first resource creation failure
	Initialize(device backend.Device) error

	// Upload writes the per-frame data of the drawable: the per-object uniform block, plus the
	// bone palette for models and pending instance changes for batches.
	//
	// Parameters:
	//   - device: the device the drawable was initialized on
	//
	// Returns:
	//   - error: ErrNotInitialized or a buffer write failure
	Upload(device backend.Device) error

	// Release frees every GPU resource of the drawable.
	//
	// Parameters:
	//   - device: the device the drawable was initialized on
	Release(device backend.Device)
}

// drawable holds the state shared by every variant. Variants embed it and add their own streams.
type drawable struct {
	mu      *sync.Mutex
	enabled atomic.Bool

	name        string
	kind        Kind
	mesh        model.Mesh
	world       mgl32.Mat4
	outputColor mgl32.Vec4
	motion      animator.Motion

	materials       []material.Material
	defaultMaterial material.Material

	vs, ps shader.Shader

	// skeletalOptions configure the animator of a Model
	skeletalOptions []animator.SkeletalAnimatorBuilderOption

	buffers     Buffers
	initialized bool
}

func newDrawable(name string, kind Kind, mesh model.Mesh, options []DrawableBuilderOption) *drawable {
	if mesh == nil {
		panic(fmt.Sprintf("drawable %s: mesh must not be nil", name))
	}
	d := &drawable{
		mu:          &sync.Mutex{},
		name:        name,
		kind:        kind,
		mesh:        mesh,
		world:       mgl32.Ident4(),
		outputColor: mgl32.Vec4{1, 1, 1, 1},
	}
	d.enabled.Store(true)
	for _, imported := range mesh.Materials() {
		d.materials = append(d.materials, material.FromImported(imported))
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *drawable) Name() string {
	return d.name
}

func (d *drawable) Kind() Kind {
	return d.kind
}

func (d *drawable) Enabled() bool {
	return d.enabled.Load()
}

func (d *drawable) SetEnabled(enabled bool) {
	d.enabled.Store(enabled)
}

func (d *drawable) Update(deltaTime float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateWorld(deltaTime)
}

// updateWorld applies the motion to the world transform. Caller must hold the mutex.
func (d *drawable) updateWorld(deltaTime float32) {
	if d.motion != nil {
		d.world = d.motion.Update(deltaTime, d.world)
	}
}

func (d *drawable) WorldMatrix() mgl32.Mat4 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.world
}

func (d *drawable) SetWorldMatrix(world mgl32.Mat4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.world = world
}

func (d *drawable) OutputColor() mgl32.Vec4 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outputColor
}

func (d *drawable) SetOutputColor(color mgl32.Vec4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputColor = color
}

func (d *drawable) Geometry() model.Mesh {
	return d.mesh
}

func (d *drawable) Materials() []material.Material {
	return d.materials
}

func (d *drawable) SubMeshMaterial(index int) material.Material {
	subMeshes := d.mesh.SubMeshes()
	if index < 0 || index >= len(subMeshes) {
		return nil
	}
	mi := subMeshes[index].MaterialIndex
	if mi >= 0 && mi < len(d.materials) {
		return d.materials[mi]
	}
	return d.defaultMaterial
}

func (d *drawable) Textured() bool {
	for i := range d.mesh.SubMeshes() {
		if m := d.SubMeshMaterial(i); m != nil && m.Textured() {
			return true
		}
	}
	return false
}

func (d *drawable) HasNormalMap() bool {
	if d.mesh.NormalData() == nil {
		return false
	}
	found := false
	for i := range d.mesh.SubMeshes() {
		m := d.SubMeshMaterial(i)
		if m == nil || !m.Textured() {
			continue
		}
		if !m.HasNormalMap() {
			return false
		}
		found = true
	}
	return found
}

func (d *drawable) VertexShader() shader.Shader {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vs
}

func (d *drawable) PixelShader() shader.Shader {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ps
}

func (d *drawable) SetVertexShader(s shader.Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vs = s
}

func (d *drawable) SetPixelShader(s shader.Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ps = s
}

func (d *drawable) ObjectUniform() model.GPUObjectUniform {
	normal := d.HasNormalMap()
	d.mu.Lock()
	defer d.mu.Unlock()
	u := model.GPUObjectUniform{
		World:       d.world,
		OutputColor: d.outputColor,
	}
	if normal {
		u.HasNormalMap = 1
	}
	return u
}

func (d *drawable) Buffers() Buffers {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffers
}

func (d *drawable) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// initialize creates the resources shared by every variant. extra is the slot 1 stream, nil when
// the variant has none. Caller must hold the mutex.
func (d *drawable) initialize(device backend.Device, extra []byte) error {
	var err error
	label := func(part string) string { return d.name + "/" + part }

	if d.buffers.Vertex, err = device.CreateBuffer(label("vertices"), backend.BufferUsageVertex, d.mesh.VertexData()); err != nil {
		return fmt.Errorf("%s %s: vertex buffer: %w", d.kind, d.name, err)
	}
	if extra != nil {
		if d.buffers.Extra, err = device.CreateBuffer(label("extra"), backend.BufferUsageVertex, extra); err != nil {
			return fmt.Errorf("%s %s: vertex slot 1 buffer: %w", d.kind, d.name, err)
		}
	}
	if d.buffers.Index, err = device.CreateBuffer(label("indices"), backend.BufferUsageIndex, d.mesh.IndexData()); err != nil {
		return fmt.Errorf("%s %s: index buffer: %w", d.kind, d.name, err)
	}
	object := model.GPUObjectUniform{World: d.world, OutputColor: d.outputColor}
	if d.buffers.Object, err = device.CreateBuffer(label("object"), backend.BufferUsageUniform, object.Marshal()); err != nil {
		return fmt.Errorf("%s %s: object uniform: %w", d.kind, d.name, err)
	}
	for _, m := range d.allMaterials() {
		if err := m.Initialize(device); err != nil {
			return fmt.Errorf("%s %s: %w", d.kind, d.name, err)
		}
	}
	return nil
}

// uploadObject writes the per-object uniform block.
func (d *drawable) uploadObject(device backend.Device) error {
	u := d.ObjectUniform()
	buffers := d.Buffers()
	if !buffers.Object.Valid() {
		return fmt.Errorf("%s %s: %w", d.kind, d.name, ErrNotInitialized)
	}
	if err := device.WriteBuffer(buffers.Object, u.Marshal()); err != nil {
		return fmt.Errorf("%s %s: object uniform: %w", d.kind, d.name, err)
	}
	return nil
}

// release frees every buffer and material texture. Caller must hold the mutex.
func (d *drawable) release(device backend.Device) {
	for _, h := range []backend.BufferHandle{d.buffers.Vertex, d.buffers.Extra, d.buffers.Index, d.buffers.Object, d.buffers.Skinning} {
		if h.Valid() {
			device.ReleaseBuffer(h)
		}
	}
	d.buffers = Buffers{}
	for _, m := range d.allMaterials() {
		m.Release(device)
	}
	d.initialized = false
}

func (d *drawable) allMaterials() []material.Material {
	all := d.materials
	if d.defaultMaterial != nil {
		all = append(append([]material.Material(nil), d.materials...), d.defaultMaterial)
	}
	return all
}
