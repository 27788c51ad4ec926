package drawable

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/go-gl/mathgl/mgl32"
)

// voxelBatch is the implementation of the VoxelBatch interface.
type voxelBatch struct {
	*drawable

	instances []model.GPUInstance
	dirty     bool
}

// VoxelBatch draws one mesh many times in a single instanced draw. Each instance has its own
// transform, applied inside the batch's world transform. The instance count is fixed at
// construction; individual transforms can change at any time and are uploaded with the next Upload.
type VoxelBatch interface {
	Drawable

	// InstanceCount returns the number of instances drawn.
	//
	// Returns:
	//   - int: the instance count
	InstanceCount() int

	// Instance returns the transform of one instance.
	//
	// Parameters:
	//   - index: the instance index
	//
	// Returns:
	//   - mgl32.Mat4: the instance transform
	//   - error: ErrInstanceOutOfRange for a bad index
	Instance(index int) (mgl32.Mat4, error)

	// SetInstance replaces the transform of one instance.
	//
	// Parameters:
	//   - index: the instance index
	//   - transform: the new instance transform
	//
	// Returns:
	//   - error: ErrInstanceOutOfRange for a bad index
	SetInstance(index int, transform mgl32.Mat4) error
}

var _ VoxelBatch = &voxelBatch{}

// NewVoxelBatch creates a VoxelBatch drawing mesh once per instance transform. Panics if mesh is
// nil or no instances are given.
//
// Parameters:
//   - name: the identifier used in logs and buffer labels
//   - mesh: the geometry shared by every instance
//   - instances: one transform per instance
//   - options: functional options to configure the drawable
//
// Returns:
//   - VoxelBatch: the new batch
func NewVoxelBatch(name string, mesh model.Mesh, instances []mgl32.Mat4, options ...DrawableBuilderOption) VoxelBatch {
	if len(instances) == 0 {
		panic(fmt.Sprintf("voxel batch %s: at least one instance is required", name))
	}
	b := &voxelBatch{
		drawable:  newDrawable(name, KindVoxelBatch, mesh, options),
		instances: make([]model.GPUInstance, len(instances)),
	}
	for i, m := range instances {
		b.instances[i].World = m
	}
	return b
}

// GridInstances lays out width*height*depth unit translations on a grid with the given spacing,
// centred on the origin in X and Z and starting at 0 in Y.
//
// Parameters:
//   - width: instances along X
//   - height: instances along Y
//   - depth: instances along Z
//   - spacing: distance between neighbouring instances
//
// Returns:
//   - []mgl32.Mat4: the instance transforms, X varying fastest
func GridInstances(width, height, depth int, spacing float32) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, 0, width*height*depth)
	offX := float32(width-1) * spacing / 2
	offZ := float32(depth-1) * spacing / 2
	for y := range height {
		for z := range depth {
			for x := range width {
				out = append(out, mgl32.Translate3D(
					float32(x)*spacing-offX,
					float32(y)*spacing,
					float32(z)*spacing-offZ,
				))
			}
		}
	}
	return out
}

func (b *voxelBatch) InstanceCount() int {
	return len(b.instances)
}

func (b *voxelBatch) Instance(index int) (mgl32.Mat4, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.instances) {
		return mgl32.Mat4{}, fmt.Errorf("%w: %d of %d", ErrInstanceOutOfRange, index, len(b.instances))
	}
	return b.instances[index].World, nil
}

func (b *voxelBatch) SetInstance(index int, transform mgl32.Mat4) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.instances) {
		return fmt.Errorf("%w: %d of %d", ErrInstanceOutOfRange, index, len(b.instances))
	}
	b.instances[index].World = transform
	b.dirty = true
	return nil
}

func (b *voxelBatch) Initialize(device backend.Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}
	if err := b.initialize(device, common.SliceToBytes(b.instances)); err != nil {
		b.release(device)
		return err
	}
	b.dirty = false
	b.initialized = true
	return nil
}

func (b *voxelBatch) Upload(device backend.Device) error {
	if err := b.uploadObject(device); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return nil
	}
	if err := device.WriteBuffer(b.buffers.Extra, common.SliceToBytes(b.instances)); err != nil {
		return fmt.Errorf("%s %s: instance buffer: %w", b.kind, b.name, err)
	}
	b.dirty = false
	return nil
}

func (b *voxelBatch) Release(device backend.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(device)
}
