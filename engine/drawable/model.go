package drawable

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/animator"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

// skinnedModel is the implementation of the Model interface.
type skinnedModel struct {
	*drawable

	animator animator.SkeletalAnimator
}

// Model is a skinned mesh. Every Update advances its motion and its skeletal animator; every
// Upload writes the resulting bone palette next to the per-object block.
type Model interface {
	Drawable

	// Animator returns the skeletal animator driving the bone palette.
	//
	// Returns:
	//   - animator.SkeletalAnimator: the animator
	Animator() animator.SkeletalAnimator
}

var _ Model = &skinnedModel{}

// NewModel creates a Model from a skinned mesh, with all specified options applied.
//
// Parameters:
//   - name: the identifier used in logs and buffer labels
//   - mesh: the skinned geometry, with its skeleton and animation clips
//   - options: functional options to configure the drawable
//
// Returns:
//   - Model: the new model
//   - error: ErrNotSkinned, or an animator error when the skeleton cannot be drawn
func NewModel(name string, mesh model.Mesh, options ...DrawableBuilderOption) (Model, error) {
	if mesh == nil || !mesh.Skinned() {
		return nil, fmt.Errorf("model %s: %w", name, ErrNotSkinned)
	}
	d := newDrawable(name, KindModel, mesh, options)
	anim, err := animator.NewSkeletalAnimator(mesh.Skeleton(), mesh.Animations(), d.skeletalOptions...)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	return &skinnedModel{drawable: d, animator: anim}, nil
}

func (m *skinnedModel) Animator() animator.SkeletalAnimator {
	return m.animator
}

func (m *skinnedModel) Update(deltaTime float32) {
	m.mu.Lock()
	m.updateWorld(deltaTime)
	m.mu.Unlock()
	m.animator.Update(deltaTime)
}

func (m *skinnedModel) Initialize(device backend.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}
	if err := m.initialize(device, m.mesh.SkinDataBytes()); err != nil {
		m.release(device)
		return err
	}
	palette := m.animator.Uniform()
	h, err := device.CreateBuffer(m.name+"/skinning", backend.BufferUsageUniform, palette.Marshal())
	if err != nil {
		m.release(device)
		return fmt.Errorf("%s %s: skinning uniform: %w", m.kind, m.name, err)
	}
	m.buffers.Skinning = h
	m.initialized = true
	return nil
}

func (m *skinnedModel) Upload(device backend.Device) error {
	if err := m.uploadObject(device); err != nil {
		return err
	}
	palette := m.animator.Uniform()
	if err := device.WriteBuffer(m.Buffers().Skinning, palette.Marshal()); err != nil {
		return fmt.Errorf("%s %s: skinning uniform: %w", m.kind, m.name, err)
	}
	return nil
}

func (m *skinnedModel) Release(device backend.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release(device)
}
