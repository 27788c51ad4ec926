package drawable

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/animator"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// DrawableBuilderOption is a functional option for configuring any drawable during construction.
type DrawableBuilderOption func(*drawable)

// WithWorldMatrix is an option builder that sets the initial world transform.
//
// Parameters:
//   - world: the world transform
//
// Returns:
//   - DrawableBuilderOption: a function that applies the world transform option to a drawable
func WithWorldMatrix(world mgl32.Mat4) DrawableBuilderOption {
	return func(d *drawable) {
		d.world = world
	}
}

// WithOutputColor is an option builder that sets the tint multiplied into the shaded color.
//
// Parameters:
//   - color: the RGBA tint
//
// Returns:
//   - DrawableBuilderOption: a function that applies the output color option to a drawable
func WithOutputColor(color mgl32.Vec4) DrawableBuilderOption {
	return func(d *drawable) {
		d.outputColor = color
	}
}

// WithMotion is an option builder that sets the rule recomputing the world transform every Update.
// The motion must not be shared with another drawable.
//
// Parameters:
//   - motion: the world-transform rule
//
// Returns:
//   - DrawableBuilderOption: a function that applies the motion option to a drawable
func WithMotion(motion animator.Motion) DrawableBuilderOption {
	return func(d *drawable) {
		d.motion = motion
	}
}

// WithMaterial is an option builder that sets the material used by sub-meshes that do not
// reference one of the mesh's own materials.
//
// Parameters:
//   - m: the default material
//
// Returns:
//   - DrawableBuilderOption: a function that applies the material option to a drawable
func WithMaterial(m material.Material) DrawableBuilderOption {
	return func(d *drawable) {
		d.defaultMaterial = m
	}
}

// WithMaterials is an option builder that replaces the materials created from the mesh.
//
// Parameters:
//   - materials: the materials, indexed by the mesh's sub-meshes
//
// Returns:
//   - DrawableBuilderOption: a function that applies the materials option to a drawable
func WithMaterials(materials []material.Material) DrawableBuilderOption {
	return func(d *drawable) {
		d.materials = materials
	}
}

// WithShaders is an option builder that binds the vertex and pixel shaders up front.
//
// Parameters:
//   - vs: the vertex shader
//   - ps: the pixel shader
//
// Returns:
//   - DrawableBuilderOption: a function that applies the shader option to a drawable
func WithShaders(vs, ps shader.Shader) DrawableBuilderOption {
	return func(d *drawable) {
		d.vs = vs
		d.ps = ps
	}
}

// WithEnabled is an option builder that sets whether the drawable is drawn.
//
// Parameters:
//   - enabled: true to draw the drawable
//
// Returns:
//   - DrawableBuilderOption: a function that applies the enabled option to a drawable
func WithEnabled(enabled bool) DrawableBuilderOption {
	return func(d *drawable) {
		d.enabled.Store(enabled)
	}
}

// WithSkeletalOptions is an option builder that configures the skeletal animator of a Model.
// Ignored by the other variants.
//
// Parameters:
//   - options: the animator options
//
// Returns:
//   - DrawableBuilderOption: a function that applies the animator options to a drawable
func WithSkeletalOptions(options ...animator.SkeletalAnimatorBuilderOption) DrawableBuilderOption {
	return func(d *drawable) {
		d.skeletalOptions = append(d.skeletalOptions, options...)
	}
}
