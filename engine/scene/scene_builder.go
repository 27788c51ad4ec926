package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/drawable"
	"github.com/Carmen-Shannon/oxy-voxel/engine/light"
	"github.com/Carmen-Shannon/oxy-voxel/engine/loader"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithRenderable adds an initial static mesh. NewScene panics on a duplicate or nil drawable.
//
// Parameters:
//   - name: the unique renderable name
//   - r: the renderable
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderable(name string, r drawable.Renderable) SceneBuilderOption {
	return func(s *scene) {
		if err := addTo(s, &s.renderables, name, r); err != nil {
			panic(err)
		}
	}
}

// WithVoxelBatch adds an initial voxel batch. NewScene panics on a duplicate or nil drawable.
//
// Parameters:
//   - name: the unique batch name
//   - b: the voxel batch
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithVoxelBatch(name string, b drawable.VoxelBatch) SceneBuilderOption {
	return func(s *scene) {
		if err := addTo(s, &s.voxelBatches, name, b); err != nil {
			panic(err)
		}
	}
}

// WithModel adds an initial skinned model. NewScene panics on a duplicate or nil drawable.
//
// Parameters:
//   - name: the unique model name
//   - m: the model
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithModel(name string, m drawable.Model) SceneBuilderOption {
	return func(s *scene) {
		if err := addTo(s, &s.models, name, m); err != nil {
			panic(err)
		}
	}
}

// WithPointLight fills a light slot. NewScene panics if index is out of range.
//
// Parameters:
//   - index: the slot, in [0, light.NumLights)
//   - l: the light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointLight(index int, l light.PointLight) SceneBuilderOption {
	return func(s *scene) {
		if index < 0 || index >= light.NumLights {
			panic(fmt.Errorf("%w: %d", ErrLightIndexOutOfRange, index))
		}
		s.lights[index] = l
	}
}

// WithLoader sets the loader LoadScene imports mesh files with, so several scenes can share one cache.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoader(l loader.Loader) SceneBuilderOption {
	return func(s *scene) {
		s.loader = l
	}
}
