package renderer

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithCamera sets the camera the renderer updates and uploads. Defaults to a camera at DefaultCameraPosition.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - RendererBuilderOption: a function that applies the camera option to a renderer
func WithCamera(c camera.Camera) RendererBuilderOption {
	return func(r *renderer) {
		r.camera = c
	}
}

// WithScene registers a scene under a name. Panics if the name is already registered.
//
// Parameters:
//   - name: the unique scene name
//   - s: the scene
//
// Returns:
//   - RendererBuilderOption: a function that applies the scene option to a renderer
func WithScene(name string, s scene.Scene) RendererBuilderOption {
	return func(r *renderer) {
		if err := r.addScene(name, s); err != nil {
			panic(err)
		}
	}
}

// WithMainScene designates the main scene. The name is resolved after every option has been
// applied, so it may precede the WithScene that registers it.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - RendererBuilderOption: a function that applies the main scene option to a renderer
func WithMainScene(name string) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMainScene = name
	}
}

// WithVertexShader registers a vertex shader. Panics on a duplicate name or a pixel shader.
//
// Parameters:
//   - name: the unique shader name
//   - s: the vertex shader
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader option to a renderer
func WithVertexShader(name string, s shader.Shader) RendererBuilderOption {
	return func(r *renderer) {
		if err := r.vertexShaders.Add(name, s); err != nil {
			panic(err)
		}
	}
}

// WithPixelShader registers a pixel shader. Panics on a duplicate name or a vertex shader.
//
// Parameters:
//   - name: the unique shader name
//   - s: the pixel shader
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader option to a renderer
func WithPixelShader(name string, s shader.Shader) RendererBuilderOption {
	return func(r *renderer) {
		if err := r.pixelShaders.Add(name, s); err != nil {
			panic(err)
		}
	}
}

// WithFieldOfView sets the vertical field of view in radians. Defaults to DefaultFieldOfView.
//
// Parameters:
//   - fovY: the vertical field of view
//
// Returns:
//   - RendererBuilderOption: a function that applies the field of view option to a renderer
func WithFieldOfView(fovY float32) RendererBuilderOption {
	return func(r *renderer) {
		r.fovY = fovY
	}
}

// WithDepthRange sets the near and far clipping planes. Defaults to DefaultNear and DefaultFar.
//
// Parameters:
//   - near: the near plane distance (> 0)
//   - far: the far plane distance (> near)
//
// Returns:
//   - RendererBuilderOption: a function that applies the depth range option to a renderer
func WithDepthRange(near, far float32) RendererBuilderOption {
	return func(r *renderer) {
		r.near = near
		r.far = far
	}
}

// WithClearColor sets the color every frame is cleared to. Defaults to backend.MidnightBlue.
func WithClearColor(c backend.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithShaderHotReload watches file-backed shaders from Initialize on and recompiles changed ones
// at the start of the next Render.
//
// Parameters:
//   - enabled: true to watch shader files
//
// Returns:
//   - RendererBuilderOption: a function that applies the hot reload option to a renderer
func WithShaderHotReload(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.hotReload = enabled
	}
}
