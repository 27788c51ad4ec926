// Package renderer orchestrates a frame: it owns the device, the camera, the vertex and pixel shader
// registries and a set of named scenes, and draws the main scene once per Render.
//
// A frame binds the camera, projection and lights blocks once, then draws the static meshes, the
// voxel batches and the skinned models of the main scene in that order before presenting.
package renderer

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/drawable"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Projection defaults.
const (
	DefaultFieldOfView float32 = math32.Pi / 2
	DefaultNear        float32 = 0.01
	DefaultFar         float32 = 100
)

// DefaultCameraPosition is the eye position of the camera a renderer creates when none is given.
var DefaultCameraPosition = mgl32.Vec3{0, 1, -10}

var (
	// ErrNoMainScene is returned by Initialize when no main scene is designated.
	ErrNoMainScene = errors.New("renderer: no main scene")

	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("renderer: already initialized")

	// ErrNotInitialized is returned by Render before Initialize.
	ErrNotInitialized = errors.New("renderer: not initialized")

	// ErrDuplicateScene is returned when a scene name is already registered.
	ErrDuplicateScene = errors.New("renderer: duplicate scene name")

	// ErrUnknownScene is returned for a scene name that is not registered.
	ErrUnknownScene = errors.New("renderer: unknown scene")

	// ErrUnknownRenderable is returned when no registered scene holds a renderable of the name.
	ErrUnknownRenderable = errors.New("renderer: unknown renderable")

	// ErrUnknownModel is returned when no registered scene holds a model of the name.
	ErrUnknownModel = errors.New("renderer: unknown model")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device backend.Device
	camera camera.Camera

	vertexShaders shader.Registry
	pixelShaders  shader.Registry

	scenes     map[string]scene.Scene
	sceneOrder []string
	mainScene  string

	fovY, near, far float32
	clearColor      backend.Color
	projection      camera.GPUProjectionUniform

	cameraBuffer     backend.BufferHandle
	projectionBuffer backend.BufferHandle
	lightsBuffer     backend.BufferHandle

	hotReload bool
	watcher   shader.Watcher

	warned      map[string]bool
	initialized bool

	// Main scene named by a builder option, selected once every option has run
	pendingMainScene string
}

// Renderer draws the main scene of a set of named scenes through a backend.Device.
// All methods are meant to be called from the frame thread.
type Renderer interface {
	// Initialize acquires the device, computes the projection, creates the camera, projection and
	// lights uniform buffers, compiles every registered shader, updates the camera once and
	// initializes the main scene. A shader compile failure is logged and aborts Initialize. A
	// failed Initialize releases the shaders, uniform buffers and device again, so it may be retried.
	//
	// Returns:
	//   - error: ErrNoMainScene, ErrAlreadyInitialized, or the first device, shader or scene failure
	Initialize() error

	// Initialized reports whether Initialize has succeeded.
	Initialized() bool

	// AddScene registers a scene under a name.
	//
	// Parameters:
	//   - name: the unique scene name
	//   - s: the scene
	//
	// Returns:
	//   - error: ErrDuplicateScene if the name is taken
	AddScene(name string, s scene.Scene) error

	// SetMainScene selects the scene that is updated and drawn. After Initialize the new main
	// scene is initialized immediately.
	//
	// Parameters:
	//   - name: a registered scene name
	//
	// Returns:
	//   - error: ErrUnknownScene, or the scene's initialization failure
	SetMainScene(name string) error

	// Scene looks up a registered scene.
	Scene(name string) (scene.Scene, bool)

	// MainScene returns the main scene, false when none is designated.
	MainScene() (scene.Scene, bool)

	// SceneNames returns the registered scene names in registration order.
	SceneNames() []string

	// AddVertexShader registers a vertex shader. After Initialize the shader is compiled immediately.
	//
	// Parameters:
	//   - name: the unique shader name
	//   - s: the vertex shader
	//
	// Returns:
	//   - error: shader.ErrDuplicateShader, shader.ErrShaderTypeMismatch or a compile failure
	AddVertexShader(name string, s shader.Shader) error

	// AddPixelShader registers a pixel shader, with the same rules as AddVertexShader.
	//
	// Parameters:
	//   - name: the unique shader name
	//   - s: the pixel shader
	//
	// Returns:
	//   - error: shader.ErrDuplicateShader, shader.ErrShaderTypeMismatch or a compile failure
	AddPixelShader(name string, s shader.Shader) error

	// VertexShaders returns the vertex shader registry.
	VertexShaders() shader.Registry

	// PixelShaders returns the pixel shader registry.
	PixelShaders() shader.Registry

	// SetVertexShaderOfRenderable binds a registered vertex shader to the renderable of the given
	// name in every scene holding one.
	//
	// Parameters:
	//   - renderableName: the renderable name
	//   - shaderName: a registered vertex shader name
	//
	// Returns:
	//   - error: shader.ErrUnknownShader or ErrUnknownRenderable
	SetVertexShaderOfRenderable(renderableName, shaderName string) error

	// SetPixelShaderOfRenderable binds a registered pixel shader to the renderable of the given
	// name in every scene holding one.
	//
	// Parameters:
	//   - renderableName: the renderable name
	//   - shaderName: a registered pixel shader name
	//
	// Returns:
	//   - error: shader.ErrUnknownShader or ErrUnknownRenderable
	SetPixelShaderOfRenderable(renderableName, shaderName string) error

	// SetVertexShaderOfModel binds a registered vertex shader to the model of the given name in
	// every scene holding one.
	//
	// Parameters:
	//   - modelName: the model name
	//   - shaderName: a registered vertex shader name
	//
	// Returns:
	//   - error: shader.ErrUnknownShader or ErrUnknownModel
	SetVertexShaderOfModel(modelName, shaderName string) error

	// SetPixelShaderOfModel binds a registered pixel shader to the model of the given name in
	// every scene holding one.
	//
	// Parameters:
	//   - modelName: the model name
	//   - shaderName: a registered pixel shader name
	//
	// Returns:
	//   - error: shader.ErrUnknownShader or ErrUnknownModel
	SetPixelShaderOfModel(modelName, shaderName string) error

	// SetVertexShaderOfScene binds a registered vertex shader to every voxel batch of a scene.
	// Nothing is bound when either name is unknown.
	//
	// Parameters:
	//   - sceneName: a registered scene name
	//   - shaderName: a registered vertex shader name
	//
	// Returns:
	//   - error: ErrUnknownScene or shader.ErrUnknownShader
	SetVertexShaderOfScene(sceneName, shaderName string) error

	// SetPixelShaderOfScene binds a registered pixel shader to every voxel batch of a scene.
	// Nothing is bound when either name is unknown.
	//
	// Parameters:
	//   - sceneName: a registered scene name
	//   - shaderName: a registered pixel shader name
	//
	// Returns:
	//   - error: ErrUnknownScene or shader.ErrUnknownShader
	SetPixelShaderOfScene(sceneName, shaderName string) error

	// Camera returns the renderer's camera.
	Camera() camera.Camera

	// Device returns the device the renderer draws with.
	Device() backend.Device

	// Projection returns the current projection matrix.
	Projection() mgl32.Mat4

	// HandleInput forwards one frame of input to the camera.
	//
	// Parameters:
	//   - directions: the held movement directions
	//   - mouse: the relative mouse movement since the last frame
	//   - deltaTime: the frame time in seconds
	HandleInput(directions camera.Directions, mouse camera.MouseDelta, deltaTime float32)

	// Update advances the camera, then the main scene.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	Update(deltaTime float32)

	// Render draws one frame of the main scene and presents it. Drawables without both shaders
	// bound are skipped with a warning logged once per drawable; per-drawable device failures are
	// logged and skipped. Stale shaders are reloaded first when hot reload is enabled.
	//
	// Returns:
	//   - error: ErrNotInitialized, or a failure to begin or present the frame
	Render() error

	// Resize reconfigures the surface and re-uploads the projection for the new aspect ratio.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Release frees every scene's resources, the shader modules and the uniform buffers, then the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing through device, with all specified options applied.
// NewRenderer panics if device is nil or if an option names a scene that is not registered.
//
// Parameters:
//   - device: the graphics device; the renderer initializes and releases it
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer
func NewRenderer(device backend.Device, options ...RendererBuilderOption) Renderer {
	if device == nil {
		panic("renderer: NewRenderer requires a non-nil device")
	}

	r := &renderer{
		mu:            &sync.Mutex{},
		device:        device,
		vertexShaders: shader.NewRegistry(shader.ShaderTypeVertex),
		pixelShaders:  shader.NewRegistry(shader.ShaderTypePixel),
		scenes:        make(map[string]scene.Scene),
		fovY:          DefaultFieldOfView,
		near:          DefaultNear,
		far:           DefaultFar,
		clearColor:    backend.MidnightBlue,
		warned:        make(map[string]bool),
	}

	for _, opt := range options {
		opt(r)
	}

	if r.camera == nil {
		r.camera = camera.NewCamera(DefaultCameraPosition)
	}
	if r.pendingMainScene != "" {
		if err := r.SetMainScene(r.pendingMainScene); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *renderer) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}
	main, ok := r.scenes[r.mainScene]
	if !ok {
		return ErrNoMainScene
	}

	if err := r.device.Initialize(); err != nil {
		return fmt.Errorf("renderer: failed to initialize device: %w", err)
	}
	r.updateProjection()

	if err := r.createUniformBuffers(main); err != nil {
		r.abortInitialize()
		return err
	}

	if err := r.vertexShaders.Initialize(r.device); err != nil {
		r.abortInitialize()
		return fmt.Errorf("renderer: %w", err)
	}
	if err := r.pixelShaders.Initialize(r.device); err != nil {
		r.abortInitialize()
		return fmt.Errorf("renderer: %w", err)
	}

	r.camera.Update(0)

	if err := main.Initialize(r.device); err != nil {
		r.abortInitialize()
		return fmt.Errorf("renderer: %w", err)
	}

	if r.hotReload && r.watcher == nil {
		r.startWatcher()
	}

	r.initialized = true
	width, height := r.device.Size()
	log.Printf("[Renderer] initialized %dx%d, main scene %q, %d vertex / %d pixel shaders",
		width, height, r.mainScene, r.vertexShaders.Len(), r.pixelShaders.Len())
	return nil
}

func (r *renderer) createUniformBuffers(main scene.Scene) error {
	var err error
	cam := r.camera.Uniform()
	if r.cameraBuffer, err = r.device.CreateBuffer("camera", backend.BufferUsageUniform, cam.Marshal()); err != nil {
		return fmt.Errorf("renderer: camera uniform: %w", err)
	}
	if r.projectionBuffer, err = r.device.CreateBuffer("projection", backend.BufferUsageUniform, r.projection.Marshal()); err != nil {
		return fmt.Errorf("renderer: projection uniform: %w", err)
	}
	lights := main.LightsUniform()
	if r.lightsBuffer, err = r.device.CreateBuffer("lights", backend.BufferUsageUniform, lights.Marshal()); err != nil {
		return fmt.Errorf("renderer: lights uniform: %w", err)
	}
	return nil
}

// abortInitialize undoes a failed Initialize so a later call starts over on a fresh device.
func (r *renderer) abortInitialize() {
	r.vertexShaders.Release(r.device)
	r.pixelShaders.Release(r.device)
	r.releaseUniformBuffers()
	r.device.Release()
}

func (r *renderer) releaseUniformBuffers() {
	for _, h := range []*backend.BufferHandle{&r.cameraBuffer, &r.projectionBuffer, &r.lightsBuffer} {
		if h.Valid() {
			r.device.ReleaseBuffer(*h)
			*h = 0
		}
	}
}

// updateProjection recomputes the projection from the surface size. A zero-height surface keeps
// the previous projection.
func (r *renderer) updateProjection() {
	width, height := r.device.Size()
	if width <= 0 || height <= 0 {
		return
	}
	aspect := float32(width) / float32(height)
	r.projection.Projection = common.PerspectiveFovLH(r.fovY, aspect, r.near, r.far)
}

func (r *renderer) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

func (r *renderer) AddScene(name string, s scene.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addScene(name, s)
}

func (r *renderer) addScene(name string, s scene.Scene) error {
	if s == nil {
		return fmt.Errorf("renderer: scene %q is nil", name)
	}
	if _, ok := r.scenes[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateScene, name)
	}
	r.scenes[name] = s
	r.sceneOrder = append(r.sceneOrder, name)
	return nil
}

func (r *renderer) SetMainScene(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scenes[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	if r.initialized {
		if err := s.Initialize(r.device); err != nil {
			return fmt.Errorf("renderer: %w", err)
		}
	}
	r.mainScene = name
	return nil
}

func (r *renderer) Scene(name string) (scene.Scene, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scenes[name]
	return s, ok
}

func (r *renderer) MainScene() (scene.Scene, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scenes[r.mainScene]
	return s, ok
}

func (r *renderer) SceneNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sceneOrder...)
}

func (r *renderer) AddVertexShader(name string, s shader.Shader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addShader(r.vertexShaders, name, s)
}

func (r *renderer) AddPixelShader(name string, s shader.Shader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addShader(r.pixelShaders, name, s)
}

// addShader registers s, compiling and watching it right away once the renderer is initialized.
func (r *renderer) addShader(reg shader.Registry, name string, s shader.Shader) error {
	if err := reg.Add(name, s); err != nil {
		return err
	}
	if !r.initialized {
		return nil
	}
	if err := s.Initialize(r.device); err != nil {
		log.Printf("[Shader] failed to compile %s shader %q: %v", reg.Type(), name, err)
		return err
	}
	if r.watcher != nil {
		if err := r.watcher.Watch(s); err != nil {
			log.Printf("[Renderer] hot reload disabled for shader %q: %v", name, err)
		}
	}
	return nil
}

func (r *renderer) VertexShaders() shader.Registry {
	return r.vertexShaders
}

func (r *renderer) PixelShaders() shader.Registry {
	return r.pixelShaders
}

func (r *renderer) SetVertexShaderOfRenderable(renderableName, shaderName string) error {
	return r.bindByName(r.vertexShaders, shaderName, func(s scene.Scene) drawable.Drawable {
		if d, ok := s.Renderable(renderableName); ok {
			return d
		}
		return nil
	}, func(d drawable.Drawable, sh shader.Shader) { d.SetVertexShader(sh) },
		fmt.Errorf("%w: %q", ErrUnknownRenderable, renderableName))
}

func (r *renderer) SetPixelShaderOfRenderable(renderableName, shaderName string) error {
	return r.bindByName(r.pixelShaders, shaderName, func(s scene.Scene) drawable.Drawable {
		if d, ok := s.Renderable(renderableName); ok {
			return d
		}
		return nil
	}, func(d drawable.Drawable, sh shader.Shader) { d.SetPixelShader(sh) },
		fmt.Errorf("%w: %q", ErrUnknownRenderable, renderableName))
}

func (r *renderer) SetVertexShaderOfModel(modelName, shaderName string) error {
	return r.bindByName(r.vertexShaders, shaderName, func(s scene.Scene) drawable.Drawable {
		if d, ok := s.Model(modelName); ok {
			return d
		}
		return nil
	}, func(d drawable.Drawable, sh shader.Shader) { d.SetVertexShader(sh) },
		fmt.Errorf("%w: %q", ErrUnknownModel, modelName))
}

func (r *renderer) SetPixelShaderOfModel(modelName, shaderName string) error {
	return r.bindByName(r.pixelShaders, shaderName, func(s scene.Scene) drawable.Drawable {
		if d, ok := s.Model(modelName); ok {
			return d
		}
		return nil
	}, func(d drawable.Drawable, sh shader.Shader) { d.SetPixelShader(sh) },
		fmt.Errorf("%w: %q", ErrUnknownModel, modelName))
}

// bindByName resolves the shader first, then binds it to the drawable lookup finds in every
// registered scene. notFound is returned when no scene holds one.
func (r *renderer) bindByName(
	reg shader.Registry,
	shaderName string,
	lookup func(scene.Scene) drawable.Drawable,
	bind func(drawable.Drawable, shader.Shader),
	notFound error,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sh, err := reg.MustGet(shaderName)
	if err != nil {
		return err
	}

	var targets []drawable.Drawable
	for _, name := range r.sceneOrder {
		if d := lookup(r.scenes[name]); d != nil {
			targets = append(targets, d)
		}
	}
	if len(targets) == 0 {
		return notFound
	}
	for _, d := range targets {
		bind(d, sh)
	}
	return nil
}

func (r *renderer) SetVertexShaderOfScene(sceneName, shaderName string) error {
	return r.bindScene(r.vertexShaders, sceneName, shaderName, func(d drawable.Drawable, sh shader.Shader) {
		d.SetVertexShader(sh)
	})
}

func (r *renderer) SetPixelShaderOfScene(sceneName, shaderName string) error {
	return r.bindScene(r.pixelShaders, sceneName, shaderName, func(d drawable.Drawable, sh shader.Shader) {
		d.SetPixelShader(sh)
	})
}

// bindScene binds a shader onto every voxel batch of a scene once both names resolve.
func (r *renderer) bindScene(reg shader.Registry, sceneName, shaderName string, bind func(drawable.Drawable, shader.Shader)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scenes[sceneName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScene, sceneName)
	}
	sh, err := reg.MustGet(shaderName)
	if err != nil {
		return err
	}
	for _, b := range s.VoxelBatches() {
		bind(b, sh)
	}
	return nil
}

func (r *renderer) Camera() camera.Camera {
	return r.camera
}

func (r *renderer) Device() backend.Device {
	return r.device
}

func (r *renderer) Projection() mgl32.Mat4 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projection.Projection
}

func (r *renderer) HandleInput(directions camera.Directions, mouse camera.MouseDelta, deltaTime float32) {
	r.camera.HandleInput(directions, mouse, deltaTime)
}

func (r *renderer) Update(deltaTime float32) {
	r.camera.Update(deltaTime)

	if main, ok := r.MainScene(); ok {
		main.Update(deltaTime)
	}
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.device.Resize(width, height)
	r.updateProjection()
	if !r.projectionBuffer.Valid() {
		return
	}
	if err := r.device.WriteBuffer(r.projectionBuffer, r.projection.Marshal()); err != nil {
		log.Printf("[Renderer] failed to upload projection after resize: %v", err)
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			log.Printf("[Renderer] failed to close shader watcher: %v", err)
		}
		r.watcher = nil
	}
	for _, name := range r.sceneOrder {
		if s := r.scenes[name]; s.Initialized() {
			s.Release(r.device)
		}
	}
	r.vertexShaders.Release(r.device)
	r.pixelShaders.Release(r.device)
	r.releaseUniformBuffers()
	r.device.Release()
	r.initialized = false
}
