// Package wgpu_backend implements backend.Device on top of WebGPU (wgpu-native through cogentcore/webgpu).
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceSource provides the native surface the device presents to, typically a window.
type SurfaceSource interface {
	// SurfaceDescriptor returns the platform surface descriptor for the window.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

type gpuBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  backend.BufferUsage
}

type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (t *gpuTexture) release() {
	if t.sampler != nil {
		t.sampler.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

type gpuShader struct {
	module *wgpu.ShaderModule
	src    backend.ShaderSource
}

// wgpuDevice is the WebGPU implementation of backend.Device.
type wgpuDevice struct {
	source SurfaceSource

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	width, height        int
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode          wgpu.PresentMode
	sampleCount          backend.MSAASampleCount
	forceFallbackAdapter bool
	cullBackFaces        bool

	nextHandle uint32
	buffers    map[backend.BufferHandle]*gpuBuffer
	textures   map[backend.TextureHandle]*gpuTexture
	shaders    map[backend.ShaderHandle]*gpuShader
	pipelines  map[pipelineKey]*gpuPipeline
	bindGroups map[string]*wgpu.BindGroup
	fallback   *gpuTexture

	frame frameState
}

var _ backend.Device = &wgpuDevice{}

// NewDevice creates a WebGPU device that presents to the given surface source.
// No GPU objects are created until Initialize is called.
//
// Parameters:
//   - source: the window providing the native surface
//   - options: functional options configuring present mode, MSAA and adapter selection
//
// Returns:
//   - backend.Device: the new device
func NewDevice(source SurfaceSource, options ...DeviceBuilderOption) backend.Device {
	if source == nil {
		panic("wgpu_backend: surface source must not be nil")
	}
	d := &wgpuDevice{
		source:      source,
		presentMode: wgpu.PresentModeFifo,
		sampleCount: backend.MSAA4x,
		buffers:     make(map[backend.BufferHandle]*gpuBuffer),
		textures:    make(map[backend.TextureHandle]*gpuTexture),
		shaders:     make(map[backend.ShaderHandle]*gpuShader),
		pipelines:   make(map[pipelineKey]*gpuPipeline),
		bindGroups:  make(map[string]*wgpu.BindGroup),
	}
	for _, opt := range options {
		opt(d)
	}
	d.frame.reset()
	return d
}

func (d *wgpuDevice) Initialize() error {
	if d.device != nil {
		return errors.New("device already initialized")
	}
	runtime.LockOSThread()

	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(d.source.SurfaceDescriptor())

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to request device: %w", err)
	}
	d.device = device
	d.queue = device.GetQueue()

	if err := d.configureSurface(d.source.Width(), d.source.Height()); err != nil {
		return err
	}

	fallback, err := d.createTexture(&common.TextureStagingData{
		Label:  "Fallback White",
		Pixels: []byte{255, 255, 255, 255},
		Width:  1,
		Height: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create fallback texture: %w", err)
	}
	d.fallback = fallback

	return nil
}

func (d *wgpuDevice) Size() (int, int) {
	return d.width, d.height
}

func (d *wgpuDevice) Resize(width, height int) {
	if d.device == nil || width <= 0 || height <= 0 {
		return
	}
	if width == d.width && height == d.height {
		return
	}
	if err := d.configureSurface(width, height); err != nil {
		panic(fmt.Errorf("failed to resize surface: %w", err))
	}
}

// configureSurface (re)configures the swapchain and rebuilds the MSAA and depth targets for the new size.
func (d *wgpuDevice) configureSurface(width, height int) error {
	d.releaseTargets()

	capabilities := d.surface.GetCapabilities(d.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no supported formats")
	}
	d.surfaceFormat = capabilities.Formats[0]

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	d.width, d.height = width, height

	count := uint32(d.sampleCount)
	msaaEnabled := count > 1
	size := wgpu.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}

	if msaaEnabled {
		tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        d.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("failed to create MSAA texture: %w", err)
		}
		d.msaaTexture = tex
		if d.msaaTextureView, err = tex.CreateView(nil); err != nil {
			return fmt.Errorf("failed to create MSAA view: %w", err)
		}
	}

	// depth sample count must match the color attachment
	depth, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	d.depthTexture = depth
	if d.depthTextureView, err = depth.CreateView(nil); err != nil {
		return fmt.Errorf("failed to create depth view: %w", err)
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	d.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    d.msaaTextureView, // nil without MSAA; set per frame
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: storeOp,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            d.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

func (d *wgpuDevice) releaseTargets() {
	if d.msaaTextureView != nil {
		d.msaaTextureView.Release()
		d.msaaTextureView = nil
	}
	if d.msaaTexture != nil {
		d.msaaTexture.Release()
		d.msaaTexture = nil
	}
	if d.depthTextureView != nil {
		d.depthTextureView.Release()
		d.depthTextureView = nil
	}
	if d.depthTexture != nil {
		d.depthTexture.Release()
		d.depthTexture = nil
	}
}

func (d *wgpuDevice) Release() {
	if d.device == nil {
		return
	}
	d.frame.abort()
	d.frame.reset()

	d.dropBindGroups()
	for key, p := range d.pipelines {
		p.release()
		delete(d.pipelines, key)
	}
	for h, s := range d.shaders {
		s.module.Release()
		delete(d.shaders, h)
	}
	for h, b := range d.buffers {
		b.buffer.Release()
		delete(d.buffers, h)
	}
	for h, t := range d.textures {
		t.release()
		delete(d.textures, h)
	}
	if d.fallback != nil {
		d.fallback.release()
		d.fallback = nil
	}
	d.releaseTargets()

	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.surface.Release()
	d.instance.Release()
	d.device = nil
}

func (d *wgpuDevice) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}
