package wgpu_backend

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// frameState holds the command recording state and the immediate bindings of the frame in progress.
type frameState struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	surface *wgpu.Texture
	view    *wgpu.TextureView

	pipeline    *gpuPipeline
	vertex      map[uint32]backend.BufferHandle
	index       backend.BufferHandle
	indexFormat wgpu.IndexFormat
	uniforms    map[uint32]backend.BufferHandle
	textures    map[uint32]backend.TextureHandle
}

func (f *frameState) reset() {
	f.encoder = nil
	f.pass = nil
	f.surface = nil
	f.view = nil
	f.pipeline = nil
	f.vertex = make(map[uint32]backend.BufferHandle)
	f.index = 0
	f.indexFormat = wgpu.IndexFormatUint32
	f.uniforms = make(map[uint32]backend.BufferHandle)
	f.textures = make(map[uint32]backend.TextureHandle)
}

// abort releases everything the frame acquired without submitting it.
func (f *frameState) abort() {
	if f.pass != nil {
		f.pass.End()
	}
	if f.encoder != nil {
		f.encoder.Release()
	}
	if f.view != nil {
		f.view.Release()
	}
	if f.surface != nil {
		f.surface.Release()
	}
}

func (d *wgpuDevice) BeginFrame(clear backend.Color) error {
	if d.device == nil {
		return errors.New("device not initialized")
	}
	if d.frame.surface != nil {
		return errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("failed to create surface view: %w", err)
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("failed to create command encoder: %w", err)
	}

	// with MSAA the swapchain view is the resolve target, otherwise it is drawn to directly
	attachment := &d.renderPassDescriptor.ColorAttachments[0]
	if d.sampleCount > 1 {
		attachment.ResolveTarget = view
	} else {
		attachment.View = view
	}
	attachment.ClearValue = wgpu.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A}

	d.frame.reset()
	d.frame.encoder = encoder
	d.frame.pass = encoder.BeginRenderPass(d.renderPassDescriptor)
	d.frame.surface = surfaceTexture
	d.frame.view = view
	return nil
}

func (d *wgpuDevice) SetPipeline(vs, ps backend.ShaderHandle) error {
	p, err := d.pipelineFor(vs, ps)
	if err != nil {
		d.frame.pipeline = nil
		return err
	}
	d.frame.pipeline = p
	return nil
}

func (d *wgpuDevice) SetVertexBuffers(startSlot uint32, bufs ...backend.BufferHandle) {
	for i, h := range bufs {
		d.frame.vertex[startSlot+uint32(i)] = h
	}
}

func (d *wgpuDevice) SetIndexBuffer(h backend.BufferHandle, format backend.IndexFormat) {
	d.frame.index = h
	d.frame.indexFormat = wgpu.IndexFormatUint32
	if format == backend.IndexFormatUint16 {
		d.frame.indexFormat = wgpu.IndexFormatUint16
	}
}

func (d *wgpuDevice) SetUniformBuffer(slot uint32, h backend.BufferHandle) {
	d.frame.uniforms[slot] = h
}

func (d *wgpuDevice) SetTexture(slot uint32, h backend.TextureHandle) {
	d.frame.textures[slot] = h
}

func (d *wgpuDevice) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32) error {
	pass := d.frame.pass
	if pass == nil {
		return errors.New("draw outside of a frame")
	}
	p := d.frame.pipeline
	if p == nil {
		return errors.New("draw without a pipeline")
	}

	index, ok := d.buffers[d.frame.index]
	if !ok {
		return errors.New("draw without an index buffer")
	}
	vertex := make([]*gpuBuffer, p.vertexBuffers)
	for slot := range p.vertexBuffers {
		b, ok := d.buffers[d.frame.vertex[uint32(slot)]]
		if !ok {
			return fmt.Errorf("vertex buffer slot %d is not bound", slot)
		}
		vertex[slot] = b
	}
	bindGroup, err := d.bindGroupFor(p)
	if err != nil {
		return err
	}

	pass.SetPipeline(p.pipeline)
	if bindGroup != nil {
		pass.SetBindGroup(0, bindGroup, nil)
	}
	for slot, b := range vertex {
		pass.SetVertexBuffer(uint32(slot), b.buffer, 0, wgpu.WholeSize)
	}
	pass.SetIndexBuffer(index.buffer, d.frame.indexFormat, 0, wgpu.WholeSize)
	pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, 0)
	return nil
}

func (d *wgpuDevice) Present() error {
	if d.frame.pass == nil {
		return errors.New("present without a frame")
	}
	defer d.frame.reset()

	d.frame.pass.End()
	d.frame.pass = nil

	commandBuffer, err := d.frame.encoder.Finish(nil)
	if err != nil {
		d.frame.abort()
		return fmt.Errorf("failed to finish frame: %w", err)
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	d.frame.encoder.Release()

	d.surface.Present()
	d.frame.view.Release()
	d.frame.surface.Release()
	return nil
}
