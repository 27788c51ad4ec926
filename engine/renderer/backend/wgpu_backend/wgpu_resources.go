package wgpu_backend

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

var addressModes = map[common.AddressMode]wgpu.AddressMode{
	common.AddressModeRepeat:       wgpu.AddressModeRepeat,
	common.AddressModeClampToEdge:  wgpu.AddressModeClampToEdge,
	common.AddressModeMirrorRepeat: wgpu.AddressModeMirrorRepeat,
}

var filterModes = map[common.FilterMode]wgpu.FilterMode{
	common.FilterModeLinear:  wgpu.FilterModeLinear,
	common.FilterModeNearest: wgpu.FilterModeNearest,
}

func bufferUsage(usage backend.BufferUsage) wgpu.BufferUsage {
	switch usage {
	case backend.BufferUsageIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case backend.BufferUsageUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

func (d *wgpuDevice) CreateBuffer(label string, usage backend.BufferUsage, data []byte) (backend.BufferHandle, error) {
	if d.device == nil {
		return 0, errors.New("device not initialized")
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("buffer %q has no data", label)
	}

	// buffer sizes must be a multiple of 4 for queue writes
	size := (uint64(len(data)) + 3) &^ 3
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: bufferUsage(usage),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create %s buffer %q: %w", usage, label, err)
	}
	d.queue.WriteBuffer(buf, 0, padTo4(data))

	h := backend.BufferHandle(d.handle())
	d.buffers[h] = &gpuBuffer{buffer: buf, size: size, usage: usage}
	return h, nil
}

func (d *wgpuDevice) WriteBuffer(h backend.BufferHandle, data []byte) error {
	b, ok := d.buffers[h]
	if !ok {
		return fmt.Errorf("unknown buffer %d", h)
	}
	if uint64(len(data)) > b.size {
		return fmt.Errorf("write of %d bytes overflows buffer %d of %d bytes", len(data), h, b.size)
	}
	d.queue.WriteBuffer(b.buffer, 0, padTo4(data))
	return nil
}

func (d *wgpuDevice) CreateTexture(data *common.TextureStagingData) (backend.TextureHandle, error) {
	if d.device == nil {
		return 0, errors.New("device not initialized")
	}
	t, err := d.createTexture(data)
	if err != nil {
		return 0, err
	}
	h := backend.TextureHandle(d.handle())
	d.textures[h] = t
	return h, nil
}

func (d *wgpuDevice) createTexture(data *common.TextureStagingData) (*gpuTexture, error) {
	if data == nil || data.Width == 0 || data.Height == 0 {
		return nil, errors.New("texture has no pixels")
	}
	if uint32(len(data.Pixels)) < data.Width*data.Height*4 {
		return nil, fmt.Errorf("texture %q has %d bytes, want %d", data.Label, len(data.Pixels), data.Width*data.Height*4)
	}

	extent := wgpu.Extent3D{
		Width:              data.Width,
		Height:             data.Height,
		DepthOrArrayLayers: 1,
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         data.Label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", data.Label, err)
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create view for texture %q: %w", data.Label, err)
	}

	s := data.Sampler
	if s == nil {
		s = common.DefaultSampler()
	}
	sampler, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         data.Label + " Sampler",
		AddressModeU:  addressModes[s.AddressModeU],
		AddressModeV:  addressModes[s.AddressModeV],
		AddressModeW:  addressModes[s.AddressModeW],
		MagFilter:     filterModes[s.MagFilter],
		MinFilter:     filterModes[s.MinFilter],
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("failed to create sampler for texture %q: %w", data.Label, err)
	}

	return &gpuTexture{texture: tex, view: view, sampler: sampler}, nil
}

func (d *wgpuDevice) CreateShader(src backend.ShaderSource) (backend.ShaderHandle, error) {
	if d.device == nil {
		return 0, errors.New("device not initialized")
	}
	if src.EntryPoint == "" {
		return 0, fmt.Errorf("shader %q has no %s entry point", src.Label, src.Stage)
	}

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: src.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src.Code,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compile shader %q: %w", src.Label, err)
	}

	h := backend.ShaderHandle(d.handle())
	d.shaders[h] = &gpuShader{module: module, src: src}
	return h, nil
}

func (d *wgpuDevice) ReleaseBuffer(h backend.BufferHandle) {
	b, ok := d.buffers[h]
	if !ok {
		return
	}
	d.dropBindGroups()
	b.buffer.Release()
	delete(d.buffers, h)
}

func (d *wgpuDevice) ReleaseTexture(h backend.TextureHandle) {
	t, ok := d.textures[h]
	if !ok {
		return
	}
	d.dropBindGroups()
	t.release()
	delete(d.textures, h)
}

func (d *wgpuDevice) ReleaseShader(h backend.ShaderHandle) {
	s, ok := d.shaders[h]
	if !ok {
		return
	}
	for key, p := range d.pipelines {
		if key.vs == h || key.ps == h {
			d.dropBindGroups()
			p.release()
			delete(d.pipelines, key)
		}
	}
	s.module.Release()
	delete(d.shaders, h)
}

func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	padded := make([]byte, (len(data)+3)&^3)
	copy(padded, data)
	return padded
}
