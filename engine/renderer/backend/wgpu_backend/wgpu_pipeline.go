package wgpu_backend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

var vertexFormats = map[backend.VertexFormat]wgpu.VertexFormat{
	backend.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	backend.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	backend.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	backend.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	backend.VertexFormatUint32:    wgpu.VertexFormatUint32,
	backend.VertexFormatUint32x2:  wgpu.VertexFormatUint32x2,
	backend.VertexFormatUint32x3:  wgpu.VertexFormatUint32x3,
	backend.VertexFormatUint32x4:  wgpu.VertexFormatUint32x4,
	backend.VertexFormatSint32:    wgpu.VertexFormatSint32,
	backend.VertexFormatSint32x2:  wgpu.VertexFormatSint32x2,
	backend.VertexFormatSint32x3:  wgpu.VertexFormatSint32x3,
	backend.VertexFormatSint32x4:  wgpu.VertexFormatSint32x4,
}

// pipelineKey identifies a render pipeline by the shader pair it was built from.
type pipelineKey struct {
	vs, ps backend.ShaderHandle
}

// pipelineBinding is a bind group 0 entry merged across both shader stages.
type pipelineBinding struct {
	backend.Binding
	visibility wgpu.ShaderStage
}

type gpuPipeline struct {
	key             pipelineKey
	pipeline        *wgpu.RenderPipeline
	layout          *wgpu.PipelineLayout
	bindGroupLayout *wgpu.BindGroupLayout
	bindings        []pipelineBinding
	vertexBuffers   int
}

func (p *gpuPipeline) release() {
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.layout != nil {
		p.layout.Release()
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
	}
}

// mergeBindings combines the bindings declared by the vertex and pixel stages. A slot declared by
// both stages becomes visible to both; a slot declared with different kinds is an error.
func mergeBindings(vs, ps []backend.Binding) ([]pipelineBinding, error) {
	merged := make(map[uint32]pipelineBinding)
	add := func(bindings []backend.Binding, stage wgpu.ShaderStage) error {
		for _, b := range bindings {
			existing, ok := merged[b.Slot]
			if !ok {
				merged[b.Slot] = pipelineBinding{Binding: b, visibility: stage}
				continue
			}
			if existing.Kind != b.Kind {
				return fmt.Errorf("binding %d is declared as %q and %q with different kinds", b.Slot, existing.Name, b.Name)
			}
			existing.visibility |= stage
			existing.MinSize = max(existing.MinSize, b.MinSize)
			merged[b.Slot] = existing
		}
		return nil
	}
	if err := add(vs, wgpu.ShaderStageVertex); err != nil {
		return nil, err
	}
	if err := add(ps, wgpu.ShaderStageFragment); err != nil {
		return nil, err
	}

	out := make([]pipelineBinding, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func layoutEntry(b pipelineBinding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    b.Slot,
		Visibility: b.visibility,
	}
	switch b.Kind {
	case backend.BindingKindUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = b.MinSize
	case backend.BindingKindStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = b.MinSize
	case backend.BindingKindTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case backend.BindingKindSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	}
	return entry
}

func vertexBufferLayouts(layouts []backend.VertexBufferLayout) []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for _, l := range layouts {
		attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
		for i, a := range l.Attributes {
			attrs[i] = wgpu.VertexAttribute{
				Format:         vertexFormats[a.Format],
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		stepMode := wgpu.VertexStepModeVertex
		if l.StepMode == backend.VertexStepModeInstance {
			stepMode = wgpu.VertexStepModeInstance
		}
		out = append(out, wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    stepMode,
			Attributes:  attrs,
		})
	}
	return out
}

// pipelineFor returns the cached pipeline for a shader pair, building it on first use.
func (d *wgpuDevice) pipelineFor(vs, ps backend.ShaderHandle) (*gpuPipeline, error) {
	key := pipelineKey{vs: vs, ps: ps}
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}

	vertex, ok := d.shaders[vs]
	if !ok || vertex.src.Stage != backend.ShaderStageVertex {
		return nil, fmt.Errorf("handle %d is not a vertex shader", vs)
	}
	pixel, ok := d.shaders[ps]
	if !ok || pixel.src.Stage != backend.ShaderStagePixel {
		return nil, fmt.Errorf("handle %d is not a pixel shader", ps)
	}

	bindings, err := mergeBindings(vertex.src.Bindings, pixel.src.Bindings)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s+%s: %w", vertex.src.Label, pixel.src.Label, err)
	}

	label := vertex.src.Label + "+" + pixel.src.Label
	p := &gpuPipeline{
		key:           key,
		bindings:      bindings,
		vertexBuffers: len(vertex.src.VertexLayouts),
	}

	var groupLayouts []*wgpu.BindGroupLayout
	if len(bindings) > 0 {
		entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
		for i, b := range bindings {
			entries[i] = layoutEntry(b)
		}
		p.bindGroupLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   label + " Bind Group Layout",
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bind group layout for %s: %w", label, err)
		}
		groupLayouts = []*wgpu.BindGroupLayout{p.bindGroupLayout}
	}

	p.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: groupLayouts,
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to create pipeline layout for %s: %w", label, err)
	}

	cullMode := wgpu.CullModeNone
	if d.cullBackFaces {
		cullMode = wgpu.CullModeBack
	}

	p.pipeline, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     vertex.module,
			EntryPoint: vertex.src.EntryPoint,
			Buffers:    vertexBufferLayouts(vertex.src.VertexLayouts),
		},
		Fragment: &wgpu.FragmentState{
			Module:     pixel.module,
			EntryPoint: pixel.src.EntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    d.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCW,
			CullMode:  cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(d.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to create render pipeline %s: %w", label, err)
	}

	d.pipelines[key] = p
	return p, nil
}

// bindGroupFor assembles bind group 0 for the pipeline from the currently bound uniform buffers and
// textures. Unbound texture and sampler slots fall back to a 1x1 white texture. Bind groups are
// cached by the exact set of handles they reference.
func (d *wgpuDevice) bindGroupFor(p *gpuPipeline) (*wgpu.BindGroup, error) {
	if p.bindGroupLayout == nil {
		return nil, nil
	}

	var key strings.Builder
	key.WriteString(strconv.FormatUint(uint64(p.key.vs), 10))
	key.WriteByte('+')
	key.WriteString(strconv.FormatUint(uint64(p.key.ps), 10))

	entries := make([]wgpu.BindGroupEntry, len(p.bindings))
	for i, b := range p.bindings {
		key.WriteByte('|')
		switch b.Kind {
		case backend.BindingKindUniform, backend.BindingKindStorage:
			h := d.frame.uniforms[b.Slot]
			buf, ok := d.buffers[h]
			if !ok {
				return nil, fmt.Errorf("binding %d (%s) has no buffer bound", b.Slot, b.Name)
			}
			key.WriteString(strconv.FormatUint(uint64(h), 10))
			entries[i] = wgpu.BindGroupEntry{
				Binding: b.Slot,
				Buffer:  buf.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		case backend.BindingKindTexture:
			h, tex := d.textureAt(b.Slot)
			key.WriteByte('t')
			key.WriteString(strconv.FormatUint(uint64(h), 10))
			entries[i] = wgpu.BindGroupEntry{
				Binding:     b.Slot,
				TextureView: tex.view,
			}
		case backend.BindingKindSampler:
			var h backend.TextureHandle
			tex := d.fallback
			if b.Slot > 0 {
				h, tex = d.textureAt(b.Slot - 1)
			}
			key.WriteByte('s')
			key.WriteString(strconv.FormatUint(uint64(h), 10))
			entries[i] = wgpu.BindGroupEntry{
				Binding: b.Slot,
				Sampler: tex.sampler,
			}
		}
	}

	if bg, ok := d.bindGroups[key.String()]; ok {
		return bg, nil
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Bind Group " + key.String(),
		Layout:  p.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group: %w", err)
	}
	d.bindGroups[key.String()] = bg
	return bg, nil
}

// textureAt returns the texture bound at slot, or the fallback texture with a zero handle.
func (d *wgpuDevice) textureAt(slot uint32) (backend.TextureHandle, *gpuTexture) {
	h := d.frame.textures[slot]
	if t, ok := d.textures[h]; ok {
		return h, t
	}
	return 0, d.fallback
}

func (d *wgpuDevice) dropBindGroups() {
	for key, bg := range d.bindGroups {
		bg.Release()
		delete(d.bindGroups, key)
	}
}
