package renderer

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-voxel/engine/drawable"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
)

func (r *renderer) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	r.reloadStaleShaders()

	main := r.scenes[r.mainScene]

	if err := r.device.BeginFrame(r.clearColor); err != nil {
		return fmt.Errorf("renderer: failed to begin frame: %w", err)
	}

	cam := r.camera.Uniform()
	if err := r.device.WriteBuffer(r.cameraBuffer, cam.Marshal()); err != nil {
		log.Printf("[Renderer] failed to upload camera: %v", err)
	}
	lights := main.LightsUniform()
	if err := r.device.WriteBuffer(r.lightsBuffer, lights.Marshal()); err != nil {
		log.Printf("[Renderer] failed to upload lights: %v", err)
	}
	r.device.SetUniformBuffer(shader.SlotCamera, r.cameraBuffer)
	r.device.SetUniformBuffer(shader.SlotProjection, r.projectionBuffer)
	r.device.SetUniformBuffer(shader.SlotLights, r.lightsBuffer)

	for _, d := range main.Renderables() {
		r.drawLogged(d, 1)
	}
	for _, b := range main.VoxelBatches() {
		r.drawLogged(b, uint32(b.InstanceCount()))
	}
	for _, m := range main.Models() {
		r.drawLogged(m, 1)
	}

	if err := r.device.Present(); err != nil {
		return fmt.Errorf("renderer: failed to present: %w", err)
	}
	return nil
}

// drawLogged draws d and logs instead of returning its failure, so one bad drawable never drops the frame.
func (r *renderer) drawLogged(d drawable.Drawable, instances uint32) {
	if !d.Enabled() {
		return
	}
	if err := r.draw(d, instances); err != nil {
		log.Printf("[Renderer] skipped %s %q: %v", d.Kind(), d.Name(), err)
	}
}

// draw uploads the per-frame data of d, binds its shaders and buffers and draws it: one draw per
// sub-mesh with that sub-mesh's textures when textured, otherwise one draw of the whole mesh.
// Every per-drawable slot is rebound so nothing carries over from the previous drawable.
// A drawable missing either shader is skipped with a warning logged once.
func (r *renderer) draw(d drawable.Drawable, instances uint32) error {
	vs, ps := d.VertexShader(), d.PixelShader()
	if vs == nil || ps == nil {
		r.warnOnce(d, "has no vertex and pixel shader pair bound")
		return nil
	}
	if !vs.Initialized() || !ps.Initialized() {
		r.warnOnce(d, "is bound to a shader that is not compiled")
		return nil
	}

	if err := d.Upload(r.device); err != nil {
		return err
	}
	if err := r.device.SetPipeline(vs.Handle(), ps.Handle()); err != nil {
		return err
	}

	b := d.Buffers()
	// an invalid Extra handle unbinds slot 1
	r.device.SetVertexBuffers(shader.VertexSlotGeometry, b.Vertex, b.Extra)
	r.device.SetIndexBuffer(b.Index, backend.IndexFormatUint32)
	r.device.SetUniformBuffer(shader.SlotObject, b.Object)
	if b.Skinning.Valid() {
		r.device.SetUniformBuffer(shader.SlotSkinning, b.Skinning)
	}

	mesh := d.Geometry()
	if !d.Textured() {
		r.bindTextures(0, 0)
		return r.device.DrawIndexed(uint32(len(mesh.Indices())), instances, 0, 0)
	}

	normalMapped := d.HasNormalMap()
	for i, sm := range mesh.SubMeshes() {
		var diffuse, normal backend.TextureHandle
		if m := d.SubMeshMaterial(i); m != nil {
			diffuse = m.DiffuseHandle()
			if normalMapped {
				normal = m.NormalHandle()
			}
		}
		r.bindTextures(diffuse, normal)
		if err := r.device.DrawIndexed(sm.IndexCount, instances, sm.BaseIndex, 0); err != nil {
			return fmt.Errorf("sub-mesh %d: %w", i, err)
		}
	}
	return nil
}

// bindTextures binds both texture slots; a zero handle selects the device's fallback texture.
func (r *renderer) bindTextures(diffuse, normal backend.TextureHandle) {
	r.device.SetTexture(shader.SlotDiffuseTexture, diffuse)
	r.device.SetTexture(shader.SlotNormalTexture, normal)
}

func (r *renderer) warnOnce(d drawable.Drawable, problem string) {
	key := d.Kind().String() + "/" + d.Name()
	if r.warned[key] {
		return
	}
	r.warned[key] = true
	log.Printf("[Renderer] %s %q %s, skipping it", d.Kind(), d.Name(), problem)
}

// startWatcher watches every file-backed shader for hot reload. Failures disable hot reload.
func (r *renderer) startWatcher() {
	w, err := shader.NewWatcher()
	if err != nil {
		log.Printf("[Renderer] shader hot reload disabled: %v", err)
		return
	}
	for _, reg := range []shader.Registry{r.vertexShaders, r.pixelShaders} {
		for _, s := range reg.All() {
			if err := w.Watch(s); err != nil {
				log.Printf("[Renderer] hot reload disabled for shader %q: %v", s.Name(), err)
			}
		}
	}
	r.watcher = w
}

// reloadStaleShaders recompiles the shaders whose files changed. A failed reload keeps the
// previous module.
func (r *renderer) reloadStaleShaders() {
	if r.watcher == nil {
		return
	}
	for _, s := range r.watcher.Stale() {
		if err := s.Reload(r.device); err != nil {
			log.Printf("[Shader] reload of %s shader %q failed, keeping the previous module: %v", s.Type(), s.Name(), err)
			continue
		}
		log.Printf("[Shader] reloaded %s shader %q", s.Type(), s.Name())
	}
}
