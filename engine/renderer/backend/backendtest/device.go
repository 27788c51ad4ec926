// Package backendtest provides an in-memory backend.Device that records every call made to it.
package backendtest

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
)

// Call is a single recorded Device method invocation.
type Call struct {
	Op   string
	Args []any
}

// Device is a recording backend.Device. Buffers, textures and shaders are kept in memory so tests
// can inspect uploaded contents. Any method returning an error can be made to fail with Fail.
type Device struct {
	Calls []Call

	Buffers  map[backend.BufferHandle][]byte
	Usages   map[backend.BufferHandle]backend.BufferUsage
	Textures map[backend.TextureHandle]*common.TextureStagingData
	Shaders  map[backend.ShaderHandle]backend.ShaderSource

	Initialized bool
	Released    bool

	width, height int
	next          uint32
	failures      map[string]error
	frameOpen     bool
	vs, ps        backend.ShaderHandle
}

var _ backend.Device = &Device{}

// New creates a recording device with an 800x600 surface.
//
// Returns:
//   - *Device: the new device
func New() *Device {
	return &Device{
		Buffers:  make(map[backend.BufferHandle][]byte),
		Usages:   make(map[backend.BufferHandle]backend.BufferUsage),
		Textures: make(map[backend.TextureHandle]*common.TextureStagingData),
		Shaders:  make(map[backend.ShaderHandle]backend.ShaderSource),
		width:    800,
		height:   600,
		failures: make(map[string]error),
	}
}

// Fail makes every later call to op return err. Passing a nil err clears the failure.
//
// Parameters:
//   - op: the method name, e.g. "CreateShader"
//   - err: the error to return
func (d *Device) Fail(op string, err error) {
	if err == nil {
		delete(d.failures, op)
		return
	}
	d.failures[op] = err
}

// Ops returns the recorded method names in call order.
//
// Returns:
//   - []string: the method names
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
//
// Parameters:
//   - op: the method name
//
// Returns:
//   - int: the number of recorded calls
func (d *Device) Count(op string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// CallsOf returns the recorded calls of op in call order.
//
// Parameters:
//   - op: the method name
//
// Returns:
//   - []Call: the matching calls
func (d *Device) CallsOf(op string) []Call {
	var out []Call
	for _, c := range d.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log while keeping created resources.
func (d *Device) ResetCalls() {
	d.Calls = nil
}

func (d *Device) record(op string, args ...any) error {
	d.Calls = append(d.Calls, Call{Op: op, Args: args})
	return d.failures[op]
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) Initialize() error {
	if err := d.record("Initialize"); err != nil {
		return err
	}
	d.Initialized = true
	return nil
}

func (d *Device) Size() (int, int) {
	return d.width, d.height
}

func (d *Device) Resize(width, height int) {
	d.record("Resize", width, height)
	d.width, d.height = width, height
}

func (d *Device) CreateBuffer(label string, usage backend.BufferUsage, data []byte) (backend.BufferHandle, error) {
	if err := d.record("CreateBuffer", label, usage, len(data)); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("buffer %q has no data", label)
	}
	h := backend.BufferHandle(d.handle())
	d.Buffers[h] = append([]byte(nil), data...)
	d.Usages[h] = usage
	return h, nil
}

func (d *Device) WriteBuffer(h backend.BufferHandle, data []byte) error {
	if err := d.record("WriteBuffer", h, len(data)); err != nil {
		return err
	}
	buf, ok := d.Buffers[h]
	if !ok {
		return fmt.Errorf("unknown buffer %d", h)
	}
	if len(data) > len(buf) {
		return fmt.Errorf("write of %d bytes overflows buffer %d of %d bytes", len(data), h, len(buf))
	}
	copy(buf, data)
	return nil
}

func (d *Device) CreateTexture(data *common.TextureStagingData) (backend.TextureHandle, error) {
	if err := d.record("CreateTexture", data.Label); err != nil {
		return 0, err
	}
	h := backend.TextureHandle(d.handle())
	d.Textures[h] = data
	return h, nil
}

func (d *Device) CreateShader(src backend.ShaderSource) (backend.ShaderHandle, error) {
	if err := d.record("CreateShader", src.Label, src.Stage); err != nil {
		return 0, err
	}
	h := backend.ShaderHandle(d.handle())
	d.Shaders[h] = src
	return h, nil
}

func (d *Device) BeginFrame(clear backend.Color) error {
	if err := d.record("BeginFrame", clear); err != nil {
		return err
	}
	d.frameOpen = true
	d.vs, d.ps = 0, 0
	return nil
}

func (d *Device) SetPipeline(vs, ps backend.ShaderHandle) error {
	if err := d.record("SetPipeline", vs, ps); err != nil {
		return err
	}
	if _, ok := d.Shaders[vs]; !ok {
		return fmt.Errorf("unknown vertex shader %d", vs)
	}
	if _, ok := d.Shaders[ps]; !ok {
		return fmt.Errorf("unknown pixel shader %d", ps)
	}
	d.vs, d.ps = vs, ps
	return nil
}

func (d *Device) SetVertexBuffers(startSlot uint32, bufs ...backend.BufferHandle) {
	args := []any{startSlot}
	for _, b := range bufs {
		args = append(args, b)
	}
	d.record("SetVertexBuffers", args...)
}

func (d *Device) SetIndexBuffer(h backend.BufferHandle, format backend.IndexFormat) {
	d.record("SetIndexBuffer", h, format)
}

func (d *Device) SetUniformBuffer(slot uint32, h backend.BufferHandle) {
	d.record("SetUniformBuffer", slot, h)
}

func (d *Device) SetTexture(slot uint32, h backend.TextureHandle) {
	d.record("SetTexture", slot, h)
}

func (d *Device) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32) error {
	if err := d.record("DrawIndexed", indexCount, instanceCount, firstIndex, baseVertex); err != nil {
		return err
	}
	if !d.frameOpen {
		return errors.New("draw outside of a frame")
	}
	if !d.vs.Valid() || !d.ps.Valid() {
		return errors.New("draw without a pipeline")
	}
	return nil
}

func (d *Device) Present() error {
	if err := d.record("Present"); err != nil {
		return err
	}
	if !d.frameOpen {
		return errors.New("present without a frame")
	}
	d.frameOpen = false
	return nil
}

func (d *Device) ReleaseBuffer(h backend.BufferHandle) {
	d.record("ReleaseBuffer", h)
	delete(d.Buffers, h)
	delete(d.Usages, h)
}

func (d *Device) ReleaseTexture(h backend.TextureHandle) {
	d.record("ReleaseTexture", h)
	delete(d.Textures, h)
}

func (d *Device) ReleaseShader(h backend.ShaderHandle) {
	d.record("ReleaseShader", h)
	delete(d.Shaders, h)
}

func (d *Device) Release() {
	d.record("Release")
	d.Released = true
}
