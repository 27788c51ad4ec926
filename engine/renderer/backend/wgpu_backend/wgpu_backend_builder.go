package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*wgpuDevice)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the present mode option to a device
func WithPresentMode(mode backend.PresentMode) DeviceBuilderOption {
	return func(d *wgpuDevice) {
		switch mode {
		case backend.PresentModeUncapped:
			d.presentMode = wgpu.PresentModeImmediate
		default:
			d.presentMode = wgpu.PresentModeFifo
		}
	}
}

// WithMSAA sets the multisample anti-aliasing sample count. The default is MSAA4x.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - DeviceBuilderOption: a function that applies the MSAA option to a device
func WithMSAA(count backend.MSAASampleCount) DeviceBuilderOption {
	return func(d *wgpuDevice) {
		if count == 0 {
			count = backend.MSAAOff
		}
		d.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - DeviceBuilderOption: a function that applies the option to a device
func WithForceSoftwareRenderer(force bool) DeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithBackfaceCulling enables culling of back faces. Front faces wind clockwise, matching the
// left-handed convention of the engine's meshes.
//
// Parameters:
//   - enabled: true to cull back faces
//
// Returns:
//   - DeviceBuilderOption: a function that applies the option to a device
func WithBackfaceCulling(enabled bool) DeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.cullBackFaces = enabled
	}
}
