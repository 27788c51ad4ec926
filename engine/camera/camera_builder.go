package camera

import "github.com/Carmen-Shannon/oxy-voxel/common"

// CameraBuilderOption is a functional option for configuring a Camera via NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithTravelSpeed sets the movement speed scalar.
//
// Parameters:
//   - speed: distance moved per second of held movement key
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's travel speed
func WithTravelSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.travelSpeed = speed
	}
}

// WithRotationSpeed sets the mouse rotation speed scalar.
//
// Parameters:
//   - speed: radians turned per pixel of mouse movement per second
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's rotation speed
func WithRotationSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.rotationSpeed = speed
	}
}

// WithOrientation sets the initial yaw and pitch. Pitch is clamped to [-MaxPitch, MaxPitch].
//
// Parameters:
//   - yaw: rotation about the world Y axis in radians
//   - pitch: rotation about the camera X axis in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's orientation
func WithOrientation(yaw, pitch float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.yaw = yaw
		c.pitch = common.ClampFloat(pitch, -MaxPitch, MaxPitch)
	}
}
