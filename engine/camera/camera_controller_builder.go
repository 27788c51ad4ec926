package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithKeyBindings sets the key codes that drive each movement direction.
//
// Parameters:
//   - bindings: the key bindings
//
// Returns:
//   - CameraControllerOption: functional option to set the key bindings
func WithKeyBindings(bindings KeyBindings) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.bindings = bindings
	}
}

// WithMouseSensitivity sets the multiplier applied to raw pointer movement.
//
// Parameters:
//   - sensitivity: multiplier for mouse movement
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.sensitivity = sensitivity
	}
}

// WithInvertY flips vertical pointer movement so moving the mouse up looks down.
//
// Parameters:
//   - invert: true to invert the Y axis
//
// Returns:
//   - CameraControllerOption: functional option to set Y inversion
func WithInvertY(invert bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.invertY = invert
	}
}
