package camera

// CameraController turns raw key and pointer events into the per-frame input a Camera consumes.
// Key state is level-triggered: a direction stays active from KeyDown until the matching KeyUp.
// Mouse movement accumulates between frames and is cleared when consumed.
type CameraController interface {
	// KeyDown records a key press. Keys without a binding are ignored.
	//
	// Parameters:
	//   - code: the key code (see common.KeyW and friends)
	KeyDown(code uint32)

	// KeyUp records a key release. Keys without a binding are ignored.
	//
	// Parameters:
	//   - code: the key code
	KeyUp(code uint32)

	// MouseMove adds relative pointer movement, scaled by the controller sensitivity.
	//
	// Parameters:
	//   - dx: horizontal movement in pixels, positive to the right
	//   - dy: vertical movement in pixels, positive downwards
	MouseMove(dx, dy float32)

	// ReleaseAll clears every held direction, e.g. when the window loses focus.
	ReleaseAll()

	// Directions returns the directions currently held.
	//
	// Returns:
	//   - Directions: the held movement keys
	Directions() Directions

	// ConsumeMouseDelta returns the pointer movement accumulated since the last call and resets it.
	//
	// Returns:
	//   - MouseDelta: the accumulated movement
	ConsumeMouseDelta() MouseDelta

	// Bindings returns the key bindings in use.
	//
	// Returns:
	//   - KeyBindings: the current bindings
	Bindings() KeyBindings

	// SetBindings replaces the key bindings and clears held directions.
	//
	// Parameters:
	//   - bindings: the new bindings
	SetBindings(bindings KeyBindings)
}
