package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
)

// KeyBindings maps each movement direction to a key code.
type KeyBindings struct {
	Front uint32
	Back  uint32
	Left  uint32
	Right uint32
	Up    uint32
	Down  uint32
}

// DefaultKeyBindings returns W/S/A/D for planar movement, Space for up and Left Shift for down.
//
// Returns:
//   - KeyBindings: the default bindings
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Front: common.KeyW,
		Back:  common.KeyS,
		Left:  common.KeyA,
		Right: common.KeyD,
		Up:    common.KeySpace,
		Down:  common.KeyLeftShift,
	}
}

type cameraControllerImpl struct {
	mu *sync.Mutex

	bindings    KeyBindings
	directions  Directions
	mouse       MouseDelta
	sensitivity float32
	invertY     bool
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a CameraController with the default key bindings and unit sensitivity.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		bindings:    DefaultKeyBindings(),
		sensitivity: 1,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) KeyDown(code uint32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.setKey(code, true)
}

func (cc *cameraControllerImpl) KeyUp(code uint32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.setKey(code, false)
}

func (cc *cameraControllerImpl) MouseMove(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.invertY {
		dy = -dy
	}
	cc.mouse.X += dx * cc.sensitivity
	cc.mouse.Y += dy * cc.sensitivity
}

func (cc *cameraControllerImpl) ReleaseAll() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.directions = Directions{}
}

func (cc *cameraControllerImpl) Directions() Directions {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.directions
}

func (cc *cameraControllerImpl) ConsumeMouseDelta() MouseDelta {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	d := cc.mouse
	cc.mouse = MouseDelta{}
	return d
}

func (cc *cameraControllerImpl) Bindings() KeyBindings {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.bindings
}

func (cc *cameraControllerImpl) SetBindings(bindings KeyBindings) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.bindings = bindings
	cc.directions = Directions{}
}

// setKey flips every direction bound to code. Caller must hold the mutex.
func (cc *cameraControllerImpl) setKey(code uint32, down bool) {
	b := cc.bindings
	if code == b.Front {
		cc.directions.Front = down
	}
	if code == b.Back {
		cc.directions.Back = down
	}
	if code == b.Left {
		cc.directions.Left = down
	}
	if code == b.Right {
		cc.directions.Right = down
	}
	if code == b.Up {
		cc.directions.Up = down
	}
	if code == b.Down {
		cc.directions.Down = down
	}
}
