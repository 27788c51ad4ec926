package window

import (
	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
)

const keyEscape = common.KeyEsc

// cursorTracker turns absolute cursor positions into relative movement.
type cursorTracker struct {
	x, y   float64
	primed bool
}

// move records a cursor position and returns the movement since the previous one.
// The first position after a reset only primes the tracker.
func (c *cursorTracker) move(x, y float64) (dx, dy float32, ok bool) {
	if !c.primed {
		c.x, c.y, c.primed = x, y, true
		return 0, 0, false
	}
	dx, dy = float32(x-c.x), float32(y-c.y)
	c.x, c.y = x, y
	return dx, dy, true
}

func (c *cursorTracker) reset() {
	c.primed = false
}

// BindCameraController routes the window's key, pointer and focus events into a camera
// controller. Losing focus releases every held direction so no key stays stuck down.
//
// Parameters:
//   - w: the window producing events
//   - cc: the controller receiving them
func BindCameraController(w Window, cc camera.CameraController) {
	w.SetKeyDownCallback(cc.KeyDown)
	w.SetKeyUpCallback(cc.KeyUp)
	w.SetMouseMoveCallback(func(dx, dy float32) {
		if w.CursorCaptured() {
			cc.MouseMove(dx, dy)
		}
	})
	w.SetFocusCallback(func(focused bool) {
		if !focused {
			cc.ReleaseAll()
		}
	})
}
