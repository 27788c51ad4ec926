package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineWindowOptions(t *testing.T) {
	w := newEngineWindow(
		WithTitle("demo"),
		WithSize(640, 480),
		WithMinSize(100, 100),
		WithMaxSize(1000, 900),
		WithCursorCaptured(false),
		WithCloseOnEscape(false),
	)

	assert.Equal(t, "demo", w.title)
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 480, w.Height())
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 900, w.maxHeight)
	assert.False(t, w.CursorCaptured())
	assert.False(t, w.closeOnEscape)
	assert.False(t, w.IsRunning(), "no platform window was created")
	assert.False(t, w.PollEvents())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}

func TestCursorTracker(t *testing.T) {
	var c cursorTracker

	_, _, ok := c.move(100, 100)
	assert.False(t, ok, "the first position only primes")

	dx, dy, ok := c.move(110, 95)
	require.True(t, ok)
	assert.Equal(t, float32(10), dx)
	assert.Equal(t, float32(-5), dy)

	c.reset()
	_, _, ok = c.move(500, 500)
	assert.False(t, ok)
}

func TestKeyEvents(t *testing.T) {
	w := newEngineWindow()
	var down, up []uint32
	w.SetKeyDownCallback(func(code uint32) { down = append(down, code) })
	w.SetKeyUpCallback(func(code uint32) { up = append(up, code) })

	assert.False(t, w.keyEvent(common.KeyW, true))
	assert.False(t, w.keyEvent(common.KeyW, false))
	assert.True(t, w.keyEvent(common.KeyEsc, true))

	assert.Equal(t, []uint32{common.KeyW}, down)
	assert.Equal(t, []uint32{common.KeyW}, up)

	w.closeOnEscape = false
	assert.False(t, w.keyEvent(common.KeyEsc, true))
	assert.Equal(t, []uint32{common.KeyW, common.KeyEsc}, down)
}

func TestCursorAndFocusEvents(t *testing.T) {
	w := newEngineWindow()
	var moves [][2]float32
	var focus []bool
	w.SetMouseMoveCallback(func(dx, dy float32) { moves = append(moves, [2]float32{dx, dy}) })
	w.SetFocusCallback(func(focused bool) { focus = append(focus, focused) })

	w.cursorEvent(10, 10)
	w.cursorEvent(13, 14)
	w.focusEvent(false)
	w.cursorEvent(200, 200)
	w.cursorEvent(201, 200)

	assert.Equal(t, [][2]float32{{3, 4}, {1, 0}}, moves)
	assert.Equal(t, []bool{false}, focus)
}

func TestResizeEvent(t *testing.T) {
	w := newEngineWindow()
	var got [2]int
	w.SetResizeCallback(func(width, height int) { got = [2]int{width, height} })

	w.resizeEvent(1024, 768)

	assert.Equal(t, [2]int{1024, 768}, got)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
}

func TestBindCameraController(t *testing.T) {
	w := newEngineWindow()
	cc := camera.NewCameraController()
	BindCameraController(w, cc)

	w.keyEvent(common.KeyW, true)
	w.keyEvent(common.KeySpace, true)
	assert.Equal(t, camera.Directions{Front: true, Up: true}, cc.Directions())

	w.cursorEvent(0, 0)
	w.cursorEvent(4, -2)
	assert.Equal(t, camera.MouseDelta{X: 4, Y: -2}, cc.ConsumeMouseDelta())

	w.focusEvent(false)
	assert.Equal(t, camera.Directions{}, cc.Directions())

	w.SetCursorCaptured(false)
	w.cursorEvent(0, 0)
	w.cursorEvent(50, 50)
	assert.Equal(t, camera.MouseDelta{}, cc.ConsumeMouseDelta(), "a free cursor does not look around")
}
