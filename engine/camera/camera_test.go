package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range 3 {
		assert.InDeltaf(t, want[i], got[i], 1e-4, "component %d of %v", i, got)
	}
}

func TestNewCameraHonoursPosition(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 1, -5})

	assertVec3(t, mgl32.Vec3{0, 1, -5}, c.Eye())
	assertVec3(t, mgl32.Vec3{0, 1, -4}, c.At())
	assert.Equal(t, DefaultTravelSpeed, c.TravelSpeed())
	assert.Equal(t, DefaultRotationSpeed, c.RotationSpeed())

	// the origin of the look direction lands straight ahead in view space
	p := common.TransformCoord(mgl32.Vec3{0, 1, 0}, c.View())
	assertVec3(t, mgl32.Vec3{0, 0, 5}, p)
}

func TestPitchClampHoldsUnderExtremeInput(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, WithRotationSpeed(1))

	for range 50 {
		c.HandleInput(Directions{}, MouseDelta{Y: 1e6}, 0.016)
		assert.LessOrEqual(t, c.Pitch(), MaxPitch)
		assert.GreaterOrEqual(t, c.Pitch(), -MaxPitch)
	}
	assert.Equal(t, MaxPitch, c.Pitch())

	for range 50 {
		c.HandleInput(Directions{}, MouseDelta{Y: -1e6}, 0.016)
		assert.GreaterOrEqual(t, c.Pitch(), -MaxPitch)
	}
	assert.Equal(t, -MaxPitch, c.Pitch())

	v := c.View()
	for i, f := range v {
		assert.Falsef(t, math32.IsNaN(f), "view[%d] is NaN", i)
	}
}

func TestAccumulatorsResetAfterUpdate(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, WithTravelSpeed(2))

	c.HandleInput(Directions{Front: true, Right: true, Up: true}, MouseDelta{}, 0.5)
	lr, bf, ud := c.Movement()
	assert.Zero(t, lr)
	assert.Zero(t, bf)
	assert.Zero(t, ud)
	assertVec3(t, mgl32.Vec3{1, 1, 1}, c.Eye())

	c.Update(0.016)
	assertVec3(t, mgl32.Vec3{1, 1, 1}, c.Eye())
}

func TestOpposingDirectionsCancel(t *testing.T) {
	c := NewCamera(mgl32.Vec3{3, 0, 0}, WithTravelSpeed(1))
	c.HandleInput(Directions{Front: true, Back: true, Left: true, Right: true, Up: true, Down: true}, MouseDelta{}, 1)
	assertVec3(t, mgl32.Vec3{3, 0, 0}, c.Eye())
}

func TestMovementFollowsYaw(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, WithTravelSpeed(1), WithOrientation(math32.Pi/2, 0))

	assertVec3(t, mgl32.Vec3{1, 0, 0}, c.Forward())
	assertVec3(t, mgl32.Vec3{0, 0, -1}, c.Right())

	c.HandleInput(Directions{Front: true}, MouseDelta{}, 1)
	assertVec3(t, mgl32.Vec3{1, 0, 0}, c.Eye())
	assertVec3(t, mgl32.Vec3{2, 0, 0}, c.At())
}

func TestPitchDoesNotTiltMovement(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, WithTravelSpeed(1), WithOrientation(0, 1))
	c.HandleInput(Directions{Front: true}, MouseDelta{}, 1)
	assertVec3(t, mgl32.Vec3{0, 0, 1}, c.Eye())
	assert.Less(t, c.At()[1], float32(0))
}

func TestUniformCarriesViewAndEye(t *testing.T) {
	c := NewCamera(mgl32.Vec3{1, 2, 3})
	u := c.Uniform()
	assert.Equal(t, c.View(), u.View)
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 1}, u.Position)
	require.Len(t, u.Marshal(), 80)
	assert.Equal(t, 64, (&GPUProjectionUniform{}).Size())
}

func TestCameraControllerDirections(t *testing.T) {
	cc := NewCameraController()

	cc.KeyDown(common.KeyW)
	cc.KeyDown(common.KeySpace)
	cc.KeyDown(common.KeyQ)
	assert.Equal(t, Directions{Front: true, Up: true}, cc.Directions())

	cc.KeyUp(common.KeyW)
	assert.Equal(t, Directions{Up: true}, cc.Directions())
	assert.True(t, cc.Directions().Any())

	cc.ReleaseAll()
	assert.False(t, cc.Directions().Any())
}

func TestCameraControllerMouseIsConsumedOnce(t *testing.T) {
	cc := NewCameraController(WithMouseSensitivity(2), WithInvertY(true))

	cc.MouseMove(1, 1)
	cc.MouseMove(2, 3)
	assert.Equal(t, MouseDelta{X: 6, Y: -8}, cc.ConsumeMouseDelta())
	assert.Equal(t, MouseDelta{}, cc.ConsumeMouseDelta())
}

func TestCameraControllerRebinding(t *testing.T) {
	cc := NewCameraController()
	cc.KeyDown(common.KeyW)

	b := DefaultKeyBindings()
	b.Front = common.KeyUp
	cc.SetBindings(b)
	assert.False(t, cc.Directions().Front)

	cc.KeyDown(common.KeyW)
	assert.False(t, cc.Directions().Front)
	cc.KeyDown(common.KeyUp)
	assert.True(t, cc.Directions().Front)
	assert.Equal(t, b, cc.Bindings())
}
