package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func TestPerspectiveFovLHMapsNearAndFarToUnitDepth(t *testing.T) {
	p := PerspectiveFovLH(math32.Pi/2, 4.0/3.0, 0.01, 100)

	near := p.Mul4x1(mgl32.Vec4{0, 0, 0.01, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, 100, 1})

	assert.InDelta(t, 0, near[2]/near[3], tol)
	assert.InDelta(t, 1, far[2]/far[3], tol)
	// fov of 90 degrees gives a y scale of 1
	assert.InDelta(t, 1, p[5], tol)
	assert.InDelta(t, 0.75, p[0], tol)
}

func TestLookAtLHPlacesTargetOnPositiveZ(t *testing.T) {
	eye := mgl32.Vec3{0, 1, -10}
	view := LookAtLH(eye, mgl32.Vec3{0, 1, 0}, DefaultUp, DefaultRight)

	target := view.Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 0, target[0], tol)
	assert.InDelta(t, 0, target[1], tol)
	assert.InDelta(t, 10, target[2], tol)

	origin := view.Mul4x1(eye.Vec4(1))
	assert.InDelta(t, 0, origin.Vec3().Len(), tol)
}

func TestLookAtLHDegenerateUpStaysFinite(t *testing.T) {
	view := LookAtLH(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, DefaultUp, DefaultRight)
	for i, v := range view {
		require.Falsef(t, math32.IsNaN(v), "element %d is NaN", i)
	}
}

func TestTransformCoordDividesByW(t *testing.T) {
	m := mgl32.Ident4()
	m[15] = 2
	got := TransformCoord(mgl32.Vec3{2, 4, 6}, m)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, got)
}

func TestClampFloat(t *testing.T) {
	assert.Equal(t, float32(-1), ClampFloat(-5, -1, 1))
	assert.Equal(t, float32(1), ClampFloat(5, -1, 1))
	assert.Equal(t, float32(0.5), ClampFloat(0.5, -1, 1))
}

func TestKeyCodeByName(t *testing.T) {
	code, ok := KeyCodeByName(" Left_Shift ")
	require.True(t, ok)
	assert.Equal(t, uint32(KeyLeftShift), code)

	_, ok = KeyCodeByName("hyper")
	assert.False(t, ok)
}
