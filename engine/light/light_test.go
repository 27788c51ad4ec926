package light

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticLightDoesNotMove(t *testing.T) {
	l := NewPointLight(WithPosition(1, 2, 3), WithColor(0.5, 0.5, 0.5, 1))
	l.Update(10)

	assert.Equal(t, mgl32.Vec4{1, 2, 3, 1}, l.Position())
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 1}, l.Color())
	assert.False(t, l.Orbiting())
}

func TestOrbitingLightRotatesAboutY(t *testing.T) {
	l := NewPointLight(WithPosition(0, 5, 0), WithOrbit(2, math32.Pi/2))
	require.True(t, l.Orbiting())
	assert.InDelta(t, 2, l.Position()[0], 1e-5)

	l.Update(1)
	p := l.Position()
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 5, p[1], 1e-5)
	assert.InDelta(t, -2, p[2], 1e-5)
	assert.Equal(t, float32(1), p[3])

	// radius is preserved over many steps
	for range 100 {
		l.Update(0.016)
	}
	p = l.Position()
	assert.InDelta(t, 2, mgl32.Vec2{p[0], p[2]}.Len(), 1e-3)
}

func TestLightsUniformZeroFillsEmptySlots(t *testing.T) {
	var slots [NumLights]PointLight
	slots[1] = NewPointLight(WithPosition(1, 1, 1), WithColor(1, 0, 0, 1))

	u := NewGPULightsUniform(slots)
	assert.Equal(t, mgl32.Vec4{}, u.Positions[0])
	assert.Equal(t, mgl32.Vec4{}, u.Colors[0])
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, u.Positions[1])
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, u.Colors[1])

	buf := u.Marshal()
	require.Len(t, buf, NumLights*32)
	assert.Equal(t, make([]byte, 16), buf[:16])
}
