package light

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// NumLights is the number of point light slots a scene owns. The lights uniform block
// declares arrays of exactly this length.
const NumLights = 2

// pointLightImpl is the implementation of the PointLight interface.
type pointLightImpl struct {
	mu *sync.Mutex

	position mgl32.Vec4
	color    mgl32.Vec4

	orbitRadius float32
	orbitSpeed  float32
}

// PointLight is a light that emits in all directions from a position.
// Each light carries its own Update rule: a static light never moves, an orbiting light
// rotates its position about the world Y axis.
type PointLight interface {
	// Position returns the world-space position of the light, w = 1.
	//
	// Returns:
	//   - mgl32.Vec4: the position
	Position() mgl32.Vec4

	// Color returns the RGBA color of the light.
	//
	// Returns:
	//   - mgl32.Vec4: the color
	Color() mgl32.Vec4

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetColor sets the RGBA color of the light.
	//
	// Parameters:
	//   - r, g, b, a: color components
	SetColor(r, g, b, a float32)

	// Orbiting reports whether the light moves on Update.
	//
	// Returns:
	//   - bool: true if the light orbits the Y axis
	Orbiting() bool

	// Update advances the light's motion rule by deltaTime seconds.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	Update(deltaTime float32)
}

var _ PointLight = &pointLightImpl{}

// NewPointLight creates a white, static PointLight at the origin with all specified options applied.
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - PointLight: the newly created light
func NewPointLight(options ...LightBuilderOption) PointLight {
	l := &pointLightImpl{
		mu:       &sync.Mutex{},
		position: mgl32.Vec4{0, 0, 0, 1},
		color:    mgl32.Vec4{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(l)
	}
	if l.orbitRadius > 0 {
		l.placeOnOrbit()
	}
	return l
}

func (l *pointLightImpl) Position() mgl32.Vec4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *pointLightImpl) Color() mgl32.Vec4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *pointLightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = mgl32.Vec4{x, y, z, 1}
}

func (l *pointLightImpl) SetColor(r, g, b, a float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = mgl32.Vec4{r, g, b, a}
}

func (l *pointLightImpl) Orbiting() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.orbitSpeed != 0
}

func (l *pointLightImpl) Update(deltaTime float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.orbitSpeed == 0 {
		return
	}
	l.position = mgl32.HomogRotate3DY(l.orbitSpeed * deltaTime).Mul4x1(l.position)
	l.position[3] = 1
}

// placeOnOrbit scales the horizontal offset of the position to the orbit radius,
// keeping its height and bearing. A position on the Y axis is moved onto +X.
func (l *pointLightImpl) placeOnOrbit() {
	xz := mgl32.Vec2{l.position[0], l.position[2]}
	if xz.Len() < 1e-6 {
		xz = mgl32.Vec2{1, 0}
	}
	xz = xz.Normalize().Mul(l.orbitRadius)
	l.position[0] = xz[0]
	l.position[2] = xz[1]
}
