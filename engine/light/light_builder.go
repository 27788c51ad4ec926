package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a PointLight during construction.
type LightBuilderOption func(*pointLightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a light
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *pointLightImpl) {
		l.position = mgl32.Vec4{x, y, z, 1}
	}
}

// WithColor is an option builder that sets the RGBA color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//   - a: the alpha component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a light
func WithColor(r, g, b, a float32) LightBuilderOption {
	return func(l *pointLightImpl) {
		l.color = mgl32.Vec4{r, g, b, a}
	}
}

// WithOrbit is an option builder that makes the light rotate about the world Y axis.
// A positive radius moves the light's horizontal offset onto a circle of that radius;
// zero keeps the configured position. Negative speeds orbit clockwise seen from above.
//
// Parameters:
//   - radius: distance from the Y axis, or 0 to keep the position as given
//   - speed: angular speed in radians per second
//
// Returns:
//   - LightBuilderOption: a function that applies the orbit option to a light
func WithOrbit(radius, speed float32) LightBuilderOption {
	return func(l *pointLightImpl) {
		l.orbitRadius = radius
		l.orbitSpeed = speed
	}
}
