package animator

import "github.com/go-gl/mathgl/mgl32"

// MotionBuilderOption is a functional option for configuring a Motion during construction.
type MotionBuilderOption func(*motion)

// WithTimeScale is an option builder that multiplies every frame time fed to the motion.
//
// Parameters:
//   - scale: the time multiplier (1 = real time)
//
// Returns:
//   - MotionBuilderOption: a function that applies the time scale option to a motion
func WithTimeScale(scale float32) MotionBuilderOption {
	return func(m *motion) {
		m.timeScale = scale
	}
}

// WithRadius is an option builder that sets the X offset used by orbit motions.
//
// Parameters:
//   - radius: the offset distance
//
// Returns:
//   - MotionBuilderOption: a function that applies the radius option to a motion
func WithRadius(radius float32) MotionBuilderOption {
	return func(m *motion) {
		m.radius = radius
	}
}

// WithSpinRate is an option builder that sets the radians per second turned by spin motions.
//
// Parameters:
//   - rate: the angular rate about Y
//
// Returns:
//   - MotionBuilderOption: a function that applies the spin rate option to a motion
func WithSpinRate(rate float32) MotionBuilderOption {
	return func(m *motion) {
		m.rate = rate
	}
}

// WithPlacement is an option builder that sets a transform applied on top of the motion's own
// transform, so several drawables can run the same rule at different spots. Static motions
// return the placement unchanged.
//
// Parameters:
//   - placement: the outer transform
//
// Returns:
//   - MotionBuilderOption: a function that applies the placement option to a motion
func WithPlacement(placement mgl32.Mat4) MotionBuilderOption {
	return func(m *motion) {
		m.placement = placement
	}
}
