// Package animator drives drawable world transforms and skeletal poses over time.
//
// A Motion is a world-transform rule owned by exactly one drawable. Motions keep their own elapsed
// time so two drawables using the same kind of motion never share state. A SkeletalAnimator samples
// animation clips on the CPU and produces the bone palette uploaded for skinned models.
package animator

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MotionType identifies the world-transform rule of a Motion.
type MotionType int

const (
	// MotionTypeStatic keeps the world transform fixed.
	MotionTypeStatic MotionType = iota

	// MotionTypeBob spins about Y while bobbing up and down.
	MotionTypeBob

	// MotionTypeOrbit rotates in place while offset along X and swaying on Y.
	MotionTypeOrbit

	// MotionTypeSpinOrbit spins around Z at a fixed offset, scaled down, using only the frame time.
	MotionTypeSpinOrbit

	// MotionTypeSpin accumulates a rotation about Y onto the current world transform.
	MotionTypeSpin
)

// String returns the readable motion name used in scene files.
func (t MotionType) String() string {
	switch t {
	case MotionTypeStatic:
		return "static"
	case MotionTypeBob:
		return "bob"
	case MotionTypeOrbit:
		return "orbit"
	case MotionTypeSpinOrbit:
		return "spin_orbit"
	case MotionTypeSpin:
		return "spin"
	default:
		return "unknown"
	}
}

// ParseMotionType resolves a motion name from a scene file.
//
// Parameters:
//   - name: the motion name, e.g. "bob"
//
// Returns:
//   - MotionType: the matching type
//   - bool: false when the name is not recognized
func ParseMotionType(name string) (MotionType, bool) {
	for t := MotionTypeStatic; t <= MotionTypeSpin; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return MotionTypeStatic, false
}

// Default parameters of the built-in motions.
const (
	DefaultOrbitRadius float32 = 3
	DefaultSpinRate    float32 = -2

	spinOrbitOffset   float32 = 4
	spinOrbitRollRate float32 = -5
	spinOrbitYawRate  float32 = -1
	spinOrbitScaleXY  float32 = 0.5
	spinOrbitScaleZ   float32 = 0.3
)

// motion is the implementation of the Motion interface.
type motion struct {
	mu *sync.Mutex

	motionType MotionType
	elapsed    float32
	timeScale  float32
	radius     float32
	rate       float32
	placement  mgl32.Mat4
}

// Motion computes a drawable's world transform each frame.
type Motion interface {
	// Type returns the rule the motion applies.
	//
	// Returns:
	//   - MotionType: the motion type
	Type() MotionType

	// Elapsed returns the scaled time accumulated by Update since creation or the last Reset.
	//
	// Returns:
	//   - float32: the elapsed time in seconds
	Elapsed() float32

	// Update advances the motion by deltaTime and returns the new world transform.
	// Motions that accumulate onto the current transform read world; the others ignore it.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	//   - world: the drawable's current world transform
	//
	// Returns:
	//   - mgl32.Mat4: the new world transform
	Update(deltaTime float32, world mgl32.Mat4) mgl32.Mat4

	// Reset sets the elapsed time back to zero.
	Reset()
}

var _ Motion = &motion{}

// NewMotion creates a Motion of the given type with all specified options applied.
//
// Parameters:
//   - motionType: the world-transform rule
//   - options: functional options to configure the motion
//
// Returns:
//   - Motion: the new motion
func NewMotion(motionType MotionType, options ...MotionBuilderOption) Motion {
	m := &motion{
		mu:         &sync.Mutex{},
		motionType: motionType,
		timeScale:  1,
		radius:     DefaultOrbitRadius,
		rate:       DefaultSpinRate,
		placement:  mgl32.Ident4(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Static returns a motion that always yields the placement transform.
func Static(options ...MotionBuilderOption) Motion {
	return NewMotion(MotionTypeStatic, options...)
}

// Bob returns a motion with world = RotY(t) * T(0, sin t, 0).
func Bob(options ...MotionBuilderOption) Motion {
	return NewMotion(MotionTypeBob, options...)
}

// Orbit returns a motion with world = T(radius, cos t, 0) * RotY(t).
//
// Parameters:
//   - radius: the X offset of the motion
//   - options: functional options to configure the motion
//
// Returns:
//   - Motion: the new motion
func Orbit(radius float32, options ...MotionBuilderOption) Motion {
	return NewMotion(MotionTypeOrbit, append([]MotionBuilderOption{WithRadius(radius)}, options...)...)
}

// SpinOrbit returns a motion with world = RotZ(-5dt) * T(4, 0, 0) * RotY(-dt) * S(0.5, 0.5, 0.3).
// Only the current frame time is used, nothing accumulates.
func SpinOrbit(options ...MotionBuilderOption) Motion {
	return NewMotion(MotionTypeSpinOrbit, options...)
}

// Spin returns a motion with world = RotY(rate * dt) * world, accumulating every frame.
func Spin(options ...MotionBuilderOption) Motion {
	return NewMotion(MotionTypeSpin, options...)
}

func (m *motion) Type() MotionType {
	return m.motionType
}

func (m *motion) Elapsed() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

func (m *motion) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elapsed = 0
}

func (m *motion) Update(deltaTime float32, world mgl32.Mat4) mgl32.Mat4 {
	m.mu.Lock()
	defer m.mu.Unlock()

	dt := deltaTime * m.timeScale
	m.elapsed += dt
	t := m.elapsed

	switch m.motionType {
	case MotionTypeBob:
		return m.placement.
			Mul4(mgl32.HomogRotate3DY(t)).
			Mul4(mgl32.Translate3D(0, math32.Sin(t), 0))
	case MotionTypeOrbit:
		return m.placement.
			Mul4(mgl32.Translate3D(m.radius, math32.Cos(t), 0)).
			Mul4(mgl32.HomogRotate3DY(t))
	case MotionTypeSpinOrbit:
		return m.placement.
			Mul4(mgl32.HomogRotate3DZ(spinOrbitRollRate * dt)).
			Mul4(mgl32.Translate3D(spinOrbitOffset, 0, 0)).
			Mul4(mgl32.HomogRotate3DY(spinOrbitYawRate * dt)).
			Mul4(mgl32.Scale3D(spinOrbitScaleXY, spinOrbitScaleXY, spinOrbitScaleZ))
	case MotionTypeSpin:
		return mgl32.HomogRotate3DY(m.rate * dt).Mul4(world)
	default:
		return m.placement
	}
}
