package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultTravelSpeed is the distance moved per second of held movement key.
	DefaultTravelSpeed float32 = 0.0005

	// DefaultRotationSpeed is the radians turned per pixel of mouse movement per second.
	DefaultRotationSpeed float32 = 0.001

	// MaxPitch is the hard limit on the absolute pitch angle.
	MaxPitch float32 = math32.Pi / 2
)

// Directions is the set of movement keys held during a frame.
type Directions struct {
	Front bool
	Back  bool
	Left  bool
	Right bool
	Up    bool
	Down  bool
}

// Any reports whether at least one direction is active.
func (d Directions) Any() bool {
	return d.Front || d.Back || d.Left || d.Right || d.Up || d.Down
}

// MouseDelta is the relative pointer movement accumulated since the last frame.
type MouseDelta struct {
	X float32
	Y float32
}

type cameraImpl struct {
	mu *sync.Mutex

	yaw   float32
	pitch float32

	moveLeftRight   float32
	moveBackForward float32
	moveUpDown      float32

	travelSpeed   float32
	rotationSpeed float32

	cameraForward mgl32.Vec3
	cameraRight   mgl32.Vec3
	cameraUp      mgl32.Vec3

	eye mgl32.Vec3
	at  mgl32.Vec3
	up  mgl32.Vec3

	view mgl32.Mat4
}

// Camera is a first-person view-state machine. Input accumulates into movement
// and orientation state, and every Update consumes the accumulated movement and
// rebuilds the left-handed view matrix.
type Camera interface {
	// HandleInput applies one frame of input and then updates the camera.
	// Mouse movement is scaled by the rotation speed and deltaTime and added to yaw and pitch;
	// pitch is clamped to [-MaxPitch, MaxPitch]. Each held direction moves the matching
	// accumulator by travelSpeed * deltaTime.
	//
	// Parameters:
	//   - directions: the movement keys held this frame
	//   - mouse: the relative mouse movement since the last frame
	//   - deltaTime: the frame time in seconds
	HandleInput(directions Directions, mouse MouseDelta, deltaTime float32)

	// Update consumes the movement accumulators, moves the eye along the yaw-aligned basis and
	// recomputes the at point and view matrix. All accumulators are zero afterwards.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	Update(deltaTime float32)

	// Eye returns the world-space camera position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Eye() mgl32.Vec3

	// At returns the point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the look-at point
	At() mgl32.Vec3

	// Up returns the world up vector used for the look-at construction.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Forward returns the yaw-aligned forward movement direction.
	//
	// Returns:
	//   - mgl32.Vec3: the forward direction
	Forward() mgl32.Vec3

	// Right returns the yaw-aligned right movement direction.
	//
	// Returns:
	//   - mgl32.Vec3: the right direction
	Right() mgl32.Vec3

	// Yaw returns the rotation about the world Y axis in radians.
	Yaw() float32

	// Pitch returns the rotation about the camera X axis in radians.
	Pitch() float32

	// Movement returns the pending movement accumulators.
	//
	// Returns:
	//   - leftRight: pending movement along the right axis
	//   - backForward: pending movement along the forward axis
	//   - upDown: pending movement along the up axis
	Movement() (leftRight, backForward, upDown float32)

	// TravelSpeed returns the movement speed scalar.
	TravelSpeed() float32

	// RotationSpeed returns the mouse rotation speed scalar.
	RotationSpeed() float32

	// View returns the current view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// Uniform builds the per-frame camera uniform block from the current state.
	//
	// Returns:
	//   - GPUCameraUniform: the view matrix and eye position
	Uniform() GPUCameraUniform
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera at the given eye position looking down +Z.
//
// Parameters:
//   - position: the initial eye position
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(position mgl32.Vec3, options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:            &sync.Mutex{},
		travelSpeed:   DefaultTravelSpeed,
		rotationSpeed: DefaultRotationSpeed,
		cameraForward: common.DefaultForward,
		cameraRight:   common.DefaultRight,
		cameraUp:      common.DefaultUp,
		eye:           position,
		at:            position.Add(common.DefaultForward),
		up:            common.DefaultUp,
	}
	for _, option := range options {
		option(c)
	}
	c.update()
	return c
}

func (c *cameraImpl) HandleInput(directions Directions, mouse MouseDelta, deltaTime float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	moveSpeed := c.travelSpeed * deltaTime

	c.yaw += mouse.X * c.rotationSpeed * deltaTime
	c.pitch = common.ClampFloat(c.pitch+mouse.Y*c.rotationSpeed*deltaTime, -MaxPitch, MaxPitch)

	if directions.Front {
		c.moveBackForward += moveSpeed
	}
	if directions.Back {
		c.moveBackForward -= moveSpeed
	}
	if directions.Right {
		c.moveLeftRight += moveSpeed
	}
	if directions.Left {
		c.moveLeftRight -= moveSpeed
	}
	if directions.Up {
		c.moveUpDown += moveSpeed
	}
	if directions.Down {
		c.moveUpDown -= moveSpeed
	}

	c.update()
}

func (c *cameraImpl) Update(deltaTime float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update()
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) At() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameraForward
}

func (c *cameraImpl) Right() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameraRight
}

func (c *cameraImpl) Yaw() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw
}

func (c *cameraImpl) Pitch() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pitch
}

func (c *cameraImpl) Movement() (leftRight, backForward, upDown float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moveLeftRight, c.moveBackForward, c.moveUpDown
}

func (c *cameraImpl) TravelSpeed() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.travelSpeed
}

func (c *cameraImpl) RotationSpeed() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotationSpeed
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		View:     c.view,
		Position: c.eye.Vec4(1),
	}
}

// update rebuilds the orientation basis, applies and clears the movement accumulators and
// recomputes the view matrix. Caller must hold the mutex.
func (c *cameraImpl) update() {
	rotation := mgl32.HomogRotate3DY(c.yaw).Mul4(mgl32.HomogRotate3DX(c.pitch))
	lookDir := common.TransformCoord(common.DefaultForward, rotation).Normalize()

	rotateY := mgl32.HomogRotate3DY(c.yaw)
	c.cameraRight = common.TransformCoord(common.DefaultRight, rotateY)
	c.cameraUp = common.TransformCoord(c.cameraUp, rotateY)
	c.cameraForward = common.TransformCoord(common.DefaultForward, rotateY)

	c.eye = c.eye.
		Add(c.cameraRight.Mul(c.moveLeftRight)).
		Add(c.cameraForward.Mul(c.moveBackForward)).
		Add(c.cameraUp.Mul(c.moveUpDown))

	c.moveLeftRight = 0
	c.moveBackForward = 0
	c.moveUpDown = 0

	c.at = c.eye.Add(lookDir)
	c.view = common.LookAtLH(c.eye, c.at, c.up, c.cameraRight)
}
