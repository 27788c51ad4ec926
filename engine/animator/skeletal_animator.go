package animator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoSkeleton is returned when a skeletal animator is created without a skeleton.
	ErrNoSkeleton = errors.New("skeletal animator requires a skeleton")

	// ErrTooManyBones is returned when a skeleton does not fit the skinning uniform block.
	ErrTooManyBones = errors.New("skeleton exceeds the maximum bone count")

	// ErrBoneOrder is returned when a bone appears before its parent.
	ErrBoneOrder = errors.New("skeleton bones must follow their parents")

	// ErrUnknownClip is returned when a clip index is out of range.
	ErrUnknownClip = errors.New("unknown animation clip")
)

// playbackState is the playback position of the primary clip and of a pending blend target.
type playbackState struct {
	clipIndex int

	time, speed                 float32
	loop, blending              bool
	blendTo                     int
	blendToTime                 float32
	blendDuration, blendElapsed float32
}

// skeletalAnimator is the implementation of the SkeletalAnimator interface.
type skeletalAnimator struct {
	mu *sync.Mutex

	skeleton *model.Skeleton
	clips    []*model.AnimationClip
	state    playbackState

	// scratch buffers reused every Update
	primary, secondary []model.Transform
	global             []mgl32.Mat4
	bones              []mgl32.Mat4
}

// SkeletalAnimator plays animation clips on one skeleton and produces the bone palette for the
// skinning uniform block. Sampling runs on the CPU once per Update: keyframes are interpolated
// (lerp for translation and scale, slerp for rotation), the hierarchy is composed parent first
// and each global transform is multiplied by the bone's inverse bind matrix.
type SkeletalAnimator interface {
	// Skeleton returns the animated skeleton.
	//
	// Returns:
	//   - *model.Skeleton: the skeleton
	Skeleton() *model.Skeleton

	// Clips returns the animation clips available to Play and BlendTo.
	//
	// Returns:
	//   - []*model.AnimationClip: the clips
	Clips() []*model.AnimationClip

	// Play starts a clip from time zero and cancels any blend in progress.
	//
	// Parameters:
	//   - clipIndex: the clip to play
	//   - loop: whether playback wraps at the end of the clip
	//
	// Returns:
	//   - error: ErrUnknownClip if the index is out of range
	Play(clipIndex int, loop bool) error

	// BlendTo cross-fades from the current clip to another over blendDuration seconds.
	// A non-positive duration switches immediately.
	//
	// Parameters:
	//   - clipIndex: the clip to blend to
	//   - blendDuration: the transition time in seconds
	//
	// Returns:
	//   - error: ErrUnknownClip if the index is out of range
	BlendTo(clipIndex int, blendDuration float32) error

	// CancelBlend stops an in-progress blend and keeps the current clip.
	CancelBlend()

	// IsBlending reports whether a blend is in progress.
	//
	// Returns:
	//   - bool: true while blending
	IsBlending() bool

	// BlendProgress returns the blend progress from 0 to 1, or 0 when not blending.
	//
	// Returns:
	//   - float32: the blend progress
	BlendProgress() float32

	// Clip returns the index of the clip playing, -1 when showing the bind pose.
	//
	// Returns:
	//   - int: the clip index
	Clip() int

	// Time returns the playback position of the current clip in seconds.
	//
	// Returns:
	//   - float32: the playback time
	Time() float32

	// SetTime sets the playback position of the current clip.
	//
	// Parameters:
	//   - time: the playback position in seconds
	SetTime(time float32)

	// SetSpeed sets the playback speed multiplier.
	//
	// Parameters:
	//   - speed: the multiplier (1 = normal speed)
	SetSpeed(speed float32)

	// Update advances playback by deltaTime and recomputes the bone palette.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	Update(deltaTime float32)

	// BoneMatrices returns the bone palette computed by the last Update, one matrix per bone.
	//
	// Returns:
	//   - []mgl32.Mat4: the skinning matrices
	BoneMatrices() []mgl32.Mat4

	// Uniform returns the bone palette as a skinning uniform block.
	//
	// Returns:
	//   - model.GPUSkinningUniform: the uniform block, identity past the last bone
	Uniform() model.GPUSkinningUniform
}

var _ SkeletalAnimator = &skeletalAnimator{}

// NewSkeletalAnimator creates a SkeletalAnimator showing the bind pose.
//
// Parameters:
//   - skeleton: the bone hierarchy, parents before children
//   - clips: the animation clips that can be played
//   - options: functional options to configure playback
//
// Returns:
//   - SkeletalAnimator: the new animator
//   - error: an error if the skeleton is missing, too large or badly ordered
func NewSkeletalAnimator(skeleton *model.Skeleton, clips []*model.AnimationClip, options ...SkeletalAnimatorBuilderOption) (SkeletalAnimator, error) {
	if skeleton == nil {
		return nil, ErrNoSkeleton
	}
	count := len(skeleton.Bones)
	if count > model.MaxBoneCount {
		return nil, fmt.Errorf("%w: %d bones, limit %d", ErrTooManyBones, count, model.MaxBoneCount)
	}
	for i, b := range skeleton.Bones {
		if b.ParentIndex >= int32(i) {
			return nil, fmt.Errorf("%w: bone %d (%s) has parent %d", ErrBoneOrder, i, b.Name, b.ParentIndex)
		}
	}

	a := &skeletalAnimator{
		mu:        &sync.Mutex{},
		skeleton:  skeleton,
		clips:     clips,
		state:     playbackState{clipIndex: -1, speed: 1},
		primary:   make([]model.Transform, count),
		secondary: make([]model.Transform, count),
		global:    make([]mgl32.Mat4, count),
		bones:     make([]mgl32.Mat4, count),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.state.clipIndex >= len(a.clips) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownClip, a.state.clipIndex)
	}
	a.compute()
	return a, nil
}

func (a *skeletalAnimator) Skeleton() *model.Skeleton {
	return a.skeleton
}

func (a *skeletalAnimator) Clips() []*model.AnimationClip {
	return a.clips
}

func (a *skeletalAnimator) Play(clipIndex int, loop bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.play(clipIndex, loop)
}

func (a *skeletalAnimator) play(clipIndex int, loop bool) error {
	if clipIndex < 0 || clipIndex >= len(a.clips) {
		return fmt.Errorf("%w: %d", ErrUnknownClip, clipIndex)
	}
	a.state = playbackState{
		clipIndex: clipIndex,
		speed:     a.state.speed,
		loop:      loop,
	}
	return nil
}

func (a *skeletalAnimator) BlendTo(clipIndex int, blendDuration float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if clipIndex < 0 || clipIndex >= len(a.clips) {
		return fmt.Errorf("%w: %d", ErrUnknownClip, clipIndex)
	}
	if blendDuration <= 0 || a.state.clipIndex < 0 {
		return a.play(clipIndex, a.state.loop || a.state.clipIndex < 0)
	}
	a.state.blending = true
	a.state.blendTo = clipIndex
	a.state.blendToTime = 0
	a.state.blendDuration = blendDuration
	a.state.blendElapsed = 0
	return nil
}

func (a *skeletalAnimator) CancelBlend() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.blending = false
	a.state.blendElapsed = 0
}

func (a *skeletalAnimator) IsBlending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.blending
}

func (a *skeletalAnimator) BlendProgress() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.blending {
		return 0
	}
	return common.ClampFloat(a.state.blendElapsed/a.state.blendDuration, 0, 1)
}

func (a *skeletalAnimator) Clip() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.clipIndex
}

func (a *skeletalAnimator) Time() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.time
}

func (a *skeletalAnimator) SetTime(time float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.time = a.wrap(a.state.clipIndex, time, a.state.loop)
}

func (a *skeletalAnimator) SetSpeed(speed float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.speed = speed
}

func (a *skeletalAnimator) Update(deltaTime float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &a.state
	if s.clipIndex >= 0 {
		s.time = a.wrap(s.clipIndex, s.time+deltaTime*s.speed, s.loop)
	}
	if s.blending {
		s.blendElapsed += deltaTime
		s.blendToTime = a.wrap(s.blendTo, s.blendToTime+deltaTime*s.speed, s.loop)
		if s.blendElapsed >= s.blendDuration {
			s.clipIndex = s.blendTo
			s.time = s.blendToTime
			s.blending = false
			s.blendElapsed = 0
		}
	}
	a.compute()
}

func (a *skeletalAnimator) BoneMatrices() []mgl32.Mat4 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]mgl32.Mat4(nil), a.bones...)
}

func (a *skeletalAnimator) Uniform() model.GPUSkinningUniform {
	a.mu.Lock()
	defer a.mu.Unlock()
	var u model.GPUSkinningUniform
	copy(u.Bones[:], a.bones)
	return u
}

// wrap applies looping or clamping to a playback time. Caller must hold the mutex.
func (a *skeletalAnimator) wrap(clipIndex int, t float32, loop bool) float32 {
	if clipIndex < 0 || clipIndex >= len(a.clips) {
		return t
	}
	duration := a.clips[clipIndex].Duration
	if duration <= 0 {
		return 0
	}
	if t < 0 {
		t = 0
	}
	if t > duration {
		if loop {
			return math32.Mod(t, duration)
		}
		return duration
	}
	return t
}

// compute samples the active clips and rebuilds the bone palette. Caller must hold the mutex.
func (a *skeletalAnimator) compute() {
	s := a.state
	samplePose(a.skeleton, a.clipAt(s.clipIndex), s.time, a.primary)

	if s.blending {
		samplePose(a.skeleton, a.clipAt(s.blendTo), s.blendToTime, a.secondary)
		weight := common.ClampFloat(s.blendElapsed/s.blendDuration, 0, 1)
		for i := range a.primary {
			a.primary[i] = blendTransforms(a.primary[i], a.secondary[i], weight)
		}
	}

	for i, bone := range a.skeleton.Bones {
		local := a.primary[i].Matrix()
		if bone.ParentIndex >= 0 {
			a.global[i] = a.global[bone.ParentIndex].Mul4(local)
		} else {
			a.global[i] = local
		}
		a.bones[i] = a.global[i].Mul4(bone.InverseBindMatrix)
	}
}

func (a *skeletalAnimator) clipAt(index int) *model.AnimationClip {
	if index < 0 || index >= len(a.clips) {
		return nil
	}
	return a.clips[index]
}
