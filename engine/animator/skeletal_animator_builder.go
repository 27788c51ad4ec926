package animator

// SkeletalAnimatorBuilderOption is a functional option for configuring a SkeletalAnimator during construction.
type SkeletalAnimatorBuilderOption func(*skeletalAnimator)

// WithAutoPlay is an option builder that starts a clip as soon as the animator is created.
// NewSkeletalAnimator fails with ErrUnknownClip when the index is out of range.
//
// Parameters:
//   - clipIndex: the clip to play
//   - loop: whether playback wraps at the end of the clip
//
// Returns:
//   - SkeletalAnimatorBuilderOption: a function that applies the auto-play option to an animator
func WithAutoPlay(clipIndex int, loop bool) SkeletalAnimatorBuilderOption {
	return func(a *skeletalAnimator) {
		a.state.clipIndex = clipIndex
		a.state.loop = loop
		a.state.time = 0
	}
}

// WithPlaybackSpeed is an option builder that sets the initial playback speed multiplier.
//
// Parameters:
//   - speed: the multiplier (1 = normal speed)
//
// Returns:
//   - SkeletalAnimatorBuilderOption: a function that applies the speed option to an animator
func WithPlaybackSpeed(speed float32) SkeletalAnimatorBuilderOption {
	return func(a *skeletalAnimator) {
		a.state.speed = speed
	}
}
