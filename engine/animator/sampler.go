package animator

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// samplePose writes the local transform of every bone at time t into out. Bones without a channel,
// and every bone when clip is nil, keep their rest transform.
func samplePose(skeleton *model.Skeleton, clip *model.AnimationClip, t float32, out []model.Transform) {
	for i, b := range skeleton.Bones {
		out[i] = b.LocalTransform
	}
	if clip == nil {
		return
	}
	for _, ch := range clip.Channels {
		if ch.BoneIndex < 0 || int(ch.BoneIndex) >= len(out) {
			continue
		}
		local := &out[ch.BoneIndex]
		if len(ch.PositionKeys) > 0 {
			local.Translation = sampleVectorKeys(ch.PositionKeys, t)
		}
		if len(ch.RotationKeys) > 0 {
			local.Rotation = sampleQuaternionKeys(ch.RotationKeys, t)
		}
		if len(ch.ScaleKeys) > 0 {
			local.Scale = sampleVectorKeys(ch.ScaleKeys, t)
		}
	}
}

// keySpan finds the keyframes surrounding t and the interpolation factor between them.
// Times before the first or after the last key clamp to that key.
func keySpan(count int, timeAt func(int) float32, t float32) (int, int, float32) {
	if count == 1 || t <= timeAt(0) {
		return 0, 0, 0
	}
	if t >= timeAt(count-1) {
		return count - 1, count - 1, 0
	}
	next := sort.Search(count, func(i int) bool { return timeAt(i) > t })
	prev := next - 1
	span := timeAt(next) - timeAt(prev)
	if span <= 0 {
		return prev, prev, 0
	}
	return prev, next, (t - timeAt(prev)) / span
}

func sampleVectorKeys(keys []model.VectorKeyframe, t float32) mgl32.Vec3 {
	prev, next, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Value
	}
	return lerpVec3(keys[prev].Value, keys[next].Value, f)
}

func sampleQuaternionKeys(keys []model.QuaternionKeyframe, t float32) mgl32.Quat {
	prev, next, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Value.Normalize()
	}
	return slerpShortest(keys[prev].Value, keys[next].Value, f)
}

// blendTransforms mixes two local transforms, weight 0 returning a and weight 1 returning b.
func blendTransforms(a, b model.Transform, weight float32) model.Transform {
	return model.Transform{
		Translation: lerpVec3(a.Translation, b.Translation, weight),
		Rotation:    slerpShortest(a.Rotation, b.Rotation, weight),
		Scale:       lerpVec3(a.Scale, b.Scale, weight),
	}
}

func lerpVec3(a, b mgl32.Vec3, f float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

// slerpShortest interpolates along the shorter arc between two rotations.
func slerpShortest(a, b mgl32.Quat, f float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a.Normalize(), b.Normalize(), f).Normalize()
}
