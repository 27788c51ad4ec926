package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	doc *gltf.Document
}

// gltfAnimationExtractor defines the interface for extracting keyframed clips from a glTF document.
//
// The boneMapping parameter maps glTF node indices to bone indices in the sorted skeleton, so
// channels target the right bones after reordering. Channels on other nodes are dropped.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - *model.AnimationClip: the extracted clip
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error)

	// ExtractAnimationsForSkin extracts every animation with at least one channel on a joint of the skin.
	//
	// Parameters:
	//   - skinIndex: the skin whose joints select the animations
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - []*model.AnimationClip: the extracted clips in document order
	//   - error: error if extraction fails
	ExtractAnimationsForSkin(skinIndex int, boneMapping map[int]int32) ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

func newGLTFAnimationExtractor(doc *gltf.Document) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{doc: doc}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error) {
	if animIndex < 0 || animIndex >= len(e.doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}
	anim := e.doc.Animations[animIndex]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}
	clip := &model.AnimationClip{Name: name}

	// one channel per bone, in first-seen order
	byBone := make(map[int32]int)

	for i, ch := range anim.Channels {
		if ch.Target.Node == nil {
			continue
		}
		boneIndex, ok := boneMapping[*ch.Target.Node]
		if !ok {
			continue
		}
		if ch.Target.Path == gltf.TRSWeights {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := anim.Samplers[ch.Sampler]

		times, err := e.readFloats(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		if n := len(times); n > 0 && times[n-1] > clip.Duration {
			clip.Duration = times[n-1]
		}

		slot, ok := byBone[boneIndex]
		if !ok {
			slot = len(clip.Channels)
			byBone[boneIndex] = slot
			clip.Channels = append(clip.Channels, model.AnimationChannel{BoneIndex: boneIndex})
		}
		out := &clip.Channels[slot]

		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			values, err := e.readVec3s(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
			}
			keys := make([]model.VectorKeyframe, min(len(times), len(values)))
			for j := range keys {
				keys[j] = model.VectorKeyframe{Time: times[j], Value: values[j]}
			}
			if ch.Target.Path == gltf.TRSTranslation {
				out.PositionKeys = keys
			} else {
				out.ScaleKeys = keys
			}
		case gltf.TRSRotation:
			values, err := e.readQuats(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
			}
			keys := make([]model.QuaternionKeyframe, min(len(times), len(values)))
			for j := range keys {
				keys[j] = model.QuaternionKeyframe{Time: times[j], Value: values[j]}
			}
			out.RotationKeys = keys
		}
	}

	return clip, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAnimationsForSkin(skinIndex int, boneMapping map[int]int32) ([]*model.AnimationClip, error) {
	if skinIndex < 0 || skinIndex >= len(e.doc.Skins) {
		return nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	joints := make(map[int]bool)
	for _, j := range e.doc.Skins[skinIndex].Joints {
		joints[j] = true
	}

	var clips []*model.AnimationClip
	for i, anim := range e.doc.Animations {
		relevant := false
		for _, ch := range anim.Channels {
			if ch.Target.Node != nil && joints[*ch.Target.Node] {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}
		clip, err := e.ExtractAnimation(i, boneMapping)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func (e *gltfAnimationExtractorImpl) read(idx int) (any, error) {
	acr, err := gltfAccessor(e.doc, idx)
	if err != nil {
		return nil, err
	}
	return modeler.ReadAccessor(e.doc, acr, nil)
}

func (e *gltfAnimationExtractorImpl) readFloats(idx int) ([]float32, error) {
	data, err := e.read(idx)
	if err != nil {
		return nil, err
	}
	values, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d is %T, want float SCALAR", idx, data)
	}
	return values, nil
}

func (e *gltfAnimationExtractorImpl) readVec3s(idx int) ([]mgl32.Vec3, error) {
	data, err := e.read(idx)
	if err != nil {
		return nil, err
	}
	raw, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d is %T, want float VEC3", idx, data)
	}
	values := make([]mgl32.Vec3, len(raw))
	for i, v := range raw {
		values[i] = v
	}
	return values, nil
}

// readQuats reads glTF rotations, stored as x, y, z, w.
func (e *gltfAnimationExtractorImpl) readQuats(idx int) ([]mgl32.Quat, error) {
	data, err := e.read(idx)
	if err != nil {
		return nil, err
	}
	raw, ok := data.([][4]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d is %T, want float VEC4", idx, data)
	}
	values := make([]mgl32.Quat, len(raw))
	for i, v := range raw {
		values[i] = mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}.Normalize()
	}
	return values, nil
}
