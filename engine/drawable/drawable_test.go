package drawable

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/animator"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texturedMaterial(name string) material.Material {
	return material.NewMaterial(
		material.WithName(name),
		material.WithTextureData(&common.TextureStagingData{Label: name, Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}),
	)
}

func skinnedTriangle(t *testing.T, clips ...*model.AnimationClip) model.Mesh {
	t.Helper()
	vertices := []model.GPUVertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 1, 0}},
	}
	skin := make([]model.GPUSkinData, len(vertices))
	for i := range skin {
		skin[i].BoneWeights = [4]float32{1, 0, 0, 0}
	}
	skeleton := &model.Skeleton{
		Bones: []model.Bone{{
			Name:              "root",
			ParentIndex:       -1,
			InverseBindMatrix: mgl32.Ident4(),
			LocalTransform:    model.IdentityTransform(),
		}},
		RootBoneIndices: []int32{0},
		BoneNameToIndex: map[string]int32{"root": 0},
	}
	m, err := model.NewMesh("triangle", vertices, []uint32{0, 1, 2},
		model.WithSkinning(skin, skeleton),
		model.WithAnimations(clips),
	)
	require.NoError(t, err)
	return m
}

func liftClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "lift",
		Duration: 2,
		Channels: []model.AnimationChannel{{
			BoneIndex: 0,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
				{Time: 2, Value: mgl32.Vec3{0, 4, 0}},
			},
		}},
	}
}

func TestRenderableDefaults(t *testing.T) {
	r := NewRenderable("cube", model.Cube())
	assert.Equal(t, "cube", r.Name())
	assert.Equal(t, KindRenderable, r.Kind())
	assert.True(t, r.Enabled())
	assert.Equal(t, mgl32.Ident4(), r.WorldMatrix())
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, r.OutputColor())
	assert.Nil(t, r.VertexShader())
	assert.Nil(t, r.PixelShader())
	assert.False(t, r.Textured())
	assert.False(t, r.HasNormalMap())
	assert.False(t, r.Initialized())
}

func TestRenderableMotionDrivesWorld(t *testing.T) {
	r := NewRenderable("bobbing", model.Cube(), WithMotion(animator.Bob()))
	r.Update(0.5)
	r.Update(0.5)

	want := mgl32.HomogRotate3DY(1).Mul4(mgl32.Translate3D(0, float32(0.84147096), 0))
	assert.True(t, want.ApproxEqualThreshold(r.WorldMatrix(), 1e-5))

	static := NewRenderable("still", model.Cube(), WithWorldMatrix(mgl32.Translate3D(1, 2, 3)))
	static.Update(1)
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), static.WorldMatrix())
}

func TestRenderableInitializeCreatesBuffers(t *testing.T) {
	dev := backendtest.New()
	r := NewRenderable("cube", model.Cube(), WithMaterial(texturedMaterial("crate")))

	require.NoError(t, r.Initialize(dev))
	assert.True(t, r.Initialized())

	b := r.Buffers()
	assert.True(t, b.Vertex.Valid())
	assert.True(t, b.Extra.Valid(), "cube tangent frames are uploaded")
	assert.True(t, b.Index.Valid())
	assert.True(t, b.Object.Valid())
	assert.False(t, b.Skinning.Valid())

	assert.Equal(t, backend.BufferUsageVertex, dev.Usages[b.Vertex])
	assert.Equal(t, backend.BufferUsageIndex, dev.Usages[b.Index])
	assert.Equal(t, backend.BufferUsageUniform, dev.Usages[b.Object])
	assert.Len(t, dev.Buffers[b.Index], 36*4)
	assert.Equal(t, 1, dev.Count("CreateTexture"))
	assert.True(t, r.Textured())
	assert.False(t, r.HasNormalMap(), "the material has no normal map")

	// idempotent
	require.NoError(t, r.Initialize(dev))
	assert.Equal(t, 4, dev.Count("CreateBuffer"))

	r.Release(dev)
	assert.Empty(t, dev.Buffers)
	assert.Empty(t, dev.Textures)
	assert.False(t, r.Initialized())
}

func TestInitializeFailureReleasesPartialResources(t *testing.T) {
	dev := backendtest.New()
	boom := errors.New("no memory")
	dev.Fail("CreateTexture", boom)

	r := NewRenderable("cube", model.Cube(), WithMaterial(texturedMaterial("crate")))
	err := r.Initialize(dev)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "renderable cube")
	assert.False(t, r.Initialized())
	assert.Empty(t, dev.Buffers)
}

func TestUploadWritesObjectUniform(t *testing.T) {
	dev := backendtest.New()
	r := NewRenderable("cube", model.Cube(), WithOutputColor(mgl32.Vec4{1, 0, 0, 1}))

	assert.ErrorIs(t, r.Upload(dev), ErrNotInitialized)

	require.NoError(t, r.Initialize(dev))
	r.SetWorldMatrix(mgl32.Translate3D(0, 0, 5))
	require.NoError(t, r.Upload(dev))

	u := r.ObjectUniform()
	assert.Equal(t, u.Marshal(), dev.Buffers[r.Buffers().Object])
	assert.Equal(t, mgl32.Translate3D(0, 0, 5), u.World)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, u.OutputColor)
}

func TestNormalMapFlag(t *testing.T) {
	normalMapped := material.NewMaterial(
		material.WithTextureData(&common.TextureStagingData{Label: "d", Pixels: make([]byte, 4), Width: 1, Height: 1}),
		material.WithNormalTexture(&common.ImportedTexture{Name: "n"}),
	)
	r := NewRenderable("cube", model.Cube(), WithMaterial(normalMapped))
	assert.True(t, r.HasNormalMap())
	assert.Equal(t, uint32(1), r.ObjectUniform().HasNormalMap)

	// geometry without tangent frames cannot be normal mapped
	flat, err := model.NewMesh("flat", model.Cube().Vertices(), model.Cube().Indices())
	require.NoError(t, err)
	assert.False(t, NewRenderable("flat", flat, WithMaterial(normalMapped)).HasNormalMap())
}

func TestShaderBinding(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, shader.WithSource(
		"//@oxy:include vertex\n@vertex fn main(v: VertexInput) -> @builtin(position) vec4<f32> { return vec4<f32>(v.position, 1.0); }"))
	require.NoError(t, err)
	ps, err := shader.NewShader("ps", shader.ShaderTypePixel, shader.WithSource(
		"@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }"))
	require.NoError(t, err)

	r := NewRenderable("cube", model.Cube())
	r.SetVertexShader(vs)
	r.SetPixelShader(ps)
	assert.Same(t, vs, r.VertexShader())
	assert.Same(t, ps, r.PixelShader())

	b := NewVoxelBatch("grid", model.Cube(), GridInstances(1, 1, 1, 1), WithShaders(vs, ps))
	assert.Same(t, vs, b.VertexShader())
	assert.Same(t, ps, b.PixelShader())
}

func TestVoxelBatchInstances(t *testing.T) {
	dev := backendtest.New()
	grid := GridInstances(3, 2, 1, 2)
	require.Len(t, grid, 6)
	assert.Equal(t, mgl32.Translate3D(-2, 0, 0), grid[0])
	assert.Equal(t, mgl32.Translate3D(2, 2, 0), grid[5])

	b := NewVoxelBatch("grid", model.Cube(), grid)
	assert.Equal(t, KindVoxelBatch, b.Kind())
	assert.Equal(t, 6, b.InstanceCount())

	require.NoError(t, b.Initialize(dev))
	extra := b.Buffers().Extra
	require.True(t, extra.Valid())
	assert.Len(t, dev.Buffers[extra], 6*64)

	dev.ResetCalls()
	require.NoError(t, b.Upload(dev))
	assert.Equal(t, 1, dev.Count("WriteBuffer"), "clean instances are not re-uploaded")

	moved := mgl32.Translate3D(9, 9, 9)
	require.NoError(t, b.SetInstance(1, moved))
	got, err := b.Instance(1)
	require.NoError(t, err)
	assert.Equal(t, moved, got)

	dev.ResetCalls()
	require.NoError(t, b.Upload(dev))
	assert.Equal(t, 2, dev.Count("WriteBuffer"))
	assert.Equal(t, common.SliceToBytes([]mgl32.Mat4{moved}), dev.Buffers[extra][64:128])

	assert.ErrorIs(t, b.SetInstance(6, moved), ErrInstanceOutOfRange)
	_, err = b.Instance(-1)
	assert.ErrorIs(t, err, ErrInstanceOutOfRange)
}

func TestVoxelBatchRequiresInstances(t *testing.T) {
	assert.Panics(t, func() { NewVoxelBatch("empty", model.Cube(), nil) })
	assert.Panics(t, func() { NewRenderable("nil", nil) })
}

func TestModelRequiresSkinnedMesh(t *testing.T) {
	_, err := NewModel("cube", model.Cube())
	assert.ErrorIs(t, err, ErrNotSkinned)

	_, err = NewModel("triangle", skinnedTriangle(t), WithSkeletalOptions(animator.WithAutoPlay(3, true)))
	assert.ErrorIs(t, err, animator.ErrUnknownClip)
}

func TestModelAnimatesAndUploadsBones(t *testing.T) {
	dev := backendtest.New()
	m, err := NewModel("lifter", skinnedTriangle(t, liftClip()),
		WithSkeletalOptions(animator.WithAutoPlay(0, true)),
		WithMotion(animator.Static(animator.WithPlacement(mgl32.Translate3D(0, 0, 3)))),
	)
	require.NoError(t, err)
	assert.Equal(t, KindModel, m.Kind())
	assert.Equal(t, MaxBoneCount, model.MaxBoneCount)

	require.NoError(t, m.Initialize(dev))
	skinning := m.Buffers().Skinning
	require.True(t, skinning.Valid())
	assert.Len(t, dev.Buffers[skinning], MaxBoneCount*64)
	assert.True(t, m.Buffers().Extra.Valid(), "skin weights are uploaded")

	m.Update(1)
	assert.Equal(t, mgl32.Translate3D(0, 0, 3), m.WorldMatrix())
	assert.InDelta(t, 1, m.Animator().Time(), 1e-5)

	require.NoError(t, m.Upload(dev))
	palette := m.Animator().Uniform()
	assert.Equal(t, palette.Marshal(), dev.Buffers[skinning])
	assert.True(t, palette.Bones[0].ApproxEqualThreshold(mgl32.Translate3D(0, 2, 0), 1e-5))

	m.Release(dev)
	assert.Empty(t, dev.Buffers)
}

func TestEnabledFlag(t *testing.T) {
	r := NewRenderable("cube", model.Cube(), WithEnabled(false))
	assert.False(t, r.Enabled())
	r.SetEnabled(true)
	assert.True(t, r.Enabled())
}
