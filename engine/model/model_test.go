package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeGeometry(t *testing.T) {
	c := Cube()

	require.Len(t, c.Vertices(), 24)
	require.Len(t, c.Indices(), 36)
	require.Len(t, c.NormalData(), 24)
	require.Len(t, c.SubMeshes(), 1)
	assert.Equal(t, uint32(36), c.SubMeshes()[0].IndexCount)
	assert.Equal(t, -1, c.SubMeshes()[0].MaterialIndex)
	assert.False(t, c.Skinned())
	assert.InDelta(t, mgl32.Vec3{1, 1, 1}.Len(), c.BoundingRadius(), 1e-5)
	assert.Len(t, c.VertexData(), 24*32)
	assert.Len(t, c.IndexData(), 36*4)
}

func TestCubeTrianglesFaceOutward(t *testing.T) {
	c := Cube()
	v := c.Vertices()
	idx := c.Indices()

	for i := 0; i < len(idx); i += 3 {
		a := mgl32.Vec3(v[idx[i]].Position)
		b := mgl32.Vec3(v[idx[i+1]].Position)
		d := mgl32.Vec3(v[idx[i+2]].Position)
		n := mgl32.Vec3(v[idx[i]].Normal)

		// clockwise as seen from outside in a left-handed frame
		cross := b.Sub(a).Cross(d.Sub(a))
		assert.Greaterf(t, cross.Dot(n), float32(0), "triangle %d", i/3)
		// every corner lies on the face plane
		assert.InDeltaf(t, 1, a.Dot(n), 1e-6, "triangle %d", i/3)
	}
}

func TestNewMeshValidatesStreams(t *testing.T) {
	verts := []GPUVertex{{}, {}, {}}
	idx := []uint32{0, 1, 2}

	_, err := NewMesh("bad normals", verts, idx, WithNormalData(make([]GPUNormalData, 2)))
	assert.Error(t, err)

	_, err = NewMesh("no skeleton", verts, idx, WithSkinning(make([]GPUSkinData, 3), nil))
	assert.Error(t, err)

	_, err = NewMesh("bad range", verts, idx, WithSubMeshes([]SubMesh{{IndexCount: 6, MaterialIndex: -1}}))
	assert.Error(t, err)

	_, err = NewMesh("bad material", verts, idx, WithSubMeshes([]SubMesh{{IndexCount: 3, MaterialIndex: 0}}))
	assert.Error(t, err)

	m, err := NewMesh("ok", verts, idx,
		WithMaterials([]common.ImportedMaterial{{Name: "m"}}),
		WithSubMeshes([]SubMesh{{IndexCount: 3, MaterialIndex: 0}}),
		WithSkinning(make([]GPUSkinData, 3), &Skeleton{Bones: []Bone{{Name: "root", ParentIndex: -1}}}),
		WithAnimations([]*AnimationClip{{Name: "idle"}, {Name: "walk"}}),
	)
	require.NoError(t, err)
	assert.True(t, m.Skinned())
	assert.Equal(t, 1, m.GetAnimationIndex("walk"))
	assert.Equal(t, -1, m.GetAnimationIndex("run"))
	assert.Equal(t, []string{"idle", "walk"}, m.AnimationNames())
}

func TestGPUTypeSizes(t *testing.T) {
	assert.Equal(t, 32, (&GPUVertex{}).Size())
	assert.Equal(t, 24, (&GPUNormalData{}).Size())
	assert.Equal(t, 64, (&GPUInstance{}).Size())
	assert.Equal(t, 32, (&GPUSkinData{}).Size())
	assert.Equal(t, 96, (&GPUObjectUniform{}).Size())
	assert.Equal(t, MaxBoneCount*64, (&GPUSkinningUniform{}).Size())
}

func TestObjectUniformMarshal(t *testing.T) {
	u := GPUObjectUniform{
		World:        mgl32.Translate3D(1, 2, 3),
		OutputColor:  mgl32.Vec4{0.5, 0.25, 1, 1},
		HasNormalMap: 1,
	}
	buf := u.Marshal()
	require.Len(t, buf, 96)

	want := make([]byte, 64)
	common.PutMat4(want, u.World)
	assert.Equal(t, want, buf[:64])
	assert.Equal(t, byte(1), buf[80])
}

func TestTransformMatrixComposesTRS(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec3{1, 0, 0},
		Rotation:    mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}),
		Scale:       mgl32.Vec3{2, 2, 2},
	}
	p := tr.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 1, p[0], 1e-5)
	assert.InDelta(t, -2, p[2], 1e-5)

	id := IdentityTransform().Matrix()
	assert.True(t, id.ApproxEqual(mgl32.Ident4()))
}
