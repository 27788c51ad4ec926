package loader

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleDocument has two primitives: a red triangle with a material and an untextured quad.
func triangleDocument() *gltf.Document {
	doc := gltf.NewDocument()

	triPos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	triNrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	triUV := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	triIdx := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	quadPos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	quadIdx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	doc.Materials = []*gltf.Material{{
		Name: "red",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0, 0, 1},
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "shapes",
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(triIdx),
				Attributes: map[string]int{"POSITION": triPos, "NORMAL": triNrm, "TEXCOORD_0": triUV},
				Material:   gltf.Index(0),
			},
			{
				Indices:    gltf.Index(quadIdx),
				Attributes: map[string]int{"POSITION": quadPos},
			},
		},
	}}
	return doc
}

func TestImportCombinesPrimitives(t *testing.T) {
	mesh, err := importDocument(triangleDocument(), "shapes", ".", false)
	require.NoError(t, err)

	assert.Equal(t, "shapes", mesh.Name())
	assert.Len(t, mesh.Vertices(), 7)
	assert.Len(t, mesh.Indices(), 9)
	assert.False(t, mesh.Skinned())

	subs := mesh.SubMeshes()
	require.Len(t, subs, 2)
	assert.Equal(t, uint32(3), subs[0].IndexCount)
	assert.Equal(t, 0, subs[0].MaterialIndex)
	assert.Equal(t, uint32(3), subs[1].BaseIndex)
	assert.Equal(t, uint32(6), subs[1].IndexCount)
	assert.Equal(t, -1, subs[1].MaterialIndex)

	// quad indices are rebased past the triangle's vertices
	assert.Equal(t, []uint32{3, 4, 5, 3, 5, 6}, mesh.Indices()[3:])

	mats := mesh.Materials()
	require.Len(t, mats, 1)
	assert.Equal(t, "red", mats[0].Name)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, mats[0].BaseColor)
	assert.Nil(t, mats[0].DiffuseTexture)
}

func TestImportGeneratesNormalsAndTangentFrames(t *testing.T) {
	mesh, err := importDocument(triangleDocument(), "shapes", ".", false)
	require.NoError(t, err)

	// the quad had no normals: counter-clockwise in XY faces +Z
	quad := mesh.Vertices()[3]
	assert.InDeltaSlice(t, []float32{0, 0, 1}, quad.Normal[:], 1e-5)

	nd := mesh.NormalData()
	require.Len(t, nd, 7)
	// u runs along +X and v along +Y on the triangle
	assert.InDeltaSlice(t, []float32{1, 0, 0}, nd[0].Tangent[:], 1e-5)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, nd[0].Bitangent[:], 1e-5)
}

func TestTangentFrameHandedness(t *testing.T) {
	frame := tangentFrame([3]float32{0, 0, 1}, [4]float32{1, 0, 0, -1})
	assert.InDeltaSlice(t, []float32{0, -1, 0}, frame.Bitangent[:], 1e-6)
}

// skinnedDocument lists the child joint before its parent so the skeleton must be re-sorted.
func skinnedDocument() *gltf.Document {
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	joints := modeler.WriteJoints(doc, [][4]uint16{{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{1, 0, 0, 0}, {1, 0, 0, 0}, {0.5, 0.5, 0, 0}})
	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -1, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
	})
	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 2})
	moves := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 0}, {2, 0, 0}})

	doc.Meshes = []*gltf.Mesh{{
		Name: "body",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{"POSITION": pos, "JOINTS_0": joints, "WEIGHTS_0": weights},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "body", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
		{Name: "root", Children: []int{2}},
		{Name: "child"},
	}
	doc.Skins = []*gltf.Skin{{Joints: []int{2, 1}, InverseBindMatrices: gltf.Index(ibm)}}
	doc.Animations = []*gltf.Animation{{
		Name:     "slide",
		Samplers: []*gltf.AnimationSampler{{Input: times, Output: moves}},
		Channels: []*gltf.AnimationChannel{{
			Sampler: 0,
			Target:  gltf.AnimationChannelTarget{Node: gltf.Index(1), Path: gltf.TRSTranslation},
		}},
	}}
	return doc
}

func TestImportSkinnedMesh(t *testing.T) {
	mesh, err := importDocument(skinnedDocument(), "body", ".", false)
	require.NoError(t, err)
	require.True(t, mesh.Skinned())

	skel := mesh.Skeleton()
	require.Len(t, skel.Bones, 2)
	assert.Equal(t, "root", skel.Bones[0].Name)
	assert.Equal(t, int32(-1), skel.Bones[0].ParentIndex)
	assert.Equal(t, "child", skel.Bones[1].Name)
	assert.Equal(t, int32(0), skel.Bones[1].ParentIndex)
	assert.Equal(t, []int32{0}, skel.RootBoneIndices)
	assert.Equal(t, int32(1), skel.BoneNameToIndex["child"])

	// joint 0 of the skin was the child, now bone 1
	assert.Equal(t, mgl32.Translate3D(0, -1, 0), skel.Bones[1].InverseBindMatrix)
	skin := mesh.SkinData()
	assert.Equal(t, uint32(1), skin[0].BoneIndices[0])
	assert.Equal(t, uint32(0), skin[1].BoneIndices[0])
	assert.Equal(t, [4]float32{0.5, 0.5, 0, 0}, skin[2].BoneWeights)

	require.Equal(t, []string{"slide"}, mesh.AnimationNames())
	clip := mesh.Animations()[0]
	assert.InDelta(t, 2, clip.Duration, 1e-6)
	require.Len(t, clip.Channels, 1)
	assert.Equal(t, int32(0), clip.Channels[0].BoneIndex)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, clip.Channels[0].PositionKeys[1].Value)
}

func TestImportMeshOnlySkipsSkinning(t *testing.T) {
	mesh, err := importDocument(skinnedDocument(), "body", ".", true)
	require.NoError(t, err)
	assert.False(t, mesh.Skinned())
	assert.Empty(t, mesh.Animations())
}

// chainBones lists a three bone chain leaf first.
func chainBones() []model.Bone {
	return []model.Bone{
		{Name: "grandchild", ParentIndex: 1},
		{Name: "child", ParentIndex: 2},
		{Name: "root", ParentIndex: -1},
	}
}

func TestTopologicalSortHandlesDeepChains(t *testing.T) {
	sorted, oldToNew := gltfTopologicalSortBones(chainBones(), []int32{2})
	require.Len(t, sorted, 3)
	assert.Equal(t, "root", sorted[0].Name)
	assert.Equal(t, "child", sorted[1].Name)
	assert.Equal(t, "grandchild", sorted[2].Name)
	assert.Equal(t, int32(0), sorted[1].ParentIndex)
	assert.Equal(t, int32(1), sorted[2].ParentIndex)
	assert.Equal(t, map[int32]int32{2: 0, 1: 1, 0: 2}, oldToNew)
}

func TestDecomposeMatrix(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90))).
		Mul4(mgl32.Scale3D(2, 2, 2))
	tr := decomposeMatrix(m)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, tr.Translation[:], 1e-5)
	assert.InDeltaSlice(t, []float32{2, 2, 2}, tr.Scale[:], 1e-5)
	assert.True(t, tr.Matrix().ApproxEqualThreshold(m, 1e-5))
}

func TestLoaderLoadsAndCachesGLB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.glb")
	require.NoError(t, gltf.SaveBinary(triangleDocument(), path))

	l := NewLoader(BackendTypeGLTF)
	first, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shapes", first.Name())
	assert.Len(t, first.SubMeshes(), 2)

	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	cached, ok := l.Get(path)
	assert.True(t, ok)
	assert.Same(t, first, cached)
	assert.Len(t, l.Meshes(), 1)
}

func TestLoaderErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load("scene.obj")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model format")

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
	assert.Empty(t, l.Meshes())
}

func solidPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeMaterials(t *testing.T) {
	l := NewLoader(BackendTypeGLTF, WithDecodeWorkers(2))

	good := material.NewMaterial(material.WithDiffuseTexture(&common.ImportedTexture{Name: "good", Data: solidPNG(t)}))
	plain := material.NewMaterial()
	bad := material.NewMaterial(
		material.WithName("bad"),
		material.WithDiffuseTexture(&common.ImportedTexture{Name: "bad", Data: []byte("not an image")}),
	)

	require.NoError(t, l.DecodeMaterials([]material.Material{good, plain}))
	assert.Equal(t, 2, good.DiffuseTexture().Width)

	err := l.DecodeMaterials([]material.Material{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
