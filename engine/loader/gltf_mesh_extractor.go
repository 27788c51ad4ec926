package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/model"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfGeometry is the combined geometry of every triangle primitive in a document.
// Each primitive keeps its own index range, recorded as one SubMesh.
type gltfGeometry struct {
	vertices   []model.GPUVertex
	normalData []model.GPUNormalData
	skinData   []model.GPUSkinData
	indices    []uint32
	subMeshes  []model.SubMesh
	hasJoints  bool
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	doc *gltf.Document
}

// gltfMeshExtractor converts glTF mesh primitives into one vertex and index stream.
type gltfMeshExtractor interface {
	// ExtractAll appends every triangle primitive of every mesh in document order.
	// Indices are rebased onto the combined vertex stream.
	//
	// Returns:
	//   - *gltfGeometry: the combined geometry
	//   - error: error if an accessor cannot be read or a primitive is not a triangle list
	ExtractAll() (*gltfGeometry, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(doc *gltf.Document) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{doc: doc}
}

func (e *gltfMeshExtractorImpl) ExtractAll() (*gltfGeometry, error) {
	geo := &gltfGeometry{}
	for mi, mesh := range e.doc.Meshes {
		for pi, prim := range mesh.Primitives {
			if err := e.appendPrimitive(geo, prim); err != nil {
				return nil, fmt.Errorf("mesh %d (%s) primitive %d: %w", mi, mesh.Name, pi, err)
			}
		}
	}
	if len(geo.vertices) == 0 {
		return nil, fmt.Errorf("document has no triangle geometry")
	}
	return geo, nil
}

func (e *gltfMeshExtractorImpl) appendPrimitive(geo *gltfGeometry, prim *gltf.Primitive) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		return fmt.Errorf("unsupported primitive mode %v (only triangles supported)", prim.Mode)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	acr, err := gltfAccessor(e.doc, posIdx)
	if err != nil {
		return err
	}
	positions, err := modeler.ReadPosition(e.doc, acr, nil)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}

	count := len(positions)
	vertices := make([]model.GPUVertex, count)
	for i, p := range positions {
		vertices[i].Position = p
	}

	hasNormals := false
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		acr, err := gltfAccessor(e.doc, idx)
		if err != nil {
			return err
		}
		normals, err := modeler.ReadNormal(e.doc, acr, nil)
		if err != nil {
			return fmt.Errorf("failed to read normals: %w", err)
		}
		for i := range min(count, len(normals)) {
			vertices[i].Normal = normals[i]
		}
		hasNormals = true
	}

	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		acr, err := gltfAccessor(e.doc, idx)
		if err != nil {
			return err
		}
		uvs, err := modeler.ReadTextureCoord(e.doc, acr, nil)
		if err != nil {
			return fmt.Errorf("failed to read texcoords: %w", err)
		}
		for i := range min(count, len(uvs)) {
			vertices[i].TexCoord = uvs[i]
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := gltfAccessor(e.doc, *prim.Indices)
		if err != nil {
			return err
		}
		indices, err = modeler.ReadIndices(e.doc, acr, nil)
		if err != nil {
			return fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, idx := range indices {
		if int(idx) >= count {
			return fmt.Errorf("index %d out of range for %d vertices", idx, count)
		}
	}

	if !hasNormals {
		generateNormals(vertices, indices)
	}

	var tangents [][4]float32
	if idx, ok := prim.Attributes["TANGENT"]; ok {
		acr, err := gltfAccessor(e.doc, idx)
		if err != nil {
			return err
		}
		tangents, err = modeler.ReadTangent(e.doc, acr, nil)
		if err != nil {
			return fmt.Errorf("failed to read tangents: %w", err)
		}
	}
	if len(tangents) < count {
		tangents = generateTangents(vertices, indices)
	}

	skin := make([]model.GPUSkinData, count)
	for i := range skin {
		skin[i].BoneWeights = [4]float32{1, 0, 0, 0}
	}
	if idx, ok := prim.Attributes["JOINTS_0"]; ok {
		acr, err := gltfAccessor(e.doc, idx)
		if err != nil {
			return err
		}
		joints, err := modeler.ReadJoints(e.doc, acr, nil)
		if err != nil {
			return fmt.Errorf("failed to read joints: %w", err)
		}
		for i := range min(count, len(joints)) {
			j := joints[i]
			skin[i].BoneIndices = [4]uint32{uint32(j[0]), uint32(j[1]), uint32(j[2]), uint32(j[3])}
		}
		geo.hasJoints = true
	}
	if idx, ok := prim.Attributes["WEIGHTS_0"]; ok {
		acr, err := gltfAccessor(e.doc, idx)
		if err != nil {
			return err
		}
		weights, err := modeler.ReadWeights(e.doc, acr, nil)
		if err != nil {
			return fmt.Errorf("failed to read weights: %w", err)
		}
		for i := range min(count, len(weights)) {
			skin[i].BoneWeights = weights[i]
		}
	}

	materialIndex := -1
	if prim.Material != nil {
		materialIndex = *prim.Material
	}

	geo.subMeshes = append(geo.subMeshes, model.SubMesh{
		IndexCount:    uint32(len(indices)),
		BaseIndex:     uint32(len(geo.indices)),
		MaterialIndex: materialIndex,
	})
	base := uint32(len(geo.vertices))
	for _, i := range indices {
		geo.indices = append(geo.indices, base+i)
	}
	geo.vertices = append(geo.vertices, vertices...)
	geo.skinData = append(geo.skinData, skin...)
	for i, v := range vertices {
		geo.normalData = append(geo.normalData, tangentFrame(v.Normal, tangents[i]))
	}
	return nil
}

// gltfAccessor returns the accessor at index idx.
func gltfAccessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

// tangentFrame builds the tangent and bitangent of a vertex from its normal and a glTF tangent,
// whose W component carries the handedness of the bitangent.
func tangentFrame(normal [3]float32, tangent [4]float32) model.GPUNormalData {
	n := mgl32.Vec3(normal)
	t := mgl32.Vec3{tangent[0], tangent[1], tangent[2]}
	w := tangent[3]
	if w == 0 {
		w = 1
	}
	b := n.Cross(t).Mul(w)
	return model.GPUNormalData{Tangent: t, Bitangent: b}
}

// generateNormals computes smooth vertex normals by accumulating area-weighted face normals.
// Vertices touched by no triangle point up.
func generateNormals(vertices []model.GPUVertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := mgl32.Vec3(vertices[i0].Position)
		e1 := mgl32.Vec3(vertices[i1].Position).Sub(p0)
		e2 := mgl32.Vec3(vertices[i2].Position).Sub(p0)
		face := e1.Cross(e2)
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}
	for i, n := range accum {
		if n.Len() < 1e-6 {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		vertices[i].Normal = n.Normalize()
	}
}

// generateTangents derives per-vertex tangents from UV gradients, orthonormalized against the
// vertex normal. W holds the handedness of the accumulated bitangent.
func generateTangents(vertices []model.GPUVertex, indices []uint32) [][4]float32 {
	tan := make([]mgl32.Vec3, len(vertices))
	btan := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := mgl32.Vec3(vertices[i0].Position)
		e1 := mgl32.Vec3(vertices[i1].Position).Sub(p0)
		e2 := mgl32.Vec3(vertices[i2].Position).Sub(p0)

		uv0 := mgl32.Vec2(vertices[i0].TexCoord)
		d1 := mgl32.Vec2(vertices[i1].TexCoord).Sub(uv0)
		d2 := mgl32.Vec2(vertices[i2].TexCoord).Sub(uv0)

		det := d1[0]*d2[1] - d1[1]*d2[0]
		if det == 0 {
			continue
		}
		inv := 1 / det
		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(inv)
		b := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(inv)

		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			btan[idx] = btan[idx].Add(b)
		}
	}

	out := make([][4]float32, len(vertices))
	for i := range vertices {
		n := mgl32.Vec3(vertices[i].Normal)
		ortho := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if ortho.Len() < 1e-6 {
			ortho = perpendicular(n)
		} else {
			ortho = ortho.Normalize()
		}
		w := float32(1)
		if n.Cross(ortho).Dot(btan[i]) < 0 {
			w = -1
		}
		out[i] = [4]float32{ortho[0], ortho[1], ortho[2], w}
	}
	return out
}

// perpendicular returns a unit vector orthogonal to n.
func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return axis.Sub(n.Mul(n.Dot(axis))).Normalize()
}
