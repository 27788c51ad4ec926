package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// cubeFace is one side of the cube, described by its outward normal and the up direction of a
// viewer looking at it from outside.
type cubeFace struct {
	normal, up mgl32.Vec3
}

var cubeFaces = [6]cubeFace{
	{normal: mgl32.Vec3{0, 0, -1}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 0, 1}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{-1, 0, 0}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{1, 0, 0}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 1, 0}, up: mgl32.Vec3{0, 0, 1}},
	{normal: mgl32.Vec3{0, -1, 0}, up: mgl32.Vec3{0, 0, -1}},
}

// Cube builds a textured cube spanning [-1, 1] on every axis: 24 vertices (four per face so each
// face has its own normal and UVs) and 36 indices. Triangles wind clockwise when viewed from
// outside, and every vertex carries a tangent frame for normal mapping.
//
// Returns:
//   - Mesh: the cube mesh
func Cube() Mesh {
	vertices := make([]GPUVertex, 0, 24)
	normals := make([]GPUNormalData, 0, 24)
	indices := make([]uint32, 0, 36)

	corners := [4]struct {
		u, r float32
		uv   [2]float32
	}{
		{u: 1, r: -1, uv: [2]float32{0, 0}},
		{u: 1, r: 1, uv: [2]float32{1, 0}},
		{u: -1, r: 1, uv: [2]float32{1, 1}},
		{u: -1, r: -1, uv: [2]float32{0, 1}},
	}

	for _, f := range cubeFaces {
		right := f.normal.Cross(f.up)
		base := uint32(len(vertices))
		for _, c := range corners {
			p := f.normal.Add(f.up.Mul(c.u)).Add(right.Mul(c.r))
			vertices = append(vertices, GPUVertex{
				Position: p,
				TexCoord: c.uv,
				Normal:   f.normal,
			})
			normals = append(normals, GPUNormalData{
				Tangent:   right,
				Bitangent: f.up.Mul(-1),
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	m, err := NewMesh("cube", vertices, indices, WithNormalData(normals))
	if err != nil {
		panic(err)
	}
	return m
}
