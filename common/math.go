package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Basis vectors of the left-handed world space used by the engine.
// +X points right, +Y points up and +Z points into the screen.
var (
	DefaultForward = mgl32.Vec3{0, 0, 1}
	DefaultRight   = mgl32.Vec3{1, 0, 0}
	DefaultUp      = mgl32.Vec3{0, 1, 0}
)

// degenerateEpsilon is the squared length under which a cross product is treated as zero.
const degenerateEpsilon = 1e-12

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// PerspectiveFovLH builds a left-handed perspective projection for a [0, 1] depth range,
// which is what both WebGPU and Direct3D clip space expect.
// The result is laid out column-major for column vectors (clip = P * view).
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport width divided by height
//   - near: near clipping plane distance (> 0)
//   - far: far clipping plane distance (> near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func PerspectiveFovLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	yScale := 1 / math32.Tan(fovY*0.5)
	xScale := yScale / aspect
	depth := far / (far - near)

	var m mgl32.Mat4
	m[0] = xScale
	m[5] = yScale
	m[10] = depth
	m[11] = 1
	m[14] = -near * depth
	return m
}

// LookAtLH builds a left-handed view matrix looking from eye towards at.
// When the viewing direction is parallel to up, the right axis falls back to
// fallbackRight so the matrix stays finite.
//
// Parameters:
//   - eye: camera position
//   - at: point the camera looks at
//   - up: world up direction
//   - fallbackRight: right axis used when (at - eye) is parallel to up
//
// Returns:
//   - mgl32.Mat4: the view matrix
func LookAtLH(eye, at, up, fallbackRight mgl32.Vec3) mgl32.Mat4 {
	zAxis := at.Sub(eye).Normalize()
	xAxis := up.Cross(zAxis)
	if xAxis.Dot(xAxis) < degenerateEpsilon {
		xAxis = fallbackRight
	}
	xAxis = xAxis.Normalize()
	yAxis := zAxis.Cross(xAxis)

	return mgl32.Mat4{
		xAxis[0], yAxis[0], zAxis[0], 0,
		xAxis[1], yAxis[1], zAxis[1], 0,
		xAxis[2], yAxis[2], zAxis[2], 0,
		-xAxis.Dot(eye), -yAxis.Dot(eye), -zAxis.Dot(eye), 1,
	}
}

// TransformCoord transforms a point by m and divides by the resulting w.
//
// Parameters:
//   - v: the point to transform
//   - m: the transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformCoord(v mgl32.Vec3, m mgl32.Mat4) mgl32.Vec3 {
	r := m.Mul4x1(v.Vec4(1))
	if r[3] == 0 || r[3] == 1 {
		return r.Vec3()
	}
	return r.Vec3().Mul(1 / r[3])
}

// PutMat4 writes a matrix into buf in column-major order, which is the layout
// WGSL expects for mat4x4<f32>. mgl32 already stores matrices column-major, so
// no reordering is needed.
//
// Parameters:
//   - buf: destination buffer (at least 64 bytes)
//   - m: the matrix to write
func PutMat4(buf []byte, m mgl32.Mat4) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(m[i]))
	}
}

// PutVec4 writes four floats into buf.
//
// Parameters:
//   - buf: destination buffer (at least 16 bytes)
//   - v: the vector to write
func PutVec4(buf []byte, v mgl32.Vec4) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}

// ClampFloat limits v to [lo, hi].
func ClampFloat(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
