package math3d

import (
	"errors"
	"math"
)

var (
	// ErrSingularMatrix is returned when a matrix has no inverse.
	ErrSingularMatrix = errors.New("math3d: singular matrix")
	// ErrDegenerateBasis is returned when a camera basis cannot be built,
	// because the eye sits on the target or up is parallel to the view axis.
	ErrDegenerateBasis = errors.New("math3d: degenerate camera basis")
)

// Mat4 is a 4x4 matrix stored in column-major order and applied to column
// vectors: M.MulVec4(v) computes M·v, and A.Mul(B) applies B first.
//
// Element (row, col) lives at index row+col*4:
//
//	| 0  4  8  12 |
//	| 1  5  9  13 |
//	| 2  6  10 14 |
//	| 3  7  11 15 |
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation by v.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale returns a non-uniform scale by v.
func Scale(v Vec3) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// ScaleUniform returns a uniform scale by s.
func ScaleUniform(s float64) Mat4 {
	return Scale(V3(s, s, s))
}

// RotateX returns a right-handed rotation of angle radians about +X.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m[5], m[6] = c, s
	m[9], m[10] = -s, c
	return m
}

// RotateY returns a right-handed rotation of angle radians about +Y.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m[0], m[2] = c, -s
	m[8], m[10] = s, c
	return m
}

// RotateZ returns a right-handed rotation of angle radians about +Z.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m[0], m[1] = c, s
	m[4], m[5] = -s, c
	return m
}

// Rotate returns a rotation of angle radians about an arbitrary axis.
func Rotate(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c

	return Mat4{
		t*a.X*a.X + c, t*a.X*a.Y + s*a.Z, t*a.X*a.Z - s*a.Y, 0,
		t*a.X*a.Y - s*a.Z, t*a.Y*a.Y + c, t*a.Y*a.Z + s*a.X, 0,
		t*a.X*a.Z + s*a.Y, t*a.Y*a.Z - s*a.X, t*a.Z*a.Z + c, 0,
		0, 0, 0, 1,
	}
}

// EulerXYZ returns RotateZ(z)·RotateY(y)·RotateX(x), so X is applied first.
func EulerXYZ(x, y, z float64) Mat4 {
	return RotateZ(z).Mul(RotateY(y)).Mul(RotateX(x))
}

// LookAt builds a world-to-camera matrix for an eye looking at target.
//
// The camera looks down its local -Z: forward is eye-target, side is
// up×forward and the recomputed up is forward×side. The rows of the
// rotation are {side, up, forward}, composed with a translation by -eye.
func LookAt(eye, target, up Vec3) (Mat4, error) {
	forward := eye.Sub(target)
	if forward.LenSq() < Epsilon {
		return Mat4{}, ErrDegenerateBasis
	}
	forward = forward.Normalize()

	side := up.Normalize().Cross(forward)
	if side.LenSq() < Epsilon {
		return Mat4{}, ErrDegenerateBasis
	}
	side = side.Normalize()
	camUp := forward.Cross(side)

	return Mat4{
		side.X, camUp.X, forward.X, 0,
		side.Y, camUp.Y, forward.Y, 0,
		side.Z, camUp.Z, forward.Z, 0,
		-side.Dot(eye), -camUp.Dot(eye), -forward.Dot(eye), 1,
	}, nil
}

// Perspective returns a symmetric frustum projection. top and right are the
// half extents of the near plane; near and far are positive distances.
//
// Points at distance near map to NDC z=-1 and points at far map to z=+1.
// The resulting clip w is the view-space distance in front of the eye.
func Perspective(top, right, near, far float64) Mat4 {
	fn := far - near
	return Mat4{
		near / right, 0, 0, 0,
		0, near / top, 0, 0,
		0, 0, -(far + near) / fn, -1,
		0, 0, -2 * far * near / fn, 0,
	}
}

// PerspectiveFov returns the same projection as Perspective for a vertical
// field of view fovy (radians) and aspect ratio width/height.
func PerspectiveFov(fovy, aspect, near, far float64) Mat4 {
	top := near * math.Tan(fovy/2)
	return Perspective(top, top*aspect, near, far)
}

// Viewport maps normalized device coordinates [-1,1]³ onto
// [0,width]×[0,height]×[0,1]. Y is not flipped, so row 0 is the bottom of
// the image.
func Viewport(width, height int) Mat4 {
	hw, hh := float64(width)/2, float64(height)/2
	return Mat4{
		hw, 0, 0, 0,
		0, hh, 0, 0,
		0, 0, 0.5, 0,
		hw, hh, 0.5, 1,
	}
}

// Mul returns a·b.
//
//nolint:st1016 // a*b reads better for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			m[row+col*4] = a[row]*b[col*4] +
				a[row+4]*b[1+col*4] +
				a[row+8]*b[2+col*4] +
				a[row+12]*b[3+col*4]
		}
	}
	return m
}

// MulVec4 returns m·v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// MulPoint transforms v as a point and divides by the resulting w.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return m.MulVec4(Point(v)).PerspectiveDivide().Vec3()
}

// MulDir transforms v as a direction, ignoring translation.
func (m Mat4) MulDir(v Vec3) Vec3 {
	return m.MulVec4(Dir(v)).Vec3()
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for col := range 4 {
		for row := range 4 {
			t[col+row*4] = m[row+col*4]
		}
	}
	return t
}

// minors holds the twelve 2x2 determinants shared by Determinant and
// Inverse. aCR names the element in column C, row R.
type minors struct {
	b00, b01, b02, b03, b04, b05, b06, b07, b08, b09, b10, b11 float64
}

func (m Mat4) minors() minors {
	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]
	return minors{
		b00: a00*a11 - a01*a10,
		b01: a00*a12 - a02*a10,
		b02: a00*a13 - a03*a10,
		b03: a01*a12 - a02*a11,
		b04: a01*a13 - a03*a11,
		b05: a02*a13 - a03*a12,
		b06: a20*a31 - a21*a30,
		b07: a20*a32 - a22*a30,
		b08: a20*a33 - a23*a30,
		b09: a21*a32 - a22*a31,
		b10: a21*a33 - a23*a31,
		b11: a22*a33 - a23*a32,
	}
}

func (b minors) det() float64 {
	return b.b00*b.b11 - b.b01*b.b10 + b.b02*b.b09 + b.b03*b.b08 - b.b04*b.b07 + b.b05*b.b06
}

// Determinant returns det(m).
func (m Mat4) Determinant() float64 {
	return m.minors().det()
}

// Inverse returns m⁻¹, or ErrSingularMatrix when m is singular to within
// Epsilon. The test is relative to the size of m's columns, so a uniform
// scale is invertible however small it is.
func (m Mat4) Inverse() (Mat4, error) {
	b := m.minors()
	det := b.det()
	// Hadamard: |det| never exceeds the product of the column lengths.
	bound := 1.0
	for c := range 4 {
		bound *= math.Sqrt(m[c*4]*m[c*4] + m[c*4+1]*m[c*4+1] + m[c*4+2]*m[c*4+2] + m[c*4+3]*m[c*4+3])
	}
	if !(math.Abs(det) > Epsilon*bound) {
		return Mat4{}, ErrSingularMatrix
	}
	inv := 1 / det

	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]

	return Mat4{
		(a11*b.b11 - a12*b.b10 + a13*b.b09) * inv,
		(a02*b.b10 - a01*b.b11 - a03*b.b09) * inv,
		(a31*b.b05 - a32*b.b04 + a33*b.b03) * inv,
		(a22*b.b04 - a21*b.b05 - a23*b.b03) * inv,
		(a12*b.b08 - a10*b.b11 - a13*b.b07) * inv,
		(a00*b.b11 - a02*b.b08 + a03*b.b07) * inv,
		(a32*b.b02 - a30*b.b05 - a33*b.b01) * inv,
		(a20*b.b05 - a22*b.b02 + a23*b.b01) * inv,
		(a10*b.b10 - a11*b.b08 + a13*b.b06) * inv,
		(a01*b.b08 - a00*b.b10 - a03*b.b06) * inv,
		(a30*b.b04 - a31*b.b02 + a33*b.b00) * inv,
		(a21*b.b02 - a20*b.b04 - a23*b.b00) * inv,
		(a11*b.b07 - a10*b.b09 - a12*b.b06) * inv,
		(a00*b.b09 - a01*b.b07 + a02*b.b06) * inv,
		(a31*b.b01 - a30*b.b03 - a32*b.b00) * inv,
		(a20*b.b03 - a21*b.b01 + a22*b.b00) * inv,
	}, nil
}

// NormalMatrix returns the inverse-transpose of m, which carries surface
// normals through non-uniform scales.
func (m Mat4) NormalMatrix() (Mat4, error) {
	inv, err := m.Inverse()
	if err != nil {
		return Mat4{}, err
	}
	return inv.Transpose(), nil
}

// At returns the element at (row, col).
func (m Mat4) At(row, col int) float64 {
	return m[row+col*4]
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// ApproxEqual reports whether every element of a and b differs by at most tol.
//
//nolint:st1016
func (a Mat4) ApproxEqual(b Mat4, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
