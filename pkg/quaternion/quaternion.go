// Package quaternion implements the left-handed scalar-first quaternion and
// 3x3 rotation-matrix utilities vehicle-dynamics links use to rotate
// force/torque vectors between body and reference frames. Ported from
// GunnsDynUtils's vector/matrix/quaternion routines into Go value types:
// Quat is [4]float64 (q0 scalar, q1..q3 vector) and Matrix3 is a row-major
// [9]float64, replacing the source's raw double* array API with value
// semantics (no aliasing hazard, so the source's defensive "operate on a
// copy in case output aliases input" pattern is unnecessary here).
package quaternion

import (
	"math"

	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
)

// NormTolerance is Trick's quat_norm.c tolerance: when the squared magnitude
// is within this distance of 1, Normalize uses the cheap linear correction
// factor 2/(1+mag2) instead of a full sqrt.
const NormTolerance = 2.3842e-7

// vecNormTolerance floors a vector's magnitude before normalizing by it.
const vecNormTolerance = 2.2204460492503131e-16 // DBL_EPSILON

// Quat is a left-handed, scalar-first rotation quaternion: [q0, q1, q2, q3]
// with q0 the scalar part.
type Quat [4]float64

// Vector3 is a 3-element Euclidean vector.
type Vector3 [3]float64

// Matrix3 is a row-major 3x3 matrix: element [r][c] is at index r*3+c.
type Matrix3 [9]float64

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// Dot returns the quaternion dot product of a and b.
func Dot(a, b Quat) float64 {
	return dot(a[:], b[:])
}

// Cross returns the right-hand-rule cross product a x b.
func Cross(a, b Vector3) Vector3 {
	return Vector3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Skew returns the skew-symmetric matrix of v, such that Skew(v)*w == Cross(v, w).
func Skew(v Vector3) Matrix3 {
	return Matrix3{
		0, -v[2], v[1],
		v[2], 0, -v[0],
		-v[1], v[0], 0,
	}
}

// MulMV multiplies a 3x3 matrix by a 3-vector.
func MulMV(m Matrix3, v Vector3) Vector3 {
	var out Vector3
	for row := 0; row < 3; row++ {
		s := 0.0
		for col := 0; col < 3; col++ {
			s += m[row*3+col] * v[col]
		}
		out[row] = s
	}
	return out
}

// MulMtV multiplies the transpose of a 3x3 matrix by a 3-vector.
func MulMtV(m Matrix3, v Vector3) Vector3 {
	var out Vector3
	for row := 0; row < 3; row++ {
		s := 0.0
		for col := 0; col < 3; col++ {
			s += m[col*3+row] * v[col]
		}
		out[row] = s
	}
	return out
}

// MulMM multiplies two 3x3 matrices, a * b.
func MulMM(a, b Matrix3) Matrix3 {
	var out Matrix3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			s := 0.0
			for i := 0; i < 3; i++ {
				s += a[row*3+i] * b[i*3+col]
			}
			out[row*3+col] = s
		}
	}
	return out
}

// Derivative computes the time derivative of q under angular velocity w
// (rad/s, in the frame q rotates relative to), per the standard left-handed
// scalar-first quaternion kinematic equation qDot = 0.5 * [ q.v . w ; -q0*w + q.v x w ].
func Derivative(q Quat, w Vector3) Quat {
	qv := Vector3{q[1], q[2], q[3]}
	skewQV := Skew(qv)
	skewed := MulMV(skewQV, w)
	q0w := Vector3{-q[0] * w[0], -q[0] * w[1], -q[0] * w[2]}

	var out Quat
	out[0] = dot(qv[:], w[:])
	out[1] = skewed[0] + q0w[0]
	out[2] = skewed[1] + q0w[1]
	out[3] = skewed[2] + q0w[2]
	for i := range out {
		out[i] *= 0.5
	}
	return out
}

// ToMatrix computes the 3x3 rotation transformation matrix corresponding to
// the left-handed scalar-first quaternion q.
func ToMatrix(q Quat) Matrix3 {
	q0, q1, q2, q3 := q[0], q[1], q[2], q[3]
	return Matrix3{
		1.0 - 2.0*(q2*q2+q3*q3), 2.0 * (q1*q2 - q0*q3), 2.0 * (q1*q3 + q0*q2),
		2.0 * (q1*q2 + q0*q3), 1.0 - 2.0*(q1*q1+q3*q3), 2.0 * (q2*q3 - q0*q1),
		2.0 * (q1*q3 - q0*q2), 2.0 * (q2*q3 + q0*q1), 1.0 - 2.0*(q1*q1+q2*q2),
	}
}

// ToQuat computes the (unnormalized) left-handed scalar-first quaternion
// corresponding to rotation matrix m. Fails with a NumericError if the
// matrix trace is at or below -1, which would require a division by zero.
func ToQuat(m Matrix3) (Quat, error) {
	diags := m[0] + m[4] + m[8]
	if diags <= -1.0 {
		return Quat{}, gunnserr.NewNumericError("quaternion.ToQuat", "matrix trace <= -1, singular conversion", false)
	}
	var q Quat
	q[0] = 0.5 * math.Sqrt(1.0+diags)
	q[1] = 0.25 * (m[7] - m[5]) / q[0]
	q[2] = 0.25 * (m[2] - m[6]) / q[0]
	q[3] = 0.25 * (m[3] - m[1]) / q[0]
	return q, nil
}

// Normalize returns q scaled to unit magnitude. Near magnitude 1 (within
// NormTolerance of 1 in squared-magnitude terms) it uses the cheaper linear
// correction 2/(1+mag2) instead of a full sqrt, matching Trick's quat_norm.
func Normalize(q Quat) Quat {
	mag2 := dot(q[:], q[:])
	var factor float64
	if math.Abs(1.0-mag2) < NormTolerance {
		factor = 2.0 / (1.0 + mag2)
	} else {
		factor = 1.0 / math.Sqrt(mag2)
	}
	for i := range q {
		q[i] *= factor
	}
	return q
}

// NormalizeVector3 returns v scaled to unit magnitude. Fails with a
// NumericError if v's magnitude is below vecNormTolerance.
func NormalizeVector3(v Vector3) (Vector3, error) {
	mag := Magnitude(v[:])
	if mag < vecNormTolerance {
		return v, gunnserr.NewNumericError("quaternion.NormalizeVector3", "vector magnitude too small to normalize", false)
	}
	factor := 1.0 / mag
	return Vector3{v[0] * factor, v[1] * factor, v[2] * factor}, nil
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
