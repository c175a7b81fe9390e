package quaternion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripUnitQuaternion(t *testing.T) {
	cases := []Quat{
		{1, 0, 0, 0},
		Normalize(Quat{1, 1, 0, 0}),
		Normalize(Quat{0.5, 0.5, 0.5, 0.5}),
		Normalize(Quat{0.2, -0.4, 0.6, 0.1}),
	}

	for _, q := range cases {
		m := ToMatrix(q)
		back, err := ToQuat(m)
		require.NoError(t, err)
		back = Normalize(back)

		// matrixToQuat(quatToMatrix(q)) == ±q within 1e-14
		same := math.Abs(back[0]-q[0]) < 1e-14 && math.Abs(back[1]-q[1]) < 1e-14 &&
			math.Abs(back[2]-q[2]) < 1e-14 && math.Abs(back[3]-q[3]) < 1e-14
		opposite := math.Abs(back[0]+q[0]) < 1e-14 && math.Abs(back[1]+q[1]) < 1e-14 &&
			math.Abs(back[2]+q[2]) < 1e-14 && math.Abs(back[3]+q[3]) < 1e-14

		assert.True(t, same || opposite, "expected %v ~= +-%v", back, q)
	}
}

func TestNormalizeUnitMagnitude(t *testing.T) {
	q := Normalize(Quat{2, 0, 0, 0})
	assert.InDelta(t, 1.0, Dot(q, q), 1e-14)
}

func TestToQuatRejectsLowTrace(t *testing.T) {
	_, err := ToQuat(Matrix3{-1, 0, 0, 0, -1, 0, 0, 0, -1})
	assert.Error(t, err)
}

func TestNormalizeVector3Bounds(t *testing.T) {
	_, err := NormalizeVector3([3]float64{0, 0, 0})
	assert.Error(t, err)

	v, err := NormalizeVector3([3]float64{3, 0, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v[0]*v[0]+v[1]*v[1]+v[2]*v[2], 1e-14)
}
