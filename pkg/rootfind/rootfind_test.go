package rootfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Coefficients of a gas fan performance curve (m3/s vs kPa), lowest order
// first, taken from a real fan curve fit.
var fanCurveCoeffs = []float64{0.357, -24.6528, 1167.09, -21093.2, 168250, -549729}

func evalPoly(coeffs []float64, q float64) float64 {
	result := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = result*q + coeffs[i]
	}
	return result
}

func TestLaguerreFindsFanCurveRoot(t *testing.T) {
	// Seed near the expected root; Laguerre polishes toward it.
	root, iters, err := LaguerreSolve(complex(0.1, 0), toComplex(fanCurveCoeffs))
	require.NoError(t, err)
	assert.LessOrEqual(t, iters, 10)
	assert.InDelta(t, 0.09044, real(root), 1e-5)
	assert.InDelta(t, 0, imag(root), 1e-6)
}

func TestBrentFindsFanCurveRootInBracket(t *testing.T) {
	f := func(q float64) float64 { return evalPoly(fanCurveCoeffs, q) }
	root, _, err := BrentSolve(f, 0, 0.2, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, 0.09044, root, 1e-5)
}

func TestBrentRejectsUnbracketedRoot(t *testing.T) {
	f := func(q float64) float64 { return q*q + 1 }
	_, _, err := BrentSolve(f, 0, 1, 1e-6)
	assert.Error(t, err)
}

func toComplex(coeffs []float64) []complex128 {
	out := make([]complex128, len(coeffs))
	for i, c := range coeffs {
		out[i] = complex(c, 0)
	}
	return out
}
