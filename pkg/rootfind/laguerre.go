// Package rootfind implements the two numerical root finders the nonlinear
// link stamps depend on: Laguerre's method for a polynomial system curve
// (e.g. a fan's performance curve) and Brent's method as its real-bracketed
// fallback when Laguerre converges to a complex root.
package rootfind

import (
	"math"
	"math/cmplx"

	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
)

// laguerreMR is the maximum number of limit cycles, laguerreMT the maximum
// iterations per cycle; their product bounds total iterations.
const (
	laguerreMR   = 8
	laguerreMT   = 10
	laguerreIter = laguerreMR * laguerreMT
)

// laguerreFrac is the fractional-step table used to break a rare limit
// cycle in the iteration.
var laguerreFrac = [laguerreMR + 1]float64{0.0, 0.5, 0.25, 0.75, 0.13, 0.38, 0.62, 0.88, 1.0}

const dblEpsilon = 2.220446049250313e-16

// LaguerreSolve improves a given estimate x of a complex root of the
// polynomial with the given complex coefficients (coeffs[0] is the
// constant term), returning the number of iterations taken. Returns a
// NumericError if no root is found within the iteration budget.
func LaguerreSolve(x complex128, coeffs []complex128) (complex128, int, error) {
	m := len(coeffs) - 1

	for iter := 1; iter <= laguerreIter; iter++ {
		var f, d complex128
		b := coeffs[m]
		err := cmplx.Abs(b)
		abx := cmplx.Abs(x)

		for j := m - 1; j >= 0; j-- {
			f = x*f + d
			d = x*d + b
			b = x*b + coeffs[j]
			err = cmplx.Abs(b) + abx*err
		}
		err *= dblEpsilon

		if cmplx.Abs(b) <= err {
			return x, iter, nil
		}

		g := d / b
		g2 := g * g
		h := g2 - 2.0*f/b
		sq := cmplx.Sqrt(complex(float64(m-1), 0) * (complex(float64(m), 0)*h - g2))
		gp := g + sq
		gm := g - sq
		abp := cmplx.Abs(gp)
		abm := cmplx.Abs(gm)
		if abp < abm {
			gp = gm
			abp = abm
		}

		var dx complex128
		if math.Max(abp, abm) > 0.0 {
			dx = complex(float64(m), 0) / gp
		} else {
			dx = cmplx.Rect(1.0+abx, float64(iter))
		}

		x1 := x - dx
		if x1 == x {
			return x, iter, nil
		}

		if iter%laguerreMT != 0 {
			x = x1
		} else {
			x -= complex(laguerreFrac[iter/laguerreMT], 0) * dx
		}
	}

	return x, laguerreIter, gunnserr.NewNumericError("rootfind.LaguerreSolve", "maximum iterations exceeded", false)
}

// RootsOf returns all roots of the polynomial with the given real
// coefficients (coeffs[0] is the constant term) via repeated Laguerre
// deflation, seeding each search at the origin.
func RootsOf(coeffs []float64) ([]complex128, error) {
	work := make([]complex128, len(coeffs))
	for i, c := range coeffs {
		work[i] = complex(c, 0)
	}

	full := append([]complex128(nil), work...)

	roots := make([]complex128, 0, len(coeffs)-1)
	for len(work) > 2 {
		root, _, err := LaguerreSolve(0, work)
		if err != nil {
			return roots, err
		}
		// polish once on the full (undeflated) polynomial before deflating.
		root, _, _ = LaguerreSolve(root, full)
		roots = append(roots, root)
		work = deflate(work, root)
	}
	if len(work) == 2 {
		roots = append(roots, -work[0]/work[1])
	}
	return roots, nil
}

func deflate(coeffs []complex128, root complex128) []complex128 {
	n := len(coeffs) - 1
	out := make([]complex128, n)
	out[n-1] = coeffs[n]
	for j := n - 2; j >= 0; j-- {
		out[j] = coeffs[j+1] + root*out[j+1]
	}
	return out
}
