package rootfind

import (
	"math"

	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
)

const brentMaxIter = 100

// BrentSolve returns a zero of f known to lie between x1 and x2, refined
// until within tol, using Brent's method (inverse quadratic interpolation
// with bisection fallback). Returns a BoundsError if the root is not
// bracketed by x1 and x2, or a NumericError if it fails to converge within
// the iteration budget.
func BrentSolve(f func(float64) float64, x1, x2, tol float64) (float64, int, error) {
	fa := f(x1)
	fb := f(x2)

	if (fa > 0.0 && fb > 0.0) || (fa < 0.0 && fb < 0.0) {
		return 0, 0, gunnserr.NewBoundsError("rootfind.BrentSolve", "root not bracketed by x1 and x2", [2]float64{x1, x2})
	}

	a, b, c := x1, x2, x2
	var d, e float64
	fc := fb

	for iter := 1; iter <= brentMaxIter; iter++ {
		if (fb > 0.0 && fc > 0.0) || (fb < 0.0 && fc < 0.0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2.0*dblEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0.0 {
			return b, iter, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2.0 * xm * s
				q = 1.0 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2.0*xm*q*(q-r) - (b-a)*(r-1.0))
				q = (q - 1.0) * (r - 1.0) * (s - 1.0)
			}

			if p > 0.0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3.0*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)

			if 2.0*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else if xm >= 0.0 {
			b += tol1
		} else {
			b -= tol1
		}
		fb = f(b)
	}

	return 0, brentMaxIter, gunnserr.NewNumericError("rootfind.BrentSolve", "maximum iterations exceeded", false)
}
