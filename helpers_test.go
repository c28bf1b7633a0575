package coorbital

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

// circular returns the state on a circular orbit of radius r (km) inclined by inc about the X axis,
// at the argument of latitude u (both in degrees).
func circular(r, u, inc float64) StateVector {
	v := math.Sqrt(Earth.GM() / r)
	su, cu := math.Sincos(u * deg2rad)
	si, ci := math.Sincos(inc * deg2rad)
	return StateVector{
		R: []float64{r * cu, r * su * ci, r * su * si},
		V: []float64{-v * su, v * cu * ci, v * cu * si},
	}
}

// circularPeriod returns the period in seconds of a circular orbit of radius r.
func circularPeriod(r float64) float64 {
	return 2 * math.Pi * math.Sqrt(r*r*r/Earth.GM())
}

func vectorsEqualWithin(a, b []float64, tol float64) bool {
	for i := range a {
		if !floats.EqualWithinAbs(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

func assertVector(t *testing.T, name string, got, exp []float64, tol float64) {
	t.Helper()
	if !vectorsEqualWithin(got, exp, tol) {
		t.Fatalf("%s: got %+v expected %+v (tol %g)", name, got, exp, tol)
	}
}
