package coorbital

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestAngles(t *testing.T) {
	for _, deg := range []float64{0, 15, 90, 179.5, 270, 359} {
		if got := Rad2deg(Deg2rad(deg)); !floats.EqualWithinAbs(got, deg, 1e-10) {
			t.Fatalf("%f deg became %f deg", deg, got)
		}
	}
	if !floats.EqualWithinAbs(Deg2rad(-90), 3*math.Pi/2, 1e-12) {
		t.Fatalf("negative angles must wrap: %f", Deg2rad(-90))
	}
}

func TestCrossDot(t *testing.T) {
	i := []float64{1, 0, 0}
	j := []float64{0, 1, 0}
	assertVector(t, "i×j", cross(i, j), []float64{0, 0, 1}, 0)
	assertVector(t, "j×i", cross(j, i), []float64{0, 0, -1}, 0)
	if dot(i, j) != 0 {
		t.Fatal("i.j != 0")
	}
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	if dot(a, b) != 32 {
		t.Fatalf("a.b = %f", dot(a, b))
	}
	if dot(cross(a, b), a) != 0 || dot(cross(a, b), b) != 0 {
		t.Fatal("cross product not orthogonal to its operands")
	}
}

func TestUnit(t *testing.T) {
	assertVector(t, "zero", unit([]float64{0, 0, 0}), []float64{0, 0, 0}, 0)
	u := unit([]float64{3, 0, 4})
	assertVector(t, "unit", u, []float64{0.6, 0, 0.8}, 1e-15)
	if !floats.EqualWithinAbs(Norm(u), 1, 1e-15) {
		t.Fatalf("|u| = %f", Norm(u))
	}
}

func TestFinite(t *testing.T) {
	if !finite([]float64{1, 2, 3}) {
		t.Fatal("finite vector flagged")
	}
	if finite([]float64{1, math.NaN(), 3}) || finite([]float64{math.Inf(-1), 0, 0}) {
		t.Fatal("non finite vector not flagged")
	}
}
