package coorbital

import (
	"math"
)

// Perturbations defines the accelerations added to the two-body motion of the Cowell propagation.
type Perturbations struct {
	Jn        uint8                       // Zonal harmonics to account for (only J2 and J3 are supported)
	Arbitrary func(R []float64) []float64 // Additional arbitrary acceleration (km/s^2)
}

func (p Perturbations) isEmpty() bool {
	return p.Jn <= 1 && p.Arbitrary == nil
}

// Perturb returns the perturbing acceleration at the provided inertial position.
func (p Perturbations) Perturb(R []float64, body CelestialObject) []float64 {
	pert := make([]float64, 3)
	if p.isEmpty() {
		return pert
	}
	if p.Jn > 1 {
		x := R[0]
		y := R[1]
		z := R[2]
		z2 := z * z
		z3 := z2 * z
		r2 := x*x + y*y + z2
		r252 := math.Pow(r2, 5/2.)
		r272 := math.Pow(r2, 7/2.)
		// J2 (computed via SageMath: https://cloud.sagemath.com/projects/1fb6b227-1832-4f82-a05c-7e45614c00a2/files/j2perts.sagews)
		accJ2 := (3 / 2.) * body.J(2) * math.Pow(body.Radius, 2) * body.GM()
		pert[0] += accJ2 * (5*x*z2/r272 - x/r252)
		pert[1] += accJ2 * (5*y*z2/r272 - y/r252)
		pert[2] += accJ2 * (5*z3/r272 - 3*z/r252)
		if p.Jn >= 3 {
			// J3 (computed via SageMath: https://cloud.sagemath.com/#projects/1fb6b227-1832-4f82-a05c-7e45614c00a2/files/j3perts.sagews)
			r292 := math.Pow(r2, 9/2.)
			z4 := z2 * z2
			accJ3 := body.J(3) * math.Pow(body.Radius, 3) * body.GM()
			pert[0] += (5 / 2.) * accJ3 * (7*x*z3/r292 - 3*x*z/r272)
			pert[1] += (5 / 2.) * accJ3 * (7*y*z3/r292 - 3*y*z/r272)
			pert[2] += 0.5 * accJ3 * (35*z4/r292 - 30*z2/r272 + 3/r252)
		}
	}
	if p.Arbitrary != nil {
		arbs := p.Arbitrary(R)
		for i := 0; i < 3; i++ {
			pert[i] += arbs[i]
		}
	}
	return pert
}
