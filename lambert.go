package coorbital

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	lambertMaxIterations = 100
	lambertTε            = 1e-6  // Time epsilon (seconds)
	lambertPε            = 1e-4  // Offset from the geometric bounds on p (km)
	lambertSinε          = 1e-10 // Below this |sin Δν| the positions are collinear with the origin
	lambertRε            = 1e-12
)

// LongWay returns whether the transfer from r1 to r2 goes the long way around (Δν > π),
// based on the sign of the angle between their projections on the XY plane.
// Swapping the arguments flips the result unless both are collinear.
func LongWay(r1, r2 []float64) bool {
	det := r1[0]*r2[1] - r1[1]*r2[0]
	return math.Atan2(det, dot(r1, r2)) < 0
}

// SolveLambert solves the Lambert boundary problem with the p-iteration technique
// (Bate, Mueller and White, 1971). Given the initial and final radii, the time of flight Δt
// (in seconds) and the number of complete revolutions, it returns the velocities at both ends
// of the connecting arc. The direction of motion is determined by LongWay.
// Errors are ErrDegenerateInput, ErrInfeasibleGeometry or ErrNonConvergence (all wrapped).
func SolveLambert(Ri, Rf *mat64.Vector, Δt float64, revs int, body CelestialObject) (Vi, Vf *mat64.Vector, err error) {
	var iterations int
	Vi, Vf, iterations, err = pIteration(Ri, Rf, Δt, revs, body)
	switch {
	case err == nil:
		lambertSolutions.WithLabelValues(outcomeConverged).Inc()
		lambertIterations.Observe(float64(iterations))
	case errors.Is(err, ErrInfeasibleGeometry):
		lambertSolutions.WithLabelValues(outcomeInfeasible).Inc()
	case errors.Is(err, ErrNonConvergence):
		lambertSolutions.WithLabelValues(outcomeNonConverged).Inc()
	default:
		lambertSolutions.WithLabelValues(outcomeDegenerate).Inc()
	}
	return
}

func pIteration(Ri, Rf *mat64.Vector, Δt float64, revs int, body CelestialObject) (Vi, Vf *mat64.Vector, iteration int, err error) {
	// Sanity checks
	if Ri == nil || Rf == nil || Ri.Len() != 3 || Rf.Len() != 3 {
		err = fmt.Errorf("%w: initial and final radii must be 3x1 vectors", ErrDegenerateInput)
		return
	}
	if !(Δt > 0) || math.IsInf(Δt, 0) {
		err = fmt.Errorf("%w: time of flight must be positive, got %f s", ErrDegenerateInput, Δt)
		return
	}
	if revs < 0 {
		err = fmt.Errorf("%w: revolution count must be positive, got %d", ErrDegenerateInput, revs)
		return
	}
	r1 := mat64.Norm(Ri, 2)
	r2 := mat64.Norm(Rf, 2)
	if floats.EqualWithinAbs(r1, 0, lambertRε) || floats.EqualWithinAbs(r2, 0, lambertRε) {
		err = fmt.Errorf("%w: zero radius", ErrDegenerateInput)
		return
	}
	μ := body.GM()
	cosΔν := mat64.Dot(Ri, Rf) / (r1 * r2)
	sinΔν := math.Sqrt(math.Max(0, 1-cosΔν*cosΔν))
	if sinΔν < lambertSinε {
		err = fmt.Errorf("%w: radii are collinear with the origin", ErrDegenerateInput)
		return
	}
	k := r1 * r2 * (1 - cosΔν)
	l := r1 + r2
	m := r1 * r2 * (1 + cosΔν)
	var p float64
	if LongWay(vecOf(Ri), vecOf(Rf)) {
		sinΔν = -sinΔν
		p = k/(l-math.Sqrt(2*m)) - lambertPε
	} else {
		p = k/(l+math.Sqrt(2*m)) + lambertPε
	}

	var a, f, g, gDot float64
	converged := false
	for iteration = 0; iteration < lambertMaxIterations; iteration++ {
		a = m * k * p / ((2*m-l*l)*p*p + 2*k*l*p - k*k)
		if a < 0 || p < 0 {
			err = fmt.Errorf("%w: a=%f p=%f after %d iterations", ErrInfeasibleGeometry, a, p, iteration)
			return
		}
		// Gauss f and g functions.
		f = 1 - r2*(1-cosΔν)/p
		g = r1 * r2 * sinΔν / math.Sqrt(μ*p)
		fDot := math.Sqrt(μ/p) * ((1 - cosΔν) / sinΔν) * ((1-cosΔν)/p - 1/r1 - 1/r2)
		gDot = 1 - r1*(1-cosΔν)/p
		// Eccentric anomaly difference.
		cosΔE := math.Max(-1, math.Min(1, 1-(r1/a)*(1-f)))
		sinΔE := -r1 * r2 * fDot / math.Sqrt(μ*a)
		ΔE := math.Acos(cosΔE)
		if sinΔE < 0 {
			ΔE = 2*math.Pi - ΔE
		}
		ΔE = math.Mod(ΔE, 2*math.Pi)
		if ΔE < 0 {
			ΔE += 2 * math.Pi
		}
		sqrta3μ := math.Sqrt(a * a * a / μ)
		t := g + sqrta3μ*(2*math.Pi*float64(revs)+ΔE-sinΔE)
		if math.IsNaN(t) || math.IsInf(t, 0) {
			err = fmt.Errorf("%w: time of flight is not finite after %d iterations", ErrNonConvergence, iteration)
			return
		}
		if math.Abs(t-Δt) <= lambertTε {
			converged = true
			break
		}
		// Newton step on p.
		dtdp := -g/(2*p) - 1.5*a*(t-g)*((k*k+(2*m-l*l)*p*p)/(m*k*p*p)) + sqrta3μ*2*k*sinΔE/(p*(k-l*p))
		p -= (t - Δt) / dtdp
	}
	if !converged {
		err = fmt.Errorf("%w: did not converge after %d iterations", ErrNonConvergence, lambertMaxIterations)
		return
	}
	// Compute velocities
	Vi = mat64.NewVector(3, nil)
	Vf = mat64.NewVector(3, nil)
	Vi.AddScaledVec(Rf, -f, Ri)
	Vi.ScaleVec(1/g, Vi)
	Rf2 := mat64.NewVector(3, nil)
	Rf2.ScaleVec(gDot, Rf)
	Vf.AddScaledVec(Rf2, -1, Ri)
	Vf.ScaleVec(1/g, Vf)
	return
}
