package coorbital

import (
	"math"
	"time"

	"github.com/ChristopherRabotin/ode"
)

const (
	// StepSize is the default step size of the Cowell propagation.
	StepSize       = 10 * time.Second
	keplerMaxIter  = 100
	keplerχε       = 1e-9
	stumpffε       = 1e-6
	keplerα        = 1e-6 // Below this inverse semi-major axis, the orbit is treated as parabolic or hyperbolic.
	propagatorTiny = 1e-9 // seconds
)

// Propagator advances an inertial state by a number of seconds (of either sign).
// Implementations must be deterministic and free of side effects, and must not alter R nor V:
// the rendezvous search calls them from several goroutines.
type Propagator interface {
	Propagate(R, V []float64, elapsed float64) (Rf, Vf []float64)
}

// Ephemeris returns the inertial state of an object t seconds after the planning epoch.
type Ephemeris func(t float64) (R, V []float64)

// NewEphemeris returns the ephemeris of the provided state propagated with p, where
// offset is the number of seconds between the state epoch and the planning epoch.
func NewEphemeris(p Propagator, state StateVector, offset float64) Ephemeris {
	R := vecCopy(state.R)
	V := vecCopy(state.V)
	return func(t float64) ([]float64, []float64) {
		return p.Propagate(R, V, offset+t)
	}
}

/* Two-body closed form */

// KeplerPropagator propagates two-body motion with the universal variable formulation
// (Vallado, algorithm 8). It is exact up to the Newton tolerance on χ.
type KeplerPropagator struct {
	Body CelestialObject
}

// Propagate implements the Propagator interface.
func (k KeplerPropagator) Propagate(R, V []float64, Δt float64) ([]float64, []float64) {
	if math.Abs(Δt) < propagatorTiny {
		return vecCopy(R), vecCopy(V)
	}
	μ := k.Body.GM()
	sμ := math.Sqrt(μ)
	r0 := Norm(R)
	v0 := Norm(V)
	rv := dot(R, V)
	α := -v0*v0/μ + 2/r0
	var χ float64
	if α > keplerα {
		χ = sμ * Δt * α
	} else if α < -keplerα {
		a := 1 / α
		sΔt := sign(Δt)
		χ = sΔt * math.Sqrt(-a) * math.Log((-2*μ*α*Δt)/(rv+sΔt*math.Sqrt(-μ*a)*(1-r0*α)))
	} else {
		h := cross(R, V)
		p := dot(h, h) / μ
		s := 0.5 * math.Atan(1/(3*math.Sqrt(μ/(p*p*p))*Δt))
		w := math.Atan(math.Cbrt(math.Tan(s)))
		χ = math.Sqrt(p) * 2 / math.Tan(2*w)
	}
	var ψ, c2, c3, r float64
	for iter := 0; iter < keplerMaxIter; iter++ {
		ψ = χ * χ * α
		c2, c3 = stumpff(ψ)
		r = χ*χ*c2 + rv/sμ*χ*(1-ψ*c3) + r0*(1-ψ*c2)
		χn := χ + (sμ*Δt-χ*χ*χ*c3-rv/sμ*χ*χ*c2-r0*χ*(1-ψ*c3))/r
		if math.Abs(χn-χ) < keplerχε {
			χ = χn
			break
		}
		χ = χn
	}
	ψ = χ * χ * α
	c2, c3 = stumpff(ψ)
	r = χ*χ*c2 + rv/sμ*χ*(1-ψ*c3) + r0*(1-ψ*c2)
	f := 1 - χ*χ/r0*c2
	g := Δt - χ*χ*χ/sμ*c3
	gDot := 1 - χ*χ/r*c2
	fDot := sμ / (r * r0) * χ * (ψ*c3 - 1)
	Rf := make([]float64, 3)
	Vf := make([]float64, 3)
	for i := 0; i < 3; i++ {
		Rf[i] = f*R[i] + g*V[i]
		Vf[i] = fDot*R[i] + gDot*V[i]
	}
	return Rf, Vf
}

// stumpff returns the c2 and c3 Stumpff functions of ψ.
func stumpff(ψ float64) (c2, c3 float64) {
	if ψ > stumpffε {
		sψ := math.Sqrt(ψ)
		ssψ, csψ := math.Sincos(sψ)
		c2 = (1 - csψ) / ψ
		c3 = (sψ - ssψ) / math.Sqrt(ψ*ψ*ψ)
	} else if ψ < -stumpffε {
		sψ := math.Sqrt(-ψ)
		c2 = (1 - math.Cosh(sψ)) / ψ
		c3 = (math.Sinh(sψ) - sψ) / math.Sqrt(-ψ*ψ*ψ)
	} else {
		c2 = 1 / 2.
		c3 = 1 / 6.
	}
	return
}

/* Cowell integration */

// CowellPropagator integrates the Cartesian equations of motion with a fixed step RK4,
// including the perturbations (if any).
type CowellPropagator struct {
	Body  CelestialObject
	Step  time.Duration
	Perts Perturbations
}

// Propagate implements the Propagator interface. Backward propagations integrate the
// time-reversed dynamics with a positive step.
func (c CowellPropagator) Propagate(R, V []float64, elapsed float64) ([]float64, []float64) {
	if math.Abs(elapsed) < propagatorTiny {
		return vecCopy(R), vecCopy(V)
	}
	step := c.Step.Seconds()
	if step <= 0 {
		step = StepSize.Seconds()
	}
	steps := int(math.Ceil(math.Abs(elapsed) / step))
	arc := &cowellArc{
		body:      c.Body,
		perts:     c.Perts,
		direction: sign(elapsed),
		state:     []float64{R[0], R[1], R[2], V[0], V[1], V[2]},
		steps:     steps,
	}
	ode.NewRK4(0, math.Abs(elapsed)/float64(steps), arc).Solve() // Blocking.
	return arc.state[:3], arc.state[3:]
}

// cowellArc is the ode.Integrable of a single propagation.
type cowellArc struct {
	body      CelestialObject
	perts     Perturbations
	direction float64
	state     []float64
	steps     int
	done      int
}

// GetState implements the ode.Integrable interface.
func (a *cowellArc) GetState() []float64 {
	return a.state
}

// SetState implements the ode.Integrable interface.
func (a *cowellArc) SetState(t float64, s []float64) {
	a.state = []float64{s[0], s[1], s[2], s[3], s[4], s[5]}
	a.done++
}

// Stop implements the ode.Integrable interface.
func (a *cowellArc) Stop(t float64) bool {
	return a.done >= a.steps
}

// Func implements the ode.Integrable interface.
func (a *cowellArc) Func(t float64, f []float64) (fDot []float64) {
	fDot = make([]float64, 6)
	R := []float64{f[0], f[1], f[2]}
	bodyAcc := -a.body.GM() / math.Pow(Norm(R), 3)
	pert := a.perts.Perturb(R, a.body)
	for i := 0; i < 3; i++ {
		// d\vec{R}/dt
		fDot[i] = a.direction * f[i+3]
		// d\vec{V}/dt
		fDot[i+3] = a.direction * (bodyAcc*f[i] + pert[i])
	}
	return
}
