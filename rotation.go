package coorbital

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// Rot313Vec rotates a given vector with a 3-1-3 Euler sequence.
func Rot313Vec(θ1, θ2, θ3 float64, vI []float64) []float64 {
	return MxV33(R3R1R3(θ1, θ2, θ3), vI)
}

// PQW2ECI converts a vector from the perifocal frame to the inertial frame.
func PQW2ECI(i, ω, Ω float64, vI []float64) []float64 {
	return Rot313Vec(-ω, -i, -Ω, vI)
}

// R3R1R3 performs a 3-1-3 Euler parameter rotation.
// From Schaub and Junkins (the one in Vallado is wrong... surprinsingly, right? =/)
func R3R1R3(θ1, θ2, θ3 float64) *mat64.Dense {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return mat64.NewDense(3, 3, []float64{cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat64.Matrix, v []float64) (o []float64) {
	vVec := mat64.NewVector(len(v), v)
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// ricBasis returns the DCM from inertial to radial/in-track/cross-track (rows X, Y, Z)
// and its time derivative. The angular momentum direction is held constant.
func ricBasis(chiefR, chiefV []float64) (C, Cdot *mat64.Dense) {
	r := Norm(chiefR)
	X := unit(chiefR)
	Z := unit(cross(chiefR, chiefV))
	Y := cross(Z, X)
	xv := dot(X, chiefV)
	Xd := make([]float64, 3)
	for i := 0; i < 3; i++ {
		Xd[i] = (chiefV[i] - xv*X[i]) / r
	}
	Yd := cross(Z, Xd)
	C = mat64.NewDense(3, 3, []float64{X[0], X[1], X[2], Y[0], Y[1], Y[2], Z[0], Z[1], Z[2]})
	Cdot = mat64.NewDense(3, 3, []float64{Xd[0], Xd[1], Xd[2], Yd[0], Yd[1], Yd[2], 0, 0, 0})
	return
}

// RIC2ECI converts a deputy state expressed in the chief's radial/in-track/cross-track
// frame into the inertial frame. The chief state must not be degenerate, cf. RelativeToInertial.
func RIC2ECI(chiefR, chiefV, relR, relV []float64) (R, V []float64) {
	C, Cdot := ricBasis(chiefR, chiefV)
	R = MxV33(C.T(), relR)
	Vρ := MxV33(Cdot.T(), relR)
	Vρdot := MxV33(C.T(), relV)
	V = make([]float64, 3)
	for i := 0; i < 3; i++ {
		R[i] += chiefR[i]
		V[i] = Vρ[i] + Vρdot[i] + chiefV[i]
	}
	return
}

// RelativeToInertial is RIC2ECI but refuses a chief with a zero radius, zero angular momentum
// or non finite components.
func RelativeToInertial(chiefR, chiefV, relR, relV []float64) (R, V []float64, err error) {
	if err = checkChief(chiefR, chiefV); err != nil {
		return
	}
	if len(relR) != 3 || len(relV) != 3 {
		err = fmt.Errorf("%w: relative state must be two 3x1 vectors", ErrDegenerateInput)
		return
	}
	R, V = RIC2ECI(chiefR, chiefV, relR, relV)
	return
}

// ECI2RIC is the inverse of RIC2ECI.
func ECI2RIC(chiefR, chiefV, R, V []float64) (relR, relV []float64) {
	C, Cdot := ricBasis(chiefR, chiefV)
	relR = MxV33(C, sub(R, chiefR))
	Vρ := MxV33(Cdot.T(), relR)
	ΔV := sub(V, chiefV)
	for i := 0; i < 3; i++ {
		ΔV[i] -= Vρ[i]
	}
	relV = MxV33(C, ΔV)
	return
}

func checkChief(chiefR, chiefV []float64) error {
	if len(chiefR) != 3 || len(chiefV) != 3 {
		return fmt.Errorf("%w: chief state must be two 3x1 vectors", ErrDegenerateInput)
	}
	if !finite(chiefR) || !finite(chiefV) {
		return fmt.Errorf("%w: chief state is not finite", ErrDegenerateInput)
	}
	if floats.EqualWithinAbs(Norm(chiefR), 0, 1e-12) {
		return fmt.Errorf("%w: chief radius is zero", ErrDegenerateInput)
	}
	if floats.EqualWithinAbs(Norm(cross(chiefR, chiefV)), 0, 1e-12) {
		return fmt.Errorf("%w: chief angular momentum is zero", ErrDegenerateInput)
	}
	return nil
}
