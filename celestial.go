package coorbital

import (
	"fmt"
	"strings"
)

// CelestialObject defines the central body of the rendezvous.
type CelestialObject struct {
	Name   string
	Radius float64
	μ      float64
	J2     float64
	J3     float64
	J4     float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// J returns the perturbing J_n factor for the provided n.
func (c CelestialObject) J(n uint8) float64 {
	switch n {
	case 2:
		return c.J2
	case 3:
		return c.J3
	case 4:
		return c.J4
	default:
		return 0.0
	}
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.μ == b.μ && c.J2 == b.J2
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "earth", "":
		return Earth, nil
	default:
		return CelestialObject{}, fmt.Errorf("undefined central body '%s'", name)
	}
}

/* Definitions */

// Earth is home. μ is the EGM-96 value used by the rendezvous planner.
var Earth = CelestialObject{"Earth", 6378.1363, 398600.4418, 1082.6269e-6, -2.5324e-6, -1.6204e-6}
