package coorbital

import (
	"fmt"
	"time"
)

// StateVector is an inertial position (km) and velocity (km/s), always paired.
type StateVector struct {
	R, V []float64
}

// NewStateVector returns a state vector holding copies of R and V.
func NewStateVector(R, V []float64) StateVector {
	return StateVector{vecCopy(R), vecCopy(V)}
}

func (s StateVector) String() string {
	return fmt.Sprintf("R=%+v V=%+v", s.R, s.V)
}

// Asset is the chaser spacecraft.
type Asset struct {
	Name     string
	Epoch    time.Time // Epoch of the state
	State    StateVector
	DryMass  float64  // kg
	FuelMass float64  // kg
	Isp      float64  // s, overridden by the thruster if set
	MassRate float64  // kg/s, derived from the thruster if zero
	Thruster Thruster // optional
}

// Mass returns the wet mass of the asset.
func (a Asset) Mass() float64 {
	return a.DryMass + a.FuelMass
}

// Propulsion returns the specific impulse and mass flow rate to use for burn estimations.
func (a Asset) Propulsion() (isp, massRate float64) {
	isp = a.Isp
	massRate = a.MassRate
	if a.Thruster != nil {
		_, isp = a.Thruster.Thrust()
		if massRate == 0 {
			massRate = MassFlowRate(a.Thruster)
		}
	}
	return
}

func (a Asset) String() string {
	return fmt.Sprintf("%s @ %s (dry=%.1f kg fuel=%.1f kg)", a.Name, a.Epoch.Format(time.RFC3339), a.DryMass, a.FuelMass)
}

// Target is the spacecraft to rendezvous with.
type Target struct {
	Name   string
	Epoch  time.Time // Epoch of the state
	State  StateVector
	Window [2]time.Time // Permitted maneuver window
}

func (t Target) String() string {
	return fmt.Sprintf("%s @ %s (window %s - %s)", t.Name, t.Epoch.Format(time.RFC3339), t.Window[0].Format(time.RFC3339), t.Window[1].Format(time.RFC3339))
}
