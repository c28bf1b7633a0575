package coorbital

const (
	// G0 is the standard gravity in m/s^2.
	G0 = 9.80665
)

// Thruster defines a Thruster interface.
type Thruster interface {
	// Returns the thrust in Newtons and the specific impulse in seconds.
	Thrust() (thrust, isp float64)
}

/* Available Thrusters */

// GenericThruster is a generic chemical thruster.
type GenericThruster struct {
	thrust float64
	isp    float64
}

// Thrust implements the Thruster interface.
func (t *GenericThruster) Thrust() (thrust, isp float64) {
	return t.thrust, t.isp
}

// NewGenericThruster returns a generic thruster of the provided thrust (N) and Isp (s).
func NewGenericThruster(thrust, isp float64) *GenericThruster {
	return &GenericThruster{thrust, isp}
}

// MR107 is the Aerojet Rocketdyne MR-107S hydrazine thruster.
type MR107 struct{}

// Thrust implements the Thruster interface.
func (t *MR107) Thrust() (thrust, isp float64) {
	return 270, 236
}

// MassFlowRate returns the propellant mass flow rate in kg/s of the thruster.
func MassFlowRate(t Thruster) float64 {
	thrust, isp := t.Thrust()
	if isp <= 0 {
		return 0
	}
	return thrust / (G0 * isp)
}
