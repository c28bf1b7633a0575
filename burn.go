package coorbital

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// BurnModel defines how a delta-v is converted into a burn duration.
type BurnModel uint8

const (
	// RocketEquation uses the Tsiolkovsky rocket equation.
	RocketEquation BurnModel = iota + 1
	// LegacyLog divides the initial mass by the logarithm of Δv/(g0*Isp). This formula does
	// not follow from the rocket equation and is only kept to reproduce historical plans.
	LegacyLog
)

func (m BurnModel) String() string {
	switch m {
	case RocketEquation:
		return "rocket"
	case LegacyLog:
		return "legacy"
	default:
		return "unknown"
	}
}

// BurnModelFromString returns the burn model from its name.
func BurnModelFromString(name string) (BurnModel, error) {
	switch strings.ToLower(name) {
	case "rocket", "tsiolkovsky", "":
		return RocketEquation, nil
	case "legacy":
		return LegacyLog, nil
	default:
		return 0, fmt.Errorf("unknown burn model '%s'", name)
	}
}

// BurnEstimator converts a delta-v magnitude into a burn duration.
// The zero Model is RocketEquation, which departs from the historical planner: its log formula
// is only used when LegacyLog is selected (burn.model = "legacy").
type BurnEstimator struct {
	Model BurnModel
}

// Duration returns the burn duration needed to impart Δv (in km/s) given the dry and fuel masses (kg),
// the specific impulse (s) and the mass flow rate (kg/s).
func (b BurnEstimator) Duration(dryMass, fuelMass, isp, massRate, Δv float64) (time.Duration, error) {
	if massRate <= 0 || isp <= 0 {
		return 0, fmt.Errorf("%w: Isp=%f s mass rate=%f kg/s", ErrInvalidPropulsion, isp, massRate)
	}
	if dryMass+fuelMass <= 0 {
		return 0, fmt.Errorf("%w: spacecraft has no mass", ErrInvalidPropulsion)
	}
	if Δv == 0 {
		return 0, nil
	}
	ΔvMS := math.Abs(Δv) * 1e3
	m0 := dryMass + fuelMass
	var mf float64
	switch b.Model {
	case LegacyLog:
		mf = m0 / math.Log(ΔvMS/(G0*isp))
	default:
		mf = m0 * math.Exp(-ΔvMS/(G0*isp))
	}
	seconds := (m0 - mf) / massRate
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("%w: %s model diverged for Δv=%f km/s", ErrInvalidPropulsion, b.Model, Δv)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// AssetDuration is Duration with the propulsion parameters of the provided asset.
func (b BurnEstimator) AssetDuration(a Asset, Δv float64) (time.Duration, error) {
	isp, massRate := a.Propulsion()
	return b.Duration(a.DryMass, a.FuelMass, isp, massRate, Δv)
}
