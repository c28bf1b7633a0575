package coorbital

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestBurnRocketEquation(t *testing.T) {
	est := BurnEstimator{RocketEquation}
	// 1000 kg, 300 s Isp, 1 kg/s: 100 m/s burns 1000*(1-exp(-100/(g0*300))) kg.
	d, err := est.Duration(800, 200, 300, 1, 0.1)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	exp := 1000 * (1 - math.Exp(-100/(G0*300)))
	if !floats.EqualWithinAbs(d.Seconds(), exp, 1e-6) {
		t.Fatalf("duration=%f s expected %f s", d.Seconds(), exp)
	}
	// Sign of the Δv is irrelevant.
	if dNeg, _ := est.Duration(800, 200, 300, 1, -0.1); dNeg != d {
		t.Fatalf("negative Δv gave %s instead of %s", dNeg, d)
	}
	// Doubling the mass rate halves the duration.
	if dHalf, _ := est.Duration(800, 200, 300, 2, 0.1); !floats.EqualWithinAbs(dHalf.Seconds(), exp/2, 1e-6) {
		t.Fatalf("duration=%s at twice the mass rate", dHalf)
	}
	if d0, err := est.Duration(800, 200, 300, 1, 0); err != nil || d0 != 0 {
		t.Fatalf("zero Δv gave %s (%v)", d0, err)
	}
	// The zero estimator uses the rocket equation, not the log formula.
	if dZero, err := (BurnEstimator{}).Duration(800, 200, 300, 1, 0.1); err != nil || dZero != d {
		t.Fatalf("zero estimator gave %s (%v) instead of %s", dZero, err, d)
	}
	if dLegacy, _ := (BurnEstimator{LegacyLog}).Duration(800, 200, 300, 1, 0.1); dLegacy == d {
		t.Fatal("legacy formula matches the rocket equation")
	}
}

func TestBurnLegacyLog(t *testing.T) {
	// Δv/(g0 Isp) = e^-1: the final mass is -m0, so twice the initial mass is expelled.
	isp := 300.0
	Δv := G0 * isp / math.E / 1e3
	d, err := BurnEstimator{LegacyLog}.Duration(800, 200, isp, 4, Δv)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !floats.EqualWithinAbs(d.Seconds(), 500, 1e-6) {
		t.Fatalf("duration=%f s", d.Seconds())
	}
}

func TestBurnInvalidPropulsion(t *testing.T) {
	est := BurnEstimator{RocketEquation}
	for name, args := range map[string][5]float64{
		"zero mass rate":     {800, 200, 300, 0, 0.1},
		"negative mass rate": {800, 200, 300, -1, 0.1},
		"zero isp":           {800, 200, 0, 1, 0.1},
		"massless":           {0, 0, 300, 1, 0.1},
	} {
		if _, err := est.Duration(args[0], args[1], args[2], args[3], args[4]); !errors.Is(err, ErrInvalidPropulsion) {
			t.Fatalf("[%s] expected ErrInvalidPropulsion, got %v", name, err)
		}
	}
}

func TestBurnAssetPropulsion(t *testing.T) {
	thruster := NewGenericThruster(10, 220)
	asset := Asset{DryMass: 100, FuelMass: 20, Isp: 999, Thruster: thruster}
	isp, massRate := asset.Propulsion()
	if isp != 220 || !floats.EqualWithinAbs(massRate, 10/(G0*220), 1e-15) {
		t.Fatalf("isp=%f massRate=%f", isp, massRate)
	}
	asset.MassRate = 0.5
	if _, massRate = asset.Propulsion(); massRate != 0.5 {
		t.Fatal("explicit mass rate overridden by the thruster")
	}
	d, err := BurnEstimator{RocketEquation}.AssetDuration(asset, 0.05)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	exp := 120 * (1 - math.Exp(-50/(G0*220))) / 0.5
	if !floats.EqualWithinAbs(d.Seconds(), exp, 1e-6) {
		t.Fatalf("duration=%s expected %f s", d, exp)
	}
	if d.Round(time.Second) <= 0 {
		t.Fatal("burn should last a few seconds")
	}
}

func TestBurnModelFromString(t *testing.T) {
	for name, exp := range map[string]BurnModel{"rocket": RocketEquation, "Tsiolkovsky": RocketEquation, "": RocketEquation, "LEGACY": LegacyLog} {
		if m, err := BurnModelFromString(name); err != nil || m != exp {
			t.Fatalf("%s: got %s (%v)", name, m, err)
		}
	}
	if _, err := BurnModelFromString("ion"); err == nil {
		t.Fatal("unknown model accepted")
	}
}

func TestMassFlowRate(t *testing.T) {
	if r := MassFlowRate(new(MR107)); !floats.EqualWithinAbs(r, 270/(G0*236), 1e-15) {
		t.Fatalf("MR-107 mass flow rate %f kg/s", r)
	}
	if r := MassFlowRate(NewGenericThruster(1, 0)); r != 0 {
		t.Fatalf("mass flow rate without Isp: %f", r)
	}
}
