package coorbital

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/gonum/floats"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// farTarget is a point out of reach of any prograde elliptical arc from low Earth orbit.
func farTarget(t float64) ([]float64, []float64) {
	return []float64{-40000, -5000, -3000}, []float64{0, -3, 0}
}

func keplerEphemeris(s StateVector) Ephemeris {
	return NewEphemeris(KeplerPropagator{Earth}, s, 0)
}

const (
	referenceDv   = 0.29642076726431493
	referenceTime = 4696.875
)

func TestSearchReference(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	target := circular(7100, 15, 28.5)
	feasible := testutil.ToFloat64(searchCandidates.WithLabelValues("true"))
	res, err := SearchRendezvous(asset.R, asset.V, keplerEphemeris(target), 1800, 14400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !floats.EqualWithinAbs(res.TotalDv, referenceDv, 1e-6) {
		t.Fatalf("total Δv=%f km/s expected %f km/s", res.TotalDv, referenceDv)
	}
	if res.ManeuverTime != referenceTime {
		t.Fatalf("maneuver time=%f s expected %f s", res.ManeuverTime, referenceTime)
	}
	if !floats.EqualWithinAbs(Norm(res.Dv1)+Norm(res.Dv2), res.TotalDv, 1e-15) {
		t.Fatal("total Δv is not the sum of both burns")
	}
	if !floats.EqualWithinAbs(Norm(res.Dv1), 0.19097615960338746, 1e-6) {
		t.Fatalf("|Δv1|=%f km/s", Norm(res.Dv1))
	}
	if len(res.PassBest) != SearchPasses {
		t.Fatalf("expected %d pass results, got %d", SearchPasses, len(res.PassBest))
	}
	if !floats.EqualWithinAbs(res.PassBest[0], 0.6685454271442548, 1e-6) {
		t.Fatalf("first pass best=%f", res.PassBest[0])
	}
	for i := 1; i < len(res.PassBest); i++ {
		if res.PassBest[i] > res.PassBest[i-1] {
			t.Fatalf("pass %d increased the best Δv: %+v", i, res.PassBest)
		}
	}
	if res.PassBest[SearchPasses-1] != res.TotalDv {
		t.Fatal("last pass best differs from the result")
	}
	if res.Feasible != 73 || res.Candidates <= res.Feasible {
		t.Fatalf("candidates=%d feasible=%d", res.Candidates, res.Feasible)
	}
	if got := testutil.ToFloat64(searchCandidates.WithLabelValues("true")) - feasible; got != float64(res.Feasible) {
		t.Fatalf("%f feasible candidates counted, expected %d", got, res.Feasible)
	}
}

func TestSearchCoplanar(t *testing.T) {
	asset := circular(7000, 0, 0)
	target := circular(7000, 10, 0)
	res, err := SearchRendezvous(asset.R, asset.V, keplerEphemeris(target), 1800, 14400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !floats.EqualWithinAbs(res.TotalDv, 0.14116748326478795, 1e-6) || res.ManeuverTime != 5617.96875 {
		t.Fatalf("got %f km/s at %f s", res.TotalDv, res.ManeuverTime)
	}
}

func TestSearchSkipsInfeasible(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	reachable := keplerEphemeris(circular(7100, 15, 28.5))
	eph := func(t float64) ([]float64, []float64) {
		if t < 3600 {
			return farTarget(t)
		}
		return reachable(t)
	}
	var skipped int
	s := NewSearcher(Earth, DefaultSearchSettings(), nil)
	s.Trace = func(c Candidate) {
		if !c.Feasible() {
			skipped++
			if !math.IsNaN(c.TotalDv) {
				t.Fatalf("infeasible candidate at %f s has a Δv", c.Epoch)
			}
		}
	}
	res, err := s.Minimize(asset.R, asset.V, eph, 1800, 14400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if skipped == 0 {
		t.Fatal("no candidate was skipped")
	}
	if !floats.EqualWithinAbs(res.TotalDv, referenceDv, 1e-6) || res.ManeuverTime != referenceTime {
		t.Fatalf("got %f km/s at %f s", res.TotalDv, res.ManeuverTime)
	}
}

func TestSearchNoFeasibleCandidate(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	res, err := SearchRendezvous(asset.R, asset.V, farTarget, 60, 600)
	if !errors.Is(err, ErrNoFeasibleCandidate) {
		t.Fatalf("expected ErrNoFeasibleCandidate, got %v", err)
	}
	if !math.IsNaN(res.ManeuverTime) {
		t.Fatalf("maneuver time must not look valid, got %f", res.ManeuverTime)
	}
	if res.Feasible != 0 || res.Candidates == 0 || res.Dv1 != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, best := range res.PassBest {
		if !math.IsInf(best, 1) {
			t.Fatalf("pass best should be infinite, got %+v", res.PassBest)
		}
	}
}

func TestSearchLateFirstFeasiblePass(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	reachable := keplerEphemeris(circular(7100, 15, 28.5))
	eph := func(t float64) ([]float64, []float64) {
		if t == 1800 {
			return farTarget(t)
		}
		return reachable(t)
	}
	// The first pass only samples 1800 s.
	res, err := SearchRendezvous(asset.R, asset.V, eph, 1800, 5400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !math.IsInf(res.PassBest[0], 1) {
		t.Fatalf("first pass found a transfer: %+v", res.PassBest)
	}
	if math.IsInf(res.TotalDv, 0) || math.IsNaN(res.ManeuverTime) || res.Feasible == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.PassBest[SearchPasses-1] != res.TotalDv {
		t.Fatalf("last pass best %f differs from %f", res.PassBest[SearchPasses-1], res.TotalDv)
	}
}

func TestSearchDegenerateTarget(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	radial := func(t float64) ([]float64, []float64) {
		return []float64{7100, 0, 0}, []float64{1, 0, 0}
	}
	s := NewSearcher(Earth, DefaultSearchSettings(), nil)
	s.Trace = func(c Candidate) {
		if c.Epoch > 0 && !errors.Is(c.Err, ErrDegenerateInput) {
			t.Fatalf("candidate at %f s: expected ErrDegenerateInput, got %v", c.Epoch, c.Err)
		}
	}
	if _, err := s.Minimize(asset.R, asset.V, radial, 1800, 9000); !errors.Is(err, ErrNoFeasibleCandidate) {
		t.Fatalf("expected ErrNoFeasibleCandidate, got %v", err)
	}
}

func TestSearchNonPositiveEpochs(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	eph := keplerEphemeris(circular(7100, 15, 28.5))
	ref, err := SearchRendezvous(asset.R, asset.V, eph, 1800, 14400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	var nonPositive int
	s := NewSearcher(Earth, DefaultSearchSettings(), nil)
	s.Trace = func(c Candidate) {
		if c.Epoch <= 0 {
			nonPositive++
			if !errors.Is(c.Err, ErrDegenerateInput) {
				t.Fatalf("candidate at %f s: expected ErrDegenerateInput, got %v", c.Epoch, c.Err)
			}
		}
	}
	// Same grid as the reference, with one more epoch at -1800 s.
	res, err := s.Minimize(asset.R, asset.V, eph, -1800, 14400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if nonPositive == 0 {
		t.Fatal("no non positive epoch was sampled")
	}
	if res.ManeuverTime != ref.ManeuverTime || res.TotalDv != ref.TotalDv {
		t.Fatalf("got %f km/s at %f s", res.TotalDv, res.ManeuverTime)
	}
	if res.Candidates != ref.Candidates+1 || res.Feasible != ref.Feasible {
		t.Fatalf("candidates %d/%d vs reference %d/%d", res.Feasible, res.Candidates, ref.Feasible, ref.Candidates)
	}
}

func TestSearchParallelIsSerial(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	eph := keplerEphemeris(circular(7100, 15, 28.5))
	var serialTrace, parallelTrace []float64
	serial := NewSearcher(Earth, DefaultSearchSettings(), nil)
	serial.Trace = func(c Candidate) { serialTrace = append(serialTrace, c.Epoch) }
	settings := DefaultSearchSettings()
	settings.Workers = 8
	parallel := NewSearcher(Earth, settings, nil)
	parallel.Trace = func(c Candidate) { parallelTrace = append(parallelTrace, c.Epoch) }

	exp, err := serial.Minimize(asset.R, asset.V, eph, 1800, 14400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	got, err := parallel.Minimize(asset.R, asset.V, eph, 1800, 14400)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !reflect.DeepEqual(exp, got) {
		t.Fatalf("parallel search differs:\n%+v\n%+v", exp, got)
	}
	if !reflect.DeepEqual(serialTrace, parallelTrace) {
		t.Fatal("parallel trace is not in epoch order")
	}
}

func TestSearchCancelled(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSearcher(Earth, DefaultSearchSettings(), nil).MinimizeContext(ctx, asset.R, asset.V, keplerEphemeris(circular(7100, 15, 28.5)), 1800, 14400)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearchDegenerateInput(t *testing.T) {
	asset := circular(7000, 0, 28.5)
	eph := keplerEphemeris(circular(7100, 15, 28.5))
	for name, run := range map[string]func() error{
		"empty window": func() error {
			_, err := SearchRendezvous(asset.R, asset.V, eph, 3600, 3600)
			return err
		},
		"reversed window": func() error {
			_, err := SearchRendezvous(asset.R, asset.V, eph, 7200, 3600)
			return err
		},
		"no ephemeris": func() error {
			_, err := SearchRendezvous(asset.R, asset.V, nil, 1800, 3600)
			return err
		},
		"zero asset radius": func() error {
			_, err := SearchRendezvous([]float64{0, 0, 0}, asset.V, eph, 1800, 3600)
			return err
		},
	} {
		if err := run(); !errors.Is(err, ErrDegenerateInput) {
			t.Fatalf("[%s] expected ErrDegenerateInput, got %v", name, err)
		}
	}
}

func TestRevolutions(t *testing.T) {
	for _, tc := range []struct {
		t    float64
		revs int
	}{{-100, 0}, {0, 0}, {9999, 0}, {10000, 0}, {96399, 0}, {96400, 1}, {182800, 2}} {
		if got := Revolutions(tc.t); got != tc.revs {
			t.Fatalf("Revolutions(%f)=%d expected %d", tc.t, got, tc.revs)
		}
	}
}

func TestIsInfeasible(t *testing.T) {
	for _, tc := range []struct {
		err error
		exp bool
	}{
		{fmt.Errorf("pass 2: %w", ErrInfeasibleGeometry), true},
		{ErrNonConvergence, true},
		{ErrDegenerateInput, false},
		{errors.New("target state unavailable"), false},
		{nil, false},
	} {
		if got := IsInfeasible(tc.err); got != tc.exp {
			t.Fatalf("IsInfeasible(%v)=%t expected %t", tc.err, got, tc.exp)
		}
	}
}
