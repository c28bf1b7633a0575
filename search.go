package coorbital

import (
	"context"
	"errors"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
	"golang.org/x/sync/errgroup"
)

const (
	// SearchPasses is the number of coarse-to-fine passes of the rendezvous search.
	SearchPasses = 10
	// DefaultSearchStep is the initial spacing of candidate epochs (seconds).
	DefaultSearchStep = 3600.0
	// DefaultStandoff is the in-track distance (km) from the target of the aim point.
	DefaultStandoff = 20.0
	revolutionEpoch  = 10000.0 // s
	revolutionPeriod = 86400.0 // s
)

// SearchSettings are the tunables of the rendezvous search.
type SearchSettings struct {
	InitialStep float64 // Initial spacing between candidate epochs (s)
	Standoff    float64 // In-track stand-off distance from the target (km)
	Workers     int     // Maximum number of candidates evaluated concurrently
}

// DefaultSearchSettings returns the reference search settings.
func DefaultSearchSettings() SearchSettings {
	return SearchSettings{InitialStep: DefaultSearchStep, Standoff: DefaultStandoff, Workers: 1}
}

// ManeuverWindow is the span of candidate epochs of a pass, in seconds after the planning epoch.
type ManeuverWindow struct {
	Low, High, Step float64
}

// epochs returns the candidate epochs of this window, from Low (included) to High (excluded).
func (w ManeuverWindow) epochs() []float64 {
	var ts []float64
	for i := 0; ; i++ {
		t := w.Low + float64(i)*w.Step
		if t >= w.High {
			break
		}
		ts = append(ts, t)
	}
	return ts
}

func (w ManeuverWindow) String() string {
	return fmt.Sprintf("[%.3f, %.3f) step %.3f s", w.Low, w.High, w.Step)
}

// SearchResult is the best rendezvous found by the search.
type SearchResult struct {
	Dv1          []float64 // First burn Δv (km/s)
	Dv2          []float64 // Arrival Δv (km/s)
	ManeuverTime float64   // Time of flight of the best transfer (s), NaN if none was found
	TotalDv      float64   // |Dv1| + |Dv2| (km/s)
	PassBest     []float64 // Best total Δv after each pass
	Candidates   int       // Number of evaluated candidate epochs
	Feasible     int       // Number of candidates with a Lambert solution
}

// Candidate is a single evaluated epoch of the search.
type Candidate struct {
	Pass    int
	Epoch   float64 // s
	Revs    int
	TotalDv float64 // NaN if Err is set
	Dv1     []float64
	Dv2     []float64
	Err     error
}

// Feasible returns whether a transfer was found at this epoch.
func (c Candidate) Feasible() bool {
	return c.Err == nil
}

// Searcher performs the multi-pass grid search over the maneuver epoch.
type Searcher struct {
	Body     CelestialObject
	Settings SearchSettings
	Trace    func(Candidate) // Optional, called in epoch order for every candidate
	logger   kitlog.Logger
}

// NewSearcher returns a new Searcher. A nil logger disables logging.
func NewSearcher(body CelestialObject, settings SearchSettings, logger kitlog.Logger) *Searcher {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	if settings.InitialStep <= 0 {
		settings.InitialStep = DefaultSearchStep
	}
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	return &Searcher{Body: body, Settings: settings, logger: kitlog.With(logger, "subsys", "search")}
}

// SearchRendezvous runs the search with the default settings about the Earth.
func SearchRendezvous(assetR, assetV []float64, eph Ephemeris, tLow, tHigh float64) (SearchResult, error) {
	return NewSearcher(Earth, DefaultSearchSettings(), nil).Minimize(assetR, assetV, eph, tLow, tHigh)
}

// Minimize is MinimizeContext without cancellation.
func (s *Searcher) Minimize(assetR, assetV []float64, eph Ephemeris, tLow, tHigh float64) (SearchResult, error) {
	return s.MinimizeContext(context.Background(), assetR, assetV, eph, tLow, tHigh)
}

// MinimizeContext finds the maneuver epoch in [tLow, tHigh) which minimizes the total Δv of a
// Lambert transfer from the asset state to a point offset in-track from the target.
// Each pass samples the window, then narrows it about the best epoch and halves the step.
// Returns ErrNoFeasibleCandidate if no candidate ever converged.
func (s *Searcher) MinimizeContext(ctx context.Context, assetR, assetV []float64, eph Ephemeris, tLow, tHigh float64) (SearchResult, error) {
	result := SearchResult{ManeuverTime: math.NaN(), TotalDv: math.Inf(1), PassBest: make([]float64, 0, SearchPasses)}
	if eph == nil {
		return result, fmt.Errorf("%w: no target ephemeris", ErrDegenerateInput)
	}
	if err := checkChief(assetR, assetV); err != nil {
		return result, fmt.Errorf("asset state: %w", err)
	}
	if !(tLow < tHigh) {
		return result, fmt.Errorf("%w: empty maneuver window [%f, %f]", ErrDegenerateInput, tLow, tHigh)
	}
	assetR = vecCopy(assetR)
	assetV = vecCopy(assetV)
	window := ManeuverWindow{tLow, tHigh, s.Settings.InitialStep}
	found := false
	for pass := 0; pass < SearchPasses; pass++ {
		candidates, err := s.evaluatePass(ctx, pass, assetR, assetV, eph, window)
		if err != nil {
			return result, err
		}
		for _, c := range candidates {
			result.Candidates++
			if s.Trace != nil {
				s.Trace(c)
			}
			if !c.Feasible() {
				searchCandidates.WithLabelValues("false").Inc()
				lvl := "debug"
				if !IsInfeasible(c.Err) {
					lvl = "warning"
				}
				s.logger.Log("level", lvl, "pass", pass, "t", c.Epoch, "skipped", c.Err)
				continue
			}
			searchCandidates.WithLabelValues("true").Inc()
			result.Feasible++
			if c.TotalDv < result.TotalDv {
				found = true
				result.TotalDv = c.TotalDv
				result.ManeuverTime = c.Epoch
				result.Dv1 = c.Dv1
				result.Dv2 = c.Dv2
				s.logger.Log("level", "info", "pass", pass, "t", c.Epoch, "revs", c.Revs, "Δv(m/s)", c.TotalDv*1e3, "message", "new minimum")
			}
		}
		result.PassBest = append(result.PassBest, result.TotalDv)
		s.logger.Log("level", "debug", "pass", pass, "window", window, "candidates", len(candidates), "best(m/s)", result.TotalDv*1e3)
		if found {
			window.Low = result.ManeuverTime - 2*window.Step
			window.High = math.Min(result.ManeuverTime+2*window.Step, tHigh)
		}
		window.Step /= 2
	}
	if !found {
		return result, fmt.Errorf("%w: %d candidates in [%.1f, %.1f] s", ErrNoFeasibleCandidate, result.Candidates, tLow, tHigh)
	}
	return result, nil
}

// evaluatePass evaluates all the candidates of a window. Candidates are independent so they are
// spread over the workers, but are returned in epoch order.
func (s *Searcher) evaluatePass(ctx context.Context, pass int, assetR, assetV []float64, eph Ephemeris, window ManeuverWindow) ([]Candidate, error) {
	epochs := window.epochs()
	candidates := make([]Candidate, len(epochs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Settings.Workers)
	for i, t := range epochs {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates[i] = s.evaluate(assetR, assetV, eph, t)
			candidates[i].Pass = pass
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// evaluate computes the rendezvous transfer for the maneuver epoch t.
func (s *Searcher) evaluate(assetR, assetV []float64, eph Ephemeris, t float64) Candidate {
	c := Candidate{Epoch: t, Revs: Revolutions(t), TotalDv: math.NaN()}
	if t <= 0 {
		c.Err = fmt.Errorf("%w: non positive time of flight %f s", ErrDegenerateInput, t)
		return c
	}
	tgtR, tgtV := eph(t)
	if len(tgtR) != 3 {
		c.Err = fmt.Errorf("target state: %w: position must be 3x1", ErrDegenerateInput)
		return c
	}
	offset := s.Settings.Standoff
	if LongWay(assetR, tgtR) {
		offset = -offset
	}
	aimR, aimV, err := RelativeToInertial(tgtR, tgtV, []float64{0, offset, 0}, []float64{0, 0, 0})
	if err != nil {
		c.Err = fmt.Errorf("target state: %w", err)
		return c
	}
	Vi, Vf, err := SolveLambert(mat64.NewVector(3, vecCopy(assetR)), mat64.NewVector(3, aimR), t, c.Revs, s.Body)
	if err != nil {
		c.Err = err
		return c
	}
	c.Dv1 = sub(vecOf(Vi), assetV)
	c.Dv2 = sub(aimV, vecOf(Vf))
	c.TotalDv = Norm(c.Dv1) + Norm(c.Dv2)
	if math.IsNaN(c.TotalDv) {
		c.Err = fmt.Errorf("%w: Δv is NaN", ErrNonConvergence)
	}
	return c
}

// Revolutions maps a time of flight to the number of complete revolutions of the transfer:
// none below a day past the first 10000 seconds, then one more per day.
func Revolutions(t float64) int {
	revs := int(math.Floor((t - revolutionEpoch) / revolutionPeriod))
	if revs < 0 {
		return 0
	}
	return revs
}

// IsInfeasible returns whether err only reports that a candidate had no transfer.
func IsInfeasible(err error) bool {
	return errors.Is(err, ErrInfeasibleGeometry) || errors.Is(err, ErrNonConvergence)
}
