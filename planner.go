package coorbital

import (
	"context"
	"fmt"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// DefaultLeadTime is the delay between the planning epoch and the center of the first burn.
	DefaultLeadTime = time.Hour
	burnFirst       = "first"
	burnSecond      = "second"
)

// PlannerSettings are the tunables of the rendezvous planner.
type PlannerSettings struct {
	Body      CelestialObject
	LeadTime  time.Duration
	BurnModel BurnModel
	Search    SearchSettings
}

// DefaultPlannerSettings returns the reference planner settings.
func DefaultPlannerSettings() PlannerSettings {
	return PlannerSettings{Body: Earth, LeadTime: DefaultLeadTime, BurnModel: RocketEquation, Search: DefaultSearchSettings()}
}

// FirstBurnPlan is the result of the first burn planning.
type FirstBurnPlan struct {
	Command        BurnCommand
	FuelEstimate   float64   // kg, for both burns
	ManeuverTime   time.Time // End of the transfer
	ManeuverOffset float64   // Transfer time of flight (s)
	Search         SearchResult
}

func (p FirstBurnPlan) String() string {
	return fmt.Sprintf("%s\nrendezvous=%s (tof=%.3f s) total Δv=%.3f m/s fuel=%.3f kg", p.Command, p.ManeuverTime.Format(time.RFC3339Nano), p.ManeuverOffset, p.Search.TotalDv*1e3, p.FuelEstimate)
}

// Planner computes the burn commands of a co-orbital rendezvous.
type Planner struct {
	Propagator Propagator
	Settings   PlannerSettings
	Trace      func(Candidate) // Optional, forwarded to the search
	logger     kitlog.Logger
}

// NewPlanner returns a new planner. A nil propagator defaults to two-body motion about the
// settings body, and a nil logger disables logging.
func NewPlanner(prop Propagator, settings PlannerSettings, logger kitlog.Logger) *Planner {
	if settings.Body.GM() == 0 {
		settings.Body = Earth
	}
	if prop == nil {
		prop = KeplerPropagator{settings.Body}
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	if settings.BurnModel == 0 {
		settings.BurnModel = RocketEquation
	}
	return &Planner{Propagator: prop, Settings: settings, logger: logger}
}

// propagateTo returns the state at epoch `to` from a state at epoch `from`.
func (p *Planner) propagateTo(state StateVector, from, to time.Time) StateVector {
	if from.Equal(to) {
		return NewStateVector(state.R, state.V)
	}
	R, V := p.Propagator.Propagate(state.R, state.V, to.Sub(from).Seconds())
	return StateVector{R, V}
}

// PlanFirstBurn is PlanFirstBurnContext without cancellation.
func (p *Planner) PlanFirstBurn(asset Asset, target Target, simEpoch time.Time) (FirstBurnPlan, error) {
	return p.PlanFirstBurnContext(context.Background(), asset, target, simEpoch)
}

// PlanFirstBurnContext searches the target maneuver window for the cheapest transfer from the
// asset at simEpoch, and returns the command of the departure burn.
func (p *Planner) PlanFirstBurnContext(ctx context.Context, asset Asset, target Target, simEpoch time.Time) (plan FirstBurnPlan, err error) {
	logger := kitlog.With(p.logger, "subsys", "planner", "burn", burnFirst)
	start := time.Now()
	defer func() {
		planDurationSeconds.WithLabelValues(burnFirst).Observe(time.Since(start).Seconds())
		plans.WithLabelValues(burnFirst, resultLabel(err)).Inc()
		if err != nil {
			logger.Log("level", "warning", "asset", asset.Name, "target", target.Name, "err", err)
		}
	}()

	departure := p.propagateTo(asset.State, asset.Epoch, simEpoch)
	tLow := target.Window[0].Sub(simEpoch).Seconds()
	tHigh := target.Window[1].Sub(simEpoch).Seconds()
	eph := NewEphemeris(p.Propagator, target.State, simEpoch.Sub(target.Epoch).Seconds())
	logger.Log("level", "info", "asset", asset.Name, "target", target.Name, "epoch", simEpoch.Format(time.RFC3339), "window", fmt.Sprintf("[%.1f, %.1f] s", tLow, tHigh))

	searcher := NewSearcher(p.Settings.Body, p.Settings.Search, p.logger)
	searcher.Trace = p.Trace
	result, err := searcher.MinimizeContext(ctx, departure.R, departure.V, eph, tLow, tHigh)
	if err != nil {
		return plan, fmt.Errorf("rendezvous of %s with %s: %w", asset.Name, target.Name, err)
	}

	estimator := BurnEstimator{p.Settings.BurnModel}
	first, err := estimator.AssetDuration(asset, Norm(result.Dv1))
	if err != nil {
		return plan, fmt.Errorf("first burn of %s: %w", asset.Name, err)
	}
	second, err := estimator.AssetDuration(asset, Norm(result.Dv2))
	if err != nil {
		return plan, fmt.Errorf("second burn of %s: %w", asset.Name, err)
	}
	_, massRate := asset.Propulsion()

	plan.Command = BurnCommand{
		Start:    simEpoch.Add(p.Settings.LeadTime).Add(-first / 2),
		Duration: first,
		Thrust:   vecCopy(result.Dv1),
		Type:     New,
		Frame:    GCRF,
	}
	plan.FuelEstimate = (first + second).Seconds() * massRate
	plan.ManeuverOffset = result.ManeuverTime
	plan.ManeuverTime = simEpoch.Add(time.Duration(result.ManeuverTime * float64(time.Second)))
	plan.Search = result
	logger.Log("level", "notice", "command", plan.Command, "fuel(kg)", plan.FuelEstimate, "tof(s)", plan.ManeuverOffset)
	return plan, nil
}

// PlanSecondBurn returns the burn which matches the asset velocity to the target velocity at
// the end of the coast. Both states are propagated independently from their own epochs.
func (p *Planner) PlanSecondBurn(asset Asset, target Target, coastStart time.Time, coast time.Duration) (cmd BurnCommand, err error) {
	logger := kitlog.With(p.logger, "subsys", "planner", "burn", burnSecond)
	start := time.Now()
	defer func() {
		planDurationSeconds.WithLabelValues(burnSecond).Observe(time.Since(start).Seconds())
		plans.WithLabelValues(burnSecond, resultLabel(err)).Inc()
		if err != nil {
			logger.Log("level", "warning", "asset", asset.Name, "target", target.Name, "err", err)
		}
	}()
	if coast < 0 {
		return cmd, fmt.Errorf("%w: negative coast %s", ErrDegenerateInput, coast)
	}
	coastEnd := coastStart.Add(coast)
	a := p.propagateTo(asset.State, asset.Epoch, coastEnd)
	t := p.propagateTo(target.State, target.Epoch, coastEnd)
	Δv := sub(t.V, a.V)
	if !finite(Δv) {
		return cmd, fmt.Errorf("%w: propagation to %s diverged", ErrDegenerateInput, coastEnd.Format(time.RFC3339))
	}
	duration, err := BurnEstimator{p.Settings.BurnModel}.AssetDuration(asset, Norm(Δv))
	if err != nil {
		return cmd, fmt.Errorf("second burn of %s: %w", asset.Name, err)
	}
	cmd = BurnCommand{
		Start:    coastEnd.Add(-duration / 2),
		Duration: duration,
		Thrust:   Δv,
		Type:     New,
		Frame:    GCRF,
	}
	logger.Log("level", "notice", "command", cmd, "coastEnd", coastEnd.Format(time.RFC3339Nano))
	return cmd, nil
}

// AfterFirstBurn returns the asset as it leaves the first burn: at the planning epoch with the
// commanded Δv applied impulsively. It is the asset to pass to PlanSecondBurn.
func (p *Planner) AfterFirstBurn(asset Asset, plan FirstBurnPlan, simEpoch time.Time) Asset {
	s := p.propagateTo(asset.State, asset.Epoch, simEpoch)
	for i := 0; i < 3; i++ {
		s.V[i] += plan.Command.Thrust[i]
	}
	asset.State = s
	asset.Epoch = simEpoch
	return asset
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
