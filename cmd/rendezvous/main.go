package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	coorbital "github.com/pvanza12/CoOrbitalManeuvereCalculator"
	"github.com/spf13/viper"
)

// Reads a rendezvous scenario, plans the burns and exports them.

const (
	defaultScenario = "~~unset~~"
)

var (
	scenario    string
	second      bool
	outDir      string
	metricsAddr string
	verbose     bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "rendezvous scenario TOML file")
	flag.BoolVar(&second, "second", false, "also plan the second burn, at the end of the transfer")
	flag.StringVar(&outDir, "out", "", "directory of the exported plan, commands and search trace (no export if unset)")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "serve the Prometheus metrics on this address once planned, until interrupted")
	flag.BoolVar(&verbose, "verbose", false, "log the search and planning")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	dir, name := filepath.Split(strings.Replace(scenario, ".toml", "", 1))
	if dir == "" {
		dir = "."
	}
	viper.AddConfigPath(dir)
	viper.SetConfigName(name)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("%s.toml: Error %s", filepath.Join(dir, name), err)
	}

	conf, err := coorbital.ConfigFromViper(viper.GetViper())
	if err != nil {
		log.Fatalf("configuration: %s", err)
	}
	var logger kitlog.Logger = kitlog.NewNopLogger()
	if verbose {
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
		logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
		log.Printf("[conf] %s", conf)
	}

	simEpoch := confReadMJDorTime("general.epoch")
	asset, err := readAsset(conf.Planner.Body)
	if err != nil {
		log.Fatalf("asset: %s", err)
	}
	target, err := readTarget(conf.Planner.Body)
	if err != nil {
		log.Fatalf("target: %s", err)
	}

	if verbose {
		log.Printf("[conf] asset %s: %s", asset, coorbital.NewOrbitFromRV(asset.State.R, asset.State.V, conf.Planner.Body))
		log.Printf("[conf] target %s: %s", target, coorbital.NewOrbitFromRV(target.State.R, target.State.V, conf.Planner.Body))
	}

	planner := coorbital.NewPlanner(conf.NewPropagator(), conf.Planner, logger)
	export := coorbital.ExportConfig{Filename: name, OutputDir: outDir, AsCSV: true, AsJSON: true}
	var trace *coorbital.TraceWriter
	if outDir != "" {
		f, err := os.Create(filepath.Join(outDir, "search-"+name+".csv"))
		if err != nil {
			log.Fatalf("search trace: %s", err)
		}
		defer f.Close()
		trace = coorbital.NewTraceWriter(f)
		planner.Trace = trace.Record
	}

	plan, err := planner.PlanFirstBurn(asset, target, simEpoch)
	if err != nil {
		if errors.Is(err, coorbital.ErrNoFeasibleCandidate) {
			log.Fatalf("no rendezvous in the window of %s: %s", target.Name, err)
		}
		log.Fatalf("planning failed: %s", err)
	}
	fmt.Printf("first burn: %s\n", plan)

	var more []coorbital.BurnCommand
	if second {
		coasting := planner.AfterFirstBurn(asset, plan, simEpoch)
		coast := plan.ManeuverTime.Sub(simEpoch)
		cmd, err := planner.PlanSecondBurn(coasting, target, simEpoch, coast)
		if err != nil {
			log.Fatalf("second burn: %s", err)
		}
		fmt.Printf("second burn: %s\n", cmd)
		more = append(more, cmd)
	}

	if trace != nil {
		if err := trace.Flush(); err != nil {
			log.Fatalf("search trace: %s", err)
		}
		paths, err := coorbital.NewPlanReport(asset, target, simEpoch, plan, more...).Export(export)
		if err != nil {
			log.Fatalf("export: %s", err)
		}
		for _, path := range paths {
			fmt.Printf("saved %s\n", path)
		}
	}

	if metricsAddr != "" {
		serveMetrics(metricsAddr)
	}
}

// serveMetrics serves the metrics until the process is interrupted.
func serveMetrics(addr string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	mux := http.NewServeMux()
	mux.Handle("/metrics", coorbital.MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics: %s", err)
		}
	}()
	log.Printf("serving metrics on %s/metrics", addr)
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdown)
}

func readAsset(body coorbital.CelestialObject) (coorbital.Asset, error) {
	state, err := readState("asset", body)
	if err != nil {
		return coorbital.Asset{}, err
	}
	asset := coorbital.Asset{
		Name:     viper.GetString("asset.name"),
		Epoch:    confReadMJDorTime("asset.epoch"),
		State:    state,
		DryMass:  viper.GetFloat64("asset.dry"),
		FuelMass: viper.GetFloat64("asset.fuel"),
		Isp:      viper.GetFloat64("asset.isp"),
		MassRate: viper.GetFloat64("asset.massrate"),
	}
	switch thruster := strings.ToLower(viper.GetString("asset.thruster")); thruster {
	case "":
	case "mr107":
		asset.Thruster = new(coorbital.MR107)
	case "generic":
		asset.Thruster = coorbital.NewGenericThruster(viper.GetFloat64("asset.thrust"), asset.Isp)
	default:
		return asset, fmt.Errorf("unknown thruster `%s`", thruster)
	}
	return asset, nil
}

func readTarget(body coorbital.CelestialObject) (coorbital.Target, error) {
	state, err := readState("target", body)
	if err != nil {
		return coorbital.Target{}, err
	}
	return coorbital.Target{
		Name:   viper.GetString("target.name"),
		Epoch:  confReadMJDorTime("target.epoch"),
		State:  state,
		Window: [2]time.Time{confReadMJDorTime("target.window.start"), confReadMJDorTime("target.window.end")},
	}, nil
}

// readState reads the Cartesian state of the object, either as R and V or as orbital elements.
func readState(object string, body coorbital.CelestialObject) (coorbital.StateVector, error) {
	if viper.IsSet(object + ".R") {
		R := confReadVector(object + ".R")
		V := confReadVector(object + ".V")
		if len(R) != 3 || len(V) != 3 {
			return coorbital.StateVector{}, fmt.Errorf("%s.R and %s.V must have three components", object, object)
		}
		return coorbital.NewStateVector(R, V), nil
	}
	a := viper.GetFloat64(object + ".orbit.sma")
	if a <= 0 {
		return coorbital.StateVector{}, fmt.Errorf("%s has neither R/V nor a positive orbit.sma", object)
	}
	e := viper.GetFloat64(object + ".orbit.ecc")
	i := viper.GetFloat64(object + ".orbit.inc")
	Ω := viper.GetFloat64(object + ".orbit.RAAN")
	ω := viper.GetFloat64(object + ".orbit.argPeri")
	ν := viper.GetFloat64(object + ".orbit.tAnomaly")
	return coorbital.NewOrbitFromOE(a, e, i, Ω, ω, ν, body).State(), nil
}

func confReadVector(key string) []float64 {
	raw := viper.Get(key)
	vals, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	vec := make([]float64, len(vals))
	for i, val := range vals {
		switch v := val.(type) {
		case float64:
			vec[i] = v
		case int64:
			vec[i] = float64(v)
		case int:
			vec[i] = float64(v)
		default:
			log.Fatalf("%s[%d]: not a number", key, i)
		}
	}
	return vec
}

// confReadMJDorTime reads an epoch either as a modified Julian date or as a time.
func confReadMJDorTime(key string) (dt time.Time) {
	mjd := viper.GetFloat64(key)
	if mjd == 0 {
		dt = viper.GetTime(key).UTC()
	} else {
		dt = coorbital.MJDToTime(mjd)
	}
	return
}
