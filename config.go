package coorbital

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConfigEnv is the environment variable holding the directory of conf.toml.
	ConfigEnv = "COORBITAL_CONFIG"
	// PropagatorKepler selects the two-body closed form propagator.
	PropagatorKepler = "kepler"
	// PropagatorCowell selects the RK4 propagator with zonal harmonics.
	PropagatorCowell = "cowell"
)

// Config is the configuration of the rendezvous planning.
type Config struct {
	Planner    PlannerSettings
	Propagator string
	Step       time.Duration // Cowell step
	Jn         uint8         // Cowell zonal harmonics, from J2 up to Jn
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{Planner: DefaultPlannerSettings(), Propagator: PropagatorKepler, Step: StepSize}
}

// setDefaults registers the default of every key in v.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("search.step", def.Planner.Search.InitialStep)
	v.SetDefault("search.standoff", def.Planner.Search.Standoff)
	v.SetDefault("search.workers", def.Planner.Search.Workers)
	v.SetDefault("planner.body", def.Planner.Body.Name)
	v.SetDefault("planner.lead", def.Planner.LeadTime)
	v.SetDefault("burn.model", def.Planner.BurnModel.String())
	v.SetDefault("propagator.method", def.Propagator)
	v.SetDefault("propagator.step", def.Step)
	v.SetDefault("propagator.jn", def.Jn)
}

// ConfigFromViper reads the configuration from v, falling back to the defaults for unset keys.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)
	conf := Config{}
	body, err := CelestialObjectFromString(v.GetString("planner.body"))
	if err != nil {
		return conf, err
	}
	model, err := BurnModelFromString(v.GetString("burn.model"))
	if err != nil {
		return conf, err
	}
	conf.Planner = PlannerSettings{
		Body:      body,
		LeadTime:  v.GetDuration("planner.lead"),
		BurnModel: model,
		Search: SearchSettings{
			InitialStep: v.GetFloat64("search.step"),
			Standoff:    v.GetFloat64("search.standoff"),
			Workers:     v.GetInt("search.workers"),
		},
	}
	if conf.Planner.Search.InitialStep <= 0 {
		return conf, fmt.Errorf("search.step must be positive, got %f", conf.Planner.Search.InitialStep)
	}
	conf.Propagator = strings.ToLower(v.GetString("propagator.method"))
	switch conf.Propagator {
	case PropagatorKepler, PropagatorCowell:
	default:
		return conf, fmt.Errorf("unknown propagator '%s'", conf.Propagator)
	}
	conf.Step = v.GetDuration("propagator.step")
	jn := v.GetInt("propagator.jn")
	if jn != 0 && (jn < 2 || jn > 3) {
		return conf, fmt.Errorf("propagator.jn must be 0, 2 or 3, got %d", jn)
	}
	conf.Jn = uint8(jn)
	return conf, nil
}

// LoadConfig reads conf.toml from the directory set in $COORBITAL_CONFIG. The defaults are
// returned when the variable is unset.
func LoadConfig() (Config, error) {
	confPath := os.Getenv(ConfigEnv)
	if confPath == "" {
		return DefaultConfig(), nil
	}
	v := viper.New()
	v.SetConfigName("conf")
	v.SetConfigType("toml")
	v.AddConfigPath(confPath)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s/conf.toml: %w", confPath, err)
	}
	return ConfigFromViper(v)
}

// NewPropagator returns the configured propagator.
func (c Config) NewPropagator() Propagator {
	if c.Propagator == PropagatorCowell {
		return CowellPropagator{Body: c.Planner.Body, Step: c.Step, Perts: Perturbations{Jn: c.Jn}}
	}
	return KeplerPropagator{c.Planner.Body}
}

func (c Config) String() string {
	return fmt.Sprintf("body=%s propagator=%s (step=%s J%d) lead=%s burn=%s search={step=%.1f s standoff=%.1f km workers=%d}",
		c.Planner.Body, c.Propagator, c.Step, c.Jn, c.Planner.LeadTime, c.Planner.BurnModel, c.Planner.Search.InitialStep, c.Planner.Search.Standoff, c.Planner.Search.Workers)
}
