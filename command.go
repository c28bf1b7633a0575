package coorbital

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// MJDOffset is the difference between a Julian date and a modified Julian date.
	MJDOffset = 2400000.5
)

// CommandType defines what the execution system should do with a command.
type CommandType uint8

const (
	// New schedules a new burn.
	New CommandType = iota + 1
	// Modify replaces a previously scheduled burn.
	Modify
	// Cancel removes a previously scheduled burn.
	Cancel
)

func (c CommandType) String() string {
	switch c {
	case New:
		return "new"
	case Modify:
		return "modify"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ReferenceFrame defines the frame in which a thrust vector is expressed.
type ReferenceFrame uint8

const (
	// GCRF is the geocentric celestial reference frame (inertial).
	GCRF ReferenceFrame = iota + 1
	// RIC is the radial, in-track, cross-track frame of the spacecraft.
	RIC
)

func (f ReferenceFrame) String() string {
	switch f {
	case GCRF:
		return "gcrf"
	case RIC:
		return "ric"
	default:
		return "unknown"
	}
}

// BurnCommand is an impulsive burn to be executed by the asset.
type BurnCommand struct {
	Start    time.Time
	Duration time.Duration
	Thrust   []float64 // Δv vector in km/s
	Type     CommandType
	Frame    ReferenceFrame
}

// Δv returns the magnitude of the commanded velocity change in km/s.
func (c BurnCommand) Δv() float64 {
	if len(c.Thrust) != 3 {
		return 0
	}
	return Norm(c.Thrust)
}

// Center returns the middle of the burn, where the impulsive Δv is applied.
func (c BurnCommand) Center() time.Time {
	return c.Start.Add(c.Duration / 2)
}

func (c BurnCommand) String() string {
	return fmt.Sprintf("[%s/%s] start=%s duration=%s Δv=%+v km/s (%.3f m/s)", c.Type, c.Frame, c.Start.Format(time.RFC3339Nano), c.Duration, c.Thrust, c.Δv()*1e3)
}

// burnCommandJSON is the wire format of a BurnCommand.
type burnCommandJSON struct {
	StartMJD  float64   `json:"start_mjd"`
	Duration  float64   `json:"duration_s"`
	Thrust    []float64 `json:"thrust_kms"`
	Type      string    `json:"type"`
	Reference string    `json:"frame"`
}

// validate returns an error if the command cannot be sent to the execution system.
func (c BurnCommand) validate() error {
	if c.Type < New || c.Type > Cancel {
		return fmt.Errorf("command at %s: unset command type", c.Start.Format(time.RFC3339))
	}
	if c.Frame < GCRF || c.Frame > RIC {
		return fmt.Errorf("command at %s: unset reference frame", c.Start.Format(time.RFC3339))
	}
	if len(c.Thrust) != 3 {
		return fmt.Errorf("command at %s: thrust must have three components", c.Start.Format(time.RFC3339))
	}
	return nil
}

// MarshalJSON implements json.Marshaler, with epochs as modified Julian dates.
func (c BurnCommand) MarshalJSON() ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(burnCommandJSON{TimeToMJD(c.Start), c.Duration.Seconds(), c.Thrust, c.Type.String(), c.Frame.String()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *BurnCommand) UnmarshalJSON(data []byte) error {
	var raw burnCommandJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch strings.ToLower(raw.Type) {
	case "new":
		c.Type = New
	case "modify":
		c.Type = Modify
	case "cancel":
		c.Type = Cancel
	default:
		return fmt.Errorf("unknown command type '%s'", raw.Type)
	}
	switch strings.ToLower(raw.Reference) {
	case "gcrf":
		c.Frame = GCRF
	case "ric":
		c.Frame = RIC
	default:
		return fmt.Errorf("unknown reference frame '%s'", raw.Reference)
	}
	if len(raw.Thrust) != 3 {
		return fmt.Errorf("thrust must have three components, got %d", len(raw.Thrust))
	}
	c.Start = MJDToTime(raw.StartMJD)
	c.Duration = time.Duration(raw.Duration * float64(time.Second))
	c.Thrust = raw.Thrust
	return nil
}

// TimeToMJD returns the modified Julian date of the provided time.
func TimeToMJD(dt time.Time) float64 {
	return julian.TimeToJD(dt.UTC()) - MJDOffset
}

// MJDToTime returns the UTC time of the provided modified Julian date.
func MJDToTime(mjd float64) time.Time {
	return julian.JDToTime(mjd + MJDOffset).UTC()
}
