package coorbital

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	fileStampFormat = "2006-01-02T15.04.05"
)

// ExportConfig configures the exporting of a rendezvous plan.
type ExportConfig struct {
	Filename  string
	OutputDir string
	AsCSV     bool
	AsJSON    bool
	Timestamp bool // Append the creation time to the file names
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.AsJSON
}

// path returns the path of the export file of the provided kind and extension.
func (c ExportConfig) path(kind, ext string) string {
	name := fmt.Sprintf("%s-%s", kind, c.Filename)
	if c.Timestamp {
		name += "-" + time.Now().UTC().Format(fileStampFormat)
	}
	return filepath.Join(c.OutputDir, name+"."+ext)
}

// PlanReport is the JSON export of a complete rendezvous plan.
type PlanReport struct {
	Created       time.Time     `json:"created"`
	Asset         string        `json:"asset"`
	Target        string        `json:"target"`
	EpochMJD      float64       `json:"epoch_mjd"`
	RendezvousMJD float64       `json:"rendezvous_mjd"`
	TimeOfFlight  float64       `json:"tof_s"`
	TotalDv       float64       `json:"total_dv_kms"`
	FuelEstimate  float64       `json:"fuel_kg"`
	PassBest      []float64     `json:"pass_best_kms"`
	Candidates    int           `json:"candidates"`
	Feasible      int           `json:"feasible"`
	Commands      []BurnCommand `json:"commands"`
}

// NewPlanReport returns the report of a first burn plan, with the optional additional commands.
func NewPlanReport(asset Asset, target Target, simEpoch time.Time, plan FirstBurnPlan, more ...BurnCommand) PlanReport {
	return PlanReport{
		Created:       time.Now().UTC(),
		Asset:         asset.Name,
		Target:        target.Name,
		EpochMJD:      TimeToMJD(simEpoch),
		RendezvousMJD: TimeToMJD(plan.ManeuverTime),
		TimeOfFlight:  plan.ManeuverOffset,
		TotalDv:       plan.Search.TotalDv,
		FuelEstimate:  plan.FuelEstimate,
		PassBest:      plan.Search.PassBest,
		Candidates:    plan.Search.Candidates,
		Feasible:      plan.Search.Feasible,
		Commands:      append([]BurnCommand{plan.Command}, more...),
	}
}

// MarshalJSON implements json.Marshaler. Passes which found no transfer have an infinite
// best Δv, written as null.
func (r PlanReport) MarshalJSON() ([]byte, error) {
	type report PlanReport
	best := make([]*float64, len(r.PassBest))
	for i, dv := range r.PassBest {
		if !math.IsInf(dv, 0) && !math.IsNaN(dv) {
			best[i] = &dv
		}
	}
	return json.Marshal(struct {
		report
		PassBest []*float64 `json:"pass_best_kms"`
	}{report(r), best})
}

// UnmarshalJSON implements json.Unmarshaler. A null pass best is read as +Inf.
func (r *PlanReport) UnmarshalJSON(data []byte) error {
	type report PlanReport
	raw := struct {
		*report
		PassBest []*float64 `json:"pass_best_kms"`
	}{report: (*report)(r)}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.PassBest = nil
	if raw.PassBest != nil {
		r.PassBest = make([]float64, len(raw.PassBest))
		for i, dv := range raw.PassBest {
			r.PassBest[i] = math.Inf(1)
			if dv != nil {
				r.PassBest[i] = *dv
			}
		}
	}
	return nil
}

// Export writes the report as configured, and returns the paths of the written files.
func (r PlanReport) Export(conf ExportConfig) (paths []string, err error) {
	if conf.AsJSON {
		path := conf.path("plan", "json")
		if err = writeFile(path, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}); err != nil {
			return
		}
		paths = append(paths, path)
	}
	if conf.AsCSV {
		path := conf.path("commands", "csv")
		if err = writeFile(path, func(w io.Writer) error {
			return WriteCommandsCSV(w, r.Commands)
		}); err != nil {
			return
		}
		paths = append(paths, path)
	}
	return
}

// writeFile creates path and closes it after fill.
func writeFile(path string, fill func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// WriteCommandsCSV writes the burn commands, one per row, with epochs as UTC and MJD.
func WriteCommandsCSV(w io.Writer, cmds []BurnCommand) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"start_utc", "start_mjd", "duration_s", "dv_x_kms", "dv_y_kms", "dv_z_kms", "dv_ms", "type", "frame"})
	for _, cmd := range cmds {
		if err := cmd.validate(); err != nil {
			return err
		}
		cw.Write([]string{
			cmd.Start.UTC().Format(time.RFC3339Nano),
			ftoa(TimeToMJD(cmd.Start)),
			ftoa(cmd.Duration.Seconds()),
			ftoa(cmd.Thrust[0]), ftoa(cmd.Thrust[1]), ftoa(cmd.Thrust[2]),
			ftoa(cmd.Δv() * 1e3),
			cmd.Type.String(),
			cmd.Frame.String(),
		})
	}
	cw.Flush()
	return cw.Error()
}

// TraceWriter records the candidates of a search as CSV. Its Record method is a search trace.
type TraceWriter struct {
	cw     *csv.Writer
	header bool
}

// NewTraceWriter returns a new TraceWriter on w.
func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{cw: csv.NewWriter(w)}
}

// Record writes one candidate.
func (t *TraceWriter) Record(c Candidate) {
	if !t.header {
		t.cw.Write([]string{"pass", "epoch_s", "revs", "feasible", "total_dv_ms", "error"})
		t.header = true
	}
	dv := ""
	if !math.IsNaN(c.TotalDv) {
		dv = ftoa(c.TotalDv * 1e3)
	}
	errStr := ""
	if c.Err != nil {
		errStr = c.Err.Error()
	}
	t.cw.Write([]string{strconv.Itoa(c.Pass), ftoa(c.Epoch), strconv.Itoa(c.Revs), strconv.FormatBool(c.Feasible()), dv, errStr})
}

// Flush flushes the underlying writer and returns the first write error, if any.
func (t *TraceWriter) Flush() error {
	t.cw.Flush()
	return t.cw.Error()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
