// Package pulsefile writes the module's three persisted-output kinds
// named by the external interfaces (§6 "Persisted outputs") as
// fixed-width ASCII tables: per-step trajectory rows, control-pulse
// dumps, and the optimized parameter vector. It follows the teacher's
// fixed-column fmt.Fprintf table style (cmd/main.go's printResults
// plus pkg/util/formatter.go's column-width helpers), writing to an
// io.Writer instead of stdout so callers can target a file or a
// buffer interchangeably.
package pulsefile

import (
	"fmt"
	"io"
)

// WriteTrajectory writes one header line and one fixed-width row per
// sample: step index, time, trajectory norm, reference-trajectory
// norm, relative error (§6).
func WriteTrajectory(w io.Writer, steps []int, times, norms, refNorms []float64) error {
	if len(steps) != len(times) || len(times) != len(norms) || len(norms) != len(refNorms) {
		return fmt.Errorf("pulsefile: WriteTrajectory: mismatched column lengths (steps=%d times=%d norms=%d refNorms=%d)",
			len(steps), len(times), len(norms), len(refNorms))
	}
	if _, err := fmt.Fprintf(w, "%8s %14s %14s %14s %14s\n", "step", "time", "norm", "ref_norm", "rel_error"); err != nil {
		return err
	}
	for i := range steps {
		relErr := 0.0
		if refNorms[i] != 0 {
			relErr = (norms[i] - refNorms[i]) / refNorms[i]
		}
		if _, err := fmt.Fprintf(w, "%8d %14.6e %14.6e %14.6e %14.6e\n", steps[i], times[i], norms[i], refNorms[i], relErr); err != nil {
			return err
		}
	}
	return nil
}

// WriteControlPulse writes one header line and one row per sample of
// a single control channel's envelope: time, p(t), q(t) (§6).
func WriteControlPulse(w io.Writer, times, p, q []float64) error {
	if len(times) != len(p) || len(p) != len(q) {
		return fmt.Errorf("pulsefile: WriteControlPulse: mismatched column lengths (times=%d p=%d q=%d)", len(times), len(p), len(q))
	}
	if _, err := fmt.Fprintf(w, "%14s %14s %14s\n", "time", "p", "q"); err != nil {
		return err
	}
	for i := range times {
		if _, err := fmt.Fprintf(w, "%14.6e %14.6e %14.6e\n", times[i], p[i], q[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteParameterVector writes the optimized design vector, one
// component per line with its flat index (§6).
func WriteParameterVector(w io.Writer, x []float64) error {
	if _, err := fmt.Fprintf(w, "%8s %18s\n", "index", "value"); err != nil {
		return err
	}
	for i, v := range x {
		if _, err := fmt.Fprintf(w, "%8d %18.10e\n", i, v); err != nil {
			return err
		}
	}
	return nil
}
