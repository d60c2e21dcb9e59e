// Package config parses the flat key/value configuration map named in
// full by the external interfaces (every `nlevels`, `lindblad_type`,
// `integrator`, ... key), failing fast on any missing or malformed
// value per the misconfiguration row of the error-handling table.
// FromMap plays the role the teacher's netlist parser plays for a
// `.tran`/`.ac` control line (pkg/netlist/parser.go's
// parseDotOperator/ParseValue), adapted from a SPICE deck's
// line-oriented grammar to a single exhaustive key map.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edp1096/qoc/qocerr"
)

// Config mirrors every configuration key recognized by the core.
type Config struct {
	NLevels            []int
	NSpline            int
	CarrierFrequencies [][]float64 // per oscillator

	LindbladType          string // none | decay | dephase | both
	LindbladCollapseRates []float64

	NTime int
	Dt    float64

	LinearSolver      string // gmres | neumann
	LinSolveMaxIter   int
	LinSolveTolerance float64

	Integrator string // euler | impl_midpoint | composition_4 | composition_8

	GammaTikhonov  float64
	GammaPenalty   float64
	GammaLeakage   float64
	PenaltyParam   float64
	LeakageWeights []float64 // per oscillator
}

// FromMap parses and validates the exhaustive key set of §6. Every
// failure is wrapped in qocerr.ErrMisconfiguration so callers can
// classify it without string matching. Note: the source this module
// generalizes from has a known command-line parsing bug where
// `-noscillators` writes into the `nlevels` slot; that bug is not
// reproduced here — `noscillators` is derived from len(nlevels) and is
// not a separate key.
func FromMap(m map[string]string) (*Config, error) {
	c := &Config{}
	var err error

	nlevelsStr, ok := m["nlevels"]
	if !ok {
		return nil, missing("nlevels")
	}
	c.NLevels, err = parseIntList(nlevelsStr)
	if err != nil {
		return nil, invalid("nlevels", err)
	}
	if len(c.NLevels) == 0 {
		return nil, fmt.Errorf("config: nlevels must list at least one oscillator: %w", qocerr.ErrMisconfiguration)
	}

	nsplineStr, ok := m["nspline"]
	if !ok {
		return nil, missing("nspline")
	}
	c.NSpline, err = strconv.Atoi(strings.TrimSpace(nsplineStr))
	if err != nil {
		return nil, invalid("nspline", err)
	}

	carrierStr, ok := m["carrier_frequencies"]
	if !ok {
		return nil, missing("carrier_frequencies")
	}
	c.CarrierFrequencies, err = parseFloatListPerOscillator(carrierStr, len(c.NLevels))
	if err != nil {
		return nil, invalid("carrier_frequencies", err)
	}

	c.LindbladType = strings.ToLower(strings.TrimSpace(m["lindblad_type"]))
	switch c.LindbladType {
	case "", "none", "decay", "dephase", "both":
	default:
		return nil, fmt.Errorf("config: lindblad_type must be one of none/decay/dephase/both, got %q: %w", c.LindbladType, qocerr.ErrMisconfiguration)
	}
	if c.LindbladType != "" && c.LindbladType != "none" {
		ratesStr, ok := m["lindblad_collapse_times"]
		if !ok {
			return nil, missing("lindblad_collapse_times")
		}
		c.LindbladCollapseRates, err = parseFloatList(ratesStr)
		if err != nil {
			return nil, invalid("lindblad_collapse_times", err)
		}
		if len(c.LindbladCollapseRates) != len(c.NLevels) {
			return nil, fmt.Errorf("config: lindblad_collapse_times needs one entry per oscillator (%d), got %d: %w",
				len(c.NLevels), len(c.LindbladCollapseRates), qocerr.ErrMisconfiguration)
		}
	}

	ntimeStr, ok := m["ntime"]
	if !ok {
		return nil, missing("ntime")
	}
	c.NTime, err = strconv.Atoi(strings.TrimSpace(ntimeStr))
	if err != nil {
		return nil, invalid("ntime", err)
	}
	dtStr, ok := m["dt"]
	if !ok {
		return nil, missing("dt")
	}
	c.Dt, err = strconv.ParseFloat(strings.TrimSpace(dtStr), 64)
	if err != nil {
		return nil, invalid("dt", err)
	}

	c.LinearSolver = strings.ToLower(strings.TrimSpace(m["linear_solver"]))
	switch c.LinearSolver {
	case "", "gmres", "neumann":
	default:
		return nil, fmt.Errorf("config: linear_solver must be gmres or neumann, got %q: %w", c.LinearSolver, qocerr.ErrMisconfiguration)
	}
	if v, ok := m["linsolve_maxiter"]; ok {
		c.LinSolveMaxIter, err = strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, invalid("linsolve_maxiter", err)
		}
	}
	if v, ok := m["linsolve_tolerance"]; ok {
		c.LinSolveTolerance, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, invalid("linsolve_tolerance", err)
		}
	}

	c.Integrator = strings.ToLower(strings.TrimSpace(m["integrator"]))
	switch c.Integrator {
	case "euler", "impl_midpoint", "composition_4", "composition_8":
	default:
		return nil, fmt.Errorf("config: integrator must be one of euler/impl_midpoint/composition_4/composition_8, got %q: %w", c.Integrator, qocerr.ErrMisconfiguration)
	}

	c.GammaTikhonov, err = parseOptionalFloat(m, "gamma_tikhonov")
	if err != nil {
		return nil, err
	}
	c.GammaPenalty, err = parseOptionalFloat(m, "gamma_penalty")
	if err != nil {
		return nil, err
	}
	c.GammaLeakage, err = parseOptionalFloat(m, "gamma_leakage")
	if err != nil {
		return nil, err
	}
	c.PenaltyParam, err = parseOptionalFloat(m, "penalty_param")
	if err != nil {
		return nil, err
	}
	if v, ok := m["leakage_weights"]; ok {
		c.LeakageWeights, err = parseFloatList(v)
		if err != nil {
			return nil, invalid("leakage_weights", err)
		}
	}

	return c, nil
}

func missing(key string) error {
	return fmt.Errorf("config: missing required key %q: %w", key, qocerr.ErrMisconfiguration)
}

func invalid(key string, cause error) error {
	return fmt.Errorf("config: invalid value for %q: %v: %w", key, cause, qocerr.ErrMisconfiguration)
}

func parseOptionalFloat(m map[string]string, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, invalid(key, err)
	}
	return f, nil
}

func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseFloatList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseFloatListPerOscillator parses a ";"-separated list of
// comma-separated carrier-frequency groups, one group per oscillator.
func parseFloatListPerOscillator(s string, nOsc int) ([][]float64, error) {
	groups := strings.Split(s, ";")
	if len(groups) != nOsc {
		return nil, fmt.Errorf("need %d ';'-separated carrier groups (one per oscillator), got %d", nOsc, len(groups))
	}
	out := make([][]float64, nOsc)
	for i, g := range groups {
		freqs, err := parseFloatList(g)
		if err != nil {
			return nil, fmt.Errorf("oscillator %d: %w", i, err)
		}
		if len(freqs) == 0 {
			return nil, fmt.Errorf("oscillator %d: at least one carrier frequency is required", i)
		}
		out[i] = freqs
	}
	return out, nil
}
