// Command qocctl drives a single forward trajectory of the
// master-equation assembler against a control deck and dumps the
// persisted outputs named by the external interfaces: a fixed-width
// ASCII trajectory table, one control-pulse dump per oscillator, and
// the design vector actually used. It mirrors the teacher's
// cmd/main.go driver shape (read file -> parse -> build -> Setup ->
// Execute -> print), specialized from SPICE's netlist/analyzer split
// to this module's config/assembler/integrator pipeline.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/edp1096/qoc/assembler"
	"github.com/edp1096/qoc/config"
	"github.com/edp1096/qoc/control"
	"github.com/edp1096/qoc/integrate"
	"github.com/edp1096/qoc/linsolve"
	"github.com/edp1096/qoc/objective"
	"github.com/edp1096/qoc/oscillator"
	"github.com/edp1096/qoc/pulsefile"
	"github.com/edp1096/qoc/target"
	"github.com/edp1096/qoc/trajectory"
)

var (
	designFile = flag.String("design", "", "comma-separated design vector file (defaults to all-zero controls)")
	outPrefix  = flag.String("out", "", "output path prefix (defaults to stdout for the trajectory table; pulses/params are skipped if empty)")
	targetFile = flag.String("target", "", "comma-separated target state-vector file (re then im halves); when set, runs a gradient evaluation instead of a forward-only simulation")
)

// parseDeck parses the exhaustive key/value configuration deck: one
// `key = value` assignment per line, blank lines and `*`-prefixed
// comment lines ignored, matching the teacher's line-oriented netlist
// scan (pkg/netlist/parser.go) adapted from SPICE element cards to a
// flat key map.
func parseDeck(content string) (map[string]string, error) {
	m := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, fmt.Errorf("qocctl: malformed deck line (expected key = value): %q", line)
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		m[key] = val
	}
	return m, scanner.Err()
}

func buildSystem(c *config.Config) (*oscillator.System, error) {
	oscs := make([]*oscillator.Oscillator, len(c.NLevels))
	horizon := float64(c.NTime) * c.Dt
	for k, levels := range c.NLevels {
		basis, err := control.NewBasis(horizon, c.NSpline, c.CarrierFrequencies[k])
		if err != nil {
			return nil, fmt.Errorf("qocctl: oscillator %d control basis: %w", k, err)
		}
		essentialDim := levels
		leakWeight := 0.0
		if k < len(c.LeakageWeights) && c.LeakageWeights[k] != 0 {
			essentialDim = levels - 1
			leakWeight = c.LeakageWeights[k]
		}
		o, err := oscillator.New(fmt.Sprintf("q%d", k), levels, essentialDim, basis, leakWeight)
		if err != nil {
			return nil, fmt.Errorf("qocctl: oscillator %d: %w", k, err)
		}
		oscs[k] = o
	}
	return oscillator.NewSystem(oscs)
}

// assemblerMode derives the physical representation from lindblad_type:
// "none" runs the pure-state Schrodinger equation, any active
// dissipation channel runs the vectorized Lindblad equation. The
// config deck carries no separate mode key, so this is the one place
// that decision is made.
func assemblerMode(c *config.Config) assembler.Mode {
	if c.LindbladType == "" || c.LindbladType == "none" {
		return assembler.Schrodinger
	}
	return assembler.Lindblad
}

func lindbladKind(c *config.Config) assembler.LindbladKind {
	switch c.LindbladType {
	case "decay":
		return assembler.LindbladDecay
	case "dephase":
		return assembler.LindbladDephase
	case "both":
		return assembler.LindbladBoth
	default:
		return assembler.LindbladNone
	}
}

func buildIntegrator(name string) (integrate.Method, error) {
	switch name {
	case "euler":
		return integrate.Euler{}, nil
	case "impl_midpoint":
		return integrate.ImplicitMidpoint{}, nil
	case "composition_4":
		return integrate.NewComposition4(), nil
	case "composition_8":
		return integrate.NewComposition8(), nil
	default:
		return nil, fmt.Errorf("qocctl: unknown integrator %q", name)
	}
}

func buildSolver(name string) linsolve.Method {
	if name == "neumann" {
		return linsolve.Neumann{}
	}
	return linsolve.GMRES{}
}

// groundState builds the ground-state initial condition (all
// population in basis index 0) in whichever representation order
// implies: 2N for Schrodinger, 2N^2 for Lindblad's vectorized rho.
func groundState(mode assembler.Mode, n int) []float64 {
	if mode == assembler.Schrodinger {
		state := make([]float64, 2*n)
		state[0] = 1
		return state
	}
	state := make([]float64, 2*n*n)
	state[0] = 1 // vecRe index (col*n+row) for (row,col)=(0,0) is 0
	return state
}

func parseDesignFile(path string, want int) ([]float64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("qocctl: reading design file: %w", err)
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ",")
	x := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var v float64
		if _, err := fmt.Sscanf(p, "%g", &v); err != nil {
			return nil, fmt.Errorf("qocctl: design file: %w", err)
		}
		x = append(x, v)
	}
	if len(x) != want {
		return nil, fmt.Errorf("qocctl: design file has %d values, assembler needs %d", len(x), want)
	}
	return x, nil
}

func parseTargetFile(path string, want int) ([]float64, error) {
	return parseDesignFile(path, want)
}

// targetMode maps the assembler's physical-representation mode onto
// target's Mode, which the target package keeps independent to avoid
// importing assembler (§9 "each component takes exactly the
// collaborators it needs").
func targetMode(mode assembler.Mode) target.Mode {
	if mode == assembler.Schrodinger {
		return target.Schrodinger
	}
	return target.Lindblad
}

func trajectoryMode(mode assembler.Mode) trajectory.Mode {
	if mode == assembler.Lindblad {
		return trajectory.Lindblad
	}
	return trajectory.Schrodinger
}

// runGradient composes a forward trajectory, the terminal/running
// objective, and the discrete-adjoint backward sweep into a single
// gradient evaluation (§6 "solve_adjoint_ode(...) -> accumulates into
// grad"), writing the scalar cost J followed by the design gradient
// to out.
func runGradient(cfg *config.Config, sys *oscillator.System, a *assembler.Assembler, mode assembler.Mode, x []float64, method integrate.Method, solver linsolve.Method, settings linsolve.Settings, out *os.File) error {
	vecLen := a.Order
	targetVec, err := parseTargetFile(*targetFile, vecLen)
	if err != nil {
		return err
	}
	tgt := &target.StateTransfer{Mode: targetMode(mode), TargetVec: targetVec}

	state := groundState(mode, sys.N)

	tr, err := trajectory.Run(trajectoryMode(mode), method, solver, settings, a.AssembleRHS, state, 0, cfg.Dt, cfg.NTime)
	if err != nil {
		return fmt.Errorf("qocctl: gradient forward sweep: %w", err)
	}

	obj := objective.New(objective.Config{
		Target:        tgt,
		GammaTikhonov: cfg.GammaTikhonov,
		GammaPenalty:  cfg.GammaPenalty,
		GammaLeakage:  cfg.GammaLeakage,
		PenaltyParam:  cfg.PenaltyParam,
		EssentialMask: sys.EssentialMask(),
		GuardWeight:   sys.GuardWeight(),
		T:             float64(cfg.NTime) * cfg.Dt,
	})
	if cfg.GammaPenalty != 0 || cfg.GammaLeakage != 0 {
		for i := 0; i <= cfg.NTime; i++ {
			si, err := tr.StateAt(i)
			if err != nil {
				return fmt.Errorf("qocctl: gradient running penalty: %w", err)
			}
			obj.AccumulateStep(float64(i)*cfg.Dt, si, cfg.Dt)
		}
	}

	x0 := make([]float64, len(x))
	grad := make([]float64, sys.ParamDim())
	j, terminalGrad := obj.Finalize(tr.Final(), x, x0, grad)

	contrib := func(t float64, stateFwd, stateAdj []float64, scale float64) error {
		return a.ComputeDRHSDPContrib(t, stateFwd, stateAdj, scale, grad)
	}
	if _, err := tr.SolveAdjoint(terminalGrad, contrib); err != nil {
		return fmt.Errorf("qocctl: adjoint sweep: %w", err)
	}

	if _, err := fmt.Fprintf(out, "J %.15g\n", j); err != nil {
		return fmt.Errorf("qocctl: writing J: %w", err)
	}
	if err := pulsefile.WriteParameterVector(out, grad); err != nil {
		return fmt.Errorf("qocctl: writing gradient: %w", err)
	}
	return nil
}

func norm2(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func openOut(suffix string) (*os.File, func(), error) {
	if *outPrefix == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(*outPrefix + suffix)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func run() error {
	flag.Parse()
	if flag.NArg() != 1 {
		return fmt.Errorf("usage: qocctl <deck_file>")
	}

	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("qocctl: reading deck: %w", err)
	}
	deckMap, err := parseDeck(string(content))
	if err != nil {
		return err
	}
	cfg, err := config.FromMap(deckMap)
	if err != nil {
		return err
	}

	sys, err := buildSystem(cfg)
	if err != nil {
		return err
	}

	mode := assemblerMode(cfg)
	a, err := assembler.New(mode, sys, nil, lindbladKind(cfg), cfg.LindbladCollapseRates)
	if err != nil {
		return fmt.Errorf("qocctl: building assembler: %w", err)
	}

	x := make([]float64, sys.ParamDim())
	if *designFile != "" {
		x, err = parseDesignFile(*designFile, sys.ParamDim())
		if err != nil {
			return err
		}
	}
	if err := a.SetDesign(x); err != nil {
		return err
	}

	method, err := buildIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	solver := buildSolver(cfg.LinearSolver)
	settings := linsolve.Settings{Tolerance: cfg.LinSolveTolerance, MaxIterations: cfg.LinSolveMaxIter}

	if *targetFile != "" {
		out, closeOut, err := openOut(".grad")
		if err != nil {
			return err
		}
		defer closeOut()
		return runGradient(cfg, sys, a, mode, x, method, solver, settings, out)
	}

	state := groundState(mode, sys.N)
	refNorm := norm2(state)

	steps := make([]int, 0, cfg.NTime+1)
	times := make([]float64, 0, cfg.NTime+1)
	norms := make([]float64, 0, cfg.NTime+1)
	refNorms := make([]float64, 0, cfg.NTime+1)

	steps = append(steps, 0)
	times = append(times, 0)
	norms = append(norms, norm2(state))
	refNorms = append(refNorms, refNorm)

	t := 0.0
	for step := 1; step <= cfg.NTime; step++ {
		next, err := method.EvolveFwd(a.AssembleRHS, solver, settings, state, t, cfg.Dt)
		if err != nil {
			return fmt.Errorf("qocctl: step %d: %w", step, err)
		}
		state = next
		t += cfg.Dt

		steps = append(steps, step)
		times = append(times, t)
		norms = append(norms, norm2(state))
		refNorms = append(refNorms, refNorm)
	}

	trajOut, closeTraj, err := openOut(".traj")
	if err != nil {
		return err
	}
	defer closeTraj()
	if err := pulsefile.WriteTrajectory(trajOut, steps, times, norms, refNorms); err != nil {
		return fmt.Errorf("qocctl: writing trajectory: %w", err)
	}

	if *outPrefix == "" {
		return nil
	}

	pulseTimes := make([]float64, cfg.NTime+1)
	for i := range pulseTimes {
		pulseTimes[i] = float64(i) * cfg.Dt
	}
	for k, o := range sys.Oscillators {
		theta := x[sys.ParamOffsets()[k] : sys.ParamOffsets()[k]+sys.ParamLens()[k]]
		pvals := make([]float64, len(pulseTimes))
		qvals := make([]float64, len(pulseTimes))
		for i, pt := range pulseTimes {
			pvals[i], qvals[i] = o.Basis.Evaluate(pt, theta)
		}
		pulseOut, closePulse, err := openOut(fmt.Sprintf(".pulse%d", k))
		if err != nil {
			return err
		}
		err = pulsefile.WriteControlPulse(pulseOut, pulseTimes, pvals, qvals)
		closePulse()
		if err != nil {
			return fmt.Errorf("qocctl: writing pulse %d: %w", k, err)
		}
	}

	paramOut, closeParam, err := openOut(".params")
	if err != nil {
		return err
	}
	defer closeParam()
	if err := pulsefile.WriteParameterVector(paramOut, x); err != nil {
		return fmt.Errorf("qocctl: writing parameter vector: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
