// SPDX-License-Identifier: MIT

// Functional configuration for Nearest.
//
// Design goals:
//   - Per-call defaults: every Nearest call builds its own Options, so no
//     default slice or matrix is shared between calls.
//   - Safe by construction: option constructors panic only on nonsensical
//     values (programmer error); data-dependent checks (weights length,
//     correction shape) happen in Nearest and return errors.

package nearcorr

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/nearcorr/matrix"
	"github.com/katalvlaran/nearcorr/spectral"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultMaxIterations is the iteration budget when none is given.
	DefaultMaxIterations = 100

	// MachineEpsilon is the spacing of float64 at 1.0 (2^-52). The default
	// tolerance for an n×n input is MachineEpsilon * n.
	MachineEpsilon = 0x1p-52
)

// ---------- Internal panic messages ----------

const (
	panicToleranceInvalid     = "nearcorr: WithTolerance: tolerances must be finite and non-negative"
	panicMaxIterationsInvalid = "nearcorr: WithMaxIterations: budget must be non-negative"
	panicModeInvalid          = "nearcorr: WithMode: unknown mode"
	panicSolverNil            = "nearcorr: WithSolver: solver must not be nil"
)

// Mode selects the projection strategy onto the PSD cone.
type Mode int

const (
	// ModeFull projects with a full eigendecomposition. This is the default.
	ModeFull Mode = iota
	// ModePartial would project with a partial eigendecomposition for highly
	// non-positive-definite inputs. It is not implemented: Nearest fails with
	// ErrNotImplemented before any computation.
	ModePartial
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModePartial:
		return "partial"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Tolerance is the pair of stopping thresholds.
// Only Convergence is read by the full-eigendecomposition path; Eigenvalue is
// the "sufficiently positive" threshold reserved for ModePartial.
type Tolerance struct {
	Convergence float64
	Eigenvalue  float64
}

// DefaultTolerance returns MachineEpsilon*n for both components.
func DefaultTolerance(n int) Tolerance {
	t := MachineEpsilon * float64(n)

	return Tolerance{Convergence: t, Eigenvalue: t}
}

// IterationStats describes one completed iteration; see WithObserver.
type IterationStats struct {
	Iteration int
	RelDiffX  float64 // ||X − Xold||_F / ||X||_F
	RelDiffY  float64 // ||Y − Yold||_F / ||Y||_F
	RelDiffXY float64 // ||Y − X||_F / ||Y||_F
}

// Option mutates Options. Options are applied in order; the last one wins.
type Option func(*Options)

// Options holds the configuration of a single Nearest call.
type Options struct {
	tolerance     *Tolerance
	convergence   *float64
	eigenvalue    *float64
	mode          Mode
	maxIterations int
	weights       []float64
	correction    matrix.Matrix
	solver        spectral.Solver
	logger        zerolog.Logger
	observer      func(IterationStats)
}

// WithTolerance sets both tolerance components.
// Panics if either value is NaN, infinite or negative.
func WithTolerance(convergence, eigenvalue float64) Option {
	if !validTolerance(convergence) || !validTolerance(eigenvalue) {
		panic(panicToleranceInvalid)
	}

	return func(o *Options) {
		o.tolerance = &Tolerance{Convergence: convergence, Eigenvalue: eigenvalue}
		o.convergence = nil
		o.eigenvalue = nil
	}
}

// WithConvergenceTolerance sets only the convergence tolerance; the
// eigenvalue component keeps its default (or a value set by WithTolerance).
func WithConvergenceTolerance(tol float64) Option {
	if !validTolerance(tol) {
		panic(panicToleranceInvalid)
	}

	return func(o *Options) { o.convergence = &tol }
}

// WithEigenTolerance sets only the eigenvalue tolerance; the convergence
// component keeps its default (or a value set by WithTolerance).
func WithEigenTolerance(tol float64) Option {
	if !validTolerance(tol) {
		panic(panicToleranceInvalid)
	}

	return func(o *Options) { o.eigenvalue = &tol }
}

// WithMode selects the projection mode. Panics on values outside the Mode constants.
func WithMode(m Mode) Option {
	if m != ModeFull && m != ModePartial {
		panic(panicModeInvalid)
	}

	return func(o *Options) { o.mode = m }
}

// WithMaxIterations sets the iteration budget. Iterations count from 1; the
// first iteration beyond the budget fails with *ExceededIterationsError.
// A budget of 0 fails before any projection. Panics on negative values.
func WithMaxIterations(k int) Option {
	if k < 0 {
		panic(panicMaxIterationsInvalid)
	}

	return func(o *Options) { o.maxIterations = k }
}

// WithWeights sets the diagonal weight vector w (one positive entry per row).
// The slice is copied; later changes by the caller have no effect.
func WithWeights(w []float64) Option {
	cp := append([]float64(nil), w...)

	return func(o *Options) { o.weights = cp }
}

// WithCorrection sets the starting Dykstra correction dS, typically the DS of
// an *ExceededIterationsError. The matrix is copied when Nearest starts.
func WithCorrection(dS matrix.Matrix) Option {
	return func(o *Options) { o.correction = dS }
}

// WithSolver sets the eigensolver. Panics on nil.
func WithSolver(s spectral.Solver) Option {
	if s == nil {
		panic(panicSolverNil)
	}

	return func(o *Options) { o.solver = s }
}

// WithLogger sets the logger for per-iteration debug events. Default: zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithObserver registers a callback invoked after every completed iteration.
func WithObserver(f func(IterationStats)) Option {
	return func(o *Options) { o.observer = f }
}

// gatherOptions builds a fresh Options from defaults and user options.
func gatherOptions(user ...Option) Options {
	o := Options{
		mode:          ModeFull,
		maxIterations: DefaultMaxIterations,
		solver:        spectral.Default(),
		logger:        zerolog.Nop(),
	}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}

// toleranceFor resolves the effective tolerance for an n×n problem.
func (o *Options) toleranceFor(n int) Tolerance {
	t := DefaultTolerance(n)
	if o.tolerance != nil {
		t = *o.tolerance
	}
	if o.convergence != nil {
		t.Convergence = *o.convergence
	}
	if o.eigenvalue != nil {
		t.Eigenvalue = *o.eigenvalue
	}

	return t
}

// EffectiveTolerance returns the tolerance Nearest would use for an n×n
// input under opts.
func EffectiveTolerance(n int, opts ...Option) Tolerance {
	o := gatherOptions(opts...)

	return o.toleranceFor(n)
}

// weightsFor returns the validated weight vector for an n×n problem,
// constructing a fresh all-ones vector when none was given.
func (o *Options) weightsFor(n int) ([]float64, error) {
	if o.weights == nil {
		w := make([]float64, n)
		for i := range w {
			w[i] = 1
		}

		return w, nil
	}
	if len(o.weights) != n {
		return nil, fmt.Errorf("got %d weights for %d rows: %w", len(o.weights), n, ErrInvalidWeights)
	}
	for i, v := range o.weights {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("weight %d = %v: %w", i, v, ErrInvalidWeights)
		}
	}

	return append([]float64(nil), o.weights...), nil
}

func validTolerance(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
