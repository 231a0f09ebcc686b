// SPDX-License-Identifier: MIT

package nearcorr

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/nearcorr/matrix"
)

const (
	opNearest = "Nearest"
	opResume  = "Resume"
)

// Result is a converged nearest correlation matrix.
type Result struct {
	// X is symmetric, positive semidefinite within solver rounding, and has
	// a diagonal of exactly 1.
	X *matrix.Dense
	// Iterations is the number of iterations this call performed.
	Iterations int
}

// Nearest returns the nearest correlation matrix to the symmetric matrix a.
//
// Implementation:
//   - Stage 1: validate a (non-nil, square, bit-for-bit symmetric), the mode,
//     the weights and the starting correction; no iteration runs on failure.
//   - Stage 2: alternate PSD and unit-diagonal projections with Dykstra's
//     correction until max(relDiffX, relDiffY, relDiffXY) ≤ tol.Convergence.
//
// Errors:
//   - ErrNotSymmetric, ErrNotImplemented, ErrInvalidWeights,
//     matrix.ErrNilMatrix / matrix.ErrDimensionMismatch (shape problems).
//   - ErrEigendecomposition from the eigensolver (fatal).
//   - *ExceededIterationsError when the budget runs out (resumable).
//
// Notes:
//   - a is copied on entry and never mutated.
func Nearest(a matrix.Matrix, opts ...Option) (*Result, error) {
	o := gatherOptions(opts...)

	if err := matrix.ValidateSquareNonNil(a); err != nil {
		return nil, fmt.Errorf("%s: %w", opNearest, err)
	}
	if err := matrix.ValidateExactSymmetric(a); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opNearest, ErrNotSymmetric, err)
	}
	project, err := o.mode.projector(o.solver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opNearest, err)
	}

	n := a.Rows()
	w, err := o.weightsFor(n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opNearest, err)
	}
	whalf, err := weightMatrix(w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opNearest, err)
	}

	var dS *matrix.Dense
	if o.correction != nil {
		if err = matrix.ValidateBinarySameShape(a, o.correction); err != nil {
			return nil, fmt.Errorf("%s: correction: %w", opNearest, err)
		}
		if dS, err = matrix.DenseCopyOf(o.correction); err != nil {
			return nil, fmt.Errorf("%s: correction: %w", opNearest, err)
		}
	} else if dS, err = matrix.ZerosLike(a); err != nil {
		return nil, fmt.Errorf("%s: %w", opNearest, err)
	}

	x, err := matrix.DenseCopyOf(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opNearest, err)
	}
	s := &state{
		x:     x,
		y:     x.CloneDense(),
		dS:    dS,
		whalf: whalf,
		tol:   o.toleranceFor(n),
	}

	return s.run(project, &o)
}

// Resume continues a run that failed with *ExceededIterationsError, starting
// from the fault's X with its DS as the initial correction and a fresh
// budget. opts are applied after the correction, so a WithCorrection in opts
// overrides the fault's DS.
func Resume(fault *ExceededIterationsError, opts ...Option) (*Result, error) {
	if fault == nil || fault.X == nil || fault.DS == nil {
		return nil, fmt.Errorf("%s: %w", opResume, matrix.ErrNilMatrix)
	}
	all := append([]Option{WithCorrection(fault.DS)}, opts...)

	res, err := Nearest(fault.X, all...)
	if err != nil && !errors.Is(err, ErrExceededIterations) {
		return nil, fmt.Errorf("%s: %w", opResume, err)
	}

	return res, err
}

// state is the loop-local working set of one Nearest call.
type state struct {
	x, y, dS *matrix.Dense
	whalf    *matrix.Dense
	tol      Tolerance
}

// run performs the alternating projections.
func (s *state) run(project projector, o *Options) (*Result, error) {
	relDiffX, relDiffY, relDiffXY := math.Inf(1), math.Inf(1), math.Inf(1)
	iteration := 0

	for math.Max(relDiffX, math.Max(relDiffY, relDiffXY)) > s.tol.Convergence {
		iteration++
		if iteration > o.maxIterations {
			fault := newExceededIterationsError(o.maxIterations, s.x, s.dS)
			o.logger.Warn().
				Int("max_iterations", o.maxIterations).
				Float64("rel_diff", math.Max(relDiffX, math.Max(relDiffY, relDiffXY))).
				Float64("tol", s.tol.Convergence).
				Msg("nearcorr: iteration budget exhausted")

			return nil, fault
		}

		xOld := s.x.CloneDense()

		r, err := matrix.Sub(s.x, s.dS)
		if err != nil {
			return nil, fmt.Errorf("%s: iteration %d: %w", opNearest, iteration, err)
		}
		rw, err := matrix.Hadamard(s.whalf, r)
		if err != nil {
			return nil, fmt.Errorf("%s: iteration %d: %w", opNearest, iteration, err)
		}
		x, err := project(rw)
		if err != nil {
			return nil, fmt.Errorf("%s: iteration %d: %w", opNearest, iteration, err)
		}
		if x, err = matrix.Divide(x, s.whalf); err != nil {
			return nil, fmt.Errorf("%s: iteration %d: %w", opNearest, iteration, err)
		}
		if s.dS, err = matrix.Sub(x, r); err != nil {
			return nil, fmt.Errorf("%s: iteration %d: %w", opNearest, iteration, err)
		}
		s.x = x

		yOld := s.y.CloneDense()
		s.y = s.x.CloneDense()
		if err = s.y.FillDiagonal(1.0); err != nil {
			return nil, fmt.Errorf("%s: iteration %d: %w", opNearest, iteration, err)
		}

		stats, err := s.relativeDiffs(xOld, yOld)
		if err != nil {
			return nil, fmt.Errorf("%s: iteration %d: %w", opNearest, iteration, err)
		}
		stats.Iteration = iteration
		relDiffX, relDiffY, relDiffXY = stats.RelDiffX, stats.RelDiffY, stats.RelDiffXY

		s.x = s.y.CloneDense()

		o.logger.Debug().
			Int("iteration", iteration).
			Float64("rel_diff_x", relDiffX).
			Float64("rel_diff_y", relDiffY).
			Float64("rel_diff_xy", relDiffXY).
			Msg("nearcorr: iteration")
		if o.observer != nil {
			o.observer(stats)
		}
	}

	return &Result{X: s.x, Iterations: iteration}, nil
}

// relativeDiffs computes the three convergence quantities against the
// pre-update snapshots. It runs before X is replaced by Y.
func (s *state) relativeDiffs(xOld, yOld *matrix.Dense) (IterationStats, error) {
	normX, err := matrix.FrobeniusNorm(s.x)
	if err != nil {
		return IterationStats{}, err
	}
	normY, err := matrix.FrobeniusNorm(s.y)
	if err != nil {
		return IterationStats{}, err
	}
	dX, err := matrix.FrobeniusDistance(s.x, xOld)
	if err != nil {
		return IterationStats{}, err
	}
	dY, err := matrix.FrobeniusDistance(s.y, yOld)
	if err != nil {
		return IterationStats{}, err
	}
	dXY, err := matrix.FrobeniusDistance(s.y, s.x)
	if err != nil {
		return IterationStats{}, err
	}

	return IterationStats{
		RelDiffX:  dX / normX,
		RelDiffY:  dY / normY,
		RelDiffXY: dXY / normY,
	}, nil
}
