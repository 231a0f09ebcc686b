// SPDX-License-Identifier: MIT

package nearcorr

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/nearcorr/matrix"
)

var (
	// ErrNotSymmetric is returned before any iteration when the input is not
	// exactly (bit-for-bit) symmetric. NaN entries count as asymmetric.
	ErrNotSymmetric = errors.New("nearcorr: input matrix is not symmetric")

	// ErrNotImplemented is returned for ModePartial, the partial
	// eigendecomposition variant, before any matrix computation.
	ErrNotImplemented = errors.New("nearcorr: partial eigendecomposition mode is not implemented")

	// ErrEigendecomposition wraps a failure of the eigensolver (non-convergence,
	// non-finite entries). It is fatal for the call.
	ErrEigendecomposition = errors.New("nearcorr: eigendecomposition failed")

	// ErrInvalidWeights is returned when the weight vector has the wrong length
	// or contains a non-positive or non-finite entry.
	ErrInvalidWeights = errors.New("nearcorr: weights must be positive and finite, one per row")

	// ErrExceededIterations matches every *ExceededIterationsError via errors.Is.
	ErrExceededIterations = errors.New("nearcorr: exceeded maximum iterations")
)

// ExceededIterationsError reports that the iteration budget ran out before
// convergence. It carries independent copies of the state needed to continue:
// pass it to Resume, or restart Nearest with X as input and
// WithCorrection(DS).
type ExceededIterationsError struct {
	// MaxIterations is the budget that was exhausted.
	MaxIterations int
	// Iteration is the number of iterations completed (equal to MaxIterations).
	Iteration int
	// X is the last unit-diagonal iterate.
	X *matrix.Dense
	// DS is the accumulated Dykstra correction at the time of failure.
	DS *matrix.Dense
}

// newExceededIterationsError snapshots x and dS; the caller keeps mutating
// its working matrices, so the fault must never alias them.
func newExceededIterationsError(maxIterations int, x, dS *matrix.Dense) *ExceededIterationsError {
	return &ExceededIterationsError{
		MaxIterations: maxIterations,
		Iteration:     maxIterations,
		X:             x.CloneDense(),
		DS:            dS.CloneDense(),
	}
}

// Error implements error.
func (e *ExceededIterationsError) Error() string {
	unit := "iterations"
	if e.MaxIterations == 1 {
		unit = "iteration"
	}

	return fmt.Sprintf("nearcorr: no solution found in %d %s", e.MaxIterations, unit)
}

// Is makes errors.Is(err, ErrExceededIterations) true.
func (e *ExceededIterationsError) Is(target error) bool {
	return target == ErrExceededIterations
}
