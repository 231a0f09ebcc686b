// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// This file defines ONLY package-level sentinel errors used across the matrix
// package. Kernels return these sentinels (optionally wrapped with an operation
// tag) and tests check them via errors.Is. No kernel panics on user-triggered
// error conditions.

package matrix

import "errors"

// Every message is prefixed with "matrix: ..." for consistency and easy grepping.
// Kernels wrap with fmt.Errorf("<Op>: %w", ErrX); callers match with errors.Is.
//
// ERROR PRIORITY (enforced in tests):
// nil -> shape/index -> NaN/Inf -> structural violations (symmetry) -> numeric failure.

var (
	// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// Public indexers (At/Set) return this, never panic.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g., Add/Sub of different shapes, Mul where a.Cols != b.Rows, or a
	// non-square input where a square one is required.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrRaggedRows signals a row-slice input whose rows have different lengths.
	ErrRaggedRows = errors.New("matrix: rows have different lengths")

	// ErrAsymmetry signals that a matrix expected to be symmetric is not
	// (within the requested tolerance, or bit-for-bit for exact checks).
	ErrAsymmetry = errors.New("matrix: matrix is not symmetric")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix indicates that a nil Matrix (receiver or argument) was used.
	ErrNilMatrix = errors.New("matrix: nil matrix")

	// ErrMatrixEigenFailed indicates that an eigen routine failed to converge
	// under the given tolerance/iterations.
	ErrMatrixEigenFailed = errors.New("matrix: eigen decomposition failed")

	// ErrDivisionByZero is returned by elementwise division when a divisor entry is 0.
	ErrDivisionByZero = errors.New("matrix: division by zero")

	// ErrTooFewObservations is returned by correlation estimators when a column
	// (or a column pair) has fewer than two usable observations.
	ErrTooFewObservations = errors.New("matrix: fewer than two observations")
)
