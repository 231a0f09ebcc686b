// SPDX-License-Identifier: MIT

package spectral

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/nearcorr/matrix"
)

// Solver names accepted by ByName.
const (
	NameLAPACK = "lapack"
	NameJacobi = "jacobi"
)

// Jacobi defaults.
const (
	// DefaultJacobiTol is the off-diagonal threshold relative to max(1, ||M||_F).
	DefaultJacobiTol = 1e-14

	// DefaultJacobiRotationsPerEntry bounds rotations at this many per
	// off-diagonal pair (n(n-1)/2 pairs).
	DefaultJacobiRotationsPerEntry = 64
)

const opEigenSym = "EigenSym"

// ErrUnknownSolver is returned by ByName for an unrecognized solver name.
var ErrUnknownSolver = errors.New("spectral: unknown solver")

// Solver computes the eigendecomposition M = V·diag(values)·Vᵀ of a real
// symmetric matrix. Columns of vectors are orthonormal eigenvectors matching
// values index by index. Implementations never mutate m.
type Solver interface {
	EigenSym(m *matrix.Dense) (values []float64, vectors *matrix.Dense, err error)
}

// Default returns the solver used when none is configured.
func Default() Solver { return LAPACK{} }

// ByName maps a configuration string to a Solver. Matching is case-insensitive;
// the empty string selects Default.
func ByName(name string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameLAPACK:
		return LAPACK{}, nil
	case NameJacobi:
		return Jacobi{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownSolver)
	}
}

// validateInput applies the checks shared by every Solver.
func validateInput(m *matrix.Dense) error {
	if err := matrix.ValidateSquareNonNil(m); err != nil {
		return err
	}

	return matrix.ValidateFinite(m)
}

// LAPACK solves with gonum's mat.EigenSym (dsyev). Only the upper triangle
// of the input is read, so tiny asymmetries are ignored rather than rejected.
type LAPACK struct{}

// EigenSym implements Solver.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch, matrix.ErrNaNInf on bad input.
//   - matrix.ErrMatrixEigenFailed when dsyev does not converge or yields non-finite output.
func (LAPACK) EigenSym(m *matrix.Dense) ([]float64, *matrix.Dense, error) {
	if err := validateInput(m); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opEigenSym, err)
	}
	n := m.Rows()

	// mat.NewSymDense adopts its backing slice, so hand it a copy.
	raw := m.RawRows()
	backing := make([]float64, 0, n*n)
	for _, row := range raw {
		backing = append(backing, row...)
	}
	sym := mat.NewSymDense(n, backing)

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return nil, nil, fmt.Errorf("%s: dsyev: %w", opEigenSym, matrix.ErrMatrixEigenFailed)
	}
	values := es.Values(nil)

	var ev mat.Dense
	es.VectorsTo(&ev)

	vectors, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opEigenSym, err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			// Set rejects NaN/Inf under the default policy: a diverged factorization surfaces here.
			if err = vectors.Set(i, j, ev.At(i, j)); err != nil {
				return nil, nil, fmt.Errorf("%s: %w: %w", opEigenSym, matrix.ErrMatrixEigenFailed, err)
			}
		}
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%s: eigenvalue %v: %w", opEigenSym, v, matrix.ErrMatrixEigenFailed)
		}
	}

	return values, vectors, nil
}

// Jacobi solves with classical Jacobi rotations (matrix.Eigen).
// The zero value uses DefaultJacobiTol and DefaultJacobiRotationsPerEntry.
type Jacobi struct {
	// Tol is the off-diagonal threshold relative to max(1, ||M||_F); 0 means default.
	Tol float64
	// MaxRotations caps the number of rotations; 0 means default.
	MaxRotations int
}

// EigenSym implements Solver. The input must be exactly symmetric within the
// absolute threshold; values come back in rotation order (unsorted).
func (j Jacobi) EigenSym(m *matrix.Dense) ([]float64, *matrix.Dense, error) {
	if err := validateInput(m); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opEigenSym, err)
	}
	n := m.Rows()

	tol := j.Tol
	if tol <= 0 {
		tol = DefaultJacobiTol
	}
	norm, err := matrix.FrobeniusNorm(m)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opEigenSym, err)
	}
	tol *= math.Max(1, norm)

	maxRot := j.MaxRotations
	if maxRot <= 0 {
		maxRot = DefaultJacobiRotationsPerEntry * (n*(n-1)/2 + 1)
	}

	values, vectors, err := matrix.Eigen(m, tol, maxRot)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opEigenSym, err)
	}

	return values, vectors, nil
}
