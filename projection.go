// SPDX-License-Identifier: MIT

package nearcorr

import (
	"fmt"
	"math"

	"github.com/katalvlaran/nearcorr/matrix"
	"github.com/katalvlaran/nearcorr/spectral"
)

const (
	opProjectSPD = "projectSPD"
	opWeights    = "weightMatrix"
)

// projector maps the weighted residual onto the PSD cone.
type projector func(r *matrix.Dense) (*matrix.Dense, error)

// projector returns the projection handler for the mode. ModePartial has a
// defined handler that always reports ErrNotImplemented.
func (m Mode) projector(solver spectral.Solver) (projector, error) {
	switch m {
	case ModeFull:
		return func(r *matrix.Dense) (*matrix.Dense, error) { return projectSPD(r, solver) }, nil
	case ModePartial:
		return nil, ErrNotImplemented
	default:
		return nil, fmt.Errorf("%v: %w", m, ErrNotImplemented)
	}
}

// projectSPD returns the nearest positive semidefinite matrix to the symmetric
// m in Frobenius norm: V·diag(max(d,0))·Vᵀ from m = V·diag(d)·Vᵀ, followed by
// (P + Pᵀ)/2. The symmetrization is mandatory: it stops reconstruction
// rounding from accumulating across iterations.
//
// Errors:
//   - ErrEigendecomposition wrapping the solver's error.
//
// Complexity:
//   - Time O(n³) (eigensolver + reconstruction), Space O(n²).
func projectSPD(m *matrix.Dense, solver spectral.Solver) (*matrix.Dense, error) {
	d, v, err := solver.EigenSym(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opProjectSPD, ErrEigendecomposition, err)
	}

	vd, err := matrix.ScaleColumns(v, nonneg(d))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opProjectSPD, err)
	}
	vt, err := matrix.Transpose(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opProjectSPD, err)
	}
	p, err := matrix.Mul(vd, vt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opProjectSPD, err)
	}

	return matrix.Symmetrize(p)
}

// nonneg returns a copy of v with negative entries replaced by 0.
func nonneg(v []float64) []float64 { return matrix.ClampMin(v, 0) }

// weightMatrix builds Whalf[i][j] = sqrt(w[i]*w[j]).
// The product is commutative, so Whalf is exactly symmetric. Every entry is
// a divisor in the loop, so products that underflow to 0 or overflow to +Inf
// are rejected with ErrInvalidWeights.
func weightMatrix(w []float64) (*matrix.Dense, error) {
	outer, err := matrix.Outer(w, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opWeights, err)
	}
	if err = outer.Apply(func(_, _ int, x float64) float64 { return math.Sqrt(x) }); err != nil {
		return nil, fmt.Errorf("%s: %w", opWeights, err)
	}

	outer.Do(func(i, j int, x float64) bool {
		if x == 0 || math.IsInf(x, 0) {
			err = fmt.Errorf("%s: sqrt(w[%d]*w[%d]) = %v: %w", opWeights, i, j, x, ErrInvalidWeights)
			return false
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	return outer, nil
}
