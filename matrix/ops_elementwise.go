// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide small, *private* element-wise and broadcast kernels (ew*) to avoid
//     duplicating tight loops across higher-level ops (stats, sanitize).
//   - Keep all loops deterministic and cache-friendly with Dense fast-paths.
//
// Design:
//   - All ew* are UNEXPORTED (internal micro-kernels); api.go exposes thin wrappers.

package matrix

import (
	"fmt"
	"math"
)

// ewBroadcastSubCols computes out[i,j] = X[i,j] - colMeans[j].
// Time: O(r*c). Space: O(r*c).
func ewBroadcastSubCols(X Matrix, colMeans []float64) (*Dense, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, err
	}
	if err := ValidateVecLen(colMeans, X.Cols()); err != nil {
		return nil, err
	}
	out, err := DenseCopyOf(X)
	if err != nil {
		return nil, err
	}
	var i, j, base int
	for i = 0; i < out.r; i++ {
		base = i * out.c
		for j = 0; j < out.c; j++ {
			out.data[base+j] -= colMeans[j]
		}
	}

	return out, nil
}

// ewClampMinVec returns a copy of x with entries below lo raised to lo.
// NaN entries are kept as NaN (NaN < lo is false).
func ewClampMinVec(x []float64, lo float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for i, v := range out {
		if v < lo {
			out[i] = lo
		}
	}

	return out
}

// ewAllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// Time: O(r*c). Space: O(1).
//
// Policy:
//   - rtol, atol are treated as |rtol|, |atol|; NaN/Inf tolerances are rejected.
func ewAllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if math.IsNaN(rtol) || math.IsNaN(atol) || math.IsInf(rtol, 0) || math.IsInf(atol, 0) {
		return false, matrixErrorf("AllClose", ErrNaNInf)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)
	if err := ValidateBinarySameShape(a, b); err != nil {
		return false, matrixErrorf("AllClose", err)
	}

	var av, bv float64
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			av, _ = a.At(i, j)
			bv, _ = b.At(i, j)
			// !(x <= y) also catches NaN on either side.
			if !(math.Abs(av-bv) <= atol+rtol*math.Abs(bv)) {
				return false, nil
			}
		}
	}

	return true, nil
}

// ewColumn copies column j of a *Dense into a new slice.
func ewColumn(d *Dense, j int) ([]float64, error) {
	if j < 0 || j >= d.c {
		return nil, fmt.Errorf("column %d: %w", j, ErrOutOfRange)
	}
	col := make([]float64, d.r)
	for i := 0; i < d.r; i++ {
		col[i] = d.data[i*d.c+j]
	}

	return col, nil
}
