// SPDX-License-Identifier: MIT
// Package matrix: public API facades.
//
// Purpose:
//   - Provide thin entry points for common tasks across the package.
//   - Each facade is a composition of canonical kernels or delegates to a private
//     implementation; no loop logic is duplicated here.
//
// Determinism & Policy:
//   - Facades never change the loop orders or numeric policy of underlying kernels.
//   - Validation is performed in the kernels; facades only compose or forward.

package matrix

import "math"

// Operation tags for facades that wrap errors themselves.
const (
	opSymmetrize = "Symmetrize"
	opFrobenius  = "FrobeniusNorm"
	opOuter      = "Outer"
	opIdentity   = "NewIdentity"
)

// ---------- Constructors & Utilities ----------

// NewIdentity returns I_n (ones on the diagonal, zeros elsewhere).
// Complexity: O(n^2) zeroing + O(n) diagonal writes.
func NewIdentity(n int) (*Dense, error) {
	I, err := NewDense(n, n)
	if err != nil {
		return nil, matrixErrorf(opIdentity, err)
	}
	_ = I.FillDiagonal(1.0) // 1.0 is finite; the policy check cannot fail

	return I, nil
}

// ZerosLike returns a new zero matrix with the same shape as m.
func ZerosLike(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, err
	}

	return NewDense(m.Rows(), m.Cols())
}

// Outer returns the outer product x·yᵀ: out[i,j] = x[i]*y[j].
//
// Errors:
//   - ErrInvalidDimensions when x or y is empty.
//
// Complexity: Time O(len(x)*len(y)), Space O(len(x)*len(y)).
func Outer(x, y []float64) (*Dense, error) {
	out, err := NewDense(len(x), len(y), WithNoValidateNaNInf())
	if err != nil {
		return nil, matrixErrorf(opOuter, err)
	}
	var i, j, base int
	for i = 0; i < len(x); i++ {
		base = i * len(y)
		for j = 0; j < len(y); j++ {
			out.data[base+j] = x[i] * y[j]
		}
	}

	return out, nil
}

// ---------- Convenience facades (compositions only) ----------

// Symmetrize returns (m + mᵀ)/2. Deterministic composition: Transpose → Add → Scale.
// The result is symmetric bit-for-bit: out[i,j] and out[j,i] are computed from
// the same two summands.
//
// AI-Hints: Use after V·D·Vᵀ reconstructions to cancel rounding asymmetry.
func Symmetrize(m Matrix) (*Dense, error) {
	mt, err := Transpose(m)
	if err != nil {
		return nil, matrixErrorf(opSymmetrize, err)
	}
	sum, err := Add(m, mt)
	if err != nil {
		return nil, matrixErrorf(opSymmetrize, err)
	}

	return Scale(sum, 0.5)
}

// FrobeniusNorm returns ||m||_F = sqrt(Σ m[i,j]²).
// Accumulates plain squares in row-major order (no rescaling), so overflow
// is possible only for entries beyond ~1e154.
func FrobeniusNorm(m Matrix) (float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return 0, matrixErrorf(opFrobenius, err)
	}
	sum := NormZero
	if d, ok := m.(*Dense); ok {
		for _, v := range d.data {
			sum += v * v
		}

		return math.Sqrt(sum), nil
	}

	var v float64
	var err error
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			if v, err = m.At(i, j); err != nil {
				return 0, matrixErrorf(opFrobenius, err)
			}
			sum += v * v
		}
	}

	return math.Sqrt(sum), nil
}

// FrobeniusDistance returns ||a − b||_F.
func FrobeniusDistance(a, b Matrix) (float64, error) {
	d, err := Sub(a, b)
	if err != nil {
		return 0, err
	}

	return FrobeniusNorm(d)
}

// ---------- Sanitization & numeric compare ----------

// ClampMin returns a copy of x with every entry below lo replaced by lo.
// The input slice is never modified.
//
// AI-Hints: ClampMin(vals, 0) zeroes the negative part of a spectrum.
func ClampMin(x []float64, lo float64) []float64 { return ewClampMinVec(x, lo) }

// AllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// Returns (true,nil) if all elements satisfy the relation; (false,nil) otherwise.
// NaN != anything.
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	return ewAllClose(a, b, rtol, atol)
}

// ---------- Statistics ----------

// Correlation computes the Pearson correlation of columns via z-scoring:
//
//	Z = (X - mean) / std,  std^2 = Σ (Xc)^2 / (n-1),  degenerate std==0 ⇒ column zeroed.
//	Corr = (Zᵀ Z)/(n-1).
//
// Returns Corr, means, stds. Requires finite input; see PairwiseCorrelation for NaN gaps.
func Correlation(X Matrix) (*Dense, []float64, []float64, error) { return correlation(X) }

// PairwiseCorrelation computes Pearson correlations from pairwise-complete
// observations: for each column pair, rows where either value is NaN are
// skipped. Diagonal entries are exactly 1.
//
// The result is symmetric but, because each pair uses a different row subset,
// it is not guaranteed to be positive semidefinite.
func PairwiseCorrelation(X Matrix) (*Dense, error) { return pairwiseCorrelation(X) }
