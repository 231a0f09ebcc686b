// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide correlation estimators that produce the inputs of nearest-correlation
//     repair: full-sample Pearson (correlation) and NaN-aware pairwise-complete
//     Pearson (pairwiseCorrelation).
//
// Exposed API (api.go):
//   - Correlation(X)         -> (Corr, means, stds)
//   - PairwiseCorrelation(X) -> Corr
//
// Determinism & Performance:
//   - Fixed i→j traversal for all explicit loops.
//   - Only the upper triangle is computed; the lower triangle is mirrored, so
//     results are symmetric bit-for-bit.

package matrix

import "math"

// Operation name constants for unified error wrapping.
const (
	opCenterColumns       = "CenterColumns"
	opCorrelation         = "Correlation"
	opPairwiseCorrelation = "PairwiseCorrelation"
)

// centerColumns subtracts the per-column mean from every element.
//
// Returns:
//   - *Dense: centered copy (r×c).
//   - []float64: column means (len=c).
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func centerColumns(X Matrix) (*Dense, []float64, error) {
	d, err := DenseCopyOf(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}
	r, c := d.r, d.c
	means := make([]float64, c)
	var i, j int
	for i = 0; i < r; i++ {
		base := i * c
		for j = 0; j < c; j++ {
			means[j] += d.data[base+j]
		}
	}
	invR := 1.0 / float64(r)
	for j = 0; j < c; j++ {
		means[j] *= invR
	}

	Xc, err := ewBroadcastSubCols(d, means)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}

	return Xc, means, nil
}

// correlation computes the Pearson correlation of the columns of X.
//
// Implementation:
//   - Stage 1: validate X (finite, r>=2); center columns.
//   - Stage 2: sample std per column; degenerate std==0 → zero column.
//   - Stage 3: Corr[j,k] = Σ_i Z[i,j]·Z[i,k] / (r-1) on the upper triangle, mirrored.
//
// Errors:
//   - ErrNilMatrix, ErrNaNInf, ErrTooFewObservations (r<2).
//
// Complexity:
//   - Time O(r*c^2), Space O(r*c + c^2).
func correlation(X Matrix) (*Dense, []float64, []float64, error) {
	if err := ValidateFinite(X); err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	r, c := X.Rows(), X.Cols()
	if r < 2 {
		return nil, nil, nil, matrixErrorf(opCorrelation, ErrTooFewObservations)
	}

	Xc, means, err := centerColumns(X)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}

	var i, j, k int
	var v float64
	inv := 1.0 / float64(r-1)

	// std[j] = sqrt( Σ_i Xc[i,j]^2 / (r-1) ).
	stds := make([]float64, c)
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			v = Xc.data[i*c+j]
			stds[j] += v * v
		}
	}
	for j = 0; j < c; j++ {
		stds[j] = math.Sqrt(stds[j] * inv)
	}

	// Z = Xc * diag(1/std); degenerate columns become zero.
	invStd := make([]float64, c)
	for j = 0; j < c; j++ {
		if stds[j] > 0 {
			invStd[j] = 1.0 / stds[j]
		}
	}
	Z, err := ScaleColumns(Xc, invStd)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}

	corr, err := NewDense(c, c)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	var sum float64
	for j = 0; j < c; j++ {
		for k = j; k < c; k++ {
			sum = ZeroSum
			for i = 0; i < r; i++ {
				sum += Z.data[i*c+j] * Z.data[i*c+k]
			}
			corr.data[j*c+k] = sum * inv
			corr.data[k*c+j] = corr.data[j*c+k]
		}
	}

	return corr, means, stds, nil
}

// pairwiseCorrelation computes Pearson correlation per column pair from the
// rows where both values are present (not NaN).
//
// Implementation:
//   - Stage 1: copy X (NaN allowed; ±Inf rejected).
//   - Stage 2: for each pair j<k, collect complete rows, compute means, covariance
//     and variances over that subset; corr = cov / sqrt(varJ·varK).
//   - Stage 3: diagonal set to 1; pairs with zero variance get 0.
//
// Errors:
//   - ErrNilMatrix, ErrNaNInf (±Inf entries), ErrTooFewObservations when a pair
//     shares fewer than two complete rows.
//
// Complexity:
//   - Time O(r*c^2), Space O(r*c + c^2).
//
// Notes:
//   - Each pair sees a different sample, so the result may be indefinite;
//     that is exactly the input the nearest-correlation solver repairs.
func pairwiseCorrelation(X Matrix) (*Dense, error) {
	d, err := DenseCopyOf(X)
	if err != nil {
		return nil, matrixErrorf(opPairwiseCorrelation, err)
	}
	for _, v := range d.data {
		if math.IsInf(v, 0) {
			return nil, matrixErrorf(opPairwiseCorrelation, ErrNaNInf)
		}
	}

	r, c := d.r, d.c
	corr, err := NewIdentity(c)
	if err != nil {
		return nil, matrixErrorf(opPairwiseCorrelation, err)
	}

	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		if cols[j], err = ewColumn(d, j); err != nil {
			return nil, matrixErrorf(opPairwiseCorrelation, err)
		}
	}

	var (
		i, j, k, cnt           int
		meanJ, meanK           float64
		cov, varJ, varK, dj, dk float64
	)
	for j = 0; j < c; j++ {
		for k = j + 1; k < c; k++ {
			// Pass 1: means over complete rows.
			cnt, meanJ, meanK = 0, ZeroSum, ZeroSum
			for i = 0; i < r; i++ {
				if math.IsNaN(cols[j][i]) || math.IsNaN(cols[k][i]) {
					continue
				}
				cnt++
				meanJ += cols[j][i]
				meanK += cols[k][i]
			}
			if cnt < 2 {
				return nil, matrixErrorf(opPairwiseCorrelation, ErrTooFewObservations)
			}
			meanJ /= float64(cnt)
			meanK /= float64(cnt)

			// Pass 2: centered second moments.
			cov, varJ, varK = ZeroSum, ZeroSum, ZeroSum
			for i = 0; i < r; i++ {
				if math.IsNaN(cols[j][i]) || math.IsNaN(cols[k][i]) {
					continue
				}
				dj = cols[j][i] - meanJ
				dk = cols[k][i] - meanK
				cov += dj * dk
				varJ += dj * dj
				varK += dk * dk
			}
			if varJ > 0 && varK > 0 {
				corr.data[j*c+k] = cov / math.Sqrt(varJ*varK)
			}
			corr.data[k*c+j] = corr.data[j*c+k]
		}
	}

	return corr, nil
}
