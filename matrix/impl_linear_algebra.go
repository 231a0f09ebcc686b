// SPDX-License-Identifier: MIT
// Package matrix provides universal operations on any Matrix implementation:
// element-wise addition, subtraction, product and quotient, matrix
// multiplication, transpose, scalar scaling, column scaling and the Jacobi
// eigen-decomposition of symmetric matrices. All functions perform strict
// fail-fast validation and return clear errors on dimension mismatches.
//
// Notes:
//   - Every kernel allocates a fresh *Dense result; operands are never mutated.
//   - Every kernel has a *Dense fast path over the flat buffer and an At-based fallback.

package matrix

import (
	"fmt"
	"math"
)

// NormZero is the additive identity for norm and accumulation operations.
const NormZero = 0.0

// ZeroSum is the initial sum value for accumulations.
const ZeroSum = 0.0

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opAdd          = "Add"
	opSub          = "Sub"
	opMul          = "Mul"
	opTranspose    = "Transpose"
	opScale        = "Scale"
	opEigen        = "Eigen"
	opHadamard     = "Hadamard"
	opDivide       = "Divide"
	opScaleColumns = "ScaleColumns"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// elementwise computes out[i,j] = f(a[i,j], b[i,j]) for identical shapes.
// Shared by Add/Sub/Hadamard so validation, allocation and the fast path live in one place.
//
// Complexity:
//   - Time O(r*c), Space O(r*c) for the new result.
func elementwise(a, b Matrix, opTag string, f func(x, y float64) float64) (*Dense, error) {
	if err := ValidateBinarySameShape(a, b); err != nil {
		return nil, matrixErrorf(opTag, err)
	}

	rows, cols := a.Rows(), a.Cols()
	res, err := NewDense(rows, cols, WithNoValidateNaNInf())
	if err != nil {
		return nil, matrixErrorf(opTag, err)
	}

	// Fast-path: both operands are *Dense → single flat walk.
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			for idx := range res.data {
				res.data[idx] = f(da.data[idx], db.data[idx])
			}

			return res, nil
		}
	}

	// Fallback: generic interface loop using At (shape already validated).
	var i, j int
	var av, bv float64
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			if av, err = a.At(i, j); err != nil {
				return nil, matrixErrorf(opTag, fmt.Errorf("At(%d,%d): %w", i, j, err))
			}
			if bv, err = b.At(i, j); err != nil {
				return nil, matrixErrorf(opTag, fmt.Errorf("At(%d,%d): %w", i, j, err))
			}
			res.data[i*cols+j] = f(av, bv)
		}
	}

	return res, nil
}

// Add returns a + b (element-wise). Shapes must match.
// Errors: ErrNilMatrix, ErrDimensionMismatch (wrapped with "Add").
func Add(a, b Matrix) (*Dense, error) {
	return elementwise(a, b, opAdd, func(x, y float64) float64 { return x + y })
}

// Sub returns a − b (element-wise). Shapes must match.
// Errors: ErrNilMatrix, ErrDimensionMismatch (wrapped with "Sub").
func Sub(a, b Matrix) (*Dense, error) {
	return elementwise(a, b, opSub, func(x, y float64) float64 { return x - y })
}

// Hadamard returns the element-wise product a ⊙ b.
//
// Notes:
//   - Hadamard ≠ matrix multiplication; use Mul for A×B.
func Hadamard(a, b Matrix) (*Dense, error) {
	return elementwise(a, b, opHadamard, func(x, y float64) float64 { return x * y })
}

// Divide returns the element-wise quotient a ⊘ b.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (wrapped with "Divide").
//   - ErrDivisionByZero if any b[i,j] == 0; checked before any work is done.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func Divide(a, b Matrix) (*Dense, error) {
	if err := ValidateBinarySameShape(a, b); err != nil {
		return nil, matrixErrorf(opDivide, err)
	}
	// Reject zero divisors up front so a failed call has no partial result.
	if db, ok := b.(*Dense); ok {
		for idx, v := range db.data {
			if v == 0 {
				return nil, matrixErrorf(opDivide, fmt.Errorf("at (%d,%d): %w", idx/db.c, idx%db.c, ErrDivisionByZero))
			}
		}
	} else {
		var v float64
		for i := 0; i < b.Rows(); i++ {
			for j := 0; j < b.Cols(); j++ {
				v, _ = b.At(i, j)
				if v == 0 {
					return nil, matrixErrorf(opDivide, fmt.Errorf("at (%d,%d): %w", i, j, ErrDivisionByZero))
				}
			}
		}
	}

	return elementwise(a, b, opDivide, func(x, y float64) float64 { return x / y })
}

// Mul computes the matrix product a × b.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b); allocate Dense(a.Rows, b.Cols).
//   - Stage 2: Dense fast-path uses the cache-friendly i→k→j order; fallback i→j→k via At.
//
// Complexity:
//   - Time O(r*n*c), Space O(r*c).
//
// AI-Hints:
//   - Keep A as *Dense and row-major to unlock the fast path.
func Mul(a, b Matrix) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	aRows, aCols, bCols := a.Rows(), a.Cols(), b.Cols()
	res, err := NewDense(aRows, bCols, WithNoValidateNaNInf())
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	var (
		i, j, k         int
		av, bv, current float64
	)
	// Fast-path for two Dense matrices.
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			var rowOffsetA, rowOffsetB, rowOffsetR int
			for i = 0; i < aRows; i++ {
				rowOffsetA = i * aCols
				rowOffsetR = i * bCols
				for k = 0; k < aCols; k++ {
					av = da.data[rowOffsetA+k]
					rowOffsetB = k * bCols
					for j = 0; j < bCols; j++ {
						res.data[rowOffsetR+j] += av * db.data[rowOffsetB+j]
					}
				}
			}

			return res, nil
		}
	}

	// Fallback: generic interface triple-loop (i-j-k).
	for i = 0; i < aRows; i++ {
		for j = 0; j < bCols; j++ {
			current = ZeroSum
			for k = 0; k < aCols; k++ {
				if av, err = a.At(i, k); err != nil {
					return nil, matrixErrorf(opMul, fmt.Errorf("At(%d,%d): %w", i, k, err))
				}
				if bv, err = b.At(k, j); err != nil {
					return nil, matrixErrorf(opMul, fmt.Errorf("At(%d,%d): %w", k, j, err))
				}
				current += av * bv
			}
			res.data[i*bCols+j] = current
		}
	}

	return res, nil
}

// Transpose returns a new matrix with rows and columns swapped (mᵀ).
// Complexity: Time O(r*c), Space O(r*c).
func Transpose(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}

	rows, cols := m.Rows(), m.Cols()
	res, err := NewDense(cols, rows, WithNoValidateNaNInf()) // dims flipped
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}

	var i, j int
	if dm, ok := m.(*Dense); ok {
		// data[i*cols + j] → res.data[j*rows + i]
		var baseSrc int
		for i = 0; i < rows; i++ {
			baseSrc = i * cols
			for j = 0; j < cols; j++ {
				res.data[j*rows+i] = dm.data[baseSrc+j]
			}
		}

		return res, nil
	}

	var v float64
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opTranspose, fmt.Errorf("At(%d,%d): %w", i, j, err))
			}
			res.data[j*rows+i] = v
		}
	}

	return res, nil
}

// Scale returns a new matrix whose elements are alpha * m[i,j].
// NaN/Inf in alpha or m propagate; no policy check is applied to results.
func Scale(m Matrix, alpha float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	res, err := DenseCopyOf(m)
	if err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	for idx := range res.data {
		res.data[idx] *= alpha
	}
	res.validateNaNInf = false

	return res, nil
}

// ScaleColumns returns m · diag(s): out[i,j] = m[i,j] * s[j].
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (len(s) != Cols).
//
// AI-Hints:
//   - V · diag(d) · Vᵀ is ScaleColumns(V, d) followed by Mul with Transpose(V);
//     this avoids materializing diag(d).
func ScaleColumns(m Matrix, s []float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opScaleColumns, err)
	}
	if err := ValidateVecLen(s, m.Cols()); err != nil {
		return nil, matrixErrorf(opScaleColumns, err)
	}
	res, err := DenseCopyOf(m)
	if err != nil {
		return nil, matrixErrorf(opScaleColumns, err)
	}
	var i, j, base int
	for i = 0; i < res.r; i++ {
		base = i * res.c
		for j = 0; j < res.c; j++ {
			res.data[base+j] *= s[j]
		}
	}
	res.validateNaNInf = false

	return res, nil
}

// Eigen computes all eigenvalues and eigenvectors of a symmetric matrix using
// classical Jacobi rotations (largest off-diagonal pivot first).
//
// Implementation:
//   - Stage 1: ValidateSymmetric(m, tol); copy m into a work buffer A; Q = I.
//   - Stage 2: repeat up to maxIter rotations: pick pivot (p,q) maximizing |A[p,q]|;
//     stop when it drops below tol; otherwise rotate A and accumulate into Q.
//   - Stage 3: fail with ErrMatrixEigenFailed if the off-diagonal mass is still ≥ tol.
//
// Returns:
//   - []float64: eigenvalues (diagonal of the rotated A, unsorted).
//   - *Dense   : Q whose columns are the matching orthonormal eigenvectors.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrNaNInf (bad tol), ErrAsymmetry, ErrMatrixEigenFailed.
//
// Complexity:
//   - Time O(n) per pivot search row + O(n) per rotation: O(maxIter · n²) worst case.
//   - Space O(n²).
func Eigen(m Matrix, tol float64, maxIter int) ([]float64, *Dense, error) {
	if err := ValidateSymmetric(m, tol); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	A, err := DenseCopyOf(m)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	n := A.r
	Q, err := NewIdentity(n)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}

	var (
		iter, i, p, q      int
		maxOff             float64 // current max |A[p,q]|
		app, aqq, apq      float64 // A[p,p], A[q,q], A[p,q]
		aip, aiq, qip, qiq float64 // temporaries for A[i,p], A[i,q], Q[i,p], Q[i,q]
		theta, t, c, s     float64 // rotation parameters
	)
	for iter = 0; iter < maxIter; iter++ {
		// J.1: pivot search over the strict upper triangle.
		maxOff, p, q = maxOffDiagonal(A)
		// J.2: converged.
		if maxOff < tol {
			break
		}
		// J.3: rotation parameters from A[p,p], A[q,q], A[p,q].
		app = A.data[p*n+p]
		aqq = A.data[q*n+q]
		apq = A.data[p*n+q]
		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		// J.4: rotate rows/columns p and q of A, keeping it exactly symmetric.
		for i = 0; i < n; i++ {
			if i == p || i == q {
				continue
			}
			aip = A.data[i*n+p]
			aiq = A.data[i*n+q]
			A.data[i*n+p] = c*aip - s*aiq
			A.data[p*n+i] = A.data[i*n+p]
			A.data[i*n+q] = s*aip + c*aiq
			A.data[q*n+i] = A.data[i*n+q]
		}
		A.data[p*n+p] = c*c*app - 2*c*s*apq + s*s*aqq
		A.data[q*n+q] = s*s*app + 2*c*s*apq + c*c*aqq
		A.data[p*n+q], A.data[q*n+p] = 0, 0

		// J.5: accumulate the rotation into Q.
		for i = 0; i < n; i++ {
			qip = Q.data[i*n+p]
			qiq = Q.data[i*n+q]
			Q.data[i*n+p] = c*qip - s*qiq
			Q.data[i*n+q] = s*qip + c*qiq
		}
	}

	// Final convergence check.
	if maxOff, _, _ = maxOffDiagonal(A); maxOff >= tol {
		return nil, nil, matrixErrorf(opEigen, ErrMatrixEigenFailed)
	}

	return A.Diagonal(), Q, nil
}

// maxOffDiagonal returns max_{i<j} |A[i,j]| and its position.
// For n == 1 it reports (0, 0, 0).
func maxOffDiagonal(a *Dense) (float64, int, int) {
	var (
		n      = a.r
		maxOff = NormZero
		off    float64
		p, q   int
	)
	for i := 0; i < n; i++ {
		base := i * n
		for j := i + 1; j < n; j++ {
			off = math.Abs(a.data[base+j])
			if off > maxOff {
				maxOff, p, q = off, i, j
			}
		}
	}

	return maxOff, p, q
}
