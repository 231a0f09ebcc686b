// Package spectral supplies the symmetric eigendecomposition used by the
// nearest-correlation projection.
//
// Two interchangeable Solver implementations are provided:
//
//	LAPACK  gonum's mat.EigenSym (LAPACK dsyev); eigenvalues ascending.
//	Jacobi  classical Jacobi rotations from the matrix package; pure Go kernels.
//
// Both reject non-finite input with matrix.ErrNaNInf and report
// non-convergence with matrix.ErrMatrixEigenFailed.
package spectral
