// Package nearcorr computes the nearest correlation matrix to a symmetric
// input using Higham's alternating-projections method with Dykstra's correction.
//
// Given a symmetric A, Nearest finds the matrix X minimizing the (optionally
// weighted) Frobenius distance ||W^½ (A − X) W^½||_F subject to
//
//   - X symmetric,
//   - X positive semidefinite,
//   - diag(X) = 1.
//
// Each iteration projects onto the PSD cone (eigendecomposition with negative
// eigenvalues clamped to zero) and then onto the unit-diagonal set, carrying
// the Dykstra correction dS between iterations. The loop stops when the
// relative changes of both iterates, and the gap between them, drop to the
// convergence tolerance.
//
// Quick example:
//
//	a, _ := matrix.NewDenseFromRows([][]float64{
//		{2, -1, 0},
//		{-1, 2, -1},
//		{0, -1, 2},
//	})
//	res, err := nearcorr.Nearest(a)
//	var fault *nearcorr.ExceededIterationsError
//	if errors.As(err, &fault) {
//		res, err = nearcorr.Resume(fault, nearcorr.WithMaxIterations(500))
//	}
//
// Under the hood:
//
//	matrix/   Dense storage, element-wise kernels, validators, correlation estimators
//	spectral/ symmetric eigensolvers (gonum LAPACK, Jacobi)
//	cmd/      the nearcorr command-line tool
//
// Reference: N. J. Higham, Computing the nearest correlation matrix: a
// problem from finance. IMA J. Numer. Anal., 22(3):329–343, 2002.
package nearcorr
