// Package matrix offers a dense row-major matrix and the linear-algebra kernels
// used by nearest-correlation repair.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with error-returning At/Set and an
//     optional finite-only numeric policy.
//   - Element-wise kernels (Add, Sub, Hadamard, Divide), Mul, Transpose,
//     Scale, ScaleColumns, Symmetrize and Frobenius norms.
//   - Central validators (shape, exact and tolerant symmetry, finiteness).
//   - A Jacobi eigen-decomposition for symmetric matrices.
//   - Correlation estimators: full-sample Pearson and NaN-aware pairwise Pearson.
//
// All kernels allocate a fresh result and never mutate their operands.
// Errors are package sentinels wrapped with an operation tag; match them with
// errors.Is.
package matrix
