// SPDX-License-Identifier: MIT

package spectral_test

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/nearcorr/matrix"
	"github.com/katalvlaran/nearcorr/spectral"
)

func mustRows(t *testing.T, rows [][]float64, opts ...matrix.Option) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows, opts...)
	require.NoError(t, err)

	return m
}

// reconstruct returns V·diag(vals)·Vᵀ.
func reconstruct(t *testing.T, vals []float64, vecs *matrix.Dense) *matrix.Dense {
	t.Helper()
	vd, err := matrix.ScaleColumns(vecs, vals)
	require.NoError(t, err)
	vt, err := matrix.Transpose(vecs)
	require.NoError(t, err)
	out, err := matrix.Mul(vd, vt)
	require.NoError(t, err)

	return out
}

func solvers() map[string]spectral.Solver {
	return map[string]spectral.Solver{
		"lapack": spectral.LAPACK{},
		"jacobi": spectral.Jacobi{},
	}
}

func TestEigenSym_Reconstructs(t *testing.T) {
	t.Parallel()

	m := mustRows(t, [][]float64{
		{2, -1, 0, 0},
		{-1, 2, -1, 0},
		{0, -1, 2, -1},
		{0, 0, -1, 2},
	})
	// Eigenvalues of the path-graph Laplacian-like matrix: 2 - 2cos(kπ/5).
	want := make([]float64, 4)
	for k := 1; k <= 4; k++ {
		want[k-1] = 2 - 2*math.Cos(float64(k)*math.Pi/5)
	}

	for name, s := range solvers() {
		t.Run(name, func(t *testing.T) {
			before := m.RawRows()
			vals, vecs, err := s.EigenSym(m)
			require.NoError(t, err)
			assert.Equal(t, before, m.RawRows(), "input must not change")

			sorted := append([]float64(nil), vals...)
			sort.Float64s(sorted)
			assert.InDeltaSlice(t, want, sorted, 1e-12)

			ok, err := matrix.AllClose(reconstruct(t, vals, vecs), m, 0, 1e-12)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLAPACK_AscendingOrder(t *testing.T) {
	t.Parallel()

	m := mustRows(t, [][]float64{{3, 1}, {1, 3}})
	vals, _, err := spectral.LAPACK{}.EigenSym(m)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 4}, vals, 1e-14)
}

func TestEigenSym_RejectsBadInput(t *testing.T) {
	t.Parallel()

	inf := mustRows(t, [][]float64{{1, math.Inf(1)}, {math.Inf(1), 1}}, matrix.WithNoValidateNaNInf())
	rect, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	for name, s := range solvers() {
		_, _, err = s.EigenSym(inf)
		assert.ErrorIs(t, err, matrix.ErrNaNInf, name)
		_, _, err = s.EigenSym(rect)
		assert.ErrorIs(t, err, matrix.ErrDimensionMismatch, name)
		_, _, err = s.EigenSym(nil)
		assert.ErrorIs(t, err, matrix.ErrNilMatrix, name)
	}
}

func TestJacobi_RotationBudget(t *testing.T) {
	t.Parallel()

	m := mustRows(t, [][]float64{
		{4, 1, 2},
		{1, 3, 1},
		{2, 1, 2},
	})
	_, _, err := spectral.Jacobi{MaxRotations: 1}.EigenSym(m)
	assert.ErrorIs(t, err, matrix.ErrMatrixEigenFailed)
}

func TestByName(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]spectral.Solver{
		"":         spectral.LAPACK{},
		"lapack":   spectral.LAPACK{},
		" LAPACK ": spectral.LAPACK{},
		"jacobi":   spectral.Jacobi{},
	} {
		got, err := spectral.ByName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := spectral.ByName("qr")
	assert.ErrorIs(t, err, spectral.ErrUnknownSolver)
	assert.Equal(t, spectral.LAPACK{}, spectral.Default())
}
