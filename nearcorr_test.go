// SPDX-License-Identifier: MIT

package nearcorr_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/nearcorr"
	"github.com/katalvlaran/nearcorr/matrix"
	"github.com/katalvlaran/nearcorr/spectral"
)

// psdFloor is the most negative eigenvalue accepted as "PSD within rounding".
const psdFloor = -1e-8

// nagRows is the 4×4 tridiagonal example from the NAG g02aa documentation.
var nagRows = [][]float64{
	{2, -1, 0, 0},
	{-1, 2, -1, 0},
	{0, -1, 2, -1},
	{0, 0, -1, 2},
}

// nagExpected is the nearest correlation matrix to nagRows (4 decimals).
var nagExpected = [][]float64{
	{1.0000, -0.8084, 0.1916, 0.1068},
	{-0.8084, 1.0000, -0.6562, 0.1916},
	{0.1916, -0.6562, 1.0000, -0.8084},
	{0.1068, 0.1916, -0.8084, 1.0000},
}

// countingSolver records how many decompositions were requested.
type countingSolver struct {
	calls int
	inner spectral.Solver
}

func (c *countingSolver) EigenSym(m *matrix.Dense) ([]float64, *matrix.Dense, error) {
	c.calls++

	return c.inner.EigenSym(m)
}

// failingSolver always reports a decomposition failure.
type failingSolver struct{}

func (failingSolver) EigenSym(*matrix.Dense) ([]float64, *matrix.Dense, error) {
	return nil, nil, matrix.ErrMatrixEigenFailed
}

func mustDense(t *testing.T, rows [][]float64, opts ...matrix.Option) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows, opts...)
	require.NoError(t, err)

	return m
}

// requireCorrelation asserts the three defining properties of a correlation matrix.
func requireCorrelation(t *testing.T, x *matrix.Dense) {
	t.Helper()
	n := x.Rows()
	require.Equal(t, n, x.Cols())

	for i := 0; i < n; i++ {
		d, err := x.At(i, i)
		require.NoError(t, err)
		require.Equal(t, 1.0, d, "diagonal (%d,%d) must be exactly 1", i, i)
		for j := i + 1; j < n; j++ {
			a, _ := x.At(i, j)
			b, _ := x.At(j, i)
			require.InDelta(t, a, b, 1e-12, "asymmetry at (%d,%d)", i, j)
			require.LessOrEqual(t, math.Abs(a), 1+1e-12, "off-diagonal (%d,%d) outside [-1,1]", i, j)
		}
	}

	vals, _, err := spectral.LAPACK{}.EigenSym(x)
	require.NoError(t, err)
	for _, v := range vals {
		require.GreaterOrEqual(t, v, psdFloor)
	}
}

// NearestSuite exercises Nearest and Resume end to end.
type NearestSuite struct {
	suite.Suite
}

// TestTridiagonal3 checks the 3×3 scenario yields a valid correlation matrix.
func (s *NearestSuite) TestTridiagonal3() {
	a := mustDense(s.T(), [][]float64{{2, -1, 0}, {-1, 2, -1}, {0, -1, 2}})

	res, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	require.Greater(s.T(), res.Iterations, 0)
	requireCorrelation(s.T(), res.X)
}

// TestNAGExample compares against the published NAG result.
func (s *NearestSuite) TestNAGExample() {
	a := mustDense(s.T(), nagRows)

	res, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	requireCorrelation(s.T(), res.X)

	for i, row := range nagExpected {
		for j, want := range row {
			got, _ := res.X.At(i, j)
			require.InDelta(s.T(), want, got, 1e-4, "entry (%d,%d)", i, j)
		}
	}
}

// TestInputNotMutated ensures the caller's matrix is untouched.
func (s *NearestSuite) TestInputNotMutated() {
	a := mustDense(s.T(), nagRows)
	before := a.CloneDense()

	_, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	require.Equal(s.T(), before.RawRows(), a.RawRows())
}

// TestAsymmetricRejected checks rejection happens before any decomposition.
func (s *NearestSuite) TestAsymmetricRejected() {
	a := mustDense(s.T(), [][]float64{{1, 0.5}, {0.5000001, 1}})
	spy := &countingSolver{inner: spectral.Default()}
	observed := 0

	res, err := nearcorr.Nearest(a,
		nearcorr.WithSolver(spy),
		nearcorr.WithObserver(func(nearcorr.IterationStats) { observed++ }),
	)
	require.Nil(s.T(), res)
	require.ErrorIs(s.T(), err, nearcorr.ErrNotSymmetric)
	require.ErrorIs(s.T(), err, matrix.ErrAsymmetry)
	require.Zero(s.T(), spy.calls)
	require.Zero(s.T(), observed)
}

// TestNaNIsAsymmetric mirrors the exact equality check: NaN != NaN.
func (s *NearestSuite) TestNaNIsAsymmetric() {
	a := mustDense(s.T(), [][]float64{{1, math.NaN()}, {math.NaN(), 1}}, matrix.WithNoValidateNaNInf())

	_, err := nearcorr.Nearest(a)
	require.ErrorIs(s.T(), err, nearcorr.ErrNotSymmetric)
}

// TestInfFailsDecomposition checks non-finite values surface from the solver.
func (s *NearestSuite) TestInfFailsDecomposition() {
	inf := math.Inf(1)
	a := mustDense(s.T(), [][]float64{{1, inf}, {inf, 1}}, matrix.WithNoValidateNaNInf())

	_, err := nearcorr.Nearest(a)
	require.ErrorIs(s.T(), err, nearcorr.ErrEigendecomposition)
	require.ErrorIs(s.T(), err, matrix.ErrNaNInf)
}

// TestSolverFailureIsFatal checks a solver error aborts the call unchanged.
func (s *NearestSuite) TestSolverFailureIsFatal() {
	a := mustDense(s.T(), nagRows)

	_, err := nearcorr.Nearest(a, nearcorr.WithSolver(failingSolver{}))
	require.ErrorIs(s.T(), err, nearcorr.ErrEigendecomposition)
	require.ErrorIs(s.T(), err, matrix.ErrMatrixEigenFailed)

	var fault *nearcorr.ExceededIterationsError
	require.False(s.T(), errors.As(err, &fault))
}

// TestPartialModeNotImplemented checks the partial variant fails up front.
func (s *NearestSuite) TestPartialModeNotImplemented() {
	a := mustDense(s.T(), nagRows)
	spy := &countingSolver{inner: spectral.Default()}

	res, err := nearcorr.Nearest(a, nearcorr.WithMode(nearcorr.ModePartial), nearcorr.WithSolver(spy))
	require.Nil(s.T(), res)
	require.ErrorIs(s.T(), err, nearcorr.ErrNotImplemented)
	require.Zero(s.T(), spy.calls)
}

// TestAsymmetryCheckedBeforeMode pins the validation order.
func (s *NearestSuite) TestAsymmetryCheckedBeforeMode() {
	a := mustDense(s.T(), [][]float64{{1, 2}, {3, 1}})

	_, err := nearcorr.Nearest(a, nearcorr.WithMode(nearcorr.ModePartial))
	require.ErrorIs(s.T(), err, nearcorr.ErrNotSymmetric)
	require.NotErrorIs(s.T(), err, nearcorr.ErrNotImplemented)
}

// TestShapeErrors covers nil and non-square input.
func (s *NearestSuite) TestShapeErrors() {
	_, err := nearcorr.Nearest(nil)
	require.ErrorIs(s.T(), err, matrix.ErrNilMatrix)

	rect, err := matrix.NewDense(2, 3)
	require.NoError(s.T(), err)
	_, err = nearcorr.Nearest(rect)
	require.ErrorIs(s.T(), err, matrix.ErrDimensionMismatch)
}

// TestBudgetOfOne checks the singular message and the attached count.
func (s *NearestSuite) TestBudgetOfOne() {
	a := mustDense(s.T(), [][]float64{{2, -1, 0}, {-1, 2, -1}, {0, -1, 2}})

	res, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1))
	require.Nil(s.T(), res)
	require.ErrorIs(s.T(), err, nearcorr.ErrExceededIterations)

	var fault *nearcorr.ExceededIterationsError
	require.True(s.T(), errors.As(err, &fault))
	require.Contains(s.T(), err.Error(), "1 iteration")
	require.NotContains(s.T(), err.Error(), "1 iterations")
	require.Equal(s.T(), 1, fault.Iteration)
	require.Equal(s.T(), 1, fault.MaxIterations)
	require.NotNil(s.T(), fault.X)
	require.NotNil(s.T(), fault.DS)
}

// TestBudgetPlural checks the plural message.
func (s *NearestSuite) TestBudgetPlural() {
	a := mustDense(s.T(), nagRows)

	_, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(3))
	var fault *nearcorr.ExceededIterationsError
	require.True(s.T(), errors.As(err, &fault))
	require.Contains(s.T(), err.Error(), "3 iterations")
	require.Equal(s.T(), 3, fault.Iteration)
}

// TestBudgetOfZero fails before any projection.
func (s *NearestSuite) TestBudgetOfZero() {
	a := mustDense(s.T(), nagRows)
	spy := &countingSolver{inner: spectral.Default()}

	_, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(0), nearcorr.WithSolver(spy))
	var fault *nearcorr.ExceededIterationsError
	require.True(s.T(), errors.As(err, &fault))
	require.Contains(s.T(), err.Error(), "0 iterations")
	require.Zero(s.T(), spy.calls)
	require.Equal(s.T(), a.RawRows(), fault.X.RawRows())
}

// TestFaultSnapshot checks the fault holds the unit-diagonal iterate and
// that resuming does not touch it.
func (s *NearestSuite) TestFaultSnapshot() {
	a := mustDense(s.T(), nagRows)

	_, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(5))
	var fault *nearcorr.ExceededIterationsError
	require.True(s.T(), errors.As(err, &fault))
	for _, d := range fault.X.Diagonal() {
		require.Equal(s.T(), 1.0, d)
	}
	xBefore, dsBefore := fault.X.RawRows(), fault.DS.RawRows()

	_, err = nearcorr.Resume(fault, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	require.Equal(s.T(), xBefore, fault.X.RawRows())
	require.Equal(s.T(), dsBefore, fault.DS.RawRows())
}

// TestResumeMatchesUninterrupted checks resume reaches the same fixed point.
func (s *NearestSuite) TestResumeMatchesUninterrupted() {
	a := mustDense(s.T(), nagRows)

	full, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)

	_, err = nearcorr.Nearest(a, nearcorr.WithMaxIterations(10))
	var fault *nearcorr.ExceededIterationsError
	require.True(s.T(), errors.As(err, &fault))

	resumed, err := nearcorr.Resume(fault, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	requireCorrelation(s.T(), resumed.X)

	ok, err := matrix.AllClose(resumed.X, full.X, 0, 1e-10)
	require.NoError(s.T(), err)
	require.True(s.T(), ok, "resumed:\n%v\nfull:\n%v", resumed.X, full.X)
}

// TestResumeNilFault rejects a missing fault.
func (s *NearestSuite) TestResumeNilFault() {
	_, err := nearcorr.Resume(nil)
	require.ErrorIs(s.T(), err, matrix.ErrNilMatrix)
}

// TestIdempotentNearFixedPoint feeds a converged result back in.
func (s *NearestSuite) TestIdempotentNearFixedPoint() {
	a := mustDense(s.T(), nagRows)
	first, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)

	second, err := nearcorr.Nearest(first.X)
	require.NoError(s.T(), err)
	require.LessOrEqual(s.T(), second.Iterations, 10)

	ok, err := matrix.AllClose(second.X, first.X, 0, 1e-10)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
}

// TestIdentityConvergesImmediately uses an exact correlation matrix.
func (s *NearestSuite) TestIdentityConvergesImmediately() {
	id, err := matrix.NewIdentity(4)
	require.NoError(s.T(), err)

	res, err := nearcorr.Nearest(id)
	require.NoError(s.T(), err)
	require.LessOrEqual(s.T(), res.Iterations, 2)
	ok, err := matrix.AllClose(res.X, id, 0, 1e-12)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
}

// TestWeightsParticipate checks non-uniform weights change the answer.
func (s *NearestSuite) TestWeightsParticipate() {
	a := mustDense(s.T(), nagRows)

	plain, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	weighted, err := nearcorr.Nearest(a,
		nearcorr.WithWeights([]float64{1, 2, 3, 4}),
		nearcorr.WithMaxIterations(1000),
	)
	require.NoError(s.T(), err)
	requireCorrelation(s.T(), weighted.X)

	d, err := matrix.FrobeniusDistance(plain.X, weighted.X)
	require.NoError(s.T(), err)
	require.Greater(s.T(), d, 1e-6)
}

// TestUniformWeightsMatchDefault: all-equal weights cancel out.
func (s *NearestSuite) TestUniformWeightsMatchDefault() {
	a := mustDense(s.T(), nagRows)

	plain, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	ones, err := nearcorr.Nearest(a,
		nearcorr.WithWeights([]float64{1, 1, 1, 1}),
		nearcorr.WithMaxIterations(1000),
	)
	require.NoError(s.T(), err)
	require.Equal(s.T(), plain.X.RawRows(), ones.X.RawRows())
}

// TestInvalidWeights covers length and sign checks.
func (s *NearestSuite) TestInvalidWeights() {
	a := mustDense(s.T(), nagRows)
	for name, w := range map[string][]float64{
		"short":    {1, 1},
		"zero":     {1, 0, 1, 1},
		"negative": {1, -1, 1, 1},
		"nan":      {1, math.NaN(), 1, 1},
		"inf":      {1, math.Inf(1), 1, 1},
	} {
		_, err := nearcorr.Nearest(a, nearcorr.WithWeights(w))
		require.ErrorIs(s.T(), err, nearcorr.ErrInvalidWeights, name)
	}
}

// TestDegenerateWeightProducts rejects weights whose pairwise products leave
// the float range before any iteration runs.
func (s *NearestSuite) TestDegenerateWeightProducts() {
	a := mustDense(s.T(), [][]float64{{1, 0.5}, {0.5, 1}})
	for name, w := range map[string][]float64{
		"underflow": {1e-200, 1},
		"overflow":  {1e200, 1},
	} {
		calls := 0
		_, err := nearcorr.Nearest(a,
			nearcorr.WithWeights(w),
			nearcorr.WithObserver(func(nearcorr.IterationStats) { calls++ }),
		)
		require.ErrorIs(s.T(), err, nearcorr.ErrInvalidWeights, name)
		require.Zero(s.T(), calls, name)
	}
}

// TestCorrectionShapeMismatch rejects a resume matrix of the wrong size.
func (s *NearestSuite) TestCorrectionShapeMismatch() {
	a := mustDense(s.T(), nagRows)
	ds, err := matrix.NewDense(3, 3)
	require.NoError(s.T(), err)

	_, err = nearcorr.Nearest(a, nearcorr.WithCorrection(ds))
	require.ErrorIs(s.T(), err, matrix.ErrDimensionMismatch)
}

// TestJacobiAgreesWithLAPACK runs the loop on both solvers.
func (s *NearestSuite) TestJacobiAgreesWithLAPACK() {
	a := mustDense(s.T(), nagRows)
	opts := []nearcorr.Option{nearcorr.WithConvergenceTolerance(1e-10), nearcorr.WithMaxIterations(1000)}

	lapack, err := nearcorr.Nearest(a, append(opts, nearcorr.WithSolver(spectral.LAPACK{}))...)
	require.NoError(s.T(), err)
	jacobi, err := nearcorr.Nearest(a, append(opts, nearcorr.WithSolver(spectral.Jacobi{}))...)
	require.NoError(s.T(), err)
	requireCorrelation(s.T(), jacobi.X)

	ok, err := matrix.AllClose(jacobi.X, lapack.X, 0, 1e-8)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
}

// TestObserverSeesEveryIteration checks the callback count and ordering.
func (s *NearestSuite) TestObserverSeesEveryIteration() {
	a := mustDense(s.T(), nagRows)
	var seen []nearcorr.IterationStats

	res, err := nearcorr.Nearest(a,
		nearcorr.WithMaxIterations(1000),
		nearcorr.WithObserver(func(st nearcorr.IterationStats) { seen = append(seen, st) }),
	)
	require.NoError(s.T(), err)
	require.Len(s.T(), seen, res.Iterations)
	for i, st := range seen {
		require.Equal(s.T(), i+1, st.Iteration)
	}
	last := seen[len(seen)-1]
	tol := nearcorr.DefaultTolerance(4).Convergence
	require.LessOrEqual(s.T(), math.Max(last.RelDiffX, math.Max(last.RelDiffY, last.RelDiffXY)), tol)
}

// TestLooseToleranceStopsEarlier checks the convergence tolerance is honored.
func (s *NearestSuite) TestLooseToleranceStopsEarlier() {
	a := mustDense(s.T(), nagRows)

	tight, err := nearcorr.Nearest(a, nearcorr.WithMaxIterations(1000))
	require.NoError(s.T(), err)
	loose, err := nearcorr.Nearest(a, nearcorr.WithTolerance(1e-3, 1e-3))
	require.NoError(s.T(), err)
	require.Less(s.T(), loose.Iterations, tight.Iterations)
}

func TestNearestSuite(t *testing.T) {
	suite.Run(t, new(NearestSuite))
}

func TestExceededIterationsError_Is(t *testing.T) {
	t.Parallel()

	var err error = &nearcorr.ExceededIterationsError{MaxIterations: 7, Iteration: 7}
	require.ErrorIs(t, err, nearcorr.ErrExceededIterations)
	require.NotErrorIs(t, err, nearcorr.ErrNotSymmetric)
	require.Equal(t, "nearcorr: no solution found in 7 iterations", err.Error())
}
