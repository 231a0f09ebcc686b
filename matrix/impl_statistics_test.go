// SPDX-License-Identifier: MIT

package matrix_test

import (
	"errors"
	"math"
	"testing"

	"github.com/katalvlaran/nearcorr/matrix"
)

const epsTight = 1e-12

func TestCorrelation_PerfectlyCorrelated(t *testing.T) {
	t.Parallel()

	// Column 1 = 2*col0, column 2 = -col0 + 5.
	X := MustRows(t, [][]float64{
		{1, 2, 4},
		{2, 4, 3},
		{3, 6, 2},
		{4, 8, 1},
	})
	C, means, stds, err := matrix.Correlation(X)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}

	sliceClose(t, means, []float64{2.5, 5, 2.5}, 0, epsTight)
	sd := math.Sqrt(5.0 / 3.0)
	sliceClose(t, stds, []float64{sd, 2 * sd, sd}, 0, epsTight)

	want := MustRows(t, [][]float64{
		{1, 1, -1},
		{1, 1, -1},
		{-1, -1, 1},
	})
	CompareClose(t, C, want, 0, epsTight)
	if err = matrix.ValidateExactSymmetric(C); err != nil {
		t.Fatalf("result must be exactly symmetric: %v", err)
	}
}

func TestCorrelation_ConstantColumn(t *testing.T) {
	t.Parallel()

	X := MustRows(t, [][]float64{{1, 7}, {2, 7}, {3, 7}})
	C, _, stds, err := matrix.Correlation(X)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	if stds[1] != 0 {
		t.Fatalf("std of a constant column must be 0, got %v", stds[1])
	}
	CompareExact(t, [][]float64{{1, 0}, {0, 0}}, C)
}

func TestCorrelation_Errors(t *testing.T) {
	t.Parallel()

	_, _, _, err := matrix.Correlation(MustRows(t, [][]float64{{1, 2}}))
	if !errors.Is(err, matrix.ErrTooFewObservations) {
		t.Fatalf("want ErrTooFewObservations, got %v", err)
	}
	nan := MustRows(t, [][]float64{{1, math.NaN()}, {2, 3}}, matrix.WithNoValidateNaNInf())
	_, _, _, err = matrix.Correlation(nan)
	if !errors.Is(err, matrix.ErrNaNInf) {
		t.Fatalf("want ErrNaNInf, got %v", err)
	}
}

func TestPairwiseCorrelation_MatchesFullWithoutGaps(t *testing.T) {
	t.Parallel()

	X := MustRows(t, [][]float64{
		{1, 3, 0.5},
		{2, 1, 0.1},
		{4, 2, 0.9},
		{3, 5, 0.4},
		{6, 4, 0.7},
	})
	full, _, _, err := matrix.Correlation(X)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	pair, err := matrix.PairwiseCorrelation(X)
	if err != nil {
		t.Fatalf("PairwiseCorrelation: %v", err)
	}
	CompareClose(t, pair, full, 0, 1e-12)
}

func TestPairwiseCorrelation_SkipsMissing(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	X := MustRows(t, [][]float64{
		{1, 2, nan},
		{2, 4, 1},
		{3, nan, 2},
		{4, 8, 3},
		{nan, 1, 4},
	}, matrix.WithNoValidateNaNInf())
	C, err := matrix.PairwiseCorrelation(X)
	if err != nil {
		t.Fatalf("PairwiseCorrelation: %v", err)
	}

	// Rows 0,1,3 give col0/col1 a perfect line.
	if got := MustAt(t, C, 0, 1); math.Abs(got-1) > epsTight {
		t.Fatalf("C[0,1] = %v, want 1", got)
	}
	// Rows 1,2,3 give col0/col2 a perfect line.
	if got := MustAt(t, C, 0, 2); math.Abs(got-1) > epsTight {
		t.Fatalf("C[0,2] = %v, want 1", got)
	}
	for i := 0; i < 3; i++ {
		if d := MustAt(t, C, i, i); d != 1 {
			t.Fatalf("diagonal %d = %v", i, d)
		}
	}
	if err = matrix.ValidateExactSymmetric(C); err != nil {
		t.Fatalf("result must be exactly symmetric: %v", err)
	}
}

func TestPairwiseCorrelation_Errors(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	sparse := MustRows(t, [][]float64{{1, nan}, {nan, 2}, {3, nan}}, matrix.WithNoValidateNaNInf())
	if _, err := matrix.PairwiseCorrelation(sparse); !errors.Is(err, matrix.ErrTooFewObservations) {
		t.Fatalf("want ErrTooFewObservations, got %v", err)
	}

	inf := MustRows(t, [][]float64{{1, math.Inf(1)}, {2, 3}}, matrix.WithNoValidateNaNInf())
	if _, err := matrix.PairwiseCorrelation(inf); !errors.Is(err, matrix.ErrNaNInf) {
		t.Fatalf("want ErrNaNInf, got %v", err)
	}
}
