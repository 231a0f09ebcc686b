// SPDX-License-Identifier: MIT

package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/nearcorr/matrix"
)

// ExampleSymmetrize shows the (M + Mᵀ)/2 cleanup applied after reconstructions.
func ExampleSymmetrize() {
	m, _ := matrix.NewDenseFromRows([][]float64{
		{1, 2},
		{4, 1},
	})
	s, _ := matrix.Symmetrize(m)
	fmt.Print(s)

	// Output:
	// [1, 3]
	// [3, 1]
}

// ExampleHadamard contrasts the element-wise product with Mul.
func ExampleHadamard() {
	a, _ := matrix.NewDenseFromRows([][]float64{{1, 2}, {3, 4}})
	b, _ := matrix.NewDenseFromRows([][]float64{{10, 20}, {30, 40}})

	h, _ := matrix.Hadamard(a, b)
	p, _ := matrix.Mul(a, b)
	fmt.Print(h)
	fmt.Print(p)

	// Output:
	// [10, 40]
	// [90, 160]
	// [70, 100]
	// [150, 220]
}
