// Package tensor demonstrates element-wise array operations and NumPy-style
// broadcasting on top of gonum.
//
// Every 2-D operation comes in two flavours. The Naive* functions spell the
// computation out with explicit loops over rows and columns; the vectorized
// counterparts (ReLU, Add, AddRowVector, MatrixDot...) hand the same work to
// gonum, which dispatches to BLAS or tight assembly kernels. Compare times the
// two side by side.
//
// Array generalises the picture to N dimensions. Binary operations on Arrays
// broadcast their operands: shapes are aligned from the trailing axis, and
// each aligned pair of dimensions must be equal or one of them must be 1.
// The smaller operand is read with a zero stride along expanded axes, so no
// expanded copy is ever allocated.
//
//	x := tensor.Zeros(64, 3, 32, 10)
//	y := tensor.Zeros(32, 10)
//	z, err := x.Maximum(y) // z has shape (64, 3, 32, 10)
package tensor
