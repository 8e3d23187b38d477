package picfield

import "github.com/meshkit/picfield/comm"

// View is a dense 3D array addressed by the row-major formula
// l = i + j*ex + k*ex*ey, where (ex,ey,ez) is the view's full extent
// including ghost padding on every side. It is the shared indexing
// surface Field and the halo engine operate on.
type View[T comm.Numeric] struct {
	data    []T
	extents [3]int
}

// NewView allocates a zeroed view of the given full extent.
func NewView[T comm.Numeric](extents [3]int) *View[T] {
	n := extents[0] * extents[1] * extents[2]
	return &View[T]{data: make([]T, n), extents: extents}
}

func (v *View[T]) Extents() [3]int { return v.extents }

func (v *View[T]) offset(i, j, k int) int {
	return i + j*v.extents[0] + k*v.extents[0]*v.extents[1]
}

func (v *View[T]) At(i, j, k int) T {
	return v.data[v.offset(i, j, k)]
}

func (v *View[T]) Set(i, j, k int, val T) {
	v.data[v.offset(i, j, k)] = val
}

// rowSpan returns the contiguous slice of the backing array covering
// i in [lo,hi) at fixed (j,k): the row-major layout makes a fixed-row
// i-range contiguous, so pack/unpack can binary.Write/Read a whole
// row at once instead of element by element.
func (v *View[T]) rowSpan(lo, hi, j, k int) []T {
	start := v.offset(lo, j, k)
	end := v.offset(hi, j, k)
	return v.data[start:end]
}
