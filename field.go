package picfield

import (
	"github.com/meshkit/picfield/comm"
)

// fieldTagKey is the NextTag family that hands out disjoint tag-family
// roots (10000, 20000, ...) to successive Fields so their halo
// exchanges can never collide (§5: "Distinct Fields may exchange
// independently provided they draw distinct (base, cycle) tag
// families"). 10000 is comfortably larger than the face/edge/vertex
// offsets plus their cycles (2000+997). The counter lives in the
// Communicator, so every rank's n-th Field gets the same root even
// when several ranks share one process.
const (
	fieldTagKey   = -1
	fieldTagSlots = 1 << 16
)

func nextTagBase(c *comm.Communicator) int {
	n := c.NextTag(fieldTagKey, fieldTagSlots) - fieldTagKey
	return 10000 * (n + 1)
}

// BareField is the untyped half of a Field: the mesh and layout it is
// bound to, its own halo-exchange tag family, and the communicator it
// talks through. Field[T] embeds it and adds the typed storage —
// splitting the two means a Field's geometry and its element type can
// vary independently. The particle scatter/gather code takes a
// Field[float64] and reads its geometry through the BareField getters.
type BareField struct {
	mesh    *Mesh
	layout  *FieldLayout
	comm    *comm.Communicator
	tagBase int
}

func (b *BareField) Nghost() int            { return b.layout.Nghost() }
func (b *BareField) Mesh() *Mesh            { return b.mesh }
func (b *BareField) Layout() *FieldLayout   { return b.layout }
func (b *BareField) Communicator() *comm.Communicator { return b.comm }

// Expr is the stencil expression interface: a capability-based
// evaluator at a global grid index, per §9's Design Notes. Field's
// elementwise assignment drives a kernel over the destination's owned
// index range and calls At once per cell.
type Expr[T comm.Numeric] interface {
	At(i, j, k int) T
}

// ExprFunc adapts a plain function to Expr.
type ExprFunc[T comm.Numeric] func(i, j, k int) T

func (f ExprFunc[T]) At(i, j, k int) T { return f(i, j, k) }

// Field owns a padded 3D array of T bound to a Mesh and FieldLayout.
// Initialization zeroes every cell, including halos. Elementwise
// assignment touches only owned cells; halo state is then stale until
// the next FillHalo.
type Field[T comm.Numeric] struct {
	BareField
	view *View[T]
}

// NewField allocates a zeroed Field of local extent + 2*nghost per
// axis and assigns it a fresh halo-exchange tag family.
func NewField[T comm.Numeric](mesh *Mesh, layout *FieldLayout, communicator *comm.Communicator) *Field[T] {
	nghost := layout.Nghost()
	ext := layout.LocalDomain().Extents()
	view := NewView[T]([3]int{ext[0] + 2*nghost, ext[1] + 2*nghost, ext[2] + 2*nghost})
	return &Field[T]{
		BareField: BareField{mesh: mesh, layout: layout, comm: communicator, tagBase: nextTagBase(communicator)},
		view:      view,
	}
}

// View returns the full-extent array handle, indexed with halo
// padding: view()(i,j,k) is valid for 0 <= i,j,k < local_extent + 2*nghost.
func (f *Field[T]) View() *View[T] { return f.view }

// FillHalo overwrites this field's halo cells from remote owners.
func (f *Field[T]) FillHalo() error {
	return FillHalo(f.comm, f.view, f.layout, f.tagBase)
}

// AccumulateHalo adds this field's halo contents into remote owners'
// interiors.
func (f *Field[T]) AccumulateHalo() error {
	return AccumulateHalo(f.comm, f.view, f.layout, f.tagBase)
}

// Assign evaluates expr at every owned cell's global index and writes
// the result; halo cells are untouched and become stale.
func (f *Field[T]) Assign(expr Expr[T]) {
	nghost := f.Nghost()
	local := f.layout.LocalDomain()
	ext := local.Extents()
	for k := 0; k < ext[2]; k++ {
		gk := local[2].First + k
		for j := 0; j < ext[1]; j++ {
			gj := local[1].First + j
			for i := 0; i < ext[0]; i++ {
				gi := local[0].First + i
				f.view.Set(i+nghost, j+nghost, k+nghost, expr.At(gi, gj, gk))
			}
		}
	}
}

// AssignScalar writes v into every owned cell.
func (f *Field[T]) AssignScalar(v T) {
	f.Assign(ExprFunc[T](func(int, int, int) T { return v }))
}
