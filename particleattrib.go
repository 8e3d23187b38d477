package picfield

import (
	"bytes"
	"encoding/binary"

	"github.com/meshkit/picfield/comm"
)

// AttribHandle is the narrow surface ParticleBase needs to drive an
// attribute of unknown element type through create/destroy/sort in
// lockstep with every other attribute it owns (including the
// mandatory R and ID), plus the wire encoding Migrate needs to move
// particles between ranks. ParticleAttrib[T] implements it for every
// fixed-size T.
type AttribHandle interface {
	create(n int)
	destroy(invalidMask []bool, newIndex []int, localN, destroyN int)
	sort(deleteIndices, keepIndices []int, maxDelete, destroyN int)
	len() int
	packWire(indices []int) ([]byte, error)
	unpackWire(data []byte, n int) error
}

// ParticleAttrib is a grows-only linear array of T. Its logical
// length (Len) is always <= its backing capacity; Create never
// shrinks that capacity, only grows it.
type ParticleAttrib[T any] struct {
	data  []T
	count int
}

// NewParticleAttrib returns an empty attribute.
func NewParticleAttrib[T any]() *ParticleAttrib[T] {
	return &ParticleAttrib[T]{}
}

func (a *ParticleAttrib[T]) Len() int      { return a.count }
func (a *ParticleAttrib[T]) len() int      { return a.count }
func (a *ParticleAttrib[T]) Capacity() int { return len(a.data) }
func (a *ParticleAttrib[T]) Get(i int) T   { return a.data[i] }
func (a *ParticleAttrib[T]) Set(i int, v T) { a.data[i] = v }

// Slice returns the logical [0, Len) prefix of the backing array.
func (a *ParticleAttrib[T]) Slice() []T { return a.data[:a.count] }

// Create grows the logical length by n. If the backing capacity is
// insufficient it reallocates to at least 2*(current+n), preserving
// existing entries; it does not initialize the new entries (ID is the
// one exception, set by ParticleBase right after).
func (a *ParticleAttrib[T]) Create(n int) { a.create(n) }

func (a *ParticleAttrib[T]) create(n int) {
	needed := a.count + n
	if needed > len(a.data) {
		grown := make([]T, 2*needed)
		copy(grown, a.data[:a.count])
		a.data = grown
	}
	a.count = needed
}

// Destroy gathers every valid (mask false) entry into newIndex[i]
// using a scratch array, then copies back; logical size becomes
// localN afterward.
func (a *ParticleAttrib[T]) Destroy(invalidMask []bool, newIndex []int, localN, destroyN int) {
	a.destroy(invalidMask, newIndex, localN, destroyN)
}

func (a *ParticleAttrib[T]) destroy(invalidMask []bool, newIndex []int, localN, destroyN int) {
	_ = destroyN
	scratch := make([]T, localN)
	for i := 0; i < a.count; i++ {
		if !invalidMask[i] {
			scratch[newIndex[i]] = a.data[i]
		}
	}
	if localN > len(a.data) {
		a.data = make([]T, localN)
	}
	copy(a.data, scratch)
	a.count = localN
}

// Sort swaps each deleteIndices[i] with keepIndices[i] for the first
// maxDelete pairs, then shrinks the logical length by destroyN — the
// alternative, swap-based compaction path to Destroy.
func (a *ParticleAttrib[T]) Sort(deleteIndices, keepIndices []int, maxDelete, destroyN int) {
	a.sort(deleteIndices, keepIndices, maxDelete, destroyN)
}

func (a *ParticleAttrib[T]) sort(deleteIndices, keepIndices []int, maxDelete, destroyN int) {
	for i := 0; i < maxDelete; i++ {
		d, k := deleteIndices[i], keepIndices[i]
		a.data[d], a.data[k] = a.data[k], a.data[d]
	}
	a.count -= destroyN
}

// Pack gathers the entries at indices into dst's contiguous prefix
// [0, len(indices)) — the migration send-side transport primitive.
func (a *ParticleAttrib[T]) Pack(dst *ParticleAttrib[T], indices []int) {
	needed := len(indices)
	if needed > len(dst.data) {
		dst.data = make([]T, 2*needed)
	}
	for i, idx := range indices {
		dst.data[i] = a.data[idx]
	}
	dst.count = needed
}

// Unpack appends the first nrecvs entries of src to the end of a,
// resizing a to at least 2*(count+nrecvs) and advancing count by
// nrecvs — the migration receive-side transport primitive.
func (a *ParticleAttrib[T]) Unpack(src *ParticleAttrib[T], nrecvs int) {
	needed := a.count + nrecvs
	if needed > len(a.data) {
		grown := make([]T, 2*needed)
		copy(grown, a.data[:a.count])
		a.data = grown
	}
	copy(a.data[a.count:needed], src.data[:nrecvs])
	a.count = needed
}

// ParticleExpr is the per-particle analogue of Expr: a capability
// evaluator at a particle index.
type ParticleExpr[T any] interface {
	At(p int) T
}

// ParticleExprFunc adapts a plain function to ParticleExpr.
type ParticleExprFunc[T any] func(p int) T

func (f ParticleExprFunc[T]) At(p int) T { return f(p) }

// Assign evaluates expr over exactly [0, Len).
func (a *ParticleAttrib[T]) Assign(expr ParticleExpr[T]) {
	for i := 0; i < a.count; i++ {
		a.data[i] = expr.At(i)
	}
}

// AssignScalar writes v into every entry in [0, Len).
func (a *ParticleAttrib[T]) AssignScalar(v T) {
	for i := 0; i < a.count; i++ {
		a.data[i] = v
	}
}

// packWire encodes the entries at indices in wire order, little-endian
// fixed-width per element — the per-attribute payload Migrate frames
// with a wire.Record before sending to a particle's new owner.
func (a *ParticleAttrib[T]) packWire(indices []int) ([]byte, error) {
	var buf bytes.Buffer
	for _, idx := range indices {
		if err := binary.Write(&buf, binary.LittleEndian, a.data[idx]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// unpackWire decodes n little-endian fixed-width elements from data
// and appends them, growing capacity exactly as Unpack does.
func (a *ParticleAttrib[T]) unpackWire(data []byte, n int) error {
	tmp := make([]T, n)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, tmp); err != nil {
		return err
	}
	needed := a.count + n
	if needed > len(a.data) {
		grown := make([]T, 2*needed)
		copy(grown, a.data[:a.count])
		a.data = grown
	}
	copy(a.data[a.count:needed], tmp)
	a.count = needed
	return nil
}

// localReduce folds op over the attribute's logical entries, seeded
// with identity.
func localReduce[T comm.Numeric](a *ParticleAttrib[T], op func(x, y T) T, identity T) T {
	acc := identity
	for _, v := range a.Slice() {
		acc = op(acc, v)
	}
	return acc
}
