package picfield

import (
	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/picerrors"
)

// ParticleBase holds the attribute list every particle container
// shares: position R, integer ID, and whatever else AddAttribute
// registers. create/destroy/sort drive every attribute in lockstep so
// they never drift apart in logical length.
type ParticleBase struct {
	R  *ParticleAttrib[Vec3]
	ID *ParticleAttrib[int64]

	attrs    []AttribHandle
	localN   int
	nextID   int64
	numNodes int

	comm *comm.Communicator
}

// NewParticleBase creates an empty base bound to communicator. IDs
// for this rank start at its rank number and stride by the cluster
// size, per §3's "rank r issues r, r+n, r+2n, …".
func NewParticleBase(communicator *comm.Communicator) *ParticleBase {
	b := &ParticleBase{
		R:        NewParticleAttrib[Vec3](),
		ID:       NewParticleAttrib[int64](),
		comm:     communicator,
		numNodes: communicator.Size(),
		nextID:   int64(communicator.Rank()),
	}
	b.attrs = []AttribHandle{b.R, b.ID}
	return b
}

// AddAttribute registers a, making it subject to every future
// Create/Destroy/Sort call.
func (b *ParticleBase) AddAttribute(a AttribHandle) {
	b.attrs = append(b.attrs, a)
}

func (b *ParticleBase) LocalN() int { return b.localN }

// Create grows every attribute by n and assigns strided IDs to the
// newly allocated slots: ID[i] = next_id + i*num_nodes for
// i in [local_n, local_n+n), then advances next_id and local_n.
func (b *ParticleBase) Create(n int) error {
	if n < 0 {
		return picerrors.ErrParticleCapacity
	}
	for _, a := range b.attrs {
		a.create(n)
	}
	for i := 0; i < n; i++ {
		id := b.nextID + int64(i)*int64(b.numNodes)
		if id < 0 {
			return picerrors.ErrParticleCapacity
		}
		b.ID.Set(b.localN+i, id)
	}
	b.nextID += int64(n) * int64(b.numNodes)
	b.localN += n
	return nil
}

// CreateWithID creates exactly one particle and forces its ID to id,
// regardless of the strided scheme: it temporarily sets next_id=id
// and num_nodes=0 so Create's formula degenerates to a single fixed
// value, then restores the prior state.
func (b *ParticleBase) CreateWithID(id int64) error {
	savedNext, savedNodes := b.nextID, b.numNodes
	b.nextID, b.numNodes = id, 0
	err := b.Create(1)
	b.nextID, b.numNodes = savedNext, savedNodes
	return err
}

// GlobalCreate distributes nTotal particles across the cluster as
// evenly as possible, with the remainder spread over the
// lowest-ranked processes, then creates this rank's share locally.
func (b *ParticleBase) GlobalCreate(nTotal int) error {
	size := b.comm.Size()
	rank := b.comm.Rank()
	n := nTotal / size
	if rank < nTotal%size {
		n++
	}
	return b.Create(n)
}

// Destroy removes every particle flagged invalid, compacting every
// attribute via the gather-to-scratch path.
func (b *ParticleBase) Destroy(invalidMask []bool, newIndex []int, destroyN int) {
	localN := b.localN - destroyN
	for _, a := range b.attrs {
		a.destroy(invalidMask, newIndex, localN, destroyN)
	}
	b.localN = localN
}
