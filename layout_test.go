package picfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// split2x1x1 is the S1 decomposition: global [0,8)^3, two ranks split
// along x at 4.
func split2x1x1() []NDIndex {
	full := NewInterval(0, 8)
	return []NDIndex{
		NewNDIndex(NewInterval(0, 4), full, full),
		NewNDIndex(NewInterval(4, 8), full, full),
	}
}

func TestFieldLayoutFaceNeighborsS1(t *testing.T) {
	domains := split2x1x1()
	global := NewNDIndex(NewInterval(0, 8), NewInterval(0, 8), NewInterval(0, 8))

	rank0, err := NewFieldLayout(global, domains, 0, 1)
	assert.NoError(t, err)
	rank1, err := NewFieldLayout(global, domains, 1, 1)
	assert.NoError(t, err)

	// +x face on rank 0 touches rank 1.
	plusX := rank0.FaceNeighbors(0)
	assert.Len(t, plusX, 1)
	assert.Equal(t, 1, plusX[0].Rank)

	// -x face on rank 1 touches rank 0.
	minusX := rank1.FaceNeighbors(1)
	assert.Len(t, minusX, 1)
	assert.Equal(t, 0, minusX[0].Rank)

	// -x face on rank 0 is a physical boundary: no neighbor.
	assert.Len(t, rank0.FaceNeighbors(1), 0)

	// symmetric matching (P1).
	assert.NoError(t, rank0.VerifySymmetry(rank1))
	assert.NoError(t, rank1.VerifySymmetry(rank0))
}

func TestFieldLayoutRangesS1(t *testing.T) {
	domains := split2x1x1()
	global := NewNDIndex(NewInterval(0, 8), NewInterval(0, 8), NewInterval(0, 8))

	rank0, err := NewFieldLayout(global, domains, 0, 1)
	assert.NoError(t, err)

	plusX := rank0.FaceNeighbors(0)
	assert.Len(t, plusX, 1)
	e := plusX[0]
	// rank 0's local view has x-extent 4 + 2*1 = 6, halo offset 1.
	// send_range: our owned slab rank1 needs, [3,4) in global -> shifted by (-0+1)=1 -> [4,5).
	assert.Equal(t, NewInterval(4, 5), e.SendRange[0])
	// recv_range: rank1's owned slab we need as halo, [4,5) in global -> shifted by 1 -> [5,6).
	assert.Equal(t, NewInterval(5, 6), e.RecvRange[0])
}

// split2x2x1 is the S6 decomposition: global divided into a 2x2 tiling
// along x and y, uniform along z.
func split2x2x1() []NDIndex {
	full := NewInterval(0, 8)
	xs := [2]Interval{NewInterval(0, 4), NewInterval(4, 8)}
	ys := [2]Interval{NewInterval(0, 4), NewInterval(4, 8)}
	var domains []NDIndex
	for _, y := range ys {
		for _, x := range xs {
			domains = append(domains, NewNDIndex(x, y, full))
		}
	}
	return domains
}

func TestFieldLayoutEdgeTopologyS6(t *testing.T) {
	domains := split2x2x1()
	global := NewNDIndex(NewInterval(0, 8), NewInterval(0, 8), NewInterval(0, 8))

	rank0, err := NewFieldLayout(global, domains, 0, 1)
	assert.NoError(t, err)

	// rank 0 owns [0,4)x[0,4): +x face neighbor is rank 1, +y face
	// neighbor is rank 2, +x+y edge neighbor is rank 3.
	plusX := rank0.FaceNeighbors(0)
	assert.Len(t, plusX, 1)
	assert.Equal(t, 1, plusX[0].Rank)

	plusY := rank0.FaceNeighbors(2)
	assert.Len(t, plusY, 1)
	assert.Equal(t, 2, plusY[0].Rank)

	// edgeDirs[0] == {1,1,0} (+x+y).
	plusXplusY := rank0.EdgeNeighbors(0)
	assert.Len(t, plusXplusY, 1)
	assert.Equal(t, 3, plusXplusY[0].Rank)

	// -z vertex is a physical boundary on every corner (2D tiling, z
	// already spans the full global extent). vertexDirs[3] == {1,-1,-1}.
	assert.Nil(t, rank0.VertexNeighbor(3))
}
