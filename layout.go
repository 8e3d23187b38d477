package picfield

import (
	"fmt"

	"github.com/meshkit/picfield/picerrors"
)

// NeighborEntry records one communication partner for a single
// face/edge/vertex slot: the remote rank plus the exact send and recv
// sub-ranges, already expressed in this rank's local-view coordinates
// (shifted by +nghost, see FieldLayout.rangesFor).
type NeighborEntry struct {
	Rank      int
	SendRange NDIndex
	RecvRange NDIndex
}

// faceDirs, edgeDirs and vertexDirs are the 6+12+8 direction vectors
// of a 3D decomposition: one nonzero axis for a face, two for an
// edge, three for a vertex.
var faceDirs = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

var edgeDirs = [12][3]int{
	{1, 1, 0}, {1, -1, 0}, {-1, 1, 0}, {-1, -1, 0},
	{1, 0, 1}, {1, 0, -1}, {-1, 0, 1}, {-1, 0, -1},
	{0, 1, 1}, {0, 1, -1}, {0, -1, 1}, {0, -1, -1},
}

var vertexDirs = [8][3]int{
	{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
	{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
}

// FieldLayout decomposes a global index space across ranks and
// precomputes, for the owning rank, every face/edge/vertex neighbor
// and the exact send/recv sub-ranges for the halo exchange engine to
// consult. It is immutable after construction and safe to share
// across many Fields.
type FieldLayout struct {
	global       NDIndex
	localDomains []NDIndex
	rank         int
	nghost       int

	faceNeighbors   [6][]NeighborEntry
	edgeNeighbors   [12][]NeighborEntry
	vertexNeighbors [8]*NeighborEntry
}

// NewFieldLayout validates the decomposition and builds the local
// rank's neighbor tables. localDomains must have one entry per rank,
// and rank must index into it.
func NewFieldLayout(global NDIndex, localDomains []NDIndex, rank, nghost int) (*FieldLayout, error) {
	if global.Empty() {
		return nil, picerrors.ErrConfiguration
	}
	if nghost < 0 {
		return nil, picerrors.ErrConfiguration
	}
	if rank < 0 || rank >= len(localDomains) {
		return nil, picerrors.ErrConfiguration
	}
	if localDomains[rank].Empty() {
		return nil, picerrors.ErrConfiguration
	}

	l := &FieldLayout{
		global:       global,
		localDomains: localDomains,
		rank:         rank,
		nghost:       nghost,
	}
	l.build()
	return l, nil
}

func (l *FieldLayout) Rank() int          { return l.rank }
func (l *FieldLayout) Nghost() int        { return l.nghost }
func (l *FieldLayout) GlobalDomain() NDIndex { return l.global }
func (l *FieldLayout) LocalDomain() NDIndex  { return l.localDomains[l.rank] }
func (l *FieldLayout) LocalDomains() []NDIndex {
	return l.localDomains
}

// matchesDirection reports whether remote lies in direction dvec from
// our: axes with dvec[i]==0 must overlap (same row along that axis),
// axes with dvec[i]==+1/-1 must be exactly edge-adjacent on that side.
func matchesDirection(our, remote NDIndex, dvec [3]int) bool {
	for axis := 0; axis < 3; axis++ {
		switch dvec[axis] {
		case 0:
			if !our[axis].Touches(remote[axis]) {
				return false
			}
		case 1:
			if remote[axis].First != our[axis].Last {
				return false
			}
		case -1:
			if remote[axis].Last != our[axis].First {
				return false
			}
		}
	}
	return true
}

// rangesFor computes send_range/recv_range per §4.3: grow one domain
// by nghost, intersect with the other (ungrown) domain, then shift
// into our local-view coordinates (offset -our.First + nghost per
// axis, so index 0 is the outer edge of the halo padding).
func (l *FieldLayout) rangesFor(our, remote NDIndex) (sendRange, recvRange NDIndex) {
	send := remote.Grow(l.nghost).Intersect(our)
	recv := our.Grow(l.nghost).Intersect(remote)
	shift := [3]int{
		-our[0].First + l.nghost,
		-our[1].First + l.nghost,
		-our[2].First + l.nghost,
	}
	return send.Shift(shift), recv.Shift(shift)
}

func (l *FieldLayout) build() {
	our := l.localDomains[l.rank]

	for slot, dvec := range faceDirs {
		l.faceNeighbors[slot] = l.neighborsInDirection(our, dvec)
	}
	for slot, dvec := range edgeDirs {
		l.edgeNeighbors[slot] = l.neighborsInDirection(our, dvec)
	}
	for slot, dvec := range vertexDirs {
		entries := l.neighborsInDirection(our, dvec)
		if len(entries) > 0 {
			e := entries[0]
			l.vertexNeighbors[slot] = &e
		} else {
			l.vertexNeighbors[slot] = nil // physical boundary
		}
	}
}

func (l *FieldLayout) neighborsInDirection(our NDIndex, dvec [3]int) []NeighborEntry {
	var entries []NeighborEntry
	for r, remote := range l.localDomains {
		if r == l.rank || remote.Empty() {
			continue
		}
		if !matchesDirection(our, remote, dvec) {
			continue
		}
		send, recv := l.rangesFor(our, remote)
		if send.Empty() && recv.Empty() {
			continue
		}
		entries = append(entries, NeighborEntry{Rank: r, SendRange: send, RecvRange: recv})
	}
	return entries
}

// FaceNeighbors returns the (possibly multi-rank) neighbor list for
// one of the 6 face directions, indexed as faceDirs above.
func (l *FieldLayout) FaceNeighbors(slot int) []NeighborEntry { return l.faceNeighbors[slot] }

// EdgeNeighbors returns the neighbor list for one of the 12 edge
// directions.
func (l *FieldLayout) EdgeNeighbors(slot int) []NeighborEntry { return l.edgeNeighbors[slot] }

// VertexNeighbor returns the single neighbor for one of the 8 corner
// directions, or nil if that corner is a physical boundary.
func (l *FieldLayout) VertexNeighbor(slot int) *NeighborEntry { return l.vertexNeighbors[slot] }

// FaceEntries flattens every face slot's neighbor list into one slice
// for the halo engine's face phase.
func (l *FieldLayout) FaceEntries() []NeighborEntry {
	var out []NeighborEntry
	for _, list := range l.faceNeighbors {
		out = append(out, list...)
	}
	return out
}

// EdgeEntries flattens every edge slot's neighbor list for the halo
// engine's edge phase.
func (l *FieldLayout) EdgeEntries() []NeighborEntry {
	var out []NeighborEntry
	for _, list := range l.edgeNeighbors {
		out = append(out, list...)
	}
	return out
}

// VertexEntries collects every non-boundary vertex neighbor for the
// halo engine's vertex phase.
func (l *FieldLayout) VertexEntries() []NeighborEntry {
	var out []NeighborEntry
	for _, e := range l.vertexNeighbors {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// OwnerOf returns the rank whose local domain contains global cell
// idx, for migration's "which rank does this particle belong to now"
// lookup. Domains never overlap by construction, so the first match
// is the only match.
func (l *FieldLayout) OwnerOf(idx [3]int) (int, bool) {
	for r, dom := range l.localDomains {
		if dom.Contains(idx[0], idx[1], idx[2]) {
			return r, true
		}
	}
	return 0, false
}

// VerifySymmetry checks invariant P1 against a peer rank's layout:
// every entry we recorded for a neighbor must have a dual entry on
// that neighbor's side with send/recv swapped and matching extents.
// It exists for tests; production exchanges never call it; an asymmetric pair is a construction bug in this file, not
// a runtime condition to recover from.
func (l *FieldLayout) VerifySymmetry(peer *FieldLayout) error {
	if peer.rank == l.rank {
		return nil
	}
	mine := l.entriesTo(peer.rank)
	theirs := peer.entriesTo(l.rank)
	if len(mine) != len(theirs) {
		return fmt.Errorf("%w: rank %d has %d entries for rank %d, rank %d has %d back",
			picerrors.ErrDecompositionMismatch, l.rank, len(mine), peer.rank, peer.rank, len(theirs))
	}
	for i, m := range mine {
		t := theirs[i]
		if m.SendRange.Extents() != t.RecvRange.Extents() || m.RecvRange.Extents() != t.SendRange.Extents() {
			return fmt.Errorf("%w: rank %d <-> rank %d extent mismatch at slot %d",
				picerrors.ErrDecompositionMismatch, l.rank, peer.rank, i)
		}
	}
	return nil
}

func (l *FieldLayout) entriesTo(rank int) []NeighborEntry {
	var out []NeighborEntry
	for _, list := range l.faceNeighbors {
		for _, e := range list {
			if e.Rank == rank {
				out = append(out, e)
			}
		}
	}
	for _, list := range l.edgeNeighbors {
		for _, e := range list {
			if e.Rank == rank {
				out = append(out, e)
			}
		}
	}
	for _, e := range l.vertexNeighbors {
		if e != nil && e.Rank == rank {
			out = append(out, *e)
		}
	}
	return out
}
