package picfield

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/picerrors"
	"github.com/meshkit/picfield/utils"
)

// HaloMode selects which direction data flows in an exchange: Fill
// overwrites halo cells from remote owners, Accumulate adds halo
// contents back into the owners.
type HaloMode int

const (
	Fill HaloMode = iota
	Accumulate
)

// phaseCycle bounds the tag family each phase draws from. It only
// needs to outlive the handful of neighbor entries a single call
// issues concurrently — by the time it wraps, every earlier tag's
// WaitAll has long since returned.
const phaseCycle = 997

// faceTagOffset, edgeTagOffset and vertexTagOffset keep the three
// phases of one Field's exchanges in disjoint tag families, as §4.5
// requires ("each with a fresh tag drawn from its own (base,cycle)
// family").
const (
	faceTagOffset   = 0
	edgeTagOffset   = 1000
	vertexTagOffset = 2000
)

func assignOp[T comm.Numeric](dst, src T) T { return src }
func addOp[T comm.Numeric](dst, src T) T    { return dst + src }

// elemSize reports T's encoded width. binary.Size returns -1 for a
// platform-width int/uint, which Numeric permits but which halo
// exchange does not support: packRange's binary.Write rejects such
// rows, so every view this codebase exchanges uses a fixed-width type
// (float64, int64).
func elemSize[T comm.Numeric]() int {
	var zero T
	return binary.Size(zero)
}

// packRange linearizes view's sub-range r into buf using the
// row-major formula l = i + j*ex + k*ex*ey. A fixed-(j,k) i-range is
// contiguous in the backing array, so each row is one binary.Write of
// a slice rather than one write per cell.
func packRange[T comm.Numeric](view *View[T], r NDIndex, buf *comm.Buffer) error {
	buf.ResetWrite()
	for k := r[2].First; k < r[2].Last; k++ {
		for j := r[1].First; j < r[1].Last; j++ {
			row := view.rowSpan(r[0].First, r[0].Last, j, k)
			if err := binary.Write(buf, binary.LittleEndian, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// unpackRange reads buf back into view's sub-range r, combining each
// cell with op: assignOp for Fill, addOp for Accumulate.
func unpackRange[T comm.Numeric](view *View[T], r NDIndex, buf *comm.Buffer, op func(dst, src T) T) error {
	buf.ResetRead()
	width := r[0].Length()
	tmp := make([]T, width)
	for k := r[2].First; k < r[2].Last; k++ {
		for j := r[1].First; j < r[1].Last; j++ {
			if err := binary.Read(buf, binary.LittleEndian, tmp); err != nil {
				return err
			}
			row := view.rowSpan(r[0].First, r[0].Last, j, k)
			for i, v := range tmp {
				row[i] = op(row[i], v)
			}
		}
	}
	return nil
}

// ExchangeHalo runs one fill or accumulate over view using layout's
// precomputed neighbor tables, in three phases: faces, then edges,
// then vertices, each drawing its tag from its own family rooted at
// tagBase. Distinct Fields must pass distinct tagBase values (see
// §5's ordering guarantees) so their exchanges can never collide.
func ExchangeHalo[T comm.Numeric](c *comm.Communicator, view *View[T], layout *FieldLayout, mode HaloMode, tagBase int) error {
	nghost := layout.Nghost()
	wantExtents := layout.LocalDomain().Extents()
	for axis, n := range wantExtents {
		// Open question resolved: nghost is kept as a consistency
		// assertion against the view's actual padding, not as an
		// input to range recomputation — the precomputed send/recv
		// ranges already encode every bound §4.3 needs.
		if view.Extents()[axis] != n+2*nghost {
			return fmt.Errorf("%w: view extent %d on axis %d, want local domain (%d) + 2*nghost (%d)",
				picerrors.ErrConfiguration, view.Extents()[axis], axis, n, nghost)
		}
	}

	exchangeID := uuid.New()
	ctx := utils.WithArgs(context.Background(), "exchange_id", exchangeID.String(), "rank", c.Rank())
	c.Logger().DebugCtx(ctx, "halo exchange start", "mode", mode)

	if err := exchangePhase(c, view, layout.FaceEntries(), mode, tagBase+faceTagOffset, "face", ctx); err != nil {
		return err
	}
	if err := exchangePhase(c, view, layout.EdgeEntries(), mode, tagBase+edgeTagOffset, "edge", ctx); err != nil {
		return err
	}
	if err := exchangePhase(c, view, layout.VertexEntries(), mode, tagBase+vertexTagOffset, "vertex", ctx); err != nil {
		return err
	}

	c.Logger().DebugCtx(ctx, "halo exchange done", "avg_send_bytes", c.AvgSendBytes())
	return nil
}

// FillHalo overwrites view's halo cells with remote owners' interior
// data.
func FillHalo[T comm.Numeric](c *comm.Communicator, view *View[T], layout *FieldLayout, tagBase int) error {
	return ExchangeHalo(c, view, layout, Fill, tagBase)
}

// AccumulateHalo sends view's halo contents outward and adds them
// into remote owners' interiors.
func AccumulateHalo[T comm.Numeric](c *comm.Communicator, view *View[T], layout *FieldLayout, tagBase int) error {
	return ExchangeHalo(c, view, layout, Accumulate, tagBase)
}

func exchangePhase[T comm.Numeric](c *comm.Communicator, view *View[T], entries []NeighborEntry, mode HaloMode, base int, phaseName string, ctx context.Context) error {
	if len(entries) == 0 {
		return nil
	}
	tag := c.NextTag(base, phaseCycle)

	op := assignOp[T]
	sendRangeOf := func(e NeighborEntry) NDIndex { return e.SendRange }
	recvRangeOf := func(e NeighborEntry) NDIndex { return e.RecvRange }
	if mode == Accumulate {
		op = addOp[T]
		// §4.5: for HaloToInternal the two ranges swap — we send our
		// halo (the other side's send_range) and accumulate into our
		// owned region from the partner (the other side's recv_range).
		sendRangeOf = func(e NeighborEntry) NDIndex { return e.RecvRange }
		recvRangeOf = func(e NeighborEntry) NDIndex { return e.SendRange }
	}

	size := elemSize[T]()
	c.Logger().DebugCtx(ctx, "halo phase", "phase", phaseName, "tag", tag, "neighbors", len(entries))

	reqs := make([]comm.Request, 0, len(entries))
	sendIntents := make([]string, 0, len(entries))
	for idx, e := range entries {
		r := sendRangeOf(e)
		ext := r.Extents()
		nbytes := ext[0] * ext[1] * ext[2] * size
		intent := fmt.Sprintf("%d-%s-send-%d", base, phaseName, idx)
		buf, err := c.GetBuffer(intent, nbytes)
		if err != nil {
			return err
		}
		if err := packRange(view, r, buf); err != nil {
			return err
		}
		req, err := c.ISend(e.Rank, tag, buf, nbytes)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
		sendIntents = append(sendIntents, intent)
	}

	for idx, e := range entries {
		r := recvRangeOf(e)
		ext := r.Extents()
		nbytes := ext[0] * ext[1] * ext[2] * size
		intent := fmt.Sprintf("%d-%s-recv-%d", base, phaseName, idx)
		buf, err := c.GetBuffer(intent, nbytes)
		if err != nil {
			return err
		}
		if err := c.Recv(e.Rank, tag, buf, nbytes); err != nil {
			return err
		}
		if err := unpackRange(view, r, buf, op); err != nil {
			return err
		}
		c.ReleaseBuffer(intent)
	}

	if err := c.WaitAll(reqs); err != nil {
		return err
	}
	for _, intent := range sendIntents {
		c.ReleaseBuffer(intent)
	}
	return nil
}
