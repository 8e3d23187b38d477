package picfield

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/picerrors"
	"github.com/meshkit/picfield/wire"
)

// migrateAttribLit is the TLV record type Migrate frames each
// attribute's payload with, in the fixed order ParticleBase.attrs
// holds them (R, ID, then whatever AddAttribute registered). Every
// rank constructs its ParticleBase the same way, so the order lines
// up without needing to name attributes on the wire.
const migrateAttribLit = 'A'

// migrationHeader is the fixed-size handshake that precedes a
// migration payload between one ordered pair of ranks: how many
// particles are coming, how many bytes the payload is, and an xxhash
// checksum of that payload — the same "hash the TLV bytes" discipline
// this module's lineage uses for content-addressed records, here
// repurposed to catch a truncated or reordered migration batch rather
// than silently corrupting the receiver's attributes.
type migrationHeader struct {
	count    uint32
	byteLen  uint32
	checksum uint64
}

const migrationHeaderSize = 16

func (h migrationHeader) marshal() []byte {
	buf := make([]byte, migrationHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.count)
	binary.LittleEndian.PutUint32(buf[4:8], h.byteLen)
	binary.LittleEndian.PutUint64(buf[8:16], h.checksum)
	return buf
}

func unmarshalMigrationHeader(buf []byte) migrationHeader {
	return migrationHeader{
		count:    binary.LittleEndian.Uint32(buf[0:4]),
		byteLen:  binary.LittleEndian.Uint32(buf[4:8]),
		checksum: binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// packMigrationPayload frames each attribute's packed bytes for the
// given particles as one TLV record, in attrs order.
func packMigrationPayload(attrs []AttribHandle, indices []int) ([]byte, error) {
	recs := make(wire.Records, 0, len(attrs))
	for _, a := range attrs {
		body, err := a.packWire(indices)
		if err != nil {
			return nil, err
		}
		recs = append(recs, wire.Record(migrateAttribLit, body))
	}
	out := make([]byte, 0, recs.TotalLen())
	for _, r := range recs {
		out = append(out, r...)
	}
	return out, nil
}

// unpackMigrationPayload parses payload's TLV records in attrs order
// and appends n decoded elements to each attribute.
func unpackMigrationPayload(attrs []AttribHandle, payload []byte, n int) error {
	rest := payload
	for _, a := range attrs {
		body, next, err := wire.TakeWary(migrateAttribLit, rest)
		if err != nil {
			return fmt.Errorf("%w: migration payload: %v", picerrors.ErrMessagePassing, err)
		}
		if err := a.unpackWire(body, n); err != nil {
			return err
		}
		rest = next
	}
	return nil
}

// Migrate relocates every particle in b whose position has left the
// owning rank's local domain, per §4.7: particles that crossed a
// domain boundary move to whichever rank's domain now contains them,
// carrying every attribute (including ID) along unchanged. Particles
// that left the global domain entirely are left in place — callers
// that need open or periodic boundaries handle that before calling
// Migrate.
//
// The exchange runs in two passes per ordered pair of ranks: a fixed
// header (count, byte length, checksum) so every rank knows what, if
// anything, to expect, then the framed payload itself. Headers and
// payloads are each sent to every peer before any blocking receive,
// the same send-all-then-recv-all discipline the halo engine uses to
// avoid a send/recv deadlock.
func Migrate(c *comm.Communicator, b *ParticleBase, layout *FieldLayout, mesh *Mesh, tagBase int) error {
	size := c.Size()
	if size <= 1 {
		return nil
	}
	rank := c.Rank()
	local := layout.LocalDomain()

	outgoing := make(map[int][]int)
	invalidMask := make([]bool, b.localN)
	for i := 0; i < b.localN; i++ {
		idx := mesh.CellIndex(b.R.Get(i))
		if local.Contains(idx[0], idx[1], idx[2]) {
			continue
		}
		dst, ok := layout.OwnerOf(idx)
		if !ok || dst == rank {
			continue
		}
		outgoing[dst] = append(outgoing[dst], i)
		invalidMask[i] = true
	}

	headerTag := c.NextTag(tagBase, 2)
	payloadTag := headerTag + 1

	payloads := make(map[int][]byte, len(outgoing))
	for dst, indices := range outgoing {
		payload, err := packMigrationPayload(b.attrs, indices)
		if err != nil {
			return err
		}
		payloads[dst] = payload
	}

	var reqs []comm.Request
	var sendIntents []string
	for peer := 0; peer < size; peer++ {
		if peer == rank {
			continue
		}
		payload := payloads[peer]
		h := migrationHeader{count: uint32(len(outgoing[peer])), byteLen: uint32(len(payload))}
		if len(payload) > 0 {
			h.checksum = xxhash.Sum64(payload)
		}

		hintent := fmt.Sprintf("migrate-header-send-%d", peer)
		hbuf, err := c.GetBuffer(hintent, migrationHeaderSize)
		if err != nil {
			return err
		}
		copy(hbuf.Bytes(), h.marshal())
		hreq, err := c.ISend(peer, headerTag, hbuf, migrationHeaderSize)
		if err != nil {
			return err
		}
		reqs = append(reqs, hreq)
		sendIntents = append(sendIntents, hintent)

		if len(payload) == 0 {
			continue
		}
		pintent := fmt.Sprintf("migrate-payload-send-%d", peer)
		pbuf, err := c.GetBuffer(pintent, len(payload))
		if err != nil {
			return err
		}
		copy(pbuf.Bytes(), payload)
		preq, err := c.ISend(peer, payloadTag, pbuf, len(payload))
		if err != nil {
			return err
		}
		reqs = append(reqs, preq)
		sendIntents = append(sendIntents, pintent)
	}

	type incoming struct {
		from    int
		count   int
		payload []byte
	}
	var arrivals []incoming
	for peer := 0; peer < size; peer++ {
		if peer == rank {
			continue
		}
		hintent := fmt.Sprintf("migrate-header-recv-%d", peer)
		hbuf, err := c.GetBuffer(hintent, migrationHeaderSize)
		if err != nil {
			return err
		}
		if err := c.Recv(peer, headerTag, hbuf, migrationHeaderSize); err != nil {
			return err
		}
		h := unmarshalMigrationHeader(hbuf.Bytes()[:migrationHeaderSize])
		c.ReleaseBuffer(hintent)
		if h.count == 0 {
			continue
		}

		pintent := fmt.Sprintf("migrate-payload-recv-%d", peer)
		pbuf, err := c.GetBuffer(pintent, int(h.byteLen))
		if err != nil {
			return err
		}
		if err := c.Recv(peer, payloadTag, pbuf, int(h.byteLen)); err != nil {
			return err
		}
		payload := append([]byte(nil), pbuf.Bytes()[:h.byteLen]...)
		c.ReleaseBuffer(pintent)
		if xxhash.Sum64(payload) != h.checksum {
			return fmt.Errorf("%w: migration payload checksum mismatch from rank %d", picerrors.ErrMessagePassing, peer)
		}
		arrivals = append(arrivals, incoming{from: peer, count: int(h.count), payload: payload})
	}

	if err := c.WaitAll(reqs); err != nil {
		return err
	}
	for _, intent := range sendIntents {
		c.ReleaseBuffer(intent)
	}

	for _, arr := range arrivals {
		if err := unpackMigrationPayload(b.attrs, arr.payload, arr.count); err != nil {
			return err
		}
		b.localN += arr.count
	}

	compactAfterMigrate(b, invalidMask)
	return nil
}

// compactAfterMigrate removes every particle flagged by invalidMask
// (sized to the pre-migration local_n) via ParticleBase's normal
// destroy path, leaving newly-arrived particles (appended past that
// range) untouched.
func compactAfterMigrate(b *ParticleBase, invalidMask []bool) {
	oldN := len(invalidMask)
	destroyN := 0
	for _, invalid := range invalidMask {
		if invalid {
			destroyN++
		}
	}
	if destroyN == 0 {
		return
	}

	newIndex := make([]int, b.localN)
	next := 0
	for i := 0; i < oldN; i++ {
		if !invalidMask[i] {
			newIndex[i] = next
			next++
		}
	}
	for i := oldN; i < b.localN; i++ {
		newIndex[i] = next
		next++
	}
	fullMask := make([]bool, b.localN)
	copy(fullMask, invalidMask)

	for _, a := range b.attrs {
		a.destroy(fullMask, newIndex, b.localN-destroyN, destroyN)
	}
	b.localN -= destroyN
}
