package comm

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/meshkit/picfield/comm/queue"
	"github.com/meshkit/picfield/picerrors"
)

// LocalTransport simulates a cluster of ranks inside one process: each
// ordered pair of ranks gets a dedicated blocking duplex link built
// from comm/queue's matched queue pair, the same primitive the
// teacher used to wire two ends of an in-memory connection together.
// It exists for tests and single-process examples; cmd/picsim drives
// one goroutine per simulated rank over a LocalTransport cluster.
type LocalTransport struct {
	rank  int
	size  int
	links [][]queue.FeedDrainCloser // links[r] is this rank's link to r

	// pendingMu guards pending, the per-source queue of envelopes a
	// prior Feed already pulled off the link but Recv hasn't consumed
	// yet. queue.RecordQueue.Feed drains everything it holds in one
	// call, but ISend enqueues one envelope per call — a sender that
	// issues several sends to the same peer before the peer's first
	// receive (exactly what migration's send-all-then-recv-all does)
	// would otherwise have later envelopes silently dropped when Recv
	// only looked at recs[0].
	pendingMu sync.Mutex
	pending   [][][]byte // pending[src] is envelopes from src not yet handed to Recv
}

// NewLocalCluster builds size LocalTransports that are all linked to
// each other, one per simulated rank.
func NewLocalCluster(size int) []*LocalTransport {
	if size <= 0 {
		return nil
	}
	links := make([][]queue.FeedDrainCloser, size)
	for i := range links {
		links[i] = make([]queue.FeedDrainCloser, size)
	}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			ij, ji := queue.BlockingRecordQueuePair(1 << 16)
			links[i][j] = ij
			links[j][i] = ji
		}
	}
	out := make([]*LocalTransport, size)
	for r := 0; r < size; r++ {
		out[r] = &LocalTransport{rank: r, size: size, links: links, pending: make([][][]byte, size)}
	}
	return out
}

func (t *LocalTransport) Rank() int { return t.rank }
func (t *LocalTransport) Size() int { return t.size }

func (t *LocalTransport) Close() error {
	var first error
	for _, link := range t.links[t.rank] {
		if link == nil {
			continue
		}
		if err := link.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type localRequest struct{}

func (localRequest) Wait() error { return nil }

// ISend drains an envelope — a 4-byte big-endian tag prefix followed
// by the payload — into the link to dst. The blocking queue pair
// makes the send complete (from this rank's perspective) as soon as
// it is enqueued, so Wait is a no-op; this mirrors mpi.Send's own
// "queued, not yet confirmed" semantics closely enough for a
// same-process stand-in.
func (t *LocalTransport) ISend(dst, tag int, data []byte) (Request, error) {
	if dst == t.rank || dst < 0 || dst >= t.size {
		return nil, fmt.Errorf("%w: bad destination rank %d", picerrors.ErrMessagePassing, dst)
	}
	envelope := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(envelope, uint32(tag))
	copy(envelope[4:], data)
	if err := t.links[t.rank][dst].Drain(queue.Records{envelope}); err != nil {
		return nil, fmt.Errorf("%w: %v", picerrors.ErrMessagePassing, err)
	}
	return localRequest{}, nil
}

// nextEnvelope returns the next envelope from src, in the order it was
// sent: one already queued by an earlier Feed if there is one, else
// the next one off the link, stashing any further envelopes that came
// along with it for later calls.
func (t *LocalTransport) nextEnvelope(src int) ([]byte, error) {
	t.pendingMu.Lock()
	if q := t.pending[src]; len(q) > 0 {
		envelope := q[0]
		t.pending[src] = q[1:]
		t.pendingMu.Unlock()
		return envelope, nil
	}
	t.pendingMu.Unlock()

	recs, err := t.links[t.rank][src].Feed()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("empty feed from rank %d", src)
	}
	if len(recs) > 1 {
		t.pendingMu.Lock()
		t.pending[src] = append(t.pending[src], recs[1:]...)
		t.pendingMu.Unlock()
	}
	return recs[0], nil
}

// Recv blocks on the link from src until an envelope arrives, checks
// its tag, and copies the payload into buf.
func (t *LocalTransport) Recv(src, tag int, buf []byte) error {
	if src == t.rank || src < 0 || src >= t.size {
		return fmt.Errorf("%w: bad source rank %d", picerrors.ErrMessagePassing, src)
	}
	envelope, err := t.nextEnvelope(src)
	if err != nil {
		return fmt.Errorf("%w: %v", picerrors.ErrMessagePassing, err)
	}
	if len(envelope) < 4 {
		return fmt.Errorf("%w: short envelope from rank %d", picerrors.ErrMessagePassing, src)
	}
	gotTag := int(binary.BigEndian.Uint32(envelope))
	if gotTag != tag {
		return fmt.Errorf("%w: tag mismatch from rank %d: want %d got %d", picerrors.ErrMessagePassing, src, tag, gotTag)
	}
	payload := envelope[4:]
	if len(payload) > len(buf) {
		return fmt.Errorf("%w: payload %d bytes exceeds buffer %d bytes", picerrors.ErrMessagePassing, len(payload), len(buf))
	}
	copy(buf, payload)
	return nil
}
