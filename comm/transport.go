// Package comm is the communicator façade of the data plane: tagged
// non-blocking send/recv, typed pooled buffers keyed by an intent id,
// and collectives built on top of Send/Recv. It is backed by either a
// real cluster transport (MPITransport, wrapping github.com/btracey/mpi)
// or an in-process one (LocalTransport, for tests and single-process
// examples).
package comm

// Request is a handle to an in-flight non-blocking send. Wait blocks
// until the destination has confirmed receipt.
type Request interface {
	Wait() error
}

// Transport is the minimal message-passing surface the Communicator
// needs: rank/size queries, a non-blocking send that returns a Request,
// a blocking receive into a pre-sized buffer, and a close for teardown.
type Transport interface {
	Rank() int
	Size() int
	ISend(dst, tag int, data []byte) (Request, error)
	Recv(src, tag int, buf []byte) error
	Close() error
}
