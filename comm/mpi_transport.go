package comm

import (
	"github.com/btracey/mpi"
	"github.com/pkg/errors"

	"github.com/meshkit/picfield/picerrors"
)

// MPITransport wraps github.com/btracey/mpi's package-level Send/Wait/
// Receive into the Transport interface. mpi's Send returns once the
// payload is queued; mpi.Wait blocks for the destination's
// confirmation, which is exactly the isend/wait_all split §4.4 asks
// for.
type MPITransport struct{}

// NewMPITransport calls mpi.Init and returns a ready transport. The
// caller must call Close (which calls mpi.Finalize) when the process
// group is done communicating.
func NewMPITransport() (*MPITransport, error) {
	if err := mpi.Init(); err != nil {
		return nil, errors.Wrap(err, "mpi init")
	}
	return &MPITransport{}, nil
}

func (t *MPITransport) Rank() int { return mpi.Rank() }
func (t *MPITransport) Size() int { return mpi.Size() }

func (t *MPITransport) Close() error {
	mpi.Finalize()
	return nil
}

type mpiRequest struct {
	dst, tag int
}

func (r *mpiRequest) Wait() error {
	if err := mpi.Wait(r.dst, r.tag); err != nil {
		return errors.Wrap(err, "mpi wait")
	}
	return nil
}

// ISend hands data to mpi.Send under (dst, tag) and returns a Request
// whose Wait confirms delivery. {dst, tag} must not be reused for a
// second outstanding send before Wait returns — the Communicator's
// per-phase intent discipline (§4.5) guarantees this.
func (t *MPITransport) ISend(dst, tag int, data []byte) (Request, error) {
	if err := mpi.Send(data, dst, tag); err != nil {
		return nil, errors.Wrapf(picerrors.ErrMessagePassing, "send to rank %d tag %d: %v", dst, tag, err)
	}
	return &mpiRequest{dst: dst, tag: tag}, nil
}

// Recv blocks until the (src, tag) message has been deserialized into
// buf. mpi.Receive resizes/sets data by reference through the pointer
// it is handed.
func (t *MPITransport) Recv(src, tag int, buf []byte) error {
	if err := mpi.Receive(&buf, src, tag); err != nil {
		return errors.Wrapf(picerrors.ErrMessagePassing, "recv from rank %d tag %d: %v", src, tag, err)
	}
	return nil
}
