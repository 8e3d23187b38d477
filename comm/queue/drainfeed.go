package queue

import "io"

// Records is a batch of packed byte payloads in flight between two
// ranks. comm.LocalTransport uses Feeder/Drainer pairs as the
// in-process stand-in for a real transport's send/receive queues.
type Records [][]byte

type Feeder interface {
	// Feed reads and returns records.
	// The EoF convention follows that of io.Reader:
	// can either return `records, EoF` or
	// `records, nil` followed by `nil/{}, EoF`
	Feed() (recs Records, err error)
}

type FeedCloser interface {
	Feeder
	io.Closer
}

type Drainer interface {
	Drain(recs Records) error
}

type DrainCloser interface {
	Drainer
	io.Closer
}

type FeedDrainCloser interface {
	Feeder
	Drainer
	io.Closer
}
