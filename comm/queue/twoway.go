package queue

// BlockingRecordQueuePair gives comm.LocalTransport the two matched,
// blocking duplex endpoints it wires between a pair of simulated
// ranks: whatever one side Drains, the other Feeds back.
type twoWayQueue struct {
	in  DrainCloser
	out FeedCloser
}

// BlockingRecordQueuePair returns two matched endpoints: whatever one
// side Drains, the other's Feed delivers, blocking until there is
// something to deliver.
func BlockingRecordQueuePair(limit int) (i, o FeedDrainCloser) {
	_a, _b := RecordQueue{Limit: limit}, RecordQueue{Limit: limit}
	a, b := _a.Blocking(), _b.Blocking()
	i = &twoWayQueue{in: a, out: b}
	o = &twoWayQueue{in: b, out: a}
	return
}

func (tw *twoWayQueue) Feed() (recs Records, err error) {
	return tw.out.Feed()
}

func (tw *twoWayQueue) Drain(recs Records) error {
	return tw.in.Drain(recs)
}

func (tw *twoWayQueue) Close() (err error) {
	err = tw.in.Close()
	if err == nil {
		err = tw.out.Close()
	}
	return
}
