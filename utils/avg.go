package utils

import "sync"

// AvgVal is a running mean, used by comm to track the average size of
// every message it sends (halo, migration and all-reduce alike) for
// diagnostics without pulling in a metrics server.
type AvgVal struct {
	v     float64
	count int
	lock  sync.Mutex
}

func NewAvgVal(val float64) *AvgVal {
	return &AvgVal{
		v:     val,
		count: 1,
	}
}

func (a *AvgVal) Add(val float64) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.v = (float64(a.count)*a.v + val) / float64(a.count+1)
	a.count++
}

func (a *AvgVal) Val() float64 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.v
}

// Count reports how many samples have gone into Val so far, letting a
// caller tell "no sends yet" (the seed value from NewAvgVal) apart
// from "this many sends averaged to exactly the seed value".
func (a *AvgVal) Count() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.count
}
