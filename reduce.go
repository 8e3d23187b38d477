package picfield

import (
	"github.com/meshkit/picfield/comm"
)

// reduceTagKey is the NextTag family each reduction call draws its own
// tag-family base (10, 20, 30, ...) from, so successive reductions
// never share a (base, cycle) family, the same discipline Field uses
// for halo exchanges. The counter lives in the Communicator, so every
// rank's n-th reduction gets the same base even when several ranks
// share one process.
const (
	reduceTagKey   = -2
	reduceTagSlots = 1 << 16
)

func nextReduceTagBase(c *comm.Communicator) int {
	n := c.NextTag(reduceTagKey, reduceTagSlots) - reduceTagKey
	return 10 * (n + 1)
}

// reduceAttrib folds op over a's local entries and then all-reduces
// the partial result across the cluster, per §4.7: "sum/min/max/prod
// perform a local parallel reduce then a cluster-wide all-reduce."
func reduceAttrib[T comm.Numeric](c *comm.Communicator, a *ParticleAttrib[T], op func(x, y T) T, identity T) (T, error) {
	local := localReduce(a, op, identity)
	return comm.AllReduce(c, local, op, nextReduceTagBase(c))
}

// SumAttrib returns the cluster-wide sum of a's entries.
func SumAttrib[T comm.Numeric](c *comm.Communicator, a *ParticleAttrib[T]) (T, error) {
	return reduceAttrib(c, a, comm.SumOp[T], 0)
}

// MinAttrib returns the cluster-wide minimum of a's entries. Ranks
// that own zero particles locally contribute the maximum representable
// value of T so they never win the minimum.
func MinAttrib[T comm.Numeric](c *comm.Communicator, a *ParticleAttrib[T], maxVal T) (T, error) {
	return reduceAttrib(c, a, comm.MinOp[T], maxVal)
}

// MaxAttrib returns the cluster-wide maximum of a's entries. Ranks
// that own zero particles locally contribute the minimum representable
// value of T so they never win the maximum.
func MaxAttrib[T comm.Numeric](c *comm.Communicator, a *ParticleAttrib[T], minVal T) (T, error) {
	return reduceAttrib(c, a, comm.MaxOp[T], minVal)
}

// ProdAttrib returns the cluster-wide product of a's entries.
func ProdAttrib[T comm.Numeric](c *comm.Communicator, a *ParticleAttrib[T]) (T, error) {
	return reduceAttrib(c, a, comm.ProdOp[T], 1)
}
