package picfield

import (
	"math"
	"sync"
)

// localFractionalIndex returns the fractional local grid index of a
// world-space position: (p - origin)/spacing + 0.5, per §4.7's
// scatter/gather contract.
func localFractionalIndex(pos Vec3, mesh *Mesh) Vec3 {
	w := mesh.WorldToCell(pos)
	return Vec3{X: w.X + 0.5, Y: w.Y + 0.5, Z: w.Z + 0.5}
}

// cicWeights returns the floor index and the trilinear weights for
// the 2x2x2 deposition/interpolation cube around a fractional index.
func cicWeights(l Vec3) (idx [3]int, whi, wlo Vec3) {
	idx = [3]int{int(math.Floor(l.X)), int(math.Floor(l.Y)), int(math.Floor(l.Z))}
	whi = Vec3{X: l.X - float64(idx[0]), Y: l.Y - float64(idx[1]), Z: l.Z - float64(idx[2])}
	wlo = Vec3{X: 1 - whi.X, Y: 1 - whi.Y, Z: 1 - whi.Z}
	return
}

func axisWeight(side int, lo, hi float64) float64 {
	if side == 0 {
		return lo
	}
	return hi
}

// Scatter deposits q[i] onto field at positions[i] using cloud-in-cell
// trilinear weighting, then calls field.AccumulateHalo so depositions
// that landed in halo cells migrate to their owners and sum. Each of
// the eight per-particle cube updates is serialized by a shared lock
// rather than a lock-free per-cell atomic: the weighted add touches a
// float64 cell and a mutex is simpler than a CAS loop over
// math.Float64bits for the one numeric width this operation supports.
func Scatter(q *ParticleAttrib[float64], field *Field[float64], positions *ParticleAttrib[Vec3], dispatcher Dispatcher) error {
	if dispatcher == nil {
		dispatcher = SequentialDispatcher{}
	}
	local := field.Layout().LocalDomain()
	nghost := field.Nghost()
	view := field.View()
	var mu sync.Mutex

	dispatcher.ParallelFor(positions.Len(), func(p int) {
		l := localFractionalIndex(positions.Get(p), field.Mesh())
		idx, whi, wlo := cicWeights(l)
		I := idx[0] - local[0].First + nghost
		J := idx[1] - local[1].First + nghost
		K := idx[2] - local[2].First + nghost
		charge := q.Get(p)

		mu.Lock()
		for di := 0; di < 2; di++ {
			wx := axisWeight(di, wlo.X, whi.X)
			for dj := 0; dj < 2; dj++ {
				wy := axisWeight(dj, wlo.Y, whi.Y)
				for dk := 0; dk < 2; dk++ {
					wz := axisWeight(dk, wlo.Z, whi.Z)
					weight := wx * wy * wz
					ci, cj, ck := I-1+di, J-1+dj, K-1+dk
					view.Set(ci, cj, ck, view.At(ci, cj, ck)+charge*weight)
				}
			}
		}
		mu.Unlock()
	})

	return field.AccumulateHalo()
}

// Gather refreshes field's halos and then, for each particle, reads
// the trilinear interpolation of field at positions[i] into dst[i].
// Each particle writes a disjoint destination slot, so no
// synchronization is needed across the dispatcher's workers.
func Gather(dst *ParticleAttrib[float64], field *Field[float64], positions *ParticleAttrib[Vec3], dispatcher Dispatcher) error {
	if err := field.FillHalo(); err != nil {
		return err
	}
	if dispatcher == nil {
		dispatcher = SequentialDispatcher{}
	}
	local := field.Layout().LocalDomain()
	nghost := field.Nghost()
	view := field.View()

	dispatcher.ParallelFor(positions.Len(), func(p int) {
		l := localFractionalIndex(positions.Get(p), field.Mesh())
		idx, whi, wlo := cicWeights(l)
		I := idx[0] - local[0].First + nghost
		J := idx[1] - local[1].First + nghost
		K := idx[2] - local[2].First + nghost

		var val float64
		for di := 0; di < 2; di++ {
			wx := axisWeight(di, wlo.X, whi.X)
			for dj := 0; dj < 2; dj++ {
				wy := axisWeight(dj, wlo.Y, whi.Y)
				for dk := 0; dk < 2; dk++ {
					wz := axisWeight(dk, wlo.Z, whi.Z)
					ci, cj, ck := I-1+di, J-1+dj, K-1+dk
					val += wx * wy * wz * view.At(ci, cj, ck)
				}
			}
		}
		dst.Set(p, val)
	})
	return nil
}
