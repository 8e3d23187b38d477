package picfield

// NDIndex is the Cartesian product of three Intervals, one per axis.
// The spec's D is fixed to 3 here: the spec's own Non-goals exclude
// dimensions other than 3, and a fixed-size array reads more plainly
// in Go than a generic over array length.
type NDIndex [3]Interval

// NewNDIndex builds an NDIndex from three explicit bounds pairs.
func NewNDIndex(x, y, z Interval) NDIndex {
	return NDIndex{x, y, z}
}

// Grow expands every axis by n.
func (n NDIndex) Grow(amount int) NDIndex {
	return NDIndex{n[0].Grow(amount), n[1].Grow(amount), n[2].Grow(amount)}
}

// Intersect intersects each axis independently; no axis reordering,
// no cross-axis coupling.
func (n NDIndex) Intersect(other NDIndex) NDIndex {
	return NDIndex{
		n[0].Intersect(other[0]),
		n[1].Intersect(other[1]),
		n[2].Intersect(other[2]),
	}
}

// Empty reports whether any axis is empty.
func (n NDIndex) Empty() bool {
	return n[0].Empty() || n[1].Empty() || n[2].Empty()
}

// Contains reports whether the point lies within all three axes.
func (n NDIndex) Contains(x, y, z int) bool {
	return n[0].Contains(x) && n[1].Contains(y) && n[2].Contains(z)
}

// Extents returns the per-axis lengths.
func (n NDIndex) Extents() [3]int {
	return [3]int{n[0].Length(), n[1].Length(), n[2].Length()}
}

// Touches reports whether the two index boxes overlap on every axis.
func (n NDIndex) Touches(other NDIndex) bool {
	return n[0].Touches(other[0]) && n[1].Touches(other[1]) && n[2].Touches(other[2])
}

// Shift translates every axis by the matching delta, converting
// between global and local-view coordinates.
func (n NDIndex) Shift(delta [3]int) NDIndex {
	return NDIndex{n[0].Shift(delta[0]), n[1].Shift(delta[1]), n[2].Shift(delta[2])}
}

// Volume returns the total cell count, 0 if any axis is empty.
func (n NDIndex) Volume() int {
	e := n.Extents()
	return e[0] * e[1] * e[2]
}
