// Package picfield implements the distributed 3D structured-grid data
// plane: domain-decomposed fields with ghost layers, a halo exchange
// engine over face/edge/vertex neighbors, and a particle container
// with CIC scatter/gather coupling to the grid.
package picfield

// Interval is a half-open range [First, Last) on the integers. An
// Interval with Last <= First is empty; empty intervals propagate
// through Grow and Intersect without ever reporting a negative length.
type Interval struct {
	First, Last int
}

// NewInterval builds an Interval from bounds without validation; an
// inverted pair is a legitimate empty interval, not an error.
func NewInterval(first, last int) Interval {
	return Interval{First: first, Last: last}
}

// Length returns Last - First, clamped to 0 for an empty interval.
func (i Interval) Length() int {
	if i.Last <= i.First {
		return 0
	}
	return i.Last - i.First
}

// Empty reports whether the interval contains no integers.
func (i Interval) Empty() bool {
	return i.Last <= i.First
}

// Grow expands the interval by n on both ends. A negative n shrinks it
// and may produce an empty interval.
func (i Interval) Grow(n int) Interval {
	return Interval{First: i.First - n, Last: i.Last + n}
}

// Intersect returns the ordinary set intersection with other. The
// result is empty (not necessarily First==Last==0) when the two
// intervals are disjoint.
func (i Interval) Intersect(other Interval) Interval {
	first := i.First
	if other.First > first {
		first = other.First
	}
	last := i.Last
	if other.Last < last {
		last = other.Last
	}
	return Interval{First: first, Last: last}
}

// Contains reports whether point lies in [First, Last).
func (i Interval) Contains(point int) bool {
	return point >= i.First && point < i.Last
}

// Touches reports whether the two intervals share any integer.
func (i Interval) Touches(other Interval) bool {
	return !i.Intersect(other).Empty()
}

// Shift translates the interval by delta, used to convert between
// global and local-view coordinates via a per-axis offset.
func (i Interval) Shift(delta int) Interval {
	return Interval{First: i.First + delta, Last: i.Last + delta}
}
