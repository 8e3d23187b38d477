// Package stencil is a small finite-difference time-domain solver
// built directly on picfield.Field, included only to illustrate the
// Expr[T] capability abstraction a real stencil code would drive
// (spec.md §9's Design Notes): a 1D Yee-style leapfrog update of a
// transverse electric field E and magnetic field H, staggered in time
// and advected along one axis.
package stencil

import (
	"github.com/meshkit/picfield"
)

// Axis selects which of the three global axes the leapfrog update
// advects along.
type Axis int

const (
	AxisX Axis = 0
	AxisY Axis = 1
	AxisZ Axis = 2
)

func localIndex(field *picfield.Field[float64], g [3]int) [3]int {
	local := field.Layout().LocalDomain()
	nghost := field.Nghost()
	return [3]int{
		g[0] - local[0].First + nghost,
		g[1] - local[1].First + nghost,
		g[2] - local[2].First + nghost,
	}
}

// hUpdate evaluates the leapfrog update for H at a single owned cell:
// H -= courant * (E[neighbor ahead] - E[here]), read from e's current
// (already halo-filled) state.
type hUpdate struct {
	h, e    *picfield.Field[float64]
	axis    Axis
	courant float64
}

func (u hUpdate) At(i, j, k int) float64 {
	here := localIndex(u.h, [3]int{i, j, k})
	ahead := here
	ahead[int(u.axis)]++

	hv := u.h.View().At(here[0], here[1], here[2])
	eHere := u.e.View().At(here[0], here[1], here[2])
	eAhead := u.e.View().At(ahead[0], ahead[1], ahead[2])
	return hv - u.courant*(eAhead-eHere)
}

// eUpdate is hUpdate's dual: E += courant * (H[here] - H[behind]),
// read from h's state as updated by the preceding StepH call.
type eUpdate struct {
	e, h    *picfield.Field[float64]
	axis    Axis
	courant float64
}

func (u eUpdate) At(i, j, k int) float64 {
	here := localIndex(u.e, [3]int{i, j, k})
	behind := here
	behind[int(u.axis)]--

	ev := u.e.View().At(here[0], here[1], here[2])
	hHere := u.h.View().At(here[0], here[1], here[2])
	hBehind := u.h.View().At(behind[0], behind[1], behind[2])
	return ev + u.courant*(hHere-hBehind)
}

// StepH advances h by one leapfrog half-step using e's current state.
// It fills e's halo first, since an owned cell's forward neighbor
// along axis may lie across a rank boundary.
func StepH(h, e *picfield.Field[float64], axis Axis, courant float64) error {
	if err := e.FillHalo(); err != nil {
		return err
	}
	h.Assign(hUpdate{h: h, e: e, axis: axis, courant: courant})
	return nil
}

// StepE advances e by one leapfrog half-step using h's current state,
// the other half of one full FDTD cycle.
func StepE(e, h *picfield.Field[float64], axis Axis, courant float64) error {
	if err := h.FillHalo(); err != nil {
		return err
	}
	e.Assign(eUpdate{e: e, h: h, axis: axis, courant: courant})
	return nil
}

// Step runs one full leapfrog cycle: H then E, each preceded by the
// halo fill its read side needs.
func Step(e, h *picfield.Field[float64], axis Axis, courant float64) error {
	if err := StepH(h, e, axis, courant); err != nil {
		return err
	}
	return StepE(e, h, axis, courant)
}
