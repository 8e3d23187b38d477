package picfield

import (
	"math"

	"github.com/meshkit/picfield/picerrors"
)

// Vec3 is a plain 3-component vector used for mesh coordinates and
// particle positions.
type Vec3 struct {
	X, Y, Z float64
}

// Mesh is a uniform Cartesian mesh: an origin, a per-axis spacing, and
// a cell count. It is immutable after construction and safe to share
// across fields and ranks.
type Mesh struct {
	origin  Vec3
	spacing Vec3
	cells   [3]int
}

// NewMesh validates spacing and cell counts and returns a Mesh, or
// picerrors.ErrConfiguration if spacing is non-positive or the cell
// count on any axis is non-positive.
func NewMesh(origin, spacing Vec3, cells [3]int) (*Mesh, error) {
	if spacing.X <= 0 || spacing.Y <= 0 || spacing.Z <= 0 {
		return nil, picerrors.ErrConfiguration
	}
	if cells[0] <= 0 || cells[1] <= 0 || cells[2] <= 0 {
		return nil, picerrors.ErrConfiguration
	}
	return &Mesh{origin: origin, spacing: spacing, cells: cells}, nil
}

func (m *Mesh) Origin() Vec3    { return m.origin }
func (m *Mesh) Spacing() Vec3   { return m.spacing }
func (m *Mesh) Cells() [3]int   { return m.cells }

// CellCenter returns the world-space coordinate of the center of cell
// (i,j,k): origin + spacing * (index + 0.5).
func (m *Mesh) CellCenter(i, j, k int) Vec3 {
	return Vec3{
		X: m.origin.X + m.spacing.X*(float64(i)+0.5),
		Y: m.origin.Y + m.spacing.Y*(float64(j)+0.5),
		Z: m.origin.Z + m.spacing.Z*(float64(k)+0.5),
	}
}

// WorldToCell returns the fractional grid index of a world-space
// point: (x - origin) / spacing.
func (m *Mesh) WorldToCell(p Vec3) Vec3 {
	return Vec3{
		X: (p.X - m.origin.X) / m.spacing.X,
		Y: (p.Y - m.origin.Y) / m.spacing.Y,
		Z: (p.Z - m.origin.Z) / m.spacing.Z,
	}
}

// CellIndex returns the integer cell index containing world-space
// point p: floor((p - origin) / spacing) per axis.
func (m *Mesh) CellIndex(p Vec3) [3]int {
	f := m.WorldToCell(p)
	return [3]int{int(math.Floor(f.X)), int(math.Floor(f.Y)), int(math.Floor(f.Z))}
}

// GlobalDomain returns the NDIndex spanning [0, cells) on every axis.
func (m *Mesh) GlobalDomain() NDIndex {
	return NDIndex{
		NewInterval(0, m.cells[0]),
		NewInterval(0, m.cells[1]),
		NewInterval(0, m.cells[2]),
	}
}
