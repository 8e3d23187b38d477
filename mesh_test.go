package picfield

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshkit/picfield/picerrors"
)

func TestNewMeshRejectsBadSpacing(t *testing.T) {
	_, err := NewMesh(Vec3{}, Vec3{X: 0, Y: 1, Z: 1}, [3]int{8, 8, 8})
	assert.ErrorIs(t, err, picerrors.ErrConfiguration)
}

func TestNewMeshRejectsEmptyCells(t *testing.T) {
	_, err := NewMesh(Vec3{}, Vec3{X: 1, Y: 1, Z: 1}, [3]int{0, 8, 8})
	assert.ErrorIs(t, err, picerrors.ErrConfiguration)
}

func TestMeshCellCenter(t *testing.T) {
	m, err := NewMesh(Vec3{X: 0, Y: 0, Z: 0}, Vec3{X: 2, Y: 2, Z: 2}, [3]int{4, 4, 4})
	assert.NoError(t, err)
	c := m.CellCenter(0, 0, 0)
	assert.Equal(t, Vec3{X: 1, Y: 1, Z: 1}, c)
}

func TestMeshWorldToCell(t *testing.T) {
	m, err := NewMesh(Vec3{X: 1, Y: 0, Z: 0}, Vec3{X: 2, Y: 1, Z: 1}, [3]int{4, 4, 4})
	assert.NoError(t, err)
	p := m.WorldToCell(Vec3{X: 5, Y: 3, Z: 2})
	assert.Equal(t, Vec3{X: 2, Y: 3, Z: 2}, p)
}

func TestMeshGlobalDomain(t *testing.T) {
	m, err := NewMesh(Vec3{}, Vec3{X: 1, Y: 1, Z: 1}, [3]int{4, 8, 2})
	assert.NoError(t, err)
	d := m.GlobalDomain()
	assert.Equal(t, [3]int{4, 8, 2}, d.Extents())
}
