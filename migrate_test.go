package picfield

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/utils"
)

// splitXHalves divides the mesh's global domain into two halves along
// x, one per rank.
func splitXHalves(global NDIndex) []NDIndex {
	mid := (global[0].First + global[0].Last) / 2
	lo := global
	lo[0] = NewInterval(global[0].First, mid)
	hi := global
	hi[0] = NewInterval(mid, global[0].Last)
	return []NDIndex{lo, hi}
}

// TestMigrateMovesCrossedParticle exercises §4.7's migration contract
// end to end: a particle created on rank 0 sits past its domain's x
// boundary, so Migrate relocates it — with its ID intact — to rank 1
// and removes it from rank 0.
func TestMigrateMovesCrossedParticle(t *testing.T) {
	mesh, err := NewMesh(Vec3{}, Vec3{X: 1, Y: 1, Z: 1}, [3]int{4, 4, 4})
	assert.NoError(t, err)
	domains := splitXHalves(mesh.GlobalDomain())

	cluster := comm.NewLocalCluster(2)
	finalN := make([]int, 2)
	finalR := make([]Vec3, 2)
	finalID := make([]int64, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	for r := 0; r < 2; r++ {
		r := r
		go func() {
			defer wg.Done()
			c, err := comm.NewCommunicator(cluster[r], utils.Noop{})
			assert.NoError(t, err)
			layout, err := NewFieldLayout(mesh.GlobalDomain(), domains, r, 0)
			assert.NoError(t, err)

			b := NewParticleBase(c)
			if r == 0 {
				assert.NoError(t, b.Create(1))
				b.R.Set(0, Vec3{X: 2.5, Y: 1, Z: 1}) // crosses into rank 1's half
			}

			assert.NoError(t, Migrate(c, b, layout, mesh, 5000))

			finalN[r] = b.LocalN()
			if b.LocalN() > 0 {
				finalR[r] = b.R.Get(0)
				finalID[r] = b.ID.Get(0)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, finalN[0])
	assert.Equal(t, 1, finalN[1])
	assert.Equal(t, Vec3{X: 2.5, Y: 1, Z: 1}, finalR[1])
	assert.Equal(t, int64(0), finalID[1])
}

// TestMigrateLeavesStationaryParticlesAlone confirms a particle that
// never left its owning rank's domain is untouched by Migrate.
func TestMigrateLeavesStationaryParticlesAlone(t *testing.T) {
	mesh, err := NewMesh(Vec3{}, Vec3{X: 1, Y: 1, Z: 1}, [3]int{4, 4, 4})
	assert.NoError(t, err)
	domains := splitXHalves(mesh.GlobalDomain())

	cluster := comm.NewLocalCluster(2)
	var wg sync.WaitGroup
	wg.Add(2)
	finalN := make([]int, 2)
	for r := 0; r < 2; r++ {
		r := r
		go func() {
			defer wg.Done()
			c, err := comm.NewCommunicator(cluster[r], utils.Noop{})
			assert.NoError(t, err)
			layout, err := NewFieldLayout(mesh.GlobalDomain(), domains, r, 0)
			assert.NoError(t, err)

			b := NewParticleBase(c)
			if r == 0 {
				assert.NoError(t, b.Create(1))
				b.R.Set(0, Vec3{X: 0.5, Y: 1, Z: 1}) // stays in rank 0's half
			}
			assert.NoError(t, Migrate(c, b, layout, mesh, 6000))
			finalN[r] = b.LocalN()
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{1, 0}, finalN)
}
