package picfield

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/utils"
)

func TestParticleBaseCreateStridedIDs(t *testing.T) {
	cluster := comm.NewLocalCluster(1)
	c, err := comm.NewCommunicator(cluster[0], utils.Noop{})
	assert.NoError(t, err)

	b := NewParticleBase(c)
	assert.NoError(t, b.Create(3))
	assert.Equal(t, 3, b.LocalN())
	assert.Equal(t, []int64{0, 1, 2}, b.ID.Slice())

	assert.NoError(t, b.Create(2))
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, b.ID.Slice())
}

func TestParticleBaseCreateWithID(t *testing.T) {
	cluster := comm.NewLocalCluster(1)
	c, err := comm.NewCommunicator(cluster[0], utils.Noop{})
	assert.NoError(t, err)

	b := NewParticleBase(c)
	assert.NoError(t, b.Create(2))
	assert.NoError(t, b.CreateWithID(999))
	assert.Equal(t, int64(999), b.ID.Get(2))
	// the strided scheme resumes unaffected afterward.
	assert.NoError(t, b.Create(1))
	assert.Equal(t, int64(2), b.ID.Get(3))
}

// TestParticleBaseGlobalCreateS5 is the S5 scenario: a cluster of 3
// ranks, global_create(10) -> rank 0 has 4, ranks 1 and 2 have 3 each;
// IDs on rank r are {r, r+3, r+6, ...} up to its local count.
func TestParticleBaseGlobalCreateS5(t *testing.T) {
	cluster := comm.NewLocalCluster(3)
	counts := make([]int, 3)
	ids := make([][]int64, 3)

	var wg sync.WaitGroup
	wg.Add(3)
	for r := 0; r < 3; r++ {
		r := r
		go func() {
			defer wg.Done()
			c, err := comm.NewCommunicator(cluster[r], utils.Noop{})
			assert.NoError(t, err)
			b := NewParticleBase(c)
			assert.NoError(t, b.GlobalCreate(10))
			counts[r] = b.LocalN()
			ids[r] = append([]int64(nil), b.ID.Slice()...)
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{4, 3, 3}, counts)
	assert.Equal(t, []int64{0, 3, 6, 9}, ids[0])
	assert.Equal(t, []int64{1, 4, 7}, ids[1])
	assert.Equal(t, []int64{2, 5, 8}, ids[2])
}

func TestParticleBaseIDUniquenessAcrossCluster(t *testing.T) {
	cluster := comm.NewLocalCluster(3)
	seen := make(map[int64]bool)
	var mu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(3)
	for r := 0; r < 3; r++ {
		r := r
		go func() {
			defer wg.Done()
			c, err := comm.NewCommunicator(cluster[r], utils.Noop{})
			assert.NoError(t, err)
			b := NewParticleBase(c)
			assert.NoError(t, b.Create(5))
			mu.Lock()
			for _, id := range b.ID.Slice() {
				assert.False(t, seen[id], "duplicate id %d", id)
				seen[id] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 15)
}
