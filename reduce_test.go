package picfield

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/utils"
)

// TestSumAttribAcrossCluster is testable property 7: a local reduce
// followed by a cluster-wide all-reduce. Rank 0 holds {1,2}, rank 1
// holds {3,4}; every rank must see the full sum 10.
func TestSumAttribAcrossCluster(t *testing.T) {
	cluster := comm.NewLocalCluster(2)
	values := [][]float64{{1, 2}, {3, 4}}
	results := make([]float64, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	for r := 0; r < 2; r++ {
		r := r
		go func() {
			defer wg.Done()
			c, err := comm.NewCommunicator(cluster[r], utils.Noop{})
			assert.NoError(t, err)
			a := NewParticleAttrib[float64]()
			a.Create(2)
			a.Set(0, values[r][0])
			a.Set(1, values[r][1])
			sum, err := SumAttrib(c, a)
			assert.NoError(t, err)
			results[r] = sum
		}()
	}
	wg.Wait()

	assert.Equal(t, []float64{10, 10}, results)
}

func TestMinMaxAttribAcrossCluster(t *testing.T) {
	cluster := comm.NewLocalCluster(2)
	values := [][]int64{{5, 9}, {1, 7}}
	mins := make([]int64, 2)
	maxs := make([]int64, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	for r := 0; r < 2; r++ {
		r := r
		go func() {
			defer wg.Done()
			c, err := comm.NewCommunicator(cluster[r], utils.Noop{})
			assert.NoError(t, err)
			a := NewParticleAttrib[int64]()
			a.Create(2)
			a.Set(0, values[r][0])
			a.Set(1, values[r][1])

			min, err := MinAttrib(c, a, int64(^uint64(0)>>1))
			assert.NoError(t, err)
			mins[r] = min

			max, err := MaxAttrib(c, a, -int64(^uint64(0)>>1)-1)
			assert.NoError(t, err)
			maxs[r] = max
		}()
	}
	wg.Wait()

	assert.Equal(t, []int64{1, 1}, mins)
	assert.Equal(t, []int64{9, 9}, maxs)
}
