package comm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshkit/picfield/utils"
)

func TestAllReduceSum(t *testing.T) {
	const size = 4
	cluster := NewLocalCluster(size)

	results := make([]int64, size)
	var wg sync.WaitGroup
	wg.Add(size)
	for r := 0; r < size; r++ {
		r := r
		go func() {
			defer wg.Done()
			c, err := NewCommunicator(cluster[r], utils.Noop{})
			assert.NoError(t, err)
			got, err := AllReduce[int64](c, int64(r+1), SumOp[int64], 10)
			assert.NoError(t, err)
			results[r] = got
		}()
	}
	wg.Wait()
	for r := 0; r < size; r++ {
		assert.Equal(t, int64(1+2+3+4), results[r])
	}
}

func TestAllReduceMaxSingleRank(t *testing.T) {
	cluster := NewLocalCluster(1)
	c, err := NewCommunicator(cluster[0], utils.Noop{})
	assert.NoError(t, err)
	got, err := AllReduce[float64](c, 3.5, MaxOp[float64], 0)
	assert.NoError(t, err)
	assert.Equal(t, 3.5, got)
}
