package comm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshkit/picfield/utils"
)

func TestNextTagWrapsWithinFamily(t *testing.T) {
	c, err := NewCommunicator(NewLocalCluster(1)[0], utils.Noop{})
	assert.NoError(t, err)

	const base, cycle = 100, 3
	tags := []int{
		c.NextTag(base, cycle),
		c.NextTag(base, cycle),
		c.NextTag(base, cycle),
		c.NextTag(base, cycle),
	}
	assert.Equal(t, []int{100, 101, 102, 100}, tags)
}

func TestNextTagDistinctBasesIndependent(t *testing.T) {
	c, err := NewCommunicator(NewLocalCluster(1)[0], utils.Noop{})
	assert.NoError(t, err)

	assert.Equal(t, 0, c.NextTag(0, 10))
	assert.Equal(t, 200, c.NextTag(200, 10))
	assert.Equal(t, 1, c.NextTag(0, 10))
}

func TestGetBufferGrowsMonotonically(t *testing.T) {
	c, err := NewCommunicator(NewLocalCluster(1)[0], utils.Noop{})
	assert.NoError(t, err)

	buf, err := c.GetBuffer("face-send-0", 16)
	assert.NoError(t, err)
	assert.Equal(t, 16, buf.Len())
	c.ReleaseBuffer("face-send-0")

	buf2, err := c.GetBuffer("face-send-0", 8)
	assert.NoError(t, err)
	assert.Same(t, buf, buf2)
	assert.Equal(t, 16, buf2.Len()) // never shrinks
	c.ReleaseBuffer("face-send-0")

	buf3, err := c.GetBuffer("face-send-0", 64)
	assert.NoError(t, err)
	assert.Equal(t, 64, buf3.Len())
}

func TestGetBufferRejectsDoubleOutstanding(t *testing.T) {
	c, err := NewCommunicator(NewLocalCluster(1)[0], utils.Noop{})
	assert.NoError(t, err)

	_, err = c.GetBuffer("intent-a", 8)
	assert.NoError(t, err)

	_, err = c.GetBuffer("intent-a", 8)
	assert.Error(t, err)

	c.ReleaseBuffer("intent-a")
	_, err = c.GetBuffer("intent-a", 8)
	assert.NoError(t, err)
}

func TestCommunicatorSendRecvRoundTrip(t *testing.T) {
	cluster := NewLocalCluster(2)
	c0, err := NewCommunicator(cluster[0], utils.Noop{})
	assert.NoError(t, err)
	c1, err := NewCommunicator(cluster[1], utils.Noop{})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		buf, err := c0.GetBuffer("send", 4)
		assert.NoError(t, err)
		copy(buf.Bytes(), []byte("ping"))
		req, err := c0.ISend(1, 7, buf, 4)
		assert.NoError(t, err)
		assert.NoError(t, c0.WaitAll([]Request{req}))
		c0.ReleaseBuffer("send")
	}()

	var got string
	go func() {
		defer wg.Done()
		buf, err := c1.GetBuffer("recv", 4)
		assert.NoError(t, err)
		assert.NoError(t, c1.Recv(0, 7, buf, 4))
		got = string(buf.Bytes()[:4])
		c1.ReleaseBuffer("recv")
	}()

	wg.Wait()
	assert.Equal(t, "ping", got)
}

func TestAvgSendBytesTracksIssuedSends(t *testing.T) {
	cluster := NewLocalCluster(2)
	c0, err := NewCommunicator(cluster[0], utils.Noop{})
	assert.NoError(t, err)

	assert.Equal(t, float64(0), c0.AvgSendBytes())
	assert.Equal(t, 1, c0.SendCount()) // seeded with one sample at 0

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf, err := NewCommunicator(cluster[1], utils.Noop{})
		assert.NoError(t, err)
		rbuf, err := buf.GetBuffer("drain", 8)
		assert.NoError(t, err)
		assert.NoError(t, buf.Recv(0, 1, rbuf, 4))
		assert.NoError(t, buf.Recv(0, 2, rbuf, 8))
	}()

	sbuf, err := c0.GetBuffer("send-a", 4)
	assert.NoError(t, err)
	req, err := c0.ISend(1, 1, sbuf, 4)
	assert.NoError(t, err)
	assert.NoError(t, c0.WaitAll([]Request{req}))
	c0.ReleaseBuffer("send-a")

	sbuf2, err := c0.GetBuffer("send-b", 8)
	assert.NoError(t, err)
	req2, err := c0.ISend(1, 2, sbuf2, 8)
	assert.NoError(t, err)
	assert.NoError(t, c0.WaitAll([]Request{req2}))
	c0.ReleaseBuffer("send-b")

	wg.Wait()

	assert.Equal(t, 3, c0.SendCount())
	assert.InDelta(t, 4.0, c0.AvgSendBytes(), 0.001) // (0 + 4 + 8) / 3
}
