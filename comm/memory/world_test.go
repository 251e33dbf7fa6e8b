package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/insitu/comm"
)

func TestWorld_SendRecv(t *testing.T) {
	world, err := NewWorld(3)
	require.NoError(t, err)
	defer world.Close()
	ctx := context.Background()
	comms := world.Comms()

	require.NoError(t, comms[0].Send(ctx, 2, 7, []byte("a")))
	require.NoError(t, comms[1].Send(ctx, 2, 8, []byte("b")))
	require.NoError(t, comms[0].Send(ctx, 2, 7, []byte("c")))
	assert.Equal(t, 3, world.Pending(2))

	// selective receive by source and tag
	msg, err := comms[2].Recv(ctx, 1, comm.AnyTag)
	require.NoError(t, err)
	assert.Equal(t, "b", string(msg.Payload))

	// non-overtaking per sender
	msg, err = comms[2].Recv(ctx, comm.AnySource, 7)
	require.NoError(t, err)
	assert.Equal(t, "a", string(msg.Payload))
	assert.Equal(t, 0, msg.Source)

	status, ok, err := comms[2].Probe(comm.AnySource, comm.AnyTag)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, comm.Status{Source: 0, Tag: 7, Size: 1}, status)

	msg, ok, err = comms[2].TryRecv(0, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c", string(msg.Payload))

	_, ok, err = comms[2].TryRecv(comm.AnySource, comm.AnyTag)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestWorld_Errors(t *testing.T) {
	_, err := NewWorld(0)
	assert.Error(t, err)

	world, err := NewWorld(2)
	require.NoError(t, err)
	ctx := context.Background()
	c, err := world.Comm(0)
	require.NoError(t, err)

	_, err = world.Comm(5)
	assert.True(t, errors.Is(err, comm.ErrInvalidRank))
	assert.True(t, errors.Is(c.Send(ctx, 2, 0, nil), comm.ErrInvalidRank))
	_, err = c.Recv(ctx, 9, 0)
	assert.True(t, errors.Is(err, comm.ErrInvalidRank))

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.Recv(timeout, comm.AnySource, comm.AnyTag)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	errs := make(chan error, 1)
	go func() {
		_, err := c.Recv(ctx, comm.AnySource, comm.AnyTag)
		errs <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, world.Close())
	assert.True(t, errors.Is(<-errs, comm.ErrClosed))
	assert.True(t, errors.Is(c.Send(ctx, 1, 0, nil), comm.ErrClosed))
}

func TestWorld_AnyTagSkipsReserved(t *testing.T) {
	world, err := NewWorld(2)
	require.NoError(t, err)
	defer world.Close()
	ctx := context.Background()
	comms := world.Comms()

	require.NoError(t, comms[0].Send(ctx, 1, -5, []byte("reserved")))
	_, ok, err := comms[1].TryRecv(comm.AnySource, comm.AnyTag)
	require.NoError(t, err)
	assert.False(t, ok)
	msg, ok, err := comms[1].TryRecv(0, -5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "reserved", string(msg.Payload))
}

func TestWorld_Sub(t *testing.T) {
	world, err := NewWorld(4)
	require.NoError(t, err)
	defer world.Close()
	ctx := context.Background()
	comms := world.Comms()

	_, err = comms[0].Sub("pair", []int{2, 3})
	assert.True(t, errors.Is(err, comm.ErrNotMember))
	_, err = comms[2].Sub("pair", []int{2, 2})
	assert.Error(t, err)

	a, err := comms[2].Sub("pair", []int{2, 3})
	require.NoError(t, err)
	b, err := comms[3].Sub("pair", []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Rank())
	assert.Equal(t, 1, b.Rank())
	assert.Equal(t, 2, b.Size())

	// traffic in the sub context is invisible to the world context
	require.NoError(t, a.Send(ctx, 1, 0, []byte("sub")))
	_, ok, err := comms[3].TryRecv(comm.AnySource, comm.AnyTag)
	require.NoError(t, err)
	assert.False(t, ok)
	msg, err := b.Recv(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "sub", string(msg.Payload))

	// same name over different ranks is a different context
	c, err := comms[3].Sub("pair", []int{3, 1})
	require.NoError(t, err)
	require.NoError(t, a.Send(ctx, 1, 0, []byte("x")))
	_, ok, err = c.TryRecv(comm.AnySource, comm.AnyTag)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Close())
	_, err = b.Recv(ctx, 0, 0)
	assert.True(t, errors.Is(err, comm.ErrClosed))
}

func TestCollectives(t *testing.T) {
	const size = 4
	world, err := NewWorld(size)
	require.NoError(t, err)
	defer world.Close()
	ctx := context.Background()

	sums := make([]float64, size)
	payloads := make([][]byte, size)
	errs := make([]error, size)
	var wg sync.WaitGroup
	for rank, c := range world.Comms() {
		wg.Add(1)
		go func(rank int, c comm.Communicator) {
			defer wg.Done()
			if errs[rank] = comm.Barrier(ctx, c); errs[rank] != nil {
				return
			}
			var payload []byte
			if rank == 1 {
				payload = []byte("root")
			}
			if payloads[rank], errs[rank] = comm.Broadcast(ctx, c, 1, payload); errs[rank] != nil {
				return
			}
			sums[rank], errs[rank] = comm.AllreduceFloat64(ctx, c, float64(rank+1))
		}(rank, c)
	}
	wg.Wait()
	for rank := 0; rank < size; rank++ {
		require.NoError(t, errs[rank])
		assert.Equal(t, "root", string(payloads[rank]))
		assert.Equal(t, 10.0, sums[rank])
	}
}
