package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/insitu/service/messaging"
)

type bundle struct {
	Step   int
	Values []float64
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[bundle](config)
	ctx := context.Background()

	payload := bundle{Step: 1, Values: []float64{1, 2}}
	require.NoError(t, queue.Publish(ctx, &payload))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, payload, *message.T())
	assert.NotEmpty(t, message.(*Message[bundle]).ID())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
	assert.Error(t, message.Nack(nil))
}

func TestQueue_Poll(t *testing.T) {
	queue := NewQueue[bundle](DefaultConfig())
	_, ok := queue.Poll()
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Publish(context.Background(), &bundle{Step: i}))
	}
	for i := 0; i < 3; i++ {
		message, ok := queue.Poll()
		require.True(t, ok)
		assert.Equal(t, i, message.T().Step)
	}
	_, ok = queue.Poll()
	assert.False(t, ok)
}

func TestQueue_RejectWhenFull(t *testing.T) {
	config := DefaultConfig()
	config.QueueBuffer = 2
	config.RejectWhenFull = true
	queue := NewQueue[bundle](config)
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &bundle{Step: 1}))
	require.NoError(t, queue.Publish(ctx, &bundle{Step: 2}))
	err := queue.Publish(ctx, &bundle{Step: 3})
	assert.True(t, errors.Is(err, messaging.ErrQueueFull))
	assert.Equal(t, 2, queue.Size())
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[bundle](config)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &bundle{Step: 7}))
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, message.T().Step)
		assert.Equal(t, attempt, message.(*Message[bundle]).Retries())
		require.NoError(t, message.Nack(fmt.Errorf("attempt %d", attempt)))
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueue_Concurrency(t *testing.T) {
	queue := NewQueue[bundle](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	const producers, perProducer = 8, 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	consumed := 0
	for i := 0; i < producers; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &bundle{Step: id*perProducer + j}))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				message, err := queue.Consume(ctx)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, message.Ack())
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, producers*perProducer, consumed)
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[bundle](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &bundle{}))

	timeout, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeout)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	require.NoError(t, queue.Publish(context.Background(), &bundle{Step: 1}))
	message, err := queue.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, message.T().Step)
}
