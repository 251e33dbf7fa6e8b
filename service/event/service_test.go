package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/insitu/service/messaging"
	"github.com/viant/insitu/service/messaging/memory"
)

type stepped struct {
	Puppet string
	Step   int
}

func TestService_Emit(t *testing.T) {
	srv, err := New(messaging.VendorMemory)
	require.NoError(t, err)
	defer srv.Close()

	var mu sync.Mutex
	var typed []*Event[stepped]
	var all []*Event[any]
	received := make(chan struct{}, 4)
	require.NoError(t, SetListenerOf[stepped](srv, func(e *Event[stepped]) {
		mu.Lock()
		typed = append(typed, e)
		mu.Unlock()
		received <- struct{}{}
	}))
	srv.SetListener(func(e *Event[any]) {
		mu.Lock()
		all = append(all, e)
		mu.Unlock()
		received <- struct{}{}
	})

	ectx := &Context{Subject: "simulation", EventType: TypePuppetStepped, Rank: 1}
	require.NoError(t, Emit(context.Background(), srv, ectx, stepped{Puppet: "simulation", Step: 3}))
	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, typed, 1)
	require.Len(t, all, 1)
	assert.Equal(t, 3, typed[0].Data.Step)
	assert.Equal(t, TypePuppetStepped, all[0].Context.EventType)
	assert.Equal(t, stepped{Puppet: "simulation", Step: 3}, all[0].Data)
}

func TestService_DropsWhenFull(t *testing.T) {
	srv, err := New(messaging.VendorMemory, WithNewMemoryQueueConfig(func(string) memory.Config {
		config := memory.DefaultConfig()
		config.QueueBuffer = 1
		config.RejectWhenFull = true
		return config
	}))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, Emit(ctx, srv, &Context{}, stepped{Step: 1}))
	err = Emit(ctx, srv, &Context{}, stepped{Step: 2})
	assert.True(t, errors.Is(err, messaging.ErrQueueFull))
}

func TestService_Vendor(t *testing.T) {
	_, err := New("kafka")
	assert.Error(t, err)
	var srv *Service
	assert.NoError(t, Emit(context.Background(), srv, &Context{}, 1))
}

func TestService_EmitInterface(t *testing.T) {
	srv, err := New(messaging.VendorMemory)
	require.NoError(t, err)
	var data interface{} = 4
	require.NoError(t, Emit(context.Background(), srv, &Context{EventType: TypeSessionStarted}, data))
	publisher, err := PublisherOf[interface{}](srv)
	require.NoError(t, err)
	event, err := publisher.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, event.Data)
}
