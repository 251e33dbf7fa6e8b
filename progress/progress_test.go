package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	var last Progress
	ctx, tr := WithNewTracker(context.Background(), "session", func(p Progress) { last = p })

	UpdateCtx(ctx, Delta{Total: 2, Queued: 2})
	UpdateCtx(ctx, Delta{Queued: -1, Running: 1})
	assert.False(t, tr.Done())
	UpdateCtx(ctx, Delta{Running: -1, Completed: 1})
	UpdateCtx(ctx, Delta{Queued: -1, Failed: 1})

	snapshot := tr.Snapshot()
	assert.Equal(t, 2, snapshot.Total)
	assert.Equal(t, 0, snapshot.Queued)
	assert.Equal(t, 0, snapshot.Running)
	assert.Equal(t, 1, snapshot.Completed)
	assert.Equal(t, 1, snapshot.Failed)
	assert.Equal(t, "session", snapshot.SessionID)
	assert.Equal(t, snapshot.Failed, last.Failed)
	assert.True(t, tr.Done())
}

func TestProgress_Concurrent(t *testing.T) {
	tr := New("s", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Update(Delta{Total: 1, Completed: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tr.Snapshot().Completed)
}

func TestProgress_Nil(t *testing.T) {
	var tr *Progress
	tr.Update(Delta{Total: 1})
	tr.OnChange(nil)
	assert.Equal(t, Progress{}, tr.Snapshot())
	UpdateCtx(context.Background(), Delta{Total: 1})
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
