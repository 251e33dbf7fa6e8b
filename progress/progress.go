package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/insitu/internal/clock"
)

// Delta is an incremental counter change; fields may be negative.
type Delta struct {
	Total     int
	Queued    int
	Running   int
	Completed int
	Failed    int
}

// Progress keeps aggregated item counters. It is safe for concurrent use.
type Progress struct {
	SessionID string
	StartedAt time.Time

	Total     int
	Queued    int
	Running   int
	Completed int
	Failed    int

	sync.Mutex
	onChange func(Progress)
}

// New returns a tracker for sessionID.
func New(sessionID string, onChange func(Progress)) *Progress {
	return &Progress{SessionID: sessionID, StartedAt: clock.Now(), onChange: onChange}
}

// Update applies d. The onChange callback, if any, receives a copy outside
// the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.Total += d.Total
	p.Queued += d.Queued
	p.Running += d.Running
	p.Completed += d.Completed
	p.Failed += d.Failed
	snapshot := p.copyLocked()
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

func (p *Progress) copyLocked() Progress {
	return Progress{
		SessionID: p.SessionID,
		StartedAt: p.StartedAt,
		Total:     p.Total,
		Queued:    p.Queued,
		Running:   p.Running,
		Completed: p.Completed,
		Failed:    p.Failed,
	}
}

// Snapshot returns a copy for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copyLocked()
}

// Done reports whether every item ever scheduled has finished.
func (p *Progress) Done() bool {
	s := p.Snapshot()
	return s.Completed+s.Failed == s.Total
}

// OnChange registers the callback invoked after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, sessionID string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := New(sessionID, onChange)
	return context.WithValue(ctx, trackerKey, tr), tr
}

// WithTracker embeds an existing tracker in a derived context.
func WithTracker(ctx context.Context, tr *Progress) context.Context {
	return context.WithValue(ctx, trackerKey, tr)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
