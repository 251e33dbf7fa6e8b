package puppet

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mattn/go-shellwords"
	perrors "github.com/pkg/errors"
	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/internal/clock"
	"github.com/viant/insitu/metrics"
	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"github.com/viant/insitu/service/event"
	"github.com/viant/insitu/tracing"
	"go.uber.org/zap"
)

// handoff is what the program goroutine sends back when it gives up control.
type handoff struct {
	done bool
	err  error
	// panicked marks err as a recovered panic
	panicked bool
}

// Puppet is a cooperatively stepped program bound to a process map and a name
// map. Proceed, Close and TotalTime must be called from one goroutine at a
// time; SignalStop may be called from anywhere.
type Puppet struct {
	name      string
	path      string
	args      []string
	prefix    string
	program   Program
	registry  *Registry
	procMap   *procmap.Map
	nameMap   *namemap.Map
	world     comm.Communicator
	logger    *zap.Logger
	events    *event.Service
	metrics   *metrics.Collectors
	sessionID string

	status        atomic.Int32
	stopRequested atomic.Bool
	stopwatch     clock.Stopwatch
	steps         int
	err           error

	env    *Env
	resume chan context.Context
	yield  chan handoff
}

// New binds the program registered under path to pm and nm.
func New(path string, args []string, pm *procmap.Map, nm *namemap.Map, opts ...Option) (*Puppet, error) {
	ret := &Puppet{
		args:    append([]string{}, args...),
		procMap: pm,
		nameMap: nm,
		resume:  make(chan context.Context),
		yield:   make(chan handoff),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.registry == nil {
		ret.registry = defaultRegistry
	}
	if ret.prefix != "" && !filepath.IsAbs(path) {
		path = filepath.Join(ret.prefix, path)
	}
	ret.path = path
	program, name, ok := ret.registry.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%q: %w", path, ErrProgramNotFound)
	}
	ret.program = program
	if ret.name == "" {
		ret.name = name
	}
	if ret.world == nil && pm != nil {
		ret.world = pm.Local()
	}
	if ret.nameMap == nil {
		ret.nameMap = namemap.New()
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	fields := []zap.Field{zap.String("puppet", ret.name)}
	if pm != nil {
		fields = append(fields, zap.Int("rank", pm.WorldRank()), zap.String("group", pm.Group()))
	}
	ret.logger = ret.logger.With(fields...)
	ret.env = &Env{p: ret}
	return ret, nil
}

// Load splits a shell-style command line, whose first word is the program
// path, and binds the program.
func Load(commandLine string, pm *procmap.Map, nm *namemap.Map, opts ...Option) (*Puppet, error) {
	words, err := shellwords.Parse(commandLine)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", commandLine, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("empty command line: %w", ErrProgramNotFound)
	}
	return New(words[0], words[1:], pm, nm, opts...)
}

// Name returns the puppet name.
func (p *Puppet) Name() string { return p.name }

// Path returns the resolved program path.
func (p *Puppet) Path() string { return p.path }

// Status returns the lifecycle state.
func (p *Puppet) Status() Status { return Status(p.status.Load()) }

// Running reports whether the puppet has not stopped yet.
func (p *Puppet) Running() bool { return p.Status() != StatusStopped }

// SignalStop asks the program to stop at its next yield.
func (p *Puppet) SignalStop() { p.stopRequested.Store(true) }

// TotalTime returns the time spent inside the program.
func (p *Puppet) TotalTime() time.Duration { return p.stopwatch.Total() }

// Steps returns the number of Proceed calls that ran the program.
func (p *Puppet) Steps() int { return p.steps }

// Err returns the failure that stopped the puppet, if any.
func (p *Puppet) Err() error { return p.err }

// Proceed runs the program until its next yield or its end and reports
// whether it is still running. The first call starts the program. A failure
// of the program is returned once, as a *TaskError.
func (p *Puppet) Proceed(ctx context.Context) (bool, error) {
	status := p.Status()
	if status == StatusStopped {
		return false, fmt.Errorf("puppet %s: %w", p.name, ErrAlreadyStopped)
	}
	if err := ctx.Err(); err != nil {
		return true, err
	}
	rank, group := -1, procmap.World
	if p.procMap != nil {
		rank, group = p.procMap.WorldRank(), p.procMap.Group()
	}
	ctx, span := tracing.StartRankSpan(ctx, "puppet.proceed", rank, group)
	span.WithAttributes(map[string]string{"insitu.puppet": p.name}).WithInt("insitu.step", p.steps)

	p.stopwatch.Start()
	if status == StatusNotStarted {
		p.status.Store(int32(StatusRunning))
		p.env.ctx = ctx
		p.publish(ctx, event.TypePuppetStarted, nil)
		go p.run()
	} else {
		p.resume <- ctx
	}
	h := <-p.yield
	lap := p.stopwatch.Stop()
	p.steps++
	p.metrics.ObserveStep(p.name, lap)
	p.logger.Debug("puppet step", zap.Int("step", p.steps), zap.Duration("elapsed", lap), zap.Bool("done", h.done))

	if !h.done {
		tracing.EndSpan(span, nil)
		return true, nil
	}
	p.status.Store(int32(StatusStopped))
	if h.err != nil {
		taskErr := &TaskError{Puppet: p.name, Step: p.steps, Panic: h.panicked, Err: h.err}
		p.err = taskErr
		tracing.EndSpan(span, taskErr)
		p.logger.Error("puppet failed", zap.Error(taskErr), zap.Int("step", p.steps))
		p.publish(ctx, event.TypePuppetFailed, taskErr)
		return false, taskErr
	}
	tracing.EndSpan(span, nil)
	p.logger.Debug("puppet stopped", zap.Int("steps", p.steps), zap.Duration("total", p.TotalTime()))
	p.publish(ctx, event.TypePuppetStopped, nil)
	return false, nil
}

// run executes the program on its own goroutine. The deferred handoff also
// fires when the program is terminated at a yield through runtime.Goexit.
func (p *Puppet) run() {
	var h handoff
	returned := false
	defer func() {
		if !returned {
			if r := recover(); r != nil {
				h.err = perrors.Errorf("panic: %v", r)
				h.panicked = true
			}
		}
		h.done = true
		p.yield <- h
	}()
	h.err = p.program(p.env)
	returned = true
}

// Close stops the puppet, stepping it until it returns. A puppet that was
// never started is marked stopped without running. When ctx is done, or
// stepping fails while the program is still suspended, the program is
// terminated at its yield point instead, so its goroutine never outlives
// Close.
func (p *Puppet) Close(ctx context.Context) error {
	if p.status.CompareAndSwap(int32(StatusNotStarted), int32(StatusStopped)) {
		return nil
	}
	p.SignalStop()
	for p.Running() {
		if err := ctx.Err(); err != nil {
			p.release()
			return err
		}
		if _, err := p.Proceed(ctx); err != nil {
			p.release()
			return err
		}
	}
	return nil
}

// release terminates a program suspended at a yield without resuming it.
func (p *Puppet) release() {
	if p.Status() != StatusRunning {
		return
	}
	p.resume <- nil
	<-p.yield
	p.status.Store(int32(StatusStopped))
	p.logger.Debug("puppet released", zap.Int("steps", p.steps))
	p.publish(context.Background(), event.TypePuppetStopped, nil)
}

func (p *Puppet) publish(ctx context.Context, eventType string, err error) {
	if p.events == nil {
		return
	}
	ectx := &event.Context{
		SessionID:   p.sessionID,
		Subject:     p.name,
		EventType:   eventType,
		Rank:        -1,
		TimeTakenMs: int(p.TotalTime().Milliseconds()),
	}
	if p.procMap != nil {
		ectx.Rank, ectx.Group = p.procMap.WorldRank(), p.procMap.Group()
	}
	data := Transition{Puppet: p.name, Path: p.path, Status: p.Status().String(), Steps: p.steps}
	if err != nil {
		data.Error = err.Error()
	}
	if pErr := event.Emit(ctx, p.events, ectx, data); pErr != nil {
		p.logger.Debug("event dropped", zap.String("type", eventType), zap.Error(pErr))
	}
}
