package puppet

import (
	"context"
	"runtime"

	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"go.uber.org/zap"
)

// Env is the view a program has of the runtime. It is only valid on the
// program's own goroutine.
type Env struct {
	p   *Puppet
	ctx context.Context
	// stopDelivered is set once Yield reported a stop.
	stopDelivered bool
}

// Args returns the program arguments, without the program path.
func (e *Env) Args() []string { return e.p.args }

// Name returns the puppet name.
func (e *Env) Name() string { return e.p.name }

// ProcMap returns the bound process map.
func (e *Env) ProcMap() *procmap.Map { return e.p.procMap }

// NameMap returns the shared name map.
func (e *Env) NameMap() *namemap.Map { return e.p.nameMap }

// World returns the communicator the program treats as its world.
func (e *Env) World() comm.Communicator { return e.p.world }

// Context returns the context of the Proceed call currently running the
// program.
func (e *Env) Context() context.Context { return e.ctx }

// Logger returns a logger tagged with the puppet identity.
func (e *Env) Logger() *zap.Logger { return e.p.logger }

// Active reports whether the program runs under the runtime.
func (e *Env) Active() bool { return true }

// Step returns the number of completed steps.
func (e *Env) Step() int { return e.p.steps }

// StopRequested reports whether a stop was signalled.
func (e *Env) StopRequested() bool { return e.p.stopRequested.Load() }

// Yield suspends the program until the next Proceed. It returns false when a
// stop is pending; the program should then return. Yielding again after that
// terminates the program at the yield.
func (e *Env) Yield() bool {
	if e.stopDelivered {
		runtime.Goexit()
	}
	if !e.StopRequested() {
		e.p.yield <- handoff{}
		ctx := <-e.p.resume
		if ctx == nil {
			// released by Close without resuming
			runtime.Goexit()
		}
		e.ctx = ctx
	}
	if e.StopRequested() {
		e.stopDelivered = true
		return false
	}
	return true
}
