package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"go.uber.org/zap"
)

// Job is what a Function receives on each worker of an item.
type Job struct {
	Item Item
	// Comm spans the item's workers only.
	Comm comm.Communicator
	// ProcMap partitions Comm into the item's roles.
	ProcMap *procmap.Map
	// NameMap is private to this worker and this item.
	NameMap *namemap.Map
	Logger  *zap.Logger
}

// Role returns the role this worker plays.
func (j *Job) Role() string { return j.ProcMap.Group() }

// Function runs one item on one worker. Every worker of the item calls it;
// the item's value is the first non-empty value in worker order.
type Function func(ctx context.Context, job *Job) (namemap.Value, error)

// Functions maps names to functions.
type Functions struct {
	functions map[string]Function
	mux       sync.RWMutex
}

// NewFunctions creates an empty registry.
func NewFunctions() *Functions {
	return &Functions{functions: map[string]Function{}}
}

// Register adds or replaces a function.
func (f *Functions) Register(name string, fn Function) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.functions[name] = fn
}

// Lookup returns the named function.
func (f *Functions) Lookup(name string) (Function, bool) {
	if f == nil {
		return nil, false
	}
	f.mux.RLock()
	defer f.mux.RUnlock()
	fn, ok := f.functions[name]
	return fn, ok
}

// Names returns the registered names, sorted.
func (f *Functions) Names() []string {
	f.mux.RLock()
	defer f.mux.RUnlock()
	ret := make([]string, 0, len(f.functions))
	for name := range f.functions {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
