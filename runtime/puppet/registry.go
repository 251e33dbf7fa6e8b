package puppet

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Program is the logic a puppet wraps. It returns when done; it should return
// as soon as env.Yield reports false.
type Program func(env *Env) error

// Registry maps program names to programs.
type Registry struct {
	programs map[string]Program
	mux      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{programs: map[string]Program{}}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used when none is configured.
func Default() *Registry { return defaultRegistry }

// Register adds or replaces a program.
func (r *Registry) Register(name string, program Program) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.programs[name] = program
}

// Lookup resolves path by exact name, then by its base name without
// extension, and returns the name it matched.
func (r *Registry) Lookup(path string) (Program, string, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	if program, ok := r.programs[path]; ok {
		return program, path, true
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if program, ok := r.programs[base]; ok {
		return program, base, true
	}
	return nil, "", false
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := make([]string, 0, len(r.programs))
	for name := range r.programs {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
