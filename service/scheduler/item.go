package scheduler

import (
	"sort"
	"time"

	"github.com/viant/insitu/runtime/namemap"
)

// Role asks for Count workers playing Name. A zero count takes a share of
// the workers left over by the fixed counts.
type Role struct {
	Name  string `msgpack:"n" yaml:"name"`
	Count int    `msgpack:"c" yaml:"count"`
}

// Roles converts a role to count map into roles ordered by name.
func Roles(counts map[string]int) []Role {
	ret := make([]Role, 0, len(counts))
	for name, count := range counts {
		ret = append(ret, Role{Name: name, Count: count})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// Item is a named function invocation to run on a group of workers.
type Item struct {
	ID       string          `msgpack:"id"`
	Name     string          `msgpack:"name,omitempty"`
	Function string          `msgpack:"fn"`
	Args     []namemap.Value `msgpack:"args,omitempty"`
	Roles    []Role          `msgpack:"roles"`
	// Size is the number of workers; zero means the sum of the role counts.
	Size int `msgpack:"size"`
	// Candidates restricts the workers the item may run on; empty means
	// every worker.
	Candidates []int `msgpack:"-"`
}

// Result is the outcome of an item.
type Result struct {
	ID       string
	Name     string
	Function string
	// Value is the first non-empty value returned by the item's workers, in
	// worker order; zero when none returned one.
	Value    namemap.Value
	Err      error
	Workers  []int
	Duration time.Duration
}

// TimeRecord is the duration of a finished item.
type TimeRecord struct {
	ID       string
	Name     string
	Workers  int
	Duration time.Duration
}
