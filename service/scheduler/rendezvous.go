package scheduler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viant/insitu/runtime/namemap"
)

// rendezvous collects the completions of the workers of one item. The item
// is complete when every expected worker reported once.
type rendezvous struct {
	expected map[int]bool
	reported map[int]*completion
}

func newRendezvous(workers []int) *rendezvous {
	ret := &rendezvous{expected: map[int]bool{}, reported: map[int]*completion{}}
	for _, w := range workers {
		ret.expected[w] = true
	}
	return ret
}

// markDone registers c and reports whether all workers finished. Duplicate
// or unexpected reports are rejected.
func (r *rendezvous) markDone(c *completion) (bool, error) {
	if !r.expected[c.Worker] {
		return false, fmt.Errorf("item %v: worker %d is not assigned", c.ID, c.Worker)
	}
	if _, ok := r.reported[c.Worker]; ok {
		return false, fmt.Errorf("item %v: worker %d already reported", c.ID, c.Worker)
	}
	r.reported[c.Worker] = c
	return len(r.reported) == len(r.expected), nil
}

// outcome returns the first non-empty value in worker order and the joined
// worker failures.
func (r *rendezvous) outcome() (namemap.Value, error) {
	workers := make([]int, 0, len(r.reported))
	for w := range r.reported {
		workers = append(workers, w)
	}
	sort.Ints(workers)
	var value namemap.Value
	var errs []error
	for _, w := range workers {
		c := r.reported[w]
		switch c.Code {
		case "":
			if value.IsZero() && !c.Value.IsZero() {
				value = c.Value
			}
		case codeNotFound:
			errs = append(errs, fmt.Errorf("worker %d: %w: %s", w, ErrFunctionNotFound, c.Error))
		default:
			errs = append(errs, fmt.Errorf("worker %d: %w: %s", w, ErrTaskFailed, c.Error))
		}
	}
	return value, errors.Join(errs...)
}
