package procmap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseGroups parses "name=size" declarations for a parent of size ranks.
// Names given without a size, and names in all that were not assigned, split
// the leftover ranks evenly; the last of them absorbs the remainder.
func ParseGroups(specs []string, size int, all ...string) ([]Group, error) {
	var ret []Group
	total := 0
	assigned := map[string]bool{}
	unsized := map[string]bool{}
	for _, spec := range specs {
		name, value, ok := strings.Cut(strings.TrimSpace(spec), "=")
		if name == "" {
			return nil, fmt.Errorf("malformed group %q: %w", spec, ErrConfiguration)
		}
		if !ok {
			unsized[name] = true
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("malformed size in %q: %w", spec, ErrConfiguration)
		}
		if assigned[name] {
			return nil, fmt.Errorf("duplicate group %q: %w", name, ErrConfiguration)
		}
		assigned[name] = true
		ret = append(ret, Group{Name: name, Size: n})
		total += n
	}
	if total > size {
		return nil, fmt.Errorf("requested %d ranks, have %d: %w", total, size, ErrConfiguration)
	}
	for _, name := range all {
		if !assigned[name] {
			unsized[name] = true
		}
	}
	for name := range assigned {
		delete(unsized, name)
	}
	if len(unsized) == 0 {
		return ret, nil
	}
	names := make([]string, 0, len(unsized))
	for name := range unsized {
		names = append(names, name)
	}
	sort.Strings(names)
	leftover := size - total
	share := leftover / len(names)
	for i, name := range names {
		n := share
		if i == len(names)-1 {
			n = leftover - share*(len(names)-1)
		}
		ret = append(ret, Group{Name: name, Size: n})
	}
	return ret, nil
}
