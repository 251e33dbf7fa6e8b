package scheduler

import (
	"fmt"

	"github.com/viant/insitu/runtime/procmap"
)

// resolve turns roles into the process map layout of one item and returns
// the number of workers it needs.
func resolve(roles []Role, size int) ([]procmap.Group, int, error) {
	if len(roles) == 0 {
		return nil, 0, fmt.Errorf("no roles: %w", ErrUnsatisfiable)
	}
	if size < 0 {
		return nil, 0, fmt.Errorf("negative size %d: %w", size, ErrUnsatisfiable)
	}
	fixed, flexible := 0, 0
	seen := map[string]bool{}
	for _, role := range roles {
		if role.Name == "" || role.Name == procmap.World || seen[role.Name] {
			return nil, 0, fmt.Errorf("invalid role name %q: %w", role.Name, ErrUnsatisfiable)
		}
		seen[role.Name] = true
		if role.Count < 0 {
			return nil, 0, fmt.Errorf("role %q has negative count %d: %w", role.Name, role.Count, ErrUnsatisfiable)
		}
		if role.Count == 0 {
			flexible++
		}
		fixed += role.Count
	}
	if size == 0 {
		size = fixed
	}
	if fixed > size {
		return nil, 0, fmt.Errorf("roles need %d workers, item size is %d: %w", fixed, size, ErrUnsatisfiable)
	}
	if size == 0 {
		return nil, 0, fmt.Errorf("item needs no workers: %w", ErrUnsatisfiable)
	}
	leftover := size - fixed
	share := 0
	if flexible > 0 {
		share = leftover / flexible
	}
	groups := make([]procmap.Group, 0, len(roles))
	shared := 0
	for _, role := range roles {
		count := role.Count
		if count == 0 {
			shared++
			count = share
			if shared == flexible {
				count = leftover - share*(flexible-1)
			}
		}
		groups = append(groups, procmap.Group{Name: role.Name, Size: count})
	}
	return groups, size, nil
}
