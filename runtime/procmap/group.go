package procmap

import "fmt"

// World is the name of the group that spans every rank.
const World = "world"

// Group declares a named group of Size ranks.
type Group struct {
	Name   string `yaml:"name" json:"name"`
	Size   int    `yaml:"size" json:"size"`
	First  int    `yaml:"first,omitempty" json:"first,omitempty"`
	Pinned bool   `yaml:"pinned,omitempty" json:"pinned,omitempty"`
}

// At declares a group pinned at first, independent of the declaration order.
func At(name string, first, size int) Group {
	return Group{Name: name, First: first, Size: size, Pinned: true}
}

// Groups builds an unpinned layout from name/size pairs given in order.
func Groups(pairs ...interface{}) ([]Group, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("odd number of name/size arguments: %w", ErrConfiguration)
	}
	ret := make([]Group, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("group name %v is not a string: %w", pairs[i], ErrConfiguration)
		}
		size, ok := pairs[i+1].(int)
		if !ok {
			return nil, fmt.Errorf("group %q size %v is not an int: %w", name, pairs[i+1], ErrConfiguration)
		}
		ret = append(ret, Group{Name: name, Size: size})
	}
	return ret, nil
}

// span is a resolved group: ranks [first, first+size) of the parent.
type span struct {
	name  string
	first int
	size  int
}

func (s span) contains(rank int) bool {
	return rank >= s.first && rank < s.first+s.size
}

// layout resolves groups against a parent of size ranks.
func layout(groups []Group, size int) ([]span, error) {
	spans := make([]span, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	next := 0
	for _, g := range groups {
		switch {
		case g.Name == "":
			return nil, fmt.Errorf("empty group name: %w", ErrConfiguration)
		case g.Name == World:
			return nil, fmt.Errorf("group name %q is reserved: %w", World, ErrConfiguration)
		case seen[g.Name]:
			return nil, fmt.Errorf("duplicate group %q: %w", g.Name, ErrConfiguration)
		case g.Size < 0:
			return nil, fmt.Errorf("group %q has negative size %d: %w", g.Name, g.Size, ErrConfiguration)
		}
		seen[g.Name] = true
		if g.Pinned {
			if g.First < 0 || g.First+g.Size > size {
				return nil, fmt.Errorf("group %q at [%d,%d) is outside %d ranks: %w", g.Name, g.First, g.First+g.Size, size, ErrConfiguration)
			}
			spans = append(spans, span{name: g.Name, first: g.First, size: g.Size})
			continue
		}
		if next+g.Size > size {
			return nil, fmt.Errorf("requested %d ranks, have %d: %w", requested(groups), size, ErrConfiguration)
		}
		spans = append(spans, span{name: g.Name, first: next, size: g.Size})
		next += g.Size
	}
	return spans, nil
}

func requested(groups []Group) int {
	total := 0
	for _, g := range groups {
		if !g.Pinned {
			total += g.Size
		}
	}
	return total
}
