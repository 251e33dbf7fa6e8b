package program

import (
	"fmt"
	"strings"

	"github.com/viant/insitu/runtime/namemap"
)

// variable is one Name Map entry moved by send and receive.
type variable struct {
	name string
	kind namemap.Kind
}

// parseVariables parses "name:type" arguments. A name may list several
// comma-separated variables of the same type, as in "x,y:array".
func parseVariables(args []string) ([]variable, error) {
	var ret []variable
	for _, arg := range args {
		index := strings.LastIndex(arg, ":")
		if index <= 0 || index == len(arg)-1 {
			return nil, fmt.Errorf("variable %q, expected name:type: %w", arg, ErrUsage)
		}
		kind, err := namemap.ParseKind(arg[index+1:])
		if err != nil {
			return nil, fmt.Errorf("variable %q: %v: %w", arg, err, ErrUsage)
		}
		for _, name := range strings.Split(arg[:index], ",") {
			if name == "" {
				return nil, fmt.Errorf("variable %q has an empty name: %w", arg, ErrUsage)
			}
			ret = append(ret, variable{name: name, kind: kind})
		}
	}
	return ret, nil
}

// partners returns the remote ranks rank exchanges data with. One group
// size must divide the other: the larger group maps several ranks onto
// one rank of the smaller group.
func partners(size, remoteSize, rank int) ([]int, error) {
	if size <= 0 || remoteSize <= 0 {
		return nil, fmt.Errorf("group sizes %d and %d: %w", size, remoteSize, ErrUsage)
	}
	if size >= remoteSize {
		if size%remoteSize != 0 {
			return nil, fmt.Errorf("group size %d is not divisible by remote size %d: %w", size, remoteSize, ErrUsage)
		}
		return []int{rank / (size / remoteSize)}, nil
	}
	if remoteSize%size != 0 {
		return nil, fmt.Errorf("remote size %d is not divisible by group size %d: %w", remoteSize, size, ErrUsage)
	}
	fraction := remoteSize / size
	ret := make([]int, fraction)
	for i := range ret {
		ret[i] = rank*fraction + i
	}
	return ret, nil
}

// split returns the part-th of parts slices of an array value; other
// kinds are returned whole. The last part absorbs the remainder.
func split(value namemap.Value, part, parts int) namemap.Value {
	if parts == 1 || value.Kind != namemap.KindFloats {
		return value
	}
	chunk := len(value.Floats) / parts
	from, to := part*chunk, (part+1)*chunk
	if part == parts-1 {
		to = len(value.Floats)
	}
	return namemap.Floats(value.Floats[from:to])
}

// merge appends the array parts received from several partners in partner
// order; other kinds keep the first partner's value.
func merge(parts []namemap.Value) namemap.Value {
	if len(parts) == 1 || parts[0].Kind != namemap.KindFloats {
		return parts[0]
	}
	var ret []float64
	for _, part := range parts {
		ret = append(ret, part.Floats...)
	}
	return namemap.Floats(ret)
}
