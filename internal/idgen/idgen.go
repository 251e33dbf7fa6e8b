package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier as string. It is a variable
// so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Prefixed returns a new identifier in the form prefix/uuid, the layout used
// for session and puppet instance identifiers.
func Prefixed(prefix string) string {
	if prefix == "" {
		return New()
	}
	return prefix + "/" + New()
}
