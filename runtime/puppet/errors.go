package puppet

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStopped is returned when advancing a stopped puppet.
	ErrAlreadyStopped = errors.New("puppet: already stopped")

	// ErrUnrecoverable matches every *TaskError.
	ErrUnrecoverable = errors.New("puppet: unrecoverable task error")

	// ErrProgramNotFound is returned when a path resolves to no registered
	// program.
	ErrProgramNotFound = errors.New("puppet: program not found")
)

// TaskError is the failure of a wrapped program: a returned error or a
// recovered panic.
type TaskError struct {
	Puppet string
	Step   int
	Panic  bool
	Err    error
}

func (e *TaskError) Error() string {
	if e.Panic {
		return fmt.Sprintf("puppet %s panicked at step %d: %v", e.Puppet, e.Step, e.Err)
	}
	return fmt.Sprintf("puppet %s failed at step %d: %v", e.Puppet, e.Step, e.Err)
}

func (e *TaskError) Unwrap() []error { return []error{ErrUnrecoverable, e.Err} }

// Stack returns the error with its stack trace when one was captured.
func (e *TaskError) Stack() string { return fmt.Sprintf("%+v", e.Err) }
