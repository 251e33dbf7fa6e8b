package namemap

import "errors"

var (
	// ErrKeyNotFound is returned when reading a key, or using a queue, that
	// was never published or created.
	ErrKeyNotFound = errors.New("namemap: key not found")

	// ErrTypeMismatch is returned when the kind requested at read time
	// differs from the kind recorded at publish time.
	ErrTypeMismatch = errors.New("namemap: type mismatch")

	// ErrQueueEmpty is returned when dequeuing from an empty queue.
	ErrQueueEmpty = errors.New("namemap: queue empty")
)
