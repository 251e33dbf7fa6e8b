// Package namemap provides the typed key/value exchange shared by the
// puppets of one rank.
//
// A Map has no locks: puppets on a rank run one at a time and hand control
// over synchronously, which orders every publish before the reads of later
// steps. A Map must not be shared across ranks.
package namemap

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/insitu/service/messaging/memory"
)

// Map is the exchange.
type Map struct {
	values      map[string]Value
	queues      map[string]*memory.Queue[Value]
	queueConfig memory.Config
}

// Option configures a Map.
type Option func(m *Map)

// WithQueueBuffer sets the capacity of queues created afterwards.
func WithQueueBuffer(size int) Option {
	return func(m *Map) {
		m.queueConfig.QueueBuffer = size
	}
}

// New creates an empty map.
func New(opts ...Option) *Map {
	config := memory.DefaultConfig()
	config.RejectWhenFull = true
	config.DeadLetter = false
	ret := &Map{values: map[string]Value{}, queues: map[string]*memory.Queue[Value]{}, queueConfig: config}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Publish stores a copy of value under key, replacing any previous value.
func (m *Map) Publish(key string, value Value) error {
	if value.Kind == KindInvalid {
		return fmt.Errorf("publish %q: invalid value: %w", key, ErrTypeMismatch)
	}
	m.values[key] = value.Clone()
	return nil
}

// Read returns a copy of the value under key; kind must match the published
// kind.
func (m *Map) Read(key string, kind Kind) (Value, error) {
	value, err := m.lookup(key, kind)
	if err != nil {
		return Value{}, err
	}
	return value.Clone(), nil
}

// lookup returns the stored value itself, sharing its slices.
func (m *Map) lookup(key string, kind Kind) (Value, error) {
	value, ok := m.values[key]
	if !ok {
		return Value{}, fmt.Errorf("read %q: %w", key, ErrKeyNotFound)
	}
	if value.Kind != kind {
		return Value{}, fmt.Errorf("read %q as %v, published as %v: %w", key, kind, value.Kind, ErrTypeMismatch)
	}
	return value, nil
}

func (m *Map) PublishInt(key string, v int64) error { return m.Publish(key, Int(v)) }

func (m *Map) ReadInt(key string) (int64, error) {
	value, err := m.Read(key, KindInt)
	return value.Int, err
}

func (m *Map) PublishFloat(key string, v float64) error { return m.Publish(key, Float(v)) }

func (m *Map) ReadFloat(key string) (float64, error) {
	value, err := m.Read(key, KindFloat)
	return value.Float, err
}

func (m *Map) PublishFloats(key string, v []float64) error { return m.Publish(key, Floats(v)) }

// ReadFloats returns the published array without copying it. Callers must
// not modify it.
func (m *Map) ReadFloats(key string) ([]float64, error) {
	value, err := m.lookup(key, KindFloats)
	return value.Floats, err
}

func (m *Map) PublishBuffer(key, elemType string, data []byte) error {
	return m.Publish(key, Buffer(elemType, data))
}

// ReadBuffer returns the published buffer without copying it; elemType must
// match the declared element type. Callers must not modify it.
func (m *Map) ReadBuffer(key, elemType string) ([]byte, error) {
	value, err := m.lookup(key, KindBuffer)
	if err != nil {
		return nil, err
	}
	if value.Type != elemType {
		return nil, fmt.Errorf("read %q as %s buffer, published as %s: %w", key, elemType, value.Type, ErrTypeMismatch)
	}
	return value.Buffer, nil
}

// Exists reports whether key holds a value.
func (m *Map) Exists(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Delete removes key.
func (m *Map) Delete(key string) {
	delete(m.values, key)
}

// Keys returns the published keys, sorted.
func (m *Map) Keys() []string {
	ret := make([]string, 0, len(m.values))
	for k := range m.values {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Len returns the number of published keys.
func (m *Map) Len() int { return len(m.values) }

// Clear drops every value and queue.
func (m *Map) Clear() {
	m.values = map[string]Value{}
	m.queues = map[string]*memory.Queue[Value]{}
}

// CreateQueue creates the named FIFO queue; an existing queue is kept.
func (m *Map) CreateQueue(name string) {
	if _, ok := m.queues[name]; ok {
		return
	}
	m.queues[name] = memory.NewQueue[Value](m.queueConfig)
}

func (m *Map) queue(name string) (*memory.Queue[Value], error) {
	q, ok := m.queues[name]
	if !ok {
		return nil, fmt.Errorf("queue %q: %w", name, ErrKeyNotFound)
	}
	return q, nil
}

// Enqueue appends a copy of value to the named queue.
func (m *Map) Enqueue(ctx context.Context, name string, value Value) error {
	q, err := m.queue(name)
	if err != nil {
		return err
	}
	value = value.Clone()
	if err = q.Publish(ctx, &value); err != nil {
		return fmt.Errorf("enqueue %q: %w", name, err)
	}
	return nil
}

// Dequeue removes the head of the named queue without waiting.
func (m *Map) Dequeue(name string) (Value, error) {
	q, err := m.queue(name)
	if err != nil {
		return Value{}, err
	}
	msg, ok := q.Poll()
	if !ok {
		return Value{}, fmt.Errorf("dequeue %q: %w", name, ErrQueueEmpty)
	}
	if err = msg.Ack(); err != nil {
		return Value{}, err
	}
	return *msg.T(), nil
}

// QueueEmpty reports whether the named queue has no values; a missing queue
// is empty.
func (m *Map) QueueEmpty(name string) bool {
	q, ok := m.queues[name]
	return !ok || q.Size() == 0
}

// QueueLen returns the number of values in the named queue.
func (m *Map) QueueLen(name string) int {
	q, ok := m.queues[name]
	if !ok {
		return 0
	}
	return q.Size()
}
