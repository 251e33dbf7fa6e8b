// Package memory implements comm.Communicator for ranks living in one OS
// process. A World owns one mailbox per rank; every endpoint and every
// sub-communicator derived from it routes through those mailboxes, tagged
// with the communicator's context so traffic never leaks across
// communicators.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/viant/insitu/comm"
)

const worldContext = "world"

// World is a set of in-process ranks.
type World struct {
	boxes     []*mailbox
	closed    chan struct{}
	closeOnce sync.Once
}

// NewWorld creates a world of size ranks.
func NewWorld(size int) (*World, error) {
	if size <= 0 {
		return nil, fmt.Errorf("world size must be > 0, got %d", size)
	}
	w := &World{boxes: make([]*mailbox, size), closed: make(chan struct{})}
	for i := range w.boxes {
		w.boxes[i] = newMailbox()
	}
	return w, nil
}

// Size returns the number of ranks.
func (w *World) Size() int { return len(w.boxes) }

// Comm returns the world endpoint of rank.
func (w *World) Comm(rank int) (comm.Communicator, error) {
	if rank < 0 || rank >= len(w.boxes) {
		return nil, fmt.Errorf("rank %d of %d: %w", rank, len(w.boxes), comm.ErrInvalidRank)
	}
	ranks := make([]int, len(w.boxes))
	for i := range ranks {
		ranks[i] = i
	}
	return newEndpoint(w, worldContext, ranks, rank), nil
}

// Comms returns the world endpoints of all ranks, indexed by rank.
func (w *World) Comms() []comm.Communicator {
	ret := make([]comm.Communicator, len(w.boxes))
	for i := range ret {
		ret[i], _ = w.Comm(i)
	}
	return ret
}

// Pending returns the number of undelivered messages addressed to rank.
func (w *World) Pending(rank int) int {
	if rank < 0 || rank >= len(w.boxes) {
		return 0
	}
	return w.boxes[rank].size()
}

// Close shuts down the world; every blocked receive returns comm.ErrClosed.
func (w *World) Close() error {
	w.closeOnce.Do(func() { close(w.closed) })
	return nil
}

// endpoint is one rank's view of a communicator.
type endpoint struct {
	world *World
	scope string
	ranks []int // world rank of every local rank
	rank  int
	done  chan struct{}
	once  sync.Once
}

func newEndpoint(w *World, scope string, ranks []int, rank int) *endpoint {
	return &endpoint{world: w, scope: scope, ranks: ranks, rank: rank, done: make(chan struct{})}
}

var _ comm.Communicator = (*endpoint)(nil)

func (e *endpoint) Rank() int { return e.rank }

func (e *endpoint) Size() int { return len(e.ranks) }

func (e *endpoint) check() error {
	select {
	case <-e.done:
		return comm.ErrClosed
	case <-e.world.closed:
		return comm.ErrClosed
	default:
		return nil
	}
}

func (e *endpoint) box() *mailbox { return e.world.boxes[e.ranks[e.rank]] }

func (e *endpoint) Send(ctx context.Context, dest, tag int, payload []byte) error {
	if err := e.check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if dest < 0 || dest >= len(e.ranks) {
		return fmt.Errorf("send to %d of %d: %w", dest, len(e.ranks), comm.ErrInvalidRank)
	}
	var data []byte
	if payload != nil {
		data = make([]byte, len(payload))
		copy(data, payload)
	}
	e.world.boxes[e.ranks[dest]].put(&envelope{scope: e.scope, source: e.rank, tag: tag, payload: data})
	return nil
}

func (e *endpoint) validSource(source int) error {
	if source != comm.AnySource && (source < 0 || source >= len(e.ranks)) {
		return fmt.Errorf("receive from %d of %d: %w", source, len(e.ranks), comm.ErrInvalidRank)
	}
	return nil
}

func (e *endpoint) Recv(ctx context.Context, source, tag int) (*comm.Message, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if err := e.validSource(source); err != nil {
		return nil, err
	}
	env, err := e.box().take(ctx, e.done, e.world.closed, e.scope, source, tag)
	if err != nil {
		return nil, err
	}
	return &comm.Message{Source: env.source, Tag: env.tag, Payload: env.payload}, nil
}

func (e *endpoint) TryRecv(source, tag int) (*comm.Message, bool, error) {
	if err := e.check(); err != nil {
		return nil, false, err
	}
	if err := e.validSource(source); err != nil {
		return nil, false, err
	}
	env := e.box().poll(e.scope, source, tag)
	if env == nil {
		return nil, false, nil
	}
	return &comm.Message{Source: env.source, Tag: env.tag, Payload: env.payload}, true, nil
}

func (e *endpoint) Probe(source, tag int) (comm.Status, bool, error) {
	if err := e.check(); err != nil {
		return comm.Status{}, false, err
	}
	if err := e.validSource(source); err != nil {
		return comm.Status{}, false, err
	}
	env := e.box().peek(e.scope, source, tag)
	if env == nil {
		return comm.Status{}, false, nil
	}
	return comm.Status{Source: env.source, Tag: env.tag, Size: len(env.payload)}, true, nil
}

func (e *endpoint) Sub(name string, ranks []int) (comm.Communicator, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("sub-communicator %q: no ranks", name)
	}
	seen := make(map[int]bool, len(ranks))
	worldRanks := make([]int, len(ranks))
	self := -1
	for i, r := range ranks {
		if r < 0 || r >= len(e.ranks) {
			return nil, fmt.Errorf("sub-communicator %q rank %d: %w", name, r, comm.ErrInvalidRank)
		}
		if seen[r] {
			return nil, fmt.Errorf("sub-communicator %q: duplicate rank %d", name, r)
		}
		seen[r] = true
		worldRanks[i] = e.ranks[r]
		if r == e.rank {
			self = i
		}
	}
	if self < 0 {
		return nil, fmt.Errorf("sub-communicator %q: rank %d: %w", name, e.rank, comm.ErrNotMember)
	}
	return newEndpoint(e.world, subContext(e.scope, name, ranks), worldRanks, self), nil
}

// subContext derives the same identifier on every member: it depends only on
// the parent context, the name and the rank list.
func subContext(parent, name string, ranks []int) string {
	b := strings.Builder{}
	b.WriteString(parent)
	b.WriteString("/")
	b.WriteString(name)
	b.WriteString("[")
	for i, r := range ranks {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.Itoa(r))
	}
	b.WriteString("]")
	return b.String()
}

func (e *endpoint) Close() error {
	e.once.Do(func() {
		close(e.done)
	})
	return nil
}
