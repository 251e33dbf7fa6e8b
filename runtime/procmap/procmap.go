package procmap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/viant/insitu/comm"
)

// Map is one rank's view of a partition of a parent communicator.
type Map struct {
	parent comm.Communicator
	spans  []span
	index  map[string]int
	own    int // index of the group the rank operates as, -1 for world
	local  comm.Communicator

	mu         sync.Mutex
	intercomms map[string]*Intercomm
	closed     bool
}

// New partitions parent into groups. Every rank of parent must call New with
// the same groups.
func New(parent comm.Communicator, groups []Group) (*Map, error) {
	if parent == nil {
		return nil, fmt.Errorf("nil parent communicator: %w", ErrConfiguration)
	}
	spans, err := layout(groups, parent.Size())
	if err != nil {
		return nil, err
	}
	m := &Map{
		parent:     parent,
		spans:      spans,
		index:      make(map[string]int, len(spans)),
		own:        -1,
		intercomms: map[string]*Intercomm{},
	}
	rank := parent.Rank()
	for i, s := range spans {
		m.index[s.name] = i
		if m.own < 0 && s.contains(rank) {
			m.own = i
		}
	}
	m.local = parent
	if m.own >= 0 {
		s := spans[m.own]
		if m.local, err = parent.Sub("procmap."+s.name, s.ranks()); err != nil {
			return nil, fmt.Errorf("failed to derive group %q: %w", s.name, err)
		}
	}
	return m, nil
}

func (s span) ranks() []int {
	ret := make([]int, s.size)
	for i := range ret {
		ret[i] = s.first + i
	}
	return ret
}

func (m *Map) lookup(name string) (span, bool) {
	if name == World {
		return span{name: World, size: m.parent.Size()}, true
	}
	i, ok := m.index[name]
	if !ok {
		return span{}, false
	}
	return m.spans[i], true
}

// Group returns the group the rank operates as: the first declared group
// containing it, or "world".
func (m *Map) Group() string {
	if m.own < 0 {
		return World
	}
	return m.spans[m.own].name
}

// Groups returns every group containing the rank in declaration order,
// followed by "world".
func (m *Map) Groups() []string {
	var ret []string
	rank := m.parent.Rank()
	for _, s := range m.spans {
		if s.contains(rank) {
			ret = append(ret, s.name)
		}
	}
	return append(ret, World)
}

// Names returns the declared group names in declaration order.
func (m *Map) Names() []string {
	ret := make([]string, len(m.spans))
	for i, s := range m.spans {
		ret[i] = s.name
	}
	return ret
}

// Size returns the number of ranks in the named group, 0 if unknown.
func (m *Map) Size(name string) int {
	s, _ := m.lookup(name)
	return s.size
}

// LocalRank returns the rank's position within Group().
func (m *Map) LocalRank() int {
	return m.local.Rank()
}

// LocalRankIn returns the rank's position within the named group.
func (m *Map) LocalRankIn(name string) (int, bool) {
	s, ok := m.lookup(name)
	if !ok || !s.contains(m.parent.Rank()) {
		return -1, false
	}
	return m.parent.Rank() - s.first, true
}

// WorldRank returns the rank in the parent communicator.
func (m *Map) WorldRank() int { return m.parent.Rank() }

// Contains reports whether the parent rank is a member of the named group.
func (m *Map) Contains(name string, rank int) bool {
	s, ok := m.lookup(name)
	return ok && s.contains(rank)
}

// Leader returns the parent rank of the first member of the named group, -1
// if unknown.
func (m *Map) Leader(name string) int {
	s, ok := m.lookup(name)
	if !ok {
		return -1
	}
	return s.first
}

// IsLeader reports whether rank leads any declared group.
func (m *Map) IsLeader(rank int) bool {
	for _, s := range m.spans {
		if s.size > 0 && s.first == rank {
			return true
		}
	}
	return false
}

// World returns the parent communicator.
func (m *Map) World() comm.Communicator { return m.parent }

// Local returns the communicator of Group(); the parent for world-only ranks.
func (m *Map) Local() comm.Communicator { return m.local }

// Intercomm returns the communicator joining the rank's group with the named
// group. Repeated calls return the same communicator.
func (m *Map) Intercomm(to string) (*Intercomm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, comm.ErrClosed
	}
	if ret, ok := m.intercomms[to]; ok {
		return ret, nil
	}
	if m.own < 0 {
		return nil, fmt.Errorf("rank %d has no group to connect to %q: %w", m.parent.Rank(), to, ErrConfiguration)
	}
	own := m.spans[m.own]
	remote, ok := m.lookup(to)
	if !ok || to == World {
		return nil, fmt.Errorf("unknown group %q: %w", to, ErrConfiguration)
	}
	if remote.name == own.name || overlaps(own, remote) {
		return nil, fmt.Errorf("groups %q and %q overlap: %w", own.name, remote.name, ErrConfiguration)
	}
	ret, err := newIntercomm(m.parent, own, remote)
	if err != nil {
		return nil, err
	}
	m.intercomms[to] = ret
	return ret, nil
}

func overlaps(a, b span) bool {
	return a.first < b.first+b.size && b.first < a.first+a.size
}

// Close releases the communicators derived by the map. The parent is left
// open.
func (m *Map) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for _, ic := range m.intercomms {
		errs = append(errs, ic.Close())
	}
	m.intercomms = nil
	if m.local != m.parent {
		errs = append(errs, m.local.Close())
	}
	return errors.Join(errs...)
}
