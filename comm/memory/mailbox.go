package memory

import (
	"context"
	"sync"

	"github.com/viant/insitu/comm"
)

// envelope is a message in flight together with its routing context.
type envelope struct {
	scope   string
	source  int
	tag     int
	payload []byte
}

// mailbox holds the undelivered messages of one world rank. Receives select
// by (context, source, tag); the first match in arrival order wins, which
// keeps delivery non-overtaking per sender.
type mailbox struct {
	mu       sync.Mutex
	messages []*envelope
	notify   chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{})}
}

func (m *mailbox) put(env *envelope) {
	m.mu.Lock()
	m.messages = append(m.messages, env)
	// wake every waiter; they rescan under the lock
	close(m.notify)
	m.notify = make(chan struct{})
	m.mu.Unlock()
}

func (m *mailbox) find(scope string, source, tag int) int {
	for i, env := range m.messages {
		if env.scope == scope && comm.Match(env.source, env.tag, source, tag) {
			return i
		}
	}
	return -1
}

// peek returns the first matching envelope without removing it.
func (m *mailbox) peek(scope string, source, tag int) *envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(scope, source, tag); i >= 0 {
		return m.messages[i]
	}
	return nil
}

// poll removes and returns the first matching envelope, if any.
func (m *mailbox) poll(scope string, source, tag int) *envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(scope, source, tag)
}

func (m *mailbox) removeLocked(scope string, source, tag int) *envelope {
	i := m.find(scope, source, tag)
	if i < 0 {
		return nil
	}
	env := m.messages[i]
	copy(m.messages[i:], m.messages[i+1:])
	m.messages[len(m.messages)-1] = nil
	m.messages = m.messages[:len(m.messages)-1]
	return env
}

// take blocks until a matching envelope arrives, ctx is done or either of
// the closing channels closes.
func (m *mailbox) take(ctx context.Context, closed, worldClosed <-chan struct{}, scope string, source, tag int) (*envelope, error) {
	for {
		m.mu.Lock()
		if env := m.removeLocked(scope, source, tag); env != nil {
			m.mu.Unlock()
			return env, nil
		}
		notify := m.notify
		m.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-closed:
			return nil, comm.ErrClosed
		case <-worldClosed:
			return nil, comm.ErrClosed
		}
	}
}

// size returns the number of pending envelopes.
func (m *mailbox) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
