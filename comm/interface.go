package comm

import (
	"context"
	"errors"
)

const (
	// AnySource matches a message from any rank.
	AnySource = -1
	// AnyTag matches any non-negative tag. Negative tags are reserved for
	// collectives and must be matched explicitly.
	AnyTag = -1
)

// reserved collective tags
const (
	tagBarrier = -2
	tagBcast   = -3
	tagReduce  = -4
)

var (
	// ErrInvalidRank is returned for a rank outside the communicator.
	ErrInvalidRank = errors.New("comm: invalid rank")
	// ErrClosed is returned by operations on a closed communicator.
	ErrClosed = errors.New("comm: closed")
	// ErrNotMember is returned when deriving a sub-communicator that does not
	// include the calling rank.
	ErrNotMember = errors.New("comm: rank is not a member")
)

// Message is a received point-to-point message.
type Message struct {
	Source  int
	Tag     int
	Payload []byte
}

// Status describes a pending message without consuming it.
type Status struct {
	Source int
	Tag    int
	Size   int
}

// Communicator is one rank's endpoint in a group of ranks.
//
// Messages between a pair of ranks within one communicator are delivered in
// the order they were sent. Messages never cross communicators, even when the
// underlying ranks are the same.
type Communicator interface {
	// Rank returns this endpoint's rank, in [0, Size()).
	Rank() int

	// Size returns the number of ranks.
	Size() int

	// Send delivers payload to dest. It does not wait for a matching receive.
	Send(ctx context.Context, dest, tag int, payload []byte) error

	// Recv blocks until a message matching source and tag arrives.
	Recv(ctx context.Context, source, tag int) (*Message, error)

	// TryRecv consumes a matching message if one is pending.
	TryRecv(source, tag int) (*Message, bool, error)

	// Probe reports a matching pending message without consuming it.
	Probe(source, tag int) (Status, bool, error)

	// Sub derives a communicator over ranks (given in this communicator's
	// numbering); the caller's new rank is its index in ranks. Every member
	// calling Sub with the same name and ranks obtains the same message
	// context without any communication.
	Sub(name string, ranks []int) (Communicator, error)

	// Close releases the endpoint; blocked receives return ErrClosed.
	Close() error
}

// Match reports whether a message with source and tag satisfies a receive for
// wantSource and wantTag.
func Match(source, tag, wantSource, wantTag int) bool {
	if wantSource != AnySource && source != wantSource {
		return false
	}
	if wantTag == AnyTag {
		return tag >= 0
	}
	return tag == wantTag
}
