package procmap

import (
	"context"
	"fmt"

	"github.com/viant/insitu/comm"
)

// Intercomm joins two disjoint groups. The embedded communicator spans both
// groups, the one with the lower leader first; the *Remote helpers address
// the other group by its local ranks.
type Intercomm struct {
	comm.Communicator
	local  []int
	remote []int
}

func newIntercomm(parent comm.Communicator, own, remote span) (*Intercomm, error) {
	low, high := own, remote
	if remote.first < own.first {
		low, high = remote, own
	}
	ranks := append(low.ranks(), high.ranks()...)
	c, err := parent.Sub(fmt.Sprintf("intercomm.%s.%s", low.name, high.name), ranks)
	if err != nil {
		return nil, fmt.Errorf("failed to join %q and %q: %w", own.name, remote.name, err)
	}
	ret := &Intercomm{Communicator: c}
	for i := 0; i < low.size; i++ {
		if low.name == own.name {
			ret.local = append(ret.local, i)
		} else {
			ret.remote = append(ret.remote, i)
		}
	}
	for i := 0; i < high.size; i++ {
		if high.name == own.name {
			ret.local = append(ret.local, low.size+i)
		} else {
			ret.remote = append(ret.remote, low.size+i)
		}
	}
	return ret, nil
}

// LocalSize returns the size of the rank's own group.
func (c *Intercomm) LocalSize() int { return len(c.local) }

// RemoteSize returns the size of the other group.
func (c *Intercomm) RemoteSize() int { return len(c.remote) }

func (c *Intercomm) remoteRank(rank int) (int, error) {
	if rank == comm.AnySource {
		return rank, nil
	}
	if rank < 0 || rank >= len(c.remote) {
		return 0, fmt.Errorf("remote rank %d of %d: %w", rank, len(c.remote), comm.ErrInvalidRank)
	}
	return c.remote[rank], nil
}

// fromJoined maps a joined rank of the remote group back to its local rank.
func (c *Intercomm) fromJoined(rank int) int {
	for i, r := range c.remote {
		if r == rank {
			return i
		}
	}
	return -1
}

// SendRemote sends to local rank dest of the other group.
func (c *Intercomm) SendRemote(ctx context.Context, dest, tag int, payload []byte) error {
	if dest == comm.AnySource {
		return fmt.Errorf("send to any rank: %w", comm.ErrInvalidRank)
	}
	r, err := c.remoteRank(dest)
	if err != nil {
		return err
	}
	return c.Send(ctx, r, tag, payload)
}

// RecvRemote receives from local rank source of the other group; the
// returned message carries the sender's local rank.
func (c *Intercomm) RecvRemote(ctx context.Context, source, tag int) (*comm.Message, error) {
	if source == comm.AnySource {
		return nil, fmt.Errorf("receive from any remote rank is not supported: %w", comm.ErrInvalidRank)
	}
	r, err := c.remoteRank(source)
	if err != nil {
		return nil, err
	}
	msg, err := c.Recv(ctx, r, tag)
	if err != nil {
		return nil, err
	}
	msg.Source = c.fromJoined(msg.Source)
	return msg, nil
}

// ProbeRemote reports a pending message from local rank source of the other
// group.
func (c *Intercomm) ProbeRemote(source, tag int) (comm.Status, bool, error) {
	if source == comm.AnySource {
		return comm.Status{}, false, fmt.Errorf("probe of any remote rank is not supported: %w", comm.ErrInvalidRank)
	}
	r, err := c.remoteRank(source)
	if err != nil {
		return comm.Status{}, false, err
	}
	status, ok, err := c.Probe(r, tag)
	if ok {
		status.Source = source
	}
	return status, ok, err
}
