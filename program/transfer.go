package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"github.com/viant/insitu/runtime/puppet"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// intercommunicator tags used by send and receive
const (
	tagData = 1
	tagStop = 2
)

// bundle carries one step's variables to one remote rank.
type bundle struct {
	Values []namemap.Value `msgpack:"values"`
}

// link is a resolved send/receive configuration.
type link struct {
	remote    string
	variables []variable
	ic        *procmap.Intercomm
	partners  []int
}

func newLink(env *puppet.Env, tool string) (*link, error) {
	args := env.Args()
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: %s REMOTE_GROUP [name:type]...: %w", tool, ErrUsage)
	}
	pm := env.ProcMap()
	if pm == nil {
		return nil, fmt.Errorf("%s: no process map bound: %w", tool, ErrUsage)
	}
	variables, err := parseVariables(args[1:])
	if err != nil {
		return nil, err
	}
	ic, err := pm.Intercomm(args[0])
	if err != nil {
		return nil, err
	}
	ranks, err := partners(ic.LocalSize(), ic.RemoteSize(), pm.LocalRank())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	return &link{remote: args[0], variables: variables, ic: ic, partners: ranks}, nil
}

// Send implements "send REMOTE_GROUP name:type...". Every step it forwards
// the listed variables to its partner ranks of the remote group, splitting
// arrays when it has several partners. When stopped it sends a stop marker
// to each partner.
func Send(env *puppet.Env) error {
	l, err := newLink(env, NameSend)
	if err != nil {
		return err
	}
	for !env.StopRequested() {
		if err = l.send(env.Context(), env.NameMap()); err != nil {
			return err
		}
		if !env.Yield() {
			break
		}
	}
	env.Logger().Debug("send stopping", zap.String("remote", l.remote))
	return l.stop(env.Context())
}

func (l *link) send(ctx context.Context, nm *namemap.Map) error {
	values := make([]namemap.Value, len(l.variables))
	for i, v := range l.variables {
		value, err := nm.Read(v.name, v.kind)
		if err != nil {
			return err
		}
		values[i] = value
	}
	for i, dest := range l.partners {
		b := bundle{Values: make([]namemap.Value, len(values))}
		for j, value := range values {
			b.Values[j] = split(value, i, len(l.partners))
		}
		payload, err := msgpack.Marshal(&b)
		if err != nil {
			return fmt.Errorf("failed to encode bundle: %w", err)
		}
		if err = l.ic.SendRemote(ctx, dest, tagData, payload); err != nil {
			return err
		}
	}
	return nil
}

func (l *link) stop(ctx context.Context) error {
	var errs []error
	for _, dest := range l.partners {
		if err := l.ic.SendRemote(ctx, dest, tagStop, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Receive implements "receive REMOTE_GROUP name:type...". Every step it
// receives one bundle from each partner rank and publishes the variables,
// joining arrays split across partners. It returns once a partner sends a
// stop marker.
func Receive(env *puppet.Env) error {
	l, err := newLink(env, NameReceive)
	if err != nil {
		return err
	}
	nm := env.NameMap()
	for !env.StopRequested() {
		bundles, stopped, err := l.receive(env.Context())
		if err != nil {
			return err
		}
		if stopped {
			env.Logger().Debug("receive stopped", zap.String("remote", l.remote))
			return nil
		}
		for i, v := range l.variables {
			parts := make([]namemap.Value, len(bundles))
			for j, b := range bundles {
				if i >= len(b.Values) {
					return fmt.Errorf("bundle from %s has %d values, expected %d", l.remote, len(b.Values), len(l.variables))
				}
				parts[j] = b.Values[i]
			}
			if err = nm.Publish(v.name, merge(parts)); err != nil {
				return err
			}
		}
		if !env.Yield() {
			return nil
		}
	}
	return nil
}

// receive takes one message from every partner; a stop marker from any of
// them ends the transfer.
func (l *link) receive(ctx context.Context) ([]bundle, bool, error) {
	bundles := make([]bundle, 0, len(l.partners))
	stopped := false
	for _, source := range l.partners {
		msg, err := l.ic.RecvRemote(ctx, source, comm.AnyTag)
		if err != nil {
			return nil, false, err
		}
		if msg.Tag == tagStop {
			stopped = true
			continue
		}
		b := bundle{}
		if err = msgpack.Unmarshal(msg.Payload, &b); err != nil {
			return nil, false, fmt.Errorf("failed to decode bundle from %s rank %d: %w", l.remote, source, err)
		}
		bundles = append(bundles, b)
	}
	return bundles, stopped, nil
}
