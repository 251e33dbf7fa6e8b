package insitu

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/insitu/runtime/procmap"
	"github.com/viant/insitu/runtime/puppet"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Session describes a coupled run: the world size, its groups and the
// puppets each group runs.
type Session struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	World int    `json:"world" yaml:"world"`
	// Groups are "name=size" declarations; names without a size share the
	// leftover ranks.
	Groups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	// Puppets lists the command lines run by every rank of a group. The
	// first puppet drives: once it stops, the others are stopped. Ranks
	// outside every group run the "world" entry.
	Puppets map[string][]string `json:"puppets" yaml:"puppets"`
	// Rounds bounds the number of rounds; zero runs until the drivers stop.
	Rounds int `json:"rounds,omitempty" yaml:"rounds,omitempty"`
}

// PuppetTime is the stepping time of one puppet on one rank.
type PuppetTime struct {
	Rank   int
	Group  string
	Puppet string
	Steps  int
	Total  time.Duration
}

// LoadSession reads a YAML session description from any afs supported URL.
func LoadSession(ctx context.Context, URL string) (*Session, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %v: %w", URL, err)
	}
	ret := &Session{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode session %v: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session %v: %w", URL, err)
	}
	return ret, nil
}

// Validate checks the session and its group layout.
func (s *Session) Validate() error {
	if s.World <= 0 {
		return fmt.Errorf("session world must be > 0, got %d: %w", s.World, procmap.ErrConfiguration)
	}
	if len(s.Puppets) == 0 {
		return fmt.Errorf("session has no puppets: %w", procmap.ErrConfiguration)
	}
	if s.Rounds < 0 {
		return fmt.Errorf("session rounds must be >= 0, got %d", s.Rounds)
	}
	_, err := s.groups()
	return err
}

func (s *Session) groups() ([]procmap.Group, error) {
	var names []string
	for name := range s.Puppets {
		if name != procmap.World {
			names = append(names, name)
		}
	}
	return procmap.ParseGroups(s.Groups, s.World, names...)
}

// RunSession runs session on an in-process world and returns the stepping
// time of every puppet, ordered by rank.
func (s *Service) RunSession(ctx context.Context, session *Session) ([]PuppetTime, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	groups, _ := session.groups()
	var mux sync.Mutex
	var times []PuppetTime
	err := s.Run(ctx, session.World, func(ctx context.Context, rank *Rank) error {
		pm, err := rank.ProcMap(groups)
		if err != nil {
			return err
		}
		defer pm.Close()
		var puppets []*puppet.Puppet
		for _, line := range session.Puppets[pm.Group()] {
			p, err := rank.Load(line, pm)
			if err != nil {
				return err
			}
			puppets = append(puppets, p)
		}
		defer func() {
			for _, p := range puppets {
				_ = p.Close(ctx)
			}
		}()
		runErr := puppet.RunDriven(ctx, session.Rounds, puppets...)
		mux.Lock()
		defer mux.Unlock()
		for _, p := range puppets {
			times = append(times, PuppetTime{Rank: rank.Rank(), Group: pm.Group(), Puppet: p.Name(), Steps: p.Steps(), Total: p.TotalTime()})
			rank.Logger().Info("puppet time", zap.String("group", pm.Group()), zap.String("puppet", p.Name()), zap.Int("steps", p.Steps()), zap.Duration("total", p.TotalTime()))
		}
		return runErr
	})
	sort.SliceStable(times, func(i, j int) bool { return times[i].Rank < times[j].Rank })
	return times, err
}
