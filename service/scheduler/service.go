package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/metrics"
	"github.com/viant/insitu/progress"
	"github.com/viant/insitu/runtime/procmap"
	"github.com/viant/insitu/service/event"
	"go.uber.org/zap"
)

// leader is the rank owning the work queue.
const leader = 0

// Service is one rank's scheduler endpoint. Controller state lives only on
// the leader; a Service is not safe for concurrent use.
type Service struct {
	config      Config
	procMap     *procmap.Map
	comm        comm.Communicator
	controllers comm.Communicator
	functions   *Functions
	logger      *zap.Logger
	events      *event.Service
	metrics     *metrics.Collectors
	progress    *progress.Progress
	sessionID   string

	// controller state
	queue     []*queued
	active    map[string]*running
	idle      []bool
	ids       map[string]bool
	results   []Result
	times     []TimeRecord
	histogram *hdrhistogram.Histogram
	finished  bool
}

type queued struct {
	item   Item
	groups []procmap.Group
	size   int
}

type running struct {
	item    Item
	workers []int
	started time.Time
	group   *rendezvous
}

// New creates the scheduler endpoint of the calling rank over pm's world.
// Ranks below controllers are controllers. Every rank of the world must
// call New.
func New(pm *procmap.Map, controllers int, opts ...Option) (*Service, error) {
	ret := &Service{
		config:  DefaultConfig(),
		procMap: pm,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if controllers > 0 {
		ret.config.Controllers = controllers
	}
	world := pm.World()
	if err := ret.config.Validate(world.Size()); err != nil {
		return nil, fmt.Errorf("%v: %w", err, procmap.ErrConfiguration)
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	ret.logger = ret.logger.With(zap.Int("rank", world.Rank()))

	all := make([]int, world.Size())
	for i := range all {
		all[i] = i
	}
	var err error
	if ret.comm, err = world.Sub("scheduler", all); err != nil {
		return nil, fmt.Errorf("failed to derive scheduler communicator: %w", err)
	}
	if ret.IsController() {
		ranks := make([]int, ret.config.Controllers)
		for i := range ranks {
			ranks[i] = i
		}
		if ret.controllers, err = world.Sub("controllers", ranks); err != nil {
			return nil, fmt.Errorf("failed to derive controllers communicator: %w", err)
		}
	}
	if ret.Rank() == leader {
		ret.active = map[string]*running{}
		ret.ids = map[string]bool{}
		ret.idle = make([]bool, world.Size())
		for r := ret.config.Controllers; r < world.Size(); r++ {
			ret.idle[r] = true
		}
		ret.histogram = hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3)
	}
	return ret, nil
}

// Rank returns the rank in the scheduler's world.
func (s *Service) Rank() int { return s.comm.Rank() }

// Size returns the number of ranks in the scheduler's world.
func (s *Service) Size() int { return s.comm.Size() }

// Workers returns the number of worker ranks.
func (s *Service) Workers() int { return s.Size() - s.config.Controllers }

// IsController reports whether the rank is a controller.
func (s *Service) IsController() bool { return s.Rank() < s.config.Controllers }

// Controllers returns the communicator shared by the controller ranks, nil
// on workers.
func (s *Service) Controllers() comm.Communicator { return s.controllers }

// Close releases the communicators derived by the scheduler.
func (s *Service) Close() error {
	if s.controllers != nil {
		_ = s.controllers.Close()
	}
	return s.comm.Close()
}

func (s *Service) publish(ctx context.Context, eventType string, subject string, elapsed time.Duration, data interface{}) {
	if s.events == nil {
		return
	}
	ectx := &event.Context{
		SessionID:   s.sessionID,
		Subject:     subject,
		EventType:   eventType,
		Rank:        s.Rank(),
		TimeTakenMs: int(elapsed.Milliseconds()),
	}
	if err := event.Emit(ctx, s.events, ectx, data); err != nil {
		s.logger.Debug("event dropped", zap.String("type", eventType), zap.Error(err))
	}
}
