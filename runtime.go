package insitu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	perrors "github.com/pkg/errors"

	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/comm/memory"
	"github.com/viant/insitu/internal/clock"
	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"github.com/viant/insitu/runtime/puppet"
	"github.com/viant/insitu/service/event"
	"github.com/viant/insitu/service/scheduler"
	"github.com/viant/insitu/tracing"
	"go.uber.org/zap"
)

// Driver runs the session logic of one rank.
type Driver func(ctx context.Context, rank *Rank) error

// Rank is the view a driver has of its rank: the world communicator, the
// rank's Name Map and factories bound to the service.
type Rank struct {
	service *Service
	comm    comm.Communicator
	nameMap *namemap.Map
	logger  *zap.Logger
}

// Rank returns the world rank.
func (r *Rank) Rank() int { return r.comm.Rank() }

// Size returns the world size.
func (r *Rank) Size() int { return r.comm.Size() }

// Comm returns the world communicator.
func (r *Rank) Comm() comm.Communicator { return r.comm }

// NameMap returns the Name Map shared by the rank's puppets.
func (r *Rank) NameMap() *namemap.Map { return r.nameMap }

// Logger returns a logger tagged with the rank.
func (r *Rank) Logger() *zap.Logger { return r.logger }

// ProcMap partitions the world into groups. Every rank must call it with the
// same groups.
func (r *Rank) ProcMap(groups []procmap.Group) (*procmap.Map, error) {
	return procmap.New(r.comm, groups)
}

func (r *Rank) puppetOptions(opts []puppet.Option) []puppet.Option {
	s := r.service
	return append([]puppet.Option{
		puppet.WithRegistry(s.registry),
		puppet.WithPrefix(s.config.Puppet.Prefix),
		puppet.WithLogger(r.logger),
		puppet.WithEventService(s.eventService),
		puppet.WithMetrics(s.metrics),
		puppet.WithSessionID(s.sessionID),
	}, opts...)
}

// Puppet binds the program at path to pm and the rank's Name Map.
func (r *Rank) Puppet(path string, args []string, pm *procmap.Map, opts ...puppet.Option) (*puppet.Puppet, error) {
	return puppet.New(path, args, pm, r.nameMap, r.puppetOptions(opts)...)
}

// Load binds a shell-style command line to pm and the rank's Name Map.
func (r *Rank) Load(commandLine string, pm *procmap.Map, opts ...puppet.Option) (*puppet.Puppet, error) {
	return puppet.Load(commandLine, pm, r.nameMap, r.puppetOptions(opts)...)
}

// Scheduler creates the rank's scheduler endpoint over pm's world. A
// non-positive controllers uses the configured count.
func (r *Rank) Scheduler(pm *procmap.Map, controllers int, opts ...scheduler.Option) (*scheduler.Service, error) {
	s := r.service
	return scheduler.New(pm, controllers, append([]scheduler.Option{
		scheduler.WithConfig(s.config.Scheduler),
		scheduler.WithFunctions(s.functions),
		scheduler.WithLogger(r.logger),
		scheduler.WithEventService(s.eventService),
		scheduler.WithMetrics(s.metrics),
		scheduler.WithSessionID(s.sessionID),
	}, opts...)...)
}

// Run executes driver on every rank of an in-process world of worldSize
// ranks, each on its own goroutine. The first failure cancels the others;
// all failures are returned joined.
func (s *Service) Run(ctx context.Context, worldSize int, driver Driver) error {
	world, err := memory.NewWorld(worldSize)
	if err != nil {
		return err
	}
	defer world.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, span := tracing.StartSpan(ctx, "insitu.session", "INTERNAL")
	span.WithAttributes(map[string]string{"insitu.session": s.sessionID}).WithInt("insitu.world", worldSize)
	started := clock.Now()
	s.publish(ctx, event.TypeSessionStarted, 0, worldSize)
	s.logger.Info("session started", zap.String("session", s.sessionID), zap.Int("world", worldSize))

	errs := make([]error, worldSize)
	var abort sync.Once
	var wg sync.WaitGroup
	for rank, c := range world.Comms() {
		wg.Add(1)
		go func(rank int, c comm.Communicator) {
			defer wg.Done()
			r := &Rank{
				service: s,
				comm:    c,
				nameMap: namemap.New(),
				logger:  s.logger.With(zap.Int("rank", rank)),
			}
			if err := runDriver(ctx, driver, r); err != nil {
				errs[rank] = fmt.Errorf("rank %d: %w", rank, err)
				abort.Do(func() {
					cancel()
					_ = world.Close()
				})
			}
		}(rank, c)
	}
	wg.Wait()
	err = errors.Join(errs...)
	elapsed := clock.Since(started)
	tracing.EndSpan(span, err)
	s.publish(ctx, event.TypeSessionEnded, elapsed, err == nil)
	if err != nil {
		s.logger.Error("session failed", zap.String("session", s.sessionID), zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}
	s.logger.Info("session ended", zap.String("session", s.sessionID), zap.Duration("elapsed", elapsed))
	return nil
}

func runDriver(ctx context.Context, driver Driver, r *Rank) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = perrors.Errorf("driver panic: %v", p)
		}
	}()
	return driver(ctx, r)
}

func (s *Service) publish(ctx context.Context, eventType string, elapsed time.Duration, data interface{}) {
	if s.eventService == nil {
		return
	}
	ectx := &event.Context{
		SessionID:   s.sessionID,
		Subject:     s.sessionID,
		EventType:   eventType,
		Rank:        -1,
		TimeTakenMs: int(elapsed.Milliseconds()),
	}
	if err := event.Emit(ctx, s.eventService, ectx, data); err != nil {
		s.logger.Debug("event dropped", zap.String("type", eventType), zap.Error(err))
	}
}
