package scheduler

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/internal/clock"
	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"github.com/viant/insitu/service/event"
	"github.com/viant/insitu/tracing"
	"go.uber.org/zap"
)

// Listen runs assigned items until the leader sends stop. Each assignment
// gets its own communicator spanning the item's workers, a process map of
// the item's roles and a fresh name map. An assignment that cannot be run is
// reported failed and the worker keeps listening.
func (s *Service) Listen(ctx context.Context) error {
	if s.IsController() {
		return fmt.Errorf("listen on rank %d: %w", s.Rank(), ErrNotWorker)
	}
	for {
		msg, err := s.comm.Recv(ctx, leader, comm.AnyTag)
		if err != nil {
			return err
		}
		switch msg.Tag {
		case tagStop:
			s.logger.Debug("worker stopped")
			s.publish(ctx, event.TypeWorkerStopped, fmt.Sprintf("worker-%d", s.Rank()), 0, nil)
			return nil
		case tagAssign:
			a := &assignment{}
			if err := decode(msg.Payload, a); err != nil {
				s.logger.Error("malformed assignment", zap.String("item", a.Item.ID), zap.Error(err))
				if err = s.report(ctx, &completion{ID: a.Item.ID, Code: codeFailed, Error: err.Error()}); err != nil {
					return err
				}
				continue
			}
			if err := s.execute(ctx, a); err != nil {
				return err
			}
		default:
			s.logger.Warn("unexpected message", zap.Int("tag", msg.Tag))
		}
	}
}

// execute runs one assignment and reports its completion to the leader.
func (s *Service) execute(ctx context.Context, a *assignment) error {
	item := a.Item
	jobComm, err := s.comm.Sub("item."+item.ID, a.Workers)
	if err != nil {
		err = fmt.Errorf("failed to derive communicator of item %v: %w", item.ID, err)
		s.logger.Error("item not runnable", zap.String("item", item.ID), zap.Error(err))
		return s.report(ctx, &completion{ID: item.ID, Code: codeFailed, Error: err.Error()})
	}
	defer jobComm.Close()
	pm, err := procmap.New(jobComm, a.Groups)
	if err != nil {
		return s.report(ctx, &completion{ID: item.ID, Code: codeFailed, Error: err.Error()})
	}
	defer pm.Close()

	logger := s.logger.With(zap.String("item", item.ID), zap.String("function", item.Function), zap.String("role", pm.Group()))
	done := &completion{ID: item.ID}
	fn, ok := s.functions.Lookup(item.Function)
	if !ok {
		logger.Warn("function not found")
		done.Code, done.Error = codeNotFound, item.Function
		return s.report(ctx, done)
	}
	job := &Job{Item: item, Comm: jobComm, ProcMap: pm, NameMap: namemap.New(), Logger: logger}
	spanCtx, span := tracing.StartRankSpan(ctx, "scheduler.function", s.Rank(), pm.Group())
	span.WithAttributes(map[string]string{"insitu.item": item.ID, "insitu.function": item.Function})
	started := clock.Now()
	value, err := invoke(spanCtx, fn, job)
	tracing.EndSpan(span, err)
	if err != nil {
		logger.Warn("function failed", zap.Error(err))
		done.Code, done.Error = codeFailed, err.Error()
	} else {
		done.Value = value
		logger.Debug("function completed", zap.Duration("elapsed", clock.Since(started)))
	}
	return s.report(ctx, done)
}

func invoke(ctx context.Context, fn Function, job *Job) (value namemap.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, job)
}

func (s *Service) report(ctx context.Context, c *completion) error {
	c.Worker = s.Rank()
	payload, err := encode(c)
	if err != nil {
		return err
	}
	if err = s.comm.Send(ctx, leader, tagDone, payload); err != nil {
		return fmt.Errorf("failed to report item %v: %w", c.ID, err)
	}
	return nil
}
