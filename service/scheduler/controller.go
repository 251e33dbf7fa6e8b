package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/internal/clock"
	"github.com/viant/insitu/internal/idgen"
	"github.com/viant/insitu/metrics"
	"github.com/viant/insitu/progress"
	"github.com/viant/insitu/service/event"
	"github.com/viant/insitu/tracing"
	"go.uber.org/zap"
)

func (s *Service) ensureLeader(op string) error {
	if s.Rank() != leader {
		return fmt.Errorf("%s on rank %d: %w", op, s.Rank(), ErrNotController)
	}
	return nil
}

// Schedule queues item. Items that can never run on the candidate workers
// fail with ErrUnsatisfiable. An empty ID is generated.
func (s *Service) Schedule(ctx context.Context, item Item) error {
	if err := s.ensureLeader("schedule"); err != nil {
		return err
	}
	if s.finished {
		return ErrFinished
	}
	if item.ID == "" {
		item.ID = idgen.New()
	}
	if s.ids[item.ID] {
		return fmt.Errorf("item %v: %w", item.ID, ErrDuplicateItem)
	}
	groups, size, err := resolve(item.Roles, item.Size)
	if err != nil {
		s.logger.Warn("unsatisfiable item", zap.String("item", item.ID), zap.Error(err))
		return fmt.Errorf("item %v: %w", item.ID, err)
	}
	if pool := s.candidates(item); size > pool {
		s.logger.Warn("unsatisfiable item", zap.String("item", item.ID), zap.Int("size", size), zap.Int("candidates", pool))
		return fmt.Errorf("item %v needs %d workers, %d available: %w", item.ID, size, pool, ErrUnsatisfiable)
	}
	item.Size = size
	s.ids[item.ID] = true
	s.queue = append(s.queue, &queued{item: item, groups: groups, size: size})
	s.progress.Update(progress.Delta{Total: 1, Queued: 1})
	s.metrics.Item(metrics.StateScheduled)
	s.publish(ctx, event.TypeItemScheduled, item.ID, 0, item)
	s.logger.Debug("item scheduled", zap.String("item", item.ID), zap.String("function", item.Function), zap.Int("size", size))
	return nil
}

// candidates counts the workers an item may use.
func (s *Service) candidates(item Item) int {
	if len(item.Candidates) == 0 {
		return s.Workers()
	}
	seen := map[int]bool{}
	for _, r := range item.Candidates {
		if r >= s.config.Controllers && r < s.Size() {
			seen[r] = true
		}
	}
	return len(seen)
}

func (s *Service) eligible(item Item, rank int) bool {
	if len(item.Candidates) == 0 {
		return true
	}
	for _, r := range item.Candidates {
		if r == rank {
			return true
		}
	}
	return false
}

// pick returns the lowest-numbered idle eligible workers, or nil when fewer
// than size are idle.
func (s *Service) pick(item Item, size int) []int {
	var ret []int
	for r := s.config.Controllers; r < len(s.idle) && len(ret) < size; r++ {
		if s.idle[r] && s.eligible(item, r) {
			ret = append(ret, r)
		}
	}
	if len(ret) < size {
		return nil
	}
	return ret
}

// Control collects completed items, then assigns queued items to idle
// workers, first-fit in submission order. It never blocks and reports
// whether queued or running items remain.
func (s *Service) Control(ctx context.Context) (bool, error) {
	if err := s.ensureLeader("control"); err != nil {
		return false, err
	}
	if err := s.collect(ctx); err != nil {
		return s.pending(), err
	}
	if err := s.assign(ctx); err != nil {
		return s.pending(), err
	}
	return s.pending(), nil
}

func (s *Service) pending() bool { return len(s.queue) > 0 || len(s.active) > 0 }

// QueueEmpty reports whether no item waits for workers.
func (s *Service) QueueEmpty() bool { return len(s.queue) == 0 }

// Running returns the number of items assigned and not yet complete.
func (s *Service) Running() int { return len(s.active) }

func (s *Service) collect(ctx context.Context) error {
	for {
		msg, ok, err := s.comm.TryRecv(comm.AnySource, tagDone)
		if err != nil || !ok {
			return err
		}
		s.complete(ctx, msg)
	}
}

func (s *Service) assign(ctx context.Context) error {
	kept := s.queue[:0]
	var failure error
	for _, q := range s.queue {
		if failure != nil {
			kept = append(kept, q)
			continue
		}
		workers := s.pick(q.item, q.size)
		if workers == nil {
			kept = append(kept, q)
			continue
		}
		if err := s.dispatch(ctx, q, workers); err != nil {
			failure = err
		}
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	return failure
}

// dispatch records the item as running on workers before sending the
// assignment, so a partial send never leaves assigned workers idle. Workers
// the assignment did not reach are reported failed on its behalf.
func (s *Service) dispatch(ctx context.Context, q *queued, workers []int) error {
	for _, w := range workers {
		s.idle[w] = false
	}
	s.active[q.item.ID] = &running{item: q.item, workers: workers, started: clock.Now(), group: newRendezvous(workers)}
	s.progress.Update(progress.Delta{Queued: -1, Running: 1})
	s.metrics.Item(metrics.StateAssigned)
	s.publish(ctx, event.TypeItemAssigned, q.item.ID, 0, workers)
	s.logger.Debug("item assigned", zap.String("item", q.item.ID), zap.Ints("workers", workers))

	payload, err := encode(&assignment{Item: q.item, Groups: q.groups, Workers: workers})
	for i, w := range workers {
		if err == nil {
			err = s.comm.Send(ctx, w, tagAssign, payload)
			if err == nil {
				continue
			}
			err = fmt.Errorf("failed to assign item %v to worker %d: %w", q.item.ID, w, err)
			s.logger.Error("assignment interrupted", zap.String("item", q.item.ID), zap.Ints("unreached", workers[i:]), zap.Error(err))
		}
		s.record(ctx, &completion{ID: q.item.ID, Worker: w, Code: codeFailed, Error: err.Error()})
	}
	return err
}

func (s *Service) complete(ctx context.Context, msg *comm.Message) {
	c := &completion{}
	if err := decode(msg.Payload, c); err != nil {
		s.logger.Error("malformed completion", zap.Int("worker", msg.Source), zap.Error(err))
		return
	}
	c.Worker = msg.Source
	s.record(ctx, c)
}

// record registers one worker's completion. The item's workers are freed
// together once all of them reported.
func (s *Service) record(ctx context.Context, c *completion) {
	item, ok := s.active[c.ID]
	if !ok {
		s.logger.Error("completion of unknown item", zap.String("item", c.ID), zap.Int("worker", c.Worker))
		return
	}
	done, err := item.group.markDone(c)
	if err != nil {
		s.logger.Error("unexpected completion", zap.Error(err))
		return
	}
	if !done {
		return
	}
	for _, w := range item.workers {
		s.idle[w] = true
	}
	delete(s.active, c.ID)
	elapsed := clock.Since(item.started)
	value, failure := item.group.outcome()
	s.results = append(s.results, Result{
		ID:       item.item.ID,
		Name:     item.item.Name,
		Function: item.item.Function,
		Value:    value,
		Err:      failure,
		Workers:  item.workers,
		Duration: elapsed,
	})
	s.times = append(s.times, TimeRecord{ID: item.item.ID, Name: item.item.Name, Workers: len(item.workers), Duration: elapsed})
	_ = s.histogram.RecordValue(elapsed.Microseconds())
	s.metrics.ObserveItem(elapsed)

	_, span := tracing.StartSpan(ctx, "scheduler.item", "INTERNAL")
	span.WithAttributes(map[string]string{"insitu.item": item.item.ID, "insitu.function": item.item.Function}).WithInt("insitu.workers", len(item.workers))
	tracing.EndSpan(span, failure)

	if failure != nil {
		s.progress.Update(progress.Delta{Running: -1, Failed: 1})
		s.metrics.Item(metrics.StateFailed)
		s.publish(ctx, event.TypeItemFailed, item.item.ID, elapsed, failure.Error())
		s.logger.Warn("item failed", zap.String("item", item.item.ID), zap.Duration("elapsed", elapsed), zap.Error(failure))
		return
	}
	s.progress.Update(progress.Delta{Running: -1, Completed: 1})
	s.metrics.Item(metrics.StateCompleted)
	s.publish(ctx, event.TypeItemCompleted, item.item.ID, elapsed, value)
	s.logger.Debug("item completed", zap.String("item", item.item.ID), zap.Duration("elapsed", elapsed))
}

// ResultsEmpty reports whether no result waits to be popped.
func (s *Service) ResultsEmpty() bool { return len(s.results) == 0 }

// Pop removes the oldest completed result.
func (s *Service) Pop() (Result, bool) {
	if len(s.results) == 0 {
		return Result{}, false
	}
	ret := s.results[0]
	s.results[0] = Result{}
	s.results = s.results[1:]
	return ret, true
}

// Drive calls Control every polling interval until no work remains.
func (s *Service) Drive(ctx context.Context) error {
	ticker := time.NewTicker(s.config.PollingInterval)
	defer ticker.Stop()
	for {
		more, err := s.Control(ctx)
		if err != nil || !more {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Finish waits for every queued and running item, then tells the workers
// to stop. Results stay available to Pop.
func (s *Service) Finish(ctx context.Context) error {
	if err := s.ensureLeader("finish"); err != nil {
		return err
	}
	if s.finished {
		return nil
	}
	for {
		more, err := s.Control(ctx)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if len(s.active) > 0 {
			// nothing else can progress until a worker reports
			msg, err := s.comm.Recv(ctx, comm.AnySource, tagDone)
			if err != nil {
				return err
			}
			s.complete(ctx, msg)
		}
	}
	s.finished = true
	if s.config.LogItemTimes {
		for _, t := range s.times {
			s.logger.Info("item time", zap.String("item", t.ID), zap.String("name", t.Name), zap.Int("workers", t.Workers), zap.Duration("duration", t.Duration))
		}
	}
	for r := s.config.Controllers; r < s.Size(); r++ {
		if err := s.comm.Send(ctx, r, tagStop, nil); err != nil {
			return fmt.Errorf("failed to stop worker %d: %w", r, err)
		}
	}
	return nil
}

// Times returns the durations of finished items in completion order.
func (s *Service) Times() []TimeRecord {
	return append([]TimeRecord{}, s.times...)
}
