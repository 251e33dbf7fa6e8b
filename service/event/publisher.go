package event

import (
	"context"
	"errors"

	"github.com/viant/insitu/internal/clock"
	"github.com/viant/insitu/service/messaging"
)

type Publisher[T any] struct {
	queue    messaging.Queue[Event[T]]
	anyQueue messaging.Queue[Event[any]]
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue: queue,
	}
}

// Publish queues event on the typed queue and mirrors it to the catch-all
// queue. A full queue drops the event and reports messaging.ErrQueueFull.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	event.CreatedAt = clock.Now()
	var errs []error
	if p.anyQueue != nil {
		errs = append(errs, p.anyQueue.Publish(ctx, &Event[any]{
			Context:   event.Context,
			CreatedAt: event.CreatedAt,
			Metadata:  event.Metadata,
			Data:      event.Data,
		}))
	}
	errs = append(errs, p.queue.Publish(ctx, event))
	return errors.Join(errs...)
}

func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
