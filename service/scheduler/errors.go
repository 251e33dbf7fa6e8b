package scheduler

import "errors"

var (
	// ErrUnsatisfiable is returned for items whose role requirements can
	// never be met by the candidate workers.
	ErrUnsatisfiable = errors.New("scheduler: unsatisfiable item")

	// ErrNotController is returned when a controller operation is invoked on
	// a rank other than the controller leader.
	ErrNotController = errors.New("scheduler: not the controller")

	// ErrNotWorker is returned when Listen is invoked on a controller rank.
	ErrNotWorker = errors.New("scheduler: not a worker")

	// ErrFunctionNotFound is reported for items naming an unregistered
	// function.
	ErrFunctionNotFound = errors.New("scheduler: function not found")

	// ErrTaskFailed matches every failure reported by a worker.
	ErrTaskFailed = errors.New("scheduler: task failed")

	// ErrDuplicateItem is returned when scheduling an id already in use.
	ErrDuplicateItem = errors.New("scheduler: duplicate item id")

	// ErrFinished is returned when scheduling after Finish.
	ErrFinished = errors.New("scheduler: finished")
)
