package scheduler

import (
	"github.com/viant/insitu/metrics"
	"github.com/viant/insitu/progress"
	"github.com/viant/insitu/service/event"
	"go.uber.org/zap"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig sets the configuration; the controller count passed to New
// takes precedence over config.Controllers when positive.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithFunctions sets the registry workers resolve item functions against.
func WithFunctions(functions *Functions) Option {
	return func(s *Service) { s.functions = functions }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEventService publishes item transitions.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.events = service }
}

// WithMetrics records item transitions and durations.
func WithMetrics(collectors *metrics.Collectors) Option {
	return func(s *Service) { s.metrics = collectors }
}

// WithProgress tracks item counters.
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) { s.progress = tracker }
}

// WithSessionID tags events with the session id.
func WithSessionID(id string) Option {
	return func(s *Service) { s.sessionID = id }
}
