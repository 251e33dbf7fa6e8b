package puppet

import (
	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/metrics"
	"github.com/viant/insitu/service/event"
	"go.uber.org/zap"
)

// Option configures a Puppet.
type Option func(p *Puppet)

// WithName overrides the puppet name, by default the resolved program name.
func WithName(name string) Option {
	return func(p *Puppet) { p.name = name }
}

// WithRegistry sets the registry programs are resolved against.
func WithRegistry(registry *Registry) Option {
	return func(p *Puppet) { p.registry = registry }
}

// WithPrefix sets the directory relative program paths are resolved under.
func WithPrefix(prefix string) Option {
	return func(p *Puppet) { p.prefix = prefix }
}

// WithWorld sets the communicator the program sees as its world; by default
// the process map group communicator.
func WithWorld(world comm.Communicator) Option {
	return func(p *Puppet) { p.world = world }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Puppet) { p.logger = logger }
}

// WithEventService publishes lifecycle transitions.
func WithEventService(service *event.Service) Option {
	return func(p *Puppet) { p.events = service }
}

// WithMetrics records step counts and durations.
func WithMetrics(collectors *metrics.Collectors) Option {
	return func(p *Puppet) { p.metrics = collectors }
}

// WithSessionID tags events with the session id.
func WithSessionID(id string) Option {
	return func(p *Puppet) { p.sessionID = id }
}
