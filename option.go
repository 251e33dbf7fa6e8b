package insitu

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/insitu/runtime/puppet"
	"github.com/viant/insitu/service/event"
	"github.com/viant/insitu/service/scheduler"
	"github.com/viant/insitu/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig sets the configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger; by default one is built from the logging
// configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRegistry sets the puppet program registry. The built-in programs are
// registered into it.
func WithRegistry(registry *puppet.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithFunctions sets the scheduler function registry.
func WithFunctions(functions *scheduler.Functions) Option {
	return func(s *Service) {
		s.functions = functions
	}
}

// WithEventService publishes puppet, item and session transitions.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithMetrics registers the runtime collectors on registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = registerer
	}
}

// WithSessionID sets the session id carried by events; a random one is
// generated otherwise.
func WithSessionID(id string) Option {
	return func(s *Service) {
		s.sessionID = id
	}
}

// WithTracing configures OpenTelemetry tracing with the stdout exporter. If
// outputFile is empty traces go to stdout. The first successful
// initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom exporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
