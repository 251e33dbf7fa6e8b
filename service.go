package insitu

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/insitu/internal/idgen"
	"github.com/viant/insitu/internal/logging"
	"github.com/viant/insitu/metrics"
	"github.com/viant/insitu/program"
	"github.com/viant/insitu/runtime/puppet"
	"github.com/viant/insitu/service/event"
	"github.com/viant/insitu/service/scheduler"
	"github.com/viant/insitu/tracing"
	"go.uber.org/zap"
)

// Service holds what every rank of a session shares: configuration,
// registries and the observability stack.
type Service struct {
	config       *Config
	logger       *zap.Logger
	registry     *puppet.Registry
	functions    *scheduler.Functions
	eventService *event.Service
	registerer   prometheus.Registerer
	metrics      *metrics.Collectors
	sessionID    string
}

// New creates a service.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.ensureBaseSetup(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.logger == nil {
		logger, err := logging.New(s.config.Logging)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if err := tracing.InitConfig(s.config.Tracing); err != nil {
		return fmt.Errorf("failed to initialise tracing: %w", err)
	}
	if s.registry == nil {
		s.registry = puppet.NewRegistry()
	}
	program.Register(s.registry)
	if s.functions == nil {
		s.functions = scheduler.NewFunctions()
	}
	if s.sessionID == "" {
		s.sessionID = idgen.New()
	}
	var err error
	if s.metrics, err = metrics.New(s.registerer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	return nil
}

// Config returns the configuration.
func (s *Service) Config() *Config { return s.config }

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger { return s.logger }

// Registry returns the puppet program registry.
func (s *Service) Registry() *puppet.Registry { return s.registry }

// Functions returns the scheduler function registry.
func (s *Service) Functions() *scheduler.Functions { return s.functions }

// Metrics returns the runtime collectors.
func (s *Service) Metrics() *metrics.Collectors { return s.metrics }

// SessionID returns the id carried by events.
func (s *Service) SessionID() string { return s.sessionID }

// RegisterProgram adds a puppet program.
func (s *Service) RegisterProgram(name string, program puppet.Program) {
	s.registry.Register(name, program)
}

// RegisterFunction adds a scheduler function.
func (s *Service) RegisterFunction(name string, fn scheduler.Function) {
	s.functions.Register(name, fn)
}

// Close flushes the logger.
func (s *Service) Close() error {
	_ = s.logger.Sync()
	return nil
}
