package insitu

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/insitu/internal/logging"
	"github.com/viant/insitu/service/scheduler"
	"github.com/viant/insitu/tracing"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from YAML or JSON; DefaultConfig provides the values used
// when a section is omitted.
type Config struct {
	Logging   logging.Config   `json:"logging" yaml:"logging"`
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Tracing   tracing.Config   `json:"tracing" yaml:"tracing"`
	Puppet    PuppetConfig     `json:"puppet" yaml:"puppet"`
}

// PuppetConfig controls how program paths are resolved.
type PuppetConfig struct {
	// Prefix is joined with relative program paths.
	Prefix string `json:"prefix" yaml:"prefix"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging:   logging.DefaultConfig(),
		Scheduler: scheduler.DefaultConfig(),
		Tracing:   tracing.Config{ServiceName: "insitu", ServiceVersion: "dev"},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Scheduler.Controllers < 1 {
		return fmt.Errorf("scheduler.controllers must be >= 1")
	}
	if c.Scheduler.PollingInterval <= 0 {
		return fmt.Errorf("scheduler.pollingInterval must be > 0")
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing.serviceName is required when tracing is enabled")
	}
	return nil
}

// LoadConfig reads a YAML configuration from any afs supported URL on top of
// DefaultConfig.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
