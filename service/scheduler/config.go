package scheduler

import (
	"fmt"
	"time"
)

// Config represents scheduler configuration
type Config struct {
	// Controllers is the number of controller ranks, counted from rank 0.
	Controllers int `json:"controllers" yaml:"controllers"`
	// PollingInterval is how often Drive calls Control.
	PollingInterval time.Duration `json:"pollingInterval" yaml:"pollingInterval"`
	// LogItemTimes logs the duration of every item on Finish.
	LogItemTimes bool `json:"logItemTimes" yaml:"logItemTimes"`
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Controllers:     1,
		PollingInterval: 5 * time.Millisecond,
		LogItemTimes:    true,
	}
}

// Validate checks config against a world of size ranks.
func (c Config) Validate(size int) error {
	if c.Controllers < 1 {
		return fmt.Errorf("scheduler.controllers must be >= 1, got %d", c.Controllers)
	}
	if c.Controllers >= size {
		return fmt.Errorf("scheduler.controllers (%d) leaves no workers in %d ranks", c.Controllers, size)
	}
	if c.PollingInterval <= 0 {
		return fmt.Errorf("scheduler.pollingInterval must be > 0")
	}
	return nil
}
