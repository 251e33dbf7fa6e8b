package puppet

// Status is the lifecycle state of a puppet.
type Status int32

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not started"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	}
	return "unknown"
}

// Transition is the payload of puppet lifecycle events.
type Transition struct {
	Puppet string `json:"puppet"`
	Path   string `json:"path"`
	Status string `json:"status"`
	Steps  int    `json:"steps"`
	Error  string `json:"error,omitempty"`
}
