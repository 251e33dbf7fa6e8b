package event

import (
	"time"

	"github.com/viant/insitu/internal/clock"
)

// Event types published by the runtime.
const (
	TypePuppetStarted  = "puppet.started"
	TypePuppetStepped  = "puppet.stepped"
	TypePuppetStopped  = "puppet.stopped"
	TypePuppetFailed   = "puppet.failed"
	TypeItemScheduled  = "item.scheduled"
	TypeItemAssigned   = "item.assigned"
	TypeItemCompleted  = "item.completed"
	TypeItemFailed     = "item.failed"
	TypeWorkerStopped  = "worker.stopped"
	TypeSessionStarted = "session.started"
	TypeSessionEnded   = "session.ended"
)

// Context identifies where an event originated.
type Context struct {
	SessionID   string `json:"sessionID,omitempty"`
	Subject     string `json:"subject"`
	EventType   string `json:"eventType"`
	Rank        int    `json:"rank"`
	Group       string `json:"group,omitempty"`
	TimeTakenMs int    `json:"timeTakenMs,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
