package program

import "github.com/viant/insitu/runtime/puppet"

// Names of the built-in programs.
const (
	NameSimulation = "simulation"
	NameAnalysis   = "analysis"
	NameSend       = "send"
	NameReceive    = "receive"
)

// Register installs the built-in programs in registry.
func Register(registry *puppet.Registry) {
	registry.Register(NameSimulation, Simulation)
	registry.Register(NameAnalysis, Analysis)
	registry.Register(NameSend, Send)
	registry.Register(NameReceive, Receive)
}
