// Package comm defines the communicator abstraction the runtime uses for all
// cross-rank cooperation: ranked endpoints exchanging tagged point-to-point
// messages, sub-communicators with private message contexts, and a few
// collectives layered on top.
//
// The runtime never owns a communicator it was handed; whoever created it
// closes it. The in-process implementation lives in comm/memory.
package comm
