// Package scheduler distributes work items from a controller rank to
// dynamically formed groups of worker ranks.
//
// Ranks below the configured controller count are controllers; rank 0 leads
// them and owns the work queue. The controller polls Control, which assigns
// queued items first-fit in submission order to the lowest-numbered idle
// workers and collects completions, never blocking. Workers block in Listen.
// Each assigned group gets its own communicator, process map and name map,
// so concurrently running items never share group identities.
package scheduler
