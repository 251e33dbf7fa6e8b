// Package progress keeps the aggregated work item counters of one scheduler
// run. The tracker can travel in a context so that any component holding the
// context can apply deltas without a global registry.
package progress
