// Package selector defines the node selection policy interface and
// implements the available algorithms:
//
//   - Round Robin: deterministic cycling across eligible connections
//   - Random: uniform random pick, for callers that prefer decorrelated load
//
// Selectors operate on the eligible set the pool hands them; liveness
// filtering and revival are the pool's concern, not the selector's.
package selector
