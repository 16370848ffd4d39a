// Package metrics collects transport events through a buffered channel and
// maintains per-node counters in Prometheus exposition format. Event
// emission is non-blocking so a slow or absent collector can never stall a
// request.
package metrics
