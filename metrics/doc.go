// Package metrics counts executor activity per entity and store sizes per
// store. Counters are plain values readable through Snapshot; Collector
// exposes the same numbers to a Prometheus registry.
package metrics
