// Package logging assembles the structured slog loggers and the ordered event
// stream used across the pipeline.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code automatically tags log lines
// with item IDs, stages, and source profiles. The EventHub carries the same
// records to the pipeline's caller as an ordered, bounded event stream.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape and routing as the rest of the system.
package logging
