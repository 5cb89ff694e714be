// Package queue persists per-run media items in SQLite so a run can be
// inspected while it executes and audited afterwards.
package queue
