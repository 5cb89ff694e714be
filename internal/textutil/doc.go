// Package textutil provides filename sanitization and title derivation
// helpers shared across the pipeline.
package textutil
