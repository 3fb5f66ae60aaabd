// Package testutil provides a buffered slog handler with assertion helpers
// and generators for synthetic plant logs, so that packages above the
// pipeline can test against real encoded tables instead of hand-built records.
package testutil
