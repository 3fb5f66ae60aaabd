// Package analytics computes statistics over consolidated batch records.
//
// Every function here is pure: it reads an immutable slice of
// domain.BatchRecord and returns plain values. Three analyses are provided:
//
//   - DetectDegradation fits a least-squares trend to the duration of every
//     (equipment group, step) pair across batches and flags upward drifts.
//   - Capability computes Cp and Cpk of a sample against specification limits.
//   - ControlChart annotates a sample against mean ± 3σ control limits.
//
// StepDurations and ParameterValues extract the chronological sample series the
// last two operate on, and Report runs all three for one selection concurrently.
package analytics
