// Package snapshot stores per-environment feature state snapshots and wires
// them into the flagstate core.
//
//   - Store loads and saves one Environment snapshot per Ref.
//   - Service loads snapshots and runs comparison, version diffing and
//     resolution against them, emitting activity events for each run.
//   - The flagstate core stays storage-agnostic; persistence lives behind
//     Store implementations supplied by callers.
package snapshot
