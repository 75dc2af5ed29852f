// Package cascade resolves the prefill mappings of one stage transition
// against a project's scoping snapshot and stage history.
//
// Resolution pipeline, per mapping in declaration order:
//  1. manual and blocked rules are recorded as skipped, with distinct reasons
//  2. direct rules copy the snapshot value
//  3. chain rules copy the most recent value committed to an earlier stage
//  4. transform and calculation rules call the derivation registry; errors,
//     panics and empty results are recorded as skips, never as failures of
//     the whole cascade
//  5. static rules always resolve
//
// Resolve is pure. It reads deep copies of its inputs, hands every derivation
// its own copy, and returns freshly allocated output, so it is safe to call
// concurrently and repeatedly for previews and before a commit.
package cascade
