// Package diagnostic provides structured errors and warnings produced while
// loading and validating a prefill mapping table.
//
// Key capabilities:
//   - Stable error codes for every rejected rule
//   - Transition and field context on each message
//   - "Did you mean" suggestions for misspelled fields and keys
package diagnostic
