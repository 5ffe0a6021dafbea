// Package diagnostic provides structured findings for the migration pipeline.
//
// Structural problems in a bundle (dangling cascade parents, cascade cycles)
// and questionable mapping decisions are reported as findings attached to the
// stage output, never as panics: the rest of the bundle must stay processable.
//
// Key capabilities:
//   - Error findings for structural violations
//   - Warning findings for degraded checks (weak-confidence pairings)
//   - Info findings for decisions worth surfacing in the migration report
package diagnostic
