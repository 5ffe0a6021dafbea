// Package validate compares an original bundle against its rewritten
// sibling and probes the reachability of every new collection, producing a
// validation report.
//
// The validator never mutates either bundle. Probe failures are recorded,
// never fatal to the rewrite itself; whether they block the final commit is
// the caller's policy.
package validate
