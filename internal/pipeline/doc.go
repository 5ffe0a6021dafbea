// Package pipeline sequences load, discovery, resolution, rewrite, and
// validation into one migration run and aggregates the migration report.
//
// It is the only package that talks to external collaborators: the bundle
// store (fetch/import) and the reachability probe. No stage writes anything
// until the run explicitly commits the rewritten bundle, so a run can be
// abandoned between stages without side effects. Runs are independent;
// several bundles can migrate in parallel with their own mappings.
package pipeline
