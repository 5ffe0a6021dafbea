// Package platform implements the external collaborators against a live
// form-platform instance: bundle export/import over its REST API and the
// reachability probe for reference-data collections.
//
// The engine core never imports this package; it only sees the store and
// probe interfaces. Instance configuration comes from a YAML document with
// password-from-environment indirection so credentials stay out of files.
package platform
