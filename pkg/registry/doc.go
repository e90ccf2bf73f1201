// Package registry publishes and fetches signed policy bundles as OCI
// artifacts, resolves SemVer version constraints against a repository's
// tag list, and maintains a local LRU file cache for offline/degraded
// operation.
package registry
