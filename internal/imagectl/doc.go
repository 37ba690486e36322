// Package imagectl owns the image lifecycle of the definition slot being
// displayed: resolve a persisted path, generate a new illustration, upload a
// user-chosen file, or delete, with attempt-limited automatic retry and
// cache-busting.
package imagectl
