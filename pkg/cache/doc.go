// Package cache decides whether a project tree changed since it was last
// deployed from this machine.
//
// Every deployed tree is recorded as a Snapshot: a mapping from each file's
// slash-separated path relative to the project root to a Fingerprint of its
// contents. The snapshot of the last upload is persisted in the tool home, and
// the next deploy compares a fresh scan against it.
//
// The cache is only an optimization. Callers treat any error from this
// package as "the cache can't be used" and upload unconditionally.
package cache
