// Package task manages the lifecycle of background document analyses. It
// provides the in-memory task registry that bridges a background computation
// back to a polling caller, the bounded runner that executes analyses off the
// request path, and the periodic sweep that evicts stale entries.
package task
