// Package observability provides the digest event log, metrics derived
// from it, and the debug logger. Events are persisted as JSON Lines
// (JSONL); metrics are computed on demand from the log.
package observability
