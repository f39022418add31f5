// Package engine implements the reactive execution engine: a Controller
// owns the lifetime of a running compiled.Script: it subscribes to every
// referenced sensor and spawns one worker per running script that tracks
// per-rule truth state, detects rising edges, and dispatches statements.
package engine
