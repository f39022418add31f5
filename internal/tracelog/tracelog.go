// Package tracelog is a one-way, append-only observability sink for
// engine.Event. It exists purely for operator debugging and replay-for-
// humans via the CLI's trace subcommand: it is never consulted to restore
// engine truth state, which would violate the rule engine's
// no-cross-restart-persistence contract.
package tracelog

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hearthbox/rulehub/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Log is a SQLite-backed append-only recorder of engine events.
type Log struct {
	db      *sql.DB
	lastErr error
}

// Open creates or opens a SQLite database at path, configured for a single
// writer (the engine emits events from one worker goroutine at a time per
// running script, so this matches the access pattern exactly).
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("tracelog: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracelog: ping %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracelog: apply schema: %w", err)
	}

	return &Log{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("tracelog: %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one engine event to the log and returns any insert error;
// callers should log and continue rather than let a trace-log failure
// interrupt the engine.
func (l *Log) Record(e engine.Event) error {
	kind, sensorID, detail := describe(e)
	_, err := l.db.Exec(
		`INSERT INTO events (seq, kind, rule_index, condition_index, statement_index, sensor_id, channel, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, kind, e.RuleIndex, e.ConditionIndex, e.StatementIndex, sensorID, e.Channel, detail,
	)
	if err != nil {
		return fmt.Errorf("tracelog: record seq %d: %w", e.Seq, err)
	}
	return nil
}

// Sink returns a func(engine.Event) suitable for passing directly to
// engine.Controller.Start, wrapping Record and swallowing its error aside
// from a best-effort stash of the last one (retrievable via LastError).
func (l *Log) Sink() func(engine.Event) {
	return func(e engine.Event) {
		if err := l.Record(e); err != nil {
			l.lastErr = err
		}
	}
}

// LastError returns the most recent error encountered by a sink created
// with Sink, if any.
func (l *Log) LastError() error {
	return l.lastErr
}

func describe(e engine.Event) (kind, sensorID, detail string) {
	switch e.Kind {
	case engine.Starting:
		return "starting", "", resultDetail(e.Result)
	case engine.Updated:
		return "updated", e.WatchEvent.SensorID, fmt.Sprintf("watch_kind=%d", e.WatchEvent.Kind)
	case engine.Sent:
		return "sent", "", fmt.Sprintf("results=%d", len(e.SentResults))
	case engine.ChannelError:
		return "channel_error", "", resultDetail(e.ChannelErr)
	case engine.Stopped:
		return "stopped", "", resultDetail(e.Result)
	default:
		return "unknown", "", ""
	}
}

func resultDetail(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}
