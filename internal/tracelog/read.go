package tracelog

import (
	"database/sql"
	"fmt"
)

// Entry is one row read back from a trace log.
type Entry struct {
	Seq            uint64
	Kind           string
	RuleIndex      int
	ConditionIndex int
	StatementIndex int
	SensorID       string
	Channel        string
	Detail         string
	RecordedAt     string
}

// All returns every recorded entry in sequence order.
func (l *Log) All() ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT seq, kind, rule_index, condition_index, statement_index, sensor_id, channel, detail, recorded_at
		 FROM events ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("tracelog: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ruleIdx, condIdx, stmtIdx sql.NullInt64
		if err := rows.Scan(&e.Seq, &e.Kind, &ruleIdx, &condIdx, &stmtIdx, &e.SensorID, &e.Channel, &e.Detail, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("tracelog: scan: %w", err)
		}
		e.RuleIndex = int(ruleIdx.Int64)
		e.ConditionIndex = int(condIdx.Int64)
		e.StatementIndex = int(stmtIdx.Int64)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tracelog: rows: %w", err)
	}
	return out, nil
}
