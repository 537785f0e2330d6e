package eventlog

import (
	"database/sql"
	"fmt"
)

// A Reader reads back a recorded event log, mainly for tests and analysis
// tooling.
type Reader struct {
	db *sql.DB
}

// NewReader opens an existing event log database file.
func NewReader(filename string) *Reader {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}
	return &Reader{db: db}
}

// Count returns the number of rows in the named table.
func (r *Reader) Count(tableName string) (int, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName))
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Events returns all recorded events ordered by firing time.
func (r *Reader) Events() ([]EventRow, error) {
	rows, err := r.db.Query(fmt.Sprintf(
		"SELECT ID, RunID, Agent, Action, Source, Due, Fired, OvershootMS, Error "+
			"FROM %s ORDER BY Fired", eventTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		err := rows.Scan(&e.ID, &e.RunID, &e.Agent, &e.Action, &e.Source,
			&e.Due, &e.Fired, &e.OvershootMS, &e.Error)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}
