// Package eventlog persists the events fired during an experiment run to a
// SQLite database, so a run leaves a timeline that can be analysed offline.
package eventlog

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/hfxlab/tempo/agent"
)

const eventTable = "events"

// An EventRow is the flattened form of an agent.Event as stored in the
// database.
type EventRow struct {
	ID          string
	RunID       string
	Agent       string
	Action      string
	Source      int
	Due         string
	Fired       string
	OvershootMS float64
	Error       string
}

const rowTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// A Recorder buffers rows and writes them to a SQLite database in batches.
// It implements agent.EventSink, so it can be attached directly to timed
// agents. Storage errors panic: a run whose log cannot be written has no
// value and must not continue silently.
type Recorder struct {
	db        *sql.DB
	runID     string
	tables    map[string]*table
	batchSize int
}

type table struct {
	sample  any
	columns []string
	entries []any
}

// NewRecorder creates a Recorder writing to path + ".sqlite3". An empty
// path picks a unique file name. The file must not already exist. Buffered
// rows are flushed at process exit.
func NewRecorder(path string) *Recorder {
	if path == "" {
		path = "tempo_run_" + xid.New().String()
	}
	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("event log %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r := &Recorder{
		db:        db,
		runID:     xid.New().String(),
		tables:    make(map[string]*table),
		batchSize: 1024,
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// RunID identifies this run in the recorded rows.
func (r *Recorder) RunID() string {
	return r.runID
}

// CreateTable creates a table whose columns mirror the fields of the
// sample struct.
func (r *Recorder) CreateTable(name string, sample any) {
	if _, ok := r.tables[name]; ok {
		panic(fmt.Errorf("table %s already created", name))
	}

	fields := structs.Fields(sample)
	columns := make([]string, 0, len(fields))
	defs := make([]string, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f.Name())
		defs = append(defs, f.Name()+" "+sqlType(f.Value()))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
	if _, err := r.db.Exec(stmt); err != nil {
		panic(err)
	}

	r.tables[name] = &table{sample: sample, columns: columns}
}

// Insert buffers one row for the named table. The entry must be of the same
// struct type the table was created with.
func (r *Recorder) Insert(name string, entry any) {
	t, ok := r.tables[name]
	if !ok {
		panic(fmt.Errorf("table %s does not exist", name))
	}
	if reflect.TypeOf(entry) != reflect.TypeOf(t.sample) {
		panic(fmt.Errorf("entry type %T does not match table %s", entry, name))
	}

	t.entries = append(t.entries, entry)
	if len(t.entries) >= r.batchSize {
		r.Flush()
	}
}

// Record implements agent.EventSink.
func (r *Recorder) Record(evt agent.Event) {
	if _, ok := r.tables[eventTable]; !ok {
		r.CreateTable(eventTable, EventRow{})
	}

	row := EventRow{
		ID:          evt.ID,
		RunID:       r.runID,
		Agent:       evt.Agent,
		Action:      evt.Action,
		Source:      evt.Source,
		Fired:       evt.Fired.Format(rowTimeFormat),
		OvershootMS: float64(evt.Overshoot.Microseconds()) / 1000.0,
	}
	if !evt.Due.IsZero() {
		row.Due = evt.Due.Format(rowTimeFormat)
	}
	if msg, ok := evt.Detail["error"].(string); ok {
		row.Error = msg
	}

	r.Insert(eventTable, row)
}

// Flush writes all buffered rows in one transaction.
func (r *Recorder) Flush() {
	tx, err := r.db.Begin()
	if err != nil {
		panic(err)
	}

	for name, t := range r.tables {
		if len(t.entries) == 0 {
			continue
		}

		placeholders := strings.TrimSuffix(
			strings.Repeat("?, ", len(t.columns)), ", ")
		stmt, err := tx.Prepare(fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			name, strings.Join(t.columns, ", "), placeholders))
		if err != nil {
			panic(err)
		}

		for _, entry := range t.entries {
			if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
				panic(err)
			}
		}

		if err := stmt.Close(); err != nil {
			panic(err)
		}
		t.entries = nil
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}
}

// Close flushes and closes the database.
func (r *Recorder) Close() {
	r.Flush()
	if err := r.db.Close(); err != nil {
		panic(err)
	}
}

func sqlType(v any) string {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Bool:
		return "INTEGER"
	case reflect.Float32, reflect.Float64:
		return "REAL"
	default:
		return "TEXT"
	}
}
