package recorder

import (
	"database/sql"
	"os"
	"sync"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
)

const defaultBatchSize = 1000

type assignmentEntry struct {
	runID    string
	round    int
	order    int
	caseID   int64
	taskType string
	resource string
}

type eventEntry struct {
	runID     string
	lifecycle string
	caseID    int64
	taskType  string
	resource  string
	timestamp float64
}

// SQLite buffers decisions and events and writes them to a sqlite database in batches
type SQLite struct {
	db          *sql.DB
	batchSize   int
	assignments []assignmentEntry
	events      []eventEntry
	m           sync.Mutex
}

// New creates the recorder writing to <path>.sqlite3, empty path gets a generated name
func New(path string) (*SQLite, error) {
	if path == "" {
		path = "bpoc_decisions_" + xid.New().String()
	}
	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("File %s already exists", filename)
	}
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open "+filename)
	}
	res, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	atexit.Register(func() { cmdapp.LogIf(res.Flush()) })
	cmdapp.Log.Infof("Recording decisions to: %s", filename)
	return res, nil
}

// NewWithDB creates the recorder on an open database
func NewWithDB(db *sql.DB) (*SQLite, error) {
	res := &SQLite{db: db, batchSize: defaultBatchSize}
	if err := res.createTables(); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *SQLite) createTables() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS assignment (
	RunID TEXT,
	Round INTEGER,
	Pos INTEGER,
	CaseID INTEGER,
	TaskType TEXT,
	Resource TEXT
);`)
	if err != nil {
		return errors.Wrap(err, "Can't create assignment table")
	}
	_, err = r.db.Exec(`CREATE TABLE IF NOT EXISTS event (
	RunID TEXT,
	Lifecycle TEXT,
	CaseID INTEGER,
	TaskType TEXT,
	Resource TEXT,
	Timestamp REAL
);`)
	return errors.Wrap(err, "Can't create event table")
}

// RecordDecision buffers assignments of one round
func (r *SQLite) RecordDecision(runID string, round int, as []api.Assignment) error {
	r.m.Lock()
	for i, a := range as {
		r.assignments = append(r.assignments, assignmentEntry{runID: runID, round: round, order: i,
			caseID: a.Task.CaseID, taskType: string(a.Task.Type), resource: string(a.Resource)})
	}
	full := r.size() >= r.batchSize
	r.m.Unlock()
	if full {
		return r.Flush()
	}
	return nil
}

// RecordEvent buffers a lifecycle event
func (r *SQLite) RecordEvent(runID string, e *api.Event) error {
	r.m.Lock()
	r.events = append(r.events, eventEntry{runID: runID, lifecycle: e.Lifecycle.String(), caseID: e.Task.CaseID,
		taskType: string(e.Task.Type), resource: string(e.Resource), timestamp: e.Timestamp})
	full := r.size() >= r.batchSize
	r.m.Unlock()
	if full {
		return r.Flush()
	}
	return nil
}

func (r *SQLite) size() int {
	return len(r.assignments) + len(r.events)
}

// Flush writes all buffered entries in one transaction.
// Entries of a failed write are dropped
func (r *SQLite) Flush() error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.size() == 0 {
		return nil
	}
	err := r.write()
	if err != nil {
		cmdapp.Log.Warnf("Dropped %d entries", r.size())
	}
	r.assignments = nil
	r.events = nil
	return err
}

func (r *SQLite) write() error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	if err := r.writeAssignments(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := r.writeEvents(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "Can't commit")
}

func (r *SQLite) writeAssignments(tx *sql.Tx) error {
	if len(r.assignments) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("INSERT INTO assignment VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "Can't prepare")
	}
	defer stmt.Close()
	for _, a := range r.assignments {
		if _, err := stmt.Exec(a.runID, a.round, a.order, a.caseID, a.taskType, a.resource); err != nil {
			return errors.Wrap(err, "Can't insert assignment")
		}
	}
	return nil
}

func (r *SQLite) writeEvents(tx *sql.Tx) error {
	if len(r.events) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("INSERT INTO event VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "Can't prepare")
	}
	defer stmt.Close()
	for _, e := range r.events {
		if _, err := stmt.Exec(e.runID, e.lifecycle, e.caseID, e.taskType, e.resource, e.timestamp); err != nil {
			return errors.Wrap(err, "Can't insert event")
		}
	}
	return nil
}

// Close flushes and closes the database
func (r *SQLite) Close() error {
	err := r.Flush()
	cmdapp.LogIf(r.db.Close())
	return err
}
