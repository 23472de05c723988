// Package journal records Go class method calls made from oruby into SQLite.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ygrebnov/errorc"
)

var namespace = errorc.Namespace("journal")

// Sentinel errors, use errors.Is to match.
var (
	ErrOpen   = namespace.NewError("cannot open journal")
	ErrRecord = namespace.NewError("cannot record call")
	ErrQuery  = namespace.NewError("cannot query journal")
)

var newKey = errorc.KeyFactory("journal")

// Structured error field keys
var (
	ErrorFieldPath   = newKey("path")           // journal.path
	ErrorFieldMethod = newKey("method", "call") // journal.call.method
	ErrorFieldCause  = newKey("cause")          // journal.cause
)

const schema = `
create table if not exists calls (
	id       integer not null primary key autoincrement,
	class    text not null,
	method   text not null,
	receiver text not null,
	args     text not null,
	result   text not null,
	error    text not null,
	at       integer not null
)`

// Entry is one recorded call
type Entry struct {
	ID       int64
	Class    string
	Method   string
	Receiver string
	Args     []string
	Result   string
	Error    string
	Time     time.Time
}

// Journal is SQLite journal of calls
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens journal at path, creating the calls table if needed.
// Use ":memory:" for journal which is dropped on Close.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errorc.With(ErrOpen, errorc.String(ErrorFieldPath, path), errorc.String(ErrorFieldCause, err.Error()))
	}

	// :memory: database lives per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errorc.With(ErrOpen, errorc.String(ErrorFieldPath, path), errorc.String(ErrorFieldCause, err.Error()))
	}

	return &Journal{db: db, path: path}, nil
}

// Record appends entry. Zero entry time is set to now.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Args == nil {
		e.Args = []string{}
	}

	args, err := json.Marshal(e.Args)
	if err != nil {
		return j.recordErr(e, err)
	}

	_, err = j.db.ExecContext(ctx,
		`insert into calls (class, method, receiver, args, result, error, at) values (?, ?, ?, ?, ?, ?, ?)`,
		e.Class, e.Method, e.Receiver, string(args), e.Result, e.Error, e.Time.UnixNano(),
	)
	if err != nil {
		return j.recordErr(e, err)
	}

	return nil
}

func (j *Journal) recordErr(e Entry, err error) error {
	return errorc.With(ErrRecord,
		errorc.String(ErrorFieldPath, j.path),
		errorc.String(ErrorFieldMethod, e.Class+"#"+e.Method),
		errorc.String(ErrorFieldCause, err.Error()),
	)
}

// Entries returns recorded entries in insertion order
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`select id, class, method, receiver, args, result, error, at from calls order by id`)
	if err != nil {
		return nil, j.queryErr(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			args string
			at   int64
		)
		if err := rows.Scan(&e.ID, &e.Class, &e.Method, &e.Receiver, &args, &e.Result, &e.Error, &at); err != nil {
			return nil, j.queryErr(err)
		}
		if err := json.Unmarshal([]byte(args), &e.Args); err != nil {
			return nil, j.queryErr(err)
		}
		e.Time = time.Unix(0, at)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, j.queryErr(err)
	}

	return entries, nil
}

func (j *Journal) queryErr(err error) error {
	return errorc.With(ErrQuery, errorc.String(ErrorFieldPath, j.path), errorc.String(ErrorFieldCause, err.Error()))
}

// Close closes journal database
func (j *Journal) Close() error {
	return j.db.Close()
}
