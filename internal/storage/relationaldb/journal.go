// Package relationaldb keeps the keeper's run journal in SQL. PostgreSQL and
// SQLite are supported through database/sql.
package relationaldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Run is one keeper invocation.
type Run struct {
	ID        uuid.UUID     `json:"id"`
	Contract  string        `json:"contract"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Height    uint64        `json:"height"`
	// Factors is the comma-joined pair on success.
	Factors string `json:"factors,omitempty"`
	// ErrorKind and Error are empty on success.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OK reports whether the run succeeded.
func (r Run) OK() bool { return r.Error == "" }

// NewRun starts a run record for contract.
func NewRun(contract string, startedAt time.Time) Run {
	return Run{ID: uuid.New(), Contract: contract, StartedAt: startedAt}
}

// executor interface allows using both sql.DB and sql.Tx
type executor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS keeper_runs (
		id          TEXT PRIMARY KEY,
		contract    TEXT NOT NULL,
		started_at  BIGINT NOT NULL,
		duration_ns BIGINT NOT NULL,
		height      BIGINT NOT NULL,
		factors     TEXT NOT NULL,
		error_kind  TEXT NOT NULL,
		error       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_keeper_runs_contract ON keeper_runs (contract, started_at)`,
}

// Journal records keeper runs.
type Journal struct {
	db     *sql.DB
	config *Config
}

// Open connects and creates the schema if needed.
func Open(ctx context.Context, config *Config) (*Journal, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("open", "invalid configuration", err)
	}
	connStr, err := config.BuildConnectionString()
	if err != nil {
		return nil, NewConfigurationError("open", "failed to build connection string", err)
	}

	sqlDB, err := sql.Open(config.Driver, connStr)
	if err != nil {
		return nil, NewConnectionError("open", "failed to open database connection", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, NewConnectionError("open", "failed to ping database", err)
	}

	j := &Journal{db: sqlDB, config: config}
	if err := j.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return NewSchemaError("migrate", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return NewSchemaError("migrate", "failed to apply schema", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return NewSchemaError("migrate", "failed to commit schema", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (j *Journal) rebind(query string) string {
	if j.config.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (j *Journal) conn() (executor, error) {
	if j.db == nil {
		return nil, ErrDatabaseClosed
	}
	return j.db, nil
}

// Record inserts run.
func (j *Journal) Record(ctx context.Context, run Run) error {
	db, err := j.conn()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	_, err = db.ExecContext(ctx, j.rebind(`INSERT INTO keeper_runs
		(id, contract, started_at, duration_ns, height, factors, error_kind, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(), run.Contract, run.StartedAt.UnixNano(), int64(run.Duration),
		int64(run.Height), run.Factors, run.ErrorKind, run.Error)
	if err != nil {
		return NewQueryError("record", "failed to insert run", err)
	}
	return nil
}

const selectRuns = `SELECT id, contract, started_at, duration_ns, height, factors, error_kind, error FROM keeper_runs`

// Recent returns the latest runs for contract, newest first. An empty
// contract matches every contract.
func (j *Journal) Recent(ctx context.Context, contract string, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	db, err := j.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	query := selectRuns
	args := []interface{}{}
	if contract != "" {
		query += ` WHERE contract = ?`
		args = append(args, contract)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, j.rebind(query), args...)
	if err != nil {
		return nil, NewQueryError("recent", "failed to query runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("recent", "failed to iterate runs", err)
	}
	return runs, nil
}

// Get returns a run by id.
func (j *Journal) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	db, err := j.conn()
	if err != nil {
		return Run{}, err
	}
	row := db.QueryRowContext(ctx, j.rebind(selectRuns+` WHERE id = ?`), id.String())
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run                         Run
		id                          string
		startedAt, duration, height int64
	)
	if err := s.Scan(&id, &run.Contract, &startedAt, &duration, &height, &run.Factors, &run.ErrorKind, &run.Error); err != nil {
		if err == sql.ErrNoRows {
			return run, err
		}
		return run, NewQueryError("scan", "failed to scan run", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return run, NewQueryError("scan", "invalid run id", err)
	}
	run.ID = parsed
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.Duration = time.Duration(duration)
	run.Height = uint64(height)
	return run, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}
