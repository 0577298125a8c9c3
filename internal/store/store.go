// Package store keeps the history of analysis runs in a SQL database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is one persisted analysis.
type Run struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
	TotalColumns int       `json:"total_columns"`
	Completeness float64   `json:"completeness"`
	ResultJSON   string    `json:"result_json,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a run repository over database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects, pings and migrates. MySQL DSNs need parseTime=true.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver = normalizeDriver(driver)
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported store driver %q (use sqlite3, postgres or mysql)", driver)
	}
	if driver == DriverSQLite {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	switch driver {
	case DriverSQLite:
		// One writer at a time.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// ensureSQLiteDir creates the parent directory of a plain file DSN.
func ensureSQLiteDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	return nil
}

func normalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	case "mysql", "mariadb":
		return DriverMySQL
	}
	return d
}

func (s *Store) Close() error { return s.db.Close() }

// Driver reports the normalized driver name.
func (s *Store) Driver() string { return s.driver }

func (s *Store) migrate(ctx context.Context) error {
	textType, floatType := "TEXT", "DOUBLE PRECISION"
	switch s.driver {
	case DriverMySQL:
		textType, floatType = "LONGTEXT", "DOUBLE"
	case DriverSQLite:
		floatType = "REAL"
	}
	q := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS analysis_runs (
 id VARCHAR(64) PRIMARY KEY,
 source VARCHAR(1024) NOT NULL,
 status VARCHAR(32) NOT NULL,
 message %[1]s,
 total_columns INTEGER NOT NULL DEFAULT 0,
 completeness %[2]s NOT NULL DEFAULT 0,
 result_json %[1]s,
 created_at TIMESTAMP NOT NULL
)`, textType, floatType)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("migrate analysis_runs: %w", err)
	}
	return nil
}

// SaveRun inserts a run or updates the mutable fields of an existing one.
func (s *Store) SaveRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return errors.New("run id is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	const insert = `
INSERT INTO analysis_runs
(id, source, status, message, total_columns, completeness, result_json, created_at)
VALUES (?,?,?,?,?,?,?,?)`
	var q string
	if s.driver == DriverMySQL {
		q = insert + `
ON DUPLICATE KEY UPDATE
 status=VALUES(status), message=VALUES(message),
 total_columns=VALUES(total_columns), completeness=VALUES(completeness),
 result_json=VALUES(result_json)`
	} else {
		q = insert + `
ON CONFLICT (id) DO UPDATE SET
 status=excluded.status, message=excluded.message,
 total_columns=excluded.total_columns, completeness=excluded.completeness,
 result_json=excluded.result_json`
	}
	_, err := s.db.ExecContext(ctx, s.rebind(q),
		r.ID, r.Source, r.Status, r.Message, r.TotalColumns, r.Completeness, r.ResultJSON, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

const selectRun = `SELECT id, source, status, message, total_columns, completeness, result_json, created_at FROM analysis_runs`

// GetRun loads a run including its result JSON.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectRun+` WHERE id=?`), id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns the newest runs first, without their result JSON.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(selectRun+` ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	out := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		r.ResultJSON = ""
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var msg, result sql.NullString
	if err := sc.Scan(&r.ID, &r.Source, &r.Status, &msg, &r.TotalColumns, &r.Completeness, &result, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Message = msg.String
	r.ResultJSON = result.String
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// rebind rewrites ? placeholders into the driver's dialect.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, ch := range q {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
