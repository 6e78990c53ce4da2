package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/banbridge/bus"
	_ "modernc.org/sqlite"
)

// Millisecond precision, always UTC. The fixed width keeps string
// comparison in SQL consistent with time ordering.
const timeFormat = "2006-01-02T15:04:05.000Z"

// Database wraps the sqlite store and the live bus handle. Mutations
// publish invalidation events after they commit; the bus reference may be
// shared with any number of publishers.
type Database struct {
	db   *sql.DB
	live *bus.Bus

	// Page size of the incremental ban change feed.
	banChangesMaxRows int
}

// Connect opens (and creates if needed) the sqlite database at path and
// ensures the schema exists.
func Connect(path string, live *bus.Bus) (*Database, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// sqlite has a single writer; funneling through one connection avoids
	// spurious SQLITE_BUSY under concurrent requests.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	database := &Database{
		db:                sqlDB,
		live:              live,
		banChangesMaxRows: 500,
	}

	if err := database.createTables(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Printf("Connected to sqlite database at %s", path)
	return database, nil
}

// SetBanChangesMaxRows overrides the change feed page size (floor 1).
func (database *Database) SetBanChangesMaxRows(n int) {
	if n < 1 {
		n = 1
	}
	database.banChangesMaxRows = n
}

func (database *Database) Close() error {
	return database.db.Close()
}

// Ping reports whether the store is reachable, for the health endpoint.
func (database *Database) Ping() bool {
	var one int
	err := database.db.QueryRow("SELECT 1").Scan(&one)
	return err == nil
}

func (database *Database) createTables() error {
	stmts := []string{
		sqlCreatePlayersTable,
		sqlCreateBansTable,
		sqlCreateBansIndices,
		sqlCreateBanTargetsTable,
		sqlCreateBanEventsTable,
		sqlCreateServerCommandsTable,
		sqlCreateServerCommandsIndices,
		sqlCreateMetricsLatestTable,
		sqlCreateMetricsHistoryTable,
		sqlCreateMetricsHistoryIndices,
		sqlCreatePlayerStatsTable,
		sqlCreateServersTable,
		sqlCreateAuditLogTable,
	}
	for _, stmt := range stmts {
		if _, err := database.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// publishInvalidate forwards to the live bus, if one is attached. Always
// best-effort: a missing bus or dropped event never affects the caller.
func (database *Database) publishInvalidate(targets ...string) {
	if database.live == nil {
		return
	}
	database.live.PublishInvalidate(targets...)
}

func nowStamp() string {
	return time.Now().UTC().Format(timeFormat)
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseStamp(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// nullableStr maps blank strings to NULL parameters.
func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// stampPtr converts a nullable column value into a *time.Time.
func stampPtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := parseStamp(ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// stampStrPtr keeps the raw wire representation of a nullable timestamp.
func stampStrPtr(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}
