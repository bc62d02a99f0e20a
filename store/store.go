// Package store persists what must survive a restart: the goal blacklist,
// beacon activations, the deployment log, operator actions and the
// outbound message outbox.
package store

import (
	"database/sql"
	"fmt"

	"github.com/arpg/bobcat/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect captures what differs between the two backends.
type dialect struct {
	name     string // database/sql driver name
	schema   string
	numbered bool // $n placeholders instead of ?
	maxConns int
}

var dialects = map[string]dialect{
	"sqlite":   {name: "sqlite", schema: schemaSQLite, maxConns: 1},
	"postgres": {name: "pgx", schema: schemaPostgres, numbered: true},
}

// DB is the robot's local database. Every table is keyed by agent id so
// several robots in simulation can share one Postgres instance.
type DB struct {
	*sql.DB
	driver string
	d      dialect
}

// Open connects to the configured backend and applies the schema.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	var dsn string
	switch driver {
	case "sqlite":
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.SQLite.Path)
	case "postgres":
		p := cfg.Postgres
		dsn = fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			p.Host, p.Port, p.Database, p.User, p.Password, p.SSLMode)
	}

	sqlDB, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d.maxConns > 0 {
		sqlDB.SetMaxOpenConns(d.maxConns)
	}
	db := &DB{DB: sqlDB, driver: driver, d: d}
	if _, err := db.Exec(d.schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate %s: %w", driver, err)
	}
	return db, nil
}

// Driver returns "sqlite" or "postgres".
func (db *DB) Driver() string { return db.driver }

// Q adapts a query written with ? placeholders to the backend.
func (db *DB) Q(query string) string {
	if db.d.numbered {
		return Rebind(query)
	}
	return query
}
