// Package sqlite implements the store contracts on a local SQLite file.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/finsight/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

const (
	dateLayout = "2006-01-02"
	// fixed width so that timestamps sort lexically
	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var _ store.Repository = (*DB)(nil)

type DB struct {
	*sql.DB
}

// Open opens or creates the database at the given path and applies the schema.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.Init(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Init creates tables if they don't exist.
func (db *DB) Init() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(tsLayout, s)
}
