package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams are appended to DB_PATH. They apply to every pooled
// connection, which a one-off PRAGMA would not. Immediate transactions take
// the write lock up front so the favorite flip and backup import wait on
// busy_timeout instead of failing with SQLITE_BUSY.
const sqliteParams = "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

// SQLiteDialect is the default engine: one database file at DB_PATH.
type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	return config.Path + sqliteParams
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		executed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
}

// BoolValue renders 1/0; SQLite stores BOOLEAN columns as integers.
func (d *SQLiteDialect) BoolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
