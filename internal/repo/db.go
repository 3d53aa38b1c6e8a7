package repo

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the lead store. Postgres connections default to
// sslmode=require unless the DSN says otherwise; SQLite gets WAL and a busy timeout.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		if dsn == "" {
			dsn = "user=postgres dbname=postgres password=password sslmode=disable"
		}
		if !strings.Contains(dsn, "sslmode=") {
			if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
				if strings.Contains(dsn, "?") {
					dsn += "&sslmode=require"
				} else {
					dsn += "?sslmode=require"
				}
			} else {
				dsn += " sslmode=require"
			}
		}
	case SQLite:
		if dsn == "" {
			dsn = "sparkle.db"
		}
		if dsn != ":memory:" && !strings.Contains(dsn, "_pragma") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dsn == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

func New(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Migrate creates the schema if it does not exist yet.
func Migrate(db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == Postgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	login TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	password TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS user_roles (
	user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	role TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS leads (
	id BIGSERIAL PRIMARY KEY,
	kind TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'new',
	name TEXT NOT NULL,
	company_name TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL,
	email TEXT NOT NULL,
	location TEXT NOT NULL,
	details TEXT NOT NULL,
	form_id TEXT UNIQUE,
	export_status TEXT NOT NULL DEFAULT 'skipped',
	export_error TEXT NOT NULL DEFAULT '',
	export_token TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_kind_id ON leads (kind, id DESC)
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	login TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	password TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_roles (
	user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	role TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS leads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'new',
	name TEXT NOT NULL,
	company_name TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL,
	email TEXT NOT NULL,
	location TEXT NOT NULL,
	details TEXT NOT NULL,
	form_id TEXT UNIQUE,
	export_status TEXT NOT NULL DEFAULT 'skipped',
	export_error TEXT NOT NULL DEFAULT '',
	export_token TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_kind_id ON leads (kind, id DESC)
`
