package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/paresh-singh/Vehicle-parking/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// forUpdate is appended to SELECTs that must lock the rows they return.
// SQLite transactions are opened IMMEDIATE and already hold the write lock.
func (d Dialect) forUpdate() string {
	if d == DialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// DialectForDriver maps a database/sql driver name to its SQL dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return DialectPostgres, nil
	case "sqlite3":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// NewDB opens and pings the database selected by cfg.DBDriver.
func NewDB(cfg *config.Config) (*sql.DB, Dialect, error) {
	dialect, err := DialectForDriver(cfg.DBDriver)
	if err != nil {
		return nil, "", err
	}

	var dsn string
	if dialect == DialectPostgres {
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)
	} else {
		dsn = SQLiteDSN(cfg.SQLitePath)
	}

	db, err := sql.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}
	if dialect == DialectSQLite {
		// One connection serialises writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("pinging database: %w", err)
	}
	return db, dialect, nil
}

// SQLiteDSN builds a go-sqlite3 DSN with foreign keys on and immediate
// (write-locking) transactions.
func SQLiteDSN(path string) string {
	params := "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	if path == ":memory:" {
		return "file::memory:?" + params
	}
	return "file:" + path + "?" + params + "&_journal_mode=WAL"
}

// Open connects to the configured database and wraps it in a Store.
func Open(cfg *config.Config) (*Store, error) {
	db, dialect, err := NewDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(db, dialect), nil
}
