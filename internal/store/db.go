// Package store persists companies, postings and runs in SQLite (default)
// or Postgres through one sqlx handle.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"jobmirror/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	pingTimeout = 5 * time.Second
)

type DB struct {
	X *sqlx.DB

	now func() time.Time
}

// PostgresConfig are the connection settings supplied through the environment.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// OpenSQLite opens a file database, or an in-memory one for ":memory:".
func OpenSQLite(path string) (*DB, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	x, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps a ":memory:" database alive on a single connection
	x.SetMaxOpenConns(1)
	x.SetConnMaxLifetime(0)

	return ping(x)
}

func OpenPostgres(cfg PostgresConfig) (*DB, error) {
	x, err := sqlx.Open(DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, err
	}
	x.SetMaxOpenConns(5)
	x.SetMaxIdleConns(2)
	x.SetConnMaxLifetime(5 * time.Minute)

	return ping(x)
}

// New wraps an existing handle; the driver name picks the SQL dialect.
func New(x *sqlx.DB) *DB {
	return &DB{X: x, now: func() time.Time { return time.Now().UTC() }}
}

func ping(x *sqlx.DB) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := x.PingContext(ctx); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("ping %s: %w", x.DriverName(), err)
	}
	return New(x), nil
}

func (d *DB) Close() error {
	if d == nil || d.X == nil {
		return nil
	}
	return d.X.Close()
}

func (d *DB) postgres() bool { return d.X.DriverName() == DriverPostgres }

func (d *DB) timestamp() string { return d.now().UTC().Format(domain.TimeLayout) }
