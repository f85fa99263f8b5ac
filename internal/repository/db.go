package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	// SQL drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrationsFS embed.FS

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type DBOptions struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// DB is the storage handle shared by repositories. It must be migrated
// before use and closed on shutdown.
type DB struct {
	*sqlx.DB
	driver string
	dsn    string
}

func NewDB(ctx context.Context, opts DBOptions) (*DB, error) {
	if opts.Driver != DriverSQLite && opts.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch opts.Driver {
	case DriverSQLite:
		// One long-lived connection: keeps ":memory:" databases alive and
		// serialises writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
			db.SetMaxIdleConns(opts.MaxOpenConns)
		}
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA foreign_keys=ON",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
			}
		}
	}

	return &DB{DB: db, driver: opts.Driver, dsn: opts.DSN}, nil
}

func (d *DB) Driver() string {
	return d.driver
}

// Migrate applies all pending schema migrations. It is safe to call on an
// already migrated database.
func (d *DB) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, path.Join("migrations", d.driver))
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	var (
		driver database.Driver
		closer func() error
	)
	switch d.driver {
	case DriverSQLite:
		// The sqlite driver closes the *sql.DB it wraps, so the migrate
		// instance is never closed here.
		driver, err = sqlite.WithInstance(d.DB.DB, &sqlite.Config{})
	case DriverPostgres:
		// The postgres driver pins a connection for its advisory lock; give it
		// a dedicated pool so the shared one is not drained.
		var mdb *sql.DB
		mdb, err = sql.Open(DriverPostgres, d.dsn)
		if err != nil {
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
		if err = mdb.PingContext(ctx); err != nil {
			_ = mdb.Close()
			return fmt.Errorf("failed to ping migration connection: %w", err)
		}
		driver, err = postgres.WithInstance(mdb, &postgres.Config{})
		if err != nil {
			_ = mdb.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.driver, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if d.driver == DriverPostgres {
		closer = func() error {
			srcErr, dbErr := m.Close()
			return errors.Join(srcErr, dbErr)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if closer != nil {
			_ = closer()
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if closer != nil {
		return closer()
	}
	return nil
}

func (d *DB) HealthCheck(ctx context.Context) error {
	if err := d.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
