package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Options selects the database backend.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Store wraps access to the SQL database and exposes high level helpers.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to the configured database and runs pending migrations.
// For sqlite3 the DSN is a file path (or ":memory:").
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("empty database dsn")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		conn *sqlx.DB
		err  error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		if err := ensureDir(opts.DSN); err != nil {
			return nil, err
		}
		conn, err = sqlx.Open(DriverSQLite, sqliteDSN(opts.DSN))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	case DriverPostgres:
		conn, err = sqlx.Open(DriverPostgres, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if opts.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(opts.MaxOpenConns)
			conn.SetMaxIdleConns(opts.MaxOpenConns)
		}
		conn.SetConnMaxIdleTime(15 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	s := &Store{db: conn, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("database ready", slog.String("driver", conn.DriverName()))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// sqliteDSN turns a bare file path into a URI with the default pragmas.
// DSNs that are already URIs or carry their own parameters are used as given.
func sqliteDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "?") {
		return dsn
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dsn)
}

func ensureDir(dbPath string) error {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") || strings.Contains(dbPath, "?") {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// migrate applies every migration newer than the recorded schema version.
func (s *Store) migrate() error {
	current := 0

	var exists int
	err := s.db.Get(&exists, s.db.Rebind(schemaTableQuery(s.db.DriverName())), "schema_version")
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if exists > 0 {
		if err := s.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}
		s.logger.Info("applied migration", slog.Int("version", m.version))
	}
	return nil
}

func schemaTableQuery(driver string) string {
	if driver == DriverPostgres {
		return `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`
	}
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

// q rewrites ? placeholders into the driver's bind syntax.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// isUniqueViolation reports whether err is a unique constraint failure from either driver.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
