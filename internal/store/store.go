// Package store is the persistence gateway. It maps the tutor's entities
// onto PostgreSQL or SQLite through gorm.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/models"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures the database.
type Config struct {
	Driver string
	// DSN is the PostgreSQL connection string.
	DSN string
	// Path is the SQLite database file, or a file: URI.
	Path string
	// LogSQL logs every statement at debug level.
	LogSQL bool
}

// Store wraps a gorm handle. Inside Atomically the handle is bound to a
// transaction.
type Store struct {
	db     *gorm.DB
	driver string
}

// Open connects to the configured database and runs auto-migration.
func Open(cfg Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gcfg := &gorm.Config{
		Logger:         newGormLogger(log, cfg.LogSQL),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	case DriverSQLite, "":
		db, err = openSQLite(cfg.Path, gcfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	return &Store{db: db, driver: driver}, nil
}

func openSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite driver requires a path")
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection also keeps in-memory
	// databases alive.
	sqlDB.SetMaxOpenConns(1)

	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	return gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", Conn: sqlDB}), gcfg)
}

// applyPragmas configures SQLite for concurrent web traffic.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func newGormLogger(log *zap.Logger, verbose bool) logger.Interface {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Atomically runs fn in a transaction. The Store passed to fn is bound to
// that transaction; fn's error rolls it back.
func (s *Store) Atomically(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(g *gorm.DB) error {
		return fn(&Store{db: g, driver: s.driver})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// wrap classifies a gorm error.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: "record not found", Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.Error{Kind: apperr.KindConflict, Op: op, Message: "duplicate record", Err: err}
	}
	return apperr.Persistence(op, err)
}

// DefaultDBPath resolves the database file path in priority order:
// 1. TUTOR_DB environment variable
// 2. $XDG_DATA_HOME/ai-tutor/tutor.db
// 3. ~/.local/share/ai-tutor/tutor.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("TUTOR_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "ai-tutor", "tutor.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
