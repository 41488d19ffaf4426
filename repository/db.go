package repository

import (
	"context"
	"database/sql"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-todos/auth"
	"github.com/goliatone/go-todos/todos"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Persistence is the database configuration handed to the persistence client
type Persistence struct {
	DSN            string
	Driver         string
	Debug          bool
	PingTimeout    time.Duration
	OtelIdentifier string
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetServer() string {
	return p.DSN
}

func (p Persistence) GetDriver() string {
	return p.Driver
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetPingTimeout() time.Duration {
	return p.PingTimeout
}

func (p Persistence) GetOtelIdentifier() string {
	return p.OtelIdentifier
}

// OpenOption configures Open
type OpenOption func(*Persistence, *openOptions)

type openOptions struct {
	logger auth.Logger
}

// WithPersistenceLogger sets the logger used by the persistence client
func WithPersistenceLogger(logger auth.Logger) OpenOption {
	return func(_ *Persistence, o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDebug logs every query
func WithDebug(debug bool) OpenOption {
	return func(p *Persistence, _ *openOptions) {
		p.Debug = debug
	}
}

var registerModels sync.Once

// Open connects to the database named by dsn. postgres:// and postgresql://
// URLs use pgdriver, sqlite://, file: and :memory: use the sqlite shim. The
// embedded migrations for the selected dialect are registered on the
// returned client.
func Open(dsn string, opts ...OpenOption) (*persistence.Client, error) {
	dsn = strings.TrimSpace(dsn)

	cfg := Persistence{DSN: dsn, PingTimeout: 5 * time.Second}
	o := &openOptions{logger: auth.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg, o)
		}
	}

	sqldb, dialect, err := openSQL(&cfg)
	if err != nil {
		return nil, err
	}

	registerModels.Do(func() {
		persistence.RegisterModel((*auth.User)(nil))
		persistence.RegisterModel((*todos.Todo)(nil))
	})

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create persistence client").
			WithMetadata(map[string]any{"driver": cfg.Driver})
	}
	client.SetLogger(o.logger)

	if cfg.Driver == DriverSQLite {
		if _, err := client.DB().Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = sqldb.Close()
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to enable foreign keys")
		}
	}

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load migrations")
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets(DriverPostgres, DriverSQLite),
	)

	return client, nil
}

func openSQL(cfg *Persistence) (*sql.DB, schema.Dialect, error) {
	dsn := cfg.DSN

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		cfg.Driver = DriverPostgres
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return sqldb, pgdialect.New(), nil

	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, ":memory:"):
		cfg.Driver = DriverSQLite
		path := strings.TrimPrefix(dsn, "sqlite://")
		sqldb, err := sql.Open(sqliteshim.ShimName, path)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite database")
		}

		if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
			// every connection to an in-memory database sees its own copy
			sqldb.SetMaxOpenConns(1)
		}
		return sqldb, sqlitedialect.New(), nil

	default:
		return nil, nil, errors.New("unsupported database url", errors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DATABASE_URL").
			WithMetadata(map[string]any{"scheme": scheme(dsn)})
	}
}

// Migrate checks that every dialect ships the same migrations and applies
// the pending ones for the client's dialect.
func Migrate(ctx context.Context, client *persistence.Client) error {
	if err := client.ValidateDialects(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "migrations differ between dialects")
	}

	if err := client.Migrate(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to apply migrations")
	}
	return nil
}

func scheme(dsn string) string {
	if i := strings.Index(dsn, "://"); i > 0 {
		return dsn[:i]
	}
	return ""
}
