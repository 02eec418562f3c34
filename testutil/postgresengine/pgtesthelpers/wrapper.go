package pgtesthelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/testutil/postgresengine/config"
)

const (
	typePGXPool    = "pgx.pool"
	typeSQLDB      = "sql.db"
	typeSQLXDB     = "sqlx.db"
	connectTimeout = 3 * time.Second
)

// Wrapper abstracts over the driver behind an Engine.
type Wrapper interface {
	Engine() *postgresengine.Engine
	// Exec runs DDL and fixture statements outside of the Engine.
	Exec(ctx context.Context, statement string) error
	Close()
}

type pgxPoolWrapper struct {
	pool   *pgxpool.Pool
	engine *postgresengine.Engine
}

func (w *pgxPoolWrapper) Engine() *postgresengine.Engine { return w.engine }

func (w *pgxPoolWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.pool.Exec(ctx, statement)
	return err
}

func (w *pgxPoolWrapper) Close() { w.pool.Close() }

type sqlDBWrapper struct {
	db     *sql.DB
	engine *postgresengine.Engine
}

func (w *sqlDBWrapper) Engine() *postgresengine.Engine { return w.engine }

func (w *sqlDBWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

func (w *sqlDBWrapper) Close() { _ = w.db.Close() }

type sqlxWrapper struct {
	db     *sqlx.DB
	engine *postgresengine.Engine
}

func (w *sqlxWrapper) Engine() *postgresengine.Engine { return w.engine }

func (w *sqlxWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

func (w *sqlxWrapper) Close() { _ = w.db.Close() }

// AdapterType returns the adapter selected by ADAPTER_TYPE.
func AdapterType() string {
	if adapterType := strings.ToLower(os.Getenv("ADAPTER_TYPE")); adapterType != "" {
		return adapterType
	}

	return typePGXPool
}

// CreateWrapper connects with the selected adapter and creates an Engine with options.
// The test is skipped if the database is unreachable, and the connection is closed on cleanup.
func CreateWrapper(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	var (
		wrapper Wrapper
		err     error
	)

	switch AdapterType() {
	case typePGXPool:
		wrapper, err = newPGXPoolWrapper(ctx, options)
	case typeSQLDB:
		wrapper, err = newSQLDBWrapper(ctx, options)
	case typeSQLXDB:
		wrapper, err = newSQLXWrapper(ctx, options)
	default:
		t.Fatalf("unsupported adapter type from env: %s", AdapterType())
	}

	if err != nil {
		t.Skipf("postgres not reachable with %s: %v", AdapterType(), err)
	}

	t.Cleanup(wrapper.Close)

	return wrapper
}

// CreateTable drops and recreates table from the given column definitions, dropping it again on cleanup.
func CreateTable(t testing.TB, wrapper Wrapper, table string, columnDefinitions string) {
	t.Helper()

	ctx := context.Background()
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)

	require.NoError(t, wrapper.Exec(ctx, drop))
	require.NoError(t, wrapper.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, columnDefinitions)))

	t.Cleanup(func() {
		_ = wrapper.Exec(context.Background(), drop)
	})
}

func newPGXPoolWrapper(ctx context.Context, options []postgresengine.Option) (Wrapper, error) {
	pool, err := config.NewPGXPool(ctx, config.PostgresDSN())
	if err != nil {
		return nil, err
	}

	engine, err := postgresengine.NewEngineFromPGXPool(pool, options...)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &pgxPoolWrapper{pool: pool, engine: engine}, nil
}

func newSQLDBWrapper(ctx context.Context, options []postgresengine.Option) (Wrapper, error) {
	db, err := config.NewSQLDB(ctx, config.PostgresDSN())
	if err != nil {
		return nil, err
	}

	engine, err := postgresengine.NewEngineFromSQLDB(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlDBWrapper{db: db, engine: engine}, nil
}

func newSQLXWrapper(ctx context.Context, options []postgresengine.Option) (Wrapper, error) {
	db, err := config.NewSQLX(ctx, config.PostgresDSN())
	if err != nil {
		return nil, err
	}

	engine, err := postgresengine.NewEngineFromSQLX(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlxWrapper{db: db, engine: engine}, nil
}
