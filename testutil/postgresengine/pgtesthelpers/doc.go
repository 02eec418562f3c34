// Package pgtesthelpers runs postgresengine tests against a live PostgreSQL with every supported driver.
//
// The adapter is selected by the ADAPTER_TYPE environment variable:
//
//	pgx.pool (default): pgx connection pool
//	sql.db: database/sql with lib/pq
//	sqlx.db: sqlx with lib/pq
//
// The DSN comes from config.PostgresDSN, so DATABASE_URL overrides it. Tests are skipped when the
// database is unreachable.
package pgtesthelpers
