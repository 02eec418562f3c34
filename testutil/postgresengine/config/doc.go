// Package config provides PostgreSQL connection configuration for the query executor's
// integration tests and the demo.
//
// The DSNs default to the local docker-compose database and can be overridden with
// DATABASE_URL and DATABASE_REPLICA_URL. Factories exist for every adapter the
// postgresengine supports (pgx.Pool, sql.DB, sqlx.DB).
package config
