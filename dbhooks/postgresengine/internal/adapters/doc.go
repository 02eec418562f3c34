// Package adapters provide database adapter implementations for the PostgreSQL executor.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, allowing the executor to work with any
// supported database connection type.
//
// Rows expose their column names, so result sets can be turned into records
// without knowing the table layout up front.
package adapters
