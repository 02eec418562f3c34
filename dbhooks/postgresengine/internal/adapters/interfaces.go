package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the executor.
// Query may be served by a read replica, QueryPrimary is used for writes with a RETURNING clause.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	QueryPrimary(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
