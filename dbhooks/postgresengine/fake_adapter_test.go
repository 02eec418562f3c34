package postgresengine

import (
	"context"
	"errors"
	"sync"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine/internal/adapters"
)

// fakeAdapter records every statement and answers with canned rows or results.
type fakeAdapter struct {
	mu           sync.Mutex
	statements   []fakeStatement
	columns      []string
	rows         [][]any
	rowsAffected int64
	err          error
	closeErr     error
}

type fakeStatement struct {
	sql         string
	kind        string
	hasDeadline bool
}

func (f *fakeAdapter) Query(ctx context.Context, query string) (adapters.DBRows, error) {
	return f.query(ctx, "query", query)
}

func (f *fakeAdapter) QueryPrimary(ctx context.Context, query string) (adapters.DBRows, error) {
	return f.query(ctx, "query_primary", query)
}

func (f *fakeAdapter) Exec(ctx context.Context, query string) (adapters.DBResult, error) {
	f.record(ctx, "exec", query)

	if f.err != nil {
		return nil, f.err
	}

	return fakeResult{rowsAffected: f.rowsAffected}, nil
}

func (f *fakeAdapter) query(ctx context.Context, kind string, query string) (adapters.DBRows, error) {
	f.record(ctx, kind, query)

	if f.err != nil {
		return nil, f.err
	}

	return &fakeRows{columns: f.columns, rows: f.rows, index: -1, closeErr: f.closeErr}, nil
}

func (f *fakeAdapter) record(ctx context.Context, kind string, query string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, hasDeadline := ctx.Deadline()
	f.statements = append(f.statements, fakeStatement{sql: query, kind: kind, hasDeadline: hasDeadline})
}

func (f *fakeAdapter) lastStatement() fakeStatement {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.statements) == 0 {
		return fakeStatement{}
	}

	return f.statements[len(f.statements)-1]
}

func (f *fakeAdapter) statementCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.statements)
}

type fakeRows struct {
	columns  []string
	rows     [][]any
	index    int
	closeErr error
}

func (r *fakeRows) Columns() ([]string, error) {
	return r.columns, nil
}

func (r *fakeRows) Next() bool {
	r.index++
	return r.index < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.index]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}

	for i, value := range row {
		target, ok := dest[i].(*any)
		if !ok {
			return errors.New("unsupported scan target")
		}

		*target = value
	}

	return nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	return r.closeErr
}

type fakeResult struct {
	rowsAffected int64
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
