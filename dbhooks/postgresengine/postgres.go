package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine/internal/adapters"
)

const (
	defaultStatementTimeout   = 10 * time.Second
	logMsgBuildQueryFailed    = "failed to build query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database statement execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "postgres executor operation: "
	logMsgOperationCompleted  = "completed"
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrTable              = "table"
	logAttrDurationMS         = "duration_ms"
	logAttrRowCount           = "row_count"
	logAttrRowsAffected       = "rows_affected"
	dialectPostgres           = "postgres"
	castJsonb                 = "?::jsonb"
	aliasCount                = "_count"
	columnCtid                = "ctid"
	aggregateAliasSeparator   = "__"
	aggregateAliasAllRows     = "all"
	aggregateResultPrefix     = "_"
	aggregateResultAllRows    = "_all"
)

// Engine is a dbhooks.Executor that runs every operation kind against PostgreSQL.
//
// Each model maps to one table. Arguments are QueryArgs, results are Record, []Record,
// BatchResult or int64 depending on the operation.
type Engine struct {
	db               adapters.DBAdapter
	tableNames       map[string]string
	tableNameMapper  func(model string) string
	statementTimeout time.Duration
	logger           dbhooks.Logger
	contextualLogger dbhooks.ContextualLogger
}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromPGXPoolAndReplica creates a new Engine that sends plain reads to the replica pool.
func NewEngineFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil || replica == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (*Engine, error) {
	e := &Engine{
		db:               db,
		tableNames:       make(map[string]string),
		tableNameMapper:  func(model string) string { return model },
		statementTimeout: defaultStatementTimeout,
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Execute runs one operation against the model's table. It implements dbhooks.Executor.
func (e *Engine) Execute(ctx context.Context, model string, operation dbhooks.Operation, args any) (any, error) {
	table, err := e.tableFor(model)
	if err != nil {
		return nil, err
	}

	queryArgs, err := toQueryArgs(args)
	if err != nil {
		return nil, err
	}

	queryArgs, err = encodeJSONValues(queryArgs)
	if err != nil {
		return nil, err
	}

	if e.statementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.statementTimeout)
		defer cancel()
	}

	st := statement{table: table, operation: operation, args: queryArgs}

	switch operation {
	case dbhooks.FindUnique, dbhooks.FindUniqueOrThrow:
		return e.findOne(ctx, st, true, operation == dbhooks.FindUniqueOrThrow)

	case dbhooks.FindFirst, dbhooks.FindFirstOrThrow:
		return e.findOne(ctx, st, false, operation == dbhooks.FindFirstOrThrow)

	case dbhooks.FindMany:
		return e.findMany(ctx, st)

	case dbhooks.Create:
		return e.create(ctx, st)

	case dbhooks.CreateMany:
		return e.createMany(ctx, st)

	case dbhooks.Update:
		return e.update(ctx, st)

	case dbhooks.UpdateMany:
		return e.updateMany(ctx, st)

	case dbhooks.Delete:
		return e.delete(ctx, st)

	case dbhooks.DeleteMany:
		return e.deleteMany(ctx, st)

	case dbhooks.Upsert:
		return e.upsert(ctx, st)

	case dbhooks.Aggregate:
		return e.aggregate(ctx, st)

	case dbhooks.GroupBy:
		return e.groupBy(ctx, st)

	case dbhooks.Count:
		return e.count(ctx, st)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, operation)
	}
}

func (e *Engine) tableFor(model string) (string, error) {
	if tableName, ok := e.tableNames[model]; ok {
		return tableName, nil
	}

	tableName := e.tableNameMapper(model)
	if tableName == "" {
		return "", fmt.Errorf("%w: model %q", ErrEmptyTableName, model)
	}

	return tableName, nil
}

// statement carries what every operation needs to build and log its SQL.
type statement struct {
	table     string
	operation dbhooks.Operation
	args      QueryArgs
}

func (e *Engine) findOne(ctx context.Context, st statement, unique bool, orThrow bool) (any, error) {
	if unique && len(st.args.Where) == 0 {
		return nil, ErrMissingWhere
	}

	sqlQuery, err := e.build(ctx, st, buildFindOne(st, unique))
	if err != nil {
		return nil, err
	}

	records, err := e.queryRecords(ctx, st, sqlQuery, false)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		if orThrow {
			return nil, fmt.Errorf("%w: table %q", ErrRecordNotFound, st.table)
		}

		return nil, nil
	}

	return records[0], nil
}

func (e *Engine) findMany(ctx context.Context, st statement) (any, error) {
	sqlQuery, err := e.build(ctx, st, buildFindMany(st))
	if err != nil {
		return nil, err
	}

	return e.queryRecords(ctx, st, sqlQuery, false)
}

func (e *Engine) create(ctx context.Context, st statement) (any, error) {
	if len(st.args.Data) == 0 {
		return nil, ErrMissingData
	}

	sqlQuery, err := e.build(ctx, st, buildCreate(st))
	if err != nil {
		return nil, err
	}

	return e.firstRecord(ctx, st, sqlQuery)
}

func (e *Engine) createMany(ctx context.Context, st statement) (any, error) {
	if len(st.args.DataList) == 0 {
		return nil, ErrMissingData
	}

	sqlQuery, err := e.build(ctx, st, buildCreateMany(st))
	if err != nil {
		return nil, err
	}

	return e.execBatch(ctx, st, sqlQuery)
}

func (e *Engine) update(ctx context.Context, st statement) (any, error) {
	if len(st.args.Where) == 0 {
		return nil, ErrMissingWhere
	}

	if len(st.args.Data) == 0 {
		return nil, ErrMissingData
	}

	sqlQuery, err := e.build(ctx, st, buildUpdate(st, true))
	if err != nil {
		return nil, err
	}

	return e.firstRecordOrNotFound(ctx, st, sqlQuery)
}

func (e *Engine) updateMany(ctx context.Context, st statement) (any, error) {
	if len(st.args.Data) == 0 {
		return nil, ErrMissingData
	}

	sqlQuery, err := e.build(ctx, st, buildUpdate(st, false))
	if err != nil {
		return nil, err
	}

	return e.execBatch(ctx, st, sqlQuery)
}

func (e *Engine) delete(ctx context.Context, st statement) (any, error) {
	if len(st.args.Where) == 0 {
		return nil, ErrMissingWhere
	}

	sqlQuery, err := e.build(ctx, st, buildDelete(st, true))
	if err != nil {
		return nil, err
	}

	return e.firstRecordOrNotFound(ctx, st, sqlQuery)
}

func (e *Engine) deleteMany(ctx context.Context, st statement) (any, error) {
	sqlQuery, err := e.build(ctx, st, buildDelete(st, false))
	if err != nil {
		return nil, err
	}

	return e.execBatch(ctx, st, sqlQuery)
}

func (e *Engine) upsert(ctx context.Context, st statement) (any, error) {
	if len(st.args.Where) == 0 {
		return nil, ErrMissingWhere
	}

	if len(st.args.Create) == 0 || len(st.args.Update) == 0 {
		return nil, ErrMissingData
	}

	sqlQuery, err := e.build(ctx, st, buildUpsert(st))
	if err != nil {
		return nil, err
	}

	return e.firstRecord(ctx, st, sqlQuery)
}

func (e *Engine) aggregate(ctx context.Context, st statement) (any, error) {
	if len(st.args.Aggregates) == 0 {
		return nil, ErrMissingData
	}

	if err := validateAggregations(st.args.Aggregates); err != nil {
		return nil, err
	}

	sqlQuery, err := e.build(ctx, st, buildAggregate(st))
	if err != nil {
		return nil, err
	}

	records, err := e.queryRecords(ctx, st, sqlQuery, false)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return Record{}, nil
	}

	return nestAggregates(records[0], st.args.Aggregates), nil
}

func (e *Engine) groupBy(ctx context.Context, st statement) (any, error) {
	if len(st.args.By) == 0 {
		return nil, ErrMissingData
	}

	if err := validateAggregations(st.args.Aggregates); err != nil {
		return nil, err
	}

	sqlQuery, err := e.build(ctx, st, buildGroupBy(st))
	if err != nil {
		return nil, err
	}

	records, err := e.queryRecords(ctx, st, sqlQuery, false)
	if err != nil {
		return nil, err
	}

	aggregations := groupByAggregations(st.args)
	for i, record := range records {
		records[i] = nestAggregates(record, aggregations)
	}

	return records, nil
}

func (e *Engine) count(ctx context.Context, st statement) (any, error) {
	sqlQuery, err := e.build(ctx, st, buildCount(st))
	if err != nil {
		return nil, err
	}

	records, err := e.queryRecords(ctx, st, sqlQuery, false)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return int64(0), nil
	}

	count, err := toInt64(records[0][aliasCount])
	if err != nil {
		return nil, errors.Join(ErrScanningDBRowFailed, err)
	}

	return count, nil
}

func (e *Engine) firstRecord(ctx context.Context, st statement, sqlQuery string) (any, error) {
	records, err := e.queryRecords(ctx, st, sqlQuery, true)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	return records[0], nil
}

func (e *Engine) firstRecordOrNotFound(ctx context.Context, st statement, sqlQuery string) (any, error) {
	record, err := e.firstRecord(ctx, st, sqlQuery)
	if err != nil {
		return nil, err
	}

	if record == nil {
		return nil, fmt.Errorf("%w: table %q", ErrRecordNotFound, st.table)
	}

	return record, nil
}

// Compile-time check to ensure Engine implements the Executor interface.
var _ dbhooks.Executor = (*Engine)(nil)
