package postgresengine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine/internal/adapters"
)

// build converts a dataset into SQL and logs failures.
func (e *Engine) build(ctx context.Context, st statement, builder sqlBuilder) (string, error) {
	sqlQuery, _, toSQLErr := builder.ToSQL()
	if toSQLErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, toSQLErr, logAttrTable, st.table)

		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// queryRecords runs a statement returning rows. Writes with RETURNING clauses must pass primary=true.
func (e *Engine) queryRecords(ctx context.Context, st statement, sqlQuery string, primary bool) ([]Record, error) {
	query := e.db.Query
	if primary {
		query = e.db.QueryPrimary
	}

	start := time.Now()
	rows, queryErr := query(ctx, sqlQuery)

	if queryErr != nil {
		e.logQueryWithDuration(ctx, sqlQuery, st, time.Since(start))
		e.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, errors.Join(ErrQueryingFailed, queryErr)
	}
	defer e.closeRows(ctx, rows)

	records, scanErr := scanRecords(rows)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, st, duration)

	if scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, scanErr, logAttrTable, st.table)

		return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	e.logOperation(ctx, st, logAttrRowCount, len(records), logAttrDurationMS, toMilliseconds(duration))

	return records, nil
}

// execBatch runs a statement without result rows and reports the affected row count.
func (e *Engine) execBatch(ctx context.Context, st statement, sqlQuery string) (BatchResult, error) {
	start := time.Now()
	result, execErr := e.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, st, duration)

	if execErr != nil {
		e.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return BatchResult{}, errors.Join(ErrQueryingFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		e.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr, logAttrTable, st.table)

		return BatchResult{}, errors.Join(ErrQueryingFailed, rowsAffectedErr)
	}

	e.logOperation(ctx, st, logAttrRowsAffected, rowsAffected, logAttrDurationMS, toMilliseconds(duration))

	return BatchResult{Count: rowsAffected}, nil
}

// closeRows safely closes database rows and logs any errors.
func (e *Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if e.logger != nil {
			e.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}

		if e.contextualLogger != nil {
			e.contextualLogger.WarnContext(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL statements with execution time at debug level if a logger is configured.
func (e *Engine) logQueryWithDuration(ctx context.Context, sqlQuery string, st statement, duration time.Duration) {
	msg := logMsgSQLExecuted + string(st.operation)

	if e.logger != nil {
		e.logger.Debug(msg, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, msg, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (e *Engine) logOperation(ctx context.Context, st statement, args ...any) {
	msg := logMsgOperation + string(st.operation) + " " + logMsgOperationCompleted
	allArgs := append([]any{logAttrTable, st.table}, args...)

	if e.logger != nil {
		e.logger.Info(msg, allArgs...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, msg, allArgs...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (e *Engine) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if e.logger != nil {
		e.logger.Error(msg, allArgs...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
