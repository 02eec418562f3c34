package postgresengine

import "errors"

var (
	// ErrNilDatabaseConnection is returned when a constructor is called with a nil connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when a model resolves to an empty table name.
	ErrEmptyTableName = errors.New("table name must not be empty")

	// ErrNilTableNameMapper is returned by WithTableNameMapper with nil.
	ErrNilTableNameMapper = errors.New("table name mapper must not be nil")

	// ErrInvalidStatementTimeout is returned by WithStatementTimeout with a negative duration.
	ErrInvalidStatementTimeout = errors.New("statement timeout must not be negative")

	// ErrUnsupportedArgs is returned when the operation arguments are not QueryArgs.
	ErrUnsupportedArgs = errors.New("unsupported operation arguments")

	// ErrUnsupportedOperation is returned for operations the executor does not know.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrMissingWhere is returned when an operation that targets specific rows has no where clause.
	ErrMissingWhere = errors.New("operation requires a where clause")

	// ErrMissingData is returned when an operation that writes has nothing to write.
	ErrMissingData = errors.New("operation requires data")

	// ErrRecordNotFound is returned by the OrThrow finders, update and delete when no row matched.
	ErrRecordNotFound = errors.New("record not found")

	// ErrBuildingQueryFailed is returned when the SQL statement cannot be built.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed is returned when the database rejects or fails the statement.
	ErrQueryingFailed = errors.New("querying database failed")

	// ErrScanningDBRowFailed is returned when a result row cannot be read.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrEncodingValueFailed is returned when a structured column value cannot be encoded as JSON.
	ErrEncodingValueFailed = errors.New("encoding column value failed")
)
