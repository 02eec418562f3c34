package postgresengine

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"maps"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine/internal/adapters"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// scanRecords reads all rows into records keyed by column name.
func scanRecords(rows adapters.DBRows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	values := make([]any, len(cols))
	targets := make([]any, len(cols))

	for rows.Next() {
		for i := range values {
			values[i] = nil
			targets[i] = &values[i]
		}

		if scanErr := rows.Scan(targets...); scanErr != nil {
			return nil, scanErr
		}

		record := make(Record, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}

		records = append(records, record)
	}

	if iterErr := rows.Err(); iterErr != nil {
		return nil, iterErr
	}

	return records, nil
}

// normalizeValue converts driver specific values into plain Go values.
// JSON documents (jsonb columns read through database/sql) are decoded, uuid columns
// read through pgx become strings.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		if len(v) > 0 && (v[0] == '{' || v[0] == '[') && jsonAPI.Valid(v) {
			var decoded any
			if err := jsonAPI.Unmarshal(v, &decoded); err == nil {
				return decoded
			}
		}

		return string(v)

	case [16]byte:
		return uuid.UUID(v).String()

	case driver.Valuer:
		driverValue, err := v.Value()
		if err != nil {
			return value
		}

		if _, nested := driverValue.(driver.Valuer); nested {
			return driverValue
		}

		return normalizeValue(driverValue)

	default:
		return value
	}
}

// encodeJSONValues returns a copy of args with structured values of written columns turned into jsonb literals.
func encodeJSONValues(args QueryArgs) (QueryArgs, error) {
	if !hasWrites(args) {
		return args, nil
	}

	encoded := args.Clone()

	for _, data := range append([]map[string]any{encoded.Data, encoded.Create, encoded.Update}, encoded.DataList...) {
		if err := encodeJSONColumns(data); err != nil {
			return QueryArgs{}, err
		}
	}

	return encoded, nil
}

func hasWrites(args QueryArgs) bool {
	return len(args.Data) > 0 || len(args.Create) > 0 || len(args.Update) > 0 || len(args.DataList) > 0
}

func encodeJSONColumns(data map[string]any) error {
	for column, value := range maps.Clone(data) {
		switch value.(type) {
		case map[string]any, []any, Record, []map[string]any:
			document, err := jsonAPI.Marshal(value)
			if err != nil {
				return errors.Join(ErrEncodingValueFailed, fmt.Errorf("column %q: %w", column, err))
			}

			data[column] = goqu.L(castJsonb, string(document))
		}
	}

	return nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value of type %T", value)
	}
}
