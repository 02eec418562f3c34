package postgresengine

import (
	"fmt"
	"maps"
	"slices"
)

// Record is one table row keyed by column name.
type Record map[string]any

// BatchResult is returned by createMany, updateMany and deleteMany.
type BatchResult struct {
	Count int64 `json:"count"`
}

// AggregateFunc is an SQL aggregate function supported by aggregate and groupBy.
type AggregateFunc string

const (
	AggCount AggregateFunc = "count"
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// Aggregation selects one aggregate over one column. AggCount over an empty Field counts all rows.
type Aggregation struct {
	Func  AggregateFunc
	Field string
}

// OrderBy sorts by one column.
type OrderBy struct {
	Column string
	Desc   bool
}

// QueryArgs are the arguments of every operation the executor runs.
//
// Which fields are used depends on the operation:
//   - findUnique(OrThrow): Where (required), Select
//   - findFirst(OrThrow), findMany: Where, Select, OrderBy, Take, Skip
//   - create: Data (required), Select
//   - createMany: DataList (required)
//   - update: Where (required), Data (required), Select
//   - updateMany: Where, Data (required)
//   - delete: Where (required), Select
//   - deleteMany: Where
//   - upsert: Where (required, the conflict target), Create and Update (required), Select
//   - aggregate: Where, Aggregates (required)
//   - groupBy: Where, By (required), Aggregates, OrderBy, Take, Skip
//   - count: Where
//
// Where values of nil match NULL, slice values match any of their elements.
// Map and []any values written by Data, DataList, Create and Update are stored as jsonb.
type QueryArgs struct {
	Where      map[string]any
	Data       map[string]any
	DataList   []map[string]any
	Create     map[string]any
	Update     map[string]any
	Select     []string
	OrderBy    []OrderBy
	Take       int
	Skip       int
	By         []string
	Aggregates []Aggregation
}

// Clone returns a copy that hooks can modify without affecting the caller's args.
// Maps and slices are copied one level deep.
func (a QueryArgs) Clone() QueryArgs {
	clone := a
	clone.Where = maps.Clone(a.Where)
	clone.Data = maps.Clone(a.Data)
	clone.Create = maps.Clone(a.Create)
	clone.Update = maps.Clone(a.Update)
	clone.Select = slices.Clone(a.Select)
	clone.OrderBy = slices.Clone(a.OrderBy)
	clone.By = slices.Clone(a.By)
	clone.Aggregates = slices.Clone(a.Aggregates)

	if a.DataList != nil {
		clone.DataList = make([]map[string]any, len(a.DataList))
		for i, data := range a.DataList {
			clone.DataList[i] = maps.Clone(data)
		}
	}

	return clone
}

// WithWhere returns a clone with key=value added to Where.
func (a QueryArgs) WithWhere(key string, value any) QueryArgs {
	clone := a.Clone()
	if clone.Where == nil {
		clone.Where = make(map[string]any)
	}

	clone.Where[key] = value

	return clone
}

// AsQueryArgs converts the args a hook receives back into QueryArgs.
// It accepts what Engine.Execute accepts and returns ErrUnsupportedArgs otherwise.
func AsQueryArgs(args any) (QueryArgs, error) {
	return toQueryArgs(args)
}

// toQueryArgs accepts QueryArgs, *QueryArgs or nil.
func toQueryArgs(args any) (QueryArgs, error) {
	switch a := args.(type) {
	case nil:
		return QueryArgs{}, nil
	case QueryArgs:
		return a, nil
	case *QueryArgs:
		if a == nil {
			return QueryArgs{}, nil
		}

		return *a, nil
	default:
		return QueryArgs{}, fmt.Errorf("%w: %T", ErrUnsupportedArgs, args)
	}
}
