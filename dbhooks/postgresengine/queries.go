package postgresengine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
)

// sqlBuilder is implemented by all goqu datasets.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func buildFindOne(st statement, unique bool) sqlBuilder {
	ds := selectFrom(st)

	if !unique {
		ds = ds.Order(orderExpressions(st.args.OrderBy)...)

		if st.args.Skip > 0 {
			ds = ds.Offset(uint(st.args.Skip))
		}
	}

	return ds.Limit(1)
}

func buildFindMany(st statement) sqlBuilder {
	return paginate(selectFrom(st).Order(orderExpressions(st.args.OrderBy)...), st.args)
}

func buildCreate(st statement) sqlBuilder {
	return goqu.Dialect(dialectPostgres).
		Insert(goqu.I(st.table)).
		Rows(goqu.Record(st.args.Data)).
		Returning(returning(st)...)
}

func buildCreateMany(st statement) sqlBuilder {
	rows := make([]any, len(st.args.DataList))
	for i, data := range st.args.DataList {
		rows[i] = goqu.Record(data)
	}

	return goqu.Dialect(dialectPostgres).
		Insert(goqu.I(st.table)).
		Rows(rows...)
}

func buildUpdate(st statement, single bool) sqlBuilder {
	ds := goqu.Dialect(dialectPostgres).
		Update(goqu.I(st.table)).
		Set(goqu.Record(st.args.Data))

	if single {
		return ds.Where(singleRowTarget(st)).Returning(returning(st)...)
	}

	if len(st.args.Where) > 0 {
		ds = ds.Where(goqu.Ex(st.args.Where))
	}

	return ds
}

func buildDelete(st statement, single bool) sqlBuilder {
	ds := goqu.Dialect(dialectPostgres).Delete(goqu.I(st.table))

	if single {
		return ds.Where(singleRowTarget(st)).Returning(returning(st)...)
	}

	if len(st.args.Where) > 0 {
		ds = ds.Where(goqu.Ex(st.args.Where))
	}

	return ds
}

// singleRowTarget limits update and delete to the first row matching Where:
// "ctid" = (SELECT "ctid" FROM table WHERE ... LIMIT 1 FOR UPDATE).
// The row lock makes a concurrent writer re-read the row version it targets.
func singleRowTarget(st statement) exp.Expression {
	target := goqu.Dialect(dialectPostgres).
		From(goqu.I(st.table)).
		Select(goqu.C(columnCtid)).
		Where(goqu.Ex(st.args.Where)).
		Limit(1).
		ForUpdate(exp.Wait)

	return goqu.C(columnCtid).Eq(target)
}

// buildUpsert inserts Where merged with Create and updates with Update when the Where columns conflict.
func buildUpsert(st statement) sqlBuilder {
	row := goqu.Record{}
	for column, value := range st.args.Where {
		row[column] = value
	}

	for column, value := range st.args.Create {
		row[column] = value
	}

	conflictTarget := make([]string, 0, len(st.args.Where))
	for column := range st.args.Where {
		conflictTarget = append(conflictTarget, column)
	}

	slices.Sort(conflictTarget)

	return goqu.Dialect(dialectPostgres).
		Insert(goqu.I(st.table)).
		Rows(row).
		OnConflict(goqu.DoUpdate(strings.Join(conflictTarget, ","), goqu.Record(st.args.Update))).
		Returning(returning(st)...)
}

func buildAggregate(st statement) sqlBuilder {
	ds := goqu.Dialect(dialectPostgres).
		From(goqu.I(st.table)).
		Select(aggregateExpressions(st.args.Aggregates)...)

	if len(st.args.Where) > 0 {
		ds = ds.Where(goqu.Ex(st.args.Where))
	}

	return ds
}

// groupByAggregations adds the row count of each group to the requested aggregates.
func groupByAggregations(args QueryArgs) []Aggregation {
	countAll := Aggregation{Func: AggCount}

	if slices.Contains(args.Aggregates, countAll) {
		return args.Aggregates
	}

	return append(slices.Clone(args.Aggregates), countAll)
}

func buildGroupBy(st statement) sqlBuilder {
	selects := append(columns(st.args.By), aggregateExpressions(groupByAggregations(st.args))...)

	ds := goqu.Dialect(dialectPostgres).
		From(goqu.I(st.table)).
		Select(selects...).
		GroupBy(columns(st.args.By)...)

	if len(st.args.Where) > 0 {
		ds = ds.Where(goqu.Ex(st.args.Where))
	}

	return paginate(ds.Order(orderExpressions(st.args.OrderBy)...), st.args)
}

func buildCount(st statement) sqlBuilder {
	ds := goqu.Dialect(dialectPostgres).
		From(goqu.I(st.table)).
		Select(goqu.COUNT(goqu.Star()).As(aliasCount))

	if len(st.args.Where) > 0 {
		ds = ds.Where(goqu.Ex(st.args.Where))
	}

	return ds
}

func selectFrom(st statement) *goqu.SelectDataset {
	ds := goqu.Dialect(dialectPostgres).From(goqu.I(st.table))

	if len(st.args.Select) > 0 {
		ds = ds.Select(columns(st.args.Select)...)
	}

	if len(st.args.Where) > 0 {
		ds = ds.Where(goqu.Ex(st.args.Where))
	}

	return ds
}

func paginate(ds *goqu.SelectDataset, args QueryArgs) *goqu.SelectDataset {
	if args.Take > 0 {
		ds = ds.Limit(uint(args.Take))
	}

	if args.Skip > 0 {
		ds = ds.Offset(uint(args.Skip))
	}

	return ds
}

func columns(names []string) []any {
	cols := make([]any, len(names))
	for i, name := range names {
		cols[i] = goqu.C(name)
	}

	return cols
}

func returning(st statement) []any {
	if len(st.args.Select) > 0 {
		return columns(st.args.Select)
	}

	return []any{goqu.Star()}
}

func orderExpressions(orderBy []OrderBy) []exp.OrderedExpression {
	ordered := make([]exp.OrderedExpression, len(orderBy))
	for i, o := range orderBy {
		if o.Desc {
			ordered[i] = goqu.C(o.Column).Desc()
		} else {
			ordered[i] = goqu.C(o.Column).Asc()
		}
	}

	return ordered
}

func validateAggregations(aggregations []Aggregation) error {
	for _, a := range aggregations {
		switch a.Func {
		case AggCount:
			continue
		case AggSum, AggAvg, AggMin, AggMax:
			if a.Field == "" {
				return fmt.Errorf("%w: %s needs a field", ErrUnsupportedArgs, a.Func)
			}
		default:
			return fmt.Errorf("%w: aggregate function %q", ErrUnsupportedArgs, a.Func)
		}
	}

	return nil
}

func aggregateExpressions(aggregations []Aggregation) []any {
	selects := make([]any, len(aggregations))
	for i, a := range aggregations {
		selects[i] = aggregateExpression(a)
	}

	return selects
}

// aggregateExpression selects func(field) AS "func__field", see nestAggregates.
func aggregateExpression(a Aggregation) exp.AliasedExpression {
	alias := aggregateAlias(a)

	if a.Field == "" {
		return goqu.COUNT(goqu.Star()).As(alias)
	}

	column := goqu.C(a.Field)

	switch a.Func {
	case AggSum:
		return goqu.SUM(column).As(alias)
	case AggAvg:
		return goqu.AVG(column).As(alias)
	case AggMin:
		return goqu.MIN(column).As(alias)
	case AggMax:
		return goqu.MAX(column).As(alias)
	default:
		return goqu.COUNT(column).As(alias)
	}
}

func aggregateAlias(a Aggregation) string {
	if a.Field == "" {
		return string(a.Func) + aggregateAliasSeparator + aggregateAliasAllRows
	}

	return string(a.Func) + aggregateAliasSeparator + a.Field
}

// nestAggregates turns {"sum__amount": 3} into {"_sum": {"amount": 3}} and
// {"count__all": 2} into {"_count": {"_all": 2}} for the aliases built from aggregations.
// Every other column is kept as it is, even if its name looks like an alias.
func nestAggregates(record Record, aggregations []Aggregation) Record {
	nested := make(Record, len(record))
	byAlias := make(map[string]Aggregation, len(aggregations))

	for _, a := range aggregations {
		byAlias[aggregateAlias(a)] = a
	}

	for column, value := range record {
		if _, isAggregate := byAlias[column]; !isAggregate {
			nested[column] = value
		}
	}

	for alias, a := range byAlias {
		value, selected := record[alias]
		if !selected {
			continue
		}

		key := aggregateResultPrefix + string(a.Func)
		group, ok := nested[key].(Record)
		if !ok {
			group = Record{}
			nested[key] = group
		}

		field := a.Field
		if field == "" {
			field = aggregateResultAllRows
		}

		group[field] = value
	}

	return nested
}
