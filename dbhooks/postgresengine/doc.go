// Package postgresengine provides a PostgreSQL implementation of the dbhooks.Executor interface.
//
// Every model maps to one table, by default the model name itself. Operations receive QueryArgs
// and are translated into single SQL statements built with goqu:
//   - findUnique, findFirst and their OrThrow variants: SELECT ... LIMIT 1
//   - findMany: SELECT with ordering and pagination
//   - create, update, delete: single row statements with RETURNING
//   - createMany, updateMany, deleteMany: batch statements returning the affected row count
//   - upsert: INSERT ... ON CONFLICT (where columns) DO UPDATE
//   - aggregate, groupBy, count: aggregate queries
//
// The Engine works with pgx pools (optionally with a read replica), database/sql and sqlx connections.
// Every statement runs with a timeout of 10 seconds unless configured otherwise.
//
// Common usage pattern:
//
//	engine, err := postgresengine.NewEngineFromPGXPool(pool,
//		postgresengine.WithTableNameMapper(strings.ToLower),
//		postgresengine.WithLogger(slog.Default()),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	client, err := dbhooks.NewClient(dbhooks.WithExecutor(engine))
//	user, err := client.Run(ctx, "User", dbhooks.FindUnique, postgresengine.QueryArgs{
//		Where: map[string]any{"id": 42},
//	})
package postgresengine
