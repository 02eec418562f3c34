package postgresengine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/testutil/postgresengine/pgtesthelpers"
)

const documentColumns = `
	id bigserial PRIMARY KEY,
	tenant_id text NOT NULL,
	slug text NOT NULL,
	title text NOT NULL,
	status text NOT NULL DEFAULT 'draft',
	amount bigint NOT NULL DEFAULT 0,
	settings jsonb,
	deleted_at timestamptz,
	UNIQUE (tenant_id, slug)`

func givenDocumentsClient(t *testing.T) *dbhooks.Client {
	t.Helper()

	wrapper := pgtesthelpers.CreateWrapper(t, postgresengine.WithTableName("Document", "hooks_test_documents"))
	pgtesthelpers.CreateTable(t, wrapper, "hooks_test_documents", documentColumns)

	client, err := dbhooks.NewClient(dbhooks.WithExecutor(wrapper.Engine()))
	require.NoError(t, err)

	return client
}

func createDocument(t *testing.T, client *dbhooks.Client, data map[string]any) postgresengine.Record {
	t.Helper()

	result, err := client.Run(context.Background(), "Document", dbhooks.Create, postgresengine.QueryArgs{Data: data})
	require.NoError(t, err)

	record, ok := result.(postgresengine.Record)
	require.True(t, ok, "create returns a Record, got %T", result)

	return record
}

func Test_Engine_Live_CreateFindUpdateDelete(t *testing.T) {
	// setup
	client := givenDocumentsClient(t)
	ctx := context.Background()

	// act
	created := createDocument(t, client, map[string]any{
		"tenant_id": "acme",
		"slug":      "q1",
		"title":     "Q1 report",
		"settings":  map[string]any{"theme": "dark"},
	})
	id := created["id"]

	found, findErr := client.Run(ctx, "Document", dbhooks.FindUnique, postgresengine.QueryArgs{
		Where: map[string]any{"id": id},
	})
	updated, updateErr := client.Run(ctx, "Document", dbhooks.Update, postgresengine.QueryArgs{
		Where:  map[string]any{"id": id},
		Data:   map[string]any{"status": "published"},
		Select: []string{"id", "status"},
	})
	deleted, deleteErr := client.Run(ctx, "Document", dbhooks.Delete, postgresengine.QueryArgs{
		Where: map[string]any{"id": id},
	})
	_, missingErr := client.Run(ctx, "Document", dbhooks.FindUniqueOrThrow, postgresengine.QueryArgs{
		Where: map[string]any{"id": id},
	})

	// assert
	assert.Equal(t, "Q1 report", created["title"])
	assert.Equal(t, map[string]any{"theme": "dark"}, created["settings"])
	assert.Nil(t, created["deleted_at"])

	require.NoError(t, findErr)
	assert.Equal(t, "q1", found.(postgresengine.Record)["slug"])

	require.NoError(t, updateErr)
	assert.Equal(t, postgresengine.Record{"id": id, "status": "published"}, updated)

	require.NoError(t, deleteErr)
	assert.Equal(t, id, deleted.(postgresengine.Record)["id"])

	assert.ErrorIs(t, missingErr, postgresengine.ErrRecordNotFound)
	assert.ErrorIs(t, missingErr, dbhooks.ErrExecutingOperationFailed)
}

func Test_Engine_Live_BatchOperationsAndCount(t *testing.T) {
	// setup
	client := givenDocumentsClient(t)
	ctx := context.Background()

	// act
	createdMany, createErr := client.Run(ctx, "Document", dbhooks.CreateMany, postgresengine.QueryArgs{
		DataList: []map[string]any{
			{"tenant_id": "acme", "slug": "a", "title": "A", "amount": 10},
			{"tenant_id": "acme", "slug": "b", "title": "B", "amount": 20},
			{"tenant_id": "globex", "slug": "c", "title": "C", "amount": 30},
		},
	})
	updatedMany, updateErr := client.Run(ctx, "Document", dbhooks.UpdateMany, postgresengine.QueryArgs{
		Where: map[string]any{"tenant_id": "acme"},
		Data:  map[string]any{"status": "archived"},
	})
	archived, countErr := client.Run(ctx, "Document", dbhooks.Count, postgresengine.QueryArgs{
		Where: map[string]any{"status": "archived"},
	})
	page, findErr := client.Run(ctx, "Document", dbhooks.FindMany, postgresengine.QueryArgs{
		OrderBy: []postgresengine.OrderBy{{Column: "amount", Desc: true}},
		Take:    2,
		Select:  []string{"slug"},
	})
	deletedMany, deleteErr := client.Run(ctx, "Document", dbhooks.DeleteMany, postgresengine.QueryArgs{
		Where: map[string]any{"slug": []string{"a", "c"}},
	})

	// assert
	require.NoError(t, createErr)
	assert.Equal(t, postgresengine.BatchResult{Count: 3}, createdMany)

	require.NoError(t, updateErr)
	assert.Equal(t, postgresengine.BatchResult{Count: 2}, updatedMany)

	require.NoError(t, countErr)
	assert.Equal(t, int64(2), archived)

	require.NoError(t, findErr)
	assert.Equal(t, []postgresengine.Record{{"slug": "c"}, {"slug": "b"}}, page)

	require.NoError(t, deleteErr)
	assert.Equal(t, postgresengine.BatchResult{Count: 2}, deletedMany)
}

func Test_Engine_Live_UpsertAggregateGroupBy(t *testing.T) {
	// setup
	client := givenDocumentsClient(t)
	ctx := context.Background()
	upsert := func(title string) (any, error) {
		return client.Run(ctx, "Document", dbhooks.Upsert, postgresengine.QueryArgs{
			Where:  map[string]any{"tenant_id": "acme", "slug": "plan"},
			Create: map[string]any{"title": title, "amount": 5},
			Update: map[string]any{"title": title},
		})
	}

	createDocument(t, client, map[string]any{"tenant_id": "acme", "slug": "x", "title": "X", "status": "paid", "amount": 100})
	createDocument(t, client, map[string]any{"tenant_id": "acme", "slug": "y", "title": "Y", "status": "paid", "amount": 50})

	// act
	inserted, insertErr := upsert("Plan v1")
	updated, updateErr := upsert("Plan v2")
	aggregate, aggregateErr := client.Run(ctx, "Document", dbhooks.Aggregate, postgresengine.QueryArgs{
		Where: map[string]any{"status": "paid"},
		Aggregates: []postgresengine.Aggregation{
			{Func: postgresengine.AggCount},
			{Func: postgresengine.AggSum, Field: "amount"},
			{Func: postgresengine.AggMax, Field: "amount"},
		},
	})
	groups, groupErr := client.Run(ctx, "Document", dbhooks.GroupBy, postgresengine.QueryArgs{
		By:      []string{"status"},
		OrderBy: []postgresengine.OrderBy{{Column: "status"}},
	})

	// assert
	require.NoError(t, insertErr)
	require.NoError(t, updateErr)
	assert.Equal(t, inserted.(postgresengine.Record)["id"], updated.(postgresengine.Record)["id"])
	assert.Equal(t, "Plan v2", updated.(postgresengine.Record)["title"])
	assert.Equal(t, "draft", updated.(postgresengine.Record)["status"])

	require.NoError(t, aggregateErr)
	result := aggregate.(postgresengine.Record)
	assert.Equal(t, int64(2), result["_count"].(postgresengine.Record)["_all"])
	assert.Equal(t, "150", fmt.Sprint(result["_sum"].(postgresengine.Record)["amount"]))
	assert.Equal(t, int64(100), result["_max"].(postgresengine.Record)["amount"])

	require.NoError(t, groupErr)
	assert.Equal(t, []postgresengine.Record{
		{"status": "draft", "_count": postgresengine.Record{"_all": int64(1)}},
		{"status": "paid", "_count": postgresengine.Record{"_all": int64(2)}},
	}, groups)
}

func Test_Engine_Live_UpdateAndDeleteChangeOnlyOneMatchingRow(t *testing.T) {
	// setup
	client := givenDocumentsClient(t)
	ctx := context.Background()
	countWhere := func(where map[string]any) int64 {
		count, err := client.Run(ctx, "Document", dbhooks.Count, postgresengine.QueryArgs{Where: where})
		require.NoError(t, err)

		return count.(int64)
	}

	for _, slug := range []string{"a", "b", "c"} {
		createDocument(t, client, map[string]any{"tenant_id": "acme", "slug": slug, "title": slug, "status": "inactive"})
	}

	// act
	updated, updateErr := client.Run(ctx, "Document", dbhooks.Update, postgresengine.QueryArgs{
		Where: map[string]any{"status": "inactive"},
		Data:  map[string]any{"status": "active"},
	})
	deleted, deleteErr := client.Run(ctx, "Document", dbhooks.Delete, postgresengine.QueryArgs{
		Where: map[string]any{"status": "inactive"},
	})

	// assert
	require.NoError(t, updateErr)
	assert.Equal(t, "active", updated.(postgresengine.Record)["status"])

	require.NoError(t, deleteErr)
	assert.Equal(t, "inactive", deleted.(postgresengine.Record)["status"])

	assert.Equal(t, int64(1), countWhere(map[string]any{"status": "active"}))
	assert.Equal(t, int64(1), countWhere(map[string]any{"status": "inactive"}))
	assert.Equal(t, int64(2), countWhere(nil))
}
