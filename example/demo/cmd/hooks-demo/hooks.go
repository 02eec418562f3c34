package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/requestcontext"
)

const (
	modelDocument   = "Document"
	headerTenantID  = "X-Tenant-ID"
	columnTenantID  = "tenant_id"
	columnDeletedAt = "deleted_at"
	columnTitle     = "title"
)

var errMissingTenant = errors.New("request has no tenant")

// registerHooks installs the demo's hooks and listeners:
// tenant scoping for every operation, soft-delete filtering for reads,
// title normalization for created documents and an audit log.
func registerHooks(client *dbhooks.Client, logger *slog.Logger) {
	client.UseHookForAll(dbhooks.AllOperations, scopeToTenant)

	for _, op := range []dbhooks.Operation{dbhooks.FindFirst, dbhooks.FindMany, dbhooks.Count} {
		client.UseHookForAll(op, hideSoftDeleted)
	}

	client.UseHook(modelDocument, dbhooks.Create, normalizeTitle)

	client.OnAfterHookForAll(dbhooks.AllOperations, func(ctx context.Context, payload dbhooks.Payload) error {
		logger.InfoContext(ctx, "audit",
			"model", payload.Model,
			"operation", string(payload.Operation),
			"invocation_id", payload.InvocationID.String(),
			"tenant", requestcontext.Header(dbhooks.RequestFromContext(ctx), headerTenantID),
		)

		return nil
	})
}

// scopeToTenant adds the request's tenant to the filter and to written rows.
// Outside of HTTP requests (migrations, jobs) the args pass unchanged. A failing hook leaves the
// args unchanged as well, so the router rejects requests without a tenant before they get here.
func scopeToTenant(_ context.Context, args any, _ string, op dbhooks.Operation, request any) (any, error) {
	if request == nil {
		return args, nil
	}

	tenant := requestcontext.Header(request, headerTenantID)
	if tenant == "" {
		return nil, errMissingTenant
	}

	queryArgs, err := postgresengine.AsQueryArgs(args)
	if err != nil {
		return nil, err
	}

	switch op {
	case dbhooks.Create:
		queryArgs = queryArgs.Clone()
		queryArgs.Data = withColumn(queryArgs.Data, columnTenantID, tenant)

		return queryArgs, nil

	case dbhooks.CreateMany:
		queryArgs = queryArgs.Clone()
		for i, data := range queryArgs.DataList {
			queryArgs.DataList[i] = withColumn(data, columnTenantID, tenant)
		}

		return queryArgs, nil

	default:
		// upsert inserts its Where columns, so the tenant lands in new rows too
		return queryArgs.WithWhere(columnTenantID, tenant), nil
	}
}

func hideSoftDeleted(_ context.Context, args any, _ string, _ dbhooks.Operation, _ any) (any, error) {
	queryArgs, err := postgresengine.AsQueryArgs(args)
	if err != nil {
		return nil, err
	}

	if _, explicit := queryArgs.Where[columnDeletedAt]; explicit {
		return queryArgs, nil
	}

	return queryArgs.WithWhere(columnDeletedAt, nil), nil
}

func normalizeTitle(_ context.Context, args any, _ any) (any, error) {
	queryArgs, err := postgresengine.AsQueryArgs(args)
	if err != nil {
		return nil, err
	}

	title, ok := queryArgs.Data[columnTitle].(string)
	if !ok {
		return queryArgs, nil
	}

	queryArgs = queryArgs.Clone()
	queryArgs.Data[columnTitle] = strings.Join(strings.Fields(title), " ")

	return queryArgs, nil
}

func withColumn(data map[string]any, column string, value any) map[string]any {
	if data == nil {
		data = make(map[string]any)
	}

	data[column] = value

	return data
}
