package dbhooks_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
	. "github.com/AntonStoeckl/dynamic-query-hooks-go/testutil/observability/testdoubles" //nolint:revive
)

func appendTag(tag string) dbhooks.HookFunc {
	return func(_ context.Context, args any, _ any) (any, error) {
		return args.(string) + tag, nil
	}
}

func appendGlobalTag(tag string) dbhooks.GlobalHookFunc {
	return func(_ context.Context, args any, _ string, _ dbhooks.Operation, _ any) (any, error) {
		return args.(string) + tag, nil
	}
}

func Test_HookRegistry_ApplyAll_RunsGlobalBeforeModelHooks(t *testing.T) {
	// arrange
	hr := dbhooks.NewHookRegistry()

	// model hook registered first to prove the global-first order is not registration based
	hr.RegisterHook("User", dbhooks.Create, appendTag("[H]"))
	hr.RegisterGlobalHook(dbhooks.Create, appendGlobalTag("[G]"))

	// act
	result := hr.ApplyAll(context.Background(), "User", dbhooks.Create, "a")

	// assert
	assert.Equal(t, "a[G][H]", result, "expected H(G(a))")
}

func Test_HookRegistry_ApplyAll_KeepsRegistrationOrder(t *testing.T) {
	// arrange
	hr := dbhooks.NewHookRegistry()

	hr.RegisterGlobalHook(dbhooks.AllOperations, appendGlobalTag("[G1]"))
	hr.RegisterGlobalHook(dbhooks.Update, appendGlobalTag("[G2]"))
	hr.RegisterGlobalHook(dbhooks.AllOperations, appendGlobalTag("[G3]"))
	hr.RegisterHook("Post", dbhooks.Update, appendTag("[M1]"))
	hr.RegisterHook("Post", dbhooks.Update, appendTag("[M2]"))

	// act
	result := hr.ApplyAll(context.Background(), "Post", dbhooks.Update, "")

	// assert
	assert.Equal(t, "[G1][G2][G3][M1][M2]", result)
}

func Test_HookRegistry_ApplyAll_SelectsMatchingHooksOnly(t *testing.T) {
	// arrange
	hr := dbhooks.NewHookRegistry()

	hr.RegisterGlobalHook(dbhooks.Delete, appendGlobalTag("[other-op]"))
	hr.RegisterHook("Post", dbhooks.Create, appendTag("[other-model]"))
	hr.RegisterHook("User", dbhooks.Update, appendTag("[other-model-op]"))
	hr.RegisterHook("User", dbhooks.Create, appendTag("[match]"))

	// act
	result := hr.ApplyAll(context.Background(), "User", dbhooks.Create, "")

	// assert
	assert.Equal(t, "[match]", result)
}

func Test_HookRegistry_ApplyAll_IsolatesFailingHooks(t *testing.T) {
	tests := []struct {
		name    string
		failing dbhooks.HookFunc
		errMsg  string
	}{
		{
			name: "returned_error",
			failing: func(context.Context, any, any) (any, error) {
				return "poisoned", errors.New("hook broke")
			},
			errMsg: "hook broke",
		},
		{
			name: "panic",
			failing: func(context.Context, any, any) (any, error) {
				panic("hook exploded")
			},
			errMsg: dbhooks.ErrHookPanicked.Error() + ": hook exploded",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			logHandler := NewLogHandlerSpy(false)
			metrics := NewMetricsCollectorSpy(true)
			hr := dbhooks.NewHookRegistry(
				dbhooks.WithComponentLogger(slog.New(logHandler)),
				dbhooks.WithComponentMetrics(metrics),
			)

			// arrange
			hr.RegisterHook("User", dbhooks.Create, appendTag("1"))
			hr.RegisterHook("User", dbhooks.Create, tc.failing)
			hr.RegisterHook("User", dbhooks.Create, appendTag("3"))

			// act
			var result any
			assert.NotPanics(t, func() {
				result = hr.ApplyAll(context.Background(), "User", dbhooks.Create, "")
			})

			// assert
			assert.Equal(t, "13", result)
			assert.True(t,
				logHandler.HasWarnLogWithMessage("hook failed, continuing with previous args").
					WithAttr("error", tc.errMsg).
					WithAttr("model", "User").
					WithAttr("operation", "create").
					WithAttr("scope", "model").
					Assert(),
			)
			assert.True(t,
				metrics.HasCounterRecordForMetric("dbhooks_hook_failures_total").
					WithModel("User").
					WithOperation("create").
					WithLabel("scope", "model").
					Assert(),
			)
		})
	}
}

func Test_HookRegistry_ApplyAll_IsolatesFailingGlobalHooks(t *testing.T) {
	// setup
	contextualLogger := NewContextualLoggerSpy(true)
	hr := dbhooks.NewHookRegistry(dbhooks.WithComponentContextualLogger(contextualLogger))

	// arrange
	hr.RegisterGlobalHook(dbhooks.AllOperations, appendGlobalTag("1"))
	hr.RegisterGlobalHook(dbhooks.AllOperations, func(context.Context, any, string, dbhooks.Operation, any) (any, error) {
		panic(errors.New("global exploded"))
	})
	hr.RegisterHook("User", dbhooks.FindMany, appendTag("3"))

	// act
	result := hr.ApplyAll(context.Background(), "User", dbhooks.FindMany, "")

	// assert
	assert.Equal(t, "13", result)
	assert.True(t, contextualLogger.HasWarnLog("hook failed, continuing with previous args"))

	records := contextualLogger.GetRecords("warn")
	if assert.Len(t, records, 1) {
		scope, _ := records[0].Attr("scope")
		assert.Equal(t, "global", scope)
	}
}

func Test_HookRegistry_ApplyAll_EmptyPipelineIsIdentity(t *testing.T) {
	hr := dbhooks.NewHookRegistry()
	args := map[string]any{"where": map[string]any{"id": 7}}

	result := hr.ApplyAll(context.Background(), "User", dbhooks.FindUnique, args)

	assert.Equal(t, args, result)
	assert.Nil(t, hr.ApplyAll(context.Background(), "User", dbhooks.FindUnique, nil))
}

func Test_HookRegistry_ApplyAll_PassesAmbientRequestAndCallContext(t *testing.T) {
	// arrange
	hr := dbhooks.NewHookRegistry()
	type tenant struct{ id string }

	var seenGlobal, seenModel any
	var seenModelName string
	var seenOperation dbhooks.Operation

	hr.RegisterGlobalHook(dbhooks.AllOperations, func(
		_ context.Context,
		args any,
		model string,
		operation dbhooks.Operation,
		request any,
	) (any, error) {
		seenGlobal = request
		seenModelName = model
		seenOperation = operation
		return args, nil
	})
	hr.RegisterHook("Invoice", dbhooks.Aggregate, func(_ context.Context, args any, request any) (any, error) {
		seenModel = request
		return args, nil
	})

	ctx := dbhooks.WithRequest(context.Background(), tenant{id: "acme"})

	// act
	hr.ApplyAll(ctx, "Invoice", dbhooks.Aggregate, nil)

	// assert
	assert.Equal(t, tenant{id: "acme"}, seenGlobal)
	assert.Equal(t, tenant{id: "acme"}, seenModel)
	assert.Equal(t, "Invoice", seenModelName)
	assert.Equal(t, dbhooks.Aggregate, seenOperation)
}

func Test_HookRegistry_ApplyAll_WithoutAmbientRequestPassesNil(t *testing.T) {
	hr := dbhooks.NewHookRegistry()
	called := false

	hr.RegisterHook("User", dbhooks.Count, func(_ context.Context, args any, request any) (any, error) {
		called = true
		assert.Nil(t, request)
		return args, nil
	})

	hr.ApplyAll(context.Background(), "User", dbhooks.Count, nil)

	assert.True(t, called)
}

func Test_HookRegistry_RegisterHook_RejectsUndispatchableOperations(t *testing.T) {
	// setup
	logHandler := NewLogHandlerSpy(false)
	hr := dbhooks.NewHookRegistry(dbhooks.WithComponentLogger(slog.New(logHandler)))

	// arrange
	hr.RegisterHook("User", "crate", appendTag("[typo]"))
	hr.RegisterHook("User", dbhooks.AllOperations, appendTag("[wildcard]"))
	hr.RegisterGlobalHook("creat", appendGlobalTag("[global-typo]"))
	hr.RegisterGlobalHook(dbhooks.AllOperations, appendGlobalTag("[G]"))

	// act
	result := hr.ApplyAll(context.Background(), "User", dbhooks.Create, "a")

	// assert
	assert.Equal(t, "a[G]", result)
	assert.Equal(t, 3, logHandler.CountLogsWithMessage(slog.LevelWarn, "registration rejected, handler is not stored"))
	assert.True(t,
		logHandler.HasWarnLogWithMessage("registration rejected, handler is not stored").
			WithAttr("error", dbhooks.ErrUnknownOperation.Error()+`: "crate"`).
			WithAttr("model", "User").
			WithAttr("operation", "crate").
			Assert(),
	)
	assert.True(t,
		logHandler.HasWarnLogWithMessage("registration rejected, handler is not stored").
			WithAttr("error", dbhooks.ErrWildcardNotAllowed.Error()).
			WithAttr("operation", "*").
			Assert(),
	)
	assert.True(t,
		logHandler.HasWarnLogWithMessage("registration rejected, handler is not stored").
			WithAttr("operation", "creat").
			Assert(),
	)
}
