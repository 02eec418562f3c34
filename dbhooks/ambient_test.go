package dbhooks_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
)

func Test_RequestFromContext_AbsentIsNil(t *testing.T) {
	assert.Nil(t, dbhooks.RequestFromContext(context.Background()))
}

func Test_WithRequest_IsVisibleToDerivedContexts(t *testing.T) {
	// arrange
	ctx := dbhooks.WithRequest(context.Background(), "req-1")

	// act
	derived, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	// assert
	assert.Equal(t, "req-1", dbhooks.RequestFromContext(derived))
}

func Test_WithRequest_InnerValueShadowsOuter(t *testing.T) {
	outer := dbhooks.WithRequest(context.Background(), "outer")
	inner := dbhooks.WithRequest(outer, "inner")

	assert.Equal(t, "inner", dbhooks.RequestFromContext(inner))
	assert.Equal(t, "outer", dbhooks.RequestFromContext(outer))
}

func Test_Client_AmbientRequest_IsIsolatedBetweenConcurrentCallChains(t *testing.T) {
	// setup
	const chains = 64

	var mu sync.Mutex
	var mismatches []string

	client, err := dbhooks.NewClient(dbhooks.WithExecutor(dbhooks.ExecutorFunc(
		func(ctx context.Context, _ string, _ dbhooks.Operation, args any) (any, error) {
			time.Sleep(time.Duration(rand.IntN(500)) * time.Microsecond)
			return args, nil
		},
	)))
	require.NoError(t, err)

	client.UseHookForAll(dbhooks.AllOperations, func(
		ctx context.Context,
		args any,
		_ string,
		_ dbhooks.Operation,
		request any,
	) (any, error) {
		// suspension point between entering the value and reading it
		time.Sleep(time.Duration(rand.IntN(500)) * time.Microsecond)

		if request != args {
			mu.Lock()
			mismatches = append(mismatches, fmt.Sprintf("args %v saw request %v", args, request))
			mu.Unlock()
		}

		if again := dbhooks.RequestFromContext(ctx); again != args {
			mu.Lock()
			mismatches = append(mismatches, fmt.Sprintf("args %v re-read request %v", args, again))
			mu.Unlock()
		}

		return args, nil
	})

	// act
	var wg sync.WaitGroup
	for i := range chains {
		wg.Add(1)

		go func(marker string) {
			defer wg.Done()

			ctx := dbhooks.WithRequest(context.Background(), marker)

			result, runErr := client.Run(ctx, "User", dbhooks.FindMany, marker)
			assert.NoError(t, runErr)
			assert.Equal(t, marker, result)
		}(fmt.Sprintf("chain-%d", i))
	}

	wg.Wait()

	// assert
	assert.Empty(t, mismatches)
}
