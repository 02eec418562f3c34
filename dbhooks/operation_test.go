package dbhooks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
)

func Test_Key_IsDistinctPerPhase(t *testing.T) {
	for _, op := range dbhooks.Operations() {
		for _, model := range []string{"User", "Post", "user_profile", "a:b", ""} {
			assert.NotEqual(t,
				dbhooks.Key(model, op, dbhooks.Before),
				dbhooks.Key(model, op, dbhooks.After),
				"before and after keys must differ for %s/%s", model, op,
			)
		}
	}
}

func Test_Key_IsDistinctPerModel(t *testing.T) {
	// arrange
	models := []string{"User", "Users", "user", "User_create", "create_User", "a:b", "a", "b:a", "_", ":"}
	seen := make(map[string]string)

	// act & assert
	for _, op := range dbhooks.Operations() {
		for _, phase := range []dbhooks.Phase{dbhooks.Before, dbhooks.After} {
			for _, model := range models {
				key := dbhooks.Key(model, op, phase)
				triple := string(phase) + "|" + string(op) + "|" + model

				other, exists := seen[key]
				assert.False(t, exists, "key %q produced by %s and %s", key, triple, other)
				seen[key] = triple
			}
		}
	}
}

func Test_Key_Format(t *testing.T) {
	assert.Equal(t, "db:before:create:User", dbhooks.Key("User", dbhooks.Create, dbhooks.Before))
	assert.Equal(t, "db:after:findMany:Post", dbhooks.Key("Post", dbhooks.FindMany, dbhooks.After))
}

func Test_PhaseOfKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantPhase dbhooks.Phase
		wantOK    bool
	}{
		{name: "before_key", key: dbhooks.Key("User", dbhooks.Create, dbhooks.Before), wantPhase: dbhooks.Before, wantOK: true},
		{name: "after_key", key: dbhooks.Key("User", dbhooks.Create, dbhooks.After), wantPhase: dbhooks.After, wantOK: true},
		{name: "model_containing_phase_name", key: dbhooks.Key("before", dbhooks.Update, dbhooks.After), wantPhase: dbhooks.After, wantOK: true},
		{name: "foreign_prefix", key: "cache:before:create:User", wantOK: false},
		{name: "unknown_phase", key: "db:during:create:User", wantOK: false},
		{name: "empty", key: "", wantOK: false},
		{name: "prefix_only", key: "db:", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			phase, ok := dbhooks.PhaseOfKey(tc.key)

			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantPhase, phase)
		})
	}
}

func Test_ParseOperation(t *testing.T) {
	for _, op := range dbhooks.Operations() {
		parsed, err := dbhooks.ParseOperation(string(op))

		require.NoError(t, err)
		assert.Equal(t, op, parsed)
		assert.True(t, op.IsValid())
	}

	_, err := dbhooks.ParseOperation("truncate")
	assert.ErrorIs(t, err, dbhooks.ErrUnknownOperation)

	_, err = dbhooks.ParseOperation(string(dbhooks.AllOperations))
	assert.ErrorIs(t, err, dbhooks.ErrUnknownOperation)
	assert.False(t, dbhooks.AllOperations.IsValid())
}

func Test_Operations_ReturnsTheClosedSet(t *testing.T) {
	ops := dbhooks.Operations()

	assert.Len(t, ops, 15)
	assert.NotContains(t, ops, dbhooks.AllOperations)

	ops[0] = "mutated"
	assert.Equal(t, dbhooks.FindUnique, dbhooks.Operations()[0], "callers must not be able to mutate the set")
}
