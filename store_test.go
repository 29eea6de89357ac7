package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Only the in-process adapters are covered here; the redis and postgres
// adapters need a live service to exercise.

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	t.Run("MissingKey", func(t *testing.T) {
		var goals []SavingsGoal
		err := store.Get(ctx, goalsKey, &goals)
		assert.ErrorIs(t, err, errKeyNotFound)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		in := []SavingsGoal{{ID: "g1", Name: "Saved", TargetAmount: 100}}
		require.NoError(t, store.Set(ctx, goalsKey, in))

		var out []SavingsGoal
		require.NoError(t, store.Get(ctx, goalsKey, &out))
		assert.Equal(t, in, out)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, goalsKey, []SavingsGoal{}))

		var out []SavingsGoal
		require.NoError(t, store.Get(ctx, goalsKey, &out))
		assert.Empty(t, out)
	})
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := newFileStore(dir)
	require.NoError(t, err)

	t.Run("MissingKey", func(t *testing.T) {
		var reminders []Reminder
		err := store.Get(ctx, remindersKey, &reminders)
		assert.ErrorIs(t, err, errKeyNotFound)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		in := []Transaction{{ID: "t1", GoalID: "g1", Amount: 42.5, Type: TypeDeposit}}
		require.NoError(t, store.Set(ctx, transactionsKey, in))

		var out []Transaction
		require.NoError(t, store.Get(ctx, transactionsKey, &out))
		assert.Equal(t, in, out)
	})

	t.Run("WritesOneFilePerKey", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, challengesKey, []Challenge{}))

		_, err := os.Stat(filepath.Join(dir, challengesKey+".json"))
		assert.NoError(t, err)
	})

	t.Run("LeavesNoTempFiles", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, goalsKey, []SavingsGoal{{ID: "g1"}}))

		matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		in := []Challenge{{ID: "c1", Name: "Persisted"}}
		require.NoError(t, store.Set(ctx, challengesKey, in))

		reopened, err := newFileStore(dir)
		require.NoError(t, err)

		var out []Challenge
		require.NoError(t, reopened.Get(ctx, challengesKey, &out))
		assert.Equal(t, in, out)
	})
}
