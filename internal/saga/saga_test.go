package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshop/backend/internal/logger"
)

func TestRollbackRunsUndosInReverse(t *testing.T) {
	ctx := context.Background()
	s := New("test", logger.Nop())
	var order []string

	for _, step := range []string{"a", "b", "c"} {
		err := s.Do(ctx, step, func(context.Context) error { return nil }, func(context.Context) error {
			order = append(order, step)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.Rollback(ctx, errors.New("boom")))
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestFailedStepRegistersNoUndo(t *testing.T) {
	ctx := context.Background()
	s := New("test", logger.Nop())
	undone := false

	err := s.Do(ctx, "write", func(context.Context) error { return errors.New("down") }, func(context.Context) error {
		undone = true
		return nil
	})
	require.EqualError(t, err, "down")

	require.NoError(t, s.Rollback(ctx, err))
	assert.False(t, undone)
}

func TestFailKeepsCauseWhenUndoFails(t *testing.T) {
	ctx := context.Background()
	s := New("test", logger.Nop())
	secondRan := false

	require.NoError(t, s.Do(ctx, "first", func(context.Context) error { return nil }, func(context.Context) error {
		secondRan = true
		return nil
	}))
	require.NoError(t, s.Do(ctx, "second", func(context.Context) error { return nil }, func(context.Context) error {
		return errors.New("undo broke")
	}))

	cause := errors.New("third step failed")
	assert.Same(t, cause, s.Fail(ctx, cause))
	assert.True(t, secondRan, "later undo failure must not stop earlier undos")
}

func TestRollbackIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New("test", logger.Nop())
	var sawErr error

	require.NoError(t, s.Do(ctx, "write", func(context.Context) error { return nil }, func(c context.Context) error {
		sawErr = c.Err()
		return nil
	}))
	cancel()

	require.NoError(t, s.Rollback(ctx, context.Canceled))
	assert.NoError(t, sawErr)
}
