package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-grocery/store"
)

type mockScope struct {
	executeFn func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.executeFn(ctx, fn)
}

func passthrough() *mockScope {
	return &mockScope{executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}}
}

func TestExecuteWithResult_Success(t *testing.T) {
	result, err := store.ExecuteWithResult(context.Background(), passthrough(), func(ctx context.Context) (string, error) {
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
}

func TestExecuteWithResult_FnError(t *testing.T) {
	errFn := errors.New("fn error")
	_, err := store.ExecuteWithResult(context.Background(), passthrough(), func(ctx context.Context) (int, error) {
		return 0, errFn
	})

	assert.ErrorIs(t, err, errFn)
}

func TestExecuteWithResult_ScopeError(t *testing.T) {
	errTx := errors.New("commit failed")
	scope := &mockScope{executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
		_ = fn(ctx)
		return errTx
	}}

	_, err := store.ExecuteWithResult(context.Background(), scope, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	assert.ErrorIs(t, err, errTx)
}

func TestDirectScope_RunsFn(t *testing.T) {
	called := false
	err := store.DirectScope{}.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}
