package store

import "context"

// TxScope runs fn within a transactional boundary. The context passed
// to fn carries the transaction; stores must use it. fn may be retried
// and must not perform external side effects.
type TxScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExecuteWithResult runs fn in scope and returns its value.
func ExecuteWithResult[T any](ctx context.Context, scope TxScope, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := scope.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

// DirectScope runs fn without a transaction. Used against MongoDB
// deployments that are not replica sets.
type DirectScope struct{}

func (DirectScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ TxScope = DirectScope{}
