package services

import (
	"context"

	"github.com/upb/recipe-hub/repositories"
)

// WithTransaction executes fn within a database transaction.
// Repositories called with the ctx handed to fn join the transaction.
// Domain errors returned by fn pass through; anything else becomes ErrTransactionFailed.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	err := txMgr.InTransaction(ctx, fn)
	if err == nil {
		return nil
	}
	if GetErrorType(err) != "" {
		return err
	}
	return ErrTransactionFailed.Wrap(err)
}

// WithTransactionResult executes fn within a database transaction and returns its result.
// The zero value is returned whenever the transaction does not commit.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) (T, error)) (T, error) {
	var result T
	err := WithTransaction(ctx, txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		r, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
