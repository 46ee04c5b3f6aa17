package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and repository access.
//
// Do runs fn inside one storage transaction; repositories obtained from the
// UnitOfWork passed to fn share that transaction. Returning an error from fn
// rolls everything back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type.
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
}
