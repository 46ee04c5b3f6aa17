package repository

import (
	"errors"
	"strings"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// BalanceCheckConstraint is the name of the non-negative balance check on
// accounts. Other check violations are storage faults.
const BalanceCheckConstraint = "accounts_balance_check"

// MapGormErrorToDomain converts GORM and driver errors to domain errors.
// Anything it does not recognise is a storage fault: the cause is kept for
// logging but callers only see domain.ErrStorageUnavailable.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrNameTaken
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return domain.ErrNameTaken
		case pgerrcode.CheckViolation:
			if pgErr.ConstraintName == BalanceCheckConstraint {
				return domain.ErrInsufficientFunds
			}
		}
	}

	// sqlite without error translation
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrNameTaken
	}
	if strings.Contains(err.Error(), "CHECK constraint failed: "+BalanceCheckConstraint) {
		return domain.ErrInsufficientFunds
	}

	return domain.Storage(err)
}

// WrapError runs a GORM operation and maps its error.
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
