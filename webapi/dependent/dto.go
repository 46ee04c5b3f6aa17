package dependent

import (
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// CreateDependentRequest is the body of POST /dependents.
type CreateDependentRequest struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required,min=6,max=255"`
}

// UpdateDependentRequest is the body of PATCH /dependents/:id. Omitted
// fields are left unchanged.
type UpdateDependentRequest struct {
	Username *string `json:"username" validate:"omitempty,min=2,max=32"`
	Password *string `json:"password" validate:"omitempty,min=6,max=255"`
}

// DependentDTO is a dependent as seen by its guardian.
type DependentDTO struct {
	ID         uuid.UUID    `json:"id"`
	Username   string       `json:"username"`
	GuardianID *uuid.UUID   `json:"guardian_id,omitempty"`
	Balance    money.Amount `json:"balance"`
	CreatedAt  time.Time    `json:"created_at"`
}

func ToDependentDTO(a *account.Account) DependentDTO {
	return DependentDTO{
		ID:         a.ID,
		Username:   a.Username,
		GuardianID: a.GuardianID,
		Balance:    a.Balance,
		CreatedAt:  a.CreatedAt,
	}
}
