package auth

import (
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Identity string `json:"identity" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=255"`
}

// AccountDTO is the public view of an account.
type AccountDTO struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	Role       string     `json:"role"`
	GuardianID *uuid.UUID `json:"guardian_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TokenDTO is returned by login and registration.
type TokenDTO struct {
	Token   string     `json:"token"`
	Account AccountDTO `json:"account"`
}

// ProfileDTO is the caller's account with its balance. Dependents is set
// for guardians only.
type ProfileDTO struct {
	AccountDTO
	Balance    money.Amount          `json:"balance"`
	Dependents []DependentSummaryDTO `json:"dependents,omitempty"`
}

type DependentSummaryDTO struct {
	ID       uuid.UUID    `json:"id"`
	Username string       `json:"username"`
	Balance  money.Amount `json:"balance"`
}

func ToAccountDTO(a *account.Account) AccountDTO {
	return AccountDTO{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		Role:       string(a.Role),
		GuardianID: a.GuardianID,
		CreatedAt:  a.CreatedAt,
	}
}
