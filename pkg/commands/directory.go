package commands

import "github.com/google/uuid"

// RegisterGuardian signs up a new guardian.
type RegisterGuardian struct {
	Username string
	Email    string
	Password string
}

// CreateDependent adds a dependent owned by the acting guardian.
type CreateDependent struct {
	ActorID  uuid.UUID
	Username string
	Password string
}

// UpdateDependent renames a dependent and/or resets its password.
// Nil fields are left unchanged.
type UpdateDependent struct {
	ActorID     uuid.UUID
	DependentID uuid.UUID
	Username    *string
	Password    *string
}
