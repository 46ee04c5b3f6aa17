package account

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// Name length bounds, in runes.
const (
	MinNameLength     = 2
	MaxNameLength     = 32
	MinPasswordLength = 6
)

// Role distinguishes guardians from their dependents.
type Role string

const (
	RoleGuardian  Role = "guardian"
	RoleDependent Role = "dependent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleGuardian || r == RoleDependent
}

// Account is a wallet holder in the directory.
//
// Invariants:
//   - Username is unique across guardians and dependents.
//   - A dependent always has a GuardianID; a guardian never has one.
//   - Balance is never negative. It only changes through the ledger.
type Account struct {
	ID             uuid.UUID
	Role           Role
	Username       string
	Email          string
	HashedPassword string
	Balance        money.Amount
	GuardianID     *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsGuardian reports whether the account may deposit and manage dependents.
func (a *Account) IsGuardian() bool { return a.Role == RoleGuardian }

// IsDependent reports whether the account is owned by a guardian.
func (a *Account) IsDependent() bool { return a.Role == RoleDependent }

// IsDependentOf reports whether a is a dependent owned by guardianID.
func (a *Account) IsDependentOf(guardianID uuid.UUID) bool {
	return a.IsDependent() && a.GuardianID != nil && *a.GuardianID == guardianID
}

// CanView reports whether a may read other's wallet: itself, or one of its dependents.
func (a *Account) CanView(other *Account) bool {
	if a.ID == other.ID {
		return true
	}
	return a.IsGuardian() && other.IsDependentOf(a.ID)
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id             uuid.UUID
	role           Role
	username       string
	email          string
	hashedPassword string
	balance        money.Amount
	guardianID     *uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a Builder with a fresh ID and creation time.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		id:        uuid.New(),
		createdAt: now,
		updatedAt: now,
	}
}

// NewGuardian starts a guardian account.
func NewGuardian(username, email string) *Builder {
	return New().WithRole(RoleGuardian).WithUsername(username).WithEmail(email)
}

// NewDependent starts a dependent account owned by guardianID.
func NewDependent(guardianID uuid.UUID, username string) *Builder {
	return New().WithRole(RoleDependent).WithUsername(username).WithGuardian(guardianID)
}

func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

func (b *Builder) WithRole(role Role) *Builder {
	b.role = role
	return b
}

func (b *Builder) WithUsername(username string) *Builder {
	b.username = NormalizeUsername(username)
	return b
}

func (b *Builder) WithEmail(email string) *Builder {
	b.email = strings.ToLower(strings.TrimSpace(email))
	return b
}

func (b *Builder) WithHashedPassword(hash string) *Builder {
	b.hashedPassword = hash
	return b
}

func (b *Builder) WithGuardian(guardianID uuid.UUID) *Builder {
	b.guardianID = &guardianID
	return b
}

// WithBalance sets the balance. Only used for hydration from storage and tests.
func (b *Builder) WithBalance(balance money.Amount) *Builder {
	b.balance = balance
	return b
}

func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the account invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if !b.role.Valid() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "unknown role %q", b.role)
	}
	if err := ValidateUsername(b.username); err != nil {
		return nil, err
	}
	switch b.role {
	case RoleGuardian:
		if b.guardianID != nil {
			return nil, domain.Errorf(domain.ErrInvalidInput, "a guardian cannot be owned by another account")
		}
	case RoleDependent:
		if b.guardianID == nil || *b.guardianID == uuid.Nil {
			return nil, domain.Errorf(domain.ErrInvalidInput, "a dependent requires a guardian")
		}
	}
	if b.balance < 0 {
		return nil, domain.Errorf(domain.ErrInvalidAmount, "balance cannot be negative")
	}
	return &Account{
		ID:             b.id,
		Role:           b.role,
		Username:       b.username,
		Email:          b.email,
		HashedPassword: b.hashedPassword,
		Balance:        b.balance,
		GuardianID:     b.guardianID,
		CreatedAt:      b.createdAt,
		UpdatedAt:      b.updatedAt,
	}, nil
}

// ValidateUsername checks the display name rules shared by both roles.
func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinNameLength || n > MaxNameLength {
		return domain.Errorf(domain.ErrInvalidInput,
			"name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	return nil
}

// ValidatePassword checks the credential rules.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return domain.Errorf(domain.ErrInvalidInput,
			"password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// NormalizeUsername trims surrounding whitespace from a display name.
func NormalizeUsername(name string) string {
	return strings.TrimSpace(name)
}
