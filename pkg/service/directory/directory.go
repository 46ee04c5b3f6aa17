// Package directory manages guardian and dependent accounts.
package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/amirasaad/masroofy/pkg/service"
	"github.com/amirasaad/masroofy/pkg/utils"
	"github.com/google/uuid"
)

// Service is the account directory.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// New creates a directory Service. bus may be nil.
func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, bus: bus, logger: logger}
}

// RegisterGuardian signs up a guardian with a unique name and e-mail.
func (s *Service) RegisterGuardian(
	ctx context.Context,
	cmd commands.RegisterGuardian,
) (*account.Account, error) {
	log := s.logger.With("operation", "RegisterGuardian", "username", cmd.Username)
	if !utils.IsEmail(cmd.Email) {
		return nil, service.LogFailure(log, "Registration rejected",
			domain.Errorf(domain.ErrInvalidInput, "a valid e-mail address is required"))
	}
	if err := account.ValidatePassword(cmd.Password); err != nil {
		return nil, service.LogFailure(log, "Registration rejected", err)
	}
	hash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, service.LogFailure(log, "Password hashing failed", err)
	}
	g, err := account.NewGuardian(cmd.Username, cmd.Email).WithHashedPassword(hash).Build()
	if err != nil {
		return nil, service.LogFailure(log, "Registration rejected", err)
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if err := ensureNameFree(ctx, repo, g.Username); err != nil {
			return err
		}
		existing, err := repo.GetByEmail(ctx, g.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Errorf(domain.ErrNameTaken, "e-mail %s is already registered", g.Email)
		}
		return repo.Create(ctx, g)
	})
	if err != nil {
		return nil, service.LogFailure(log, "Registration failed", err)
	}
	log.Info("Guardian registered", "account_id", g.ID)
	return g, nil
}

// GetAccount returns the account or domain.ErrNotFound.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	a, err := repo.Get(ctx, id)
	if err != nil {
		return nil, service.LogFailure(s.logger.With("operation", "GetAccount", "account_id", id), "Lookup failed", err)
	}
	return a, nil
}

// FindByName returns nil, nil when no account has the name.
func (s *Service) FindByName(ctx context.Context, name string) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	a, err := repo.GetByUsername(ctx, name)
	if err != nil {
		return nil, service.LogFailure(s.logger.With("operation", "FindByName"), "Lookup failed", err)
	}
	return a, nil
}

// Balance returns the stored balance of id.
func (s *Service) Balance(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// CreateDependent adds a dependent owned by the acting guardian.
func (s *Service) CreateDependent(
	ctx context.Context,
	cmd commands.CreateDependent,
) (*account.Account, error) {
	log := s.logger.With("operation", "CreateDependent", "actor_id", cmd.ActorID, "username", cmd.Username)
	if err := account.ValidatePassword(cmd.Password); err != nil {
		return nil, service.LogFailure(log, "Dependent rejected", err)
	}
	d, err := account.NewDependent(cmd.ActorID, cmd.Username).Build()
	if err != nil {
		return nil, service.LogFailure(log, "Dependent rejected", err)
	}
	hash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, service.LogFailure(log, "Password hashing failed", err)
	}
	d.HashedPassword = hash

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if _, err := requireGuardian(ctx, repo, cmd.ActorID); err != nil {
			return err
		}
		if err := ensureNameFree(ctx, repo, d.Username); err != nil {
			return err
		}
		return repo.Create(ctx, d)
	})
	if err != nil {
		return nil, service.LogFailure(log, "Dependent creation failed", err)
	}

	log.Info("Dependent created", "dependent_id", d.ID)
	service.Publish(ctx, s.bus, log, events.DependentCreated{
		GuardianID:  cmd.ActorID,
		DependentID: d.ID,
		Username:    d.Username,
		OccurredAt:  time.Now().UTC(),
	})
	return d, nil
}

// ListDependents returns the acting guardian's current dependents.
func (s *Service) ListDependents(ctx context.Context, actorID uuid.UUID) ([]*account.Account, error) {
	log := s.logger.With("operation", "ListDependents", "actor_id", actorID)
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	if _, err := requireGuardian(ctx, repo, actorID); err != nil {
		return nil, service.LogFailure(log, "Listing rejected", err)
	}
	deps, err := repo.ListDependents(ctx, actorID)
	if err != nil {
		return nil, service.LogFailure(log, "Listing failed", err)
	}
	return deps, nil
}

// GetDependent returns one of the acting guardian's dependents.
func (s *Service) GetDependent(ctx context.Context, actorID, dependentID uuid.UUID) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	d, err := OwnedDependent(ctx, repo, actorID, dependentID)
	if err != nil {
		return nil, service.LogFailure(
			s.logger.With("operation", "GetDependent", "actor_id", actorID, "dependent_id", dependentID),
			"Lookup rejected", err)
	}
	return d, nil
}

// UpdateDependent renames a dependent and/or resets its password.
func (s *Service) UpdateDependent(
	ctx context.Context,
	cmd commands.UpdateDependent,
) (*account.Account, error) {
	log := s.logger.With("operation", "UpdateDependent", "actor_id", cmd.ActorID, "dependent_id", cmd.DependentID)
	var hash string
	if cmd.Password != nil {
		if err := account.ValidatePassword(*cmd.Password); err != nil {
			return nil, service.LogFailure(log, "Update rejected", err)
		}
		h, err := utils.HashPassword(*cmd.Password)
		if err != nil {
			return nil, service.LogFailure(log, "Password hashing failed", err)
		}
		hash = h
	}
	if cmd.Username != nil {
		if err := account.ValidateUsername(*cmd.Username); err != nil {
			return nil, service.LogFailure(log, "Update rejected", err)
		}
	}

	var (
		updated *account.Account
		renamed *events.DependentRenamed
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		d, err := OwnedDependent(ctx, repo, cmd.ActorID, cmd.DependentID)
		if err != nil {
			return err
		}
		if cmd.Username != nil {
			name := account.NormalizeUsername(*cmd.Username)
			if name != d.Username {
				if err := ensureNameFree(ctx, repo, name); err != nil {
					return err
				}
				if err := repo.Rename(ctx, d.ID, name); err != nil {
					return err
				}
				renamed = &events.DependentRenamed{
					GuardianID:  cmd.ActorID,
					DependentID: d.ID,
					OldName:     d.Username,
					NewName:     name,
					OccurredAt:  time.Now().UTC(),
				}
			}
		}
		if hash != "" {
			if err := repo.UpdatePassword(ctx, d.ID, hash); err != nil {
				return err
			}
		}
		updated, err = repo.Get(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, service.LogFailure(log, "Update failed", err)
	}
	log.Info("Dependent updated", "renamed", renamed != nil, "password_changed", hash != "")
	if renamed != nil {
		service.Publish(ctx, s.bus, log, *renamed)
	}
	return updated, nil
}

// DeleteDependent removes a dependent from the acting guardian. The
// dependent's ledger entries stay for audit and its name stays reserved.
func (s *Service) DeleteDependent(ctx context.Context, actorID, dependentID uuid.UUID) error {
	log := s.logger.With("operation", "DeleteDependent", "actor_id", actorID, "dependent_id", dependentID)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if _, err := OwnedDependent(ctx, repo, actorID, dependentID); err != nil {
			return err
		}
		return repo.Delete(ctx, dependentID)
	})
	if err != nil {
		return service.LogFailure(log, "Delete failed", err)
	}
	log.Info("Dependent deleted")
	service.Publish(ctx, s.bus, log, events.DependentDeleted{
		GuardianID:  actorID,
		DependentID: dependentID,
		OccurredAt:  time.Now().UTC(),
	})
	return nil
}

// OwnedDependent loads dependentID and checks that actorID is its guardian.
// Unknown ids and non-dependents are NotFound; another guardian's dependent
// is Forbidden.
func OwnedDependent(
	ctx context.Context,
	repo repository.AccountRepository,
	actorID, dependentID uuid.UUID,
) (*account.Account, error) {
	actor, err := requireGuardian(ctx, repo, actorID)
	if err != nil {
		return nil, err
	}
	d, err := repo.Get(ctx, dependentID)
	if err != nil {
		return nil, err
	}
	if !d.IsDependent() {
		return nil, domain.Errorf(domain.ErrNotFound, "dependent %s not found", dependentID)
	}
	if !d.IsDependentOf(actor.ID) {
		return nil, domain.Errorf(domain.ErrForbidden, "dependent belongs to another guardian")
	}
	return d, nil
}

func requireGuardian(ctx context.Context, repo repository.AccountRepository, id uuid.UUID) (*account.Account, error) {
	a, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsGuardian() {
		return nil, domain.Errorf(domain.ErrForbidden, "only guardians can perform this action")
	}
	return a, nil
}

func ensureNameFree(ctx context.Context, repo repository.AccountRepository, name string) error {
	existing, err := repo.GetByUsername(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.Errorf(domain.ErrNameTaken, "name %q is already taken", name)
	}
	return nil
}
