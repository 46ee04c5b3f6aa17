// Package wallet implements deposit, transfer and expense. It is the only
// writer allowed to change a balance and append to the ledger in one unit.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/amirasaad/masroofy/pkg/service"
	"github.com/google/uuid"
)

// DepositDescription is recorded on every deposit.
const DepositDescription = "Wallet top-up"

// TransferDescription returns the description recorded on a transfer.
func TransferDescription(dependentName string) string {
	return fmt.Sprintf("Allowance transfer to %s", dependentName)
}

// DepositResult is returned by Deposit.
type DepositResult struct {
	Balance     money.Amount
	Transaction *ledger.Transaction
}

// TransferResult is returned by Transfer.
type TransferResult struct {
	GuardianBalance  money.Amount
	DependentBalance money.Amount
	Transaction      *ledger.Transaction
}

// ExpenseResult is returned by Expense.
type ExpenseResult struct {
	Balance     money.Amount
	Transaction *ledger.Transaction
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used to stamp ledger entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs wallet mutations inside a unit of work.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
}

// New creates a wallet Service. bus may be nil.
func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{uow: uow, bus: bus, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deposit credits the acting guardian's wallet.
func (s *Service) Deposit(ctx context.Context, cmd commands.Deposit) (*DepositResult, error) {
	log := s.logger.With("operation", "Deposit", "actor_id", cmd.ActorID, "amount", cmd.Amount)
	if err := cmd.Amount.Validate(); err != nil {
		return nil, service.LogFailure(log, "Deposit rejected", err)
	}

	var result DepositResult
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, txs, err := repos(uow)
		if err != nil {
			return err
		}
		actor, err := accounts.Get(ctx, cmd.ActorID)
		if err != nil {
			return err
		}
		if !actor.IsGuardian() {
			return domain.Errorf(domain.ErrForbidden, "only guardians can deposit")
		}
		tx, err := ledger.NewDeposit(actor.ID, cmd.Amount, DepositDescription)
		if err != nil {
			return err
		}
		balance, err := credit(ctx, accounts, actor.ID, cmd.Amount)
		if err != nil {
			return err
		}
		if err := s.record(ctx, txs, tx); err != nil {
			return err
		}
		result = DepositResult{Balance: balance, Transaction: tx}
		return nil
	})
	if err != nil {
		return nil, service.LogFailure(log, "Deposit failed", err)
	}

	log.Info("Deposit completed", "transaction_id", result.Transaction.ID, "balance", result.Balance)
	s.publish(ctx, log, cmd.ActorID, result.Transaction)
	return &result, nil
}

// Transfer moves allowance from the acting guardian to one of its
// dependents. The debit and the credit commit together or not at all.
func (s *Service) Transfer(ctx context.Context, cmd commands.Transfer) (*TransferResult, error) {
	log := s.logger.With(
		"operation", "Transfer",
		"actor_id", cmd.ActorID,
		"dependent_id", cmd.DependentID,
		"amount", cmd.Amount,
	)
	if err := cmd.Amount.Validate(); err != nil {
		return nil, service.LogFailure(log, "Transfer rejected", err)
	}

	var result TransferResult
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, txs, err := repos(uow)
		if err != nil {
			return err
		}
		actor, err := accounts.Get(ctx, cmd.ActorID)
		if err != nil {
			return err
		}
		if !actor.IsGuardian() {
			return domain.Errorf(domain.ErrForbidden, "only guardians can transfer allowance")
		}
		dependent, err := accounts.Get(ctx, cmd.DependentID)
		if err != nil {
			return err
		}
		if !dependent.IsDependent() {
			return domain.Errorf(domain.ErrNotFound, "dependent %s not found", cmd.DependentID)
		}
		if !dependent.IsDependentOf(actor.ID) {
			return domain.Errorf(domain.ErrForbidden, "dependent belongs to another guardian")
		}
		tx, err := ledger.NewTransfer(actor.ID, dependent.ID, cmd.Amount, TransferDescription(dependent.Username))
		if err != nil {
			return err
		}

		// guardian first, then dependent: every transfer locks in that order
		guardianBalance, err := accounts.AdjustBalance(ctx, actor.ID, cmd.Amount.Negate())
		if err != nil {
			return err
		}
		dependentBalance, err := credit(ctx, accounts, dependent.ID, cmd.Amount)
		if err != nil {
			return err
		}
		if err := s.record(ctx, txs, tx); err != nil {
			return err
		}
		result = TransferResult{
			GuardianBalance:  guardianBalance,
			DependentBalance: dependentBalance,
			Transaction:      tx,
		}
		return nil
	})
	if err != nil {
		return nil, service.LogFailure(log, "Transfer failed", err)
	}

	log.Info("Transfer completed",
		"transaction_id", result.Transaction.ID,
		"guardian_balance", result.GuardianBalance,
		"dependent_balance", result.DependentBalance,
	)
	s.publish(ctx, log, cmd.ActorID, result.Transaction)
	return &result, nil
}

// Expense records spending by the actor, guardian or dependent.
func (s *Service) Expense(ctx context.Context, cmd commands.Expense) (*ExpenseResult, error) {
	log := s.logger.With("operation", "Expense", "actor_id", cmd.ActorID, "amount", cmd.Amount)
	if err := cmd.Amount.Validate(); err != nil {
		return nil, service.LogFailure(log, "Expense rejected", err)
	}
	tx, err := ledger.NewExpense(cmd.ActorID, cmd.Amount, cmd.Description)
	if err != nil {
		return nil, service.LogFailure(log, "Expense rejected", err)
	}

	var result ExpenseResult
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, txs, err := repos(uow)
		if err != nil {
			return err
		}
		balance, err := accounts.AdjustBalance(ctx, cmd.ActorID, cmd.Amount.Negate())
		if err != nil {
			return err
		}
		if err := s.record(ctx, txs, tx); err != nil {
			return err
		}
		result = ExpenseResult{Balance: balance, Transaction: tx}
		return nil
	})
	if err != nil {
		return nil, service.LogFailure(log, "Expense failed", err)
	}

	log.Info("Expense completed", "transaction_id", tx.ID, "balance", result.Balance)
	s.publish(ctx, log, cmd.ActorID, tx)
	return &result, nil
}

// UpdateDescription edits the free text of a ledger entry. Amount, kind and
// parties never change. The actor must be a party to the entry or the
// guardian of one; otherwise the entry is reported as not found.
func (s *Service) UpdateDescription(
	ctx context.Context,
	cmd commands.UpdateDescription,
) (*ledger.Transaction, error) {
	log := s.logger.With("operation", "UpdateDescription", "actor_id", cmd.ActorID, "transaction_id", cmd.TransactionID)
	description, err := ledger.NormalizeDescription(cmd.Description)
	if err != nil {
		return nil, service.LogFailure(log, "Update rejected", err)
	}

	var updated *ledger.Transaction
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, txs, err := repos(uow)
		if err != nil {
			return err
		}
		tx, err := txs.Get(ctx, cmd.TransactionID)
		if err != nil {
			return err
		}
		ok, err := service.CanSee(ctx, accounts, cmd.ActorID, tx)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrNotFound, "transaction %s not found", cmd.TransactionID)
		}
		if err := txs.UpdateDescription(ctx, tx.ID, description); err != nil {
			return err
		}
		tx.Description = description
		updated = tx
		return nil
	})
	if err != nil {
		return nil, service.LogFailure(log, "Update failed", err)
	}
	log.Info("Description updated")
	return updated, nil
}

func (s *Service) record(ctx context.Context, txs repository.TransactionRepository, tx *ledger.Transaction) error {
	tx.CreatedAt = s.now().UTC()
	return txs.Create(ctx, tx)
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, actorID uuid.UUID, tx *ledger.Transaction) {
	service.Publish(ctx, s.bus, log, events.TransactionRecorded{
		TransactionID: tx.ID,
		Kind:          string(tx.Kind),
		Amount:        tx.Amount.Cents(),
		SenderID:      tx.SenderID,
		ReceiverID:    tx.ReceiverID,
		Description:   tx.Description,
		ActorID:       actorID,
		OccurredAt:    tx.CreatedAt,
	})
}

// credit adds amount and rejects a balance that leaves the safe range.
func credit(
	ctx context.Context,
	accounts repository.AccountRepository,
	id uuid.UUID,
	amount money.Amount,
) (money.Amount, error) {
	balance, err := accounts.AdjustBalance(ctx, id, amount)
	if err != nil {
		return 0, err
	}
	if balance > money.MaxAmount {
		return 0, domain.Errorf(domain.ErrInvalidAmount, "balance would exceed %s", money.MaxAmount)
	}
	return balance, nil
}

func repos(uow repository.UnitOfWork) (repository.AccountRepository, repository.TransactionRepository, error) {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, nil, err
	}
	txs, err := uow.TransactionRepository()
	if err != nil {
		return nil, nil, err
	}
	return accounts, txs, nil
}
