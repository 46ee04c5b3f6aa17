// Package ledger answers read-only questions about the ledger: history,
// budget status and the month-end forecasts.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	ledgerdomain "github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/dto"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/amirasaad/masroofy/pkg/service"
	"github.com/google/uuid"
)

// DefaultHistoryLimit caps History when no limit is configured.
const DefaultHistoryLimit = 100

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for calendar windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the transaction query service.
type Service struct {
	uow          repository.UnitOfWork
	names        *NameResolver
	logger       *slog.Logger
	now          func() time.Time
	loc          *time.Location
	historyLimit int
	warnPercent  float64
	alertPercent float64
}

// New creates a query Service. Nil configs fall back to defaults.
func New(
	uow repository.UnitOfWork,
	names *NameResolver,
	ledgerCfg *config.Ledger,
	budgetCfg *config.Budget,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if names == nil {
		names = NewNameResolver(nil, 0, logger)
	}
	s := &Service{
		uow:          uow,
		names:        names,
		logger:       logger,
		now:          time.Now,
		loc:          ledgerCfg.Location(),
		historyLimit: DefaultHistoryLimit,
		warnPercent:  50,
		alertPercent: 80,
	}
	if ledgerCfg != nil && ledgerCfg.HistoryLimit > 0 {
		s.historyLimit = ledgerCfg.HistoryLimit
	}
	if budgetCfg != nil {
		s.warnPercent = budgetCfg.WarnPercent
		s.alertPercent = budgetCfg.AlertPercent
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns the entries visible to actorID, newest first, capped at
// the configured limit. A guardian sees its own entries and those of its
// current dependents; a dependent sees its own. FilterIncome keeps entries
// the actor received and FilterExpense those it sent.
func (s *Service) History(
	ctx context.Context,
	actorID uuid.UUID,
	filter ledgerdomain.Filter,
) ([]dto.HistoryItem, error) {
	log := s.logger.With("operation", "History", "actor_id", actorID, "filter", filter)
	accounts, txs, err := s.repos()
	if err != nil {
		return nil, err
	}
	actor, err := accounts.Get(ctx, actorID)
	if err != nil {
		return nil, service.LogFailure(log, "History rejected", err)
	}

	q := repository.TransactionFilter{
		Parties: []uuid.UUID{actor.ID},
		Limit:   s.historyLimit,
	}
	if actor.IsGuardian() {
		ids, err := accounts.DependentIDs(ctx, actor.ID)
		if err != nil {
			return nil, service.LogFailure(log, "History failed", err)
		}
		q.Parties = append(q.Parties, ids...)
	}
	switch filter {
	case ledgerdomain.FilterIncome:
		q.ReceiverID = &actor.ID
	case ledgerdomain.FilterExpense:
		q.SenderID = &actor.ID
	case ledgerdomain.FilterNone:
	default:
		return nil, domain.Errorf(domain.ErrInvalidInput, "unknown history filter %q", filter)
	}

	entries, err := txs.List(ctx, q)
	if err != nil {
		return nil, service.LogFailure(log, "History failed", err)
	}
	items, err := s.annotate(ctx, accounts, actor.ID, entries)
	if err != nil {
		return nil, service.LogFailure(log, "History failed", err)
	}
	log.Debug("History served", "count", len(items))
	return items, nil
}

// Get returns one entry annotated for actorID. Entries the actor may not
// see are reported as not found.
func (s *Service) Get(ctx context.Context, actorID, txID uuid.UUID) (*dto.HistoryItem, error) {
	log := s.logger.With("operation", "GetTransaction", "actor_id", actorID, "transaction_id", txID)
	accounts, txs, err := s.repos()
	if err != nil {
		return nil, err
	}
	tx, err := txs.Get(ctx, txID)
	if err != nil {
		return nil, service.LogFailure(log, "Lookup failed", err)
	}
	ok, err := service.CanSee(ctx, accounts, actorID, tx)
	if err != nil {
		return nil, service.LogFailure(log, "Lookup failed", err)
	}
	if !ok {
		return nil, service.LogFailure(log, "Lookup rejected",
			domain.Errorf(domain.ErrNotFound, "transaction %s not found", txID))
	}
	items, err := s.annotate(ctx, accounts, actorID, []*ledgerdomain.Transaction{tx})
	if err != nil {
		return nil, service.LogFailure(log, "Lookup failed", err)
	}
	return &items[0], nil
}

func (s *Service) annotate(
	ctx context.Context,
	accounts repository.AccountRepository,
	viewer uuid.UUID,
	entries []*ledgerdomain.Transaction,
) ([]dto.HistoryItem, error) {
	var ids []uuid.UUID
	for _, tx := range entries {
		if tx.SenderID != nil {
			ids = append(ids, *tx.SenderID)
		}
		if tx.ReceiverID != nil {
			ids = append(ids, *tx.ReceiverID)
		}
	}
	names, err := s.names.Resolve(ctx, accounts, ids)
	if err != nil {
		return nil, err
	}

	items := make([]dto.HistoryItem, 0, len(entries))
	for _, tx := range entries {
		item := dto.HistoryItem{
			ID:           tx.ID,
			Kind:         tx.Kind,
			Amount:       tx.Amount,
			Description:  tx.Description,
			Direction:    tx.DirectionFor(viewer),
			SenderID:     tx.SenderID,
			SenderName:   partyName(names, tx.SenderID, dto.ExternalParty),
			ReceiverID:   tx.ReceiverID,
			ReceiverName: partyName(names, tx.ReceiverID, dto.UnknownParty),
			CreatedAt:    tx.CreatedAt,
		}
		if item.Direction == ledgerdomain.DirectionIncoming {
			item.Counterpart = item.SenderName
		} else {
			item.Counterpart = item.ReceiverName
		}
		items = append(items, item)
	}
	return items, nil
}

func partyName(names map[uuid.UUID]string, id *uuid.UUID, absent string) string {
	if id == nil {
		return absent
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return dto.UnknownParty
}

// viewable loads targetID and checks that actorID may read its wallet.
func (s *Service) viewable(
	ctx context.Context,
	accounts repository.AccountRepository,
	actorID, targetID uuid.UUID,
) (*account.Account, error) {
	actor, err := accounts.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		return actor, nil
	}
	target, err := accounts.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(target) {
		return nil, domain.Errorf(domain.ErrForbidden, "account belongs to another guardian")
	}
	return target, nil
}

func (s *Service) repos() (repository.AccountRepository, repository.TransactionRepository, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, nil, err
	}
	return accounts, txs, nil
}
