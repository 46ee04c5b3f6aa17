package repository

import (
	"context"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a gorm-backed ledger repository.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	row := mapTransactionDomainToModel(tx)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var row Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapTransactionModelToDomain(&row), nil
}

func (r *transactionRepository) List(ctx context.Context, filter repository.TransactionFilter) ([]*ledger.Transaction, error) {
	var rows []Transaction
	q := r.db.WithContext(ctx).
		Scopes(transactionFilter(filter)).
		Order("created_at DESC").
		Order("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*ledger.Transaction, 0, len(rows))
	for i := range rows {
		result = append(result, mapTransactionModelToDomain(&rows[i]))
	}
	return result, nil
}

func (r *transactionRepository) Sum(ctx context.Context, filter repository.TransactionFilter) (repository.Totals, error) {
	var out struct {
		Total int64
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&Transaction{}).
		Scopes(transactionFilter(filter)).
		Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS total, COUNT(*) AS count").
		Scan(&out).Error
	if err != nil {
		return repository.Totals{}, MapGormErrorToDomain(err)
	}
	return repository.Totals{Count: out.Count, Amount: money.FromCents(out.Total)}, nil
}

func (r *transactionRepository) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	res := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"description": description,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func transactionFilter(f repository.TransactionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(f.Parties) > 0 {
			db = db.Where("(sender_id IN ? OR receiver_id IN ?)", f.Parties, f.Parties)
		}
		if f.SenderID != nil {
			db = db.Where("sender_id = ?", *f.SenderID)
		}
		if f.ReceiverID != nil {
			db = db.Where("receiver_id = ?", *f.ReceiverID)
		}
		if f.Kind != "" {
			db = db.Where("kind = ?", string(f.Kind))
		}
		if !f.From.IsZero() {
			db = db.Where("created_at >= ?", f.From.UTC())
		}
		if !f.To.IsZero() {
			db = db.Where("created_at < ?", f.To.UTC())
		}
		return db
	}
}

func mapTransactionDomainToModel(tx *ledger.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		Amount:      tx.Amount.Cents(),
		SenderID:    tx.SenderID,
		ReceiverID:  tx.ReceiverID,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.UTC(),
		UpdatedAt:   tx.CreatedAt.UTC(),
	}
}

func mapTransactionModelToDomain(row *Transaction) *ledger.Transaction {
	return &ledger.Transaction{
		ID:          row.ID,
		Kind:        ledger.Kind(row.Kind),
		Amount:      money.FromCents(row.Amount),
		SenderID:    row.SenderID,
		ReceiverID:  row.ReceiverID,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
}
