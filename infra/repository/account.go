package repository

import (
	"context"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a gorm-backed account repository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var row Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapAccountModelToDomain(&row), nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *accountRepository) findOne(ctx context.Context, query string, arg any) (*account.Account, error) {
	var rows []Account
	if err := r.db.WithContext(ctx).Where(query, arg).Limit(1).Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapAccountModelToDomain(&rows[0]), nil
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	row := mapAccountDomainToModel(a)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

// AdjustBalance applies delta with a single guarded UPDATE, so the
// read-check-write happens inside the store under the row lock.
func (r *accountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta money.Amount) (money.Amount, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&Account{}).
		Where("id = ? AND balance + ? >= 0", id, delta.Cents()).
		UpdateColumns(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta.Cents()),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&Account{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return 0, MapGormErrorToDomain(err)
		}
		if n == 0 {
			return 0, domain.ErrNotFound
		}
		return 0, domain.ErrInsufficientFunds
	}

	var row Account
	if err := db.Select("balance").Where("id = ?", id).Take(&row).Error; err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return money.FromCents(row.Balance), nil
}

func (r *accountRepository) ListDependents(ctx context.Context, guardianID uuid.UUID) ([]*account.Account, error) {
	var rows []Account
	err := r.db.WithContext(ctx).
		Where("guardian_id = ? AND role = ?", guardianID, string(account.RoleDependent)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*account.Account, 0, len(rows))
	for i := range rows {
		result = append(result, mapAccountModelToDomain(&rows[i]))
	}
	return result, nil
}

func (r *accountRepository) DependentIDs(ctx context.Context, guardianID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Account{}).
		Where("guardian_id = ? AND role = ?", guardianID, string(account.RoleDependent)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return ids, nil
}

func (r *accountRepository) Rename(ctx context.Context, id uuid.UUID, username string) error {
	return r.update(ctx, id, map[string]any{"username": username})
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.update(ctx, id, map[string]any{"password": hashedPassword})
}

func (r *accountRepository) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Account{})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepository) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []Account
	err := r.db.WithContext(ctx).Unscoped().
		Select("id", "username").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	for _, row := range rows {
		names[row.ID] = row.Username
	}
	return names, nil
}

func mapAccountDomainToModel(a *account.Account) Account {
	row := Account{
		ID:         a.ID,
		Role:       string(a.Role),
		Username:   a.Username,
		Password:   a.HashedPassword,
		Balance:    a.Balance.Cents(),
		GuardianID: a.GuardianID,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Email != "" {
		email := a.Email
		row.Email = &email
	}
	return row
}

func mapAccountModelToDomain(row *Account) *account.Account {
	a := &account.Account{
		ID:             row.ID,
		Role:           account.Role(row.Role),
		Username:       row.Username,
		HashedPassword: row.Password,
		Balance:        money.FromCents(row.Balance),
		GuardianID:     row.GuardianID,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.Email != nil {
		a.Email = *row.Email
	}
	return a
}
