package repository

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return translateError(r.db.WithContext(ctx).Create(account).Error)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) (bool, error) {
	return updateRow(r.db.WithContext(ctx), account)
}

// Delete removes the account; contacts and properties cascade, quotes and invoices block it
func (r *AccountRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.Account{}, id)
}

// List returns accounts ordered by name, optionally filtered by name or email
func (r *AccountRepository) List(ctx context.Context, search string) ([]domain.Account, error) {
	var accounts []domain.Account
	query := r.db.WithContext(ctx).Model(&domain.Account{})
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	err := query.Order("name ASC").Order("account_id ASC").Find(&accounts).Error
	return accounts, translateError(err)
}

func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Account{}).Count(&count).Error
	return count, err
}

// HasDocuments reports whether any quote or invoice references the account
func (r *AccountRepository) HasDocuments(ctx context.Context, id int64) (bool, error) {
	var quotes, invoices int64
	if err := r.db.WithContext(ctx).Model(&domain.Quote{}).Where("account_id = ?", id).Count(&quotes).Error; err != nil {
		return false, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.Invoice{}).Where("account_id = ?", id).Count(&invoices).Error; err != nil {
		return false, err
	}
	return quotes+invoices > 0, nil
}
