package service

import (
	"context"
	"fmt"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
)

type AccountService struct {
	accountRepo  *repository.AccountRepository
	contactRepo  *repository.ContactRepository
	propertyRepo *repository.PropertyRepository
	quoteRepo    *repository.QuoteRepository
	invoiceRepo  *repository.InvoiceRepository
	logger       *zap.Logger
}

func NewAccountService(
	accountRepo *repository.AccountRepository,
	contactRepo *repository.ContactRepository,
	propertyRepo *repository.PropertyRepository,
	quoteRepo *repository.QuoteRepository,
	invoiceRepo *repository.InvoiceRepository,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo:  accountRepo,
		contactRepo:  contactRepo,
		propertyRepo: propertyRepo,
		quoteRepo:    quoteRepo,
		invoiceRepo:  invoiceRepo,
		logger:       logger,
	}
}

func applyAccountRequest(account *domain.Account, req *domain.AccountRequest) {
	account.Name = req.Name
	account.Address = req.Address
	account.Phone = req.Phone
	account.Email = req.Email
	account.Website = req.Website
	account.TaxNumber = req.TaxNumber
	account.Notes = req.Notes
}

func (s *AccountService) Create(ctx context.Context, req *domain.AccountRequest) (*domain.AccountDTO, error) {
	account := &domain.Account{}
	applyAccountRequest(account, req)

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account created", zap.Int64("account_id", account.ID), zap.String("name", account.Name))

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (*domain.AccountDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

func (s *AccountService) Update(ctx context.Context, id int64, req *domain.AccountRequest) (*domain.AccountDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	applyAccountRequest(account, req)

	ok, err := s.accountRepo.Update(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to update account: %w", domain.ErrNotFound)
	}

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

// Delete removes the account with its contacts and properties. Accounts that are
// still referenced by quotes or invoices cannot be deleted.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	referenced, err := s.accountRepo.HasDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check account documents: %w", err)
	}
	if referenced {
		return fmt.Errorf("failed to delete account: %w", &domain.ConstraintViolationError{
			Kind:   domain.ConstraintForeignKey,
			Column: "account_id",
			Err:    fmt.Errorf("account %d is referenced by quotes or invoices", id),
		})
	}

	ok, err := s.accountRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to delete account: %w", domain.ErrNotFound)
	}

	s.logger.Info("account deleted", zap.Int64("account_id", id))
	return nil
}

func (s *AccountService) List(ctx context.Context, search string) ([]domain.AccountDTO, error) {
	accounts, err := s.accountRepo.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	dtos := make([]domain.AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = mapper.ToAccountDTO(&accounts[i])
	}
	return dtos, nil
}

func (s *AccountService) ensureExists(ctx context.Context, id int64) error {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	return nil
}

// ListContacts returns the contacts of an account
func (s *AccountService) ListContacts(ctx context.Context, id int64) ([]domain.ContactDTO, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	contacts, err := s.contactRepo.ListByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

// ListProperties returns the properties of an account
func (s *AccountService) ListProperties(ctx context.Context, id int64) ([]domain.PropertyDTO, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	properties, err := s.propertyRepo.ListByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	dtos := make([]domain.PropertyDTO, len(properties))
	for i := range properties {
		dtos[i] = mapper.ToPropertyDTO(&properties[i])
	}
	return dtos, nil
}

// ListQuotes returns the quotes of an account, newest first
func (s *AccountService) ListQuotes(ctx context.Context, id int64) ([]domain.QuoteDTO, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	quotes, err := s.quoteRepo.List(ctx, repository.QuoteFilter{AccountID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	dtos := make([]domain.QuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = mapper.ToQuoteDTO(&quotes[i])
	}
	return dtos, nil
}

// ListInvoices returns the invoices of an account, newest first
func (s *AccountService) ListInvoices(ctx context.Context, id int64) ([]domain.InvoiceDTO, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{AccountID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
	}
	return dtos, nil
}
