package service

import (
	"context"
	"fmt"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContactService struct {
	contactRepo *repository.ContactRepository
	linkRepo    *repository.PropertyContactRepository
	db          *gorm.DB
	logger      *zap.Logger
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	linkRepo *repository.PropertyContactRepository,
	db *gorm.DB,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		linkRepo:    linkRepo,
		db:          db,
		logger:      logger,
	}
}

func applyContactRequest(contact *domain.Contact, req *domain.ContactRequest) error {
	birthday, err := mapper.ParseOptionalDate(req.Birthday)
	if err != nil {
		return domain.NewValidationError("birthday", "must be a date in YYYY-MM-DD format")
	}

	contact.AccountID = req.AccountID
	contact.FirstName = req.FirstName
	contact.LastName = req.LastName
	contact.Position = req.Position
	contact.Phone = req.Phone
	contact.Mobile = req.Mobile
	contact.Email = req.Email
	contact.Address = req.Address
	contact.Birthday = birthday
	contact.IsPrimaryContact = req.IsPrimaryContact
	contact.Notes = req.Notes
	return nil
}

// save writes the contact and, for a primary contact, clears the flag on the
// other contacts of the account in the same transaction
func (s *ContactService) save(ctx context.Context, contact *domain.Contact, create bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.contactRepo.WithTx(tx)

		if create {
			if err := repo.Create(ctx, contact); err != nil {
				return err
			}
		} else {
			ok, err := repo.Update(ctx, contact)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNotFound
			}
		}

		if contact.IsPrimaryContact {
			return repo.ClearPrimary(ctx, contact.AccountID, contact.ID)
		}
		return nil
	})
}

func (s *ContactService) Create(ctx context.Context, req *domain.ContactRequest) (*domain.ContactDTO, error) {
	contact := &domain.Contact{}
	if err := applyContactRequest(contact, req); err != nil {
		return nil, err
	}

	if err := s.save(ctx, contact, true); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.logger.Info("contact created",
		zap.Int64("contact_id", contact.ID),
		zap.Int64("account_id", contact.AccountID))

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) GetByID(ctx context.Context, id int64) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Update(ctx context.Context, id int64, req *domain.ContactRequest) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if req.AccountID != contact.AccountID {
		return nil, domain.NewValidationError("account_id", "cannot be changed, contact %d belongs to account %d", id, contact.AccountID)
	}
	if err := applyContactRequest(contact, req); err != nil {
		return nil, err
	}

	if err := s.save(ctx, contact, false); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Delete(ctx context.Context, id int64) error {
	ok, err := s.contactRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to delete contact: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *ContactService) List(ctx context.Context, filter repository.ContactFilter) ([]domain.ContactDTO, error) {
	contacts, err := s.contactRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

// ListProperties returns the property links of a contact with the properties embedded
func (s *ContactService) ListProperties(ctx context.Context, id int64) ([]domain.PropertyContactDTO, error) {
	if _, err := s.contactRepo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	links, err := s.linkRepo.ListByContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact properties: %w", err)
	}

	dtos := make([]domain.PropertyContactDTO, len(links))
	for i := range links {
		dtos[i] = mapper.ToPropertyContactDTO(&links[i])
	}
	return dtos, nil
}
