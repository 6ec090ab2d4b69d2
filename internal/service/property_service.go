package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
)

type PropertyService struct {
	propertyRepo *repository.PropertyRepository
	contactRepo  *repository.ContactRepository
	linkRepo     *repository.PropertyContactRepository
	logger       *zap.Logger
}

func NewPropertyService(
	propertyRepo *repository.PropertyRepository,
	contactRepo *repository.ContactRepository,
	linkRepo *repository.PropertyContactRepository,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		contactRepo:  contactRepo,
		linkRepo:     linkRepo,
		logger:       logger,
	}
}

func applyPropertyRequest(property *domain.Property, req *domain.PropertyRequest) {
	property.AccountID = req.AccountID
	property.Name = req.Name
	property.Street = req.Street
	property.HouseNumber = req.HouseNumber
	property.PostalCode = req.PostalCode
	property.City = req.City
	property.Notes = req.Notes
}

func (s *PropertyService) Create(ctx context.Context, req *domain.PropertyRequest) (*domain.PropertyDTO, error) {
	property := &domain.Property{}
	applyPropertyRequest(property, req)

	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.logger.Info("property created",
		zap.Int64("property_id", property.ID),
		zap.Int64("account_id", property.AccountID))

	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

func (s *PropertyService) GetByID(ctx context.Context, id int64) (*domain.PropertyDTO, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

func (s *PropertyService) Update(ctx context.Context, id int64, req *domain.PropertyRequest) (*domain.PropertyDTO, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	// Quotes, invoices and contact links rely on the property staying with its account
	if req.AccountID != property.AccountID {
		return nil, domain.NewValidationError("account_id", "cannot be changed, property %d belongs to account %d", id, property.AccountID)
	}
	applyPropertyRequest(property, req)

	ok, err := s.propertyRepo.Update(ctx, property)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to update property: %w", domain.ErrNotFound)
	}

	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

// Delete removes the property and its contact links. Properties referenced by
// quotes or invoices cannot be deleted.
func (s *PropertyService) Delete(ctx context.Context, id int64) error {
	ok, err := s.propertyRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to delete property: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *PropertyService) List(ctx context.Context, filter repository.PropertyFilter) ([]domain.PropertyDTO, error) {
	properties, err := s.propertyRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	dtos := make([]domain.PropertyDTO, len(properties))
	for i := range properties {
		dtos[i] = mapper.ToPropertyDTO(&properties[i])
	}
	return dtos, nil
}

// ListContacts returns the contact links of a property with the contacts embedded
func (s *PropertyService) ListContacts(ctx context.Context, id int64) ([]domain.PropertyContactDTO, error) {
	if _, err := s.propertyRepo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	links, err := s.linkRepo.ListByProperty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list property contacts: %w", err)
	}

	dtos := make([]domain.PropertyContactDTO, len(links))
	for i := range links {
		dtos[i] = mapper.ToPropertyContactDTO(&links[i])
	}
	return dtos, nil
}

// AddContact links a contact of the same account to the property
func (s *PropertyService) AddContact(ctx context.Context, propertyID int64, req *domain.PropertyContactRequest) (*domain.PropertyContactDTO, error) {
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	contact, err := s.contactRepo.GetByID(ctx, req.ContactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("contact_id", "contact %d does not exist", req.ContactID)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if contact.AccountID != property.AccountID {
		return nil, domain.NewValidationError("contact_id", "contact belongs to a different account than the property")
	}

	link := &domain.PropertyContact{
		PropertyID: property.ID,
		ContactID:  contact.ID,
		Role:       req.Role,
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to link contact: %w", err)
	}
	link.Contact = contact

	dto := mapper.ToPropertyContactDTO(link)
	return &dto, nil
}

// RemoveContact unlinks a contact from the property
func (s *PropertyService) RemoveContact(ctx context.Context, propertyID, contactID int64) error {
	ok, err := s.linkRepo.Delete(ctx, propertyID, contactID)
	if err != nil {
		return fmt.Errorf("failed to unlink contact: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to unlink contact: %w", domain.ErrNotFound)
	}
	return nil
}
