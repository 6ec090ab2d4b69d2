// Package seed loads a small demo data set through the regular services.
package seed

import (
	"context"
	"fmt"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

// Counter reports how many accounts exist
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Result summarises one Run
type Result struct {
	Skipped    bool
	Accounts   int
	Contacts   int
	Properties int
	Links      int
	Products   int
}

type Seeder struct {
	accountCounter Counter
	accounts       *service.AccountService
	contacts       *service.ContactService
	properties     *service.PropertyService
	products       *service.ProductService
	logger         *zap.Logger
}

func NewSeeder(
	accountCounter Counter,
	accounts *service.AccountService,
	contacts *service.ContactService,
	properties *service.PropertyService,
	products *service.ProductService,
	logger *zap.Logger,
) *Seeder {
	return &Seeder{
		accountCounter: accountCounter,
		accounts:       accounts,
		contacts:       contacts,
		properties:     properties,
		products:       products,
		logger:         logger,
	}
}

type demoContact struct {
	first, last, position, email string
	primary                      bool
	role                         string
}

type demoProperty struct {
	name, street, number, postal, city string
}

type demoAccount struct {
	account    domain.AccountRequest
	contacts   []demoContact
	properties []demoProperty
}

var demoAccounts = []demoAccount{
	{
		account: domain.AccountRequest{
			Name:      "Lindenhof Hausverwaltung GmbH",
			Address:   "Lindenstrasse 12, 10115 Berlin",
			Phone:     "+49 30 1234567",
			Email:     "office@lindenhof.example",
			TaxNumber: "DE123456789",
		},
		contacts: []demoContact{
			{first: "Anna", last: "Becker", position: "Managing Director", email: "a.becker@lindenhof.example", primary: true, role: "owner representative"},
			{first: "Jonas", last: "Wolf", position: "Caretaker", email: "j.wolf@lindenhof.example", role: "caretaker"},
		},
		properties: []demoProperty{
			{name: "Lindenhof Nord", street: "Lindenstrasse", number: "12", postal: "10115", city: "Berlin"},
			{name: "Lindenhof Sued", street: "Lindenstrasse", number: "14a", postal: "10115", city: "Berlin"},
		},
	},
	{
		account: domain.AccountRequest{
			Name:    "Weber Immobilien KG",
			Address: "Hafenweg 3, 20457 Hamburg",
			Phone:   "+49 40 7654321",
			Email:   "kontakt@weber-immo.example",
		},
		contacts: []demoContact{
			{first: "Petra", last: "Weber", position: "Owner", email: "p.weber@weber-immo.example", primary: true, role: "owner"},
		},
		properties: []demoProperty{
			{name: "Speicher am Hafen", street: "Hafenweg", number: "3", postal: "20457", city: "Hamburg"},
		},
	},
}

func float(v float64) *float64 { return &v }

var demoProducts = []domain.ProductRequest{
	{Name: "Caretaker service", Description: "Hourly caretaker work", Unit: "h", Price: 42.50, VatRate: float(19)},
	{Name: "Staircase cleaning", Description: "Weekly staircase cleaning per building", Unit: "month", Price: 180, VatRate: float(19)},
	{Name: "Winter service", Description: "Snow clearing and gritting", Unit: "season", Price: 650, VatRate: float(19)},
	{Name: "Garden maintenance", Unit: "h", Price: 38, VatRate: float(19)},
	{Name: "Heating cost statement", Description: "Annual statement per unit", Unit: "unit", Price: 24.90, VatRate: float(7)},
}

// Run inserts the demo data unless accounts already exist
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	count, err := s.accountCounter.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		s.logger.Info("database already has accounts, skipping seed", zap.Int64("accounts", count))
		return &Result{Skipped: true}, nil
	}

	result := &Result{}
	for _, demo := range demoAccounts {
		account, err := s.accounts.Create(ctx, &demo.account)
		if err != nil {
			return result, fmt.Errorf("failed to seed account %q: %w", demo.account.Name, err)
		}
		result.Accounts++

		var contactIDs []int64
		var roles []string
		for _, c := range demo.contacts {
			contact, err := s.contacts.Create(ctx, &domain.ContactRequest{
				AccountID:        account.AccountID,
				FirstName:        c.first,
				LastName:         c.last,
				Position:         c.position,
				Email:            c.email,
				IsPrimaryContact: c.primary,
			})
			if err != nil {
				return result, fmt.Errorf("failed to seed contact %s %s: %w", c.first, c.last, err)
			}
			contactIDs = append(contactIDs, contact.ContactID)
			roles = append(roles, c.role)
			result.Contacts++
		}

		for _, p := range demo.properties {
			property, err := s.properties.Create(ctx, &domain.PropertyRequest{
				AccountID:   account.AccountID,
				Name:        p.name,
				Street:      p.street,
				HouseNumber: p.number,
				PostalCode:  p.postal,
				City:        p.city,
			})
			if err != nil {
				return result, fmt.Errorf("failed to seed property %q: %w", p.name, err)
			}
			result.Properties++

			for i, contactID := range contactIDs {
				if _, err := s.properties.AddContact(ctx, property.PropertyID, &domain.PropertyContactRequest{
					ContactID: contactID,
					Role:      roles[i],
				}); err != nil {
					return result, fmt.Errorf("failed to link contact to property %q: %w", p.name, err)
				}
				result.Links++
			}
		}
	}

	for i := range demoProducts {
		if _, err := s.products.Create(ctx, &demoProducts[i]); err != nil {
			return result, fmt.Errorf("failed to seed product %q: %w", demoProducts[i].Name, err)
		}
		result.Products++
	}

	s.logger.Info("seed data loaded",
		zap.Int("accounts", result.Accounts),
		zap.Int("contacts", result.Contacts),
		zap.Int("properties", result.Properties),
		zap.Int("products", result.Products),
	)
	return result, nil
}
