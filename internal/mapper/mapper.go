package mapper

import (
	"time"

	"github.com/crm-argus/argus-api/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateFormat)
	return &s
}

// ToAccountDTO converts Account to AccountDTO
func ToAccountDTO(account *domain.Account) domain.AccountDTO {
	return domain.AccountDTO{
		AccountID: account.ID,
		Name:      account.Name,
		Address:   account.Address,
		Phone:     account.Phone,
		Email:     account.Email,
		Website:   account.Website,
		TaxNumber: account.TaxNumber,
		Notes:     account.Notes,
		CreatedAt: formatTimestamp(account.CreatedAt),
		UpdatedAt: formatTimestamp(account.UpdatedAt),
	}
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	return domain.ContactDTO{
		ContactID:        contact.ID,
		AccountID:        contact.AccountID,
		FirstName:        contact.FirstName,
		LastName:         contact.LastName,
		Position:         contact.Position,
		Phone:            contact.Phone,
		Mobile:           contact.Mobile,
		Email:            contact.Email,
		Address:          contact.Address,
		Birthday:         formatDatePtr(contact.Birthday),
		IsPrimaryContact: contact.IsPrimaryContact,
		Notes:            contact.Notes,
		CreatedAt:        formatTimestamp(contact.CreatedAt),
		UpdatedAt:        formatTimestamp(contact.UpdatedAt),
	}
}

// ToPropertyDTO converts Property to PropertyDTO
func ToPropertyDTO(property *domain.Property) domain.PropertyDTO {
	return domain.PropertyDTO{
		PropertyID:  property.ID,
		AccountID:   property.AccountID,
		Name:        property.Name,
		Street:      property.Street,
		HouseNumber: property.HouseNumber,
		PostalCode:  property.PostalCode,
		City:        property.City,
		Notes:       property.Notes,
		CreatedAt:   formatTimestamp(property.CreatedAt),
		UpdatedAt:   formatTimestamp(property.UpdatedAt),
	}
}

// ToPropertyContactDTO converts a link, embedding whichever side was loaded
func ToPropertyContactDTO(link *domain.PropertyContact) domain.PropertyContactDTO {
	dto := domain.PropertyContactDTO{
		PropertyContactID: link.ID,
		PropertyID:        link.PropertyID,
		ContactID:         link.ContactID,
		Role:              link.Role,
	}
	if link.Contact != nil {
		contact := ToContactDTO(link.Contact)
		dto.Contact = &contact
	}
	if link.Property != nil {
		property := ToPropertyDTO(link.Property)
		dto.Property = &property
	}
	return dto
}

// ToProductDTO converts Product to ProductDTO
func ToProductDTO(product *domain.Product) domain.ProductDTO {
	return domain.ProductDTO{
		ProductID:   product.ID,
		Name:        product.Name,
		Description: product.Description,
		Unit:        product.Unit,
		Price:       product.Price,
		VatRate:     product.VatRate,
		IsActive:    product.IsActive,
		CreatedAt:   formatTimestamp(product.CreatedAt),
		UpdatedAt:   formatTimestamp(product.UpdatedAt),
	}
}

// ToQuoteDTO converts Quote to QuoteDTO without items
func ToQuoteDTO(quote *domain.Quote) domain.QuoteDTO {
	return domain.QuoteDTO{
		QuoteID:     quote.ID,
		AccountID:   quote.AccountID,
		PropertyID:  quote.PropertyID,
		ContactID:   quote.ContactID,
		QuoteNumber: quote.QuoteNumber,
		QuoteDate:   quote.QuoteDate.Format(domain.DateFormat),
		ValidUntil:  formatDatePtr(quote.ValidUntil),
		Status:      quote.Status,
		TotalNet:    quote.TotalNet,
		TotalGross:  quote.TotalGross,
		Notes:       quote.Notes,
		CreatedAt:   formatTimestamp(quote.CreatedAt),
		UpdatedAt:   formatTimestamp(quote.UpdatedAt),
	}
}

// ToQuoteDetailDTO converts Quote with its loaded items
func ToQuoteDetailDTO(quote *domain.Quote) domain.QuoteDetailDTO {
	return domain.QuoteDetailDTO{
		QuoteDTO: ToQuoteDTO(quote),
		Items:    ToQuoteItemDTOs(quote.Items),
	}
}

// ToQuoteItemDTO converts QuoteItem to QuoteItemDTO
func ToQuoteItemDTO(item *domain.QuoteItem) domain.QuoteItemDTO {
	return domain.QuoteItemDTO{
		QuoteItemID: item.ID,
		QuoteID:     item.QuoteID,
		ProductID:   item.ProductID,
		Description: item.Description,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		UnitPrice:   item.UnitPrice,
		VatRate:     item.VatRate,
		TotalNet:    item.TotalNet,
		TotalGross:  item.TotalGross,
		Position:    item.Position,
	}
}

func ToQuoteItemDTOs(items []domain.QuoteItem) []domain.QuoteItemDTO {
	dtos := make([]domain.QuoteItemDTO, len(items))
	for i := range items {
		dtos[i] = ToQuoteItemDTO(&items[i])
	}
	return dtos
}

// ToInvoiceDTO converts Invoice to InvoiceDTO without items
func ToInvoiceDTO(invoice *domain.Invoice) domain.InvoiceDTO {
	return domain.InvoiceDTO{
		InvoiceID:     invoice.ID,
		QuoteID:       invoice.QuoteID,
		AccountID:     invoice.AccountID,
		PropertyID:    invoice.PropertyID,
		ContactID:     invoice.ContactID,
		InvoiceNumber: invoice.InvoiceNumber,
		InvoiceDate:   invoice.InvoiceDate.Format(domain.DateFormat),
		DueDate:       invoice.DueDate.Format(domain.DateFormat),
		Status:        invoice.Status,
		TotalNet:      invoice.TotalNet,
		TotalGross:    invoice.TotalGross,
		AmountPaid:    invoice.AmountPaid,
		OpenAmount:    invoice.OpenAmount(),
		PaymentTerms:  invoice.PaymentTerms,
		Notes:         invoice.Notes,
		CreatedAt:     formatTimestamp(invoice.CreatedAt),
		UpdatedAt:     formatTimestamp(invoice.UpdatedAt),
	}
}

// ToInvoiceDetailDTO converts Invoice with its loaded items
func ToInvoiceDetailDTO(invoice *domain.Invoice) domain.InvoiceDetailDTO {
	return domain.InvoiceDetailDTO{
		InvoiceDTO: ToInvoiceDTO(invoice),
		Items:      ToInvoiceItemDTOs(invoice.Items),
	}
}

// ToInvoiceItemDTO converts InvoiceItem to InvoiceItemDTO
func ToInvoiceItemDTO(item *domain.InvoiceItem) domain.InvoiceItemDTO {
	return domain.InvoiceItemDTO{
		InvoiceItemID: item.ID,
		InvoiceID:     item.InvoiceID,
		QuoteItemID:   item.QuoteItemID,
		ProductID:     item.ProductID,
		Description:   item.Description,
		Quantity:      item.Quantity,
		Unit:          item.Unit,
		UnitPrice:     item.UnitPrice,
		VatRate:       item.VatRate,
		TotalNet:      item.TotalNet,
		TotalGross:    item.TotalGross,
		Position:      item.Position,
	}
}

func ToInvoiceItemDTOs(items []domain.InvoiceItem) []domain.InvoiceItemDTO {
	dtos := make([]domain.InvoiceItemDTO, len(items))
	for i := range items {
		dtos[i] = ToInvoiceItemDTO(&items[i])
	}
	return dtos
}

// ToUserDTO converts User to UserDTO. The password hash is never exposed.
func ToUserDTO(user *domain.User) domain.UserDTO {
	dto := domain.UserDTO{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: formatTimestamp(user.CreatedAt),
		UpdatedAt: formatTimestamp(user.UpdatedAt),
	}
	if user.LastLogin != nil {
		lastLogin := formatTimestamp(*user.LastLogin)
		dto.LastLogin = &lastLogin
	}
	return dto
}

// ParseDate parses a YYYY-MM-DD string as midnight UTC
func ParseDate(value string) (time.Time, error) {
	return time.Parse(domain.DateFormat, value)
}

// ParseOptionalDate returns nil for an empty string
func ParseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
