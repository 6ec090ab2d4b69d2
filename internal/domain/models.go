package domain

import "time"

// Timestamps are assigned by the server on create and refreshed on every update
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// QuoteStatus represents the lifecycle state of a quote
type QuoteStatus string

const (
	QuoteStatusCreated  QuoteStatus = "created"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusCreated: {QuoteStatusSent},
	QuoteStatusSent:    {QuoteStatusAccepted, QuoteStatusRejected},
}

// IsValid checks if the QuoteStatus is a valid enum value
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusCreated, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOpen reports whether the quote still awaits a customer decision
func (s QuoteStatus) IsOpen() bool {
	return s == QuoteStatusCreated || s == QuoteStatusSent
}

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusCreated   InvoiceStatus = "created"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusCreated: {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// IsValid checks if the InvoiceStatus is a valid enum value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusCreated, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsPayments reports whether payments may be recorded against the invoice
func (s InvoiceStatus) AcceptsPayments() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusOverdue
}

// UserRole represents the role of an application user
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

// Account is a property-management company
type Account struct {
	ID        int64  `gorm:"primaryKey;column:account_id"`
	Name      string `gorm:"not null"`
	Address   string
	Phone     string
	Email     string
	Website   string
	TaxNumber string
	Notes     string
	Timestamps
}

func (Account) TableName() string { return "accounts" }

// Contact is a person working for an account
type Contact struct {
	ID               int64  `gorm:"primaryKey;column:contact_id"`
	AccountID        int64  `gorm:"not null;index"`
	FirstName        string `gorm:"not null"`
	LastName         string `gorm:"not null"`
	Position         string
	Phone            string
	Mobile           string
	Email            string
	Address          string
	Birthday         *time.Time
	IsPrimaryContact bool
	Notes            string
	Timestamps
}

func (Contact) TableName() string { return "contacts" }

// FullName returns "First Last"
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Property is a managed real-estate object
type Property struct {
	ID          int64  `gorm:"primaryKey;column:property_id"`
	AccountID   int64  `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Street      string `gorm:"not null"`
	HouseNumber string `gorm:"not null"`
	PostalCode  string `gorm:"not null"`
	City        string `gorm:"not null"`
	Notes       string
	Timestamps
}

func (Property) TableName() string { return "properties" }

// PropertyContact links a contact to a property with a role label
type PropertyContact struct {
	ID         int64 `gorm:"primaryKey;column:property_contact_id"`
	PropertyID int64 `gorm:"not null;uniqueIndex:idx_property_contact"`
	ContactID  int64 `gorm:"not null;uniqueIndex:idx_property_contact"`
	Role       string
	Contact    *Contact  `gorm:"foreignKey:ContactID;references:ID"`
	Property   *Property `gorm:"foreignKey:PropertyID;references:ID"`
	Timestamps
}

func (PropertyContact) TableName() string { return "property_contacts" }

// Product is a catalog entry that quote and invoice lines may reference
type Product struct {
	ID          int64  `gorm:"primaryKey;column:product_id"`
	Name        string `gorm:"not null"`
	Description string
	Unit        string  `gorm:"not null"`
	Price       float64 `gorm:"not null"`
	VatRate     float64 `gorm:"not null"`
	IsActive    bool    `gorm:"not null"`
	Timestamps
}

func (Product) TableName() string { return "products" }

// Quote is a priced proposal tied to an account and a property
type Quote struct {
	ID          int64  `gorm:"primaryKey;column:quote_id"`
	AccountID   int64  `gorm:"not null;index"`
	PropertyID  int64  `gorm:"not null;index"`
	ContactID   *int64 `gorm:"index"`
	QuoteNumber string `gorm:"not null;uniqueIndex"`
	QuoteDate   time.Time
	ValidUntil  *time.Time
	Status      QuoteStatus `gorm:"not null"`
	TotalNet    float64     `gorm:"not null"`
	TotalGross  float64     `gorm:"not null"`
	Notes       string
	Items       []QuoteItem `gorm:"foreignKey:QuoteID;references:ID"`
	Timestamps
}

func (Quote) TableName() string { return "quotes" }

// QuoteItem is a single priced line of a quote
type QuoteItem struct {
	ID          int64  `gorm:"primaryKey;column:quote_item_id"`
	QuoteID     int64  `gorm:"not null;index"`
	ProductID   *int64 `gorm:"index"`
	Description string `gorm:"not null"`
	Quantity    float64
	Unit        string
	UnitPrice   float64
	VatRate     float64
	TotalNet    float64
	TotalGross  float64
	Position    int
	Timestamps
}

func (QuoteItem) TableName() string { return "quote_items" }

// Line returns the amounts the totals are computed from
func (i *QuoteItem) Line() LineInput {
	return LineInput{Quantity: i.Quantity, UnitPrice: i.UnitPrice, VatRate: i.VatRate}
}

// Invoice is a billable document, optionally derived from a quote
type Invoice struct {
	ID            int64  `gorm:"primaryKey;column:invoice_id"`
	QuoteID       *int64 `gorm:"index"`
	AccountID     int64  `gorm:"not null;index"`
	PropertyID    int64  `gorm:"not null;index"`
	ContactID     *int64 `gorm:"index"`
	InvoiceNumber string `gorm:"not null;uniqueIndex"`
	InvoiceDate   time.Time
	DueDate       time.Time
	Status        InvoiceStatus `gorm:"not null"`
	TotalNet      float64
	TotalGross    float64
	AmountPaid    float64
	PaymentTerms  string
	Notes         string
	Items         []InvoiceItem `gorm:"foreignKey:InvoiceID;references:ID"`
	Timestamps
}

func (Invoice) TableName() string { return "invoices" }

// OpenAmount is the gross amount not yet paid
func (inv *Invoice) OpenAmount() float64 {
	open := RoundMoney(inv.TotalGross - inv.AmountPaid)
	if open < 0 {
		return 0
	}
	return open
}

// InvoiceItem is a single priced line of an invoice
type InvoiceItem struct {
	ID          int64  `gorm:"primaryKey;column:invoice_item_id"`
	InvoiceID   int64  `gorm:"not null;index"`
	QuoteItemID *int64 `gorm:"index"`
	ProductID   *int64 `gorm:"index"`
	Description string `gorm:"not null"`
	Quantity    float64
	Unit        string
	UnitPrice   float64
	VatRate     float64
	TotalNet    float64
	TotalGross  float64
	Position    int
	Timestamps
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// Line returns the amounts the totals are computed from
func (i *InvoiceItem) Line() LineInput {
	return LineInput{Quantity: i.Quantity, UnitPrice: i.UnitPrice, VatRate: i.VatRate}
}

// User is an application login
type User struct {
	ID           int64  `gorm:"primaryKey;column:user_id"`
	Username     string `gorm:"not null;uniqueIndex"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	Role         UserRole `gorm:"not null"`
	IsActive     bool
	LastLogin    *time.Time
	Timestamps
}

func (User) TableName() string { return "users" }

// NumberSequence tracks the last issued document number per kind and year
type NumberSequence struct {
	ID           int64  `gorm:"primaryKey;column:number_sequence_id"`
	Kind         string `gorm:"not null;uniqueIndex:idx_number_sequence"`
	Year         int    `gorm:"not null;uniqueIndex:idx_number_sequence"`
	LastSequence int    `gorm:"not null"`
	UpdatedAt    time.Time
}

func (NumberSequence) TableName() string { return "number_sequences" }
