package domain

// DateFormat is the wire format for calendar dates
const DateFormat = "2006-01-02"

// APIResponse is the envelope every /api endpoint answers with
type APIResponse struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Response DTOs

type AccountDTO struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Website   string `json:"website"`
	TaxNumber string `json:"tax_number"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ContactDTO struct {
	ContactID        int64   `json:"contact_id"`
	AccountID        int64   `json:"account_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Position         string  `json:"position"`
	Phone            string  `json:"phone"`
	Mobile           string  `json:"mobile"`
	Email            string  `json:"email"`
	Address          string  `json:"address"`
	Birthday         *string `json:"birthday"`
	IsPrimaryContact bool    `json:"is_primary_contact"`
	Notes            string  `json:"notes"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

type PropertyDTO struct {
	PropertyID  int64  `json:"property_id"`
	AccountID   int64  `json:"account_id"`
	Name        string `json:"name"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type PropertyContactDTO struct {
	PropertyContactID int64        `json:"property_contact_id"`
	PropertyID        int64        `json:"property_id"`
	ContactID         int64        `json:"contact_id"`
	Role              string       `json:"role"`
	Contact           *ContactDTO  `json:"contact,omitempty"`
	Property          *PropertyDTO `json:"property,omitempty"`
}

type ProductDTO struct {
	ProductID   int64   `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
	VatRate     float64 `json:"vat_rate"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type QuoteDTO struct {
	QuoteID     int64       `json:"quote_id"`
	AccountID   int64       `json:"account_id"`
	PropertyID  int64       `json:"property_id"`
	ContactID   *int64      `json:"contact_id"`
	QuoteNumber string      `json:"quote_number"`
	QuoteDate   string      `json:"quote_date"`
	ValidUntil  *string     `json:"valid_until"`
	Status      QuoteStatus `json:"status"`
	TotalNet    float64     `json:"total_net"`
	TotalGross  float64     `json:"total_gross"`
	Notes       string      `json:"notes"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

// QuoteDetailDTO is a quote together with its ordered items
type QuoteDetailDTO struct {
	QuoteDTO
	Items []QuoteItemDTO `json:"items"`
}

type QuoteItemDTO struct {
	QuoteItemID int64   `json:"quote_item_id"`
	QuoteID     int64   `json:"quote_id"`
	ProductID   *int64  `json:"product_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	VatRate     float64 `json:"vat_rate"`
	TotalNet    float64 `json:"total_net"`
	TotalGross  float64 `json:"total_gross"`
	Position    int     `json:"position"`
}

type InvoiceDTO struct {
	InvoiceID     int64         `json:"invoice_id"`
	QuoteID       *int64        `json:"quote_id"`
	AccountID     int64         `json:"account_id"`
	PropertyID    int64         `json:"property_id"`
	ContactID     *int64        `json:"contact_id"`
	InvoiceNumber string        `json:"invoice_number"`
	InvoiceDate   string        `json:"invoice_date"`
	DueDate       string        `json:"due_date"`
	Status        InvoiceStatus `json:"status"`
	TotalNet      float64       `json:"total_net"`
	TotalGross    float64       `json:"total_gross"`
	AmountPaid    float64       `json:"amount_paid"`
	OpenAmount    float64       `json:"open_amount"`
	PaymentTerms  string        `json:"payment_terms"`
	Notes         string        `json:"notes"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
}

// InvoiceDetailDTO is an invoice together with its ordered items
type InvoiceDetailDTO struct {
	InvoiceDTO
	Items []InvoiceItemDTO `json:"items"`
}

type InvoiceItemDTO struct {
	InvoiceItemID int64   `json:"invoice_item_id"`
	InvoiceID     int64   `json:"invoice_id"`
	QuoteItemID   *int64  `json:"quote_item_id"`
	ProductID     *int64  `json:"product_id"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	UnitPrice     float64 `json:"unit_price"`
	VatRate       float64 `json:"vat_rate"`
	TotalNet      float64 `json:"total_net"`
	TotalGross    float64 `json:"total_gross"`
	Position      int     `json:"position"`
}

type UserDTO struct {
	UserID    int64    `json:"user_id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role"`
	IsActive  bool     `json:"is_active"`
	LastLogin *string  `json:"last_login"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type LoginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      UserDTO `json:"user"`
}

type TotalsPreviewDTO struct {
	Lines      []LineTotals `json:"lines"`
	TotalNet   float64      `json:"total_net"`
	TotalGross float64      `json:"total_gross"`
}

type DashboardStatsDTO struct {
	Accounts          int64   `json:"accounts"`
	Contacts          int64   `json:"contacts"`
	Properties        int64   `json:"properties"`
	Products          int64   `json:"products"`
	Quotes            int64   `json:"quotes"`
	Invoices          int64   `json:"invoices"`
	OpenQuoteValue    float64 `json:"open_quote_value"`
	OutstandingAmount float64 `json:"outstanding_amount"`

	QuotesByStatus   map[QuoteStatus]int64   `json:"quotes_by_status"`
	InvoicesByStatus map[InvoiceStatus]int64 `json:"invoices_by_status"`
}

// Request DTOs

type AccountRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Address   string `json:"address" validate:"max=500"`
	Phone     string `json:"phone" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
	Website   string `json:"website" validate:"max=255"`
	TaxNumber string `json:"tax_number" validate:"max=50"`
	Notes     string `json:"notes"`
}

type ContactRequest struct {
	AccountID        int64  `json:"account_id" validate:"required,gt=0"`
	FirstName        string `json:"first_name" validate:"required,max=100"`
	LastName         string `json:"last_name" validate:"required,max=100"`
	Position         string `json:"position" validate:"max=100"`
	Phone            string `json:"phone" validate:"max=50"`
	Mobile           string `json:"mobile" validate:"max=50"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address" validate:"max=500"`
	Birthday         string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	IsPrimaryContact bool   `json:"is_primary_contact"`
	Notes            string `json:"notes"`
}

type PropertyRequest struct {
	AccountID   int64  `json:"account_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=200"`
	Street      string `json:"street" validate:"required,max=200"`
	HouseNumber string `json:"house_number" validate:"required,max=20"`
	PostalCode  string `json:"postal_code" validate:"required,max=20"`
	City        string `json:"city" validate:"required,max=100"`
	Notes       string `json:"notes"`
}

type PropertyContactRequest struct {
	ContactID int64  `json:"contact_id" validate:"required,gt=0"`
	Role      string `json:"role" validate:"max=100"`
}

type ProductRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=1000"`
	Unit        string   `json:"unit" validate:"max=20"`
	Price       float64  `json:"price" validate:"gte=0,lte=1000000000"`
	VatRate     *float64 `json:"vat_rate" validate:"omitempty,gte=0,lte=100"`
	IsActive    *bool    `json:"is_active"`
}

// LineItemRequest carries one quote or invoice line. Omitted description, unit,
// unit_price and vat_rate are taken from the referenced product.
type LineItemRequest struct {
	ProductID   *int64   `json:"product_id" validate:"omitempty,gt=0"`
	Description string   `json:"description" validate:"max=1000"`
	Quantity    float64  `json:"quantity" validate:"gt=0,lte=1000000000"`
	Unit        string   `json:"unit" validate:"max=20"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=-1000000000,lte=1000000000"`
	VatRate     *float64 `json:"vat_rate" validate:"omitempty,gte=0,lte=100"`
	Position    int      `json:"position" validate:"gte=0"`
}

type QuoteItemRequest struct {
	LineItemRequest
}

type InvoiceItemRequest struct {
	LineItemRequest
	QuoteItemID *int64 `json:"quote_item_id" validate:"omitempty,gt=0"`
}

// QuoteRequest creates or overwrites a quote. total_net and total_gross are accepted
// for compatibility and ignored; the server derives them from the items. A present
// items array replaces the existing item set.
type QuoteRequest struct {
	AccountID   int64               `json:"account_id" validate:"required,gt=0"`
	PropertyID  int64               `json:"property_id" validate:"required,gt=0"`
	ContactID   *int64              `json:"contact_id" validate:"omitempty,gt=0"`
	QuoteNumber string              `json:"quote_number" validate:"max=50"`
	QuoteDate   string              `json:"quote_date" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil  string              `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	Status      QuoteStatus         `json:"status" validate:"omitempty,oneof=created sent accepted rejected"`
	TotalNet    *float64            `json:"total_net"`
	TotalGross  *float64            `json:"total_gross"`
	Notes       string              `json:"notes"`
	Items       *[]QuoteItemRequest `json:"items" validate:"omitempty,dive"`
}

type InvoiceRequest struct {
	QuoteID       *int64                `json:"quote_id" validate:"omitempty,gt=0"`
	AccountID     int64                 `json:"account_id" validate:"required,gt=0"`
	PropertyID    int64                 `json:"property_id" validate:"required,gt=0"`
	ContactID     *int64                `json:"contact_id" validate:"omitempty,gt=0"`
	InvoiceNumber string                `json:"invoice_number" validate:"max=50"`
	InvoiceDate   string                `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate       string                `json:"due_date" validate:"required,datetime=2006-01-02"`
	Status        InvoiceStatus         `json:"status" validate:"omitempty,oneof=created sent paid overdue cancelled"`
	PaymentTerms  string                `json:"payment_terms" validate:"max=500"`
	Notes         string                `json:"notes"`
	Items         *[]InvoiceItemRequest `json:"items" validate:"omitempty,dive"`
}

type CreateInvoiceFromQuoteRequest struct {
	InvoiceNumber   string `json:"invoice_number" validate:"max=50"`
	InvoiceDate     string `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate         string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentTermDays int    `json:"payment_term_days" validate:"gte=0,lte=365"`
	PaymentTerms    string `json:"payment_terms" validate:"max=500"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

type CreateUserRequest struct {
	Username  string   `json:"username" validate:"required,min=3,max=50"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	FirstName string   `json:"first_name" validate:"max=100"`
	LastName  string   `json:"last_name" validate:"max=100"`
	Role      UserRole `json:"role" validate:"omitempty,oneof=admin user"`
	IsActive  *bool    `json:"is_active"`
}

type UpdateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	FirstName string   `json:"first_name" validate:"max=100"`
	LastName  string   `json:"last_name" validate:"max=100"`
	Role      UserRole `json:"role" validate:"required,oneof=admin user"`
	IsActive  *bool    `json:"is_active"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TotalsPreviewLine mirrors the amounts of a line item. An omitted vat_rate
// falls back to the default rate, as it does when the item is saved.
type TotalsPreviewLine struct {
	Quantity  float64  `json:"quantity" validate:"gte=0,lte=1000000000"`
	UnitPrice float64  `json:"unit_price" validate:"gte=-1000000000,lte=1000000000"`
	VatRate   *float64 `json:"vat_rate" validate:"omitempty,gte=0,lte=100"`
}

type TotalsPreviewRequest struct {
	Items []TotalsPreviewLine `json:"items" validate:"dive"`
}
