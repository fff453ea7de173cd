package app

import (
	"time"

	"billing-service/internal/core"

	"github.com/shopspring/decimal"
)

// ItemInput is one line item as entered. A nil TaxRate takes the configured
// default.
type ItemInput struct {
	ID          string
	Description string
	Details     string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TaxRate     *decimal.Decimal
}

// PreviewTotalsRequest is the input for PreviewTotals.
type PreviewTotalsRequest struct {
	Items    []ItemInput
	Discount *core.Discount
}

// SaveDocumentRequest is the input for SaveDocument. ClientID, when set, copies
// the client's current contact fields onto the document.
type SaveDocumentRequest struct {
	AccountID string
	ID        string // empty for a new document
	Type      core.DocumentType
	AsDraft   bool

	ClientID      string
	ClientName    string
	ClientTaxID   string
	ClientEmail   string
	ClientAddress string

	Items    []ItemInput
	Discount *core.Discount
	Currency string

	Date       time.Time
	DueDate    *time.Time
	Notes      string
	ReceiptURL string
	Extension  map[string]any
}

// TransitionRequest is the input for TransitionDocument.
type TransitionRequest struct {
	AccountID string
	ID        string
	Status    core.DocumentStatus
	Note      string
}

// DeliveryRequest is the input for RecordDelivery. Event is sent or opened.
type DeliveryRequest struct {
	AccountID string
	ID        string
	Event     core.TimelineEventType
	Note      string
}

// PaymentRequest is the input for RecordPayment.
type PaymentRequest struct {
	AccountID string
	ID        string
	Amount    decimal.Decimal
}

// ListDocumentsRequest filters ListDocuments. Empty fields match everything.
type ListDocumentsRequest struct {
	AccountID string
	Type      core.DocumentType
	Status    core.DocumentStatus
}

// SaveClientRequest is the input for SaveClient.
type SaveClientRequest struct {
	AccountID string
	ID        string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	Address   string
	Tags      []string
	Notes     []string
	Extension map[string]any
}

// SuggestPriceRequest is the input for SuggestPrice.
type SuggestPriceRequest struct {
	Description string
	Currency    string
}

// SuggestDiscountRequest is the input for SuggestDiscount. When ID is set the
// stored document is used and Items are ignored.
type SuggestDiscountRequest struct {
	AccountID string
	ID        string
	Type      core.DocumentType
	Currency  string
	Items     []ItemInput
	Discount  *core.Discount
}
