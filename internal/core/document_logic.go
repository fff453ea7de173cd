package core

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DraftIDPrefix marks provisional ids. Drafts never consume a sequence number.
const DraftIDPrefix = "DRAFT-"

// NewDraftID returns a provisional document id.
func NewDraftID() string {
	return DraftIDPrefix + uuid.NewString()
}

// IsProvisionalID reports whether id was produced by NewDraftID.
func IsProvisionalID(id string) bool {
	return strings.HasPrefix(id, DraftIDPrefix)
}

// Normalize cleans up user input: trims text, upper-cases the currency, fills
// missing item ids and defaults the extension version.
func (d *Document) Normalize(defaultCurrency string) {
	d.ClientName = strings.TrimSpace(d.ClientName)
	d.ClientTaxID = strings.TrimSpace(d.ClientTaxID)
	d.ClientEmail = strings.ToLower(strings.TrimSpace(d.ClientEmail))
	d.ClientAddress = strings.TrimSpace(d.ClientAddress)
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if d.Currency == "" {
		d.Currency = strings.ToUpper(defaultCurrency)
	}
	if d.SyncState == "" {
		d.SyncState = SyncSynced
	}
	if d.Extension.Version == 0 {
		d.Extension.Version = ExtensionVersion
	}

	for i := range d.Items {
		item := &d.Items[i]
		item.Description = strings.TrimSpace(item.Description)
		item.Details = strings.TrimSpace(item.Details)
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
	}

	// Rows written by older clients kept the sync override in the status column.
	if d.Status == StatusPendingSync {
		d.Status = StatusCreated
		d.SyncState = SyncPending
	}
}

// Validate checks one line item.
func (li LineItem) Validate() error {
	if !li.Quantity.IsPositive() {
		return validationErrorf("item %q: quantity must be > 0", li.Description)
	}
	if li.Price.IsNegative() {
		return validationErrorf("item %q: price cannot be negative", li.Description)
	}
	if li.TaxRate.IsNegative() || li.TaxRate.GreaterThan(hundred) {
		return validationErrorf("item %q: tax rate must be between 0 and 100", li.Description)
	}
	return nil
}

// Validate checks the discount bounds for its kind.
func (d Discount) Validate() error {
	switch d.Kind {
	case DiscountPercent:
		if d.Value.IsNegative() || d.Value.GreaterThan(hundred) {
			return validationErrorf("percent discount must be between 0 and 100, got %s", d.Value)
		}
	case DiscountAmount:
		if d.Value.IsNegative() {
			return validationErrorf("discount amount cannot be negative, got %s", d.Value)
		}
	default:
		return validationErrorf("unknown discount kind %q", d.Kind)
	}
	return nil
}

// Validate enforces the rules a document must satisfy before it is written.
func (d *Document) Validate() error {
	if !d.Type.Valid() {
		return validationErrorf("unknown document type %q", d.Type)
	}
	if d.UserID == "" {
		return validationErrorf("document must belong to an account")
	}
	if d.ClientName == "" {
		if d.Type == TypeExpense {
			return validationErrorf("expense must name a vendor")
		}
		return validationErrorf("client name is required")
	}
	if len(d.Currency) != 3 {
		return validationErrorf("currency must be a 3-letter code, got %q", d.Currency)
	}
	if len(d.Items) == 0 {
		return validationErrorf("document must have at least one item")
	}
	for _, item := range d.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	if d.Discount != nil {
		if err := d.Discount.Validate(); err != nil {
			return err
		}
	}
	if d.AmountPaid.IsNegative() {
		return validationErrorf("amount paid cannot be negative")
	}
	if d.Totals().Total.LessThanOrEqual(decimal.Zero) {
		return validationErrorf("document total must be greater than zero")
	}
	return nil
}
