package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType discriminates the three kinds of financial document.
type DocumentType string

const (
	TypeInvoice DocumentType = "invoice"
	TypeQuote   DocumentType = "quote"
	TypeExpense DocumentType = "expense"
)

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case TypeInvoice, TypeQuote, TypeExpense:
		return true
	}
	return false
}

// DocumentStatus is the intended business status of a document.
type DocumentStatus string

const (
	StatusDraft         DocumentStatus = "Draft"
	StatusCreated       DocumentStatus = "Created"
	StatusNegotiation   DocumentStatus = "Negotiation"
	StatusAccepted      DocumentStatus = "Accepted"
	StatusRejected      DocumentStatus = "Rejected"
	StatusPartiallyPaid DocumentStatus = "PartiallyPaid"
	StatusPaid          DocumentStatus = "Paid"
	StatusUncollectible DocumentStatus = "Uncollectible"

	// StatusPendingSync is only ever read from rows written by older clients that
	// stored the sync override in the status column. It is never assigned.
	StatusPendingSync DocumentStatus = "PendingSync"
)

// SyncState tracks whether the remote store has confirmed the latest write.
// It is orthogonal to DocumentStatus.
type SyncState string

const (
	SyncSynced  SyncState = "Synced"
	SyncPending SyncState = "PendingSync"
	SyncFailed  SyncState = "Failed"
)

// DiscountKind selects how Discount.Value is interpreted.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "PERCENT"
	DiscountAmount  DiscountKind = "AMOUNT"
)

// LineItem is one billable row. Price is tax-exclusive, in document currency.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Details     string          `json:"details,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TaxRate     decimal.Decimal `json:"tax_rate"` // percent, e.g. 7
}

// Total returns quantity * price.
func (li LineItem) Total() decimal.Decimal {
	return li.Quantity.Mul(li.Price)
}

// Discount is a document-wide discount, distributed across items proportionally
// to their share of the subtotal when computing the tax base.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// TimelineEventType tags an entry in a document's timeline.
type TimelineEventType string

const (
	EventCreated       TimelineEventType = "created"
	EventDraft         TimelineEventType = "draft"
	EventSent          TimelineEventType = "sent"
	EventOpened        TimelineEventType = "opened"
	EventNegotiation   TimelineEventType = "negotiation"
	EventAccepted      TimelineEventType = "accepted"
	EventRejected      TimelineEventType = "rejected"
	EventPayment       TimelineEventType = "payment"
	EventPaid          TimelineEventType = "paid"
	EventUncollectible TimelineEventType = "uncollectible"
	EventSyncPending   TimelineEventType = "sync_pending"
	EventSynced        TimelineEventType = "synced"
)

// TimelineEvent is one append-only lifecycle record.
type TimelineEvent struct {
	Type TimelineEventType `json:"type"`
	At   time.Time         `json:"at"`
	Note string            `json:"note,omitempty"`
}

// ExtensionVersion is the current schema version of Extension.Data.
const ExtensionVersion = 1

// Extension carries forward-compatible fields that have no typed column yet.
// Version documents the shape of Data; readers ignore keys they do not know.
type Extension struct {
	Version int            `json:"version"`
	Data    map[string]any `json:"data,omitempty"`
}

// Document is an Invoice, Quote or Expense.
//
// Client fields are a denormalized snapshot taken when the document was written;
// editing the client profile later does not touch existing documents.
type Document struct {
	ID     string       `json:"id"`
	UserID string       `json:"user_id"`
	Type   DocumentType `json:"type"`

	ClientName    string `json:"client_name"`
	ClientTaxID   string `json:"client_tax_id,omitempty"`
	ClientEmail   string `json:"client_email,omitempty"`
	ClientAddress string `json:"client_address,omitempty"`

	Items        []LineItem      `json:"items"`
	Discount     *Discount       `json:"discount,omitempty"`
	DiscountRate decimal.Decimal `json:"discount_rate"` // effective percent actually applied
	Total        decimal.Decimal `json:"total"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Currency     string          `json:"currency"`

	Status    DocumentStatus  `json:"status"`
	SyncState SyncState       `json:"sync_state"`
	Timeline  []TimelineEvent `json:"timeline"`

	Date       time.Time  `json:"date"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	ReceiptURL string     `json:"receipt_url,omitempty"`

	Extension Extension `json:"extension"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Totals computes the document's totals from its current items and discount.
func (d *Document) Totals() Totals {
	return ComputeTotals(d.Items, d.Discount)
}

// Recompute sets Total and DiscountRate from Items and Discount. It is the only
// place those persisted fields are written.
func (d *Document) Recompute() Totals {
	t := d.Totals()
	d.Total = t.Total
	d.DiscountRate = t.EffectiveDiscountRate
	return t
}

// TotalDrift returns the difference between the stored total and the total
// recomputed from items, and whether they disagree.
func (d *Document) TotalDrift() (decimal.Decimal, bool) {
	diff := d.Total.Sub(d.Totals().Total)
	return diff, !diff.IsZero()
}

// IsDraft reports whether the document still carries a provisional id.
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft
}

// Balance returns the amount still to be collected.
func (d *Document) Balance() decimal.Decimal {
	b := d.Total.Sub(d.AmountPaid)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}
