package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// allowedTransitions is the lifecycle table. A status absent from the map, or
// mapped to an empty set, is terminal.
//
//	Draft → Created
//	Created → Negotiation | Accepted | Rejected | PartiallyPaid | Paid | Uncollectible
//	Negotiation → Accepted | Rejected
//	Accepted → PartiallyPaid | Paid | Uncollectible
//	PartiallyPaid → PartiallyPaid | Paid | Uncollectible
var allowedTransitions = map[DocumentStatus]map[DocumentStatus]bool{
	StatusDraft: {
		StatusDraft:   true,
		StatusCreated: true,
	},
	StatusCreated: {
		StatusNegotiation:   true,
		StatusAccepted:      true,
		StatusRejected:      true,
		StatusPartiallyPaid: true,
		StatusPaid:          true,
		StatusUncollectible: true,
	},
	StatusNegotiation: {
		StatusAccepted: true,
		StatusRejected: true,
	},
	StatusAccepted: {
		StatusPartiallyPaid: true,
		StatusPaid:          true,
		StatusUncollectible: true,
	},
	StatusPartiallyPaid: {
		StatusPartiallyPaid: true,
		StatusPaid:          true,
		StatusUncollectible: true,
	},
}

var eventForStatus = map[DocumentStatus]TimelineEventType{
	StatusDraft:         EventDraft,
	StatusCreated:       EventCreated,
	StatusNegotiation:   EventNegotiation,
	StatusAccepted:      EventAccepted,
	StatusRejected:      EventRejected,
	StatusPaid:          EventPaid,
	StatusUncollectible: EventUncollectible,
}

// CanTransition reports whether the lifecycle table allows from → to.
func CanTransition(from, to DocumentStatus) bool {
	return allowedTransitions[from][to]
}

// IsTerminal reports whether no further status change is allowed from s.
func IsTerminal(s DocumentStatus) bool {
	return len(allowedTransitions[s]) == 0
}

func (d *Document) appendEvent(t TimelineEventType, at time.Time, note string) {
	d.Timeline = append(d.Timeline, TimelineEvent{Type: t, At: at.UTC(), Note: note})
	d.UpdatedAt = at.UTC()
}

// Open sets the initial state of a freshly built document. Drafts get a
// provisional id; everything else must already carry its allocated id.
// Expenses are settled on creation.
func (d *Document) Open(asDraft bool, now time.Time) error {
	if len(d.Timeline) > 0 {
		return fmt.Errorf("document %s is already open", d.ID)
	}
	d.CreatedAt = now.UTC()
	d.Recompute()

	switch {
	case d.Type == TypeExpense:
		if d.ID == "" || IsProvisionalID(d.ID) {
			return fmt.Errorf("expense needs an allocated id")
		}
		d.Status = StatusPaid
		d.AmountPaid = d.Total
		d.appendEvent(EventCreated, now, "")
		d.appendEvent(EventPaid, now, "")
	case asDraft:
		if d.ID == "" {
			d.ID = NewDraftID()
		}
		d.Status = StatusDraft
		d.appendEvent(EventDraft, now, "")
	default:
		if d.ID == "" || IsProvisionalID(d.ID) {
			return fmt.Errorf("document needs an allocated id before it is created")
		}
		d.Status = StatusCreated
		d.appendEvent(EventCreated, now, "")
	}
	return nil
}

// Finalize turns a draft into a Created document under its allocated id.
// It returns the provisional id the draft was stored under.
func (d *Document) Finalize(id string, now time.Time) (string, error) {
	if d.Status != StatusDraft {
		return "", &TransitionError{From: d.Status, To: StatusCreated}
	}
	if id == "" || IsProvisionalID(id) {
		return "", fmt.Errorf("finalize needs an allocated id, got %q", id)
	}
	provisional := d.ID
	d.ID = id
	d.Recompute()
	d.Status = StatusCreated
	d.appendEvent(EventCreated, now, "")
	return provisional, nil
}

// Transition moves the document to status to, appending one timeline event.
// PartiallyPaid is only reached through RecordPayment.
func (d *Document) Transition(to DocumentStatus, now time.Time, note string) error {
	if !CanTransition(d.Status, to) {
		return &TransitionError{From: d.Status, To: to}
	}
	if to == StatusPartiallyPaid {
		return fmt.Errorf("%w: %s is set by recording a payment", ErrInvalidTransition, to)
	}
	if to == StatusPaid && d.AmountPaid.LessThan(d.Total) {
		d.AmountPaid = d.Total
	}
	d.Status = to
	d.appendEvent(eventForStatus[to], now, note)
	return nil
}

// RecordPayment adds amount to AmountPaid and moves the document to Paid once
// the balance is covered, otherwise to PartiallyPaid.
func (d *Document) RecordPayment(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return validationErrorf("payment amount must be > 0")
	}
	if d.Type != TypeInvoice {
		return validationErrorf("payments can only be recorded on invoices")
	}
	switch d.Status {
	case StatusCreated, StatusAccepted, StatusPartiallyPaid:
	default:
		return &TransitionError{From: d.Status, To: StatusPartiallyPaid}
	}

	d.AmountPaid = d.AmountPaid.Add(amount)
	d.appendEvent(EventPayment, now, amount.StringFixed(2))

	if d.AmountPaid.GreaterThanOrEqual(d.Total) {
		d.Status = StatusPaid
		d.appendEvent(EventPaid, now, "")
		return nil
	}
	d.Status = StatusPartiallyPaid
	return nil
}

// RecordDelivery appends a sent or opened event to an issued quote or invoice.
// The status is unchanged. A document is opened only after it was sent.
func (d *Document) RecordDelivery(event TimelineEventType, now time.Time, note string) error {
	if event != EventSent && event != EventOpened {
		return validationErrorf("delivery event must be %s or %s, got %q", EventSent, EventOpened, event)
	}
	if d.Type == TypeExpense {
		return validationErrorf("expenses are not sent")
	}
	if d.Status == StatusDraft {
		return fmt.Errorf("%w: a draft is finalized before it is sent", ErrInvalidTransition)
	}
	if IsTerminal(d.Status) {
		return fmt.Errorf("%w: %s is %s", ErrDocumentLocked, d.ID, d.Status)
	}
	if event == EventOpened && !d.hasEvent(EventSent) {
		return fmt.Errorf("%w: %s was never sent", ErrInvalidTransition, d.ID)
	}
	d.appendEvent(event, now, note)
	return nil
}

func (d *Document) hasEvent(t TimelineEventType) bool {
	for _, e := range d.Timeline {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Edit replaces the billable content of a document and recomputes its totals.
// Documents in a terminal status are locked, except expenses, which are
// created settled.
func (d *Document) Edit(items []LineItem, discount *Discount, now time.Time) error {
	if IsTerminal(d.Status) && d.Type != TypeExpense {
		return fmt.Errorf("%w: %s is %s", ErrDocumentLocked, d.ID, d.Status)
	}
	d.Items = items
	d.Discount = discount
	d.Recompute()
	if d.Type == TypeExpense {
		d.AmountPaid = d.Total
	}
	d.UpdatedAt = now.UTC()
	return nil
}

// MarkPendingSync records that the latest write was not confirmed remotely.
// The intended status is left untouched.
func (d *Document) MarkPendingSync(now time.Time) {
	if d.SyncState == SyncPending {
		return
	}
	d.SyncState = SyncPending
	d.appendEvent(EventSyncPending, now, string(d.Status))
}

// MarkSynced records a confirmed remote write. note is kept on the synced
// event, e.g. when the document was renumbered on reconcile.
func (d *Document) MarkSynced(now time.Time, note string) {
	if d.SyncState == SyncSynced {
		return
	}
	d.SyncState = SyncSynced
	d.appendEvent(EventSynced, now, note)
}

// MarkSyncFailed records a write the remote store rejected for a reason other
// than connectivity.
func (d *Document) MarkSyncFailed() {
	d.SyncState = SyncFailed
}
